// Package filter provides the Butterworth low-pass used on the mixed output.
// Its state carries across blocks so consecutive blocks filter exactly like
// one long buffer.
package filter

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design"
)

var (
	ErrCutoff     = errors.New("cutoff must be inside (0, sampleRate/2)")
	ErrOrder      = errors.New("filter order must be positive")
	ErrSampleRate = errors.New("sample rate must be positive")
	ErrChannels   = errors.New("channel count must be 1 or 2")
)

// LowPass is a Butterworth cascade, one per interleaved channel.
type LowPass struct {
	sampleRate int
	order      int
	channels   int
	cutoff     float64
	chains     []*biquad.Chain
	primed     bool
}

func NewLowPass(cutoff float64, sampleRate, order, channels int) (*LowPass, error) {
	if sampleRate <= 0 {
		return nil, ErrSampleRate
	}
	if order <= 0 {
		return nil, ErrOrder
	}
	if channels != 1 && channels != 2 {
		return nil, ErrChannels
	}
	f := &LowPass{sampleRate: sampleRate, order: order, channels: channels}
	if err := f.SetCutoff(cutoff); err != nil {
		return nil, err
	}
	return f, nil
}

// ValidCutoff reports an error when hz cannot be designed at sampleRate.
func ValidCutoff(hz float64, sampleRate int) error {
	if !(hz > 0 && hz < float64(sampleRate)/2) {
		return fmt.Errorf("%w: %g Hz at %d Hz", ErrCutoff, hz, sampleRate)
	}
	return nil
}

// SetCutoff redesigns the filter and drops the carried state.
func (f *LowPass) SetCutoff(hz float64) error {
	if err := ValidCutoff(hz, f.sampleRate); err != nil {
		return err
	}
	coeffs := design.ButterworthLP(hz, f.order, float64(f.sampleRate))
	if len(coeffs) == 0 {
		return fmt.Errorf("%w: %g Hz at %d Hz", ErrCutoff, hz, f.sampleRate)
	}
	f.cutoff = hz
	f.chains = make([]*biquad.Chain, f.channels)
	for ch := range f.chains {
		f.chains[ch] = biquad.NewChain(coeffs)
	}
	f.primed = false
	return nil
}

func (f *LowPass) Cutoff() float64 { return f.cutoff }
func (f *LowPass) Order() int      { return f.order }

// Primed reports whether carried state exists. Unprimed filters take their
// initial state from the next block's first frame.
func (f *LowPass) Primed() bool { return f.primed }

// Reset drops the carried state.
func (f *LowPass) Reset() {
	for _, c := range f.chains {
		c.Reset()
	}
	f.primed = false
}

// Process filters interleaved frames in place.
func (f *LowPass) Process(buf []float64) {
	if len(buf) < f.channels {
		return
	}
	if !f.primed {
		for ch, c := range f.chains {
			settle(c, buf[ch])
		}
		f.primed = true
	}
	for i := 0; i+f.channels <= len(buf); i += f.channels {
		for ch, c := range f.chains {
			buf[i+ch] = c.ProcessSample(buf[i+ch])
		}
	}
}

// State returns the carried delay-line state of every section per channel,
// or nil when unprimed.
func (f *LowPass) State() [][][2]float64 {
	if !f.primed {
		return nil
	}
	out := make([][][2]float64, len(f.chains))
	for ch, c := range f.chains {
		out[ch] = c.State()
	}
	return out
}

// settle loads each section with the steady state it would reach after a
// constant input x, so a block that starts mid-signal has no onset transient.
func settle(c *biquad.Chain, x float64) {
	x *= c.Gain()
	for i := 0; i < c.NumSections(); i++ {
		s := c.Section(i)
		den := 1 + s.A1 + s.A2
		y := 0.0
		if den != 0 {
			y = (s.B0 + s.B1 + s.B2) / den * x
		}
		d1 := s.B2*x - s.A2*y
		d0 := y - s.B0*x
		s.SetState([2]float64{d0, d1})
		x = y
	}
}
