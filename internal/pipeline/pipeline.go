// Package pipeline turns the active voices into one block of int16 PCM:
// mix, master effects, low-pass, scale, clip and quantize.
package pipeline

import (
	"errors"
	"fmt"
	"math"

	"github.com/cbegin/polysynth-go/internal/effects"
	"github.com/cbegin/polysynth-go/internal/filter"
	"github.com/cbegin/polysynth-go/internal/modulation"
)

const (
	DefaultMinCutoff = 10.0
	DefaultMaxCutoff = 2000.0
	DefaultOrder     = 6
)

var (
	ErrChannels   = errors.New("pipeline: channel count must be 1 or 2")
	ErrSampleRate = errors.New("pipeline: sample rate must be positive")
	ErrAmp        = errors.New("pipeline: amplitude limits must be positive")
)

// Config fixes the pipeline's format and output stage. Zero cutoff bounds
// and order take the defaults.
type Config struct {
	SampleRate    int
	Channels      int
	AmpScale      float64
	MaxAmp        float64
	FilterEnabled bool
	Cutoff        float64
	FilterOrder   int
	MinCutoff     float64
	MaxCutoff     float64
	Effects       *effects.Chain
}

// Pipeline owns the mix buffer and the filter state carried between blocks.
// It is not safe for concurrent use.
type Pipeline struct {
	channels  int
	ampScale  float64
	maxAmp    float64
	minCutoff float64
	maxCutoff float64
	filterOn  bool
	lowpass   *filter.LowPass
	effects   *effects.Chain
	mix       []float64
}

func New(cfg Config) (*Pipeline, error) {
	if cfg.SampleRate <= 0 {
		return nil, ErrSampleRate
	}
	if cfg.Channels != 1 && cfg.Channels != 2 {
		return nil, ErrChannels
	}
	if cfg.AmpScale <= 0 || cfg.MaxAmp <= 0 {
		return nil, ErrAmp
	}
	if cfg.MinCutoff == 0 {
		cfg.MinCutoff = DefaultMinCutoff
	}
	if cfg.MaxCutoff == 0 {
		cfg.MaxCutoff = DefaultMaxCutoff
	}
	if cfg.FilterOrder == 0 {
		cfg.FilterOrder = DefaultOrder
	}
	for _, hz := range []float64{cfg.MinCutoff, cfg.MaxCutoff} {
		if err := filter.ValidCutoff(hz, cfg.SampleRate); err != nil {
			return nil, fmt.Errorf("pipeline: cutoff bounds: %w", err)
		}
	}
	if cfg.MinCutoff > cfg.MaxCutoff {
		return nil, fmt.Errorf("pipeline: cutoff bounds [%g, %g]: %w", cfg.MinCutoff, cfg.MaxCutoff, filter.ErrCutoff)
	}
	p := &Pipeline{
		channels:  cfg.Channels,
		ampScale:  cfg.AmpScale,
		maxAmp:    cfg.MaxAmp,
		minCutoff: cfg.MinCutoff,
		maxCutoff: cfg.MaxCutoff,
		filterOn:  cfg.FilterEnabled,
		effects:   cfg.Effects,
	}
	lp, err := filter.NewLowPass(p.clampCutoff(cfg.Cutoff), cfg.SampleRate, cfg.FilterOrder, cfg.Channels)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	p.lowpass = lp
	return p, nil
}

func (p *Pipeline) Channels() int { return p.channels }

// Produce renders len(dst)/Channels frames into dst. With no sources dst is
// zeroed, the filter state is left alone and Produce returns false.
func (p *Pipeline) Produce(sources []modulation.Source, dst []int16) bool {
	if len(sources) == 0 {
		clear(dst)
		return false
	}
	n := len(dst) / p.channels * p.channels
	if cap(p.mix) < n {
		p.mix = make([]float64, n)
	}
	mix := p.mix[:n]
	clear(mix)

	for i := 0; i < n; i += p.channels {
		for _, src := range sources {
			l, r := src.NextFrame()
			if p.channels == 1 {
				if src.Channels() == 2 {
					l = (l + r) / 2
				}
				mix[i] += l
				continue
			}
			mix[i] += l
			mix[i+1] += r
		}
		if p.effects != nil {
			p.effects.Process(mix[i : i+p.channels])
		}
	}

	if p.filterOn {
		p.lowpass.Process(mix)
	}

	for i, x := range mix {
		x *= p.ampScale
		x = math.Max(-p.maxAmp, math.Min(p.maxAmp, x))
		dst[i] = int16(math.Round(x * 32767))
	}
	clear(dst[n:])
	return true
}

// SetFilterEnabled switches the low-pass. Turning it off drops the carried
// state so re-enabling starts fresh.
func (p *Pipeline) SetFilterEnabled(on bool) {
	if !on {
		p.lowpass.Reset()
	}
	p.filterOn = on
}

func (p *Pipeline) FilterEnabled() bool { return p.filterOn }

// SetCutoff clamps hz into the cutoff bounds, redesigns the filter and
// returns the cutoff applied. The carried state is dropped. NaN is ignored.
func (p *Pipeline) SetCutoff(hz float64) float64 {
	if math.IsNaN(hz) {
		return p.lowpass.Cutoff()
	}
	hz = p.clampCutoff(hz)
	// Bounds were validated in New.
	_ = p.lowpass.SetCutoff(hz)
	return hz
}

func (p *Pipeline) Cutoff() float64 { return p.lowpass.Cutoff() }

// CutoffRange returns the bounds SetCutoff clamps to.
func (p *Pipeline) CutoffRange() (lo, hi float64) { return p.minCutoff, p.maxCutoff }

// FilterState exposes the carried low-pass state, nil when there is none.
func (p *Pipeline) FilterState() [][][2]float64 { return p.lowpass.State() }

// SetEffects replaces the master effects; nil removes them.
func (p *Pipeline) SetEffects(c *effects.Chain) { p.effects = c }

func (p *Pipeline) clampCutoff(hz float64) float64 {
	if math.IsNaN(hz) {
		return p.minCutoff
	}
	return math.Max(p.minCutoff, math.Min(p.maxCutoff, hz))
}
