package osc

import (
	"fmt"
	"math"
	"strings"
)

const twoPi = math.Pi * 2

// Kind selects the periodic function an Oscillator evaluates.
type Kind int

const (
	Sine Kind = iota
	Square
	Triangle
	Sawtooth
)

var kindNames = [...]string{"sine", "square", "triangle", "sawtooth"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind accepts the names printed by Kind.String, plus "saw" and "tri".
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sine", "sin":
		return Sine, nil
	case "square", "sqr":
		return Square, nil
	case "triangle", "tri":
		return Triangle, nil
	case "sawtooth", "saw":
		return Sawtooth, nil
	}
	return 0, fmt.Errorf("unknown waveform %q (expected sine|square|triangle|sawtooth)", name)
}

// Params holds the three modulatable oscillator parameters.
// Phase is an offset in radians.
type Params struct {
	Freq  float64
	Amp   float64
	Phase float64
}

type Option func(*Oscillator)

// WithPhase sets the initial phase offset in radians.
func WithPhase(rad float64) Option {
	return func(o *Oscillator) { o.init.Phase = rad }
}

// WithPhaseDegrees sets the initial phase offset in degrees.
func WithPhaseDegrees(deg float64) Option {
	return WithPhase(deg / 360 * twoPi)
}

// WithRange maps the raw [-1, 1] waveform onto [lo, hi] before amplitude
// scaling. LFOs use it to stay positive, e.g. (0.2, 1).
func WithRange(lo, hi float64) Option {
	return func(o *Oscillator) {
		o.lo = lo
		o.hi = hi
	}
}

// WithThreshold moves the square wave's switching point on the underlying sine.
func WithThreshold(t float64) Option {
	return func(o *Oscillator) { o.threshold = t }
}

// Oscillator is an infinite, non-restartable waveform generator. The live
// parameters may be changed between calls to Next; they are read on every call.
type Oscillator struct {
	kind       Kind
	sampleRate float64
	init       Params
	live       Params
	acc        float64 // accumulated phase in [0, 2π)
	lo, hi     float64
	threshold  float64
}

func New(kind Kind, freq, amp float64, sampleRate int, opts ...Option) *Oscillator {
	o := &Oscillator{
		kind:       kind,
		sampleRate: float64(sampleRate),
		init:       Params{Freq: freq, Amp: amp},
		lo:         -1,
		hi:         1,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.live = o.init
	return o
}

func (o *Oscillator) Kind() Kind { return o.kind }

// Baseline returns the parameters the oscillator was created with.
func (o *Oscillator) Baseline() Params { return o.init }

// Live returns the parameters the next sample will use.
func (o *Oscillator) Live() Params { return o.live }

func (o *Oscillator) SetFreq(hz float64)   { o.live.Freq = hz }
func (o *Oscillator) SetAmp(amp float64)   { o.live.Amp = amp }
func (o *Oscillator) SetPhase(rad float64) { o.live.Phase = rad }
func (o *Oscillator) SampleRate() float64  { return o.sampleRate }

// Next returns the current sample and advances the phase by one sample.
func (o *Oscillator) Next() float64 {
	v := o.shape(wrap(o.acc + o.live.Phase))
	if o.lo != -1 || o.hi != 1 {
		v = (v+1)/2*(o.hi-o.lo) + o.lo
	}
	out := v * o.live.Amp

	if o.live.Freq > 0 && o.sampleRate > 0 {
		o.acc = wrap(o.acc + twoPi*o.live.Freq/o.sampleRate)
	}
	return out
}

func (o *Oscillator) shape(theta float64) float64 {
	switch o.kind {
	case Square:
		if math.Sin(theta) >= o.threshold {
			return 1
		}
		return -1
	case Triangle:
		return 2*math.Abs(saw(theta+math.Pi/2)) - 1
	case Sawtooth:
		return saw(theta)
	default:
		return math.Sin(theta)
	}
}

// saw ramps from 0 up to 1 at half a cycle, jumps to -1 and ramps back to 0.
func saw(theta float64) float64 {
	x := theta / twoPi
	return 2 * (x - math.Floor(x+0.5))
}

func wrap(theta float64) float64 {
	if theta >= 0 && theta < twoPi {
		return theta
	}
	theta = math.Mod(theta, twoPi)
	if theta < 0 {
		theta += twoPi
	}
	return theta
}

// Oscillators carry no release stage.
func (o *Oscillator) Releasable() bool { return false }
func (o *Oscillator) TriggerRelease()  {}
func (o *Oscillator) Ended() bool      { return true }
