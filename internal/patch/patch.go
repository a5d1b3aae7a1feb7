// Package patch describes voice trees as plain values. A Patch can be
// validated and printed without running it; Factory turns it into the voice
// constructor the registry calls on every key press.
package patch

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cbegin/polysynth-go/internal/envelope"
	"github.com/cbegin/polysynth-go/internal/modulation"
	"github.com/cbegin/polysynth-go/internal/osc"
	"github.com/cbegin/polysynth-go/internal/voice"
)

var ErrInvalid = errors.New("invalid patch")

// Node is a mono signal element: Osc, Env, Mod, Chain or Adder.
type Node interface {
	build(c buildCtx) modulation.Stream
	validate(path string) error
	describe(b *strings.Builder, depth int)
}

// Stage is a Chain stage element. Volume is the only one.
type Stage interface {
	buildStage(c buildCtx) modulation.Stage
	validate(path string) error
	describe(b *strings.Builder, depth int)
}

type buildCtx struct {
	freq       float64
	amp        float64
	sampleRate int
}

// Osc is an oscillator. By default it plays the note frequency at the note
// amplitude; Hz > 0 pins a fixed frequency (an LFO) whose amplitude is Level
// alone.
type Osc struct {
	Wave      osc.Kind
	Ratio     float64    // multiple of the note frequency, 0 means 1
	Hz        float64    // fixed frequency, overrides Ratio
	Level     float64    // amplitude multiplier, 0 means 1
	PhaseDeg  float64    // initial phase offset in degrees
	Range     [2]float64 // output range, zero value means [-1, 1]
	Threshold float64    // square wave switching point
}

func (o Osc) params(c buildCtx) (freq, amp float64) {
	level := o.Level
	if level == 0 {
		level = 1
	}
	if o.Hz > 0 {
		return o.Hz, level
	}
	ratio := o.Ratio
	if ratio == 0 {
		ratio = 1
	}
	return c.freq * ratio, c.amp * level
}

func (o Osc) oscillator(c buildCtx) *osc.Oscillator {
	freq, amp := o.params(c)
	opts := []osc.Option{osc.WithPhaseDegrees(o.PhaseDeg)}
	if o.Range != ([2]float64{}) {
		opts = append(opts, osc.WithRange(o.Range[0], o.Range[1]))
	}
	if o.Threshold != 0 {
		opts = append(opts, osc.WithThreshold(o.Threshold))
	}
	return osc.New(o.Wave, freq, amp, c.sampleRate, opts...)
}

func (o Osc) build(c buildCtx) modulation.Stream { return o.oscillator(c) }

func (o Osc) validate(path string) error {
	switch {
	case o.Wave < osc.Sine || o.Wave > osc.Sawtooth:
		return invalid(path, "unknown waveform %d", int(o.Wave))
	case o.Hz < 0:
		return invalid(path, "negative frequency %g", o.Hz)
	case o.Ratio < 0:
		return invalid(path, "negative ratio %g", o.Ratio)
	case o.Level < 0:
		return invalid(path, "negative level %g", o.Level)
	case o.Range != ([2]float64{}) && o.Range[0] >= o.Range[1]:
		return invalid(path, "empty range [%g, %g]", o.Range[0], o.Range[1])
	}
	return nil
}

func (o Osc) describe(b *strings.Builder, depth int) {
	line(b, depth, "osc %s", o.Wave)
	if o.Hz > 0 {
		fmt.Fprintf(b, " hz=%s", num(o.Hz))
	} else if o.Ratio != 0 && o.Ratio != 1 {
		fmt.Fprintf(b, " ratio=%s", num(o.Ratio))
	}
	if o.Level != 0 && o.Level != 1 {
		fmt.Fprintf(b, " level=%s", num(o.Level))
	}
	if o.PhaseDeg != 0 {
		fmt.Fprintf(b, " phase=%s", num(o.PhaseDeg))
	}
	if o.Range != ([2]float64{}) {
		fmt.Fprintf(b, " range=[%s,%s]", num(o.Range[0]), num(o.Range[1]))
	}
	if o.Threshold != 0 {
		fmt.Fprintf(b, " threshold=%s", num(o.Threshold))
	}
	b.WriteByte('\n')
}

// Env is an ADSR envelope; durations are in seconds.
type Env struct {
	Attack  float64
	Decay   float64
	Sustain float64
	Release float64
}

func (e Env) build(c buildCtx) modulation.Stream {
	return envelope.New(e.Attack, e.Decay, e.Sustain, e.Release, c.sampleRate)
}

func (e Env) validate(path string) error {
	if e.Attack < 0 || e.Decay < 0 || e.Release < 0 {
		return invalid(path, "negative duration")
	}
	if e.Sustain < 0 || e.Sustain > 1 {
		return invalid(path, "sustain level %g outside [0, 1]", e.Sustain)
	}
	return nil
}

func (e Env) describe(b *strings.Builder, depth int) {
	line(b, depth, "env a=%s d=%s s=%s r=%s\n", num(e.Attack), num(e.Decay), num(e.Sustain), num(e.Release))
}

// Swing is a frequency or phase modulation around a reference point:
// base + (v - Ref) * base * Depth.
type Swing struct {
	Depth float64
	Ref   float64
}

// Mod drives a carrier oscillator's live parameters from modulators.
// Amplitude reads Mods[0]; frequency reads Mods[1] when there are exactly
// two, else Mods[0]; phase reads Mods[2] when there are exactly three, else
// the last one.
type Mod struct {
	Carrier Osc
	Mods    []Node
	Amp     bool
	Freq    *Swing
	Phase   *Swing
}

func (m Mod) build(c buildCtx) modulation.Stream {
	mods := make([]modulation.Stream, len(m.Mods))
	for i, n := range m.Mods {
		mods[i] = n.build(c)
	}
	var t modulation.Targets
	if m.Amp {
		t.Amp = modulation.AmpMod
	}
	if m.Freq != nil {
		t.Freq = modulation.FreqMod(m.Freq.Depth, m.Freq.Ref)
	}
	if m.Phase != nil {
		t.Phase = modulation.FreqMod(m.Phase.Depth, m.Phase.Ref)
	}
	return modulation.NewModulated(m.Carrier.oscillator(c), t, mods...)
}

func (m Mod) validate(path string) error {
	if err := m.Carrier.validate(path + ".carrier"); err != nil {
		return err
	}
	if (m.Amp || m.Freq != nil || m.Phase != nil) && len(m.Mods) == 0 {
		return invalid(path, "modulation target without modulators")
	}
	for i, n := range m.Mods {
		if n == nil {
			return invalid(path, "nil modulator %d", i)
		}
		if err := n.validate(fmt.Sprintf("%s.mods[%d]", path, i)); err != nil {
			return err
		}
	}
	return nil
}

func (m Mod) describe(b *strings.Builder, depth int) {
	line(b, depth, "mod")
	if m.Amp {
		b.WriteString(" amp")
	}
	if m.Freq != nil {
		fmt.Fprintf(b, " freq(depth=%s ref=%s)", num(m.Freq.Depth), num(m.Freq.Ref))
	}
	if m.Phase != nil {
		fmt.Fprintf(b, " phase(depth=%s ref=%s)", num(m.Phase.Depth), num(m.Phase.Ref))
	}
	b.WriteByte('\n')
	m.Carrier.describe(b, depth+1)
	for _, n := range m.Mods {
		n.describe(b, depth+1)
	}
}

// Chain passes Head's output through Stages in order.
type Chain struct {
	Head   Node
	Stages []Stage
}

func (ch Chain) build(c buildCtx) modulation.Stream {
	stages := make([]modulation.Stage, len(ch.Stages))
	for i, s := range ch.Stages {
		stages[i] = s.buildStage(c)
	}
	return modulation.NewChain(ch.Head.build(c), stages...)
}

func (ch Chain) validate(path string) error {
	if ch.Head == nil {
		return invalid(path, "chain without head")
	}
	if err := ch.Head.validate(path + ".head"); err != nil {
		return err
	}
	for i, s := range ch.Stages {
		if s == nil {
			return invalid(path, "nil stage %d", i)
		}
		if err := s.validate(fmt.Sprintf("%s.stages[%d]", path, i)); err != nil {
			return err
		}
	}
	return nil
}

func (ch Chain) describe(b *strings.Builder, depth int) {
	line(b, depth, "chain\n")
	ch.Head.describe(b, depth+1)
	for _, s := range ch.Stages {
		s.describe(b, depth+1)
	}
}

// Volume scales the chained sample by its modulator.
type Volume struct {
	Mod Node
}

func (v Volume) buildStage(c buildCtx) modulation.Stage {
	return modulation.NewVolume(v.Mod.build(c))
}

func (v Volume) validate(path string) error {
	if v.Mod == nil {
		return invalid(path, "volume without modulator")
	}
	return v.Mod.validate(path + ".mod")
}

func (v Volume) describe(b *strings.Builder, depth int) {
	line(b, depth, "volume\n")
	v.Mod.describe(b, depth+1)
}

// Adder mixes its children with equal weight.
type Adder struct {
	Children []Node
}

func (a Adder) build(c buildCtx) modulation.Stream {
	children := make([]modulation.Stream, len(a.Children))
	for i, n := range a.Children {
		children[i] = n.build(c)
	}
	return modulation.NewAdder(children...)
}

func (a Adder) validate(path string) error {
	if len(a.Children) == 0 {
		return invalid(path, "adder without children")
	}
	for i, n := range a.Children {
		if n == nil {
			return invalid(path, "nil child %d", i)
		}
		if err := n.validate(fmt.Sprintf("%s.children[%d]", path, i)); err != nil {
			return err
		}
	}
	return nil
}

func (a Adder) describe(b *strings.Builder, depth int) {
	line(b, depth, "adder\n")
	for _, n := range a.Children {
		n.describe(b, depth+1)
	}
}

// Pan makes a patch stereo. With Mod set the position follows the modulator
// every frame; otherwise it is fixed at Pos.
type Pan struct {
	Pos float64
	Mod Node
	Law modulation.PanLaw
}

// Patch is the root of a voice description.
type Patch struct {
	Name  string
	Voice Node
	Pan   *Pan
}

func (p *Patch) Validate() error {
	if p.Voice == nil {
		return invalid(p.Name, "no voice")
	}
	if err := p.Voice.validate(p.Name + ".voice"); err != nil {
		return err
	}
	if p.Pan != nil {
		if p.Pan.Mod != nil {
			return p.Pan.Mod.validate(p.Name + ".pan")
		}
		if p.Pan.Pos < -1 || p.Pan.Pos > 1 {
			return invalid(p.Name+".pan", "position %g outside [-1, 1]", p.Pan.Pos)
		}
	}
	return nil
}

// Channels is 2 for panned patches and 1 otherwise.
func (p *Patch) Channels() int {
	if p.Pan != nil {
		return 2
	}
	return 1
}

// Build constructs one voice. The patch must be valid.
func (p *Patch) Build(freq, amp float64, sampleRate int) modulation.Source {
	c := buildCtx{freq: freq, amp: amp, sampleRate: sampleRate}
	mono := p.Voice.build(c)
	switch {
	case p.Pan == nil:
		return modulation.Mono(mono)
	case p.Pan.Mod != nil:
		return modulation.NewModulatedPanner(mono, p.Pan.Mod.build(c), p.Pan.Law)
	default:
		return modulation.NewPanner(mono, p.Pan.Pos, p.Pan.Law)
	}
}

// Factory validates the patch and returns its voice constructor.
func (p *Patch) Factory() (voice.Factory, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p.Build, nil
}

func (p *Patch) String() string {
	var b strings.Builder
	b.WriteString(p.Name)
	b.WriteByte('\n')
	if p.Voice != nil {
		p.Voice.describe(&b, 1)
	}
	if p.Pan != nil {
		if p.Pan.Mod != nil {
			line(&b, 1, "pan %s\n", p.Pan.Law)
			p.Pan.Mod.describe(&b, 2)
		} else {
			line(&b, 1, "pan %s pos=%s\n", p.Pan.Law, num(p.Pan.Pos))
		}
	}
	return b.String()
}

func line(b *strings.Builder, depth int, format string, args ...any) {
	b.WriteString(strings.Repeat("  ", depth))
	fmt.Fprintf(b, format, args...)
}

func num(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

func invalid(path, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalid, path, fmt.Sprintf(format, args...))
}
