package modulation

import (
	"math"
	"testing"

	"github.com/cbegin/polysynth-go/internal/envelope"
	"github.com/cbegin/polysynth-go/internal/osc"
)

const sr = 44100

// constStream yields a fixed sequence, repeating the last value, and counts pulls.
type constStream struct {
	vals  []float64
	pulls int
}

func (c *constStream) Next() float64 {
	i := c.pulls
	if i >= len(c.vals) {
		i = len(c.vals) - 1
	}
	c.pulls++
	return c.vals[i]
}

func (c *constStream) Releasable() bool { return false }
func (c *constStream) TriggerRelease()  {}
func (c *constStream) Ended() bool      { return true }

func TestModulatedAmplitudeFollowsEnvelope(t *testing.T) {
	carrier := osc.New(osc.Sine, 441, 0.5, sr, osc.WithPhaseDegrees(90))
	env := envelope.New(0.01, 0, 1, 0.01, sr)
	m := NewModulated(carrier, Targets{Amp: AmpMod}, env)

	// sin(90°) = 1, so the first sample is 0.5 * env after one sample.
	got := m.Next()
	want := 0.5 * (1.0 / 441)
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("first sample = %g, want %g", got, want)
	}
	if carrier.Live().Amp != want {
		t.Fatalf("live amp = %g, want %g", carrier.Live().Amp, want)
	}
	if carrier.Baseline().Amp != 0.5 {
		t.Fatalf("baseline amp changed to %g", carrier.Baseline().Amp)
	}
}

func TestModulatedPositionalSelection(t *testing.T) {
	tests := []struct {
		name              string
		n                 int
		wantAmp, wantFreq int
		wantPhase         int
	}{
		{"one", 1, 0, 0, 0},
		{"two", 2, 0, 1, 1},
		{"three", 3, 0, 0, 2},
		{"four", 4, 0, 0, 3},
	}
	for _, tc := range tests {
		mods := make([]Stream, tc.n)
		for i := range mods {
			mods[i] = &constStream{vals: []float64{float64(i + 2)}}
		}
		carrier := osc.New(osc.Sine, 100, 1, sr, osc.WithPhase(1))
		ident := func(base, mod float64) float64 { return mod }
		m := NewModulated(carrier, Targets{Amp: ident, Freq: ident, Phase: ident}, mods...)
		m.Next()
		live := carrier.Live()
		if live.Amp != float64(tc.wantAmp+2) {
			t.Errorf("%s: amp from modulator %v, want %d", tc.name, live.Amp-2, tc.wantAmp)
		}
		if live.Freq != float64(tc.wantFreq+2) {
			t.Errorf("%s: freq from modulator %v, want %d", tc.name, live.Freq-2, tc.wantFreq)
		}
		if live.Phase != float64(tc.wantPhase+2) {
			t.Errorf("%s: phase from modulator %v, want %d", tc.name, live.Phase-2, tc.wantPhase)
		}
		for i, mod := range mods {
			if p := mod.(*constStream).pulls; p != 1 {
				t.Errorf("%s: modulator %d pulled %d times, want 1", tc.name, i, p)
			}
		}
	}
}

func TestFreqModCentersOnSustain(t *testing.T) {
	f := FreqMod(1, 0.7)
	if got := f(440, 0.7); got != 440 {
		t.Fatalf("at sustain: %f, want 440", got)
	}
	if got := f(440, 1); math.Abs(got-440*1.3) > 1e-9 {
		t.Fatalf("at peak: %f, want %f", got, 440*1.3)
	}
	if got := AmpMod(0.3, 0.5); got != 0.15 {
		t.Fatalf("AmpMod = %f, want 0.15", got)
	}
}

func TestModulatedLifecycle(t *testing.T) {
	pure := NewModulated(osc.New(osc.Sine, 5, 1, sr), Targets{Amp: AmpMod}, osc.New(osc.Sine, 1, 1, sr))
	if pure.Releasable() {
		t.Fatal("tree without envelope should not be releasable")
	}
	if !pure.Ended() {
		t.Fatal("tree without envelope should report ended")
	}

	env := envelope.New(0.001, 0, 1, 0.001, sr)
	lfo := osc.New(osc.Sine, 5, 1, sr)
	m := NewModulated(osc.New(osc.Sine, 440, 1, sr), Targets{Amp: AmpMod}, lfo, env)
	if !m.Releasable() {
		t.Fatal("tree with envelope should be releasable")
	}
	for i := 0; i < 100; i++ {
		m.Next()
	}
	if m.Ended() {
		t.Fatal("ended before release")
	}
	m.TriggerRelease()
	m.TriggerRelease()
	for i := 0; i < 44; i++ {
		m.Next()
	}
	if !m.Ended() {
		t.Fatal("not ended after release ramp")
	}
}

func TestChainThreadsStages(t *testing.T) {
	head := &constStream{vals: []float64{1}}
	c := NewChain(head,
		NewVolume(&constStream{vals: []float64{0.5}}),
		NewVolume(&constStream{vals: []float64{0.25, 2}}),
	)
	if got := c.Next(); got != 0.125 {
		t.Fatalf("first = %f, want 0.125", got)
	}
	if got := c.Next(); got != 1 {
		t.Fatalf("second = %f, want 1", got)
	}
	if c.Releasable() {
		t.Fatal("chain without envelope should not be releasable")
	}
}

func TestChainReleaseForwardsToStages(t *testing.T) {
	env := envelope.New(0.01, 0.01, 0.5, 0.01, sr)
	c := NewChain(osc.New(osc.Triangle, 220, 1, sr), NewVolume(env))
	if !c.Releasable() {
		t.Fatal("chain with envelope stage should be releasable")
	}
	for i := 0; i < 2000; i++ {
		c.Next()
	}
	c.TriggerRelease()
	if env.Stage() != envelope.Release {
		t.Fatalf("envelope stage = %s, want release", env.Stage())
	}
	for i := 0; i < 441; i++ {
		c.Next()
	}
	if !c.Ended() {
		t.Fatal("chain should end with its envelope")
	}
	if v := c.Next(); v != 0 {
		t.Fatalf("ended chain produced %f", v)
	}
}

func TestAdderNormalizesIdenticalChildren(t *testing.T) {
	for n := 1; n <= 6; n++ {
		ref := osc.New(osc.Sine, 440, 1, sr)
		children := make([]Stream, n)
		for i := range children {
			children[i] = osc.New(osc.Sine, 440, 1, sr)
		}
		a := NewAdder(children...)
		for i := 0; i < 1000; i++ {
			want := ref.Next()
			if got := a.Next(); math.Abs(got-want) > 1e-12 {
				t.Fatalf("n=%d sample %d = %g, want %g", n, i, got, want)
			}
		}
	}
}

func TestAdderEndsWhenAllEnvelopesEnd(t *testing.T) {
	fast := NewChain(osc.New(osc.Sine, 440, 1, sr), NewVolume(envelope.New(0, 0, 1, 0.001, sr)))
	slow := NewChain(osc.New(osc.Sine, 440, 1, sr), NewVolume(envelope.New(0, 0, 1, 0.01, sr)))
	a := NewAdder(fast, slow, osc.New(osc.Sine, 1, 1, sr))
	a.Next()
	a.TriggerRelease()
	for i := 0; i < 44; i++ {
		a.Next()
	}
	if !fast.Ended() || a.Ended() {
		t.Fatalf("fast ended=%v adder ended=%v, want true/false", fast.Ended(), a.Ended())
	}
	for i := 0; i < 441; i++ {
		a.Next()
	}
	if !a.Ended() {
		t.Fatal("adder should end when every envelope has ended")
	}
}

func TestPanLaws(t *testing.T) {
	l, r := EqualPower.Gains(0)
	if math.Abs(l-r) > 1e-12 || math.Abs(l*l+r*r-1) > 1e-12 {
		t.Fatalf("equal-power center = (%f, %f)", l, r)
	}
	l, r = EqualPower.Gains(-1)
	if math.Abs(l-1) > 1e-12 || math.Abs(r) > 1e-12 {
		t.Fatalf("equal-power hard left = (%f, %f)", l, r)
	}
	l, r = Linear.Gains(0.5)
	if l != 0.25 || r != 0.75 {
		t.Fatalf("linear 0.5 = (%f, %f)", l, r)
	}
	l, r = Linear.Gains(3)
	if l != 0 || r != 1 {
		t.Fatalf("linear clamps out-of-range pan, got (%f, %f)", l, r)
	}
}

func TestPannerSplitsMono(t *testing.T) {
	p := NewPanner(&constStream{vals: []float64{0.8}}, 1, Linear)
	if p.Channels() != 2 {
		t.Fatalf("channels = %d, want 2", p.Channels())
	}
	l, r := p.NextFrame()
	if l != 0 || r != 0.8 {
		t.Fatalf("hard right frame = (%f, %f)", l, r)
	}

	mp := NewModulatedPanner(&constStream{vals: []float64{1}}, &constStream{vals: []float64{-1, 1}}, Linear)
	if l, r := mp.NextFrame(); l != 1 || r != 0 {
		t.Fatalf("first modulated frame = (%f, %f), want (1, 0)", l, r)
	}
	if l, r := mp.NextFrame(); l != 0 || r != 1 {
		t.Fatalf("second modulated frame = (%f, %f), want (0, 1)", l, r)
	}
}

func TestPannerForwardsLifecycleToSource(t *testing.T) {
	env := envelope.New(0, 0, 1, 0, sr)
	src := NewChain(osc.New(osc.Sine, 440, 1, sr), NewVolume(env))
	p := NewModulatedPanner(src, osc.New(osc.Sine, 1, 1, sr), EqualPower)
	if !p.Releasable() {
		t.Fatal("panner over releasable source should be releasable")
	}
	p.NextFrame()
	p.TriggerRelease()
	p.NextFrame()
	if !p.Ended() {
		t.Fatal("panner should end with its source")
	}
}

func TestMonoSource(t *testing.T) {
	m := Mono(&constStream{vals: []float64{0.3}})
	if m.Channels() != 1 {
		t.Fatalf("channels = %d, want 1", m.Channels())
	}
	if l, r := m.NextFrame(); l != 0.3 || r != 0.3 {
		t.Fatalf("mono frame = (%f, %f)", l, r)
	}
}
