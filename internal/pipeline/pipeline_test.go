package pipeline

import (
	"errors"
	"math"
	"testing"

	"github.com/cbegin/polysynth-go/internal/effects"
	"github.com/cbegin/polysynth-go/internal/filter"
	"github.com/cbegin/polysynth-go/internal/modulation"
	"github.com/cbegin/polysynth-go/internal/osc"
)

type constSource struct {
	channels int
	l, r     float64
}

func (c *constSource) Releasable() bool              { return false }
func (c *constSource) TriggerRelease()               {}
func (c *constSource) Ended() bool                   { return true }
func (c *constSource) Channels() int                 { return c.channels }
func (c *constSource) NextFrame() (float64, float64) { return c.l, c.r }

func sineSource(freq float64) modulation.Source {
	return modulation.Mono(osc.New(osc.Sine, freq, 1, 44100))
}

func newPipeline(t *testing.T, cfg Config) *Pipeline {
	t.Helper()
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 44100
	}
	if cfg.Channels == 0 {
		cfg.Channels = 1
	}
	if cfg.AmpScale == 0 {
		cfg.AmpScale = 1
	}
	if cfg.MaxAmp == 0 {
		cfg.MaxAmp = 1
	}
	if cfg.Cutoff == 0 {
		cfg.Cutoff = 500
	}
	p, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func TestNewValidates(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		want error
	}{
		{"sample rate", Config{Channels: 1, AmpScale: 1, MaxAmp: 1}, ErrSampleRate},
		{"channels", Config{SampleRate: 44100, Channels: 3, AmpScale: 1, MaxAmp: 1}, ErrChannels},
		{"amp", Config{SampleRate: 44100, Channels: 1, MaxAmp: 1}, ErrAmp},
		{"max cutoff above nyquist", Config{SampleRate: 2000, Channels: 1, AmpScale: 1, MaxAmp: 1}, filter.ErrCutoff},
		{"inverted bounds", Config{SampleRate: 44100, Channels: 1, AmpScale: 1, MaxAmp: 1, MinCutoff: 900, MaxCutoff: 100}, filter.ErrCutoff},
	}
	for _, tc := range cases {
		if _, err := New(tc.cfg); !errors.Is(err, tc.want) {
			t.Errorf("%s: err = %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestEmptySourcesZeroBlock(t *testing.T) {
	p := newPipeline(t, Config{FilterEnabled: true})
	dst := make([]int16, 128)
	p.Produce([]modulation.Source{sineSource(440)}, dst)
	before := p.FilterState()
	for i := range dst {
		dst[i] = 7
	}
	if p.Produce(nil, dst) {
		t.Fatal("Produce with no sources reported audio")
	}
	for i, v := range dst {
		if v != 0 {
			t.Fatalf("dst[%d] = %d, want 0", i, v)
		}
	}
	after := p.FilterState()
	if after == nil || after[0][0] != before[0][0] {
		t.Fatal("empty block touched the filter state")
	}
}

func TestMixIsUnweightedSum(t *testing.T) {
	p := newPipeline(t, Config{Channels: 2})
	dst := make([]int16, 8)
	srcs := []modulation.Source{
		&constSource{channels: 1, l: 0.25, r: 0.25},
		&constSource{channels: 2, l: 0.5, r: -0.25},
	}
	if !p.Produce(srcs, dst) {
		t.Fatal("Produce reported silence")
	}
	for i := 0; i < len(dst); i += 2 {
		if dst[i] != 24575 || dst[i+1] != 0 {
			t.Fatalf("frame %d = (%d, %d), want (24575, 0)", i/2, dst[i], dst[i+1])
		}
	}

	mono := newPipeline(t, Config{Channels: 1})
	out := make([]int16, 4)
	mono.Produce([]modulation.Source{&constSource{channels: 2, l: 0.2, r: -0.4}}, out)
	if out[0] != -3277 {
		t.Fatalf("stereo source in mono pipeline = %d, want -3277", out[0])
	}
}

func TestScaleClipQuantize(t *testing.T) {
	p := newPipeline(t, Config{AmpScale: 0.3, MaxAmp: 0.3})
	dst := make([]int16, 4)
	p.Produce([]modulation.Source{&constSource{channels: 1, l: 5, r: 5}}, dst)
	if dst[0] != 9830 {
		t.Fatalf("clipped sample = %d, want 9830", dst[0])
	}
	p.Produce([]modulation.Source{&constSource{channels: 1, l: -5, r: -5}}, dst)
	if dst[0] != -9830 {
		t.Fatalf("clipped sample = %d, want -9830", dst[0])
	}
	p.Produce([]modulation.Source{&constSource{channels: 1, l: 0.5, r: 0.5}}, dst)
	if dst[0] != 4915 { // round(0.15 * 32767) = round(4915.05)
		t.Fatalf("scaled sample = %d, want 4915", dst[0])
	}
}

func TestFilterCarriesStateAcrossBlocks(t *testing.T) {
	split := newPipeline(t, Config{FilterEnabled: true, Cutoff: 800})
	whole := newPipeline(t, Config{FilterEnabled: true, Cutoff: 800})
	a, b := sineSource(440), sineSource(440)

	long := make([]int16, 256)
	whole.Produce([]modulation.Source{b}, long)

	first := make([]int16, 128)
	second := make([]int16, 128)
	split.Produce([]modulation.Source{a}, first)
	split.Produce([]modulation.Source{a}, second)
	for i := 0; i < 128; i++ {
		if first[i] != long[i] || second[i] != long[128+i] {
			t.Fatalf("sample %d differs between split and whole rendering", i)
		}
	}
}

func TestCutoffChangeDropsState(t *testing.T) {
	p := newPipeline(t, Config{FilterEnabled: true, Cutoff: 500})
	src := sineSource(300)
	dst := make([]int16, 128)
	p.Produce([]modulation.Source{src}, dst)
	if got := p.SetCutoff(1000); got != 1000 {
		t.Fatalf("SetCutoff = %g", got)
	}
	if p.FilterState() != nil {
		t.Fatal("cutoff change kept the old state")
	}

	fresh := newPipeline(t, Config{FilterEnabled: true, Cutoff: 1000})
	ref := sineSource(300)
	for i := 0; i < 128; i++ {
		ref.NextFrame()
	}
	want := make([]int16, 128)
	fresh.Produce([]modulation.Source{ref}, want)
	p.Produce([]modulation.Source{src}, dst)
	for i := range dst {
		if dst[i] != want[i] {
			t.Fatalf("sample %d = %d, fresh filter gives %d", i, dst[i], want[i])
		}
	}
}

func TestSetCutoffClamps(t *testing.T) {
	p := newPipeline(t, Config{})
	if got := p.SetCutoff(5); got != DefaultMinCutoff || p.Cutoff() != DefaultMinCutoff {
		t.Fatalf("SetCutoff(5) = %g", got)
	}
	if got := p.SetCutoff(1e6); got != DefaultMaxCutoff {
		t.Fatalf("SetCutoff(1e6) = %g", got)
	}
	if got := p.SetCutoff(math.NaN()); got != DefaultMaxCutoff || p.Cutoff() != DefaultMaxCutoff {
		t.Fatalf("SetCutoff(NaN) = %g", got)
	}
	lo, hi := p.CutoffRange()
	if lo != DefaultMinCutoff || hi != DefaultMaxCutoff {
		t.Fatalf("range = [%g, %g]", lo, hi)
	}
}

func TestDisablingFilterDropsState(t *testing.T) {
	p := newPipeline(t, Config{FilterEnabled: true})
	dst := make([]int16, 64)
	p.Produce([]modulation.Source{sineSource(220)}, dst)
	p.SetFilterEnabled(false)
	if p.FilterEnabled() || p.FilterState() != nil {
		t.Fatal("disabled filter should drop its state")
	}

	// Unfiltered output is the raw oscillator.
	p.Produce([]modulation.Source{&constSource{channels: 1, l: 0.5, r: 0.5}}, dst)
	if dst[0] != 16384 { // round(16383.5)
		t.Fatalf("unfiltered sample = %d", dst[0])
	}
}

func TestEffectsRunBeforeFilter(t *testing.T) {
	p := newPipeline(t, Config{Effects: effects.NewChain(effects.NewDistortion(44100, 1, 0.5, 0))})
	dst := make([]int16, 4)
	p.Produce([]modulation.Source{&constSource{channels: 1, l: 1, r: 1}}, dst)
	want := int16(math.Round(math.Tanh(1) * 0.5 * 32767))
	if dst[0] != want {
		t.Fatalf("sample = %d, want %d", dst[0], want)
	}
	p.SetEffects(nil)
	p.Produce([]modulation.Source{&constSource{channels: 1, l: 0.5, r: 0.5}}, dst)
	if dst[0] != 16384 {
		t.Fatalf("sample without effects = %d", dst[0])
	}
}
