package envelope

import (
	"math"
	"testing"
)

const sr = 44100

func run(e *ADSR, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = e.Next()
	}
	return out
}

func TestADSRStageTimings(t *testing.T) {
	e := New(0.1, 0.1, 0.5, 0.2, sr)
	v := run(e, 20000)

	// v[i] is the value after i+1 samples.
	if math.Abs(v[4409]-1) > 1e-12 {
		t.Fatalf("attack peak at sample 4410 = %f, want 1", v[4409])
	}
	if v[4407] >= 1 {
		t.Fatalf("attack reached 1 too early: %f", v[4407])
	}
	if math.Abs(v[8819]-0.5) > 1e-12 {
		t.Fatalf("decay end at sample 8820 = %f, want 0.5", v[8819])
	}
	for i := 8820; i < len(v); i++ {
		if v[i] != 0.5 {
			t.Fatalf("sustain sample %d = %f, want 0.5", i, v[i])
		}
	}
	if e.Stage() != Sustain {
		t.Fatalf("stage = %s, want sustain", e.Stage())
	}
}

func TestADSRAttackIsLinear(t *testing.T) {
	e := New(0.1, 0.1, 0.5, 0.2, sr)
	v := run(e, 4410)
	for _, i := range []int{0, 1000, 2204, 4000} {
		want := float64(i+1) / 4410
		if math.Abs(v[i]-want) > 1e-12 {
			t.Fatalf("attack sample %d = %f, want %f", i, v[i], want)
		}
	}
}

func TestADSRReleaseFromEveryStage(t *testing.T) {
	const releaseSamples = 8820 // 0.2s
	for _, at := range []int{100, 4410, 6000, 12000} {
		e := New(0.1, 0.1, 0.5, 0.2, sr)
		run(e, at)
		before := e.Value()
		e.TriggerRelease()
		if e.Stage() != Release {
			t.Fatalf("trigger at %d: stage = %s, want release", at, e.Stage())
		}
		first := e.Next()
		if math.Abs(first-before) > before/releaseSamples+1e-12 {
			t.Fatalf("trigger at %d: jump from %f to %f", at, before, first)
		}
		n := 1
		for !e.Ended() {
			e.Next()
			n++
			if n > releaseSamples {
				t.Fatalf("trigger at %d: not ended within %d samples", at, releaseSamples)
			}
		}
		if e.Value() != 0 {
			t.Fatalf("trigger at %d: ended with value %f", at, e.Value())
		}
		if v := e.Next(); v != 0 || !e.Ended() {
			t.Fatalf("trigger at %d: ended envelope produced %f", at, v)
		}
	}
}

func TestADSRReleaseIsIdempotent(t *testing.T) {
	once := New(0.05, 0.1, 0.4, 0.05, sr)
	twice := New(0.05, 0.1, 0.4, 0.05, sr)
	run(once, 3000)
	run(twice, 3000)
	once.TriggerRelease()
	twice.TriggerRelease()
	twice.TriggerRelease()
	a := run(once, 3000)
	b := run(twice, 3000)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("sample %d differs: %f vs %f", i, a[i], b[i])
		}
	}

	// Triggering mid-release must not restart the ramp.
	mid := New(0.05, 0.1, 0.4, 0.05, sr)
	ref := New(0.05, 0.1, 0.4, 0.05, sr)
	run(mid, 3000)
	run(ref, 3000)
	mid.TriggerRelease()
	ref.TriggerRelease()
	run(mid, 500)
	run(ref, 500)
	mid.TriggerRelease()
	if a, b := mid.Next(), ref.Next(); a != b {
		t.Fatalf("second trigger changed release: %f vs %f", a, b)
	}
}

func TestADSRZeroRelease(t *testing.T) {
	e := New(0.01, 0, 0.7, 0, sr)
	run(e, 1000)
	e.TriggerRelease()
	if v := e.Next(); v != 0 {
		t.Fatalf("zero release produced %f, want 0", v)
	}
	if !e.Ended() {
		t.Fatal("zero release should end immediately")
	}
}

func TestADSRZeroAttackAndDecay(t *testing.T) {
	e := New(0, 0, 0.4, 0.1, sr)
	if v := e.Next(); v != 0.4 {
		t.Fatalf("first sample = %f, want sustain 0.4", v)
	}
	e = New(0, 0.1, 0.4, 0.1, sr)
	if v := e.Next(); v != 1 {
		t.Fatalf("first sample = %f, want 1", v)
	}
	if e.Stage() != Decay {
		t.Fatalf("stage = %s, want decay", e.Stage())
	}
}

func TestADSRStaysInRange(t *testing.T) {
	e := New(0.003, 0.007, 1.7, 0.001, sr)
	for i := 0; i < 2000; i++ {
		if i == 900 {
			e.TriggerRelease()
		}
		v := e.Next()
		if v < 0 || v > 1 {
			t.Fatalf("sample %d = %f outside [0, 1]", i, v)
		}
	}
	if !e.Releasable() {
		t.Fatal("envelope should be releasable")
	}
}
