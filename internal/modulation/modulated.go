package modulation

// Transform computes a carrier parameter from its baseline and one modulator
// value.
type Transform func(base, mod float64) float64

// AmpMod scales the baseline by the modulator, which is expected in [0, 1]
// (an envelope or a biased LFO).
func AmpMod(base, mod float64) float64 { return base * mod }

// FreqMod swings the baseline around the point where the modulator equals
// sustainRef, so a held envelope plays the unmodulated pitch.
func FreqMod(depth, sustainRef float64) Transform {
	return func(base, mod float64) float64 {
		return base + (mod-sustainRef)*base*depth
	}
}

// Targets selects which carrier parameters a Modulated node rewrites.
// A nil transform leaves that parameter alone.
type Targets struct {
	Amp   Transform
	Freq  Transform
	Phase Transform
}

// Modulated pulls one value from every modulator per sample, rewrites the
// carrier's live parameters, then returns the carrier's next sample.
type Modulated struct {
	group
	carrier Carrier
	mods    []Stream
	targets Targets
	vals    []float64
}

func NewModulated(carrier Carrier, targets Targets, mods ...Stream) *Modulated {
	children := make([]Lifecycle, 0, len(mods)+1)
	for _, m := range mods {
		children = append(children, m)
	}
	children = append(children, carrier)
	return &Modulated{
		group:   newGroup(children...),
		carrier: carrier,
		mods:    mods,
		targets: targets,
		vals:    make([]float64, len(mods)),
	}
}

func (m *Modulated) Next() float64 {
	for i, mod := range m.mods {
		m.vals[i] = mod.Next()
	}
	if len(m.vals) > 0 {
		base := m.carrier.Baseline()
		if m.targets.Amp != nil {
			m.carrier.SetAmp(m.targets.Amp(base.Amp, m.vals[0]))
		}
		if m.targets.Freq != nil {
			m.carrier.SetFreq(m.targets.Freq(base.Freq, m.vals[FreqIndex(len(m.vals))]))
		}
		if m.targets.Phase != nil {
			m.carrier.SetPhase(m.targets.Phase(base.Phase, m.vals[PhaseIndex(len(m.vals))]))
		}
	}
	return m.carrier.Next()
}

// FreqIndex is the modulator driving frequency when n modulators are present.
func FreqIndex(n int) int {
	if n == 2 {
		return 1
	}
	return 0
}

// PhaseIndex is the modulator driving phase when n modulators are present.
func PhaseIndex(n int) int {
	if n == 3 {
		return 2
	}
	return n - 1
}
