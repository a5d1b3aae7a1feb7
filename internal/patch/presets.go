package patch

import (
	"sort"

	"github.com/cbegin/polysynth-go/internal/modulation"
	"github.com/cbegin/polysynth-go/internal/osc"
)

// DefaultName is the preset used when none is chosen.
const DefaultName = "default"

var presets = map[string]func() *Patch{
	// Triangle with an ADSR on the volume.
	"default": func() *Patch {
		return &Patch{
			Name: "default",
			Voice: Chain{
				Head:   Osc{Wave: osc.Triangle},
				Stages: []Stage{Volume{Mod: Env{Attack: 0.05, Decay: 0.1, Sustain: 0.4, Release: 0.05}}},
			},
		}
	},
	// Two sawtooths half a cycle apart.
	"double-saw": func() *Patch {
		return &Patch{
			Name: "double-saw",
			Voice: Chain{
				Head: Adder{Children: []Node{
					Osc{Wave: osc.Sawtooth},
					Osc{Wave: osc.Sawtooth, PhaseDeg: 180},
				}},
				Stages: []Stage{Volume{Mod: Env{Attack: 0.02, Decay: 0.3, Sustain: 0.4, Release: 0.1}}},
			},
		}
	},
	// Triangle pulsing with a 1 Hz sine on the volume.
	"pulse": func() *Patch {
		return &Patch{
			Name: "pulse",
			Voice: Chain{
				Head: Osc{Wave: osc.Triangle},
				Stages: []Stage{
					Volume{Mod: Env{Attack: 0.02, Decay: 0, Sustain: 1, Release: 0.05}},
					Volume{Mod: Osc{Wave: osc.Sine, Hz: 1}},
				},
			},
		}
	},
	// A 5 Hz LFO in [0.2, 1] drives the amplitude; the envelope only decides
	// when the voice has finished.
	"tremolo": func() *Patch {
		return &Patch{
			Name: "tremolo",
			Voice: Mod{
				Carrier: Osc{Wave: osc.Triangle},
				Mods: []Node{
					Osc{Wave: osc.Sine, Hz: 5, Range: [2]float64{0.2, 1}},
					Env{Attack: 0.9, Decay: 0.2, Sustain: 0.7, Release: 0},
				},
				Amp: true,
			},
		}
	},
	// Envelope on the amplitude, 6 Hz LFO swinging the pitch by 1%.
	"vibrato": func() *Patch {
		return &Patch{
			Name: "vibrato",
			Voice: Mod{
				Carrier: Osc{Wave: osc.Sine},
				Mods: []Node{
					Env{Attack: 0.05, Decay: 0.1, Sustain: 0.8, Release: 0.2},
					Osc{Wave: osc.Sine, Hz: 6},
				},
				Amp:  true,
				Freq: &Swing{Depth: 0.01, Ref: 0},
			},
		}
	},
	// Sawtooth sweeping between the speakers every two seconds.
	"auto-pan": func() *Patch {
		return &Patch{
			Name: "auto-pan",
			Voice: Chain{
				Head:   Osc{Wave: osc.Sawtooth},
				Stages: []Stage{Volume{Mod: Env{Attack: 0.02, Decay: 0.2, Sustain: 0.6, Release: 0.15}}},
			},
			Pan: &Pan{Mod: Osc{Wave: osc.Sine, Hz: 0.5}, Law: modulation.EqualPower},
		}
	},
}

// Lookup returns a fresh copy of the named preset.
func Lookup(name string) (*Patch, bool) {
	fn, ok := presets[name]
	if !ok {
		return nil, false
	}
	return fn(), true
}

// Names lists the presets in alphabetical order.
func Names() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
