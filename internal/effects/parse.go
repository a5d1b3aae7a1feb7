package effects

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknown is returned by Parse for an effect name it does not know.
var ErrUnknown = errors.New("effects: unknown effect")

// Names lists the effect names Parse accepts.
func Names() []string {
	return []string{"chorus", "comp", "delay", "dist", "reverb"}
}

// Parse builds a chain from a spec such as "delay 250,0.4,0.3; dist 4,0.5".
// Effects are separated by semicolons; each is a name followed by comma
// separated parameters. Omitted trailing parameters take their defaults.
// An empty spec yields a nil chain.
func Parse(spec string, sampleRate, channels int) (*Chain, error) {
	if err := checkChannels(channels); err != nil {
		return nil, err
	}
	var chain *Chain
	for _, item := range strings.Split(spec, ";") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		name, rest, _ := strings.Cut(item, " ")
		name = strings.ToLower(strings.TrimSpace(name))
		var params []float64
		if rest = strings.TrimSpace(rest); rest != "" {
			for _, p := range strings.Split(rest, ",") {
				v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
				if err != nil {
					return nil, fmt.Errorf("effects: %s parameter %q: %w", name, p, err)
				}
				params = append(params, v)
			}
		}
		eff, err := create(name, params, sampleRate, channels)
		if err != nil {
			return nil, err
		}
		if chain == nil {
			chain = NewChain()
		}
		chain.Add(eff)
	}
	return chain, nil
}

func create(name string, params []float64, sampleRate, channels int) (Effector, error) {
	param := func(idx int, def float64) float64 {
		if idx < len(params) {
			return params[idx]
		}
		return def
	}
	switch name {
	case "delay":
		return NewDelay(sampleRate, channels,
			param(0, 250), // delay ms
			param(1, 0.4), // feedback
			param(2, 0.2), // cross
			param(3, 0.3), // wet
		)
	case "reverb":
		return NewReverb(sampleRate, channels,
			param(0, 0.5),  // room size
			param(1, 0.7),  // feedback
			param(2, 0.25), // wet
		)
	case "chorus":
		return NewChorus(sampleRate, channels,
			param(0, 15),  // delay ms
			param(1, 0.3), // feedback
			param(2, 3),   // depth ms
			param(3, 1.5), // rate Hz
			param(4, 0.4), // wet
		)
	case "dist", "distortion":
		return NewDistortion(sampleRate,
			param(0, 4),    // pre gain
			param(1, 0.5),  // post gain
			param(2, 8000), // lpf cutoff
		), nil
	case "comp", "compressor":
		return NewCompressor(sampleRate,
			param(0, -20), // threshold dB
			param(1, 4),   // ratio
			param(2, 5),   // attack ms
			param(3, 100), // release ms
			param(4, 6),   // makeup dB
		), nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknown, name)
}
