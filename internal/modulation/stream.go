// Package modulation composes oscillators and envelopes into voice trees.
//
// Every node exposes the same lifecycle capability set. Leaves that have no
// release stage report Releasable() == false, ignore TriggerRelease and
// report Ended() == true. Composite nodes are releasable when any child is,
// and have ended when every releasable child has ended.
package modulation

import "github.com/cbegin/polysynth-go/internal/osc"

// Lifecycle is the trigger/ended protocol shared by every node.
type Lifecycle interface {
	Releasable() bool
	TriggerRelease()
	Ended() bool
}

// Stream is a pull-based mono signal. Next never blocks.
type Stream interface {
	Lifecycle
	Next() float64
}

// Stage transforms the sample threaded through a Chain.
type Stage interface {
	Lifecycle
	Apply(x float64) float64
}

// Source is the root of a voice: one frame per tick on one or two channels.
// Mono sources return the same value for l and r.
type Source interface {
	Lifecycle
	Channels() int
	NextFrame() (l, r float64)
}

// Carrier is a Stream whose live parameters a Modulated node may rewrite.
type Carrier interface {
	Stream
	Baseline() osc.Params
	SetFreq(hz float64)
	SetAmp(amp float64)
	SetPhase(rad float64)
}

// group folds the lifecycle of a fixed set of children. Only the releasable
// children are kept; the rest cannot influence release or ended.
type group []Lifecycle

func newGroup(children ...Lifecycle) group {
	var g group
	for _, c := range children {
		if c != nil && c.Releasable() {
			g = append(g, c)
		}
	}
	return g
}

func (g group) Releasable() bool { return len(g) > 0 }

func (g group) TriggerRelease() {
	for _, c := range g {
		c.TriggerRelease()
	}
}

func (g group) Ended() bool {
	for _, c := range g {
		if !c.Ended() {
			return false
		}
	}
	return true
}

// Mono adapts a Stream into a one-channel Source.
func Mono(s Stream) Source { return &mono{src: s, group: newGroup(s)} }

type mono struct {
	group
	src Stream
}

func (m *mono) Channels() int { return 1 }

func (m *mono) NextFrame() (float64, float64) {
	v := m.src.Next()
	return v, v
}
