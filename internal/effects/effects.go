// Package effects holds the master-bus processors applied to the mixed
// signal before the low-pass. Every effector works on one interleaved frame
// of one or two channels at a time.
package effects

import "errors"

// ErrChannels is returned for channel counts other than 1 or 2.
var ErrChannels = errors.New("effects: channel count must be 1 or 2")

// Effector processes one interleaved frame in place.
type Effector interface {
	Process(frame []float64)
	Reset()
}

// Chain applies a sequence of effects in order.
type Chain struct {
	effects []Effector
}

func NewChain(effects ...Effector) *Chain {
	return &Chain{effects: effects}
}

func (c *Chain) Process(frame []float64) {
	for _, e := range c.effects {
		e.Process(frame)
	}
}

func (c *Chain) Reset() {
	for _, e := range c.effects {
		e.Reset()
	}
}

func (c *Chain) Add(e Effector) {
	c.effects = append(c.effects, e)
}

// Len reports how many effects the chain holds.
func (c *Chain) Len() int { return len(c.effects) }

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func checkChannels(channels int) error {
	if channels != 1 && channels != 2 {
		return ErrChannels
	}
	return nil
}
