package modulation

import "math"

// Chain threads each sample of head through stages in order.
type Chain struct {
	group
	head   Stream
	stages []Stage
}

func NewChain(head Stream, stages ...Stage) *Chain {
	children := make([]Lifecycle, 0, len(stages)+1)
	children = append(children, head)
	for _, s := range stages {
		children = append(children, s)
	}
	return &Chain{group: newGroup(children...), head: head, stages: stages}
}

func (c *Chain) Next() float64 {
	x := c.head.Next()
	for _, s := range c.stages {
		x = s.Apply(x)
	}
	return x
}

// Volume multiplies the incoming sample by one modulator value per sample.
type Volume struct {
	group
	mod Stream
}

func NewVolume(mod Stream) *Volume {
	return &Volume{group: newGroup(mod), mod: mod}
}

func (v *Volume) Apply(x float64) float64 { return x * v.mod.Next() }

// Adder mixes its children with equal weight: the sum divided by the count.
type Adder struct {
	group
	children []Stream
}

func NewAdder(children ...Stream) *Adder {
	lc := make([]Lifecycle, len(children))
	for i, c := range children {
		lc[i] = c
	}
	return &Adder{group: newGroup(lc...), children: children}
}

func (a *Adder) Next() float64 {
	if len(a.children) == 0 {
		return 0
	}
	var sum float64
	for _, c := range a.children {
		sum += c.Next()
	}
	return sum / float64(len(a.children))
}

// PanLaw maps a pan position in [-1, 1] onto left/right gains.
type PanLaw int

const (
	// EqualPower keeps l²+r² constant across the stereo field.
	EqualPower PanLaw = iota
	// Linear keeps l+r constant.
	Linear
)

func (law PanLaw) String() string {
	if law == Linear {
		return "linear"
	}
	return "equal-power"
}

// Gains returns the left and right gain for pan position p, clamped to [-1, 1].
func (law PanLaw) Gains(p float64) (float64, float64) {
	p = math.Max(-1, math.Min(1, p))
	if law == Linear {
		return (1 - p) / 2, (1 + p) / 2
	}
	angle := (p + 1) * math.Pi / 4
	return math.Cos(angle), math.Sin(angle)
}

// Panner places a mono stream at a fixed stereo position.
type Panner struct {
	group
	src Stream
	law PanLaw
	l   float64
	r   float64
}

func NewPanner(src Stream, pan float64, law PanLaw) *Panner {
	l, r := law.Gains(pan)
	return &Panner{group: newGroup(src), src: src, law: law, l: l, r: r}
}

func (p *Panner) Channels() int { return 2 }

func (p *Panner) NextFrame() (float64, float64) {
	x := p.src.Next()
	return x * p.l, x * p.r
}

// ModulatedPanner reads the pan position from a modulator every frame.
// Lifecycle signals go to the panned source only.
type ModulatedPanner struct {
	group
	src Stream
	mod Stream
	law PanLaw
}

func NewModulatedPanner(src, mod Stream, law PanLaw) *ModulatedPanner {
	return &ModulatedPanner{group: newGroup(src), src: src, mod: mod, law: law}
}

func (p *ModulatedPanner) Channels() int { return 2 }

func (p *ModulatedPanner) NextFrame() (float64, float64) {
	pan := p.mod.Next()
	x := p.src.Next()
	l, r := p.law.Gains(pan)
	return x * l, x * r
}
