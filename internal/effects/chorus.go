package effects

import "github.com/cbegin/polysynth-go/internal/osc"

// Chorus is a modulated fractional delay. A sine oscillator sweeps the read
// position around the middle of the buffer.
type Chorus struct {
	bufs       [][]float64
	pos        int
	size       int
	sampleRate int
	rateHz     float64
	depth      float64
	lfo        *osc.Oscillator
	feedback   float64
	wet        float64
}

// NewChorus creates a chorus. delayMs is the centre delay, depthMs how far
// the LFO moves it and rateHz how fast.
func NewChorus(sampleRate, channels int, delayMs, feedback, depthMs, rateHz, wet float64) (*Chorus, error) {
	if err := checkChannels(channels); err != nil {
		return nil, err
	}
	base := int(delayMs * float64(sampleRate) / 1000)
	depth := depthMs * float64(sampleRate) / 1000
	size := base + int(depth) + 2
	if size < 4 {
		size = 4
	}
	c := &Chorus{
		bufs:       make([][]float64, channels),
		size:       size,
		sampleRate: sampleRate,
		rateHz:     rateHz,
		depth:      depth,
		feedback:   clamp(feedback, 0, 0.9),
		wet:        clamp(wet, 0, 1),
	}
	for ch := range c.bufs {
		c.bufs[ch] = make([]float64, size)
	}
	c.lfo = osc.New(osc.Sine, rateHz, depth, sampleRate)
	return c, nil
}

func (c *Chorus) Process(frame []float64) {
	delay := float64(c.size/2) + c.lfo.Next()
	read := float64(c.pos) - delay
	for read < 0 {
		read += float64(c.size)
	}
	idx := int(read)
	frac := read - float64(idx)
	next := idx + 1
	if next >= c.size {
		next = 0
	}
	for ch, buf := range c.bufs {
		x := frame[ch]
		buf[c.pos] = x
		del := buf[idx]*(1-frac) + buf[next]*frac
		buf[c.pos] += del * c.feedback
		frame[ch] = x*(1-c.wet) + del*c.wet
	}
	c.pos++
	if c.pos >= c.size {
		c.pos = 0
	}
}

func (c *Chorus) Reset() {
	for _, buf := range c.bufs {
		clear(buf)
	}
	c.pos = 0
	c.lfo = osc.New(osc.Sine, c.rateHz, c.depth, c.sampleRate)
}
