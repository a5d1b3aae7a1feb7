package effects

// stereoSpread lengthens the right channel's delay lines so the two tails
// decorrelate.
const stereoSpread = 23

// Reverb is a Schroeder reverb: four parallel combs into two series
// allpasses, one set per channel.
type Reverb struct {
	tanks []reverbTank
	wet   float64
}

type reverbTank struct {
	combs   [4]combFilter
	allpass [2]allpassFilter
}

type combFilter struct {
	buf []float64
	pos int
	fb  float64
}

type allpassFilter struct {
	buf []float64
	pos int
	fb  float64
}

// NewReverb creates a reverb. roomSize (0..1) scales the delay lengths,
// feedback (capped at 0.95) sets the decay time and wet is the mix.
func NewReverb(sampleRate, channels int, roomSize, feedback, wet float64) (*Reverb, error) {
	if err := checkChannels(channels); err != nil {
		return nil, err
	}
	base := max(int(float64(sampleRate)*clamp(roomSize, 0, 1)*0.05), 10)
	fb := clamp(feedback, 0, 0.95)
	r := &Reverb{tanks: make([]reverbTank, channels), wet: clamp(wet, 0, 1)}
	for ch := range r.tanks {
		n := base + ch*stereoSpread
		// Comb lengths at prime-ish ratios to avoid stacked resonances.
		combLens := [4]int{n, n * 1117 / 1000, n * 1271 / 1000, n * 1437 / 1000}
		for i := range r.tanks[ch].combs {
			r.tanks[ch].combs[i] = combFilter{buf: make([]float64, combLens[i]), fb: fb}
		}
		apLens := [2]int{n * 347 / 1000, n * 213 / 1000}
		for i := range r.tanks[ch].allpass {
			r.tanks[ch].allpass[i] = allpassFilter{buf: make([]float64, max(apLens[i], 1)), fb: 0.5}
		}
	}
	return r, nil
}

func (r *Reverb) Process(frame []float64) {
	for ch := range r.tanks {
		t := &r.tanks[ch]
		in := frame[ch]
		var out float64
		for i := range t.combs {
			out += t.combs[i].process(in)
		}
		out *= 0.25
		for i := range t.allpass {
			out = t.allpass[i].process(out)
		}
		frame[ch] = in*(1-r.wet) + out*r.wet
	}
}

func (r *Reverb) Reset() {
	for ch := range r.tanks {
		t := &r.tanks[ch]
		for i := range t.combs {
			clear(t.combs[i].buf)
			t.combs[i].pos = 0
		}
		for i := range t.allpass {
			clear(t.allpass[i].buf)
			t.allpass[i].pos = 0
		}
	}
}

func (c *combFilter) process(in float64) float64 {
	out := c.buf[c.pos]
	c.buf[c.pos] = in + out*c.fb
	c.pos++
	if c.pos >= len(c.buf) {
		c.pos = 0
	}
	return out
}

func (a *allpassFilter) process(in float64) float64 {
	bufOut := a.buf[a.pos]
	out := -in + bufOut
	a.buf[a.pos] = in + bufOut*a.fb
	a.pos++
	if a.pos >= len(a.buf) {
		a.pos = 0
	}
	return out
}
