package effects

// Delay is a feedback echo. In stereo, cross routes part of each channel's
// feedback into the other one.
type Delay struct {
	bufs     [][]float64
	pos      int
	feedback float64
	cross    float64
	wet      float64
}

// NewDelay creates a delay of delayMs milliseconds. feedback is capped at
// 0.95 so the echo always dies out.
func NewDelay(sampleRate, channels int, delayMs, feedback, cross, wet float64) (*Delay, error) {
	if err := checkChannels(channels); err != nil {
		return nil, err
	}
	samples := int(delayMs * float64(sampleRate) / 1000)
	if samples < 1 {
		samples = 1
	}
	d := &Delay{
		bufs:     make([][]float64, channels),
		feedback: clamp(feedback, 0, 0.95),
		cross:    clamp(cross, 0, 1),
		wet:      clamp(wet, 0, 1),
	}
	for ch := range d.bufs {
		d.bufs[ch] = make([]float64, samples)
	}
	return d, nil
}

func (d *Delay) Process(frame []float64) {
	var del [2]float64
	for ch, buf := range d.bufs {
		del[ch] = buf[d.pos]
	}
	if len(d.bufs) == 1 {
		d.bufs[0][d.pos] = frame[0] + del[0]*d.feedback
		frame[0] = frame[0]*(1-d.wet) + del[0]*d.wet
	} else {
		straight, crossed := d.feedback*(1-d.cross), d.feedback*d.cross
		d.bufs[0][d.pos] = frame[0] + del[0]*straight + del[1]*crossed
		d.bufs[1][d.pos] = frame[1] + del[1]*straight + del[0]*crossed
		frame[0] = frame[0]*(1-d.wet) + del[0]*d.wet
		frame[1] = frame[1]*(1-d.wet) + del[1]*d.wet
	}
	d.pos++
	if d.pos >= len(d.bufs[0]) {
		d.pos = 0
	}
}

func (d *Delay) Reset() {
	for _, buf := range d.bufs {
		clear(buf)
	}
	d.pos = 0
}
