package effects

import "math"

// Distortion is a tanh waveshaper with pre/post gain and an optional
// one-pole low-pass to tame the added harmonics.
type Distortion struct {
	preGain  float64
	postGain float64
	lpfAlpha float64
	lpf      [2]float64
}

// NewDistortion creates a distortion effect. lpfCutoff of 0 disables the
// low-pass, as does any cutoff at or above Nyquist.
func NewDistortion(sampleRate int, preGain, postGain, lpfCutoff float64) *Distortion {
	d := &Distortion{preGain: preGain, postGain: postGain}
	if lpfCutoff > 0 && lpfCutoff < float64(sampleRate)/2 {
		rc := 1 / (2 * math.Pi * lpfCutoff)
		dt := 1 / float64(sampleRate)
		d.lpfAlpha = dt / (rc + dt)
	}
	return d
}

func (d *Distortion) Process(frame []float64) {
	for ch, x := range frame[:min(len(frame), 2)] {
		y := math.Tanh(x*d.preGain) * d.postGain
		if d.lpfAlpha > 0 {
			d.lpf[ch] += d.lpfAlpha * (y - d.lpf[ch])
			y = d.lpf[ch]
		}
		frame[ch] = y
	}
}

func (d *Distortion) Reset() {
	d.lpf = [2]float64{}
}
