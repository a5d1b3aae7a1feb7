package effects

import "math"

// Compressor is a feed-forward peak compressor with one envelope follower
// per channel.
type Compressor struct {
	threshold float64
	ratio     float64
	attack    float64
	release   float64
	makeup    float64
	env       [2]float64
}

// NewCompressor creates a compressor. thresholdDB and makeupDB are in dB,
// ratio is the slope above the threshold (4 means 4:1) and the times are in
// milliseconds.
func NewCompressor(sampleRate int, thresholdDB, ratio, attackMs, releaseMs, makeupDB float64) *Compressor {
	sr := float64(sampleRate)
	return &Compressor{
		threshold: math.Pow(10, thresholdDB/20),
		ratio:     math.Max(ratio, 1),
		attack:    1 - math.Exp(-1/(math.Max(attackMs, 0.01)*sr/1000)),
		release:   1 - math.Exp(-1/(math.Max(releaseMs, 0.01)*sr/1000)),
		makeup:    math.Pow(10, makeupDB/20),
	}
}

func (c *Compressor) Process(frame []float64) {
	for ch, x := range frame[:min(len(frame), 2)] {
		level := math.Abs(x)
		if level > c.env[ch] {
			c.env[ch] += c.attack * (level - c.env[ch])
		} else {
			c.env[ch] += c.release * (level - c.env[ch])
		}
		frame[ch] = x * c.gain(c.env[ch]) * c.makeup
	}
}

func (c *Compressor) gain(env float64) float64 {
	if env <= c.threshold || c.threshold <= 0 {
		return 1
	}
	return math.Pow(env/c.threshold, 1/c.ratio-1)
}

func (c *Compressor) Reset() {
	c.env = [2]float64{}
}
