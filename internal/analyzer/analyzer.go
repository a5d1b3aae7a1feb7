// Package analyzer keeps the most recent output in a ring buffer so the
// front end can draw a scope and a spectrum of what is playing.
package analyzer

import (
	"fmt"
	"math"
	"math/cmplx"
	"sync"

	"github.com/cwbudde/algo-dsp/dsp/window"
	algofft "github.com/cwbudde/algo-fft"
)

// Floor is the level reported for empty bins, in dBFS.
const Floor = -130.0

// Analyzer is fed from the audio goroutine through Tap and read from the UI.
type Analyzer struct {
	mu         sync.Mutex
	sampleRate int
	channels   int
	ring       []float64
	write      int
	filled     int

	size    int
	plan    *algofft.Plan[complex128]
	win     []float64
	winGain float64
	in      []complex128
	out     []complex128
}

// New creates an analyzer for channels-wide int16 blocks. fftSize must be
// a power of two; the ring holds four FFT windows.
func New(sampleRate, channels, fftSize int) (*Analyzer, error) {
	if channels != 1 && channels != 2 {
		return nil, fmt.Errorf("analyzer: %d channels", channels)
	}
	if fftSize < 2 || fftSize&(fftSize-1) != 0 {
		return nil, fmt.Errorf("analyzer: fft size %d is not a power of two", fftSize)
	}
	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("analyzer: fft plan: %w", err)
	}
	win := window.Generate(window.TypeHann, fftSize, window.WithPeriodic())
	sum := 0.0
	for _, w := range win {
		sum += w
	}
	return &Analyzer{
		sampleRate: sampleRate,
		channels:   channels,
		ring:       make([]float64, 4*fftSize),
		size:       fftSize,
		plan:       plan,
		win:        win,
		winGain:    sum,
		in:         make([]complex128, fftSize),
		out:        make([]complex128, fftSize),
	}, nil
}

// Tap copies one block into the ring, mixing stereo down to mono.
func (a *Analyzer) Tap(block []int16) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := 0; i+a.channels <= len(block); i += a.channels {
		v := float64(block[i])
		if a.channels == 2 {
			v = (v + float64(block[i+1])) / 2
		}
		a.ring[a.write] = v / 32768
		a.write = (a.write + 1) % len(a.ring)
		a.filled = min(a.filled+1, len(a.ring))
	}
}

// Snapshot returns the last n samples, oldest first. Missing history reads
// as silence.
func (a *Analyzer) Snapshot(n int) []float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshot(make([]float64, min(n, len(a.ring))))
}

func (a *Analyzer) snapshot(out []float64) []float64 {
	n := len(out)
	start := (a.write - n + 2*len(a.ring)) % len(a.ring)
	for i := range out {
		out[i] = a.ring[(start+i)%len(a.ring)]
	}
	return out
}

// Peak is the largest magnitude among the last FFT window of samples.
func (a *Analyzer) Peak() float64 {
	peak := 0.0
	for _, v := range a.Snapshot(a.size) {
		peak = math.Max(peak, math.Abs(v))
	}
	return peak
}

// Spectrum writes the level of bins 0..size/2 in dBFS into dst, growing it
// when needed. A full-scale sine reads 0 dB.
func (a *Analyzer) Spectrum(dst []float64) []float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	bins := a.size/2 + 1
	if cap(dst) < bins {
		dst = make([]float64, bins)
	}
	dst = dst[:bins]
	if a.filled < a.size {
		for i := range dst {
			dst[i] = Floor
		}
		return dst
	}
	samples := a.snapshot(make([]float64, a.size))
	for i, v := range samples {
		a.in[i] = complex(v*a.win[i], 0)
	}
	if err := a.plan.Forward(a.out, a.in); err != nil {
		for i := range dst {
			dst[i] = Floor
		}
		return dst
	}
	for i := range dst {
		mag := 2 * cmplx.Abs(a.out[i]) / a.winGain
		dst[i] = math.Max(Floor, 20*math.Log10(mag+1e-12))
	}
	return dst
}

// BinFrequency is the centre frequency of spectrum bin i.
func (a *Analyzer) BinFrequency(i int) float64 {
	return float64(i) * float64(a.sampleRate) / float64(a.size)
}

func (a *Analyzer) Size() int { return a.size }
