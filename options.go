package polysynth

import (
	"log/slog"
	"maps"
	"time"

	"github.com/cbegin/polysynth-go/internal/patch"
	"github.com/cbegin/polysynth-go/internal/voice"
)

const (
	DefaultSampleRate  = 44100
	DefaultBlockSize   = 128
	DefaultAmplitude   = 0.3
	DefaultAmpScale    = 0.3
	DefaultMaxAmp      = 0.3
	DefaultOctave      = 4
	DefaultCutoff      = 500.0
	DefaultFilterOrder = 6

	MinOctave  = 0
	MaxOctave  = 9
	MinCutoff  = 10.0
	MaxCutoff  = 2000.0
	CutoffStep = 100.0
)

type Option func(*config)

type config struct {
	sampleRate  int
	blockSize   int
	patch       *patch.Patch
	factory     voice.Factory
	channels    int
	amplitude   float64
	ampScale    float64
	maxAmp      float64
	filter      bool
	cutoff      float64
	order       int
	minCutoff   float64
	maxCutoff   float64
	effects     string
	octave      int
	keymap      map[string]int
	logger      *slog.Logger
	audioBuffer time.Duration
	sampleTap   func([]int16)
}

func defaultConfig() config {
	return config{
		sampleRate: DefaultSampleRate,
		blockSize:  DefaultBlockSize,
		amplitude:  DefaultAmplitude,
		ampScale:   DefaultAmpScale,
		maxAmp:     DefaultMaxAmp,
		cutoff:     DefaultCutoff,
		order:      DefaultFilterOrder,
		minCutoff:  MinCutoff,
		maxCutoff:  MaxCutoff,
		octave:     DefaultOctave,
		keymap:     DefaultKeymap(),
	}
}

func WithSampleRate(hz int) Option {
	return func(cfg *config) {
		cfg.sampleRate = hz
	}
}

// WithBlockSize sets the frames rendered per engine tick.
func WithBlockSize(frames int) Option {
	return func(cfg *config) {
		cfg.blockSize = frames
	}
}

// WithPatch selects the voice tree built for every note.
func WithPatch(p *patch.Patch) Option {
	return func(cfg *config) {
		cfg.patch = p
	}
}

// WithFactory bypasses patches and builds voices with f. channels is the
// channel count of the sources f returns.
func WithFactory(f voice.Factory, channels int) Option {
	return func(cfg *config) {
		cfg.factory = f
		cfg.channels = channels
	}
}

// WithAmplitude sets the amplitude passed to the voice factory.
func WithAmplitude(amp float64) Option {
	return func(cfg *config) {
		cfg.amplitude = amp
	}
}

// WithAmpScale sets the gain applied to the mix after filtering.
func WithAmpScale(scale float64) Option {
	return func(cfg *config) {
		cfg.ampScale = scale
	}
}

// WithMaxAmp sets the clip level applied before quantization.
func WithMaxAmp(limit float64) Option {
	return func(cfg *config) {
		cfg.maxAmp = limit
	}
}

func WithFilter(enabled bool) Option {
	return func(cfg *config) {
		cfg.filter = enabled
	}
}

func WithCutoff(hz float64) Option {
	return func(cfg *config) {
		cfg.cutoff = hz
	}
}

func WithFilterOrder(order int) Option {
	return func(cfg *config) {
		cfg.order = order
	}
}

// WithCutoffRange sets the bounds cutoff changes are clamped to. Both must
// lie strictly between 0 and half the sample rate.
func WithCutoffRange(lo, hi float64) Option {
	return func(cfg *config) {
		cfg.minCutoff = lo
		cfg.maxCutoff = hi
	}
}

// WithEffects installs master effects described like "delay 250,0.4; dist 4".
func WithEffects(spec string) Option {
	return func(cfg *config) {
		cfg.effects = spec
	}
}

func WithOctave(octave int) Option {
	return func(cfg *config) {
		cfg.octave = octave
	}
}

// WithKeymap replaces the key to base-note table.
func WithKeymap(keymap map[string]int) Option {
	return func(cfg *config) {
		cfg.keymap = maps.Clone(keymap)
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithAudioBuffer sets the playback buffer used by Play. Zero keeps the
// audio backend's default.
func WithAudioBuffer(d time.Duration) Option {
	return func(cfg *config) {
		cfg.audioBuffer = d
	}
}

// WithSampleTap installs a callback invoked with each rendered block.
// The callback runs on the audio goroutine; keep work brief and non-blocking.
func WithSampleTap(tap func([]int16)) Option {
	return func(cfg *config) {
		cfg.sampleTap = tap
	}
}
