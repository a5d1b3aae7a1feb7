// Package polysynth is a polyphonic keyboard synthesizer. Each held key owns
// a voice built from a patch; every tick the voices are mixed, optionally
// low-pass filtered and quantized into a block of int16 PCM.
package polysynth

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	intaudio "github.com/cbegin/polysynth-go/internal/audio"
	"github.com/cbegin/polysynth-go/internal/effects"
	"github.com/cbegin/polysynth-go/internal/modulation"
	"github.com/cbegin/polysynth-go/internal/patch"
	"github.com/cbegin/polysynth-go/internal/pipeline"
	"github.com/cbegin/polysynth-go/internal/voice"
)

var (
	ErrSampleRate = errors.New("polysynth: sample rate must be positive")
	ErrBlockSize  = errors.New("polysynth: block size must be positive")
	ErrChannels   = errors.New("polysynth: channel count must be 1 or 2")
)

// Synth is safe for concurrent use: the audio backend pulls blocks on its
// own goroutine while key events arrive from the UI.
type Synth struct {
	mu         sync.Mutex
	sampleRate int
	blockSize  int
	channels   int
	keymap     map[string]int
	octave     int
	registry   *voice.Registry
	pipe       *pipeline.Pipeline
	sources    []modulation.Source
	logger     *slog.Logger
	sampleTap  func([]int16)

	playMu      sync.Mutex
	audio       *intaudio.Player
	audioBuffer time.Duration
}

func New(opts ...Option) (*Synth, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.sampleRate <= 0 {
		return nil, ErrSampleRate
	}
	if cfg.blockSize <= 0 {
		return nil, ErrBlockSize
	}
	factory, channels := cfg.factory, cfg.channels
	if factory == nil {
		p := cfg.patch
		if p == nil {
			p, _ = patch.Lookup(patch.DefaultName)
		}
		f, err := p.Factory()
		if err != nil {
			return nil, fmt.Errorf("polysynth: patch %q: %w", p.Name, err)
		}
		factory, channels = f, p.Channels()
	}
	if channels != 1 && channels != 2 {
		return nil, ErrChannels
	}

	var fx *effects.Chain
	if cfg.effects != "" {
		var err error
		fx, err = effects.Parse(cfg.effects, cfg.sampleRate, channels)
		if err != nil {
			return nil, fmt.Errorf("polysynth: %w", err)
		}
	}
	pipe, err := pipeline.New(pipeline.Config{
		SampleRate:    cfg.sampleRate,
		Channels:      channels,
		AmpScale:      cfg.ampScale,
		MaxAmp:        cfg.maxAmp,
		FilterEnabled: cfg.filter,
		Cutoff:        cfg.cutoff,
		FilterOrder:   cfg.order,
		MinCutoff:     cfg.minCutoff,
		MaxCutoff:     cfg.maxCutoff,
		Effects:       fx,
	})
	if err != nil {
		return nil, fmt.Errorf("polysynth: %w", err)
	}

	keymap := make(map[string]int, len(cfg.keymap))
	for k, note := range cfg.keymap {
		keymap[normalizeKey(k)] = note
	}
	logger := cfg.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Synth{
		sampleRate:  cfg.sampleRate,
		blockSize:   cfg.blockSize,
		channels:    channels,
		keymap:      keymap,
		octave:      clampOctave(cfg.octave),
		registry:    voice.NewRegistry(factory, cfg.amplitude, cfg.sampleRate),
		pipe:        pipe,
		logger:      logger,
		audioBuffer: cfg.audioBuffer,
		sampleTap:   cfg.sampleTap,
	}, nil
}

func (s *Synth) SampleRate() int { return s.sampleRate }
func (s *Synth) BlockSize() int  { return s.blockSize }

// Channels is 2 when the patch pans its voices and 1 otherwise.
func (s *Synth) Channels() int { return s.channels }

// KeyDown starts a voice for a mapped key at the current octave and reports
// whether it did. Unmapped keys and keys already sounding are ignored. A key
// still releasing gets its new voice once the old one is reclaimed.
func (s *Synth) KeyDown(key string) bool {
	key = normalizeKey(key)
	base, ok := s.keymap[key]
	if !ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	started := s.registry.NoteOn(key, base, s.octave)
	if started {
		v, _ := s.registry.Voice(key)
		s.logger.Debug("voice on", "key", key, "note", v.Note, "freq", v.Freq)
	}
	return started
}

// KeyUp releases the voice of a mapped key.
func (s *Synth) KeyUp(key string) {
	key = normalizeKey(key)
	if _, ok := s.keymap[key]; !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registry.NoteOff(key)
}

// NoteOn starts absolute MIDI note under id, ignoring the keymap and octave.
func (s *Synth) NoteOn(id string, note int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.NoteOn(id, note, 0)
}

func (s *Synth) NoteOff(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registry.NoteOff(id)
}

// Panic releases every sounding voice.
func (s *Synth) Panic() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registry.Panic()
	s.logger.Info("all notes off")
}

func (s *Synth) ActiveVoices() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.Len()
}

// ActiveKeys lists the keys that own a voice, oldest first.
func (s *Synth) ActiveKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.Keys()
}

// ShiftOctave moves the octave by delta, clamped to [MinOctave, MaxOctave],
// and returns the new octave. Sounding voices keep their pitch.
func (s *Synth) ShiftOctave(delta int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setOctave(s.octave + delta)
}

func (s *Synth) SetOctave(octave int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setOctave(octave)
}

func (s *Synth) Octave() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.octave
}

func (s *Synth) setOctave(octave int) int {
	octave = clampOctave(octave)
	if octave != s.octave {
		s.octave = octave
		s.logger.Info("octave", "octave", octave)
	}
	return octave
}

func clampOctave(octave int) int {
	return max(MinOctave, min(MaxOctave, octave))
}

// ToggleFilter flips the low-pass and returns whether it is now enabled.
func (s *Synth) ToggleFilter() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	on := !s.pipe.FilterEnabled()
	s.pipe.SetFilterEnabled(on)
	s.logger.Info("filter", "enabled", on)
	return on
}

func (s *Synth) SetFilterEnabled(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pipe.SetFilterEnabled(on)
	s.logger.Info("filter", "enabled", on)
}

func (s *Synth) FilterEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pipe.FilterEnabled()
}

// ShiftCutoff moves the cutoff by delta Hz and returns the clamped result.
func (s *Synth) ShiftCutoff(delta float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setCutoff(s.pipe.Cutoff() + delta)
}

// SetCutoff sets the low-pass cutoff, clamped to the configured range, and
// returns the value applied.
func (s *Synth) SetCutoff(hz float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setCutoff(hz)
}

func (s *Synth) Cutoff() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pipe.Cutoff()
}

func (s *Synth) setCutoff(hz float64) float64 {
	hz = s.pipe.SetCutoff(hz)
	s.logger.Info("cutoff", "hz", hz)
	return hz
}

// SetEffects replaces the master effects with the chain described by spec,
// as for WithEffects. An empty spec removes them. On error the current
// effects stay.
func (s *Synth) SetEffects(spec string) error {
	fx, err := effects.Parse(spec, s.sampleRate, s.channels)
	if err != nil {
		return fmt.Errorf("polysynth: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pipe.SetEffects(fx)
	s.logger.Info("effects", "chain", spec)
	return nil
}

// ProcessBlock runs one engine tick: it renders len(dst)/Channels frames
// into dst, then drops voices whose release has finished. It returns false
// when no voice was active and dst was zeroed.
func (s *Synth) ProcessBlock(dst []int16) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources = s.registry.Sources(s.sources[:0])
	sounding := s.pipe.Produce(s.sources, dst)
	clear(s.sources)
	if s.sampleTap != nil {
		s.sampleTap(dst)
	}
	if n := s.registry.Reap(); n > 0 {
		s.logger.Debug("voices reclaimed", "count", n, "active", s.registry.Len())
	}
	return sounding
}

// Play starts real-time output through the audio backend.
func (s *Synth) Play() error {
	s.playMu.Lock()
	defer s.playMu.Unlock()
	if s.audio != nil {
		return nil
	}
	p, err := intaudio.NewPlayer(s.sampleRate, s, s.audioBuffer)
	if err != nil {
		return fmt.Errorf("polysynth: start audio: %w", err)
	}
	s.audio = p
	p.Play()
	s.logger.Info("audio started", "sample_rate", s.sampleRate, "block", s.blockSize, "channels", s.channels)
	return nil
}

// Playback reports whether real-time output is running and how much of it
// has been heard.
func (s *Synth) Playback() (bool, time.Duration) {
	s.playMu.Lock()
	defer s.playMu.Unlock()
	if s.audio == nil {
		return false, 0
	}
	return s.audio.IsPlaying(), s.audio.Position()
}

// Stop ends real-time output. Voices keep their state.
func (s *Synth) Stop() error {
	s.playMu.Lock()
	defer s.playMu.Unlock()
	if s.audio == nil {
		return nil
	}
	err := s.audio.Stop()
	s.audio = nil
	return err
}
