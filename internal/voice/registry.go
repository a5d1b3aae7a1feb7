// Package voice tracks one running synthesis tree per held key.
package voice

import (
	"math"

	"github.com/cbegin/polysynth-go/internal/modulation"
)

// Factory builds the synthesis tree for one note.
type Factory func(freq, amp float64, sampleRate int) modulation.Source

// NoteFrequency converts a MIDI note number to Hz (A4 = note 69 = 440 Hz).
func NoteFrequency(note int) float64 {
	return 440 * math.Pow(2, float64(note-69)/12)
}

// NoteInOctave shifts a key's base note by whole octaves.
func NoteInOctave(baseNote, octave int) int {
	return baseNote + 12*octave
}

// Voice is one sounding note.
type Voice struct {
	Key      string
	Note     int
	Freq     float64
	Source   modulation.Source
	released bool
	// repress holds a press that arrived while the voice was releasing.
	repress  *press
}

type press struct {
	baseNote int
	octave   int
}

// Released reports whether key-up has been seen for this voice.
func (v *Voice) Released() bool { return v.released }

// Registry maps keys to voices. Voices keep their creation order so the mix
// is summed in a stable order. It is not safe for concurrent use.
type Registry struct {
	factory    Factory
	amp        float64
	sampleRate int
	voices     []*Voice
	byKey      map[string]*Voice
}

func NewRegistry(factory Factory, amp float64, sampleRate int) *Registry {
	return &Registry{
		factory:    factory,
		amp:        amp,
		sampleRate: sampleRate,
		byKey:      make(map[string]*Voice),
	}
}

// NoteOn starts a voice for key and reports whether it did. A key that is
// already held is ignored. A key whose voice is still releasing is queued:
// Reap starts the new voice, at the octave given here, once the old one has
// been removed.
func (r *Registry) NoteOn(key string, baseNote, octave int) bool {
	if v, ok := r.byKey[key]; ok {
		if v.released {
			v.repress = &press{baseNote: baseNote, octave: octave}
		}
		return false
	}
	r.start(key, baseNote, octave)
	return true
}

func (r *Registry) start(key string, baseNote, octave int) {
	note := NoteInOctave(baseNote, octave)
	freq := NoteFrequency(note)
	v := &Voice{
		Key:    key,
		Note:   note,
		Freq:   freq,
		Source: r.factory(freq, r.amp, r.sampleRate),
	}
	r.voices = append(r.voices, v)
	r.byKey[key] = v
}

// NoteOff releases the key's voice once and cancels a queued press. Voices
// with nothing to release are dropped on the spot. Unknown keys are ignored.
func (r *Registry) NoteOff(key string) {
	v, ok := r.byKey[key]
	if !ok {
		return
	}
	v.repress = nil
	if !v.Source.Releasable() {
		r.remove(v)
		return
	}
	if v.released {
		return
	}
	v.Source.TriggerRelease()
	v.released = true
}

// Reap removes every released voice whose tree has ended and returns how
// many it removed. Keys pressed again during their release get a fresh
// voice. Call it once per block, after the block is rendered.
func (r *Registry) Reap() int {
	kept := r.voices[:0]
	var restart []*Voice
	for _, v := range r.voices {
		if v.released && v.Source.Ended() {
			delete(r.byKey, v.Key)
			if v.repress != nil {
				restart = append(restart, v)
			}
			continue
		}
		kept = append(kept, v)
	}
	removed := len(r.voices) - len(kept)
	clear(r.voices[len(kept):])
	r.voices = kept
	for _, v := range restart {
		r.start(v.Key, v.repress.baseNote, v.repress.octave)
	}
	return removed
}

// Queued reports whether key has a press waiting for its releasing voice.
func (r *Registry) Queued(key string) bool {
	v, ok := r.byKey[key]
	return ok && v.repress != nil
}

// Panic releases every voice, as if every key had been let go.
func (r *Registry) Panic() {
	for _, v := range append([]*Voice(nil), r.voices...) {
		r.NoteOff(v.Key)
	}
}

func (r *Registry) remove(v *Voice) {
	delete(r.byKey, v.Key)
	for i, cur := range r.voices {
		if cur == v {
			r.voices = append(r.voices[:i], r.voices[i+1:]...)
			return
		}
	}
}

func (r *Registry) Len() int { return len(r.voices) }

func (r *Registry) Has(key string) bool {
	_, ok := r.byKey[key]
	return ok
}

func (r *Registry) Voice(key string) (*Voice, bool) {
	v, ok := r.byKey[key]
	return v, ok
}

// Keys lists the active keys in creation order.
func (r *Registry) Keys() []string {
	keys := make([]string, len(r.voices))
	for i, v := range r.voices {
		keys[i] = v.Key
	}
	return keys
}

// Sources appends every voice's source to dst in creation order.
func (r *Registry) Sources(dst []modulation.Source) []modulation.Source {
	for _, v := range r.voices {
		dst = append(dst, v.Source)
	}
	return dst
}
