// Package envelope implements a sample-accurate linear ADSR envelope.
package envelope

import "math"

// Stage is the envelope's current state.
type Stage int

const (
	Attack Stage = iota
	Decay
	Sustain
	Release
	Ended
)

var stageNames = [...]string{"attack", "decay", "sustain", "release", "ended"}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "unknown"
	}
	return stageNames[s]
}

// ADSR produces gain values in [0, 1]. Durations are converted to sample
// counts once, at construction.
type ADSR struct {
	attack  int
	decay   int
	release int
	sustain float64

	stage        Stage
	elapsed      int
	value        float64
	releaseStart float64
}

// New builds an envelope. Durations are in seconds; negative durations are
// treated as zero and the sustain level is clamped to [0, 1].
func New(attackSec, decaySec, sustainLevel, releaseSec float64, sampleRate int) *ADSR {
	return &ADSR{
		attack:  samples(attackSec, sampleRate),
		decay:   samples(decaySec, sampleRate),
		release: samples(releaseSec, sampleRate),
		sustain: clamp(sustainLevel, 0, 1),
		stage:   Attack,
	}
}

func samples(sec float64, sampleRate int) int {
	if sec <= 0 || sampleRate <= 0 {
		return 0
	}
	return int(math.Round(sec * float64(sampleRate)))
}

func (e *ADSR) Stage() Stage { return e.stage }

// Value is the most recently produced gain.
func (e *ADSR) Value() float64 { return e.value }

// Next advances the envelope by one sample and returns the new gain.
func (e *ADSR) Next() float64 {
	switch e.stage {
	case Attack:
		if e.attack == 0 {
			e.value = 1
			e.afterAttack()
			if e.stage == Sustain {
				e.value = e.sustain
			}
			break
		}
		e.elapsed++
		e.value = float64(e.elapsed) / float64(e.attack)
		if e.elapsed >= e.attack {
			e.value = 1
			e.afterAttack()
		}
	case Decay:
		e.elapsed++
		e.value = 1 - (1-e.sustain)*float64(e.elapsed)/float64(e.decay)
		if e.elapsed >= e.decay {
			e.value = e.sustain
			e.enter(Sustain)
		}
	case Sustain:
		e.value = e.sustain
	case Release:
		if e.release == 0 {
			e.value = 0
			e.enter(Ended)
			break
		}
		e.elapsed++
		e.value = e.releaseStart * (1 - float64(e.elapsed)/float64(e.release))
		if e.elapsed >= e.release {
			e.value = 0
			e.enter(Ended)
		}
	case Ended:
		e.value = 0
	}
	e.value = clamp(e.value, 0, 1)
	return e.value
}

func (e *ADSR) afterAttack() {
	if e.decay > 0 {
		e.enter(Decay)
		return
	}
	e.enter(Sustain)
}

func (e *ADSR) enter(s Stage) {
	e.stage = s
	e.elapsed = 0
}

// TriggerRelease starts the release ramp from the current value. It does
// nothing once the envelope is already releasing or has ended.
func (e *ADSR) TriggerRelease() {
	if e.stage == Release || e.stage == Ended {
		return
	}
	e.releaseStart = e.value
	e.enter(Release)
}

func (e *ADSR) Releasable() bool { return true }

func (e *ADSR) Ended() bool { return e.stage == Ended }

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
