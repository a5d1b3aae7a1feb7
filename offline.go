package polysynth

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ErrScript is returned by ParseScript for malformed entries.
var ErrScript = errors.New("polysynth: bad script")

// KeyEvent presses or releases a key at an absolute frame.
type KeyEvent struct {
	Frame int
	Key   string
	Down  bool
}

// Render plays script offline for frames frames and returns the interleaved
// output. Events fire before the frame they name; ticks are split at event
// frames so timing is sample accurate. A negative length renders nothing.
func (s *Synth) Render(script []KeyEvent, frames int) []int16 {
	frames = max(frames, 0)
	events := slices.Clone(script)
	slices.SortStableFunc(events, func(a, b KeyEvent) int { return a.Frame - b.Frame })

	out := make([]int16, frames*s.channels)
	next := 0
	for pos := 0; pos < frames; {
		for next < len(events) && events[next].Frame <= pos {
			if ev := events[next]; ev.Down {
				s.KeyDown(ev.Key)
			} else {
				s.KeyUp(ev.Key)
			}
			next++
		}
		n := min(s.blockSize, frames-pos)
		if next < len(events) {
			n = min(n, events[next].Frame-pos)
		}
		s.ProcessBlock(out[pos*s.channels : (pos+n)*s.channels])
		pos += n
	}
	return out
}

// ParseScript reads comma separated "key:start-end" entries with times in
// seconds, for example "A:0-0.5, D:0.25-1". A missing end holds the key for
// the rest of the render.
func ParseScript(text string, sampleRate int) ([]KeyEvent, error) {
	var events []KeyEvent
	for _, item := range strings.Split(text, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		key, span, ok := strings.Cut(item, ":")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("%w: %q: want key:start-end", ErrScript, item)
		}
		startText, endText, hasEnd := strings.Cut(span, "-")
		start, err := strconv.ParseFloat(strings.TrimSpace(startText), 64)
		if err != nil || start < 0 {
			return nil, fmt.Errorf("%w: %q: bad start time", ErrScript, item)
		}
		key = strings.TrimSpace(key)
		events = append(events, KeyEvent{Frame: seconds(start, sampleRate), Key: key, Down: true})
		if !hasEnd {
			continue
		}
		end, err := strconv.ParseFloat(strings.TrimSpace(endText), 64)
		if err != nil || end < start {
			return nil, fmt.Errorf("%w: %q: bad end time", ErrScript, item)
		}
		events = append(events, KeyEvent{Frame: seconds(end, sampleRate), Key: key})
	}
	return events, nil
}

func seconds(sec float64, sampleRate int) int {
	return int(sec*float64(sampleRate) + 0.5)
}

// WriteWAV encodes interleaved 16-bit PCM as a WAV file.
func WriteWAV(w io.WriteSeeker, samples []int16, sampleRate, channels int) error {
	if channels != 1 && channels != 2 {
		return ErrChannels
	}
	data := make([]int, len(samples))
	for i, v := range samples {
		data[i] = int(v)
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	enc := wav.NewEncoder(w, sampleRate, 16, channels, 1)
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("polysynth: encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("polysynth: finish wav: %w", err)
	}
	return nil
}
