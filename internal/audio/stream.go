// Package audio feeds rendered blocks to the ebiten audio player.
package audio

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

// BlockSource renders fixed-size blocks of interleaved int16 PCM.
type BlockSource interface {
	Channels() int
	BlockSize() int
	ProcessBlock(dst []int16) bool
}

// StreamReader turns a BlockSource into the 16-bit little-endian stereo byte
// stream ebiten reads. Mono blocks are duplicated onto both channels. A block
// that only partly fits in a read is kept for the next one.
type StreamReader struct {
	mu      sync.Mutex
	source  BlockSource
	block   []int16
	pending []byte
	off     int
}

func NewStreamReader(source BlockSource) *StreamReader {
	return &StreamReader{
		source:  source,
		block:   make([]int16, source.BlockSize()*source.Channels()),
		pending: make([]byte, 0, source.BlockSize()*4),
	}
}

func (r *StreamReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for n < len(p) {
		if r.off == len(r.pending) {
			r.render()
		}
		c := copy(p[n:], r.pending[r.off:])
		r.off += c
		n += c
	}
	return n, nil
}

// Buffered reports how many encoded bytes are waiting from the last block.
func (r *StreamReader) Buffered() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending) - r.off
}

func (r *StreamReader) render() {
	r.source.ProcessBlock(r.block)
	mono := r.source.Channels() == 1
	frames := len(r.block)
	if !mono {
		frames /= 2
	}
	r.pending = r.pending[:frames*4]
	for i := 0; i < frames; i++ {
		var lv, rv int16
		if mono {
			lv, rv = r.block[i], r.block[i]
		} else {
			lv, rv = r.block[2*i], r.block[2*i+1]
		}
		binary.LittleEndian.PutUint16(r.pending[4*i:], uint16(lv))
		binary.LittleEndian.PutUint16(r.pending[4*i+2:], uint16(rv))
	}
	r.off = 0
}

func (r *StreamReader) Close() error { return nil }

type Player struct {
	player *ebitaudio.Player
	reader *StreamReader
}

var (
	audioContextOnce sync.Once
	audioContext     *ebitaudio.Context
	audioSampleRate  int
)

func sharedAudioContext(sampleRate int) (*ebitaudio.Context, error) {
	audioContextOnce.Do(func() {
		audioSampleRate = sampleRate
		audioContext = ebitaudio.NewContext(sampleRate)
	})
	if audioSampleRate != sampleRate {
		return nil, fmt.Errorf("audio context already initialized at %d Hz (requested %d Hz)", audioSampleRate, sampleRate)
	}
	return audioContext, nil
}

// NewPlayer starts pulling blocks from source through the shared context.
// A positive buffer shortens the player's internal buffer for lower latency.
func NewPlayer(sampleRate int, source BlockSource, buffer time.Duration) (*Player, error) {
	ctx, err := sharedAudioContext(sampleRate)
	if err != nil {
		return nil, err
	}
	reader := NewStreamReader(source)
	pl, err := ctx.NewPlayer(reader)
	if err != nil {
		return nil, err
	}
	if buffer > 0 {
		pl.SetBufferSize(buffer)
	}
	return &Player{player: pl, reader: reader}, nil
}

func (p *Player) Play()           { p.player.Play() }
func (p *Player) IsPlaying() bool { return p.player.IsPlaying() }

// Position is how much audio the listener has heard so far.
func (p *Player) Position() time.Duration {
	return p.player.Position()
}

func (p *Player) Stop() error {
	p.player.Pause()
	if err := p.player.Close(); err != nil {
		return err
	}
	return p.reader.Close()
}
