package playback

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/haivivi/execlive/pkg/audio/pcm"
)

// Output is a blocking audio device that accepts fixed-size blocks of
// samples. portaudio.OutputStream satisfies it.
type Output interface {
	Write(samples []int16) (int, error)
}

// ErrPlayerClosed is returned by Play after Close.
var ErrPlayerClosed = errors.New("playback: player closed")

type queued struct {
	start   int64
	samples []int16
}

// Player is a Sink and Clock backed by an Output device. It writes one
// block at a time, silence when nothing is due, so its clock advances at
// the device rate like a hardware audio clock.
type Player struct {
	out    Output
	format pcm.Format
	block  int

	played atomic.Int64

	mu      sync.Mutex
	queue   []queued
	lastEnd int64
	closed  bool
}

var (
	_ Sink  = (*Player)(nil)
	_ Clock = (*Player)(nil)
)

// NewPlayer creates a Player writing blocks of blockDuration to out.
func NewPlayer(out Output, format pcm.Format, blockDuration time.Duration) *Player {
	return &Player{
		out:    out,
		format: format,
		block:  int(format.SamplesInDuration(blockDuration)),
	}
}

// Now returns the duration of audio written to the device so far.
func (p *Player) Now() time.Duration {
	return p.format.SampleDuration(p.played.Load())
}

// Play queues buf to start at position at.
func (p *Player) Play(buf *pcm.Buffer, at time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPlayerClosed
	}
	start := max(p.format.SamplesInDuration(at), p.lastEnd, p.played.Load())
	samples := pcm.Float32ToInt16(buf.Samples)
	p.queue = append(p.queue, queued{start: start, samples: samples})
	p.lastEnd = start + int64(len(samples))
	return nil
}

// Discard drops all queued audio.
func (p *Player) Discard() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queue = nil
	p.lastEnd = 0
}

// Run writes blocks until ctx is done, the player is closed, or the device
// fails.
func (p *Player) Run(ctx context.Context) error {
	block := make([]int16, p.block)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		if !p.fill(block) {
			return nil
		}
		if _, err := p.out.Write(block); err != nil {
			return err
		}
		p.played.Add(int64(len(block)))
	}
}

// Close stops Run after the current block and rejects further Play calls.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.queue = nil
	return nil
}

// fill renders the next block starting at the played position. It returns
// false once the player is closed.
func (p *Player) fill(block []int16) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	clear(block)
	pos := p.played.Load()
	end := pos + int64(len(block))

	keep := p.queue[:0]
	for _, q := range p.queue {
		qEnd := q.start + int64(len(q.samples))
		if q.start < end && qEnd > pos {
			from := max(q.start, pos)
			to := min(qEnd, end)
			copy(block[from-pos:to-pos], q.samples[from-q.start:to-q.start])
		}
		if qEnd > end {
			keep = append(keep, q)
		}
	}
	p.queue = keep
	return true
}
