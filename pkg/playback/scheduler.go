package playback

import (
	"log/slog"
	"sync"
	"time"

	"github.com/haivivi/execlive/pkg/audio/pcm"
)

// Clock is the output audio clock. Now reports the playback position since
// the output started and never goes backwards.
type Clock interface {
	Now() time.Duration
}

// Sink plays a buffer starting at a position on the Clock.
type Sink interface {
	Play(buf *pcm.Buffer, at time.Duration) error
}

// Scheduler queues inbound model audio for gapless sequential playback.
//
// It keeps a single cursor, the position where the next chunk should start.
// Each chunk starts at max(clock, cursor) and moves the cursor to its end, so
// chunks never overlap and never start in the past.
type Scheduler struct {
	clock  Clock
	sink   Sink
	format pcm.Format

	mu     sync.Mutex
	cursor time.Duration
}

// NewScheduler creates a Scheduler decoding chunks in format and playing them
// on sink against clock.
func NewScheduler(clock Clock, sink Sink, format pcm.Format) *Scheduler {
	return &Scheduler{
		clock:  clock,
		sink:   sink,
		format: format,
	}
}

// Schedule decodes a base64 PCM chunk and schedules it after everything
// already queued. A chunk that fails to decode is logged and dropped; the
// cursor is left untouched. It returns the chosen start position.
func (s *Scheduler) Schedule(b64 string) (time.Duration, error) {
	buf, err := pcm.DecodeInboundChunk(b64, s.format)
	if err != nil {
		slog.Warn("playback: dropping audio chunk", "error", err)
		return 0, err
	}
	return s.ScheduleBuffer(buf)
}

// ScheduleBytes is Schedule for raw little-endian PCM, as delivered by the
// genai client after it decodes the inline data.
func (s *Scheduler) ScheduleBytes(data []byte) (time.Duration, error) {
	buf, err := pcm.DecodeBytes(data, s.format)
	if err != nil {
		slog.Warn("playback: dropping audio chunk", "error", err)
		return 0, err
	}
	return s.ScheduleBuffer(buf)
}

// ScheduleBuffer schedules an already decoded buffer.
func (s *Scheduler) ScheduleBuffer(buf *pcm.Buffer) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := max(s.clock.Now(), s.cursor)
	if err := s.sink.Play(buf, start); err != nil {
		return 0, err
	}
	s.cursor = start + buf.Duration()
	return start, nil
}

// Cursor returns the position at which the next chunk would start if the
// clock has not caught up with it.
func (s *Scheduler) Cursor() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// Reset discards the cursor. If the sink can drop pending audio, it does so
// without flushing it.
func (s *Scheduler) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor = 0
	if d, ok := s.sink.(interface{ Discard() }); ok {
		d.Discard()
	}
}
