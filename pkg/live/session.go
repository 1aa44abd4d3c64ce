package live

import (
	"context"
	"encoding/json"
	"iter"
	"log/slog"
	"sync"
	"sync/atomic"

	"google.golang.org/genai"

	"github.com/haivivi/execlive/pkg/audio/pcm"
)

// Status is the transport state of a session.
type Status int32

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusOpen
	StatusClosed
)

func (s Status) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusOpen:
		return "open"
	case StatusClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Conn is the bidirectional Live connection. *genai.Session implements it.
type Conn interface {
	SendRealtimeInput(input genai.LiveRealtimeInput) error
	SendClientContent(input genai.LiveClientContentInput) error
	SendToolResponse(input genai.LiveToolResponseInput) error
	Receive() (*genai.LiveServerMessage, error)
	Close() error
}

var _ Conn = (*genai.Session)(nil)

// Session is an open Live connection. A background goroutine reads server
// messages and splits them into events consumed through Events.
type Session struct {
	conn  Conn
	model string

	status    atomic.Int32
	closeCh   chan struct{}
	eventsCh  chan eventOrError
	closeOnce sync.Once
	mu        sync.Mutex
}

type eventOrError struct {
	event *Event
	err   error
}

// NewSession wraps an already dialed connection and starts reading.
func NewSession(conn Conn, model string) *Session {
	return newSession(conn, model)
}

func newSession(conn Conn, model string) *Session {
	s := &Session{
		conn:     conn,
		model:    model,
		closeCh:  make(chan struct{}),
		eventsCh: make(chan eventOrError, 100),
	}
	s.status.Store(int32(StatusOpen))
	go s.readLoop()
	return s
}

// Model returns the model the session was opened with.
func (s *Session) Model() string {
	return s.model
}

// Status returns StatusOpen until the session is closed or the read loop
// fails, then StatusClosed.
func (s *Session) Status() Status {
	return Status(s.status.Load())
}

// Events returns an iterator over inbound events. Iteration ends when the
// session is closed; a read error is yielded once and ends iteration.
func (s *Session) Events() iter.Seq2[*Event, error] {
	return func(yield func(*Event, error) bool) {
		for {
			select {
			case <-s.closeCh:
				return
			case item, ok := <-s.eventsCh:
				if !ok {
					return
				}
				if !yield(item.event, item.err) {
					return
				}
				if item.err != nil {
					return
				}
			}
		}
	}
}

// SendAudio uploads one frame of realtime PCM audio.
func (s *Session) SendAudio(data []byte, format pcm.Format) error {
	return s.send("realtime audio", nil, func() error {
		return s.conn.SendRealtimeInput(genai.LiveRealtimeInput{
			Audio: &genai.Blob{Data: data, MIMEType: format.MIMEType()},
		})
	})
}

// SendImage uploads one video frame.
func (s *Session) SendImage(data []byte, mimeType string) error {
	return s.send("realtime image", nil, func() error {
		return s.conn.SendRealtimeInput(genai.LiveRealtimeInput{
			Video: &genai.Blob{Data: data, MIMEType: mimeType},
		})
	})
}

// SendText sends a complete user text turn.
func (s *Session) SendText(text string) error {
	turnComplete := true
	input := genai.LiveClientContentInput{
		Turns:        []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)},
		TurnComplete: &turnComplete,
	}
	return s.send("client content", input, func() error {
		return s.conn.SendClientContent(input)
	})
}

// SendToolResponses replies to a tool call batch in one message.
func (s *Session) SendToolResponses(responses []*genai.FunctionResponse) error {
	input := genai.LiveToolResponseInput{FunctionResponses: responses}
	return s.send("tool response", input, func() error {
		return s.conn.SendToolResponse(input)
	})
}

// Close closes the connection and stops the read loop. It is safe to call
// more than once.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.status.Store(int32(StatusClosed))
		close(s.closeCh)
		err = s.conn.Close()
	})
	return err
}

func (s *Session) closed() bool {
	select {
	case <-s.closeCh:
		return true
	default:
		return false
	}
}

// send serializes writes on the connection. A non-nil logged value is
// dumped at debug level; media frames pass nil.
func (s *Session) send(kind string, logged any, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed() {
		return ErrClosed
	}
	if logged != nil && slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		if b, err := json.Marshal(logged); err == nil {
			str := string(b)
			if len(str) > 500 {
				str = str[:500] + "..."
			}
			slog.Debug("sending", "kind", kind, "content", str)
		}
	}
	if err := fn(); err != nil {
		// The connection was closed under a blocked write.
		if s.closed() {
			return ErrClosed
		}
		return newError("send", err)
	}
	return nil
}

func (s *Session) readLoop() {
	defer close(s.eventsCh)

	for {
		msg, err := s.conn.Receive()
		if err != nil {
			if s.closed() {
				return
			}
			s.status.Store(int32(StatusClosed))
			select {
			case <-s.closeCh:
			case s.eventsCh <- eventOrError{err: newError("read", err)}:
			}
			return
		}

		if slog.Default().Enabled(context.Background(), slog.LevelDebug) {
			if b, err := json.Marshal(msg); err == nil {
				str := string(b)
				if len(str) > 1000 {
					str = str[:1000] + "..."
				}
				slog.Debug("received message", "len", len(b), "content", str)
			}
		}

		for _, event := range splitMessage(msg) {
			select {
			case <-s.closeCh:
				return
			case s.eventsCh <- eventOrError{event: event}:
			}
		}
	}
}
