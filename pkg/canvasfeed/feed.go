package canvasfeed

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/haivivi/execlive/pkg/assistant"
	"github.com/haivivi/execlive/pkg/canvas"
	"github.com/haivivi/execlive/pkg/live"
	"github.com/haivivi/execlive/pkg/tools"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 64 << 10
	sendBuffer     = 64
)

// Frame types.
const (
	TypeSnapshot   = "snapshot"
	TypeItems      = "items"
	TypeNotes      = "notes"
	TypeNotesView  = "notes_view"
	TypeAgentState = "agent_state"
	TypeStatus     = "status"
	TypeError      = "error"

	TypeAction  = "action"
	TypeText    = "text"
	TypeDismiss = "dismiss"
)

// Assistant is what the feed renders and drives. *assistant.Assistant
// implements it.
type Assistant interface {
	Store() *canvas.Store
	State() assistant.AgentState
	Status() live.Status
	Observe(assistant.Observer) (cancel func())
	HandleAction(action tools.Action, data map[string]any) error
	SendText(text string) error
	Dismiss(id string) bool
}

var _ Assistant = (*assistant.Assistant)(nil)

// Frame is a server to client message. A snapshot carries every field;
// updates carry only the part that changed.
type Frame struct {
	Type         string               `json:"type"`
	Items        []canvas.Item        `json:"items,omitzero"`
	Notes        []canvas.Note        `json:"notes,omitzero"`
	NotesVisible *bool                `json:"notes_visible,omitempty"`
	AgentState   assistant.AgentState `json:"agent_state,omitempty"`
	Status       string               `json:"status,omitempty"`
	Error        string               `json:"error,omitempty"`
}

// Request is a client to server message.
type Request struct {
	Type   string         `json:"type"`
	Action tools.Action   `json:"action,omitempty"`
	Data   map[string]any `json:"data,omitempty"`
	Text   string         `json:"text,omitempty"`
	ID     string         `json:"id,omitempty"`
}

// Option configures a Handler.
type Option func(*Handler)

// WithCheckOrigin overrides the origin check. By default only same-host
// origins are accepted.
func WithCheckOrigin(fn func(r *http.Request) bool) Option {
	return func(h *Handler) {
		h.upgrader.CheckOrigin = fn
	}
}

// Handler upgrades requests to WebSocket and streams the canvas.
type Handler struct {
	a        Assistant
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
	wg      sync.WaitGroup
}

// NewHandler creates a Handler for a.
func NewHandler(a Assistant, opts ...Option) *Handler {
	h := &Handler{
		a:       a,
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		http.Error(w, "canvasfeed: shutting down", http.StatusServiceUnavailable)
		return
	}
	h.wg.Add(1)
	h.mu.Unlock()
	defer h.wg.Done()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("canvasfeed: upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		a:    h.a,
		send: make(chan Frame, sendBuffer),
		done: make(chan struct{}),
	}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	slog.Info("canvasfeed: client connected", "client", c.id, "remote", r.RemoteAddr)
	c.serve()
	slog.Info("canvasfeed: client disconnected", "client", c.id)

	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

// Close disconnects every client, refuses new ones and waits until all
// client goroutines have returned. http.Server.Shutdown leaves upgraded
// connections alone, so servers call Close after it.
func (h *Handler) Close() {
	h.mu.Lock()
	h.closed = true
	for c := range h.clients {
		c.close()
	}
	h.mu.Unlock()
	h.wg.Wait()
}

type client struct {
	id   string
	conn *websocket.Conn
	a    Assistant

	// mu orders the snapshot before any update.
	mu        sync.Mutex
	send      chan Frame
	done      chan struct{}
	closeOnce sync.Once
}

func (c *client) serve() {
	c.mu.Lock()
	unsubStore := c.a.Store().Subscribe(c.onChange)
	unsubObs := c.a.Observe(assistant.ObserverFuncs{
		AgentState: func(s assistant.AgentState) {
			c.push(Frame{Type: TypeAgentState, AgentState: s})
		},
		Status: func(s live.Status) {
			c.push(Frame{Type: TypeStatus, Status: s.String()})
		},
		Error: func(err error) {
			c.push(Frame{Type: TypeError, Error: err.Error()})
		},
	})
	c.send <- c.snapshot()
	c.mu.Unlock()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		c.writeLoop()
	}()

	c.readLoop()

	unsubStore()
	unsubObs()
	c.close()
	<-writerDone
	c.conn.Close()
}

func (c *client) snapshot() Frame {
	store := c.a.Store()
	visible := store.NotesVisible()
	return Frame{
		Type:         TypeSnapshot,
		Items:        orEmpty(store.Items()),
		Notes:        orEmpty(store.Notes()),
		NotesVisible: &visible,
		AgentState:   c.a.State(),
		Status:       c.a.Status().String(),
	}
}

func (c *client) onChange(k canvas.ChangeKind) {
	store := c.a.Store()
	switch k {
	case canvas.ChangeItems:
		c.push(Frame{Type: TypeItems, Items: orEmpty(store.Items())})
	case canvas.ChangeNotes:
		c.push(Frame{Type: TypeNotes, Notes: orEmpty(store.Notes())})
	case canvas.ChangeNotesView:
		visible := store.NotesVisible()
		c.push(Frame{Type: TypeNotesView, NotesVisible: &visible})
	}
}

// push queues f. A client that falls a full buffer behind is dropped.
func (c *client) push(f Frame) {
	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-c.done:
	case c.send <- f:
	default:
		slog.Warn("canvasfeed: client too slow, closing", "client", c.id)
		c.close()
	}
}

func (c *client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case f := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(f); err != nil {
				slog.Debug("canvasfeed: write failed", "client", c.id, "error", err)
				c.close()
				c.conn.Close()
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.close()
				c.conn.Close()
				return
			}
		case <-c.done:
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
			// Unblock the reader.
			c.conn.Close()
			return
		}
	}
}

func (c *client) readLoop() {
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				slog.Warn("canvasfeed: read failed", "client", c.id, "error", err)
			}
			return
		}
		var req Request
		if err := json.Unmarshal(data, &req); err != nil {
			c.push(Frame{Type: TypeError, Error: fmt.Sprintf("canvasfeed: bad frame: %v", err)})
			continue
		}
		if err := c.handle(&req); err != nil {
			slog.Debug("canvasfeed: request failed", "client", c.id, "type", req.Type, "error", err)
			c.push(Frame{Type: TypeError, Error: err.Error()})
		}
	}
}

func (c *client) handle(req *Request) error {
	switch req.Type {
	case TypeAction:
		return c.a.HandleAction(req.Action, req.Data)
	case TypeText:
		text := strings.TrimSpace(req.Text)
		if text == "" {
			return errors.New("canvasfeed: empty text")
		}
		return c.a.SendText(text)
	case TypeDismiss:
		if !c.a.Dismiss(req.ID) {
			return fmt.Errorf("canvasfeed: no item %q", req.ID)
		}
		return nil
	default:
		return fmt.Errorf("canvasfeed: unknown frame type %q", req.Type)
	}
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
