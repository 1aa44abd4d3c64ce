package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/haivivi/execlive/pkg/canvas"
	"github.com/haivivi/execlive/pkg/live"
	"github.com/haivivi/execlive/pkg/media"
	"github.com/haivivi/execlive/pkg/persona"
	"github.com/haivivi/execlive/pkg/playback"
	"github.com/haivivi/execlive/pkg/tools"
)

var (
	// ErrNotConnected is returned by operations that need an open session.
	ErrNotConnected = errors.New("assistant: not connected")

	// ErrConnectAborted is returned by Connect when Disconnect was called
	// while the session was being dialed.
	ErrConnectAborted = errors.New("assistant: connect aborted")
)

// Connector opens Live sessions. *live.Client implements it.
type Connector interface {
	Connect(ctx context.Context, config *live.ConnectConfig) (*live.Session, error)
}

var _ Connector = (*live.Client)(nil)

// Config wires an Assistant.
type Config struct {
	// Client dials the Live API. Required.
	Client Connector
	// Devices provides the microphone and camera. Required.
	Devices media.Devices
	// Playback schedules model audio. Required.
	Playback *playback.Scheduler

	// Store defaults to an empty canvas.
	Store *canvas.Store
	// Personas defaults to persona.Builtin().
	Personas *persona.Catalog
	// Persona is the initial persona id.
	Persona string
	// Model overrides live.DefaultModel.
	Model string
	// Voice overrides the persona voice.
	Voice string
	// Tools defaults to tools.Catalog().
	Tools []tools.Tool

	EnvOptions     []tools.EnvOption
	CaptureOptions []media.CaptureOption
}

// Assistant runs one realtime conversation at a time. It owns the capture
// devices, the playback scheduler, the tool dispatcher and the canvas.
//
// Inbound events, tool batches and user actions are all handled on a single
// event goroutine per session, so canvas mutations never interleave.
type Assistant struct {
	client     Connector
	capture    *media.Capture
	scheduler  *playback.Scheduler
	dispatcher *tools.Dispatcher
	store      *canvas.Store
	personas   *persona.Catalog
	model      string
	voice      string

	observers observers
	requests  chan request

	mu      sync.Mutex
	persona persona.Persona
	status  live.Status
	state   AgentState
	gen     int
	session *live.Session
	cancel  context.CancelFunc
	done    chan struct{}
}

type request struct {
	fn    func(*live.Session) error
	reply chan error
}

// New creates an Assistant. It does not connect.
func New(cfg Config) (*Assistant, error) {
	if cfg.Client == nil || cfg.Devices == nil || cfg.Playback == nil {
		return nil, errors.New("assistant: client, devices and playback are required")
	}
	a := &Assistant{
		client:    cfg.Client,
		scheduler: cfg.Playback,
		store:     cfg.Store,
		personas:  cfg.Personas,
		model:     cfg.Model,
		voice:     cfg.Voice,
		requests:  make(chan request),
		status:    live.StatusDisconnected,
		state:     StateIdle,
	}
	if a.store == nil {
		a.store = canvas.NewStore()
	}
	if a.personas == nil {
		a.personas = persona.Builtin()
	}
	p, err := a.personas.Get(cfg.Persona)
	if err != nil {
		return nil, err
	}
	a.persona = p

	captureOpts := append([]media.CaptureOption{media.WithErrorHandler(a.onCaptureError)}, cfg.CaptureOptions...)
	a.capture = media.NewCapture(cfg.Devices, captureOpts...)
	a.dispatcher = tools.NewDispatcher(tools.NewEnv(a.store, a.capture, cfg.EnvOptions...), cfg.Tools...)
	return a, nil
}

// Observe registers o and returns a function that unregisters it.
func (a *Assistant) Observe(o Observer) (cancel func()) {
	return a.observers.add(o)
}

// Store returns the canvas.
func (a *Assistant) Store() *canvas.Store {
	return a.store
}

// Dispatcher returns the tool dispatcher.
func (a *Assistant) Dispatcher() *tools.Dispatcher {
	return a.dispatcher
}

// Status returns the session status.
func (a *Assistant) Status() live.Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// State returns the agent state.
func (a *Assistant) State() AgentState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Persona returns the selected persona.
func (a *Assistant) Persona() persona.Persona {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.persona
}

// SetPersona selects the persona used by the next Connect.
func (a *Assistant) SetPersona(id string) error {
	p, err := a.personas.Get(id)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.persona = p
	a.mu.Unlock()
	return nil
}

// Volume returns the microphone level, 0 when not streaming.
func (a *Assistant) Volume() float64 {
	return a.capture.Volume()
}

// CameraOn reports whether the camera is acquired.
func (a *Assistant) CameraOn() bool {
	return a.capture.CameraOn()
}

// Connect acquires the microphone, opens a session and starts streaming. It
// is a no-op unless the assistant is disconnected. Failures are reported to
// observers and leave the assistant disconnected.
func (a *Assistant) Connect(ctx context.Context) error {
	a.mu.Lock()
	if a.status != live.StatusDisconnected {
		a.mu.Unlock()
		return nil
	}
	a.gen++
	gen := a.gen
	p := a.persona
	a.mu.Unlock()
	a.setStatus(live.StatusConnecting)

	sess, err := a.open(ctx, p)
	if err != nil {
		a.capture.Release()
		a.mu.Lock()
		current := a.gen == gen && a.status == live.StatusConnecting
		a.mu.Unlock()
		if current {
			a.setStatus(live.StatusDisconnected)
		}
		a.reportError(err)
		return err
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	a.mu.Lock()
	if a.gen != gen || a.status != live.StatusConnecting {
		a.mu.Unlock()
		cancel()
		a.capture.Release()
		sess.Close()
		return ErrConnectAborted
	}
	a.session = sess
	a.cancel = cancel
	a.done = done
	a.mu.Unlock()

	slog.Info("assistant: session open", "model", sess.Model(), "persona", p.ID)
	go a.run(loopCtx, gen, sess, done)
	a.setStatus(live.StatusOpen)
	a.setState(StateListening)
	return nil
}

func (a *Assistant) open(ctx context.Context, p persona.Persona) (*live.Session, error) {
	if err := a.capture.AcquireMicrophone(ctx); err != nil {
		return nil, err
	}
	instruction, err := persona.Instruction(p)
	if err != nil {
		return nil, err
	}
	voice := p.Voice
	if a.voice != "" {
		voice = a.voice
	}
	sess, err := a.client.Connect(ctx, &live.ConnectConfig{
		Model:        a.model,
		Voice:        voice,
		Instruction:  instruction,
		Functions:    a.dispatcher.Declarations(),
		GoogleSearch: true,
	})
	if err != nil {
		return nil, err
	}
	if err := a.capture.Attach(sess); err != nil {
		sess.Close()
		return nil, err
	}
	return sess, nil
}

// Disconnect ends the session: it releases the devices, stops the video
// ticker, closes the connection and drops queued audio. It is safe to call
// at any time and more than once.
func (a *Assistant) Disconnect() {
	a.mu.Lock()
	gen := a.gen
	a.mu.Unlock()
	a.teardown(gen)
}

// teardown disconnects the session of generation gen. A stale generation is
// ignored so a late remote close never ends a newer session.
func (a *Assistant) teardown(gen int) {
	a.mu.Lock()
	if a.gen != gen || a.status == live.StatusDisconnected {
		a.mu.Unlock()
		return
	}
	sess, cancel, done := a.session, a.cancel, a.done
	a.session, a.cancel, a.done = nil, nil, nil
	// Flip the status first so a Connect still dialing sees the abort.
	a.status = live.StatusDisconnected
	a.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	// Close before releasing the devices: a capture loop blocked in a send
	// only returns once the connection is gone.
	if sess != nil {
		if err := sess.Close(); err != nil {
			slog.Debug("assistant: close session", "error", err)
		}
	}
	a.capture.Release()
	if done != nil {
		<-done
	}
	a.scheduler.Reset()

	a.observers.each(func(o Observer) { o.OnStatus(live.StatusDisconnected) })
	a.setState(StateIdle)
	slog.Info("assistant: disconnected")
}

// ToggleCamera turns the camera on or off and returns the new state. It
// works with or without a session; frames are only uploaded while one is
// open.
func (a *Assistant) ToggleCamera(ctx context.Context) (bool, error) {
	on, err := a.capture.ToggleCamera(ctx)
	if err != nil {
		a.reportError(err)
	}
	return on, err
}

// SwitchCamera flips between the user and environment cameras.
func (a *Assistant) SwitchCamera(ctx context.Context) error {
	err := a.capture.SwitchCamera(ctx)
	if err != nil {
		a.reportError(err)
	}
	return err
}

// Facing returns the preferred camera facing mode.
func (a *Assistant) Facing() media.FacingMode {
	return a.capture.Facing()
}

// SendText sends a typed user turn.
func (a *Assistant) SendText(text string) error {
	return a.do(func(sess *live.Session) error {
		return a.sendText(sess, text)
	})
}

// HandleAction applies a canvas action and tells the model about it.
func (a *Assistant) HandleAction(action tools.Action, data map[string]any) error {
	return a.do(func(sess *live.Session) error {
		text, err := tools.ActionText(a.store, action, data)
		if err != nil {
			return err
		}
		return a.sendText(sess, text)
	})
}

// Dismiss removes a card from the canvas.
func (a *Assistant) Dismiss(id string) bool {
	return a.store.Remove(id)
}

func (a *Assistant) sendText(sess *live.Session, text string) error {
	if err := sess.SendText(text); err != nil {
		return fmt.Errorf("assistant: send text: %w", err)
	}
	a.setState(StateThinking)
	return nil
}

// do runs fn on the event goroutine of the open session.
func (a *Assistant) do(fn func(*live.Session) error) error {
	a.mu.Lock()
	done := a.done
	a.mu.Unlock()
	if done == nil {
		return ErrNotConnected
	}

	req := request{fn: fn, reply: make(chan error, 1)}
	select {
	case a.requests <- req:
	case <-done:
		return ErrNotConnected
	}
	select {
	case err := <-req.reply:
		return err
	case <-done:
		select {
		case err := <-req.reply:
			return err
		default:
			return ErrNotConnected
		}
	}
}

type eventOrError struct {
	event *live.Event
	err   error
}

func (a *Assistant) run(ctx context.Context, gen int, sess *live.Session, done chan<- struct{}) {
	defer close(done)

	events := make(chan eventOrError)
	go func() {
		defer close(events)
		for ev, err := range sess.Events() {
			select {
			case events <- eventOrError{event: ev, err: err}:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case req := <-a.requests:
			err := req.fn(sess)
			req.reply <- err
			if transportFailed(err) {
				a.reportError(err)
				go a.teardown(gen)
				return
			}
		case item, ok := <-events:
			var err error
			switch {
			case !ok:
				slog.Info("assistant: session closed by remote")
			case item.err != nil:
				err = item.err
			default:
				err = a.handle(ctx, sess, item.event)
				if err == nil {
					continue
				}
			}
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				a.reportError(err)
			}
			go a.teardown(gen)
			return
		}
	}
}

// handle applies one inbound event. A returned error ends the session.
func (a *Assistant) handle(ctx context.Context, sess *live.Session, ev *live.Event) error {
	switch ev.Type {
	case live.EventSetupComplete:
		slog.Debug("assistant: setup complete")

	case live.EventAudio:
		if _, err := a.scheduler.ScheduleBytes(ev.Audio); err != nil {
			slog.Debug("assistant: audio chunk dropped", "error", err)
			return nil
		}
		a.setState(StateSpeaking)

	case live.EventText:
		slog.Debug("assistant: model text", "text", ev.Text)

	case live.EventInterrupted:
		a.scheduler.Reset()
		a.setState(StateListening)

	case live.EventTurnComplete:
		a.setState(StateListening)

	case live.EventToolCall:
		a.setState(StateThinking)
		responses := a.dispatcher.Dispatch(ctx, ev.FunctionCalls)
		if err := sess.SendToolResponses(responses); err != nil {
			return err
		}
		a.setState(StateSpeaking)

	case live.EventToolCallCancellation:
		slog.Debug("assistant: tool calls cancelled after completion", "ids", ev.CancelledIDs)

	case live.EventGoAway:
		slog.Warn("assistant: server is closing the session", "time_left", ev.TimeLeft)
	}
	return nil
}

func (a *Assistant) onCaptureError(err error) {
	if errors.Is(err, live.ErrClosed) {
		return
	}
	a.reportError(err)
	var de *media.DeviceError
	if errors.As(err, &de) || transportFailed(err) {
		a.mu.Lock()
		gen := a.gen
		a.mu.Unlock()
		go a.teardown(gen)
	}
}

// transportFailed reports whether err is a failure of the open connection.
func transportFailed(err error) bool {
	var le *live.Error
	return errors.As(err, &le) && !errors.Is(err, live.ErrClosed)
}

func (a *Assistant) reportError(err error) {
	slog.Error("assistant", "error", err)
	a.observers.each(func(o Observer) { o.OnError(err) })
}

func (a *Assistant) setStatus(s live.Status) {
	a.mu.Lock()
	if a.status == s {
		a.mu.Unlock()
		return
	}
	a.status = s
	a.mu.Unlock()
	a.observers.each(func(o Observer) { o.OnStatus(s) })
}

func (a *Assistant) setState(s AgentState) {
	a.mu.Lock()
	if a.state == s {
		a.mu.Unlock()
		return
	}
	a.state = s
	a.mu.Unlock()
	a.observers.each(func(o Observer) { o.OnAgentState(s) })
}
