package assistant

import (
	"context"
	"errors"
	"image"
	"strings"
	"sync"
	"testing"
	"time"

	"google.golang.org/genai"

	"github.com/haivivi/execlive/pkg/audio/pcm"
	"github.com/haivivi/execlive/pkg/canvas"
	"github.com/haivivi/execlive/pkg/live"
	"github.com/haivivi/execlive/pkg/media"
	"github.com/haivivi/execlive/pkg/playback"
	"github.com/haivivi/execlive/pkg/tools"
)

// fakeConn is an in-memory Live connection.
type fakeConn struct {
	msgs chan *genai.LiveServerMessage
	errs chan error
	done chan struct{}
	once sync.Once

	// realtime and contentErr override the send results when set.
	realtime   func(c *fakeConn) error
	contentErr error

	mu      sync.Mutex
	content []genai.LiveClientContentInput
	tools   []genai.LiveToolResponseInput
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		msgs: make(chan *genai.LiveServerMessage, 8),
		errs: make(chan error, 1),
		done: make(chan struct{}),
	}
}

func (c *fakeConn) SendRealtimeInput(genai.LiveRealtimeInput) error {
	if c.realtime != nil {
		return c.realtime(c)
	}
	return nil
}

func (c *fakeConn) SendClientContent(in genai.LiveClientContentInput) error {
	if c.contentErr != nil {
		return c.contentErr
	}
	c.mu.Lock()
	c.content = append(c.content, in)
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) SendToolResponse(in genai.LiveToolResponseInput) error {
	c.mu.Lock()
	c.tools = append(c.tools, in)
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) Receive() (*genai.LiveServerMessage, error) {
	select {
	case m := <-c.msgs:
		return m, nil
	case err := <-c.errs:
		return nil, err
	case <-c.done:
		return nil, errors.New("use of closed connection")
	}
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}

func (c *fakeConn) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

type fakeConnector struct {
	mu      sync.Mutex
	conns   []*fakeConn
	configs []*live.ConnectConfig
	err     error

	realtime   func(c *fakeConn) error
	contentErr error
}

func (f *fakeConnector) Connect(_ context.Context, cfg *live.ConnectConfig) (*live.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.configs = append(f.configs, cfg)
	if f.err != nil {
		return nil, f.err
	}
	conn := newFakeConn()
	conn.realtime = f.realtime
	conn.contentErr = f.contentErr
	f.conns = append(f.conns, conn)
	return live.NewSession(conn, live.DefaultModel), nil
}

func (f *fakeConnector) last() *fakeConn {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.conns[len(f.conns)-1]
}

type idleMic struct{}

func (idleMic) ReadFrame(ctx context.Context) ([]float32, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}
func (idleMic) SampleRate() int { return 16000 }
func (idleMic) Close() error    { return nil }

// busyMic yields a 10 ms frame of tone every few milliseconds.
type busyMic struct{}

func (busyMic) ReadFrame(ctx context.Context) ([]float32, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(2 * time.Millisecond):
	}
	frame := make([]float32, 160)
	for i := range frame {
		frame[i] = 0.25
	}
	return frame, nil
}
func (busyMic) SampleRate() int { return 16000 }
func (busyMic) Close() error    { return nil }

type stillCam struct {
	facing media.FacingMode
}

func (c *stillCam) Frame() (image.Image, error) { return image.NewRGBA(image.Rect(0, 0, 8, 8)), nil }
func (c *stillCam) Facing() media.FacingMode    { return c.facing }
func (c *stillCam) Close() error                { return nil }

type fakeDevices struct {
	micErr error
	mic    media.Microphone
}

func (d *fakeDevices) OpenMicrophone(context.Context) (media.Microphone, error) {
	if d.micErr != nil {
		return nil, d.micErr
	}
	if d.mic != nil {
		return d.mic, nil
	}
	return idleMic{}, nil
}

func (d *fakeDevices) OpenCamera(_ context.Context, facing media.FacingMode) (media.Camera, error) {
	return &stillCam{facing: facing}, nil
}

// fakeSink records scheduled buffers against a clock stuck at zero.
type fakeSink struct {
	mu       sync.Mutex
	starts   []time.Duration
	discards int
}

func (s *fakeSink) Now() time.Duration { return 0 }

func (s *fakeSink) Play(_ *pcm.Buffer, at time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.starts = append(s.starts, at)
	return nil
}

func (s *fakeSink) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discards++
}

type recorder struct {
	states chan AgentState
	errs   chan error
}

func newRecorder() *recorder {
	return &recorder{states: make(chan AgentState, 32), errs: make(chan error, 8)}
}

func (r *recorder) observer() Observer {
	return ObserverFuncs{
		AgentState: func(s AgentState) { r.states <- s },
		Error:      func(err error) { r.errs <- err },
	}
}

func (r *recorder) waitState(t *testing.T, want AgentState) {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case s := <-r.states:
			if s == want {
				return
			}
		case <-timeout:
			t.Fatalf("timed out waiting for state %s", want)
		}
	}
}

type fixture struct {
	a         *Assistant
	connector *fakeConnector
	devices   *fakeDevices
	sink      *fakeSink
	rec       *recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		connector: &fakeConnector{},
		devices:   &fakeDevices{},
		sink:      &fakeSink{},
		rec:       newRecorder(),
	}
	a, err := New(Config{
		Client:         f.connector,
		Devices:        f.devices,
		Playback:       playback.NewScheduler(f.sink, f.sink, pcm.L16Mono24K),
		CaptureOptions: []media.CaptureOption{media.WithFrameInterval(10 * time.Millisecond)},
		EnvOptions:     []tools.EnvOption{tools.WithLocation(time.UTC)},
	})
	if err != nil {
		t.Fatal(err)
	}
	a.Observe(f.rec.observer())
	f.a = a
	t.Cleanup(a.Disconnect)
	return f
}

func TestConnect(t *testing.T) {
	f := newFixture(t)
	if f.a.State() != StateIdle || f.a.Status() != live.StatusDisconnected {
		t.Fatalf("initial = %s/%s", f.a.State(), f.a.Status())
	}

	if err := f.a.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	if f.a.Status() != live.StatusOpen || f.a.State() != StateListening {
		t.Errorf("after connect = %s/%s", f.a.State(), f.a.Status())
	}

	cfg := f.connector.configs[0]
	if cfg.Voice != "Puck" || !cfg.GoogleSearch || len(cfg.Functions) != 17 {
		t.Errorf("config voice=%q search=%v functions=%d", cfg.Voice, cfg.GoogleSearch, len(cfg.Functions))
	}
	if !strings.HasPrefix(cfg.Instruction, "You are Maya") {
		t.Errorf("instruction = %q", cfg.Instruction)
	}

	if err := f.a.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	if n := len(f.connector.configs); n != 1 {
		t.Errorf("second connect dialed again (%d dials)", n)
	}
}

func TestConnectFailures(t *testing.T) {
	t.Run("microphone denied", func(t *testing.T) {
		f := newFixture(t)
		f.devices.micErr = errors.New("permission denied")
		err := f.a.Connect(context.Background())
		var de *media.DeviceError
		if !errors.As(err, &de) {
			t.Fatalf("err = %v", err)
		}
		if len(f.connector.configs) != 0 {
			t.Error("dialed without a microphone")
		}
		if f.a.Status() != live.StatusDisconnected {
			t.Errorf("status = %s", f.a.Status())
		}
		if got := <-f.rec.errs; !errors.As(got, &de) {
			t.Errorf("observer error = %v", got)
		}
	})

	t.Run("missing key", func(t *testing.T) {
		f := newFixture(t)
		f.a.client = live.NewClient("")
		if err := f.a.Connect(context.Background()); !errors.Is(err, live.ErrMissingAPIKey) {
			t.Fatalf("err = %v", err)
		}
		if f.a.Status() != live.StatusDisconnected {
			t.Errorf("status = %s", f.a.Status())
		}
	})
}

func TestSpeakingAndTurnComplete(t *testing.T) {
	f := newFixture(t)
	if err := f.a.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	conn := f.connector.last()

	conn.msgs <- &genai.LiveServerMessage{ServerContent: &genai.LiveServerContent{
		ModelTurn: &genai.Content{Parts: []*genai.Part{
			{InlineData: &genai.Blob{Data: make([]byte, 4800), MIMEType: "audio/pcm;rate=24000"}},
			{InlineData: &genai.Blob{Data: make([]byte, 4800), MIMEType: "audio/pcm;rate=24000"}},
		}},
	}}
	f.rec.waitState(t, StateSpeaking)

	conn.msgs <- &genai.LiveServerMessage{ServerContent: &genai.LiveServerContent{TurnComplete: true}}
	f.rec.waitState(t, StateListening)

	f.sink.mu.Lock()
	starts := append([]time.Duration(nil), f.sink.starts...)
	f.sink.mu.Unlock()
	if len(starts) != 2 || starts[0] != 0 || starts[1] != 100*time.Millisecond {
		t.Errorf("starts = %v, want [0 100ms]", starts)
	}
}

func TestInterruptedFlushesPlayback(t *testing.T) {
	f := newFixture(t)
	if err := f.a.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	conn := f.connector.last()
	conn.msgs <- &genai.LiveServerMessage{ServerContent: &genai.LiveServerContent{
		ModelTurn: &genai.Content{Parts: []*genai.Part{{InlineData: &genai.Blob{Data: make([]byte, 480)}}}},
	}}
	f.rec.waitState(t, StateSpeaking)
	conn.msgs <- &genai.LiveServerMessage{ServerContent: &genai.LiveServerContent{Interrupted: true}}
	f.rec.waitState(t, StateListening)

	f.sink.mu.Lock()
	defer f.sink.mu.Unlock()
	if f.sink.discards != 1 {
		t.Errorf("discards = %d", f.sink.discards)
	}
}

func TestToolBatchFlushesOnce(t *testing.T) {
	f := newFixture(t)
	if err := f.a.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	conn := f.connector.last()

	conn.msgs <- &genai.LiveServerMessage{ToolCall: &genai.LiveServerToolCall{FunctionCalls: []*genai.FunctionCall{
		{ID: "1", Name: "create_note", Args: map[string]any{"title": "Idea", "content": "Ship it", "tags": []any{"ideas"}}},
		{ID: "2", Name: "find_notes_by_tag", Args: map[string]any{"tag": "ideas"}},
		{ID: "3", Name: "launch_rocket"},
	}}}
	f.rec.waitState(t, StateThinking)
	f.rec.waitState(t, StateSpeaking)

	conn.mu.Lock()
	batches := conn.tools
	conn.mu.Unlock()
	if len(batches) != 1 {
		t.Fatalf("got %d tool response messages, want 1", len(batches))
	}
	resps := batches[0].FunctionResponses
	if len(resps) != 3 || resps[0].ID != "1" || resps[1].ID != "2" || resps[2].ID != "3" {
		t.Fatalf("responses = %+v", resps)
	}
	if got := resps[2].Response["result"]; got != "Tool executed (fallback response)." {
		t.Errorf("unknown tool = %v", got)
	}

	items := f.a.Store().Items()
	if len(items) != 2 || items[0].Variant != canvas.VariantNoteSearchResults {
		t.Errorf("items = %+v", items)
	}
}

func TestActions(t *testing.T) {
	f := newFixture(t)
	if err := f.a.HandleAction(tools.ActionArchive, nil); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("action without session = %v", err)
	}
	if err := f.a.SendText("hi"); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("text without session = %v", err)
	}

	f.a.Store().Push(canvas.Item{ID: "d", Variant: canvas.VariantEmailDraft})
	if err := f.a.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	conn := f.connector.last()

	if err := f.a.HandleAction(tools.ActionDiscardDraft, nil); err != nil {
		t.Fatal(err)
	}
	if f.a.State() != StateThinking {
		t.Errorf("state = %s", f.a.State())
	}
	if len(f.a.Store().Items()) != 0 {
		t.Error("draft not discarded")
	}
	conn.mu.Lock()
	text := conn.content[0].Turns[0].Parts[0].Text
	conn.mu.Unlock()
	if text != "I've discarded the draft email." {
		t.Errorf("text = %q", text)
	}

	if err := f.a.HandleAction("explode", nil); !errors.Is(err, tools.ErrUnknownAction) {
		t.Errorf("unknown action = %v", err)
	}
}

func TestDisconnectWithCameraOn(t *testing.T) {
	f := newFixture(t)
	on, err := f.a.ToggleCamera(context.Background())
	if err != nil || !on {
		t.Fatalf("toggle = %v, %v", on, err)
	}
	if err := f.a.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !f.a.capture.Streaming() {
		t.Fatal("video loop should run while connected with camera on")
	}
	conn := f.connector.last()

	f.a.Disconnect()
	if f.a.capture.Streaming() {
		t.Error("video loop still running")
	}
	if f.a.CameraOn() {
		t.Error("camera still acquired")
	}
	if f.a.State() != StateIdle || f.a.Status() != live.StatusDisconnected {
		t.Errorf("after disconnect = %s/%s", f.a.State(), f.a.Status())
	}
	if !conn.closed() {
		t.Error("connection not closed")
	}
	f.a.Disconnect()
}

func TestRemoteErrorDisconnects(t *testing.T) {
	f := newFixture(t)
	if err := f.a.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	f.connector.last().errs <- errors.New("websocket: close 1011")

	select {
	case err := <-f.rec.errs:
		var le *live.Error
		if !errors.As(err, &le) || le.Op != "read" {
			t.Errorf("err = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no error reported")
	}
	f.rec.waitState(t, StateIdle)
	if f.a.Status() != live.StatusDisconnected {
		t.Errorf("status = %s", f.a.Status())
	}

	if err := f.a.Connect(context.Background()); err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	if f.a.Status() != live.StatusOpen {
		t.Errorf("status after reconnect = %s", f.a.Status())
	}
}

func TestDisconnectWithSendInFlight(t *testing.T) {
	f := newFixture(t)
	f.devices.mic = busyMic{}
	sending := make(chan struct{}, 1)
	f.connector.realtime = func(c *fakeConn) error {
		select {
		case sending <- struct{}{}:
		default:
		}
		<-c.done
		return errors.New("use of closed network connection")
	}
	if err := f.a.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	select {
	case <-sending:
	case <-time.After(2 * time.Second):
		t.Fatal("no audio frame was sent")
	}

	done := make(chan struct{})
	go func() {
		f.a.Disconnect()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Disconnect blocked behind a pending send")
	}
	if f.a.State() != StateIdle || f.a.Status() != live.StatusDisconnected {
		t.Errorf("after disconnect = %s/%s", f.a.State(), f.a.Status())
	}
	select {
	case err := <-f.rec.errs:
		t.Errorf("unexpected error after local disconnect: %v", err)
	default:
	}
}

func TestSendFailureDisconnects(t *testing.T) {
	t.Run("audio upload", func(t *testing.T) {
		f := newFixture(t)
		f.devices.mic = busyMic{}
		f.connector.realtime = func(*fakeConn) error { return errors.New("broken pipe") }
		if err := f.a.Connect(context.Background()); err != nil {
			t.Fatal(err)
		}

		select {
		case err := <-f.rec.errs:
			var le *live.Error
			if !errors.As(err, &le) || le.Op != "send" {
				t.Errorf("err = %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("no error reported")
		}
		f.rec.waitState(t, StateIdle)
		if f.a.Status() != live.StatusDisconnected {
			t.Errorf("status = %s", f.a.Status())
		}
		if !f.connector.last().closed() {
			t.Error("connection left open")
		}
	})

	t.Run("text turn", func(t *testing.T) {
		f := newFixture(t)
		f.connector.contentErr = errors.New("broken pipe")
		if err := f.a.Connect(context.Background()); err != nil {
			t.Fatal(err)
		}
		err := f.a.SendText("hello")
		var le *live.Error
		if !errors.As(err, &le) {
			t.Fatalf("SendText err = %v", err)
		}
		f.rec.waitState(t, StateIdle)
		if f.a.Status() != live.StatusDisconnected {
			t.Errorf("status = %s", f.a.Status())
		}
		if err := f.a.SendText("again"); !errors.Is(err, ErrNotConnected) {
			t.Errorf("second SendText err = %v", err)
		}
	})
}

func TestSetPersona(t *testing.T) {
	f := newFixture(t)
	if err := f.a.SetPersona("atlas"); err != nil {
		t.Fatal(err)
	}
	if err := f.a.SetPersona("nobody"); err == nil {
		t.Error("unknown persona accepted")
	}
	if err := f.a.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	if v := f.connector.configs[0].Voice; v != "Fenrir" {
		t.Errorf("voice = %q", v)
	}
}
