package tools

import (
	"math/rand/v2"
	"time"

	"github.com/haivivi/execlive/pkg/canvas"
)

// Environment is what handlers may touch besides their arguments.
type Environment interface {
	// Canvas is the application state store.
	Canvas() *canvas.Store
	// Screenshot captures the current camera frame as a data URL.
	Screenshot() (string, error)
	// Now is the wall clock in the user's time zone.
	Now() time.Time
	// Rand is the source for seeds and synthetic market data.
	Rand() *rand.Rand
	// Inbox is the mailbox searched by display_email. It is never empty.
	Inbox() []canvas.Email
	// Calendar is today's schedule.
	Calendar() []canvas.CalendarEvent
}

// Screenshotter captures camera stills. *media.Capture implements it.
type Screenshotter interface {
	Screenshot() (string, error)
}

// EnvOption configures an Env.
type EnvOption func(*Env)

// WithLocation sets the time zone reported to the model.
func WithLocation(loc *time.Location) EnvOption {
	return func(e *Env) { e.loc = loc }
}

// WithRand sets the random source.
func WithRand(r *rand.Rand) EnvOption {
	return func(e *Env) { e.rnd = r }
}

// WithNow sets the clock.
func WithNow(now func() time.Time) EnvOption {
	return func(e *Env) { e.now = now }
}

// WithInbox replaces the demo inbox. An empty inbox keeps the demo one.
func WithInbox(inbox []canvas.Email) EnvOption {
	return func(e *Env) {
		if len(inbox) > 0 {
			e.inbox = inbox
		}
	}
}

// WithCalendar replaces the demo calendar.
func WithCalendar(events []canvas.CalendarEvent) EnvOption {
	return func(e *Env) { e.calendar = events }
}

// Env is the default Environment.
type Env struct {
	store    *canvas.Store
	camera   Screenshotter
	now      func() time.Time
	loc      *time.Location
	rnd      *rand.Rand
	inbox    []canvas.Email
	calendar []canvas.CalendarEvent
}

var _ Environment = (*Env)(nil)

// NewEnv creates an Env over store. camera may be nil, in which case
// screenshots report a camera that is off.
func NewEnv(store *canvas.Store, camera Screenshotter, opts ...EnvOption) *Env {
	e := &Env{
		store:    store,
		camera:   camera,
		now:      time.Now,
		loc:      time.Local,
		rnd:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		inbox:    DemoInbox,
		calendar: DemoCalendar,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Env) Canvas() *canvas.Store { return e.store }
func (e *Env) Rand() *rand.Rand      { return e.rnd }

func (e *Env) Inbox() []canvas.Email            { return e.inbox }
func (e *Env) Calendar() []canvas.CalendarEvent { return e.calendar }

func (e *Env) Now() time.Time {
	return e.now().In(e.loc)
}

func (e *Env) Screenshot() (string, error) {
	if e.camera == nil {
		return "", errCameraInactive
	}
	return e.camera.Screenshot()
}
