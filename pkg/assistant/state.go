package assistant

import (
	"sync"

	"github.com/haivivi/execlive/pkg/live"
)

// AgentState is the turn-taking state shown to the user.
type AgentState string

const (
	StateIdle      AgentState = "IDLE"
	StateListening AgentState = "LISTENING"
	StateThinking  AgentState = "THINKING"
	StateSpeaking  AgentState = "SPEAKING"
)

// Observer is notified of assistant changes. Callbacks run on the goroutine
// that made the change and must not block.
type Observer interface {
	OnAgentState(AgentState)
	OnStatus(live.Status)
	OnError(error)
}

// ObserverFuncs adapts functions to an Observer. Nil fields are skipped.
type ObserverFuncs struct {
	AgentState func(AgentState)
	Status     func(live.Status)
	Error      func(error)
}

func (o ObserverFuncs) OnAgentState(s AgentState) {
	if o.AgentState != nil {
		o.AgentState(s)
	}
}

func (o ObserverFuncs) OnStatus(s live.Status) {
	if o.Status != nil {
		o.Status(s)
	}
}

func (o ObserverFuncs) OnError(err error) {
	if o.Error != nil {
		o.Error(err)
	}
}

type observers struct {
	mu     sync.Mutex
	nextID int
	m      map[int]Observer
}

func (ob *observers) add(o Observer) func() {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	if ob.m == nil {
		ob.m = make(map[int]Observer)
	}
	id := ob.nextID
	ob.nextID++
	ob.m[id] = o
	return func() {
		ob.mu.Lock()
		delete(ob.m, id)
		ob.mu.Unlock()
	}
}

func (ob *observers) each(fn func(Observer)) {
	ob.mu.Lock()
	list := make([]Observer, 0, len(ob.m))
	for _, o := range ob.m {
		list = append(list, o)
	}
	ob.mu.Unlock()
	for _, o := range list {
		fn(o)
	}
}
