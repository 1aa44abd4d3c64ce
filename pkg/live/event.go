package live

import (
	"time"

	"google.golang.org/genai"
)

// EventType identifies an inbound event.
type EventType string

const (
	EventSetupComplete        EventType = "setup_complete"
	EventAudio                EventType = "audio"
	EventText                 EventType = "text"
	EventInterrupted          EventType = "interrupted"
	EventTurnComplete         EventType = "turn_complete"
	EventToolCall             EventType = "tool_call"
	EventToolCallCancellation EventType = "tool_call_cancellation"
	EventGoAway               EventType = "go_away"
)

// Event is one demultiplexed piece of a server message.
type Event struct {
	Type EventType

	// Audio is raw 16-bit little-endian PCM for EventAudio.
	Audio []byte
	// MIMEType is the audio MIME type, e.g. "audio/pcm;rate=24000".
	MIMEType string

	// Text is set for EventText.
	Text string

	// FunctionCalls is the batch for EventToolCall.
	FunctionCalls []*genai.FunctionCall

	// CancelledIDs lists call ids for EventToolCallCancellation.
	CancelledIDs []string

	// TimeLeft is set for EventGoAway.
	TimeLeft time.Duration
}

// splitMessage turns one server message into events in protocol order:
// setup, tool calls, model turn parts, interruption, turn completion, then
// go-away.
func splitMessage(msg *genai.LiveServerMessage) []*Event {
	var events []*Event
	if msg.SetupComplete != nil {
		events = append(events, &Event{Type: EventSetupComplete})
	}
	if tc := msg.ToolCall; tc != nil && len(tc.FunctionCalls) > 0 {
		events = append(events, &Event{Type: EventToolCall, FunctionCalls: tc.FunctionCalls})
	}
	if tcc := msg.ToolCallCancellation; tcc != nil && len(tcc.IDs) > 0 {
		events = append(events, &Event{Type: EventToolCallCancellation, CancelledIDs: tcc.IDs})
	}
	if sc := msg.ServerContent; sc != nil {
		if sc.ModelTurn != nil {
			for _, part := range sc.ModelTurn.Parts {
				if part == nil {
					continue
				}
				if part.InlineData != nil && len(part.InlineData.Data) > 0 {
					events = append(events, &Event{
						Type:     EventAudio,
						Audio:    part.InlineData.Data,
						MIMEType: part.InlineData.MIMEType,
					})
				}
				if part.Text != "" && !part.Thought {
					events = append(events, &Event{Type: EventText, Text: part.Text})
				}
			}
		}
		if sc.Interrupted {
			events = append(events, &Event{Type: EventInterrupted})
		}
		if sc.TurnComplete {
			events = append(events, &Event{Type: EventTurnComplete})
		}
	}
	if msg.GoAway != nil {
		events = append(events, &Event{Type: EventGoAway, TimeLeft: msg.GoAway.TimeLeft})
	}
	return events
}
