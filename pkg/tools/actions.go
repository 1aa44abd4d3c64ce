package tools

import (
	"errors"
	"fmt"

	"github.com/haivivi/execlive/pkg/canvas"
)

// Action is a user interaction on a canvas card.
type Action string

const (
	ActionReply        Action = "reply"
	ActionSendDraft    Action = "send_draft"
	ActionDiscardDraft Action = "discard_draft"
	ActionArchive      Action = "archive"
)

// ErrUnknownAction is returned for actions outside the closed set.
var ErrUnknownAction = errors.New("tools: unknown canvas action")

// ActionText applies the local effect of a canvas action and returns the
// text turn that tells the model about it. discard_draft removes every
// draft card from store before returning.
func ActionText(store *canvas.Store, action Action, data map[string]any) (string, error) {
	switch action {
	case ActionReply:
		return fmt.Sprintf("Draft a reply to this email from %s.", str(data, "from")), nil
	case ActionSendDraft:
		return fmt.Sprintf("The draft is approved. Send the email to %s with the following body:\n\"%s\"",
			str(data, "recipient"), str(data, "body")), nil
	case ActionDiscardDraft:
		store.RemoveVariant(canvas.VariantEmailDraft)
		return "I've discarded the draft email.", nil
	case ActionArchive:
		return "Archive this email.", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
}

func str(data map[string]any, key string) string {
	v, ok := data[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
