package canvas

import (
	"encoding/json"
	"time"
)

// Variant tags the content kind of an Item. The set is closed; renderers
// switch on it to pick a card layout.
type Variant string

const (
	VariantEmail              Variant = "email"
	VariantEmailDraft         Variant = "email-draft"
	VariantCalendar           Variant = "calendar"
	VariantChart              Variant = "chart"
	VariantCode               Variant = "code"
	VariantImage              Variant = "image"
	VariantGeneratedImage     Variant = "generated-image"
	VariantNote               Variant = "note"
	VariantNoteSearchResults  Variant = "note-search-results"
	VariantWebSearch          Variant = "web-search"
	VariantFinancialTicker    Variant = "financial-ticker"
	VariantDossier            Variant = "dossier"
	VariantStrategyMemo       Variant = "strategy-memo"
	VariantSystemNotification Variant = "system-notification"
	VariantMemory             Variant = "memory"
)

var variants = map[Variant]struct{}{
	VariantEmail: {}, VariantEmailDraft: {}, VariantCalendar: {}, VariantChart: {},
	VariantCode: {}, VariantImage: {}, VariantGeneratedImage: {}, VariantNote: {},
	VariantNoteSearchResults: {}, VariantWebSearch: {}, VariantFinancialTicker: {},
	VariantDossier: {}, VariantStrategyMemo: {}, VariantSystemNotification: {},
	VariantMemory: {},
}

// Valid reports whether v belongs to the closed variant set.
func (v Variant) Valid() bool {
	_, ok := variants[v]
	return ok
}

// Millis is a time.Time that serializes to Unix milliseconds in JSON, the
// timestamp representation renderers expect.
type Millis time.Time

// Time returns the underlying time.Time value.
func (m Millis) Time() time.Time {
	return time.Time(m)
}

// IsZero reports whether m represents the zero time instant.
func (m Millis) IsZero() bool {
	return time.Time(m).IsZero()
}

// MarshalJSON implements json.Marshaler.
func (m Millis) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(m).UnixMilli())
}

// MarshalYAML renders the same Unix milliseconds for YAML output.
func (m Millis) MarshalYAML() (any, error) {
	return time.Time(m).UnixMilli(), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Millis) UnmarshalJSON(b []byte) error {
	var ms int64
	if err := json.Unmarshal(b, &ms); err != nil {
		return err
	}
	*m = Millis(time.UnixMilli(ms))
	return nil
}

// Item is one card on the canvas stack.
type Item struct {
	// ID is the tool-call id that produced the item, or a generated id for
	// items created locally.
	ID        string  `json:"id"`
	Variant   Variant `json:"type"`
	Title     string  `json:"title"`
	Content   any     `json:"content"`
	Timestamp Millis  `json:"timestamp"`
}

// Note is a user artifact kept for the process lifetime.
type Note struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	AttachmentURL string   `json:"attachmentUrl,omitempty"`
	Tags          []string `json:"tags"`
	Timestamp     Millis   `json:"timestamp"`
}
