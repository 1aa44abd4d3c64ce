package canvas

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ChangeKind identifies which part of the store changed.
type ChangeKind int

const (
	ChangeItems ChangeKind = iota + 1
	ChangeNotes
	ChangeNotesView
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeItems:
		return "items"
	case ChangeNotes:
		return "notes"
	case ChangeNotesView:
		return "notes_view"
	}
	return "unknown"
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the time source used to stamp items and notes.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Store holds the canvas item stack and the notes collection.
//
// Items and notes are kept most-recent-first. Writers are the tool
// dispatcher and user actions; readers (renderers, the canvas feed) get
// copies.
type Store struct {
	now func() time.Time

	mu           sync.RWMutex
	items        []Item
	notes        []Note
	notesVisible bool

	subMu  sync.Mutex
	nextID int
	subs   map[int]func(ChangeKind)
}

// NewStore creates an empty Store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		now:  time.Now,
		subs: make(map[int]func(ChangeKind)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the store's current time.
func (s *Store) Now() time.Time {
	return s.now()
}

// Push prepends item to the stack. A zero timestamp is set to now and an
// empty id gets a random one. The stored item is returned.
func (s *Store) Push(item Item) Item {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.Timestamp.IsZero() {
		item.Timestamp = Millis(s.now())
	}
	s.mu.Lock()
	s.items = slices.Insert(s.items, 0, item)
	s.mu.Unlock()
	s.notify(ChangeItems)
	return item
}

// Remove deletes the first item with the given id.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	i := slices.IndexFunc(s.items, func(it Item) bool { return it.ID == id })
	if i >= 0 {
		s.items = slices.Delete(s.items, i, i+1)
	}
	s.mu.Unlock()
	if i < 0 {
		return false
	}
	s.notify(ChangeItems)
	return true
}

// RemoveVariant deletes every item of the given variant and returns how many
// were removed.
func (s *Store) RemoveVariant(v Variant) int {
	s.mu.Lock()
	n := len(s.items)
	s.items = slices.DeleteFunc(s.items, func(it Item) bool { return it.Variant == v })
	n -= len(s.items)
	s.mu.Unlock()
	if n > 0 {
		s.notify(ChangeItems)
	}
	return n
}

// Items returns a copy of the stack, most recent first.
func (s *Store) Items() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

// AddNote prepends a note. A zero timestamp is set to now and nil tags
// become an empty set.
func (s *Store) AddNote(n Note) Note {
	if n.Timestamp.IsZero() {
		n.Timestamp = Millis(s.now())
	}
	if n.Tags == nil {
		n.Tags = []string{}
	}
	s.mu.Lock()
	s.notes = slices.Insert(s.notes, 0, n)
	s.mu.Unlock()
	s.notify(ChangeNotes)
	return n
}

// Notes returns a copy of all notes, most recent first.
func (s *Store) Notes() []Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.notes)
}

// FindNotesByTag returns the notes carrying tag. Tags match exactly,
// ignoring case.
func (s *Store) FindNotesByTag(tag string) []Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	found := []Note{}
	for _, n := range s.notes {
		if slices.ContainsFunc(n.Tags, func(t string) bool { return strings.EqualFold(t, tag) }) {
			found = append(found, n)
		}
	}
	return found
}

// SetNotesVisible shows or hides the full notes view.
func (s *Store) SetNotesVisible(v bool) {
	s.mu.Lock()
	changed := s.notesVisible != v
	s.notesVisible = v
	s.mu.Unlock()
	if changed {
		s.notify(ChangeNotesView)
	}
}

// NotesVisible reports whether the full notes view is shown.
func (s *Store) NotesVisible() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.notesVisible
}

// Subscribe registers fn to be called after every change. The returned
// function unregisters it. fn runs on the writer's goroutine and must not
// block.
func (s *Store) Subscribe(fn func(ChangeKind)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()
	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify(k ChangeKind) {
	s.subMu.Lock()
	fns := make([]func(ChangeKind), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn(k)
	}
}
