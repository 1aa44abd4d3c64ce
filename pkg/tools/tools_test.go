package tools

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"google.golang.org/genai"

	"github.com/haivivi/execlive/pkg/canvas"
	"github.com/haivivi/execlive/pkg/media"
)

type fakeCamera struct {
	url string
	err error
}

func (c *fakeCamera) Screenshot() (string, error) { return c.url, c.err }

var testNow = time.Date(2026, time.October, 17, 14, 5, 0, 0, time.UTC)

func newTestEnv(camera Screenshotter, opts ...EnvOption) (*Env, *canvas.Store) {
	store := canvas.NewStore(canvas.WithClock(func() time.Time { return testNow }))
	opts = append([]EnvOption{
		WithNow(func() time.Time { return testNow }),
		WithLocation(time.UTC),
		WithRand(rand.New(rand.NewPCG(1, 2))),
	}, opts...)
	return NewEnv(store, camera, opts...), store
}

func TestCatalog(t *testing.T) {
	want := []string{
		"display_email", "draft_email", "send_email", "display_calendar",
		"schedule_event", "generate_code", "create_image", "take_screenshot",
		"search_folders", "create_note", "find_notes_by_tag", "display_notes",
		"visualize_data", "display_web_results", "get_market_data",
		"create_dossier", "create_strategy_memo",
	}
	cat := Catalog()
	if len(cat) != len(want) {
		t.Fatalf("catalog has %d tools, want %d", len(cat), len(want))
	}
	for i, name := range want {
		if cat[i].Name() != name {
			t.Errorf("tool %d = %s, want %s", i, cat[i].Name(), name)
		}
	}
}

func TestDeclarations(t *testing.T) {
	env, _ := newTestEnv(nil)
	decls := NewDispatcher(env).Declarations()
	byName := map[string]*genai.FunctionDeclaration{}
	for _, d := range decls {
		byName[d.Name] = d
	}

	note := byName["create_note"].Parameters
	if note.Type != genai.TypeObject {
		t.Fatalf("create_note type = %s", note.Type)
	}
	if got := strings.Join(note.Required, ","); got != "title,content" {
		t.Errorf("create_note required = %s", got)
	}
	tags := note.Properties["tags"]
	if tags.Type != genai.TypeArray || tags.Items.Type != genai.TypeString {
		t.Errorf("tags = %+v", tags)
	}
	if !strings.HasPrefix(tags.Description, "Optional: Tags") {
		t.Errorf("tags description = %q", tags.Description)
	}

	values := byName["visualize_data"].Parameters.Properties["values"]
	if values.Items.Type != genai.TypeNumber {
		t.Errorf("values items = %s", values.Items.Type)
	}
	memo := byName["create_strategy_memo"].Parameters.Properties["actionItems"]
	if memo.Items.Type != genai.TypeObject || memo.Items.Properties["dueDate"] == nil {
		t.Errorf("actionItems = %+v", memo.Items)
	}
	if len(byName["display_calendar"].Parameters.Required) != 0 {
		t.Error("display_calendar takes no required arguments")
	}
}

func TestNoteBatch(t *testing.T) {
	env, store := newTestEnv(nil)
	d := NewDispatcher(env)

	resps := d.Dispatch(context.Background(), []*genai.FunctionCall{
		{ID: "1", Name: "create_note", Args: map[string]any{"title": "Idea", "content": "Ship it", "tags": []any{"ideas"}}},
		{ID: "2", Name: "find_notes_by_tag", Args: map[string]any{"tag": "ideas"}},
	})
	if len(resps) != 2 {
		t.Fatalf("got %d responses", len(resps))
	}
	if resps[0].ID != "1" || resps[1].ID != "2" || resps[1].Name != "find_notes_by_tag" {
		t.Errorf("responses out of order: %s, %s", resps[0].ID, resps[1].ID)
	}

	notes := store.Notes()
	if len(notes) != 1 || notes[0].Title != "Idea" {
		t.Fatalf("notes = %+v", notes)
	}
	found, ok := resps[1].Response["notes"].([]canvas.Note)
	if !ok || len(found) != 1 || found[0].ID != "1" {
		t.Fatalf("found = %#v", resps[1].Response["notes"])
	}
	if got := resps[1].Response["result"]; got != "Found 1 notes tagged with 'ideas'." {
		t.Errorf("result = %v", got)
	}

	items := store.Items()
	if len(items) != 2 {
		t.Fatalf("got %d items", len(items))
	}
	if items[0].Variant != canvas.VariantNoteSearchResults || items[1].Variant != canvas.VariantNote {
		t.Errorf("items = %s, %s", items[0].Variant, items[1].Variant)
	}
}

func TestFindNotesByTagExact(t *testing.T) {
	env, store := newTestEnv(nil)
	store.AddNote(canvas.Note{ID: "a", Tags: []string{"strategy"}})
	store.AddNote(canvas.Note{ID: "b", Tags: []string{"strategic"}})

	resp := NewDispatcher(env).Call(context.Background(), &Call{ID: "x", Name: "find_notes_by_tag", Args: map[string]any{"tag": "Strategy"}})
	found := resp["notes"].([]canvas.Note)
	if len(found) != 1 || found[0].ID != "a" {
		t.Errorf("found = %+v", found)
	}
}

func TestTakeScreenshot(t *testing.T) {
	t.Run("camera off", func(t *testing.T) {
		env, store := newTestEnv(&fakeCamera{err: media.ErrCameraOff})
		resp := NewDispatcher(env).Call(context.Background(), &Call{ID: "s", Name: "take_screenshot", Args: map[string]any{"caption": "desk"}})
		if resp["error"] != true {
			t.Fatalf("resp = %v", resp)
		}
		msg := resp["message"].(string)
		if !strings.Contains(msg, "Camera is not active") {
			t.Errorf("message = %q", msg)
		}
		if resp["hint"] != errorHint {
			t.Errorf("hint = %v", resp["hint"])
		}
		for _, it := range store.Items() {
			if it.Variant == canvas.VariantImage {
				t.Error("image card pushed with camera off")
			}
		}
		items := store.Items()
		if len(items) != 1 || items[0].Variant != canvas.VariantSystemNotification {
			t.Fatalf("items = %+v", items)
		}
		n := items[0].Content.(canvas.Notification)
		if n.Message != "Failed to execute take screenshot" || n.Level != canvas.LevelError {
			t.Errorf("notification = %+v", n)
		}
	})

	t.Run("no camera", func(t *testing.T) {
		env, _ := newTestEnv(nil)
		resp := NewDispatcher(env).Call(context.Background(), &Call{ID: "s", Name: "take_screenshot", Args: map[string]any{"caption": "x"}})
		if !strings.Contains(resp["message"].(string), "Camera is not active") {
			t.Errorf("resp = %v", resp)
		}
	})

	t.Run("frame not ready", func(t *testing.T) {
		env, _ := newTestEnv(&fakeCamera{err: media.ErrFrameNotReady})
		resp := NewDispatcher(env).Call(context.Background(), &Call{ID: "s", Name: "take_screenshot", Args: map[string]any{"caption": "x"}})
		if !strings.HasSuffix(resp["message"].(string), "Video stream not ready.") {
			t.Errorf("resp = %v", resp)
		}
	})

	t.Run("captured", func(t *testing.T) {
		env, store := newTestEnv(&fakeCamera{url: "data:image/jpeg;base64,AAAA"})
		resp := NewDispatcher(env).Call(context.Background(), &Call{ID: "s", Name: "take_screenshot", Args: map[string]any{"caption": "whiteboard"}})
		if resp["result"] != "Screenshot captured" || resp["imageUrl"] != "data:image/jpeg;base64,AAAA" {
			t.Fatalf("resp = %v", resp)
		}
		it := store.Items()[0]
		if it.Variant != canvas.VariantImage || it.Title != "whiteboard" || it.ID != "s" {
			t.Errorf("item = %+v", it)
		}
	})
}

func TestDisplayCalendar(t *testing.T) {
	tests := []struct {
		name   string
		events []canvas.CalendarEvent
		want   int
	}{
		{"demo", DemoCalendar, 4},
		{"empty", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, store := newTestEnv(nil, WithCalendar(tt.events))
			resp := NewDispatcher(env).Call(context.Background(), &Call{ID: "c", Name: "display_calendar"})
			for _, key := range []string{"current_date", "current_time", "time_zone", "events"} {
				if _, ok := resp[key]; !ok {
					t.Errorf("missing %s", key)
				}
			}
			if got := resp["current_date"]; got != "Saturday, October 17, 2026" {
				t.Errorf("current_date = %v", got)
			}
			if got := resp["current_time"]; got != "02:05 PM" {
				t.Errorf("current_time = %v", got)
			}
			if got := resp["time_zone"]; got != "UTC" {
				t.Errorf("time_zone = %v", got)
			}
			if got := len(resp["events"].([]canvas.CalendarEvent)); got != tt.want {
				t.Errorf("events = %d, want %d", got, tt.want)
			}
			if store.Items()[0].Title != "Today's Schedule" {
				t.Errorf("title = %q", store.Items()[0].Title)
			}
		})
	}
}

func TestHandlerErrorDoesNotAbortBatch(t *testing.T) {
	env, store := newTestEnv(nil)
	resps := NewDispatcher(env).Dispatch(context.Background(), []*genai.FunctionCall{
		{ID: "g", Name: "generate_code", Args: map[string]any{"language": "go", "description": "hello"}},
		{ID: "m", Name: "send_email", Args: map[string]any{"recipient": "Sarah", "subject": "Hi", "body": "Hello"}},
	})
	if resps[0].Response["error"] != true {
		t.Errorf("generate_code without code should fail: %v", resps[0].Response)
	}
	if got := resps[1].Response["result"]; got != "Email sent successfully to Sarah." {
		t.Errorf("send_email = %v", got)
	}
	for _, it := range store.Items() {
		if it.Variant == canvas.VariantCode {
			t.Error("code card pushed for invalid call")
		}
	}
	var arg *ArgumentError
	_, err := Catalog()[5].Invoke(context.Background(), env, &Call{Name: "generate_code", Args: map[string]any{"language": "go"}})
	if !errors.As(err, &arg) || arg.Tool != "generate_code" {
		t.Errorf("err = %v", err)
	}
}

func TestUnknownTool(t *testing.T) {
	env, store := newTestEnv(nil)
	resp := NewDispatcher(env).Call(context.Background(), &Call{ID: "u", Name: "launch_rocket"})
	if resp["result"] != "Tool executed (fallback response)." {
		t.Errorf("resp = %v", resp)
	}
	if len(store.Items()) != 0 {
		t.Error("unknown tool must not touch the canvas")
	}
}

func TestHandlers(t *testing.T) {
	tests := []struct {
		name    string
		args    map[string]any
		result  string
		variant canvas.Variant
		title   string
	}{
		{"display_email", map[string]any{"query": "skynet"}, "Displayed email from Sarah Connor.", canvas.VariantEmail, "Project Skynet"},
		{"display_email", map[string]any{"query": "nobody"}, "Displayed email from Elon M..", canvas.VariantEmail, "Re: Starship Updates"},
		{"draft_email", map[string]any{"recipient": "a", "subject": "b", "body": "c"}, "Draft displayed on canvas. Ask user for confirmation to send.", canvas.VariantEmailDraft, "Drafting Email..."},
		{"schedule_event", map[string]any{"title": "Sync", "time": "3 PM"}, "Scheduled Sync at 3 PM", canvas.VariantCalendar, "Event Scheduled"},
		{"generate_code", map[string]any{"language": "go", "code": "package main", "description": "Main"}, "Code displayed", canvas.VariantCode, "Main"},
		{"create_image", map[string]any{"prompt": "a red fox"}, "Image generated and displayed on canvas.", canvas.VariantGeneratedImage, "Generated Image"},
		{"search_folders", map[string]any{"filename": "Q4.pdf"}, "Found file Q4.pdf", canvas.VariantMemory, "File Found"},
		{"visualize_data", map[string]any{"title": "Revenue", "labels": []any{"Q1", "Q2"}, "values": []any{1.5, 2.0}}, "Chart created", canvas.VariantChart, "Revenue"},
		{"display_web_results", map[string]any{"query": "go", "results": []any{map[string]any{"title": "Go", "url": "https://go.dev"}}}, "Web results displayed", canvas.VariantWebSearch, "Results: go"},
		{"get_market_data", map[string]any{"ticker": "nvda"}, "Displayed market data for nvda", canvas.VariantFinancialTicker, "Market Pulse: NVDA"},
		{"create_dossier", map[string]any{"name": "Ada", "role": "CEO", "company": "X", "recentNews": []any{}, "lastInteraction": "none"}, "Dossier created and displayed.", canvas.VariantDossier, "Dossier: Ada"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, store := newTestEnv(nil)
			resp := NewDispatcher(env).Call(context.Background(), &Call{ID: "id-" + tt.name, Name: tt.name, Args: tt.args})
			if resp["result"] != tt.result {
				t.Fatalf("result = %v (resp %v)", resp["result"], resp)
			}
			items := store.Items()
			if len(items) != 1 {
				t.Fatalf("got %d items", len(items))
			}
			if items[0].Variant != tt.variant || items[0].Title != tt.title || items[0].ID != "id-"+tt.name {
				t.Errorf("item = %+v", items[0])
			}
		})
	}
}

func TestScheduleEventParticipants(t *testing.T) {
	env, store := newTestEnv(nil)
	NewDispatcher(env).Call(context.Background(), &Call{ID: "e", Name: "schedule_event", Args: map[string]any{"title": "Sync", "time": "3 PM"}})
	events := store.Items()[0].Content.([]canvas.CalendarEvent)
	if len(events) != len(DemoCalendar)+1 {
		t.Fatalf("events = %d", len(events))
	}
	last := events[len(events)-1]
	if last.Location != "TBD" || len(last.Participants) != 1 || last.Participants[0] != "User" {
		t.Errorf("event = %+v", last)
	}
	if len(DemoCalendar) != 4 {
		t.Error("demo calendar mutated")
	}
}

func TestCreateImageURL(t *testing.T) {
	env, store := newTestEnv(nil)
	NewDispatcher(env).Call(context.Background(), &Call{ID: "i", Name: "create_image", Args: map[string]any{"prompt": "a red fox/at dawn"}})
	img := store.Items()[0].Content.(canvas.Image)
	if !strings.HasPrefix(img.URL, "https://image.pollinations.ai/prompt/a%20red%20fox%2Fat%20dawn?width=1024&height=1024&seed=") {
		t.Errorf("url = %s", img.URL)
	}
	if !strings.HasSuffix(img.URL, "&nologo=true") {
		t.Errorf("url = %s", img.URL)
	}
}

func TestDisplayNotes(t *testing.T) {
	env, store := newTestEnv(nil)
	resp := NewDispatcher(env).Call(context.Background(), &Call{ID: "n", Name: "display_notes"})
	if resp["result"] != "Opened notes view." || !store.NotesVisible() {
		t.Errorf("resp = %v, visible = %v", resp, store.NotesVisible())
	}
}

func TestStrategyMemo(t *testing.T) {
	env, store := newTestEnv(nil)
	resp := NewDispatcher(env).Call(context.Background(), &Call{ID: "42", Name: "create_strategy_memo", Args: map[string]any{
		"title":     "Board Debrief",
		"risks":     []any{"Supply chain"},
		"decisions": []any{"Expand to EU", "Hire CFO"},
		"actionItems": []any{
			map[string]any{"task": "Draft plan", "assignee": "Alice", "dueDate": "Friday"},
		},
	}})
	if resp["result"] != "Strategy memo created and saved." {
		t.Fatalf("resp = %v", resp)
	}
	notes := store.Notes()
	if len(notes) != 1 {
		t.Fatalf("notes = %d", len(notes))
	}
	n := notes[0]
	if n.ID != "memo-42" || strings.Join(n.Tags, ",") != "strategy,meeting-notes" {
		t.Errorf("note = %+v", n)
	}
	want := "STRATEGY MEMO: Board Debrief\n\nRISKS:\n- Supply chain\n\nDECISIONS:\n- Expand to EU\n- Hire CFO\n\nACTION ITEMS:\n- [ ] Draft plan (Alice) due Friday"
	if n.Content != want {
		t.Errorf("content =\n%s\nwant\n%s", n.Content, want)
	}
	memo := store.Items()[0].Content.(canvas.StrategyMemo)
	if memo.Date != "Saturday, October 17, 2026" {
		t.Errorf("date = %s", memo.Date)
	}
}

func TestMarketSnapshot(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 7))
	for range 50 {
		m := MarketSnapshot("tsla", r)
		if m.Ticker != "TSLA" || m.CompanyName != "Tesla, Inc." {
			t.Fatalf("snapshot = %+v", m)
		}
		if m.Price < 50 || m.Price > 1050 {
			t.Errorf("price = %v", m.Price)
		}
		if m.ChangePercent < -4 || m.ChangePercent > 6 {
			t.Errorf("change = %v", m.ChangePercent)
		}
		if len(m.History) != 20 {
			t.Errorf("history = %d", len(m.History))
		}
		if !strings.HasSuffix(m.Volume, "M") || !strings.HasSuffix(m.MarketCap, "T") {
			t.Errorf("volume/cap = %s/%s", m.Volume, m.MarketCap)
		}
	}
	if got := MarketSnapshot("aapl", r).CompanyName; got != "AAPL Corp" {
		t.Errorf("company = %s", got)
	}
}

func TestParseArgs(t *testing.T) {
	args, err := ParseArgs(`{"title": "Idea", "tags": ["a", "b"],}`)
	if err != nil {
		t.Fatal(err)
	}
	if args["title"] != "Idea" || len(args["tags"].([]any)) != 2 {
		t.Errorf("args = %v", args)
	}
	if args, err := ParseArgs(""); err != nil || len(args) != 0 {
		t.Errorf("empty = %v, %v", args, err)
	}
}

func TestActionText(t *testing.T) {
	store := canvas.NewStore()
	store.Push(canvas.Item{ID: "d1", Variant: canvas.VariantEmailDraft})
	store.Push(canvas.Item{ID: "e1", Variant: canvas.VariantEmail})

	tests := []struct {
		action Action
		data   map[string]any
		want   string
	}{
		{ActionReply, map[string]any{"from": "Elon M."}, "Draft a reply to this email from Elon M.."},
		{ActionSendDraft, map[string]any{"recipient": "Sarah", "body": "See you"}, "The draft is approved. Send the email to Sarah with the following body:\n\"See you\""},
		{ActionArchive, nil, "Archive this email."},
		{ActionDiscardDraft, nil, "I've discarded the draft email."},
	}
	for _, tt := range tests {
		got, err := ActionText(store, tt.action, tt.data)
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("%s = %q, want %q", tt.action, got, tt.want)
		}
	}
	items := store.Items()
	if len(items) != 1 || items[0].ID != "e1" {
		t.Errorf("items after discard = %+v", items)
	}
	if _, err := ActionText(store, "explode", nil); !errors.Is(err, ErrUnknownAction) {
		t.Errorf("unknown action = %v", err)
	}
}
