package tools

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/haivivi/execlive/pkg/canvas"
	"github.com/haivivi/execlive/pkg/media"
)

var (
	errCameraInactive = errors.New("Camera is not active. Please ask the user to turn on the camera first.")
	errVideoNotReady  = errors.New("Video stream not ready.")
)

type displayEmailArgs struct {
	Query string `json:"query" jsonschema:"The sender name or subject keyword"`
}

type draftEmailArgs struct {
	Recipient string `json:"recipient" jsonschema:"Who the email is for"`
	Subject   string `json:"subject" jsonschema:"The subject line"`
	Body      string `json:"body" jsonschema:"The email content"`
}

type sendEmailArgs struct {
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
}

type noArgs struct{}

type scheduleEventArgs struct {
	Title        string `json:"title"`
	Time         string `json:"time"`
	Participants string `json:"participants,omitempty"`
}

type generateCodeArgs struct {
	Language    string `json:"language"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

type createImageArgs struct {
	Prompt string `json:"prompt" jsonschema:"A descriptive prompt for the image generation."`
	Style  string `json:"style,omitempty" jsonschema:"The style (e.g., photorealistic, anime, oil painting)"`
}

type takeScreenshotArgs struct {
	Caption string `json:"caption" jsonschema:"A caption for the image based on what you see."`
}

type searchFoldersArgs struct {
	Filename string `json:"filename" jsonschema:"The name or topic of the file to search for."`
}

type createNoteArgs struct {
	Title         string   `json:"title" jsonschema:"A short title for the note"`
	Content       string   `json:"content" jsonschema:"The main body text of the note"`
	AttachmentURL string   `json:"attachmentUrl,omitempty" jsonschema:"Optional: The data URL of a screenshot if this is a visual note."`
	Tags          []string `json:"tags,omitempty" jsonschema:"Optional: Tags for organizing the note (e.g., 'meeting', 'idea', 'finance')."`
}

type findNotesByTagArgs struct {
	Tag string `json:"tag" jsonschema:"The tag to search for."`
}

type visualizeDataArgs struct {
	Title   string    `json:"title" jsonschema:"Title of the chart"`
	Labels  []string  `json:"labels" jsonschema:"Labels for the X-axis"`
	Values  []float64 `json:"values" jsonschema:"Numerical values for the Y-axis"`
	Summary string    `json:"summary,omitempty" jsonschema:"A brief insight about the data"`
}

type webResult struct {
	Title   string `json:"title,omitempty"`
	URL     string `json:"url,omitempty"`
	Snippet string `json:"snippet,omitempty"`
}

type displayWebResultsArgs struct {
	Query   string      `json:"query"`
	Results []webResult `json:"results"`
}

type marketDataArgs struct {
	Ticker string `json:"ticker" jsonschema:"The stock ticker symbol."`
}

type newsItem struct {
	Title  string `json:"title,omitempty"`
	Source string `json:"source,omitempty"`
	Date   string `json:"date,omitempty"`
}

type createDossierArgs struct {
	Name            string     `json:"name" jsonschema:"Name of the person or company"`
	Role            string     `json:"role" jsonschema:"Their current title/role"`
	Company         string     `json:"company" jsonschema:"The company they are associated with"`
	RecentNews      []newsItem `json:"recentNews" jsonschema:"3-4 recent news headlines found via search."`
	LastInteraction string     `json:"lastInteraction" jsonschema:"A summary of the last interaction from user notes."`
}

type actionItem struct {
	Task     string `json:"task,omitempty"`
	Assignee string `json:"assignee,omitempty"`
	DueDate  string `json:"dueDate,omitempty"`
}

type strategyMemoArgs struct {
	Title       string       `json:"title" jsonschema:"Title of the memo (e.g., 'Board Meeting Debrief')"`
	Risks       []string     `json:"risks" jsonschema:"Key risks identified"`
	Decisions   []string     `json:"decisions" jsonschema:"Decisions made"`
	ActionItems []actionItem `json:"actionItems" jsonschema:"Actionable tasks with owners and dates"`
}

var catalog = []Tool{
	MustNewTool("display_email",
		"Search for and display a specific email on the user's canvas.",
		displayEmail),
	MustNewTool("draft_email",
		"Draft a new email for the user. Display the draft on canvas for review.",
		draftEmail),
	MustNewTool("send_email",
		"Send an email. Use this after drafting or if the user explicitly confirms sending.",
		sendEmail),
	MustNewTool("display_calendar",
		"Display the user's calendar schedule for today.",
		displayCalendar),
	MustNewTool("schedule_event",
		"Schedule a new event on the user's calendar and display the confirmation.",
		scheduleEvent),
	MustNewTool("generate_code",
		"Write and display code snippets on the canvas.",
		generateCode),
	MustNewTool("create_image",
		"Generate an image based on a prompt and display it to the user.",
		createImage),
	MustNewTool("take_screenshot",
		"Take a screenshot of what is currently visible on the camera. Returns the image data.",
		takeScreenshot),
	MustNewTool("search_folders",
		"Search through user files/folders for a specific document.",
		searchFolders),
	MustNewTool("create_note",
		"Create a sticky note or save a visual note. Use this to persist information for the executive.",
		createNote),
	MustNewTool("find_notes_by_tag",
		"Retrieve all notes that match a specific tag.",
		findNotesByTag),
	MustNewTool("display_notes",
		"Open the full-screen view of all saved notes.",
		displayNotes),
	MustNewTool("visualize_data",
		"Create a bar chart to visualize data points.",
		visualizeData),
	MustNewTool("display_web_results",
		"Display a list of web search results on the canvas. Use this after finding information to show sources.",
		displayWebResults),
	MustNewTool("get_market_data",
		"Get real-time market data for a specific stock ticker (e.g., TSLA, AAPL, BTC). Displays a Financial Card.",
		getMarketData),
	MustNewTool("create_dossier",
		"Create and display a comprehensive intelligence dossier on a person or company. Use this before meetings.",
		createDossier),
	MustNewTool("create_strategy_memo",
		"Create a structured post-meeting strategy memo. Analyzes raw thoughts into Risks, Decisions, and Action Items.",
		createStrategyMemo),
}

// Catalog returns the built-in tools in declaration order.
func Catalog() []Tool {
	return slices.Clone(catalog)
}

func push(env Environment, call *Call, v canvas.Variant, title string, content any) {
	env.Canvas().Push(canvas.Item{ID: call.ID, Variant: v, Title: title, Content: content})
}

func result(s string) Response {
	return Response{"result": s}
}

// longDate formats like "Friday, October 17, 2026".
func longDate(env Environment) string {
	return env.Now().Format("Monday, January 2, 2006")
}

func displayEmail(_ context.Context, env Environment, call *Call, args displayEmailArgs) (Response, error) {
	email := findEmail(env.Inbox(), args.Query)
	push(env, call, canvas.VariantEmail, email.Subject, email)
	return Response{
		"result": fmt.Sprintf("Displayed email from %s.", email.From),
		"email_content": map[string]any{
			"from":    email.From,
			"subject": email.Subject,
			"body":    email.Body,
			"date":    "Today, 10:42 AM",
		},
	}, nil
}

func draftEmail(_ context.Context, env Environment, call *Call, args draftEmailArgs) (Response, error) {
	push(env, call, canvas.VariantEmailDraft, "Drafting Email...", canvas.EmailDraft{
		Recipient: args.Recipient,
		Subject:   args.Subject,
		Body:      args.Body,
	})
	return result("Draft displayed on canvas. Ask user for confirmation to send."), nil
}

func sendEmail(_ context.Context, _ Environment, _ *Call, args sendEmailArgs) (Response, error) {
	return result(fmt.Sprintf("Email sent successfully to %s.", args.Recipient)), nil
}

func displayCalendar(_ context.Context, env Environment, call *Call, _ noArgs) (Response, error) {
	events := slices.Clone(env.Calendar())
	if events == nil {
		events = []canvas.CalendarEvent{}
	}
	push(env, call, canvas.VariantCalendar, "Today's Schedule", events)

	now := env.Now()
	return Response{
		"result":       "Calendar displayed.",
		"current_date": longDate(env),
		"current_time": now.Format("03:04 PM"),
		"time_zone":    zoneName(now),
		"events":       events,
	}, nil
}

func scheduleEvent(_ context.Context, env Environment, call *Call, args scheduleEventArgs) (Response, error) {
	participant := args.Participants
	if participant == "" {
		participant = "User"
	}
	events := append(slices.Clone(env.Calendar()), canvas.CalendarEvent{
		Title:        args.Title,
		Time:         args.Time,
		Location:     "TBD",
		Participants: []string{participant},
	})
	push(env, call, canvas.VariantCalendar, "Event Scheduled", events)
	return result(fmt.Sprintf("Scheduled %s at %s", args.Title, args.Time)), nil
}

func generateCode(_ context.Context, env Environment, call *Call, args generateCodeArgs) (Response, error) {
	push(env, call, canvas.VariantCode, args.Description, canvas.Code{Code: args.Code, Language: args.Language})
	return result("Code displayed"), nil
}

// imageURL builds a pollinations.ai image URL for prompt.
func imageURL(prompt string, seed int) string {
	return fmt.Sprintf("https://image.pollinations.ai/prompt/%s?width=1024&height=1024&seed=%d&nologo=true",
		url.PathEscape(prompt), seed)
}

func createImage(_ context.Context, env Environment, call *Call, args createImageArgs) (Response, error) {
	u := imageURL(args.Prompt, env.Rand().IntN(1000))
	push(env, call, canvas.VariantGeneratedImage, "Generated Image", canvas.Image{URL: u, Prompt: args.Prompt})
	return result("Image generated and displayed on canvas."), nil
}

func takeScreenshot(_ context.Context, env Environment, call *Call, args takeScreenshotArgs) (Response, error) {
	dataURL, err := env.Screenshot()
	switch {
	case errors.Is(err, media.ErrCameraOff):
		return nil, errCameraInactive
	case errors.Is(err, media.ErrFrameNotReady):
		return nil, errVideoNotReady
	case err != nil:
		return nil, err
	}
	title := args.Caption
	if title == "" {
		title = "Screenshot"
	}
	push(env, call, canvas.VariantImage, title, canvas.Image{URL: dataURL, Caption: args.Caption})
	return Response{"result": "Screenshot captured", "imageUrl": dataURL}, nil
}

func searchFolders(_ context.Context, env Environment, call *Call, args searchFoldersArgs) (Response, error) {
	push(env, call, canvas.VariantMemory, "File Found", canvas.Memory{
		Text: fmt.Sprintf("Found %s in /Documents/Work", args.Filename),
	})
	return result(fmt.Sprintf("Found file %s", args.Filename)), nil
}

func createNote(_ context.Context, env Environment, call *Call, args createNoteArgs) (Response, error) {
	note := env.Canvas().AddNote(canvas.Note{
		ID:            call.ID,
		Title:         args.Title,
		Content:       args.Content,
		AttachmentURL: args.AttachmentURL,
		Tags:          args.Tags,
	})
	push(env, call, canvas.VariantNote, args.Title, canvas.NoteCard{Content: note.Content, Tags: note.Tags})
	return result("Note created and saved to your Notes."), nil
}

func findNotesByTag(_ context.Context, env Environment, call *Call, args findNotesByTagArgs) (Response, error) {
	found := env.Canvas().FindNotesByTag(args.Tag)
	push(env, call, canvas.VariantNoteSearchResults, "Notes: #"+args.Tag, canvas.NoteSearchResults{
		Tag:   args.Tag,
		Notes: found,
	})
	return Response{
		"result": fmt.Sprintf("Found %d notes tagged with '%s'.", len(found), args.Tag),
		"notes":  found,
	}, nil
}

func displayNotes(_ context.Context, env Environment, _ *Call, _ noArgs) (Response, error) {
	env.Canvas().SetNotesVisible(true)
	return result("Opened notes view."), nil
}

func visualizeData(_ context.Context, env Environment, call *Call, args visualizeDataArgs) (Response, error) {
	if len(args.Labels) != len(args.Values) {
		return nil, fmt.Errorf("got %d labels for %d values", len(args.Labels), len(args.Values))
	}
	push(env, call, canvas.VariantChart, args.Title, canvas.Chart{
		Labels:  args.Labels,
		Values:  args.Values,
		Summary: args.Summary,
	})
	return result("Chart created"), nil
}

func displayWebResults(_ context.Context, env Environment, call *Call, args displayWebResultsArgs) (Response, error) {
	results := make([]canvas.WebResult, len(args.Results))
	for i, r := range args.Results {
		results[i] = canvas.WebResult(r)
	}
	push(env, call, canvas.VariantWebSearch, "Results: "+args.Query, canvas.WebSearch{
		Query:   args.Query,
		Results: results,
	})
	return result("Web results displayed"), nil
}

func getMarketData(_ context.Context, env Environment, call *Call, args marketDataArgs) (Response, error) {
	data := MarketSnapshot(args.Ticker, env.Rand())
	push(env, call, canvas.VariantFinancialTicker, "Market Pulse: "+data.Ticker, data)
	return result(fmt.Sprintf("Displayed market data for %s", args.Ticker)), nil
}

func createDossier(_ context.Context, env Environment, call *Call, args createDossierArgs) (Response, error) {
	news := make([]canvas.NewsItem, len(args.RecentNews))
	for i, n := range args.RecentNews {
		news[i] = canvas.NewsItem(n)
	}
	push(env, call, canvas.VariantDossier, "Dossier: "+args.Name, canvas.Dossier{
		Name:            args.Name,
		Role:            args.Role,
		Company:         args.Company,
		RecentNews:      news,
		LastInteraction: args.LastInteraction,
	})
	return result("Dossier created and displayed."), nil
}

func createStrategyMemo(_ context.Context, env Environment, call *Call, args strategyMemoArgs) (Response, error) {
	items := make([]canvas.ActionItem, len(args.ActionItems))
	for i, a := range args.ActionItems {
		items[i] = canvas.ActionItem(a)
	}
	push(env, call, canvas.VariantStrategyMemo, args.Title, canvas.StrategyMemo{
		Title:       args.Title,
		Date:        longDate(env),
		Risks:       args.Risks,
		Decisions:   args.Decisions,
		ActionItems: items,
	})
	env.Canvas().AddNote(canvas.Note{
		ID:      "memo-" + call.ID,
		Title:   args.Title,
		Content: memoText(args),
		Tags:    []string{"strategy", "meeting-notes"},
	})
	return result("Strategy memo created and saved."), nil
}

func memoText(args strategyMemoArgs) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "STRATEGY MEMO: %s\n\nRISKS:\n", args.Title)
	writeLines(&sb, args.Risks, func(r string) string { return "- " + r })
	sb.WriteString("\n\nDECISIONS:\n")
	writeLines(&sb, args.Decisions, func(d string) string { return "- " + d })
	sb.WriteString("\n\nACTION ITEMS:\n")
	writeLines(&sb, args.ActionItems, func(a actionItem) string {
		return fmt.Sprintf("- [ ] %s (%s) due %s", a.Task, a.Assignee, a.DueDate)
	})
	return sb.String()
}

func writeLines[T any](sb *strings.Builder, items []T, line func(T) string) {
	for i, it := range items {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(line(it))
	}
}
