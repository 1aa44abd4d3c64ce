package canvas

// Content payloads, one per variant. Field names follow the JSON the
// renderer consumes.

type Email struct {
	ID      string `json:"id,omitempty"`
	From    string `json:"from"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Avatar  string `json:"avatar,omitempty"`
}

type EmailDraft struct {
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
}

type CalendarEvent struct {
	ID           string   `json:"id,omitempty"`
	Title        string   `json:"title"`
	Time         string   `json:"time"`
	Participants []string `json:"participants"`
	Location     string   `json:"location"`
}

type Code struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

type Image struct {
	URL     string `json:"url"`
	Prompt  string `json:"prompt,omitempty"`
	Caption string `json:"caption,omitempty"`
}

type Memory struct {
	Text string `json:"text"`
}

type NoteCard struct {
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

type NoteSearchResults struct {
	Tag   string `json:"tag"`
	Notes []Note `json:"notes"`
}

type Chart struct {
	Labels  []string  `json:"labels"`
	Values  []float64 `json:"values"`
	Summary string    `json:"summary,omitempty"`
}

type WebResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

type WebSearch struct {
	Query   string      `json:"query"`
	Results []WebResult `json:"results"`
}

type Financial struct {
	Ticker        string    `json:"ticker"`
	CompanyName   string    `json:"companyName"`
	Price         float64   `json:"price"`
	ChangeAmount  float64   `json:"changeAmount"`
	ChangePercent float64   `json:"changePercent"`
	Volume        string    `json:"volume"`
	PERatio       float64   `json:"peRatio"`
	MarketCap     string    `json:"marketCap"`
	History       []float64 `json:"history"`
}

type NewsItem struct {
	Title  string `json:"title"`
	Source string `json:"source"`
	Date   string `json:"date"`
}

type Dossier struct {
	Name            string     `json:"name"`
	Role            string     `json:"role"`
	Company         string     `json:"company"`
	ImageURL        string     `json:"imageUrl,omitempty"`
	RecentNews      []NewsItem `json:"recentNews"`
	LastInteraction string     `json:"lastInteraction"`
}

type ActionItem struct {
	Task     string `json:"task"`
	Assignee string `json:"assignee"`
	DueDate  string `json:"dueDate"`
}

type StrategyMemo struct {
	Title       string       `json:"title"`
	Date        string       `json:"date"`
	Risks       []string     `json:"risks"`
	Decisions   []string     `json:"decisions"`
	ActionItems []ActionItem `json:"actionItems"`
}

// Notification levels.
const (
	LevelInfo  = "info"
	LevelError = "error"
)

type Notification struct {
	Level   string `json:"level"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}
