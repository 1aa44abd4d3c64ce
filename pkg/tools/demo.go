package tools

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/haivivi/execlive/pkg/canvas"
)

// DemoInbox is the mailbox display_email searches.
var DemoInbox = []canvas.Email{
	{
		ID:      "e1",
		From:    "Elon M.",
		Subject: "Re: Starship Updates",
		Body:    "The trajectory looks good. Can we schedule a review for the landing sequence tomorrow?",
		Avatar:  "https://picsum.photos/id/1/50/50",
	},
	{
		ID:      "e2",
		From:    "Sarah Connor",
		Subject: "Project Skynet",
		Body:    "We need to talk about the neural net processor timeline. It's moving too fast.",
		Avatar:  "https://picsum.photos/id/2/50/50",
	},
	{
		ID:      "e3",
		From:    "Investments Team",
		Subject: "Q4 Portfolio Review",
		Body:    "Attached is the summary of Q4 performance. We beat the S&P 500 by 12%. Let's discuss allocation.",
		Avatar:  "https://picsum.photos/id/4/50/50",
	},
}

// DemoCalendar is today's schedule.
var DemoCalendar = []canvas.CalendarEvent{
	{ID: "c1", Title: "Q4 Earnings Prep", Time: "09:00 AM - 10:00 AM", Participants: []string{"CFO", "Investor Relations"}, Location: "Boardroom"},
	{ID: "c2", Title: "Strategy Sync", Time: "10:30 AM - 11:30 AM", Participants: []string{"Alice (COO)", "Product Team"}, Location: "Conference Room A"},
	{ID: "c3", Title: "Lunch with Jensen", Time: "12:30 PM - 1:30 PM", Participants: []string{"Jensen Huang"}, Location: "Sushirrito"},
	{ID: "c4", Title: "Board Meeting", Time: "02:00 PM - 04:00 PM", Participants: []string{"Board Members"}, Location: "Executive Suite"},
}

// findEmail returns the first email whose sender or subject contains query,
// ignoring case, or the first email when nothing matches.
func findEmail(inbox []canvas.Email, query string) canvas.Email {
	q := strings.ToLower(query)
	for _, e := range inbox {
		if strings.Contains(strings.ToLower(e.From), q) || strings.Contains(strings.ToLower(e.Subject), q) {
			return e
		}
	}
	return inbox[0]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// MarketSnapshot synthesizes a quote for ticker: a price in [50, 1050), a
// daily change between -4% and +6% and 20 history points within 5% of the
// price.
func MarketSnapshot(ticker string, r *rand.Rand) canvas.Financial {
	sym := strings.ToUpper(ticker)
	base := r.Float64()*1000 + 50
	changePct := r.Float64()*10 - 4
	history := make([]float64, 20)
	for i := range history {
		history[i] = base * (1 + (r.Float64()*0.1 - 0.05))
	}

	name := sym + " Corp"
	switch sym {
	case "TSLA":
		name = "Tesla, Inc."
	case "NVDA":
		name = "NVIDIA Corp"
	}
	return canvas.Financial{
		Ticker:        sym,
		CompanyName:   name,
		Price:         round2(base),
		ChangeAmount:  round2(base * changePct / 100),
		ChangePercent: round2(changePct),
		Volume:        fmt.Sprintf("%.1fM", r.Float64()*50+10),
		PERatio:       round2(r.Float64()*50 + 10),
		MarketCap:     fmt.Sprintf("%.1fT", r.Float64()*2+0.1),
		History:       history,
	}
}
