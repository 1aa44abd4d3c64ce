package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the console colors.
type Theme struct {
	Primary lipgloss.Color
	Warn    lipgloss.Color
	Dim     lipgloss.Color
}

// DefaultTheme is the default bright green theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Warn:    lipgloss.Color("#ff5f5f"),
	Dim:     lipgloss.Color("#6e7681"),
}

// Styles holds all styles derived from a theme.
type Styles struct {
	Label lipgloss.Style
	Value lipgloss.Style
	Alert lipgloss.Style
	Help  lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Label: lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Value: lipgloss.NewStyle(),
		Alert: lipgloss.NewStyle().Bold(true).Foreground(t.Warn),
		Help:  lipgloss.NewStyle().Foreground(t.Dim),
	}
}

// meterWidth is the number of cells of the volume meter.
const meterWidth = 10

// Status is one line of assistant status for the console.
type Status struct {
	Styles  Styles
	Persona string
	Session string
	Agent   string
	Camera  bool
	// Volume is the input level, 0 for silence; values above 1 clip.
	Volume float64
}

// Render renders the status as a single line.
func (s Status) Render() string {
	camera := "off"
	if s.Camera {
		camera = "on"
	}
	parts := []string{
		s.field("persona", s.Persona),
		s.field("session", s.Session),
		s.field("agent", s.Agent),
		s.field("camera", camera),
		s.Styles.Label.Render("mic") + " " + Meter(s.Volume),
	}
	return strings.Join(parts, s.Styles.Help.Render(" | "))
}

func (s Status) field(label, value string) string {
	return s.Styles.Label.Render(label) + " " + s.Styles.Value.Render(value)
}

// Meter draws v in [0, 1] as a bar of meterWidth cells.
func Meter(v float64) string {
	n := int(v*meterWidth + 0.5)
	n = max(0, min(meterWidth, n))
	return "[" + strings.Repeat("#", n) + strings.Repeat(".", meterWidth-n) + "]"
}

// Banner renders an error for the user.
func (st Styles) Banner(err error) string {
	return st.Alert.Render(fmt.Sprintf("! %v", err))
}
