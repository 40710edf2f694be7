package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(lipgloss.Color("#444466"))

	Subtle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688"))

	StatusRunning = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00ff88"))

	StatusPaused = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffaa00"))

	StatusError = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ff4444"))

	MetricValue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ccff")).
			Bold(true)

	MetricLabel = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888899")).
			Width(12)

	KeyHint = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688")).
		Italic(true)

	activeParam = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	statsPanel = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2).
			Width(40)

	graphPanel = lipgloss.NewStyle().
			Foreground(lipgloss.Color("49")).
			Padding(1, 2)

	sparkHigh = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff88"))
	sparkMid  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffcc00"))
	sparkLow  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
)

// Sparkline renders the last width values as block characters scaled
// between lo and hi. Values outside the range are pinned to the ends.
func Sparkline(values []float64, lo, hi float64, width int) string {
	if len(values) == 0 {
		return strings.Repeat("─", width)
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	rng := hi - lo
	if rng <= 0 {
		rng = 1
	}

	var b strings.Builder
	for _, v := range values {
		norm := (v - lo) / rng
		if norm < 0 {
			norm = 0
		} else if norm > 1 {
			norm = 1
		}
		c := string(chars[int(norm*float64(len(chars)-1))])

		// saturated output is drawn red
		switch {
		case norm <= 0 || norm >= 1:
			b.WriteString(sparkLow.Render(c))
		case norm > 0.25 && norm < 0.75:
			b.WriteString(sparkHigh.Render(c))
		default:
			b.WriteString(sparkMid.Render(c))
		}
	}
	return b.String()
}

func Separator(width int) string {
	return Subtle.Render(strings.Repeat("─", width))
}
