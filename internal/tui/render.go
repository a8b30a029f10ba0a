package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"minirag/internal/session"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true)
	subtleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	sectionStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	busyStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	buttonStyle    = lipgloss.NewStyle().Reverse(true).Padding(0, 1)
	labelStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	answerBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	metricStyle    = lipgloss.NewStyle().PaddingRight(3)
)

// renderAnswer draws the answer panel: answer text, citations in the order
// received and the metrics grid.
func renderAnswer(a *session.AnswerView) string {
	if a == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(sectionStyle.Render("Answer"))
	b.WriteString("\n")
	b.WriteString(a.Text)
	b.WriteString("\n")

	if len(a.Citations) > 0 {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render("Citations"))
		b.WriteString("\n")
		for _, c := range a.Citations {
			b.WriteString("  ")
			b.WriteString(c)
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(sectionStyle.Render("Metrics"))
	b.WriteString("\n")
	cells := make([]string, 0, len(a.Metrics))
	for _, m := range a.Metrics {
		cells = append(cells, metricStyle.Render(labelStyle.Render(m.Label+":")+" "+m.Value))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	return b.String()
}
