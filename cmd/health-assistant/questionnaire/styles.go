package questionnaire

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/terra-clan/health-assistant/internal/models"
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")).
			MarginBottom(1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 2).
			Width(22)

	bundleStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			Padding(0, 1).
			Width(40)

	labelStyle = lipgloss.NewStyle().Bold(true)
)

// severityColor mirrors the dashboard palette: green, yellow, red
func severityColor(s models.Severity) lipgloss.Color {
	switch s {
	case models.SeverityCritical:
		return lipgloss.Color("196")
	case models.SeverityWarning:
		return lipgloss.Color("214")
	default:
		return lipgloss.Color("42")
	}
}
