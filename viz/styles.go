package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444466")).
		Padding(0, 1)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00ffff"))

	Equation = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	MetricLabel = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888899")).
			Width(14)

	MetricValue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ccff")).
			Bold(true)
)

// RenderEquations frames the identified equations under a title.
func RenderEquations(title string, equations []string) string {
	lines := make([]string, 0, len(equations)+1)
	lines = append(lines, Title.Render(title))
	for _, eq := range equations {
		lines = append(lines, Equation.Render(eq))
	}
	return Panel.Render(strings.Join(lines, "\n"))
}

// RenderMetric formats a label/value pair on one line.
func RenderMetric(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, MetricLabel.Render(label), MetricValue.Render(value))
}
