package components

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// ProjectRow is one line of the totals sidebar.
type ProjectRow struct {
	Name      string
	Duration  time.Duration
	Running   bool
	IsDefault bool
}

// TotalsStyles are the styles the totals sidebar is drawn with.
type TotalsStyles struct {
	Title    lipgloss.Style
	Duration lipgloss.Style
	Default  lipgloss.Style
	Box      lipgloss.Style
}

// RenderTotals renders the per-project totals with dot leaders. The default
// project is marked with (*) and the running one with a leading >.
func RenderTotals(rows []ProjectRow, width, height int, styles TotalsStyles, projectColor func(string) lipgloss.Color, formatDurationShort func(time.Duration) string) string {
	lines := []string{styles.Title.Render("Projects")}
	if len(rows) == 0 {
		lines = append(lines, lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Render("No projects yet."))
	}

	maxLines := height - 2
	for _, row := range rows {
		if len(lines) >= maxLines {
			break
		}

		marker := "  "
		if row.Running {
			marker = "> "
		}
		name := lipgloss.NewStyle().Foreground(projectColor(row.Name)).Render(row.Name)
		label := marker + name
		if row.IsDefault {
			label += " " + styles.Default.Render("(*)")
		}

		dur := formatDurationShort(row.Duration)
		dots := strings.Repeat(".", max(0, width-lipgloss.Width(label)-len(dur)-6))
		lines = append(lines, label+" "+dots+" "+styles.Duration.Render(dur))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return styles.Box.Width(width).Height(height).Render(content)
}
