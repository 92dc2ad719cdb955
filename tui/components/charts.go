package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// RenderShareChart renders a horizontal bar per project showing its share
// of all tracked time. Rows without time are skipped.
func RenderShareChart(rows []ProjectRow, width, height int, barStyle, percentStyle, boxStyle lipgloss.Style, projectColor func(string) lipgloss.Color) string {
	var total time.Duration
	for _, row := range rows {
		total += row.Duration
	}
	if total <= 0 {
		empty := lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Render("No time tracked.")
		return boxStyle.Width(width).Height(height).Render(empty)
	}

	const labelWidth = 14
	barWidth := max(0, width-labelWidth-10)
	maxLines := height - 2

	var lines []string
	for _, row := range rows {
		if len(lines) >= maxLines {
			break
		}
		if row.Duration <= 0 {
			continue
		}
		share := float64(row.Duration) / float64(total)
		filled := min(barWidth, max(0, int(float64(barWidth)*share)))

		name := row.Name
		if lipgloss.Width(name) > labelWidth-1 {
			name = lipgloss.NewStyle().MaxWidth(labelWidth - 2).Render(name) + "…"
		}
		label := lipgloss.NewStyle().Width(labelWidth).Foreground(projectColor(row.Name)).Render(name)

		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Left,
			label,
			barStyle.Render(strings.Repeat("█", filled)),
			" ",
			percentStyle.Render(fmt.Sprintf("%d%%", int(share*100))),
		))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return boxStyle.Width(width).Height(height).Render(content)
}
