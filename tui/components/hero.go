package components

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// HeroStyles are the styles the hero box is drawn with.
type HeroStyles struct {
	BorderIdle    lipgloss.Style
	BorderRunning lipgloss.Style
	Idle          lipgloss.Style
	Timer         lipgloss.Style
	Project       lipgloss.Style
}

// RenderHero renders the box at the top of the dashboard: the running
// project with its elapsed time, or IDLE when nothing runs. defaultName is
// shown in the idle line when set.
func RenderHero(running string, isRunning bool, elapsed time.Duration, defaultName string, width int, styles HeroStyles, formatDurationFull func(time.Duration) string) string {
	availableWidth := width - 4

	if !isRunning {
		text := "IDLE"
		if defaultName != "" {
			text += "  [s] starts " + defaultName
		}
		line := lipgloss.Place(availableWidth, 1, lipgloss.Center, lipgloss.Center, styles.Idle.Render(text))
		return styles.BorderIdle.Width(width).Render(line)
	}

	styledTimer := styles.Timer.Render(formatDurationFull(elapsed))
	styledProject := styles.Project.Render(running)

	timerWidth := lipgloss.Width(styledTimer)
	projectWidth := lipgloss.Width(styledProject)
	spacing := 2

	var line string
	switch {
	case timerWidth+spacing+projectWidth <= availableWidth:
		line = styledTimer + strings.Repeat(" ", spacing) + styledProject
	case availableWidth-timerWidth-spacing > 0:
		truncated := lipgloss.NewStyle().MaxWidth(availableWidth - timerWidth - spacing).Render(styledProject)
		line = styledTimer + strings.Repeat(" ", spacing) + truncated
	default:
		line = styledTimer
	}
	return styles.BorderRunning.Width(width).Render(line)
}
