package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"tte/report"
	"tte/tui/components"
)

// renderMainView renders the whole dashboard.
func renderMainView(m Model) string {
	width := m.width
	height := m.height
	if width < 80 {
		width = 80
	}
	if height < 24 {
		height = 24
	}

	footerHeight := 2
	heroHeight := 5
	mainHeight := height - footerHeight - heroHeight
	if mainHeight < 5 {
		mainHeight = 5
	}

	running, elapsed := m.active()
	runningName := ""
	if running != nil {
		runningName = running.Project
	}
	heroSection := components.RenderHero(runningName, running != nil, elapsed, defaultProject(m.projects), width,
		components.HeroStyles{
			BorderIdle:    BorderIdle,
			BorderRunning: BorderRunning,
			Idle:          StyleIdle,
			Timer:         HeroTimerStyle,
			Project:       HeroTaskStyle,
		}, FormatDurationFull)

	leftWidth := int(float64(width) * 0.60)
	rightWidth := width - leftWidth - 1

	// Sidebar: totals above, share chart below
	totalsHeight := mainHeight * 3 / 5
	chartHeight := mainHeight - totalsHeight
	if chartHeight < 3 {
		chartHeight = 3
	}

	rows := sidebarTotals(m.entries, m.projects, running, elapsed)
	totalsSection := components.RenderTotals(rows, rightWidth, totalsHeight,
		components.TotalsStyles{
			Title:    TitleStyle,
			Duration: TreeDurationStyle,
			Default:  DefaultMarkStyle,
			Box:      BoxStyle,
		}, ProjectColor, FormatDurationShort)
	chartSection := components.RenderShareChart(rows, rightWidth, chartHeight, ChartBarStyle, ChartPercentStyle, BoxStyle, ProjectColor)
	sidebar := lipgloss.JoinVertical(lipgloss.Left, totalsSection, chartSection)

	entriesSection := renderEntries(m, running, elapsed, leftWidth, mainHeight)
	contentRow := lipgloss.JoinHorizontal(lipgloss.Top, entriesSection, " ", sidebar)

	var messageLine string
	if m.message != "" {
		msgStyle := SuccessStyle
		if m.messageError {
			msgStyle = ErrorStyle
		}
		messageLine = lipgloss.Place(width, 1, lipgloss.Center, lipgloss.Top,
			lipgloss.NewStyle().MaxWidth(width).Render(msgStyle.Render(m.message)))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		heroSection,
		contentRow,
		messageLine,
		renderFooter(width),
	)
}

// renderEntries renders the entry list, newest first. The running entry
// shows its live elapsed time.
func renderEntries(m Model, running *report.EntryView, elapsed time.Duration, width, height int) string {
	if len(m.entries) == 0 {
		empty := lipgloss.NewStyle().Foreground(colorMuted).Render("No entries yet. Press [s] to start.")
		return BoxStyle.Width(width).Height(height).Render(lipgloss.Place(width-4, height-2, lipgloss.Center, lipgloss.Center, empty))
	}

	lines := []string{TitleStyle.Render("Entries")}
	availableWidth := width - 4
	for _, v := range recentEntries(m.entries, height-3) {
		start := v.Start.In(m.now.Location())
		stop := "running"
		if v.Stop != nil {
			stop = v.Stop.In(m.now.Location()).Format("15:04")
		}
		dur := FormatDurationShort(v.Duration)
		if v.Running() && running != nil && v.Start.Equal(running.Start) {
			dur = FormatDurationShort(elapsed)
		}

		prefix := start.Format("Jan 02 15:04") + " - " + stop + "  " +
			lipgloss.NewStyle().Foreground(ProjectColor(v.Project)).Render(v.Project)
		pad := availableWidth - lipgloss.Width(prefix) - len(dur)
		var line string
		if pad > 0 {
			line = prefix + strings.Repeat(" ", pad) + TreeDurationStyle.Render(dur)
		} else {
			line = lipgloss.NewStyle().MaxWidth(availableWidth).Render(prefix + " " + dur)
		}
		lines = append(lines, EntryStyle.Render(line))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return BoxStyle.Width(width).Height(height).Render(content)
}

// renderFooter renders the footer with help text.
func renderFooter(width int) string {
	helpLine := "[s] Start default  [x] Stop  [r] Reload  [q] Quit"
	return FooterStyle.Width(width).Render(helpLine)
}
