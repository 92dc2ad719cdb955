package tui

import (
	"fmt"
	"hash/fnv"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorAccent = lipgloss.Color("#7DCFFF")
	colorGreen  = lipgloss.Color("#9ECE6A")
	colorRed    = lipgloss.Color("#F7768E")
	colorMuted  = lipgloss.Color("#888888")

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#565F89")).
			Padding(0, 1)

	BorderIdle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(1, 1)

	BorderRunning = lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(colorGreen).
			Padding(1, 1)

	StyleIdle      = lipgloss.NewStyle().Foreground(colorMuted).Bold(true)
	HeroTimerStyle = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
	HeroTaskStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C0CAF5"))

	TitleStyle        = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	EntryStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#C0CAF5"))
	TreeDurationStyle = lipgloss.NewStyle().Foreground(colorMuted)
	DefaultMarkStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#E0AF68")).Bold(true)

	ChartBarStyle     = lipgloss.NewStyle().Foreground(colorAccent)
	ChartPercentStyle = lipgloss.NewStyle().Foreground(colorMuted)

	SuccessStyle = lipgloss.NewStyle().Foreground(colorGreen)
	ErrorStyle   = lipgloss.NewStyle().Foreground(colorRed)
	FooterStyle  = lipgloss.NewStyle().Foreground(colorMuted).Padding(0, 1)
)

var projectPalette = []lipgloss.Color{
	"#7AA2F7", "#BB9AF7", "#2AC3DE", "#E0AF68", "#9ECE6A", "#FF9E64", "#F7768E", "#73DACA",
}

// ProjectColor picks a stable color for a project name.
func ProjectColor(name string) lipgloss.Color {
	h := fnv.New32a()
	h.Write([]byte(name))
	return projectPalette[h.Sum32()%uint32(len(projectPalette))]
}

// FormatDurationFull renders d as HH:MM:SS.
func FormatDurationFull(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	s := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, (s/60)%60, s%60)
}

// FormatDurationShort renders d as 1h05m, or 4m12s under an hour.
func FormatDurationShort(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	s := int64(d / time.Second)
	if s < 3600 {
		return fmt.Sprintf("%dm%02ds", s/60, s%60)
	}
	return fmt.Sprintf("%dh%02dm", s/3600, (s/60)%60)
}
