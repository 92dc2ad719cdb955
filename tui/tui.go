package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"tte/tracker"
)

// Source is what the dashboard reads from and acts on.
type Source struct {
	User     tracker.UserID
	Entries  *tracker.Entries
	Projects *tracker.Projects

	// Timeout bounds each store call. Zero means no bound.
	Timeout time.Duration
}

// LaunchTUI runs the dashboard until the user quits or ctx is done.
func LaunchTUI(ctx context.Context, src Source) error {
	m := NewModel(ctx, src)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
