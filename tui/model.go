package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"tte/report"
	"tte/tracker"
)

// reloadEvery is how often the dashboard refetches from the store.
const reloadEvery = 30 * time.Second

type tickMsg time.Time

type loadedMsg struct {
	entries  []report.EntryView
	projects []tracker.Project
	at       time.Time
	err      error
}

type actionMsg struct {
	text string
	err  error
}

// Model is the bubbletea model of the dashboard.
type Model struct {
	ctx context.Context
	src Source

	entries   []report.EntryView
	projects  []tracker.Project
	fetchedAt time.Time
	now       time.Time

	width  int
	height int

	message      string
	messageError bool
}

func NewModel(ctx context.Context, src Source) Model {
	now := time.Now()
	return Model{ctx: ctx, src: src, now: now, width: 80, height: 24}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.load(), tick())
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) callContext() (context.Context, context.CancelFunc) {
	if m.src.Timeout <= 0 {
		return context.WithCancel(m.ctx)
	}
	return context.WithTimeout(m.ctx, m.src.Timeout)
}

func (m Model) load() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.callContext()
		defer cancel()

		entries, err := m.src.Entries.List(ctx, m.src.User)
		if err != nil {
			return loadedMsg{err: err}
		}
		projects, err := m.src.Projects.List(ctx, m.src.User)
		if err != nil {
			return loadedMsg{err: err}
		}
		return loadedMsg{entries: report.View(entries), projects: projects, at: time.Now()}
	}
}

func (m Model) stop() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.callContext()
		defer cancel()

		stopped, err := m.src.Entries.StopActive(ctx, m.src.User)
		if err != nil {
			return actionMsg{err: err}
		}
		if stopped == 0 {
			return actionMsg{text: "Nothing running."}
		}
		return actionMsg{text: "Stopped."}
	}
}

func (m Model) startDefault() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.callContext()
		defer cancel()

		project, err := m.src.Entries.Start(ctx, m.src.User, nil)
		if err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{text: "Started " + project.Name + "."}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			return m, m.load()
		case "x":
			return m, m.stop()
		case "s":
			return m, m.startDefault()
		}
		return m, nil

	case tickMsg:
		m.now = time.Time(msg)
		if !m.fetchedAt.IsZero() && m.now.Sub(m.fetchedAt) >= reloadEvery {
			return m, tea.Batch(m.load(), tick())
		}
		return m, tick()

	case loadedMsg:
		if msg.err != nil {
			m.message = msg.err.Error()
			m.messageError = true
			return m, nil
		}
		m.entries = msg.entries
		m.projects = msg.projects
		m.fetchedAt = msg.at
		m.now = msg.at
		return m, nil

	case actionMsg:
		if msg.err != nil {
			m.message = msg.err.Error()
			m.messageError = true
			return m, nil
		}
		m.message = msg.text
		m.messageError = false
		return m, m.load()
	}
	return m, nil
}

func (m Model) View() string {
	return renderMainView(m)
}

// active returns the running entry, if any, and its elapsed time. The
// store-reported duration is advanced by the time since the fetch.
func (m Model) active() (*report.EntryView, time.Duration) {
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].Running() {
			elapsed := m.entries[i].Duration
			if since := m.now.Sub(m.fetchedAt); !m.fetchedAt.IsZero() && since > 0 {
				elapsed += since
			}
			return &m.entries[i], report.Floor(elapsed)
		}
	}
	return nil, 0
}
