package tui

import (
	"sort"
	"time"

	"tte/report"
	"tte/tracker"
	"tte/tui/components"
)

// sidebarTotals lists every project with its accumulated time. Projects
// without entries appear with zero time after the ones that have some. The
// running project's total includes elapsed, the live duration of its open
// entry.
func sidebarTotals(views []report.EntryView, projects []tracker.Project, running *report.EntryView, elapsed time.Duration) []components.ProjectRow {
	defaults := make(map[string]bool)
	for _, p := range projects {
		if p.IsDefault {
			defaults[p.Name] = true
		}
	}

	seen := make(map[string]bool)
	var rows []components.ProjectRow
	for _, t := range report.Totals(views) {
		d := t.Duration
		if running != nil && t.Project == running.Project {
			d += elapsed - running.Duration
		}
		rows = append(rows, components.ProjectRow{
			Name:      t.Project,
			Duration:  d,
			Running:   t.Running,
			IsDefault: defaults[t.Project],
		})
		seen[t.Project] = true
	}

	var idle []components.ProjectRow
	for _, p := range projects {
		if seen[p.Name] {
			continue
		}
		seen[p.Name] = true
		idle = append(idle, components.ProjectRow{Name: p.Name, IsDefault: p.IsDefault})
	}
	sort.SliceStable(idle, func(i, j int) bool { return idle[i].Name < idle[j].Name })
	return append(rows, idle...)
}

// recentEntries returns up to n entries, newest first.
func recentEntries(views []report.EntryView, n int) []report.EntryView {
	out := make([]report.EntryView, 0, min(n, len(views)))
	for i := len(views) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, views[i])
	}
	return out
}

func defaultProject(projects []tracker.Project) string {
	for _, p := range projects {
		if p.IsDefault {
			return p.Name
		}
	}
	return ""
}
