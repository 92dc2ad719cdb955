package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"tte/tracker"
)

// Format selects how listings are written.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates a --format value.
func ParseFormat(value string) (Format, error) {
	switch f := Format(strings.ToLower(value)); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unknown format %q (want table, json or yaml)", value)
	}
}

// EntryView is an entry prepared for display.
type EntryView struct {
	Start    time.Time
	Stop     *time.Time
	Duration time.Duration
	Project  string
}

// Running reports whether the entry had no stop timestamp.
func (v EntryView) Running() bool {
	return v.Stop == nil
}

// Floor drops sub-second precision from d. It truncates, never rounds.
func Floor(d time.Duration) time.Duration {
	return d.Truncate(time.Second)
}

// View converts entries in store order. The store-computed duration already
// uses the store's "now" for running entries.
func View(entries []tracker.Entry) []EntryView {
	views := make([]EntryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, EntryView{
			Start:    e.Start,
			Stop:     e.Stop,
			Duration: Floor(e.Duration),
			Project:  e.ProjectName,
		})
	}
	return views
}

// ProjectTotal is the time spent on one project.
type ProjectTotal struct {
	Project  string
	Duration time.Duration
	Running  bool
}

// Totals sums durations per project, longest first.
func Totals(views []EntryView) []ProjectTotal {
	index := make(map[string]int)
	var totals []ProjectTotal
	for _, v := range views {
		i, ok := index[v.Project]
		if !ok {
			i = len(totals)
			index[v.Project] = i
			totals = append(totals, ProjectTotal{Project: v.Project})
		}
		totals[i].Duration += v.Duration
		if v.Running() {
			totals[i].Running = true
		}
	}
	sort.SliceStable(totals, func(i, j int) bool {
		return totals[i].Duration > totals[j].Duration
	})
	return totals
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

// WriteEntries writes the entry listing. A running entry has a blank stop
// column.
func WriteEntries(w io.Writer, views []EntryView, format Format) error {
	switch format {
	case FormatJSON, FormatYAML:
		return encode(w, format, entryRecords(views))
	}

	var b strings.Builder
	b.WriteString("Entries:\n")
	fmt.Fprintf(&b, "%-30s | %-30s | %12s | %-20s\n", "start", "stop", "duration", "project")
	fmt.Fprintf(&b, "%s-|-%s-|-%s-|-%s\n",
		strings.Repeat("-", 30), strings.Repeat("-", 30), strings.Repeat("-", 12), strings.Repeat("-", 20))
	for _, v := range views {
		stop := ""
		if v.Stop != nil {
			stop = formatTime(*v.Stop)
		}
		fmt.Fprintf(&b, "%-30s | %-30s | %12s | %-20s\n",
			formatTime(v.Start), stop, v.Duration.String(), v.Project)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteProjects writes the project listing, marking the default with (*).
func WriteProjects(w io.Writer, projects []tracker.Project, format Format) error {
	switch format {
	case FormatJSON, FormatYAML:
		return encode(w, format, projectRecords(projects))
	}

	var b strings.Builder
	b.WriteString("Projects:\n")
	for _, p := range projects {
		annotation := ""
		if p.IsDefault {
			annotation = " (*)"
		}
		b.WriteString(p.Name + annotation + "\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

type entryRecord struct {
	Start    string `json:"start" yaml:"start"`
	Stop     string `json:"stop,omitempty" yaml:"stop,omitempty"`
	Seconds  int64  `json:"duration_seconds" yaml:"duration_seconds"`
	Duration string `json:"duration" yaml:"duration"`
	Project  string `json:"project" yaml:"project"`
	Running  bool   `json:"running" yaml:"running"`
}

type projectRecord struct {
	ID      string `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Default bool   `json:"default" yaml:"default"`
}

func entryRecords(views []EntryView) []entryRecord {
	records := make([]entryRecord, 0, len(views))
	for _, v := range views {
		r := entryRecord{
			Start:    formatTime(v.Start),
			Seconds:  int64(v.Duration / time.Second),
			Duration: v.Duration.String(),
			Project:  v.Project,
			Running:  v.Running(),
		}
		if v.Stop != nil {
			r.Stop = formatTime(*v.Stop)
		}
		records = append(records, r)
	}
	return records
}

func projectRecords(projects []tracker.Project) []projectRecord {
	records := make([]projectRecord, 0, len(projects))
	for _, p := range projects {
		records = append(records, projectRecord{ID: p.ID.String(), Name: p.Name, Default: p.IsDefault})
	}
	return records
}

func encode(w io.Writer, format Format, v any) error {
	if format == FormatYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	return nil
}
