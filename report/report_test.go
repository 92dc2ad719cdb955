package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"tte/tracker"
)

func timePtr(t time.Time) *time.Time { return &t }

func TestFloor(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want time.Duration
	}{
		{90*time.Second + 700*time.Millisecond, 90 * time.Second},
		{999 * time.Millisecond, 0},
		{time.Hour + 999999*time.Microsecond, time.Hour},
		{5 * time.Second, 5 * time.Second},
	}
	for _, tt := range tests {
		if got := Floor(tt.in); got != tt.want {
			t.Errorf("Floor(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestViewTruncatesDuration(t *testing.T) {
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	stop := start.Add(90*time.Second + 700*time.Millisecond)
	views := View([]tracker.Entry{
		{Start: start, Stop: &stop, Duration: stop.Sub(start), ProjectName: "Work"},
		{Start: stop, Duration: 12*time.Second + 300*time.Millisecond, ProjectName: "Home"},
	})

	if views[0].Duration != 90*time.Second {
		t.Errorf("stopped duration = %v, want 1m30s", views[0].Duration)
	}
	if views[1].Duration != 12*time.Second || !views[1].Running() {
		t.Errorf("running view = %+v", views[1])
	}
}

func TestWriteEntriesTable(t *testing.T) {
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	views := []EntryView{
		{Start: start, Stop: timePtr(start.Add(90 * time.Second)), Duration: 90 * time.Second, Project: "Work"},
		{Start: start.Add(2 * time.Minute), Duration: 5 * time.Second, Project: "Work"},
	}

	var buf bytes.Buffer
	if err := WriteEntries(&buf, views, FormatTable); err != nil {
		t.Fatalf("WriteEntries: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 5 {
		t.Fatalf("got %d lines, want 5:\n%s", len(lines), buf.String())
	}
	if lines[0] != "Entries:" {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[3], "2024-01-01T09:01:30Z") || !strings.Contains(lines[3], "1m30s") {
		t.Errorf("stopped row = %q", lines[3])
	}
	columns := strings.Split(lines[4], " | ")
	if len(columns) != 4 {
		t.Fatalf("running row has %d columns: %q", len(columns), lines[4])
	}
	if strings.TrimSpace(columns[1]) != "" {
		t.Errorf("running entry stop column = %q, want blank", columns[1])
	}
}

func TestWriteEntriesStructured(t *testing.T) {
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	views := []EntryView{{Start: start, Duration: 61 * time.Second, Project: "Work"}}

	var buf bytes.Buffer
	if err := WriteEntries(&buf, views, FormatJSON); err != nil {
		t.Fatalf("WriteEntries json: %v", err)
	}
	var decoded []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("json output does not parse: %v\n%s", err, buf.String())
	}
	if decoded[0]["duration_seconds"] != float64(61) || decoded[0]["running"] != true {
		t.Errorf("json entry = %v", decoded[0])
	}
	if _, ok := decoded[0]["stop"]; ok {
		t.Error("running entry should omit stop")
	}

	buf.Reset()
	if err := WriteEntries(&buf, views, FormatYAML); err != nil {
		t.Fatalf("WriteEntries yaml: %v", err)
	}
	var fromYAML []map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &fromYAML); err != nil {
		t.Fatalf("yaml output does not parse: %v", err)
	}
	if fromYAML[0]["project"] != "Work" {
		t.Errorf("yaml entry = %v", fromYAML[0])
	}
}

func TestWriteProjects(t *testing.T) {
	projects := []tracker.Project{
		{ID: uuid.New(), Name: "Home"},
		{ID: uuid.New(), Name: "Work", IsDefault: true},
	}
	var buf bytes.Buffer
	if err := WriteProjects(&buf, projects, FormatTable); err != nil {
		t.Fatalf("WriteProjects: %v", err)
	}
	want := "Projects:\nHome\nWork (*)\n"
	if buf.String() != want {
		t.Errorf("WriteProjects = %q, want %q", buf.String(), want)
	}
}

func TestTotals(t *testing.T) {
	views := []EntryView{
		{Project: "A", Duration: time.Minute},
		{Project: "B", Duration: 3 * time.Minute},
		{Project: "A", Duration: time.Minute, Stop: nil},
	}
	views[1].Stop = timePtr(time.Now())
	views[0].Stop = timePtr(time.Now())

	totals := Totals(views)
	if len(totals) != 2 {
		t.Fatalf("Totals = %+v", totals)
	}
	if totals[0].Project != "B" || totals[0].Duration != 3*time.Minute || totals[0].Running {
		t.Errorf("totals[0] = %+v", totals[0])
	}
	if totals[1].Project != "A" || totals[1].Duration != 2*time.Minute || !totals[1].Running {
		t.Errorf("totals[1] = %+v", totals[1])
	}
}

func TestParseFormat(t *testing.T) {
	for _, in := range []string{"", "table", "JSON", "yaml"} {
		if _, err := ParseFormat(in); err != nil {
			t.Errorf("ParseFormat(%q): %v", in, err)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("ParseFormat(xml) should fail")
	}
}
