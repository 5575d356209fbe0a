package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/twiced-technology-gmbh/swarmwatch/internal/board"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/changes"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/clierr"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/date"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/gitview"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/task"
)

func init() {
	DisableColor()
	now = func() time.Time { return time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC) }
}

func sample() []*task.Enriched {
	a := &task.Enriched{
		Task: &task.Task{
			ID: "feat-login", Agent: "claude", Model: "opus", Status: "running",
			Branch: "feat/login", Description: "Add login form\nwith validation",
			StartedAt: date.FromTime(time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)),
		},
		Status: "completed",
		Changes: &changes.Result{
			TotalFiles: 2, TotalAdditions: 30, TotalDeletions: 4,
			Files: []changes.FileChange{{Path: "login.go", Additions: 25, Deletions: 4}, {Path: "form.go", Additions: 5}},
		},
	}
	b := &task.Enriched{
		Task:      &task.Task{ID: "fix-cache", Status: "running"},
		Status:    "running",
		TmuxAlive: true,
	}
	return []*task.Enriched{a, b}
}

func TestDetect(t *testing.T) {
	t.Setenv(EnvOutput, "")
	tests := []struct {
		name                 string
		json, table, compact bool
		env                  string
		want                 Format
	}{
		{name: "default", want: FormatTable},
		{name: "json flag", json: true, want: FormatJSON},
		{name: "compact beats table", table: true, compact: true, want: FormatCompact},
		{name: "env json", env: "json", want: FormatJSON},
		{name: "env oneline", env: "oneline", want: FormatCompact},
		{name: "flag beats env", table: true, env: "json", want: FormatTable},
		{name: "env case-insensitive", env: " JSON ", want: FormatJSON},
		{name: "unknown env", env: "yaml", want: FormatTable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvOutput, tt.env)
			if got := Detect(tt.json, tt.table, tt.compact); got != tt.want {
				t.Errorf("Detect() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTaskTable(t *testing.T) {
	var buf bytes.Buffer
	TaskTable(&buf, sample())
	out := buf.String()

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines:\n%s", len(lines), out)
	}
	for _, want := range []string{"ID", "STATUS", "TMUX", "+/-", "STARTED"} {
		if !strings.Contains(lines[0], want) {
			t.Errorf("header missing %q: %s", want, lines[0])
		}
	}
	for _, want := range []string{"feat-login", "completed*", "claude", "+30 -4", "2 hours ago", "Add login form"} {
		if !strings.Contains(lines[1], want) {
			t.Errorf("row missing %q: %s", want, lines[1])
		}
	}
	if strings.Contains(lines[1], "validation") {
		t.Errorf("row should only show the first description line: %s", lines[1])
	}
	if !strings.Contains(lines[2], "alive") || !strings.Contains(lines[2], "--") {
		t.Errorf("second row = %s", lines[2])
	}
}

func TestTaskDetail(t *testing.T) {
	var buf bytes.Buffer
	TaskDetail(&buf, sample()[0], "rendered body")
	out := buf.String()
	for _, want := range []string{"Task feat-login", "Declared:", "running", "Session:", "login.go", "rendered body"} {
		if !strings.Contains(out, want) {
			t.Errorf("detail missing %q:\n%s", want, out)
		}
	}
}

func TestTaskCompact(t *testing.T) {
	var buf bytes.Buffer
	TaskCompact(&buf, sample())
	want := "feat-login [completed*/claude] files:2 +30 -4 Add login form\n" +
		"fix-cache [running] tmux:alive\n"
	if buf.String() != want {
		t.Errorf("compact =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestOverviewCompact(t *testing.T) {
	var buf bytes.Buffer
	OverviewCompact(&buf, board.Summary("tasks.json", sample()))
	out := buf.String()
	for _, want := range []string{
		"tasks.json (2 tasks, 1 alive)",
		"running: 1 (1 alive)",
		"completed: 1 (1 inferred, 2 files +30 -4)",
		"dead: 0",
		"Agents: (none)=1 claude=1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("overview missing %q:\n%s", want, out)
		}
	}
}

func TestDiffDetail(t *testing.T) {
	d := &gitview.Diff{
		Commit: gitview.Commit{Hash: "abcdef1234", Short: "abcdef1", Subject: "add x", Author: "dev"},
		Parent: "1234567",
		Patch:  "diff --git a/x b/x\n",
		Files:  []changes.FileChange{{Path: "x", Additions: 3}},
		Stats:  gitview.Stats{Files: 1, Additions: 3},
	}

	var without, with bytes.Buffer
	DiffDetail(&without, d, false)
	DiffDetail(&with, d, true)
	if strings.Contains(without.String(), "diff --git") {
		t.Error("patch printed without withPatch")
	}
	if !strings.Contains(with.String(), "diff --git a/x b/x") {
		t.Errorf("patch missing:\n%s", with.String())
	}
	if !strings.Contains(without.String(), "1 files +3 -0") {
		t.Errorf("stats missing:\n%s", without.String())
	}
}

func TestChangesCompact(t *testing.T) {
	var buf bytes.Buffer
	ChangesCompact(&buf, sample()[0].Changes)
	want := " files:2 +30 -4\n  +25 -4 login.go\n  +5 -0 form.go\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestJSONError(t *testing.T) {
	var buf bytes.Buffer
	JSONError(&buf, clierr.New(clierr.TaskNotFound, "task \"x\" not found").WithDetails(map[string]any{"id": "x"}))
	want := `{
  "error": "task \"x\" not found",
  "code": "TASK_NOT_FOUND",
  "details": {
    "id": "x"
  }
}
`
	if buf.String() != want {
		t.Errorf("got\n%s\nwant\n%s", buf.String(), want)
	}
}
