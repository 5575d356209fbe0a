package output

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/twiced-technology-gmbh/swarmwatch/internal/board"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/task"
)

// TaskCompact renders a list of enriched tasks in one-line-per-record format.
func TaskCompact(w io.Writer, tasks []*task.Enriched) {
	if len(tasks) == 0 {
		fmt.Fprintln(os.Stderr, "No tasks found.")
		return
	}

	for _, t := range tasks {
		fmt.Fprintln(w, formatTaskLine(t))
	}
}

// TaskDetailCompact renders a single enriched task in compact format.
func TaskDetailCompact(w io.Writer, t *task.Enriched) {
	fmt.Fprintln(w, formatTaskLine(t))

	var meta []string
	if t.Branch != "" {
		meta = append(meta, "branch:"+t.Branch)
	}
	meta = append(meta, "session:"+t.Session())
	if t.StartedAt.Set() {
		meta = append(meta, "started:"+t.StartedAt.Format("2006-01-02T15:04"))
	}
	if t.CompletedAt.Set() {
		meta = append(meta, "completed:"+t.CompletedAt.Format("2006-01-02T15:04"))
	}
	fmt.Fprintln(w, "  "+strings.Join(meta, " "))

	if t.Changes != nil {
		for _, f := range t.Changes.Files {
			fmt.Fprintln(w, "  "+lineCounts(f.Additions, f.Deletions)+" "+f.Path)
		}
	}
	if t.Description != "" {
		for _, line := range strings.Split(t.Description, "\n") {
			fmt.Fprintln(w, "  "+line)
		}
	}
}

// OverviewCompact renders a swarm summary in compact format.
func OverviewCompact(w io.Writer, s board.Overview) {
	fmt.Fprintf(w, "%s (%d tasks, %d alive)\n", s.Source, s.TotalTasks, s.Alive)

	for _, ss := range s.Statuses {
		line := "  " + ss.Status + ": " + strconv.Itoa(ss.Count)
		var annotations []string
		if ss.Alive > 0 {
			annotations = append(annotations, strconv.Itoa(ss.Alive)+" alive")
		}
		if ss.Inferred > 0 {
			annotations = append(annotations, strconv.Itoa(ss.Inferred)+" inferred")
		}
		if ss.Files > 0 {
			annotations = append(annotations, strconv.Itoa(ss.Files)+" files "+lineCounts(ss.Additions, ss.Deletions))
		}
		if len(annotations) > 0 {
			line += " (" + strings.Join(annotations, ", ") + ")"
		}
		fmt.Fprintln(w, line)
	}

	if len(s.Agents) > 0 {
		parts := make([]string, 0, len(s.Agents))
		for _, ac := range s.Agents {
			parts = append(parts, ac.Agent+"="+strconv.Itoa(ac.Count))
		}
		fmt.Fprintln(w, "Agents: "+strings.Join(parts, " "))
	}
}

// formatTaskLine builds the one-line representation of an enriched task.
func formatTaskLine(t *task.Enriched) string {
	line := t.ID + " [" + statusLabel(t)
	if t.Agent != "" {
		line += "/" + t.Agent
	}
	line += "]"
	if t.TmuxAlive {
		line += " tmux:alive"
	}
	if t.Changes != nil {
		line += " files:" + strconv.Itoa(t.LiveFileCount()) + " " + diffPlain(t)
	}
	if d := firstLine(t.Description); d != "" {
		line += " " + d
	}
	return line
}
