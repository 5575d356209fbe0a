// Package board provides board-level operations on enriched task lists:
// filtering, sorting, grouping, and summaries.
package board

import (
	"strings"

	"github.com/twiced-technology-gmbh/swarmwatch/internal/status"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/task"
)

// FilterOptions defines which tasks to include.
type FilterOptions struct {
	Statuses []string // canonical statuses; declared aliases are mapped with status.Parse
	Agent    string
	Model    string
	Search   string // case-insensitive substring match across id, branch, and description
	Alive    *bool  // nil=no filter, true=only live sessions, false=only dead sessions
	Changed  bool   // only tasks with live file changes
}

// Filter returns tasks matching all specified criteria (AND logic).
func Filter(tasks []*task.Enriched, opts FilterOptions) []*task.Enriched {
	result := make([]*task.Enriched, 0, len(tasks))
	for _, t := range tasks {
		if matchesFilter(t, opts) {
			result = append(result, t)
		}
	}
	return result
}

func matchesFilter(t *task.Enriched, opts FilterOptions) bool {
	if len(opts.Statuses) > 0 && !matchesStatus(t.Status, opts.Statuses) {
		return false
	}
	if opts.Agent != "" && !strings.EqualFold(t.Agent, opts.Agent) {
		return false
	}
	if opts.Model != "" && !strings.EqualFold(t.Model, opts.Model) {
		return false
	}
	if opts.Alive != nil && t.TmuxAlive != *opts.Alive {
		return false
	}
	if opts.Changed && t.LiveFileCount() == 0 {
		return false
	}
	if opts.Search != "" && !matchesSearch(t, opts.Search) {
		return false
	}
	return true
}

func matchesStatus(effective string, include []string) bool {
	got := status.Parse(effective)
	for _, s := range include {
		if status.Parse(s) == got {
			return true
		}
	}
	return false
}

func matchesSearch(t *task.Enriched, query string) bool {
	q := strings.ToLower(query)
	for _, field := range []string{t.ID, t.Branch, t.Description} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}
