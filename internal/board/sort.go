package board

import (
	"sort"

	"github.com/twiced-technology-gmbh/swarmwatch/internal/status"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/task"
)

// Sort sorts tasks by the given field. Status sorts in board column order,
// changes by total changed lines, largest first.
func Sort(tasks []*task.Enriched, field string, reverse bool) {
	sort.SliceStable(tasks, func(i, j int) bool {
		if reverse {
			return compareTasks(tasks[j], tasks[i], field)
		}
		return compareTasks(tasks[i], tasks[j], field)
	})
}

func compareTasks(a, b *task.Enriched, field string) bool {
	switch field {
	case fieldStatus:
		return status.Index(status.Parse(a.Status)) < status.Index(status.Parse(b.Status))
	case fieldAgent:
		return a.Agent < b.Agent
	case "started":
		return compareStarted(a, b)
	case "changes":
		return a.LiveAdditions()+a.LiveDeletions() > b.LiveAdditions()+b.LiveDeletions()
	default:
		return a.ID < b.ID
	}
}

// compareStarted orders by start time, unknown start times last.
func compareStarted(a, b *task.Enriched) bool {
	if !a.StartedAt.Set() {
		return false
	}
	if !b.StartedAt.Set() {
		return true
	}
	return a.StartedAt.Before(b.StartedAt.Time)
}

// ValidSortFields returns the list of valid --sort field names.
func ValidSortFields() []string {
	return []string{fieldID, fieldStatus, fieldAgent, "started", "changes"}
}
