package board

import (
	"sort"

	"github.com/twiced-technology-gmbh/swarmwatch/internal/status"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/task"
)

const (
	fieldID     = "id"
	fieldStatus = "status"
	fieldAgent  = "agent"
	fieldModel  = "model"
)

// GroupedSummary holds tasks grouped by a field.
type GroupedSummary struct {
	Groups []GroupSummary `json:"groups"`
}

// GroupSummary is one group within a grouped view.
type GroupSummary struct {
	Key      string          `json:"key"`
	Statuses []StatusSummary `json:"statuses"`
	Total    int             `json:"total"`
}

// GroupBy groups tasks by the specified field and returns summaries per group.
func GroupBy(tasks []*task.Enriched, field string) GroupedSummary {
	groups := make(map[string][]*task.Enriched)
	for _, t := range tasks {
		key := groupKey(t, field)
		groups[key] = append(groups[key], t)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	if field == fieldStatus {
		sort.SliceStable(keys, func(i, j int) bool {
			return status.Index(status.Status(keys[i])) < status.Index(status.Status(keys[j]))
		})
	} else {
		sort.Strings(keys)
	}

	result := GroupedSummary{Groups: make([]GroupSummary, 0, len(keys))}
	for _, key := range keys {
		result.Groups = append(result.Groups, GroupSummary{
			Key:      key,
			Statuses: statusSummary(groups[key]),
			Total:    len(groups[key]),
		})
	}
	return result
}

func groupKey(t *task.Enriched, field string) string {
	var v string
	switch field {
	case fieldAgent:
		v = t.Agent
	case fieldModel:
		v = t.Model
	case fieldStatus:
		return string(status.Parse(t.Status))
	default:
		return "(all)"
	}
	if v == "" {
		return "(none)"
	}
	return v
}

// ValidGroupByFields returns the list of valid --group-by field names.
func ValidGroupByFields() []string {
	return []string{fieldAgent, fieldModel, fieldStatus}
}
