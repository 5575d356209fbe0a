package board

import (
	"github.com/twiced-technology-gmbh/swarmwatch/internal/status"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/task"
)

// ListOptions controls how enriched tasks are listed.
type ListOptions struct {
	Filter  FilterOptions
	SortBy  string
	Reverse bool
	Limit   int
}

// List filters, sorts, and truncates tasks. The input slice is not modified.
func List(tasks []*task.Enriched, opts ListOptions) []*task.Enriched {
	result := Filter(tasks, opts.Filter)

	sortField := opts.SortBy
	if sortField == "" {
		sortField = fieldID
	}
	Sort(result, sortField, opts.Reverse)

	if opts.Limit > 0 && len(result) > opts.Limit {
		result = result[:opts.Limit]
	}
	return result
}

// StatusSummary holds metrics for a single status column.
type StatusSummary struct {
	Status    string `json:"status"`
	Count     int    `json:"count"`
	Alive     int    `json:"alive"`
	Inferred  int    `json:"inferred"`
	Files     int    `json:"files"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
}

// AgentCount holds a count for one agent.
type AgentCount struct {
	Agent string `json:"agent"`
	Count int    `json:"count"`
}

// Overview is the aggregate view of a swarm.
type Overview struct {
	Source     string          `json:"source"`
	TotalTasks int             `json:"total_tasks"`
	Alive      int             `json:"alive"`
	Statuses   []StatusSummary `json:"statuses"`
	Agents     []AgentCount    `json:"agents"`
}

// Summary computes the overview of tasks, one row per canonical status.
func Summary(source string, tasks []*task.Enriched) Overview {
	o := Overview{Source: source, TotalTasks: len(tasks), Statuses: statusSummary(tasks)}
	for _, t := range tasks {
		if t.TmuxAlive {
			o.Alive++
		}
	}

	grouped := GroupBy(tasks, fieldAgent)
	o.Agents = make([]AgentCount, 0, len(grouped.Groups))
	for _, g := range grouped.Groups {
		o.Agents = append(o.Agents, AgentCount{Agent: g.Key, Count: g.Total})
	}
	return o
}

func statusSummary(tasks []*task.Enriched) []StatusSummary {
	rows := make([]StatusSummary, len(status.All))
	for i, s := range status.All {
		rows[i].Status = string(s)
	}
	for _, t := range tasks {
		i := status.Index(status.Parse(t.Status))
		if i >= len(rows) {
			continue
		}
		r := &rows[i]
		r.Count++
		if t.TmuxAlive {
			r.Alive++
		}
		if t.Inferred() {
			r.Inferred++
		}
		r.Files += t.LiveFileCount()
		r.Additions += t.LiveAdditions()
		r.Deletions += t.LiveDeletions()
	}
	return rows
}
