// Package enrich runs the per-poll enrichment pass: load the task store,
// then derive tmux liveness, effective status, and live file changes for
// every task.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/twiced-technology-gmbh/swarmwatch/internal/changes"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/config"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/git"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/logging"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/status"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/task"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/tmux"
)

// ErrTaskNotFound is returned by Pipeline.Task for an unknown id.
var ErrTaskNotFound = errors.New("task not found")

// Snapshot is the result of one enrichment pass.
type Snapshot struct {
	Tasks     []*task.Enriched `json:"tasks"`
	Source    string           `json:"source"`
	Timestamp time.Time        `json:"timestamp"`
	// Error describes a store failure; Tasks is empty when set.
	Error string `json:"error,omitempty"`
	// Err is the store failure itself, for callers that map it to a status code.
	Err      error              `json:"-"`
	Warnings []task.ReadWarning `json:"-"`
}

// Pipeline enriches the task store. It is safe for concurrent use:
// overlapping Run calls share a single pass.
type Pipeline struct {
	paths    config.Paths
	resolver *status.Resolver
	changes  *changes.Aggregator
	logger   *log.Logger
	group    singleflight.Group
	now      func() time.Time
}

// New creates a Pipeline. paths must already be resolved.
func New(paths config.Paths, g git.Client, t tmux.Prober, logger *log.Logger) *Pipeline {
	return &Pipeline{
		paths:    paths,
		resolver: status.NewResolver(g, t, paths, logger),
		changes:  changes.NewAggregator(g, paths.MainBranch, logger),
		logger:   logging.Component(logger, "enrich"),
		now:      time.Now,
	}
}

// Paths returns the paths the pipeline reads.
func (p *Pipeline) Paths() config.Paths {
	return p.paths
}

// Run performs an enrichment pass, or joins one already in flight. A
// store failure yields an empty task list and a descriptive Error. The
// pass outlives a cancelled caller so other joined callers still get it.
func (p *Pipeline) Run(ctx context.Context) Snapshot {
	v, _, _ := p.group.Do("run", func() (any, error) {
		return p.run(context.WithoutCancel(ctx)), nil
	})
	return v.(Snapshot)
}

func (p *Pipeline) run(ctx context.Context) Snapshot {
	snap := Snapshot{Source: p.paths.TaskStore, Tasks: []*task.Enriched{}}

	tasks, warnings, err := task.Load(p.paths.TaskStore)
	snap.Timestamp = p.now()
	if err != nil {
		p.logger.Warn("task store unavailable", "path", p.paths.TaskStore, "err", err)
		snap.Err = err
		snap.Error = err.Error()
		return snap
	}
	for _, w := range warnings {
		p.logger.Warn("skipping task record", "index", w.Index, "err", w.Err)
	}
	snap.Warnings = warnings

	start := time.Now()
	for _, t := range tasks {
		snap.Tasks = append(snap.Tasks, p.enrich(ctx, t))
	}
	p.logger.Debug("enrichment pass", "tasks", len(snap.Tasks), "took", time.Since(start))
	return snap
}

// Task enriches a single task by id. Store failures are returned as-is;
// an unknown id returns ErrTaskNotFound.
func (p *Pipeline) Task(ctx context.Context, id string) (*task.Enriched, error) {
	tasks, _, err := task.Load(p.paths.TaskStore)
	if err != nil {
		return nil, err
	}
	t := task.Find(tasks, id)
	if t == nil {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	return p.enrich(ctx, t), nil
}

// FileChanges aggregates changes for an arbitrary directory.
func (p *Pipeline) FileChanges(ctx context.Context, dir string) *changes.Result {
	return p.changes.FileChanges(ctx, dir)
}

// WorktreePath returns the worktree directory for t.
func (p *Pipeline) WorktreePath(t *task.Task) string {
	return filepath.Join(p.paths.WorktreeBase, t.WorktreeName())
}

func (p *Pipeline) enrich(ctx context.Context, t *task.Task) *task.Enriched {
	e := &task.Enriched{Task: t, WorktreePath: p.WorktreePath(t)}
	e.Status, e.TmuxAlive = p.resolver.Resolve(ctx, t, e.WorktreePath)
	if info, err := os.Stat(e.WorktreePath); err == nil && info.IsDir() {
		e.Changes = p.changes.FileChanges(ctx, e.WorktreePath)
	}
	return e
}
