package task

import (
	"encoding/json"

	"github.com/twiced-technology-gmbh/swarmwatch/internal/changes"
)

// Enriched is a Task plus the fields derived from live tmux and git state
// on one poll. It is never persisted.
type Enriched struct {
	*Task

	// Status is the effective status: the declared status, or the
	// inference result when the declared status was a stale "running".
	Status       string
	TmuxAlive    bool
	WorktreePath string
	// Changes is nil when the worktree does not exist or aggregation failed.
	Changes *changes.Result
}

// DeclaredStatus returns the status as written in the store.
func (e Enriched) DeclaredStatus() string {
	return e.Task.Status
}

// Inferred reports whether the effective status differs from the declared one.
func (e Enriched) Inferred() bool {
	return e.Status != e.Task.Status
}

// LiveFileCount returns the number of changed files, or 0.
func (e Enriched) LiveFileCount() int {
	if e.Changes == nil {
		return 0
	}
	return e.Changes.TotalFiles
}

// LiveAdditions returns the total added lines, or 0.
func (e Enriched) LiveAdditions() int {
	if e.Changes == nil {
		return 0
	}
	return e.Changes.TotalAdditions
}

// LiveDeletions returns the total deleted lines, or 0.
func (e Enriched) LiveDeletions() int {
	if e.Changes == nil {
		return 0
	}
	return e.Changes.TotalDeletions
}

// MarshalJSON emits one flat object: the source record with the derived
// fields overlaid. Unknown source fields pass through unchanged.
func (e Enriched) MarshalJSON() ([]byte, error) {
	m := e.Task.Fields()

	put := func(name string, v any) error {
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		m[name] = b
		return nil
	}

	if err := put("status", e.Status); err != nil {
		return nil, err
	}
	if e.Inferred() {
		if err := put("declaredStatus", e.Task.Status); err != nil {
			return nil, err
		}
	}
	if err := put("tmuxAlive", e.TmuxAlive); err != nil {
		return nil, err
	}
	if err := put("worktreePath", e.WorktreePath); err != nil {
		return nil, err
	}
	if e.Changes != nil {
		files := e.Changes.Files
		if files == nil {
			files = []changes.FileChange{}
		}
		for name, v := range map[string]any{
			"liveFileCount": e.Changes.TotalFiles,
			"liveAdditions": e.Changes.TotalAdditions,
			"liveDeletions": e.Changes.TotalDeletions,
			"liveFiles":     files,
		} {
			if err := put(name, v); err != nil {
				return nil, err
			}
		}
	}
	return marshalObject(m)
}
