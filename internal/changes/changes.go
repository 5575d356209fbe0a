// Package changes aggregates the lines a worktree has touched across its
// committed, staged, unstaged, and untracked layers.
package changes

import (
	"cmp"
	"context"
	"os"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/twiced-technology-gmbh/swarmwatch/internal/git"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/logging"
)

// FileChange is one file's change magnitude within a worktree.
type FileChange struct {
	Path      string `json:"path"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
}

// Total returns additions plus deletions.
func (f FileChange) Total() int { return f.Additions + f.Deletions }

// Result is the aggregate for one worktree. Files are sorted by Total
// descending and hold at most one entry per path.
type Result struct {
	Directory      string       `json:"directory"`
	Files          []FileChange `json:"files"`
	TotalFiles     int          `json:"totalFiles"`
	TotalAdditions int          `json:"totalAdditions"`
	TotalDeletions int          `json:"totalDeletions"`
}

// Aggregator computes Results with a git.Client.
type Aggregator struct {
	git        git.Client
	mainBranch string
	logger     *log.Logger
}

// NewAggregator returns an Aggregator diffing against mainBranch.
func NewAggregator(client git.Client, mainBranch string, logger *log.Logger) *Aggregator {
	if mainBranch == "" {
		mainBranch = "main"
	}
	return &Aggregator{git: client, mainBranch: mainBranch, logger: logging.Component(logger, "changes")}
}

// FileChanges returns the unioned file changes for dir, or nil when dir
// does not exist. Layers are summed per path, not overwritten: a file
// committed ahead of trunk and then staged again reports both amounts.
func (a *Aggregator) FileChanges(ctx context.Context, dir string) (res *Result) {
	if _, err := os.Stat(dir); err != nil {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("file change aggregation panicked", "dir", dir, "panic", r)
			res = nil
		}
	}()

	acc := newAccumulator()

	acc.add(ParseNumstat(a.committed(ctx, dir)))
	acc.add(ParseNumstat(a.git.Output(ctx, dir, "diff", "--cached", "--numstat")))
	acc.add(ParseNumstat(a.git.Output(ctx, dir, "diff", "--numstat")))
	for _, path := range git.Lines(a.git.Output(ctx, dir, "ls-files", "--others", "--exclude-standard")) {
		acc.touch(path)
	}

	return acc.result(dir)
}

// committed returns the numstat of everything the branch has done
// relative to trunk. Strategies run in order until one resolves a base;
// the root-commit diff is the last resort when no trunk relationship exists.
func (a *Aggregator) committed(ctx context.Context, dir string) string {
	trunks := []string{a.mainBranch, "origin/" + a.mainBranch}

	resolvedBase := false
	for _, trunk := range trunks {
		base := a.git.Output(ctx, dir, "merge-base", trunk, "HEAD")
		if base == "" {
			continue
		}
		resolvedBase = true
		if out := a.git.Output(ctx, dir, "diff", "--numstat", base, "HEAD"); out != "" {
			return out
		}
	}
	if resolvedBase {
		return ""
	}

	if parent, ok := a.forkParent(ctx, dir, trunks); ok {
		return a.git.Output(ctx, dir, "diff", "--numstat", parent, "HEAD")
	}

	roots := git.Lines(a.git.Output(ctx, dir, "rev-list", "--max-parents=0", "HEAD"))
	if len(roots) == 0 {
		return ""
	}
	return a.git.Output(ctx, dir, "diff", "--numstat", roots[0], "HEAD")
}

// forkParent finds the parent of the oldest commit reachable from HEAD but
// from none of the resolvable trunk refs.
func (a *Aggregator) forkParent(ctx context.Context, dir string, trunks []string) (string, bool) {
	args := []string{"rev-list", "--reverse", "HEAD", "--not"}
	found := false
	for _, trunk := range trunks {
		if a.git.Succeeds(ctx, dir, "rev-parse", "--verify", "--quiet", trunk) {
			args = append(args, trunk)
			found = true
		}
	}
	if !found {
		return "", false
	}

	exclusive := git.Lines(a.git.Output(ctx, dir, args...))
	if len(exclusive) == 0 {
		return "", false
	}
	parent := a.git.Output(ctx, dir, "rev-parse", "--verify", "--quiet", exclusive[0]+"^")
	return parent, parent != ""
}

type accumulator struct {
	byPath map[string]*FileChange
}

func newAccumulator() *accumulator {
	return &accumulator{byPath: make(map[string]*FileChange)}
}

func (acc *accumulator) add(files []FileChange) {
	for _, f := range files {
		fc := acc.touch(f.Path)
		fc.Additions += f.Additions
		fc.Deletions += f.Deletions
	}
}

func (acc *accumulator) touch(path string) *FileChange {
	fc, ok := acc.byPath[path]
	if !ok {
		fc = &FileChange{Path: path}
		acc.byPath[path] = fc
	}
	return fc
}

func (acc *accumulator) result(dir string) *Result {
	files := make([]FileChange, 0, len(acc.byPath))
	for _, fc := range acc.byPath {
		files = append(files, *fc)
	}
	SortFiles(files)

	res := &Result{Directory: dir, Files: files, TotalFiles: len(files)}
	for _, f := range files {
		res.TotalAdditions += f.Additions
		res.TotalDeletions += f.Deletions
	}
	return res
}

// SortFiles orders files biggest change first, breaking ties by path so
// repeated runs over the same tree produce identical output.
func SortFiles(files []FileChange) {
	slices.SortFunc(files, func(x, y FileChange) int {
		if c := cmp.Compare(y.Total(), x.Total()); c != 0 {
			return c
		}
		return cmp.Compare(x.Path, y.Path)
	})
}
