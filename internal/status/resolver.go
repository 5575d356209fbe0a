package status

import (
	"context"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/twiced-technology-gmbh/swarmwatch/internal/config"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/git"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/logging"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/task"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/tmux"
)

// Resolver probes tmux and git for one task and applies Infer.
type Resolver struct {
	git    git.Client
	tmux   tmux.Prober
	paths  config.Paths
	logger *log.Logger
}

// NewResolver creates a Resolver. paths must already be resolved.
func NewResolver(g git.Client, t tmux.Prober, paths config.Paths, logger *log.Logger) *Resolver {
	if paths.MainBranch == "" {
		paths.MainBranch = config.DefaultMainBranch
	}
	return &Resolver{git: g, tmux: t, paths: paths, logger: logging.Component(logger, "status")}
}

// Resolve returns the effective status of t and whether its tmux session
// is alive. worktreePath is the task's worktree directory, which may not
// exist. Git is only consulted for a running task whose session is gone,
// and only until a decisive signal is found. A panic while gathering
// evidence resolves to "dead".
func (r *Resolver) Resolve(ctx context.Context, t *task.Task, worktreePath string) (status string, alive bool) {
	alive = r.tmux.Alive(ctx, t.Session())
	if t.Status != string(Running) || alive {
		return Infer(t.Status, alive, Signals{}), alive
	}

	defer func() {
		if p := recover(); p != nil {
			r.logger.Warn("status inference panicked", "task", t.ID, "panic", p)
			status = string(Dead)
		}
	}()

	sig := r.gather(ctx, t, worktreePath)
	status = Infer(t.Status, false, sig)
	r.logger.Debug("inferred status", "task", t.ID, "status", status,
		"worktree", sig.WorktreeExists, "exclusive", sig.ExclusiveCommits)
	return status, false
}

// gather collects signals in the order Infer weighs them, stopping at the
// first one that decides the outcome.
func (r *Resolver) gather(ctx context.Context, t *task.Task, worktreePath string) Signals {
	sig := Signals{Branch: t.Branch}
	trunk := r.paths.MainBranch

	if info, err := os.Stat(worktreePath); err == nil && info.IsDir() {
		sig.WorktreeExists = true
		sig.ExclusiveCommits = len(git.Lines(r.git.Output(ctx, worktreePath, "log", "--format=%H", "HEAD", "--not", trunk)))
		if sig.ExclusiveCommits > 0 {
			return sig
		}
		sig.HeadSHA = r.git.Output(ctx, worktreePath, "rev-parse", "HEAD")
		sig.MainSHA = r.git.Output(ctx, worktreePath, "rev-parse", trunk)
		if sig.HeadSHA == "" || sig.MainSHA == "" || sig.HeadSHA == sig.MainSHA {
			return sig
		}
		sig.HeadMerged = r.git.Succeeds(ctx, worktreePath, "merge-base", "--is-ancestor", "HEAD", trunk)
		return sig
	}

	if t.Branch == "" || strings.HasPrefix(t.Branch, "-") {
		return sig
	}
	repo := r.paths.RepoDir
	merged := r.git.Output(ctx, repo, "branch", "-a", "--merged", trunk)
	sig.BranchMerged = BranchListed(merged, t.Branch)
	if sig.BranchMerged {
		return sig
	}
	sig.BranchExists = r.git.Output(ctx, repo, "rev-parse", "--verify", "--quiet", t.Branch) != ""
	return sig
}

// BranchListed reports whether "git branch -a" output lists branch, either
// locally or as remotes/origin/<branch>.
func BranchListed(out, branch string) bool {
	remote := "remotes/origin/" + branch
	for _, line := range git.Lines(out) {
		// Symrefs such as "remotes/origin/HEAD -> origin/main" name no branch.
		if strings.Contains(line, " -> ") {
			continue
		}
		name := strings.TrimSpace(strings.TrimLeft(line, "*+ "))
		if name == branch || name == remote {
			return true
		}
	}
	return false
}
