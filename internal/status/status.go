// Package status derives a task's effective status from its declared
// status, tmux liveness, and git ancestry.
//
// Inference only activates when the declared status is "running": any
// other declared value is trusted verbatim. A running task whose tmux
// session has died is resolved from git evidence to "completed" or
// "dead", failing toward "dead" whenever the evidence is missing.
package status

import "strings"

// Status is one of the canonical task states.
type Status string

// Canonical statuses.
const (
	Pending   Status = "pending"
	Running   Status = "running"
	Completed Status = "completed"
	Failed    Status = "failed"
	Dead      Status = "dead"
	Unknown   Status = "unknown"
)

// All lists the canonical statuses in board order.
var All = []Status{Pending, Running, Completed, Failed, Dead, Unknown}

// aliases maps declared store values onto canonical statuses.
var aliases = map[string]Status{
	"pending":          Pending,
	"ci_pending":       Pending,
	"running":          Running,
	"completed":        Completed,
	"done":             Completed,
	"ready_for_review": Completed,
	"failed":           Failed,
	"ci_failed":        Failed,
	"dead":             Dead,
	"unknown":          Unknown,
}

// Parse maps a free-form store status onto a canonical Status for
// grouping and filtering. Unrecognized values are Unknown.
func Parse(raw string) Status {
	if s, ok := aliases[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return s
	}
	return Unknown
}

// Known reports whether raw is a canonical status or a recognized alias.
func Known(raw string) bool {
	_, ok := aliases[strings.ToLower(strings.TrimSpace(raw))]
	return ok
}

// Index returns the board position of s, or len(All) for values outside All.
func Index(s Status) int {
	for i, v := range All {
		if v == s {
			return i
		}
	}
	return len(All)
}

// Terminal reports whether s is an end state.
func (s Status) Terminal() bool {
	return s == Completed || s == Failed || s == Dead
}

// String implements fmt.Stringer.
func (s Status) String() string { return string(s) }

// Signals is the git evidence Infer weighs for a stale running task.
// Resolver fills it lazily, so fields after the first decisive one may be
// left zero.
type Signals struct {
	// WorktreeExists reports whether the task's worktree directory is on disk.
	WorktreeExists bool

	// Worktree present.
	ExclusiveCommits int    // commits on HEAD not reachable from main
	HeadSHA          string // "" when unresolvable
	MainSHA          string // "" when unresolvable
	HeadMerged       bool   // HEAD is an ancestor of main

	// Worktree missing.
	Branch       string // declared branch name
	BranchMerged bool   // branch listed by "git branch -a --merged main"
	BranchExists bool   // branch ref still resolves
}

// Infer returns the effective status. It is pure: same inputs, same output.
//
// A declared status other than "running" is returned verbatim, including
// values Parse does not recognize.
func Infer(declared string, alive bool, sig Signals) string {
	if declared != string(Running) {
		return declared
	}
	if alive {
		return string(Running)
	}

	if sig.WorktreeExists {
		if sig.ExclusiveCommits > 0 {
			return string(Completed)
		}
		// HEAD == main stays dead even if main fast-forwarded over the
		// branch's work: the two cases are indistinguishable here.
		if sig.HeadSHA != "" && sig.MainSHA != "" && sig.HeadSHA != sig.MainSHA && sig.HeadMerged {
			return string(Completed)
		}
		return string(Dead)
	}

	if sig.Branch == "" {
		return string(Dead)
	}
	if sig.BranchMerged || sig.BranchExists {
		return string(Completed)
	}
	return string(Dead)
}
