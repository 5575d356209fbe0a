// Package gitview builds the descriptive git views served to dashboards:
// a directory's status snapshot, its recent commits, and single-commit
// diffs. Unlike the probes it returns errors, so callers can tell a
// missing directory from a directory that is not a repository.
package gitview

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/twiced-technology-gmbh/swarmwatch/internal/changes"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/git"
)

// Sentinel errors.
var (
	ErrDirNotFound    = errors.New("directory not found")
	ErrNotRepository  = errors.New("not a git repository")
	ErrInvalidCommit  = errors.New("invalid commit hash")
	ErrCommitNotFound = errors.New("commit not found")
)

// DefaultCommits is the number of commits Status includes when n <= 0.
const DefaultCommits = 10

var hashPattern = regexp.MustCompile(`^[0-9a-fA-F]{7,40}$`)

// logFormat separates fields with the ASCII unit separator.
const logFormat = "--format=%H%x1f%h%x1f%s%x1f%an%x1f%aI"

// Commit is one entry of a commit log.
type Commit struct {
	Hash    string    `json:"hash"`
	Short   string    `json:"short"`
	Subject string    `json:"subject"`
	Author  string    `json:"author"`
	Date    time.Time `json:"date"`
}

// Snapshot describes the state of one working directory.
type Snapshot struct {
	Directory    string   `json:"directory"`
	Branch       string   `json:"branch"`
	Clean        bool     `json:"clean"`
	ChangedFiles int      `json:"changedFiles"`
	Status       string   `json:"status"`
	Commits      []Commit `json:"commits"`
	DiffStat     string   `json:"diffStat"`
}

// Stats totals a diff.
type Stats struct {
	Files     int `json:"files"`
	Additions int `json:"additions"`
	Deletions int `json:"deletions"`
}

// Diff is one commit's change against its parent.
type Diff struct {
	Commit Commit               `json:"commit"`
	Parent string               `json:"parent"`
	Patch  string               `json:"patch"`
	Files  []changes.FileChange `json:"files"`
	Stats  Stats                `json:"stats"`
}

// Viewer runs git views through a git.Client.
type Viewer struct {
	git git.Client
}

// New creates a Viewer.
func New(client git.Client) *Viewer {
	return &Viewer{git: client}
}

// Status returns the snapshot of dir with its n most recent commits.
func (v *Viewer) Status(ctx context.Context, dir string, n int) (*Snapshot, error) {
	if err := v.checkRepo(ctx, dir); err != nil {
		return nil, err
	}
	if n <= 0 {
		n = DefaultCommits
	}

	short := v.git.Output(ctx, dir, "status", "--short")
	return &Snapshot{
		Directory:    dir,
		Branch:       v.git.Output(ctx, dir, "rev-parse", "--abbrev-ref", "HEAD"),
		Clean:        short == "",
		ChangedFiles: len(git.Lines(short)),
		Status:       short,
		Commits:      v.RecentCommits(ctx, dir, n),
		DiffStat:     v.git.Output(ctx, dir, "diff", "--stat"),
	}, nil
}

// RecentCommits returns up to n commits reachable from HEAD, newest first.
// A directory without commits yields an empty list.
func (v *Viewer) RecentCommits(ctx context.Context, dir string, n int) []Commit {
	if n <= 0 {
		n = DefaultCommits
	}
	return parseLog(v.git.Output(ctx, dir, "log", "-n", strconv.Itoa(n), logFormat))
}

// CommitDiff returns the diff of hash against its first parent, or
// against the empty tree for a root commit.
func (v *Viewer) CommitDiff(ctx context.Context, dir, hash string) (*Diff, error) {
	if !hashPattern.MatchString(hash) {
		return nil, fmt.Errorf("%w: %q (expected 7-40 hex characters)", ErrInvalidCommit, hash)
	}
	if err := v.checkRepo(ctx, dir); err != nil {
		return nil, err
	}

	full := v.git.Output(ctx, dir, "rev-parse", "--verify", "--quiet", hash+"^{commit}")
	if full == "" {
		return nil, fmt.Errorf("%w: %s", ErrCommitNotFound, hash)
	}

	d := &Diff{}
	if parent := v.git.Output(ctx, dir, "rev-parse", "--verify", "--quiet", full+"^"); parent != "" {
		d.Parent = parent
		d.Patch = v.git.Output(ctx, dir, "diff", parent, full)
		d.Files = changes.ParseNumstat(v.git.Output(ctx, dir, "diff", "--numstat", parent, full))
	} else {
		// Not every git build resolves the empty tree object; diff-tree
		// --root compares against it implicitly.
		d.Parent = git.EmptyTree
		d.Patch = v.git.Output(ctx, dir, "diff-tree", "--root", "--no-commit-id", "-p", "-r", full)
		d.Files = changes.ParseNumstat(v.git.Output(ctx, dir, "diff-tree", "--root", "--no-commit-id", "--numstat", "-r", full))
	}
	if commits := parseLog(v.git.Output(ctx, dir, "log", "-n", "1", logFormat, full)); len(commits) > 0 {
		d.Commit = commits[0]
	} else {
		d.Commit = Commit{Hash: full, Short: full[:7]}
	}
	if d.Files == nil {
		d.Files = []changes.FileChange{}
	}
	for _, f := range d.Files {
		d.Stats.Additions += f.Additions
		d.Stats.Deletions += f.Deletions
	}
	d.Stats.Files = len(d.Files)
	return d, nil
}

func (v *Viewer) checkRepo(ctx context.Context, dir string) error {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrDirNotFound, dir)
	}
	if v.git.Output(ctx, dir, "rev-parse", "--is-inside-work-tree") != "true" {
		return fmt.Errorf("%w: %s", ErrNotRepository, dir)
	}
	return nil
}

func parseLog(out string) []Commit {
	commits := []Commit{}
	for _, line := range git.Lines(out) {
		parts := strings.Split(line, "\x1f")
		if len(parts) != 5 { //nolint:mnd // fields in logFormat
			continue
		}
		c := Commit{Hash: parts[0], Short: parts[1], Subject: parts[2], Author: parts[3]}
		if t, err := time.Parse(time.RFC3339, parts[4]); err == nil {
			c.Date = t
		}
		commits = append(commits, c)
	}
	return commits
}
