package gittest

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// Repo is a throwaway git repository for integration tests.
type Repo struct {
	t   testing.TB
	Dir string
}

// NewRepo initializes a repository on branch main in a temp dir.
// The test is skipped when git is not installed.
func NewRepo(t testing.TB) *Repo {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	r := &Repo{t: t, Dir: t.TempDir()}
	r.Git("init", "-q")
	r.Git("symbolic-ref", "HEAD", "refs/heads/main")
	return r
}

// Git runs git in the repository and returns trimmed stdout. Failures are fatal.
func (r *Repo) Git(args ...string) string {
	r.t.Helper()
	return RunIn(r.t, r.Dir, args...)
}

// Write creates or replaces a file relative to the repository root.
func (r *Repo) Write(name, content string) {
	r.t.Helper()
	WriteIn(r.t, r.Dir, name, content)
}

// Commit stages everything and commits it with msg.
func (r *Repo) Commit(msg string) string {
	r.t.Helper()
	r.Git("add", "-A")
	r.Git("commit", "-q", "-m", msg)
	return r.Git("rev-parse", "HEAD")
}

// Worktree adds a linked worktree at path on a new branch based on base.
func (r *Repo) Worktree(path, branch, base string) {
	r.t.Helper()
	r.Git("worktree", "add", "-q", "-b", branch, path, base)
}

// RunIn runs git in dir with a fixed identity. Failures are fatal.
func RunIn(t testing.TB, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
		"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
		"GIT_CONFIG_NOSYSTEM=1", "HOME="+dir,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return strings.TrimSpace(string(out))
}

// WriteIn writes a file relative to dir, creating parent directories.
func WriteIn(t testing.TB, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}
