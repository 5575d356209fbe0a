// Package git runs read-only git subcommands against worktree directories.
//
// Every call is bounded by a timeout and every failure (non-zero exit,
// timeout, missing directory, not a repository, missing binary) collapses
// into an absence signal: an empty string or false. Callers compose many
// probes and treat "empty" as "signal absent"; no error ever escapes.
package git

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/twiced-technology-gmbh/swarmwatch/internal/logging"
)

// EmptyTree is the hash of git's canonical empty tree. Root commits are
// diffed against it.
const EmptyTree = "4b825dc642cb6eb9a060e54bf899d69f82cf7137"

// DefaultTimeout bounds a single git invocation.
const DefaultTimeout = 10 * time.Second

// Client is the narrow view of git the inference and aggregation code needs.
type Client interface {
	// Output runs git with args in dir and returns trimmed stdout,
	// or "" on any failure.
	Output(ctx context.Context, dir string, args ...string) string
	// Succeeds reports whether git with args exited zero in dir.
	Succeeds(ctx context.Context, dir string, args ...string) bool
}

// Runner executes the real git binary.
type Runner struct {
	Binary  string
	Timeout time.Duration
	Logger  *log.Logger
}

// NewRunner returns a Runner for binary (defaults to "git") with the given
// per-call timeout (defaults to DefaultTimeout).
func NewRunner(binary string, timeout time.Duration, logger *log.Logger) *Runner {
	if binary == "" {
		binary = "git"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Runner{Binary: binary, Timeout: timeout, Logger: logging.Component(logger, "git")}
}

// Output implements Client.
func (r *Runner) Output(ctx context.Context, dir string, args ...string) string {
	out, err := r.run(ctx, dir, args)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(out)
}

// Succeeds implements Client.
func (r *Runner) Succeeds(ctx context.Context, dir string, args ...string) bool {
	_, err := r.run(ctx, dir, args)
	return err == nil
}

func (r *Runner) run(ctx context.Context, dir string, args []string) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout())
	defer cancel()

	cmd := exec.CommandContext(ctx, r.binary(), args...) //nolint:gosec // args are fixed subcommands plus refs
	cmd.Dir = dir
	// Read commands must never take the index lock or wait on a credential prompt.
	cmd.Env = append(os.Environ(), "GIT_OPTIONAL_LOCKS=0", "GIT_TERMINAL_PROMPT=0")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		r.logger().Debug("git probe failed",
			"dir", dir,
			"args", strings.Join(args, " "),
			"err", err,
			"stderr", strings.TrimSpace(stderr.String()))
		return "", err
	}
	return stdout.String(), nil
}

func (r *Runner) binary() string {
	if r.Binary == "" {
		return "git"
	}
	return r.Binary
}

func (r *Runner) timeout() time.Duration {
	if r.Timeout <= 0 {
		return DefaultTimeout
	}
	return r.Timeout
}

func (r *Runner) logger() *log.Logger {
	if r.Logger == nil {
		return logging.Discard()
	}
	return r.Logger
}

// Lines splits trimmed command output into non-empty lines.
func Lines(out string) []string {
	if out == "" {
		return nil
	}
	raw := strings.Split(out, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimRight(l, "\r")
		if strings.TrimSpace(l) == "" {
			continue
		}
		lines = append(lines, l)
	}
	return lines
}
