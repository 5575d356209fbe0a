// Package tmux checks whether named tmux sessions are alive.
package tmux

import (
	"context"
	"os/exec"
	"time"

	"github.com/charmbracelet/log"

	"github.com/twiced-technology-gmbh/swarmwatch/internal/logging"
)

// DefaultTimeout bounds a single liveness query.
const DefaultTimeout = 3 * time.Second

// Prober reports session liveness. Liveness is binary: a failed probe and
// an absent session are both false.
type Prober interface {
	Alive(ctx context.Context, name string) bool
}

// Runner queries the real tmux server.
type Runner struct {
	Binary  string
	Timeout time.Duration
	Logger  *log.Logger
}

// NewRunner returns a Runner for binary (defaults to "tmux").
func NewRunner(binary string, timeout time.Duration, logger *log.Logger) *Runner {
	if binary == "" {
		binary = "tmux"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Runner{Binary: binary, Timeout: timeout, Logger: logging.Component(logger, "tmux")}
}

// Alive runs has-session against an exact-match target and reports a clean exit.
func (r *Runner) Alive(ctx context.Context, name string) bool {
	if name == "" {
		return false
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout())
	defer cancel()

	// "=" disables tmux's prefix matching so "task-1" never matches "task-10".
	cmd := exec.CommandContext(ctx, r.binary(), "has-session", "-t", "="+name) //nolint:gosec // name is passed as argv
	if err := cmd.Run(); err != nil {
		r.logger().Debug("session not alive", "session", name, "err", err)
		return false
	}
	return true
}

func (r *Runner) binary() string {
	if r.Binary == "" {
		return "tmux"
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

// Static is a Prober backed by a fixed set of live session names.
type Static map[string]bool

// Alive implements Prober.
func (s Static) Alive(_ context.Context, name string) bool {
	return s[name]
}
