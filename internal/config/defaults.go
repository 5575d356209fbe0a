// Package config handles swarmwatch configuration: where the task store and
// worktrees live, probe binaries and timeouts, and server settings.
package config

const (
	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yml"
	// DefaultConfigDir is the config directory relative to the home directory.
	DefaultConfigDir = ".config/swarmwatch"
	// EnvConfig names the environment variable that points at a config file.
	EnvConfig = "SWARMWATCH_CONFIG"

	// CurrentVersion is the current config schema version.
	CurrentVersion = 1

	// DefaultTaskStore is the task store written by the spawn script.
	DefaultTaskStore = "~/.swarm/active-tasks.json"
	// DefaultWorktreeBase is the directory holding one worktree per task.
	DefaultWorktreeBase = "~/.swarm/worktrees"
	// DefaultRepoDir is the repository consulted when a worktree is gone.
	DefaultRepoDir = "."
	// DefaultMainBranch is the trunk branch name.
	DefaultMainBranch = "main"

	// DefaultGitBinary and DefaultTmuxBinary are looked up on PATH.
	DefaultGitBinary  = "git"
	DefaultTmuxBinary = "tmux"
	// DefaultGitTimeout bounds every git invocation.
	DefaultGitTimeout = "10s"
	// MaxGitTimeout is the largest git timeout accepted.
	MaxGitTimeout = "15s"
	// DefaultTmuxTimeout bounds every tmux invocation.
	DefaultTmuxTimeout = "3s"

	// DefaultAddr is the HTTP listen address.
	DefaultAddr = "127.0.0.1:4545"
	// DefaultPushInterval is the SSE push period.
	DefaultPushInterval = "5s"
	// DefaultRecentCommits is the number of commits included in git views.
	DefaultRecentCommits = 10

	// DefaultLogLevel is the log level when none is configured.
	DefaultLogLevel = "info"
)

// LogLevels lists the accepted log.level values.
var LogLevels = []string{"debug", "info", "warn", "error"}
