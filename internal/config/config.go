package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"go.yaml.in/yaml/v3"

	"github.com/twiced-technology-gmbh/swarmwatch/internal/filelock"
)

const fileMode = 0o600

// Sentinel errors.
var (
	ErrNotFound = errors.New("config file not found (run 'swarmwatch init' to create one)")
	ErrInvalid  = errors.New("invalid config")
)

// Config represents the swarmwatch configuration file.
type Config struct {
	Version int          `yaml:"version" toml:"version"`
	Paths   Paths        `yaml:"paths" toml:"paths"`
	Git     ProbeConfig  `yaml:"git" toml:"git"`
	Tmux    ProbeConfig  `yaml:"tmux" toml:"tmux"`
	Server  ServerConfig `yaml:"server" toml:"server"`
	Log     LogConfig    `yaml:"log" toml:"log"`

	// path is the file the config was loaded from (not serialized).
	path string `yaml:"-" toml:"-"`
}

// Paths locates everything the enrichment engine reads. Values in a file
// may use ~ and relative paths; Resolved returns them expanded.
type Paths struct {
	TaskStore    string `yaml:"task_store" toml:"task_store" json:"task_store"`
	WorktreeBase string `yaml:"worktree_base" toml:"worktree_base" json:"worktree_base"`
	RepoDir      string `yaml:"repo_dir" toml:"repo_dir" json:"repo_dir"`
	MainBranch   string `yaml:"main_branch" toml:"main_branch" json:"main_branch"`
	PromptsDir   string `yaml:"prompts_dir,omitempty" toml:"prompts_dir,omitempty" json:"prompts_dir,omitempty"`
}

// ProbeConfig configures an external binary and its per-call timeout.
type ProbeConfig struct {
	Binary  string `yaml:"binary" toml:"binary" json:"binary"`
	Timeout string `yaml:"timeout" toml:"timeout" json:"timeout"` // duration string, e.g. "10s"
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr          string `yaml:"addr" toml:"addr" json:"addr"`
	PushInterval  string `yaml:"push_interval" toml:"push_interval" json:"push_interval"`
	RecentCommits int    `yaml:"recent_commits" toml:"recent_commits" json:"recent_commits"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level" toml:"level" json:"level"`
}

// NewDefault creates a Config with default values.
func NewDefault() *Config {
	return &Config{
		Version: CurrentVersion,
		Paths: Paths{
			TaskStore:    DefaultTaskStore,
			WorktreeBase: DefaultWorktreeBase,
			RepoDir:      DefaultRepoDir,
			MainBranch:   DefaultMainBranch,
		},
		Git:  ProbeConfig{Binary: DefaultGitBinary, Timeout: DefaultGitTimeout},
		Tmux: ProbeConfig{Binary: DefaultTmuxBinary, Timeout: DefaultTmuxTimeout},
		Server: ServerConfig{
			Addr:          DefaultAddr,
			PushInterval:  DefaultPushInterval,
			RecentCommits: DefaultRecentCommits,
		},
		Log: LogConfig{Level: DefaultLogLevel},
	}
}

// Path returns the file the config was loaded from or will be saved to.
func (c *Config) Path() string {
	return c.path
}

// SetPath sets the config file path.
func (c *Config) SetPath(path string) {
	c.path = path
}

// Validate checks the config for errors.
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return fmt.Errorf("%w: unsupported version %d (expected %d)", ErrInvalid, c.Version, CurrentVersion)
	}
	if c.Paths.TaskStore == "" {
		return fmt.Errorf("%w: paths.task_store is required", ErrInvalid)
	}
	if c.Paths.WorktreeBase == "" {
		return fmt.Errorf("%w: paths.worktree_base is required", ErrInvalid)
	}
	if c.Paths.MainBranch == "" {
		return fmt.Errorf("%w: paths.main_branch is required", ErrInvalid)
	}
	if strings.ContainsAny(c.Paths.MainBranch, " \t\n") || strings.HasPrefix(c.Paths.MainBranch, "-") {
		return fmt.Errorf("%w: paths.main_branch %q is not a branch name", ErrInvalid, c.Paths.MainBranch)
	}
	if err := validateProbe("git", c.Git, MaxGitTimeout); err != nil {
		return err
	}
	if err := validateProbe("tmux", c.Tmux, ""); err != nil {
		return err
	}
	return c.validateServer()
}

func validateProbe(name string, p ProbeConfig, maxTimeout string) error {
	if p.Binary == "" {
		return fmt.Errorf("%w: %s.binary is required", ErrInvalid, name)
	}
	d, err := time.ParseDuration(p.Timeout)
	if err != nil {
		return fmt.Errorf("%w: invalid %s.timeout %q: %w", ErrInvalid, name, p.Timeout, err)
	}
	if d <= 0 {
		return fmt.Errorf("%w: %s.timeout must be positive", ErrInvalid, name)
	}
	if maxTimeout != "" {
		limit, _ := time.ParseDuration(maxTimeout)
		if d > limit {
			return fmt.Errorf("%w: %s.timeout %s exceeds %s", ErrInvalid, name, p.Timeout, maxTimeout)
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("%w: server.addr is required", ErrInvalid)
	}
	d, err := time.ParseDuration(c.Server.PushInterval)
	if err != nil {
		return fmt.Errorf("%w: invalid server.push_interval %q: %w", ErrInvalid, c.Server.PushInterval, err)
	}
	if d < time.Second {
		return fmt.Errorf("%w: server.push_interval must be at least 1s", ErrInvalid)
	}
	if c.Server.RecentCommits < 1 {
		return fmt.Errorf("%w: server.recent_commits must be >= 1", ErrInvalid)
	}
	if IndexOf(LogLevels, c.Log.Level) < 0 {
		return fmt.Errorf("%w: log.level %q not one of %s", ErrInvalid, c.Log.Level, strings.Join(LogLevels, ", "))
	}
	return nil
}

// GitTimeout returns the parsed git timeout, or the default when unparseable.
func (c *Config) GitTimeout() time.Duration {
	return parseDuration(c.Git.Timeout, DefaultGitTimeout)
}

// TmuxTimeout returns the parsed tmux timeout, or the default when unparseable.
func (c *Config) TmuxTimeout() time.Duration {
	return parseDuration(c.Tmux.Timeout, DefaultTmuxTimeout)
}

// PushInterval returns the parsed SSE push interval, or the default when unparseable.
func (c *Config) PushInterval() time.Duration {
	return parseDuration(c.Server.PushInterval, DefaultPushInterval)
}

func parseDuration(s, fallback string) time.Duration {
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	d, _ := time.ParseDuration(fallback)
	return d
}

// Resolved returns the paths with ~ expanded and relative paths made
// absolute against the working directory, so repo_dir "." follows the
// shell the command runs in.
func (c *Config) Resolved() (Paths, error) {
	return c.Paths.Resolve("")
}

// Resolve expands ~ and makes every path absolute, joining relative
// paths to base (the working directory when base is empty).
func (p Paths) Resolve(base string) (Paths, error) {
	out := p
	for _, field := range []*string{&out.TaskStore, &out.WorktreeBase, &out.RepoDir, &out.PromptsDir} {
		if *field == "" {
			continue
		}
		v, err := ExpandPath(*field, base)
		if err != nil {
			return Paths{}, err
		}
		*field = v
	}
	if out.MainBranch == "" {
		out.MainBranch = DefaultMainBranch
	}
	return out, nil
}

// ExpandPath expands a leading ~ and makes path absolute relative to base.
func ExpandPath(path, base string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	if !filepath.IsAbs(path) && base != "" {
		path = filepath.Join(base, path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", path, err)
	}
	return abs, nil
}

// DefaultPath returns ~/.config/swarmwatch/config.yml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, DefaultConfigDir, ConfigFileName), nil
}

// Locate picks the config file: the explicit path, else $SWARMWATCH_CONFIG,
// else the default location. explicit reports whether the file was named
// by the user, in which case it must exist.
func Locate(flagPath string) (path string, explicit bool, err error) {
	if flagPath != "" {
		return flagPath, true, nil
	}
	if env := os.Getenv(EnvConfig); env != "" {
		return env, true, nil
	}
	path, err = DefaultPath()
	return path, false, err
}

// LoadOrDefault loads the config named by Locate. A missing default file
// yields the default config with its path set, so init and Save know
// where to write it.
func LoadOrDefault(flagPath string) (*Config, error) {
	path, explicit, err := Locate(flagPath)
	if err != nil {
		return nil, err
	}
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}
	if errors.Is(err, ErrNotFound) && !explicit {
		cfg = NewDefault()
		cfg.path = path
		return cfg, nil
	}
	return nil, err
}

// Load reads and validates a config file. Files ending in .toml are
// decoded as TOML, everything else as YAML. Keys absent from the file
// keep their defaults.
func Load(path string) (*Config, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	data, err := os.ReadFile(absPath) //nolint:gosec // config path from trusted source
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, absPath)
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := NewDefault()
	cfg.Version = 0
	if isTOML(absPath) {
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("%w: parsing %s: %w", ErrInvalid, absPath, err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %w", ErrInvalid, absPath, err)
	}

	cfg.path = absPath

	if err := migrate(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the config to its file, creating the parent directory.
func (c *Config) Save() error {
	if c.path == "" {
		return errors.New("config has no file path")
	}
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	const dirMode = 0o750
	if err := os.MkdirAll(filepath.Dir(c.path), dirMode); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return os.WriteFile(c.path, data, fileMode)
}

// LockPath returns the lock file guarding writes to the config at path.
func LockPath(path string) string {
	return path + ".lock"
}

// Lock takes the exclusive write lock for the config file at path,
// creating its directory if needed. Hold it across load, modify, and Save
// so concurrent writers do not drop each other's changes.
func Lock(path string) (unlock func() error, err error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	const dirMode = 0o750
	if err := os.MkdirAll(filepath.Dir(absPath), dirMode); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}
	unlock, err = filelock.Lock(LockPath(absPath))
	if err != nil {
		return nil, fmt.Errorf("locking config: %w", err)
	}
	return unlock, nil
}

// Marshal encodes the config in the format implied by its path.
func (c *Config) Marshal() ([]byte, error) {
	if isTOML(c.path) {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(c); err != nil {
			return nil, fmt.Errorf("marshaling config: %w", err)
		}
		return buf.Bytes(), nil
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return data, nil
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// IndexOf returns the index of item in slice, or -1 if not found.
func IndexOf(slice []string, item string) int {
	for i, s := range slice {
		if s == item {
			return i
		}
	}
	return -1
}
