package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNewDefaultIsValid(t *testing.T) {
	if err := NewDefault().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{name: "version", mutate: func(c *Config) { c.Version = 7 }, want: "unsupported version"},
		{name: "store", mutate: func(c *Config) { c.Paths.TaskStore = "" }, want: "paths.task_store"},
		{name: "worktrees", mutate: func(c *Config) { c.Paths.WorktreeBase = "" }, want: "paths.worktree_base"},
		{name: "main empty", mutate: func(c *Config) { c.Paths.MainBranch = "" }, want: "paths.main_branch"},
		{name: "main flag", mutate: func(c *Config) { c.Paths.MainBranch = "--all" }, want: "not a branch name"},
		{name: "git timeout", mutate: func(c *Config) { c.Git.Timeout = "soon" }, want: "git.timeout"},
		{name: "git timeout too long", mutate: func(c *Config) { c.Git.Timeout = "30s" }, want: "exceeds 15s"},
		{name: "tmux binary", mutate: func(c *Config) { c.Tmux.Binary = "" }, want: "tmux.binary"},
		{name: "push interval", mutate: func(c *Config) { c.Server.PushInterval = "10ms" }, want: "push_interval"},
		{name: "recent commits", mutate: func(c *Config) { c.Server.RecentCommits = 0 }, want: "recent_commits"},
		{name: "log level", mutate: func(c *Config) { c.Log.Level = "loud" }, want: "log.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefault()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("Validate() = %v, want ErrInvalid", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadYAMLKeepsDefaults(t *testing.T) {
	path := writeFile(t, "config.yml", `version: 1
paths:
  task_store: tasks.json
  main_branch: trunk
server:
  addr: ":9000"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Paths.MainBranch != "trunk" || cfg.Server.Addr != ":9000" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Paths.WorktreeBase != DefaultWorktreeBase || cfg.GitTimeout() != 10*time.Second {
		t.Errorf("defaults lost: %+v", cfg)
	}
	if cfg.Path() != path {
		t.Errorf("Path() = %q, want %q", cfg.Path(), path)
	}

	paths, err := cfg.Resolved()
	if err != nil {
		t.Fatal(err)
	}
	want, err := filepath.Abs("tasks.json")
	if err != nil {
		t.Fatal(err)
	}
	if paths.TaskStore != want {
		t.Errorf("TaskStore = %q, want %q", paths.TaskStore, want)
	}
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "config.toml", `version = 1

[paths]
task_store = "/srv/swarm/tasks.json"
worktree_base = "/srv/swarm/wt"

[tmux]
binary = "/usr/local/bin/tmux"
timeout = "2s"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Paths.WorktreeBase != "/srv/swarm/wt" || cfg.Tmux.Binary != "/usr/local/bin/tmux" {
		t.Errorf("toml values not applied: %+v", cfg)
	}
	if cfg.TmuxTimeout() != 2*time.Second {
		t.Errorf("TmuxTimeout() = %v", cfg.TmuxTimeout())
	}
	if cfg.Paths.MainBranch != DefaultMainBranch {
		t.Errorf("MainBranch = %q, want default", cfg.Paths.MainBranch)
	}
}

func TestLoadUnversionedMigrates(t *testing.T) {
	cfg, err := Load(writeFile(t, "config.yml", "paths:\n  repo_dir: /repo\n"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Version != CurrentVersion {
		t.Errorf("Version = %d, want %d", cfg.Version, CurrentVersion)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yml")); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing file: err = %v, want ErrNotFound", err)
	}
	if _, err := Load(writeFile(t, "config.yml", "version: 99\n")); !errors.Is(err, ErrInvalid) {
		t.Errorf("future version: err = %v, want ErrInvalid", err)
	}
	if _, err := Load(writeFile(t, "config.yml", "paths: [\n")); !errors.Is(err, ErrInvalid) {
		t.Errorf("bad yaml: err = %v, want ErrInvalid", err)
	}
}

func TestLoadOrDefault(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(EnvConfig, "")

	cfg, err := LoadOrDefault("")
	if err != nil {
		t.Fatalf("LoadOrDefault() error: %v", err)
	}
	if want := filepath.Join(home, DefaultConfigDir, ConfigFileName); cfg.Path() != want {
		t.Errorf("Path() = %q, want %q", cfg.Path(), want)
	}

	if _, err := LoadOrDefault(filepath.Join(home, "missing.yml")); !errors.Is(err, ErrNotFound) {
		t.Errorf("explicit missing file: err = %v, want ErrNotFound", err)
	}

	explicit := writeFile(t, "env.yml", "version: 1\nlog:\n  level: debug\n")
	t.Setenv(EnvConfig, explicit)
	cfg, err = LoadOrDefault("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("env config not used: level = %q", cfg.Log.Level)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	for _, name := range []string{"config.yml", filepath.Join("nested", "config.toml")} {
		t.Run(name, func(t *testing.T) {
			cfg := NewDefault()
			cfg.SetPath(filepath.Join(t.TempDir(), name))
			cfg.Paths.PromptsDir = "/prompts"
			cfg.Server.RecentCommits = 25
			if err := cfg.Save(); err != nil {
				t.Fatalf("Save() error: %v", err)
			}
			got, err := Load(cfg.Path())
			if err != nil {
				t.Fatalf("Load() error: %v", err)
			}
			if got.Paths != cfg.Paths || got.Server != cfg.Server || got.Git != cfg.Git {
				t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, cfg)
			}
		})
	}
}

func TestLockSerializesWriters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yml")

	unlock, err := Lock(path)
	if err != nil {
		t.Fatalf("Lock() error: %v", err)
	}
	if _, err := os.Stat(LockPath(path)); err != nil {
		t.Fatalf("lock file not created: %v", err)
	}

	acquired := make(chan func() error)
	go func() {
		second, err := Lock(path)
		if err != nil {
			t.Errorf("second Lock() error: %v", err)
			close(acquired)
			return
		}
		acquired <- second
	}()

	select {
	case <-acquired:
		t.Fatal("second writer acquired the lock while it was held")
	case <-time.After(50 * time.Millisecond):
	}

	if err := unlock(); err != nil {
		t.Fatalf("unlock() error: %v", err)
	}
	select {
	case second := <-acquired:
		if second != nil {
			_ = second()
		}
	case <-time.After(2 * time.Second):
		t.Fatal("second writer never acquired the lock")
	}
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	tests := []struct {
		in, base, want string
	}{
		{in: "~", want: home},
		{in: "~/.swarm/tasks.json", want: filepath.Join(home, ".swarm/tasks.json")},
		{in: "wt", base: "/etc/swarm", want: "/etc/swarm/wt"},
		{in: "/abs/path", base: "/ignored", want: "/abs/path"},
	}
	for _, tt := range tests {
		got, err := ExpandPath(tt.in, tt.base)
		if err != nil {
			t.Fatalf("ExpandPath(%q) error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ExpandPath(%q, %q) = %q, want %q", tt.in, tt.base, got, tt.want)
		}
	}
}
