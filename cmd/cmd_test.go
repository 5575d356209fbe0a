package cmd

import (
	"testing"

	"github.com/spf13/pflag"

	"github.com/twiced-technology-gmbh/swarmwatch/internal/clierr"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/config"
)

func TestNormalizeFlag(t *testing.T) {
	tests := map[string]string{
		"task_store":    "store",
		"task-store":    "store",
		"worktree_base": "worktrees",
		"repo_dir":      "repo",
		"main_branch":   "main",
		"log_level":     "log-level",
		"json":          "json",
	}
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	for in, want := range tests {
		if got := normalizeFlag(fs, in); string(got) != want {
			t.Errorf("normalizeFlag(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestConfigAccessorsCoverDisplayKeys(t *testing.T) {
	accessors := configAccessors()
	cfg := config.NewDefault()
	for _, key := range allConfigKeys() {
		acc, ok := accessors[key]
		if !ok {
			t.Errorf("no accessor for %q", key)
			continue
		}
		if acc.get(cfg) == nil {
			t.Errorf("get(%q) = nil", key)
		}
	}
	if len(accessors) != len(allConfigKeys()) {
		t.Errorf("%d accessors, %d display keys", len(accessors), len(allConfigKeys()))
	}
}

func TestConfigAccessorSet(t *testing.T) {
	accessors := configAccessors()
	tests := []struct {
		key, value string
		wantErr    bool
		check      func(*config.Config) bool
	}{
		{key: "paths.main_branch", value: "trunk", check: func(c *config.Config) bool { return c.Paths.MainBranch == "trunk" }},
		{key: "git.timeout", value: "5s", check: func(c *config.Config) bool { return c.Git.Timeout == "5s" }},
		{key: "git.timeout", value: "soon", wantErr: true},
		{key: "server.recent_commits", value: "25", check: func(c *config.Config) bool { return c.Server.RecentCommits == 25 }},
		{key: "server.recent_commits", value: "many", wantErr: true},
		{key: "log.level", value: "debug", check: func(c *config.Config) bool { return c.Log.Level == "debug" }},
		{key: "log.level", value: "loud", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			cfg := config.NewDefault()
			err := accessors[tt.key].set(cfg, tt.value)
			if tt.wantErr {
				if clierr.From(err) == nil || clierr.From(err).Code != clierr.InvalidInput {
					t.Errorf("set() error = %v, want INVALID_INPUT", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("set() error: %v", err)
			}
			if !tt.check(cfg) {
				t.Errorf("value not applied: %+v", cfg)
			}
		})
	}

	for _, key := range []string{"version", "file"} {
		if accessors[key].writable() {
			t.Errorf("%s should be read-only", key)
		}
	}
}
