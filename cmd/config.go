package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/swarmwatch/internal/clierr"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/config"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/output"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify configuration",
	Long: `View the effective configuration, get a specific key, or set a value in
the config file. Path flags are reflected in the displayed values but are
never written by "config set".`,
	RunE: runConfigShow,
}

var configGetCmd = &cobra.Command{
	Use:   "get KEY",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2), //nolint:mnd // key and value
	RunE:  runConfigSet,
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

// configAccessor describes how to get and set a config key.
type configAccessor struct {
	get func(*config.Config) any
	set func(*config.Config, string) error
}

func (a configAccessor) writable() bool { return a.set != nil }

func stringAccessor(field func(*config.Config) *string) configAccessor {
	return configAccessor{
		get: func(c *config.Config) any { return *field(c) },
		set: func(c *config.Config, v string) error { *field(c) = v; return nil },
	}
}

func durationAccessor(key string, field func(*config.Config) *string) configAccessor {
	return configAccessor{
		get: func(c *config.Config) any { return *field(c) },
		set: func(c *config.Config, v string) error {
			if _, err := time.ParseDuration(v); err != nil {
				return clierr.Newf(clierr.InvalidInput, "invalid %s %q: %v", key, v, err)
			}
			*field(c) = v
			return nil
		},
	}
}

func configAccessors() map[string]configAccessor {
	return map[string]configAccessor{
		"version": {
			get: func(c *config.Config) any { return c.Version },
		},
		"file": {
			get: func(c *config.Config) any { return c.Path() },
		},
		"paths.task_store":    stringAccessor(func(c *config.Config) *string { return &c.Paths.TaskStore }),
		"paths.worktree_base": stringAccessor(func(c *config.Config) *string { return &c.Paths.WorktreeBase }),
		"paths.repo_dir":      stringAccessor(func(c *config.Config) *string { return &c.Paths.RepoDir }),
		"paths.main_branch":   stringAccessor(func(c *config.Config) *string { return &c.Paths.MainBranch }),
		"paths.prompts_dir":   stringAccessor(func(c *config.Config) *string { return &c.Paths.PromptsDir }),
		"git.binary":          stringAccessor(func(c *config.Config) *string { return &c.Git.Binary }),
		"git.timeout":         durationAccessor("git.timeout", func(c *config.Config) *string { return &c.Git.Timeout }),
		"tmux.binary":         stringAccessor(func(c *config.Config) *string { return &c.Tmux.Binary }),
		"tmux.timeout":        durationAccessor("tmux.timeout", func(c *config.Config) *string { return &c.Tmux.Timeout }),
		"server.addr":         stringAccessor(func(c *config.Config) *string { return &c.Server.Addr }),
		"server.push_interval": durationAccessor("server.push_interval",
			func(c *config.Config) *string { return &c.Server.PushInterval }),
		"server.recent_commits": {
			get: func(c *config.Config) any { return c.Server.RecentCommits },
			set: func(c *config.Config, v string) error {
				n, err := strconv.Atoi(v)
				if err != nil {
					return clierr.Newf(clierr.InvalidInput,
						"invalid server.recent_commits %q: must be an integer", v)
				}
				c.Server.RecentCommits = n
				return nil // validation handles range check
			},
		},
		"log.level": {
			get: func(c *config.Config) any { return c.Log.Level },
			set: func(c *config.Config, v string) error {
				if config.IndexOf(config.LogLevels, v) < 0 {
					return clierr.Newf(clierr.InvalidInput,
						"invalid log.level %q; allowed: %s", v, strings.Join(config.LogLevels, ", "))
				}
				c.Log.Level = v
				return nil
			},
		},
	}
}

// allConfigKeys returns config keys in display order.
func allConfigKeys() []string {
	return []string{
		"version",
		"file",
		"paths.task_store",
		"paths.worktree_base",
		"paths.repo_dir",
		"paths.main_branch",
		"paths.prompts_dir",
		"git.binary",
		"git.timeout",
		"tmux.binary",
		"tmux.timeout",
		"server.addr",
		"server.push_interval",
		"server.recent_commits",
		"log.level",
	}
}

func runConfigShow(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	accessors := configAccessors()

	if outputFormat() == output.FormatJSON {
		m := make(map[string]any, len(accessors))
		for _, key := range allConfigKeys() {
			m[key] = accessors[key].get(cfg)
		}
		return output.JSON(os.Stdout, m)
	}

	for _, key := range allConfigKeys() {
		fmt.Fprintf(os.Stdout, "%-24s %v\n", key, formatConfigValue(accessors[key].get(cfg)))
	}
	return nil
}

func runConfigGet(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	key := args[0]
	acc, ok := configAccessors()[key]
	if !ok {
		return clierr.Newf(clierr.InvalidInput, "unknown config key %q", key)
	}

	val := acc.get(cfg)
	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, val)
	}
	fmt.Fprintln(os.Stdout, formatConfigValue(val))
	return nil
}

func runConfigSet(_ *cobra.Command, args []string) error {
	path, _, err := config.Locate(flagConfig)
	if err != nil {
		return err
	}
	unlock, err := config.Lock(path)
	if err != nil {
		return err
	}
	defer unlock() //nolint:errcheck // best-effort unlock on exit

	// Load without the path flags so they are not persisted.
	cfg, err := config.LoadOrDefault(flagConfig)
	if err != nil {
		return err
	}

	key, value := args[0], args[1]
	acc, ok := configAccessors()[key]
	if !ok {
		return clierr.Newf(clierr.InvalidInput, "unknown config key %q", key)
	}
	if !acc.writable() {
		return clierr.Newf(clierr.InvalidInput, "config key %q is read-only", key)
	}

	if err := acc.set(cfg, value); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, map[string]any{"key": key, "value": acc.get(cfg)})
	}
	output.Messagef(os.Stdout, "Set %s = %v", key, formatConfigValue(acc.get(cfg)))
	return nil
}

func formatConfigValue(val any) string {
	if s, ok := val.(string); ok && s == "" {
		return "--"
	}
	return fmt.Sprintf("%v", val)
}
