package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/swarmwatch/internal/clierr"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/config"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/output"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Long: `Writes a config file with the default paths, probe timeouts, and server
settings to --config, $SWARMWATCH_CONFIG, or ~/.config/swarmwatch/config.yml.
A path ending in .toml is written as TOML. The path flags (--store,
--worktrees, --repo, --main) are written into the file.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().Bool("force", false, "overwrite an existing config file")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, _ []string) error {
	force, _ := cmd.Flags().GetBool("force")

	path, _, err := config.Locate(flagConfig)
	if err != nil {
		return err
	}

	unlock, err := config.Lock(path)
	if err != nil {
		return err
	}
	defer unlock() //nolint:errcheck // best-effort unlock on exit

	if _, err := os.Stat(path); err == nil && !force {
		return clierr.Newf(clierr.ConfigExists, "config already exists at %s (use --force to overwrite)", path).
			WithDetails(map[string]any{"config": path})
	}

	cfg := config.NewDefault()
	cfg.SetPath(path)
	applyPathFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, map[string]string{
			"status":        "initialized",
			"config":        cfg.Path(),
			"task_store":    cfg.Paths.TaskStore,
			"worktree_base": cfg.Paths.WorktreeBase,
			"repo_dir":      cfg.Paths.RepoDir,
			"main_branch":   cfg.Paths.MainBranch,
		})
	}

	output.Messagef(os.Stdout, "Wrote %s", cfg.Path())
	output.Messagef(os.Stdout, "  Task store: %s", cfg.Paths.TaskStore)
	output.Messagef(os.Stdout, "  Worktrees:  %s", cfg.Paths.WorktreeBase)
	output.Messagef(os.Stdout, "  Repo:       %s", cfg.Paths.RepoDir)
	output.Messagef(os.Stdout, "  Trunk:      %s", cfg.Paths.MainBranch)
	return nil
}
