package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/swarmwatch/internal/clierr"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/gitview"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/output"
)

var changesCmd = &cobra.Command{
	Use:   "changes DIR",
	Short: "Show lines changed in a worktree",
	Long: `Aggregates the files changed in DIR relative to the trunk: committed work
since the fork point, staged and unstaged edits, and untracked files.`,
	Args: cobra.ExactArgs(1),
	RunE: runChanges,
}

var gitStatusCmd = &cobra.Command{
	Use:   "git-status DIR",
	Short: "Show a directory's git status and recent commits",
	Args:  cobra.ExactArgs(1),
	RunE:  runGitStatus,
}

var diffCmd = &cobra.Command{
	Use:   "diff DIR COMMIT",
	Short: "Show the change introduced by one commit",
	Args:  cobra.ExactArgs(2), //nolint:mnd // dir and commit
	RunE:  runDiff,
}

func init() {
	gitStatusCmd.Flags().IntP("limit", "n", 0, "number of recent commits (default from server.recent_commits)")
	diffCmd.Flags().Bool("patch", false, "include the full patch")
	rootCmd.AddCommand(changesCmd, gitStatusCmd, diffCmd)
}

func absDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", clierr.Newf(clierr.InvalidInput, "resolving %q: %v", dir, err)
	}
	return abs, nil
}

func runChanges(cmd *cobra.Command, args []string) error {
	dir, err := absDir(args[0])
	if err != nil {
		return err
	}
	if err := checkDir(dir); err != nil {
		return err
	}

	e, err := setup()
	if err != nil {
		return err
	}
	result := e.pipeline.FileChanges(cmd.Context(), dir)
	if result == nil {
		return clierr.Newf(clierr.InternalError, "could not aggregate changes in %s", dir)
	}

	switch outputFormat() {
	case output.FormatJSON:
		return output.JSON(os.Stdout, result)
	case output.FormatCompact:
		output.ChangesCompact(os.Stdout, result)
	default:
		output.ChangesTable(os.Stdout, result)
	}
	return nil
}

func runGitStatus(cmd *cobra.Command, args []string) error {
	n, _ := cmd.Flags().GetInt("limit")
	if n < 0 {
		return clierr.Newf(clierr.InvalidInput, "invalid --limit %d: must not be negative", n)
	}
	dir, err := absDir(args[0])
	if err != nil {
		return err
	}

	e, err := setup()
	if err != nil {
		return err
	}
	if n == 0 {
		n = e.cfg.Server.RecentCommits
	}

	snap, err := e.viewer.Status(cmd.Context(), dir, n)
	if err != nil {
		return err
	}

	switch outputFormat() {
	case output.FormatJSON:
		return output.JSON(os.Stdout, snap)
	case output.FormatCompact:
		output.GitStatusCompact(os.Stdout, snap)
	default:
		output.GitStatus(os.Stdout, snap)
	}
	return nil
}

func runDiff(cmd *cobra.Command, args []string) error {
	patch, _ := cmd.Flags().GetBool("patch")
	dir, err := absDir(args[0])
	if err != nil {
		return err
	}

	e, err := setup()
	if err != nil {
		return err
	}

	d, err := e.viewer.CommitDiff(cmd.Context(), dir, args[1])
	if err != nil {
		return err
	}

	switch outputFormat() {
	case output.FormatJSON:
		if !patch {
			d.Patch = ""
		}
		return output.JSON(os.Stdout, jsonDiff(d))
	case output.FormatCompact:
		output.DiffCompact(os.Stdout, d)
	default:
		output.DiffDetail(os.Stdout, d, patch)
	}
	return nil
}

// jsonDiff drops an empty patch from JSON output.
func jsonDiff(d *gitview.Diff) any {
	if d.Patch != "" {
		return d
	}
	return struct {
		*gitview.Diff
		Patch string `json:"patch,omitempty"`
	}{Diff: d}
}
