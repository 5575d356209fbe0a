package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/twiced-technology-gmbh/swarmwatch/internal/clierr"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/enrich"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/output"
)

var showCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show one enriched task",
	Long: `Displays a single task with its effective status, tmux session, worktree,
and per-file changes. On a terminal the description is rendered as markdown.`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}

	t, err := e.pipeline.Task(cmd.Context(), args[0])
	if err != nil {
		if errors.Is(err, enrich.ErrTaskNotFound) {
			return clierr.Newf(clierr.TaskNotFound, "task %q not found", args[0]).
				WithDetails(map[string]any{"id": args[0]})
		}
		return err
	}

	switch outputFormat() {
	case output.FormatJSON:
		return output.JSON(os.Stdout, t)
	case output.FormatCompact:
		output.TaskDetailCompact(os.Stdout, t)
		return nil
	}

	description := t.Description
	if description != "" && stdoutIsTerminal() {
		width, _, err := term.GetSize(int(os.Stdout.Fd())) //nolint:gosec // fd fits in int
		if err != nil {
			width = 0
		}
		description = renderMarkdown(description, width)
	}
	output.TaskDetail(os.Stdout, t, description)
	return nil
}
