package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/swarmwatch/internal/board"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/clierr"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/watcher"
)

var flagWatch bool

var boardCmd = &cobra.Command{
	Use:     "board",
	Aliases: []string{"summary"},
	Short:   "Show swarm summary",
	Long: `Displays a summary of the swarm: task counts per canonical status, live
tmux sessions, inferred statuses, and changed lines per status and agent.

Use --watch to keep the display live-updating. The summary re-renders
whenever the task store changes on disk. Press Ctrl+C to stop.`,
	RunE: runBoard,
}

func init() {
	rootCmd.AddCommand(boardCmd)
	boardCmd.Flags().BoolVarP(&flagWatch, "watch", "w", false, "live-update the summary on task store changes")
	boardCmd.Flags().String("group-by", "", "group by field ("+strings.Join(board.ValidGroupByFields(), ", ")+")")
}

func runBoard(cmd *cobra.Command, _ []string) error {
	groupBy, _ := cmd.Flags().GetString("group-by")
	if groupBy != "" && !slices.Contains(board.ValidGroupByFields(), groupBy) {
		return clierr.Newf(clierr.InvalidInput, "invalid --group-by field %q; valid: %s",
			groupBy, strings.Join(board.ValidGroupByFields(), ", "))
	}

	e, err := setup()
	if err != nil {
		return err
	}

	if err := renderBoard(cmd.Context(), e, groupBy); err != nil {
		return err
	}
	if !flagWatch {
		return nil
	}
	return watchBoard(e, groupBy)
}

func renderBoard(ctx context.Context, e *env, groupBy string) error {
	snap := e.pipeline.Run(ctx)
	printWarnings(snap.Warnings)
	if err := snapshotError(snap); err != nil {
		return err
	}

	if groupBy != "" {
		return outputGroupedList(snap.Tasks, groupBy)
	}
	return outputSummary(board.Summary(snap.Source, snap.Tasks))
}

func watchBoard(e *env, groupBy string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w, err := watcher.New([]string{e.paths.TaskStore}, func() {
		clearScreen()
		if renderErr := renderBoard(ctx, e, groupBy); renderErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: rendering summary: %v\n", renderErr)
		}
	})
	if err != nil {
		return fmt.Errorf("starting file watcher: %w", err)
	}
	defer w.Close()

	fmt.Fprintln(os.Stderr, "Watching for changes... (Ctrl+C to stop)")

	w.Run(ctx, func(watchErr error) {
		fmt.Fprintf(os.Stderr, "Warning: file watcher: %v\n", watchErr)
	})
	return nil
}

// clearScreen sends ANSI escape codes to clear the terminal and move the
// cursor to the top-left corner.
func clearScreen() {
	fmt.Fprint(os.Stdout, "\033[2J\033[H")
}
