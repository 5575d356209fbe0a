package cmd

import (
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/swarmwatch/internal/board"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/clierr"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/output"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/status"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/task"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List enriched tasks",
	Long: `Runs one enrichment pass over the task store and lists every task with its
effective status, tmux liveness, and live file changes.

Statuses are matched canonically: --status completed also matches tasks
declared "done" or "ready_for_review".`,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringSlice("status", nil, "filter by status (comma-separated: "+statusNames()+")")
	listCmd.Flags().String("agent", "", "filter by agent")
	listCmd.Flags().String("model", "", "filter by model")
	listCmd.Flags().StringP("search", "s", "", "search id, branch, and description (case-insensitive)")
	listCmd.Flags().Bool("alive", false, "show only tasks with a live tmux session")
	listCmd.Flags().Bool("dead", false, "show only tasks without a live tmux session")
	listCmd.Flags().Bool("changed", false, "show only tasks with live file changes")
	listCmd.Flags().String("sort", "id", "sort field ("+strings.Join(board.ValidSortFields(), ", ")+")")
	listCmd.Flags().BoolP("reverse", "r", false, "reverse sort order")
	listCmd.Flags().IntP("limit", "n", 0, "limit number of results")
	listCmd.Flags().Bool("summary", false, "show per-status totals instead of tasks")
	listCmd.Flags().String("group-by", "", "group results by field ("+strings.Join(board.ValidGroupByFields(), ", ")+")")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	statuses, _ := cmd.Flags().GetStringSlice("status")
	agent, _ := cmd.Flags().GetString("agent")
	model, _ := cmd.Flags().GetString("model")
	search, _ := cmd.Flags().GetString("search")
	alive, _ := cmd.Flags().GetBool("alive")
	dead, _ := cmd.Flags().GetBool("dead")
	changed, _ := cmd.Flags().GetBool("changed")
	sortBy, _ := cmd.Flags().GetString("sort")
	reverse, _ := cmd.Flags().GetBool("reverse")
	limit, _ := cmd.Flags().GetInt("limit")
	summary, _ := cmd.Flags().GetBool("summary")
	groupBy, _ := cmd.Flags().GetString("group-by")

	for _, s := range statuses {
		if !status.Known(s) {
			return clierr.Newf(clierr.InvalidInput, "invalid --status %q; valid: %s", s, statusNames())
		}
	}
	if !slices.Contains(board.ValidSortFields(), sortBy) {
		return clierr.Newf(clierr.InvalidInput, "invalid --sort field %q; valid: %s",
			sortBy, strings.Join(board.ValidSortFields(), ", "))
	}
	if groupBy != "" && !slices.Contains(board.ValidGroupByFields(), groupBy) {
		return clierr.Newf(clierr.InvalidInput, "invalid --group-by field %q; valid: %s",
			groupBy, strings.Join(board.ValidGroupByFields(), ", "))
	}
	if alive && dead {
		return clierr.New(clierr.InvalidInput, "--alive and --dead are mutually exclusive")
	}
	if limit < 0 {
		return clierr.Newf(clierr.InvalidInput, "invalid --limit %d: must not be negative", limit)
	}

	filter := board.FilterOptions{
		Statuses: statuses,
		Agent:    agent,
		Model:    model,
		Search:   search,
		Changed:  changed,
	}
	if alive || dead {
		v := alive
		filter.Alive = &v
	}

	e, err := setup()
	if err != nil {
		return err
	}
	snap := e.pipeline.Run(cmd.Context())
	printWarnings(snap.Warnings)
	if err := snapshotError(snap); err != nil {
		return err
	}

	tasks := board.List(snap.Tasks, board.ListOptions{
		Filter:  filter,
		SortBy:  sortBy,
		Reverse: reverse,
		Limit:   limit,
	})

	switch {
	case summary:
		return outputSummary(board.Summary(snap.Source, tasks))
	case groupBy != "":
		return outputGroupedList(tasks, groupBy)
	}
	return outputTaskList(tasks)
}

func outputGroupedList(tasks []*task.Enriched, groupBy string) error {
	grouped := board.GroupBy(tasks, groupBy)
	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, grouped)
	}
	output.GroupedTable(os.Stdout, grouped)
	return nil
}

func outputTaskList(tasks []*task.Enriched) error {
	switch outputFormat() {
	case output.FormatJSON:
		return output.JSON(os.Stdout, tasks)
	case output.FormatCompact:
		output.TaskCompact(os.Stdout, tasks)
	default:
		output.TaskTable(os.Stdout, tasks)
	}
	return nil
}

func outputSummary(summary board.Overview) error {
	switch outputFormat() {
	case output.FormatJSON:
		return output.JSON(os.Stdout, summary)
	case output.FormatCompact:
		output.OverviewCompact(os.Stdout, summary)
	default:
		output.OverviewTable(os.Stdout, summary)
	}
	return nil
}

func statusNames() string {
	names := make([]string, len(status.All))
	for i, s := range status.All {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}
