package cmd

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/swarmwatch/internal/tui"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/watcher"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the live terminal board",
	Args:  cobra.NoArgs,
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	// Log lines would tear the alternate screen.
	e, err := setupLogged(io.Discard)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	model := tui.NewBoard(ctx, tui.Options{
		Source:   e.pipeline,
		Interval: e.cfg.PushInterval(),
		Markdown: renderMarkdown,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))

	go startTUIWatcher(ctx, e.paths.TaskStore, p)

	_, err = p.Run()
	return err
}

func startTUIWatcher(ctx context.Context, store string, p *tea.Program) {
	w, err := watcher.New([]string{store}, func() {
		p.Send(tui.ReloadMsg{})
	})
	if err != nil {
		return // the board still refreshes on its tick
	}
	defer w.Close()
	w.Run(ctx, nil)
}
