package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/swarmwatch/internal/server"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/watcher"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard API",
	Long: `Starts the HTTP API used by the web dashboard:

  GET /api/tasks        enriched tasks
  GET /api/events       server-sent updates (interval and on task store change)
  GET /api/git/status   status snapshot of ?dir=
  GET /api/git/diff     one commit of ?dir= and ?commit=
  GET /api/changes      aggregated changes of ?dir=
  GET /api/prompts      task prompts
  GET /healthz          liveness`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default from server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = e.cfg.Server.Addr
	}

	srv := server.NewServer(server.Options{
		Pipeline:      e.pipeline,
		Viewer:        e.viewer,
		PushInterval:  e.cfg.PushInterval(),
		RecentCommits: e.cfg.Server.RecentCommits,
		Logger:        e.logger,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w, err := watcher.New([]string{e.paths.TaskStore}, srv.Notify)
	if err != nil {
		e.logger.Warn("task store watcher unavailable, pushing on interval only", "err", err)
	} else {
		defer w.Close()
		go w.Run(ctx, func(watchErr error) {
			e.logger.Warn("task store watcher", "err", watchErr)
		})
	}

	e.logger.Info("serving", "store", e.paths.TaskStore, "worktrees", e.paths.WorktreeBase, "repo", e.paths.RepoDir)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(addr) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	e.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
