// Package server exposes enriched tasks and git views over HTTP, with a
// server-sent event stream that pushes a fresh snapshot on an interval
// and whenever the task store changes.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/twiced-technology-gmbh/swarmwatch/internal/clierr"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/enrich"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/gitview"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/logging"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/output"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/task"
)

// Options configures a Server.
type Options struct {
	Pipeline *enrich.Pipeline
	Viewer   *gitview.Viewer
	// PushInterval is the SSE period. Zero means 5s.
	PushInterval time.Duration
	// RecentCommits bounds commit lists. Zero means gitview.DefaultCommits.
	RecentCommits int
	Logger        *log.Logger
}

// Server serves the dashboard API.
type Server struct {
	pipeline      *enrich.Pipeline
	viewer        *gitview.Viewer
	pushInterval  time.Duration
	recentCommits int
	logger        *log.Logger
	// base parents every request context; Shutdown cancels it so open
	// event streams return instead of holding the server open.
	base   context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	server  *http.Server
	streams map[string]chan struct{}
}

// NewServer creates a Server. Zero options take their defaults.
func NewServer(opts Options) *Server {
	s := &Server{
		pipeline:      opts.Pipeline,
		viewer:        opts.Viewer,
		pushInterval:  opts.PushInterval,
		recentCommits: opts.RecentCommits,
		logger:        logging.Component(opts.Logger, "server"),
		streams:       make(map[string]chan struct{}),
	}
	s.base, s.cancel = context.WithCancel(context.Background())
	if s.pushInterval <= 0 {
		s.pushInterval = 5 * time.Second
	}
	if s.recentCommits <= 0 {
		s.recentCommits = gitview.DefaultCommits
	}
	return s
}

// Handler returns the routed, request-logging handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/tasks", s.handleTasks)
	mux.HandleFunc("GET /api/events", s.handleEvents)
	mux.HandleFunc("GET /api/git/status", s.handleGitStatus)
	mux.HandleFunc("GET /api/git/diff", s.handleGitDiff)
	mux.HandleFunc("GET /api/changes", s.handleChanges)
	mux.HandleFunc("GET /api/prompts", s.handlePrompts)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})

	return s.logRequests(mux)
}

// Start listens on addr and blocks until the server stops. A clean
// Shutdown returns nil.
func (s *Server) Start(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return s.base },
	}
	s.mu.Lock()
	s.server = srv
	s.mu.Unlock()

	s.logger.Info("listening", "addr", addr)
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown closes open event streams and gracefully stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// tasksResponse is the body of GET /api/tasks.
type tasksResponse struct {
	Tasks     []*task.Enriched `json:"tasks"`
	Source    string           `json:"source"`
	Timestamp time.Time        `json:"timestamp"`
	Error     string           `json:"error,omitempty"`
}

func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	snap := s.pipeline.Run(r.Context())
	if snap.Err != nil && !errors.Is(snap.Err, task.ErrStoreNotFound) {
		s.fail(w, http.StatusInternalServerError, clierr.From(snap.Err))
		return
	}
	s.respond(w, http.StatusOK, tasksResponse{
		Tasks:     snap.Tasks,
		Source:    snap.Source,
		Timestamp: snap.Timestamp,
		Error:     snap.Error,
	})
}

func (s *Server) handleGitStatus(w http.ResponseWriter, r *http.Request) {
	dir := r.URL.Query().Get("dir")
	if dir == "" {
		s.fail(w, http.StatusBadRequest, clierr.New(clierr.InvalidInput, "dir parameter is required"))
		return
	}
	n := s.recentCommits
	if raw := r.URL.Query().Get("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			s.fail(w, http.StatusBadRequest, clierr.Newf(clierr.InvalidInput, "n must be a positive integer, got %q", raw))
			return
		}
		n = v
	}

	snap, err := s.viewer.Status(r.Context(), dir, n)
	if err != nil {
		s.fail(w, http.StatusInternalServerError, clierr.From(err))
		return
	}
	s.respond(w, http.StatusOK, snap)
}

func (s *Server) handleGitDiff(w http.ResponseWriter, r *http.Request) {
	dir, commit := r.URL.Query().Get("dir"), r.URL.Query().Get("commit")
	if dir == "" || commit == "" {
		s.fail(w, http.StatusBadRequest, clierr.New(clierr.InvalidInput, "dir and commit parameters are required"))
		return
	}

	diff, err := s.viewer.CommitDiff(r.Context(), dir, commit)
	if err != nil {
		cliErr := clierr.From(err)
		s.fail(w, cliErr.HTTPStatus(), cliErr)
		return
	}
	s.respond(w, http.StatusOK, diff)
}

func (s *Server) handleChanges(w http.ResponseWriter, r *http.Request) {
	dir := r.URL.Query().Get("dir")
	if dir == "" {
		s.fail(w, http.StatusBadRequest, clierr.New(clierr.InvalidInput, "dir parameter is required"))
		return
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		s.fail(w, http.StatusNotFound, clierr.Newf(clierr.DirNotFound, "directory not found: %s", dir))
		return
	}

	res := s.pipeline.FileChanges(r.Context(), dir)
	if res == nil {
		s.fail(w, http.StatusInternalServerError, clierr.Newf(clierr.InternalError, "could not compute changes for %s", dir))
		return
	}
	s.respond(w, http.StatusOK, res)
}

// prompt is one entry of GET /api/prompts.
type prompt struct {
	ID          string `json:"id"`
	Agent       string `json:"agent"`
	Model       string `json:"model"`
	Status      string `json:"status"`
	Description string `json:"description"`
	Prompt      string `json:"prompt,omitempty"`
}

func (s *Server) handlePrompts(w http.ResponseWriter, r *http.Request) {
	snap := s.pipeline.Run(r.Context())
	if snap.Err != nil && !errors.Is(snap.Err, task.ErrStoreNotFound) {
		s.fail(w, http.StatusInternalServerError, clierr.From(snap.Err))
		return
	}

	dir := s.pipeline.Paths().PromptsDir
	prompts := make([]prompt, 0, len(snap.Tasks))
	for _, t := range snap.Tasks {
		prompts = append(prompts, prompt{
			ID:          t.ID,
			Agent:       t.Agent,
			Model:       t.Model,
			Status:      t.Status,
			Description: t.Description,
			Prompt:      readPrompt(dir, t.ID),
		})
	}
	s.respond(w, http.StatusOK, map[string]any{"prompts": prompts, "error": snap.Error})
}

// readPrompt returns <dir>/<id>.md or <dir>/<id>.txt, or "".
func readPrompt(dir, id string) string {
	if dir == "" || id == "" || filepath.Base(id) != id || id == "." || id == ".." {
		return ""
	}
	for _, ext := range []string{".md", ".txt"} {
		data, err := os.ReadFile(filepath.Join(dir, id+ext)) //nolint:gosec // id is a single path element
		if err == nil {
			return string(data)
		}
	}
	return ""
}

func (s *Server) respond(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("encoding response", "err", err)
	}
}

func (s *Server) fail(w http.ResponseWriter, code int, err *clierr.Error) {
	s.respond(w, code, output.NewErrorResponse(err))
}
