package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/twiced-technology-gmbh/swarmwatch/internal/gitview"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/task"
)

// update is the payload of an "update" event.
type update struct {
	Tasks     []*task.Enriched  `json:"tasks"`
	Source    string            `json:"source"`
	Timestamp time.Time         `json:"timestamp"`
	Error     string            `json:"error,omitempty"`
	Git       *gitview.Snapshot `json:"git"`
	Commits   []gitview.Commit  `json:"commits"`
}

// Notify wakes every open event stream to push a fresh snapshot. It is
// the task store watcher's callback and never blocks.
func (s *Server) Notify() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.streams {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Streams returns the number of open event streams.
func (s *Server) Streams() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.streams)
}

func (s *Server) subscribe() (string, chan struct{}) {
	id := uuid.NewString()
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	s.streams[id] = ch
	s.mu.Unlock()
	return id, ch
}

func (s *Server) unsubscribe(id string) {
	s.mu.Lock()
	delete(s.streams, id)
	s.mu.Unlock()
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	id, wake := s.subscribe()
	defer s.unsubscribe(id)
	logger := s.logger.With("stream", id)
	logger.Info("stream opened", "remote", r.RemoteAddr)
	defer logger.Info("stream closed")

	ctx := r.Context()
	ticker := time.NewTicker(s.pushInterval)
	defer ticker.Stop()

	for {
		if err := s.push(ctx, w); err != nil {
			logger.Debug("push failed", "err", err)
			return
		}
		flusher.Flush()

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-wake:
		}
	}
}

// push writes one event. Snapshot failures become "error" events; the
// returned error is only set when the client is gone.
func (s *Server) push(ctx context.Context, w http.ResponseWriter) error {
	snap := s.pipeline.Run(ctx)
	if snap.Err != nil && !errors.Is(snap.Err, task.ErrStoreNotFound) {
		return writeEvent(w, "error", map[string]string{"error": snap.Error})
	}

	u := update{
		Tasks:     snap.Tasks,
		Source:    snap.Source,
		Timestamp: snap.Timestamp,
		Error:     snap.Error,
		Commits:   []gitview.Commit{},
	}
	if git, err := s.viewer.Status(ctx, s.pipeline.Paths().RepoDir, s.recentCommits); err == nil {
		u.Git = git
		u.Commits = git.Commits
	}
	return writeEvent(w, "update", u)
}

func writeEvent(w http.ResponseWriter, name string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		data, _ = json.Marshal(map[string]string{"error": err.Error()})
		name = "error"
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data)
	return err
}
