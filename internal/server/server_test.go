package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/twiced-technology-gmbh/swarmwatch/internal/config"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/enrich"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/git"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/git/gittest"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/gitview"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/tmux"
)

type fixture struct {
	paths config.Paths
	srv   *Server
}

func newFixture(t *testing.T, store string, client git.Client, interval time.Duration) *fixture {
	t.Helper()
	root := t.TempDir()
	paths := config.Paths{
		TaskStore:    filepath.Join(root, "active-tasks.json"),
		WorktreeBase: filepath.Join(root, "worktrees"),
		RepoDir:      root,
		MainBranch:   "main",
		PromptsDir:   filepath.Join(root, "prompts"),
	}
	if store != "" {
		if err := os.WriteFile(paths.TaskStore, []byte(store), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	pipeline := enrich.New(paths, client, tmux.Static{"live": true}, nil)
	srv := NewServer(Options{
		Pipeline:     pipeline,
		Viewer:       gitview.New(client),
		PushInterval: interval,
	})
	return &fixture{paths: paths, srv: srv}
}

func (f *fixture) get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON %q: %v", w.Body.String(), err)
	}
	return body
}

func TestTasksEndpoint(t *testing.T) {
	f := newFixture(t, `[{"id":"live","status":"running","owner":"ops"},{"id":"idle","status":"running"}]`, gittest.New(), 0)

	w := f.get(t, "/api/tasks")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	body := decode(t, w)
	if body["source"] != f.paths.TaskStore {
		t.Errorf("source = %v", body["source"])
	}
	if _, ok := body["timestamp"].(string); !ok {
		t.Errorf("timestamp = %v", body["timestamp"])
	}
	if _, ok := body["error"]; ok {
		t.Errorf("unexpected error field: %v", body["error"])
	}

	tasks := body["tasks"].([]any)
	if len(tasks) != 2 {
		t.Fatalf("got %d tasks", len(tasks))
	}
	live, idle := tasks[0].(map[string]any), tasks[1].(map[string]any)
	if live["status"] != "running" || live["tmuxAlive"] != true || live["owner"] != "ops" {
		t.Errorf("live task = %v", live)
	}
	if idle["status"] != "dead" || idle["declaredStatus"] != "running" {
		t.Errorf("idle task = %v", idle)
	}
}

func TestTasksEndpointStoreFailures(t *testing.T) {
	t.Run("missing store is 200 with error", func(t *testing.T) {
		f := newFixture(t, "", gittest.New(), 0)
		w := f.get(t, "/api/tasks")
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		body := decode(t, w)
		if tasks, ok := body["tasks"].([]any); !ok || len(tasks) != 0 {
			t.Errorf("tasks = %v, want []", body["tasks"])
		}
		if msg, _ := body["error"].(string); !strings.Contains(msg, "not found") {
			t.Errorf("error = %v", body["error"])
		}
	})

	t.Run("malformed store is 500", func(t *testing.T) {
		f := newFixture(t, "{nope", gittest.New(), 0)
		w := f.get(t, "/api/tasks")
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d", w.Code)
		}
		body := decode(t, w)
		if body["code"] != "STORE_MALFORMED" || body["error"] == "" {
			t.Errorf("body = %v", body)
		}
	})
}

func TestGitEndpoints(t *testing.T) {
	repo := gittest.NewRepo(t)
	repo.Write("a.txt", "one\n")
	root := repo.Commit("root")
	repo.Write("a.txt", "one\ntwo\n")
	head := repo.Commit("second")

	f := newFixture(t, "[]", git.NewRunner("", 10*time.Second, nil), 0)
	missing := filepath.Join(t.TempDir(), "missing")
	plain := t.TempDir()

	tests := []struct {
		name   string
		target string
		status int
		check  func(t *testing.T, body map[string]any)
	}{
		{
			name:   "status",
			target: "/api/git/status?n=1&dir=" + repo.Dir,
			status: http.StatusOK,
			check: func(t *testing.T, body map[string]any) {
				if body["branch"] != "main" || body["clean"] != true {
					t.Errorf("body = %v", body)
				}
				if commits := body["commits"].([]any); len(commits) != 1 {
					t.Errorf("commits = %v", commits)
				}
			},
		},
		{name: "status without dir", target: "/api/git/status", status: http.StatusBadRequest},
		{name: "status bad n", target: "/api/git/status?n=x&dir=" + repo.Dir, status: http.StatusBadRequest},
		{
			name:   "status not a repo",
			target: "/api/git/status?dir=" + plain,
			status: http.StatusInternalServerError,
			check: func(t *testing.T, body map[string]any) {
				if body["code"] != "NOT_A_REPOSITORY" {
					t.Errorf("code = %v", body["code"])
				}
			},
		},
		{
			name:   "status missing dir",
			target: "/api/git/status?dir=" + missing,
			status: http.StatusInternalServerError,
			check: func(t *testing.T, body map[string]any) {
				if body["code"] != "DIR_NOT_FOUND" {
					t.Errorf("code = %v", body["code"])
				}
			},
		},
		{
			name:   "diff",
			target: "/api/git/diff?dir=" + repo.Dir + "&commit=" + head,
			status: http.StatusOK,
			check: func(t *testing.T, body map[string]any) {
				if body["parent"] != root {
					t.Errorf("parent = %v, want %s", body["parent"], root)
				}
				stats := body["stats"].(map[string]any)
				if stats["additions"] != float64(1) || stats["files"] != float64(1) {
					t.Errorf("stats = %v", stats)
				}
			},
		},
		{
			name:   "root diff",
			target: "/api/git/diff?dir=" + repo.Dir + "&commit=" + root,
			status: http.StatusOK,
			check: func(t *testing.T, body map[string]any) {
				if body["parent"] != git.EmptyTree {
					t.Errorf("parent = %v", body["parent"])
				}
			},
		},
		{name: "diff missing commit", target: "/api/git/diff?dir=" + repo.Dir, status: http.StatusBadRequest},
		{name: "diff invalid commit", target: "/api/git/diff?dir=" + repo.Dir + "&commit=HEAD", status: http.StatusBadRequest},
		{name: "diff unknown commit", target: "/api/git/diff?dir=" + repo.Dir + "&commit=0123456789abcdef", status: http.StatusNotFound},
		{
			name:   "changes",
			target: "/api/changes?dir=" + repo.Dir,
			status: http.StatusOK,
			check: func(t *testing.T, body map[string]any) {
				if body["directory"] != repo.Dir || body["totalFiles"] != float64(0) {
					t.Errorf("body = %v", body)
				}
			},
		},
		{name: "changes missing dir", target: "/api/changes?dir=" + missing, status: http.StatusNotFound},
		{name: "changes without dir", target: "/api/changes", status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.get(t, tt.target)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d; body %s", w.Code, tt.status, w.Body)
			}
			body := decode(t, w)
			if tt.status != http.StatusOK && (body["error"] == "" || body["code"] == "") {
				t.Errorf("error envelope = %v", body)
			}
			if tt.check != nil {
				tt.check(t, body)
			}
		})
	}
}

func TestPromptsEndpoint(t *testing.T) {
	f := newFixture(t, `[{"id":"a","agent":"claude","model":"opus","description":"fix it","status":"pending"},{"id":"b","status":"failed"}]`, gittest.New(), 0)
	if err := os.MkdirAll(f.paths.PromptsDir, 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(f.paths.PromptsDir, "a.md"), []byte("# Fix login\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	w := f.get(t, "/api/prompts")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	prompts := decode(t, w)["prompts"].([]any)
	if len(prompts) != 2 {
		t.Fatalf("got %d prompts", len(prompts))
	}
	a := prompts[0].(map[string]any)
	if a["agent"] != "claude" || a["model"] != "opus" || a["prompt"] != "# Fix login\n" || a["status"] != "pending" {
		t.Errorf("prompt a = %v", a)
	}
	if _, ok := prompts[1].(map[string]any)["prompt"]; ok {
		t.Error("prompt b should have no prompt text")
	}
}

func TestReadPromptRejectsPaths(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "secret.txt"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(dir, "prompts")
	if err := os.MkdirAll(sub, 0o750); err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"../secret", "..", "", "a/b"} {
		if got := readPrompt(sub, id); got != "" {
			t.Errorf("readPrompt(%q) = %q, want empty", id, got)
		}
	}
}

func TestHealthz(t *testing.T) {
	f := newFixture(t, "[]", gittest.New(), 0)
	w := f.get(t, "/healthz")
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != "ok" {
		t.Errorf("healthz = %d %q", w.Code, w.Body)
	}
	if w := f.get(t, "/api/nope"); w.Code != http.StatusNotFound {
		t.Errorf("unknown route = %d", w.Code)
	}
}

// readEvent reads one SSE event and returns its name and data.
func readEvent(t *testing.T, r *bufio.Reader) (string, string) {
	t.Helper()
	var name, data string
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("reading stream: %v", err)
		}
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case line == "" && name != "":
			return name, data
		}
	}
}

func openStream(t *testing.T, f *fixture) *bufio.Reader {
	t.Helper()
	ts := httptest.NewServer(f.srv.Handler())
	t.Cleanup(ts.Close)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/events", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}
	return bufio.NewReader(resp.Body)
}

func TestEventsPushOnConnectAndNotify(t *testing.T) {
	f := newFixture(t, `[{"id":"live","status":"running"}]`, gittest.New(), time.Hour)
	r := openStream(t, f)

	name, data := readEvent(t, r)
	if name != "update" {
		t.Fatalf("first event = %q", name)
	}
	var u map[string]any
	if err := json.Unmarshal([]byte(data), &u); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"tasks", "source", "timestamp", "git", "commits"} {
		if _, ok := u[key]; !ok {
			t.Errorf("update missing %q: %s", key, data)
		}
	}
	if f.srv.Streams() != 1 {
		t.Errorf("Streams() = %d, want 1", f.srv.Streams())
	}

	if err := os.WriteFile(f.paths.TaskStore, []byte(`[{"id":"live","status":"running"},{"id":"new","status":"pending"}]`), 0o600); err != nil {
		t.Fatal(err)
	}
	f.srv.Notify()

	name, data = readEvent(t, r)
	if name != "update" || !strings.Contains(data, `"id":"new"`) {
		t.Errorf("after notify: %s %s", name, data)
	}
}

func TestEventsErrorKeepsStreamOpen(t *testing.T) {
	f := newFixture(t, "{broken", gittest.New(), 50*time.Millisecond)
	r := openStream(t, f)

	name, data := readEvent(t, r)
	if name != "error" || !strings.Contains(data, "error") {
		t.Fatalf("first event = %s %s", name, data)
	}

	if err := os.WriteFile(f.paths.TaskStore, []byte(`[]`), 0o600); err != nil {
		t.Fatal(err)
	}
	for range 20 {
		if name, _ = readEvent(t, r); name == "update" {
			return
		}
	}
	t.Error("stream never recovered after the store was fixed")
}

func TestEventsIncludeRepoStatus(t *testing.T) {
	f := newFixture(t, "[]", gittest.New().On(gittest.AnyDir, "true", "rev-parse", "--is-inside-work-tree").
		On(gittest.AnyDir, "main", "rev-parse", "--abbrev-ref", "HEAD"), time.Hour)
	r := openStream(t, f)

	_, data := readEvent(t, r)
	var u struct {
		Git *gitview.Snapshot `json:"git"`
	}
	if err := json.Unmarshal([]byte(data), &u); err != nil {
		t.Fatal(err)
	}
	if u.Git == nil || u.Git.Branch != "main" || u.Git.Directory != f.paths.RepoDir {
		t.Errorf("git = %+v", u.Git)
	}
}
