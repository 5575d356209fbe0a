package status

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/twiced-technology-gmbh/swarmwatch/internal/config"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/git"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/git/gittest"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/task"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/tmux"
)

func newResolver(g git.Client, sessions tmux.Static, repo string) *Resolver {
	return NewResolver(g, sessions, config.Paths{RepoDir: repo, MainBranch: "main"}, nil)
}

func TestResolveSkipsGitWhenNotStale(t *testing.T) {
	fake := gittest.New()
	r := newResolver(fake, tmux.Static{"t-alive": true}, "/repo")
	wt := t.TempDir()

	tests := []struct {
		task      *task.Task
		want      string
		wantAlive bool
	}{
		{&task.Task{ID: "t-alive", Status: "running"}, "running", true},
		{&task.Task{ID: "t-done", Status: "done"}, "done", false},
		{&task.Task{ID: "t-alive", Status: "failed"}, "failed", true},
		{&task.Task{ID: "x", TmuxSession: "t-alive", Status: "running"}, "running", true},
	}
	for _, tt := range tests {
		got, alive := r.Resolve(context.Background(), tt.task, wt)
		if got != tt.want || alive != tt.wantAlive {
			t.Errorf("Resolve(%s/%s) = %q, %v; want %q, %v", tt.task.ID, tt.task.Status, got, alive, tt.want, tt.wantAlive)
		}
	}
	if fake.Calls() != 0 {
		t.Errorf("git called %d times, want 0", fake.Calls())
	}
}

func TestResolveWithFake(t *testing.T) {
	wt := t.TempDir()
	missing := filepath.Join(wt, "gone")

	tests := []struct {
		name  string
		setup func(f *gittest.Fake)
		path  string
		task  *task.Task
		want  string
		// calls that must not happen once a decisive signal is found
		notCalled [][]string
	}{
		{
			name: "exclusive commits stop early",
			setup: func(f *gittest.Fake) {
				f.On(wt, "c1\nc2", "log", "--format=%H", "HEAD", "--not", "main")
			},
			path:      wt,
			task:      &task.Task{ID: "a", Status: "running"},
			want:      "completed",
			notCalled: [][]string{{"rev-parse", "HEAD"}},
		},
		{
			name: "merged head",
			setup: func(f *gittest.Fake) {
				f.On(wt, "aaa", "rev-parse", "HEAD")
				f.On(wt, "bbb", "rev-parse", "main")
				f.Exit(wt, true, "merge-base", "--is-ancestor", "HEAD", "main")
			},
			path: wt,
			task: &task.Task{ID: "b", Status: "running"},
			want: "completed",
		},
		{
			name: "identical shas skip ancestry",
			setup: func(f *gittest.Fake) {
				f.On(wt, "aaa", "rev-parse", "HEAD")
				f.On(wt, "aaa", "rev-parse", "main")
				f.Exit(wt, true, "merge-base", "--is-ancestor", "HEAD", "main")
			},
			path:      wt,
			task:      &task.Task{ID: "c", Status: "running"},
			want:      "dead",
			notCalled: [][]string{{"merge-base", "--is-ancestor", "HEAD", "main"}},
		},
		{
			name: "missing worktree merged remote branch",
			setup: func(f *gittest.Fake) {
				f.On("/repo", "* main\n  remotes/origin/feat/foo", "branch", "-a", "--merged", "main")
			},
			path:      missing,
			task:      &task.Task{ID: "d", Status: "running", Branch: "feat/foo"},
			want:      "completed",
			notCalled: [][]string{{"rev-parse", "--verify", "--quiet", "feat/foo"}},
		},
		{
			name: "missing worktree branch still exists",
			setup: func(f *gittest.Fake) {
				f.On("/repo", "* main", "branch", "-a", "--merged", "main")
				f.On("/repo", "0123abc", "rev-parse", "--verify", "--quiet", "feat/foo")
			},
			path: missing,
			task: &task.Task{ID: "e", Status: "running", Branch: "feat/foo"},
			want: "completed",
		},
		{
			name: "missing worktree ignores origin HEAD symref",
			setup: func(f *gittest.Fake) {
				f.On("/repo", "* main\n  remotes/origin/HEAD -> origin/main", "branch", "-a", "--merged", "main")
			},
			path: missing,
			task: &task.Task{ID: "h", Status: "running", Branch: "HEAD"},
			want: "dead",
		},
		{
			name:  "missing worktree and branch",
			setup: func(*gittest.Fake) {},
			path:  missing,
			task:  &task.Task{ID: "f", Status: "running", Branch: "feat/foo"},
			want:  "dead",
		},
		{
			name:  "missing worktree without branch",
			setup: func(*gittest.Fake) {},
			path:  missing,
			task:  &task.Task{ID: "g", Status: "running"},
			want:  "dead",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := gittest.New()
			tt.setup(fake)
			r := newResolver(fake, tmux.Static{}, "/repo")

			got, alive := r.Resolve(context.Background(), tt.task, tt.path)
			if alive {
				t.Error("alive = true, want false")
			}
			if got != tt.want {
				t.Errorf("Resolve() = %q, want %q", got, tt.want)
			}
			for _, args := range tt.notCalled {
				if fake.Called(tt.path, args...) || fake.Called("/repo", args...) {
					t.Errorf("unexpected git %v", args)
				}
			}
		})
	}
}

type panicClient struct{}

func (panicClient) Output(context.Context, string, ...string) string { panic("boom") }
func (panicClient) Succeeds(context.Context, string, ...string) bool { panic("boom") }

func TestResolvePanicIsDead(t *testing.T) {
	r := newResolver(panicClient{}, tmux.Static{}, "/repo")
	got, alive := r.Resolve(context.Background(), &task.Task{ID: "p", Status: "running"}, t.TempDir())
	if got != "dead" || alive {
		t.Errorf("Resolve() = %q, %v; want dead, false", got, alive)
	}
}

// Real-git scenarios. Each builds a repository with a main branch and
// resolves a running task whose tmux session is gone.

func realResolver(repo string) *Resolver {
	return newResolver(git.NewRunner("", 10*time.Second, nil), tmux.Static{}, repo)
}

func TestResolveCommittedWork(t *testing.T) {
	repo := gittest.NewRepo(t)
	repo.Write("README.md", "hello\n")
	repo.Commit("initial")

	wt := filepath.Join(t.TempDir(), "feat-a")
	repo.Worktree(wt, "feat/a", "main")
	gittest.WriteIn(t, wt, "a.go", "package a\n")
	gittest.RunIn(t, wt, "add", "-A")
	gittest.RunIn(t, wt, "commit", "-q", "-m", "one")
	gittest.WriteIn(t, wt, "b.go", "package a\n")
	gittest.RunIn(t, wt, "add", "-A")
	gittest.RunIn(t, wt, "commit", "-q", "-m", "two")

	tk := &task.Task{ID: "feat-a", Status: "running", Branch: "feat/a"}
	if got, _ := realResolver(repo.Dir).Resolve(context.Background(), tk, wt); got != "completed" {
		t.Errorf("Resolve() = %q, want completed", got)
	}
}

func TestResolveFreshWorktreeIsDead(t *testing.T) {
	repo := gittest.NewRepo(t)
	repo.Write("README.md", "hello\n")
	repo.Commit("initial")

	wt := filepath.Join(t.TempDir(), "fresh")
	repo.Worktree(wt, "feat/fresh", "main")

	tk := &task.Task{ID: "fresh", Status: "running", Branch: "feat/fresh"}
	if got, _ := realResolver(repo.Dir).Resolve(context.Background(), tk, wt); got != "dead" {
		t.Errorf("Resolve() = %q, want dead", got)
	}
}

func TestResolveMergedHead(t *testing.T) {
	repo := gittest.NewRepo(t)
	repo.Write("README.md", "hello\n")
	repo.Commit("initial")

	wt := filepath.Join(t.TempDir(), "merged")
	repo.Worktree(wt, "feat/merged", "main")
	gittest.WriteIn(t, wt, "m.go", "package m\n")
	gittest.RunIn(t, wt, "add", "-A")
	gittest.RunIn(t, wt, "commit", "-q", "-m", "work")
	repo.Git("merge", "-q", "--no-ff", "-m", "merge feat/merged", "feat/merged")

	tk := &task.Task{ID: "merged", Status: "running", Branch: "feat/merged"}
	if got, _ := realResolver(repo.Dir).Resolve(context.Background(), tk, wt); got != "completed" {
		t.Errorf("Resolve() = %q, want completed", got)
	}
}

// A fast-forward merge leaves HEAD == main, which resolves to dead even
// though the work landed. This is a known gap in the heuristic.
func TestResolveFastForwardedHeadIsDead(t *testing.T) {
	repo := gittest.NewRepo(t)
	repo.Write("README.md", "hello\n")
	repo.Commit("initial")

	wt := filepath.Join(t.TempDir(), "ff")
	repo.Worktree(wt, "feat/ff", "main")
	gittest.WriteIn(t, wt, "f.go", "package f\n")
	gittest.RunIn(t, wt, "add", "-A")
	gittest.RunIn(t, wt, "commit", "-q", "-m", "work")
	repo.Git("merge", "-q", "--ff-only", "feat/ff")

	tk := &task.Task{ID: "ff", Status: "running", Branch: "feat/ff"}
	if got, _ := realResolver(repo.Dir).Resolve(context.Background(), tk, wt); got != "dead" {
		t.Errorf("Resolve() = %q, want dead", got)
	}
}

func TestResolveRemovedWorktreeMergedBranch(t *testing.T) {
	repo := gittest.NewRepo(t)
	repo.Write("README.md", "hello\n")
	repo.Commit("initial")

	wt := filepath.Join(t.TempDir(), "foo")
	repo.Worktree(wt, "feat/foo", "main")
	gittest.WriteIn(t, wt, "foo.go", "package foo\n")
	gittest.RunIn(t, wt, "add", "-A")
	gittest.RunIn(t, wt, "commit", "-q", "-m", "foo")
	repo.Git("merge", "-q", "--no-ff", "-m", "merge feat/foo", "feat/foo")
	repo.Git("worktree", "remove", "--force", wt)
	if _, err := os.Stat(wt); !os.IsNotExist(err) {
		t.Fatalf("worktree still present: %v", err)
	}

	tk := &task.Task{ID: "foo", Status: "running", Branch: "feat/foo"}
	if got, _ := realResolver(repo.Dir).Resolve(context.Background(), tk, wt); got != "completed" {
		t.Errorf("Resolve() = %q, want completed", got)
	}
}

func TestResolveRemovedWorktreeNoBranch(t *testing.T) {
	repo := gittest.NewRepo(t)
	repo.Write("README.md", "hello\n")
	repo.Commit("initial")

	missing := filepath.Join(t.TempDir(), "never-created")
	for _, tk := range []*task.Task{
		{ID: "nobranch", Status: "running"},
		{ID: "gone", Status: "running", Branch: "feat/gone"},
		{ID: "meta", Status: "running", Branch: "feat/$(rm -rf ~);x"},
	} {
		if got, _ := realResolver(repo.Dir).Resolve(context.Background(), tk, missing); got != "dead" {
			t.Errorf("Resolve(%s) = %q, want dead", tk.ID, got)
		}
	}
}
