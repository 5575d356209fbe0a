// Package gittest provides an in-memory git.Client for tests.
package gittest

import (
	"context"
	"strings"
	"sync"
)

// AnyDir matches every working directory.
const AnyDir = "*"

// Fake answers git probes from canned responses. Unregistered commands
// behave like failed git invocations: empty output, non-zero exit.
type Fake struct {
	mu      sync.Mutex
	outputs map[string]string
	exits   map[string]bool
	calls   []string
}

// New returns an empty Fake.
func New() *Fake {
	return &Fake{outputs: map[string]string{}, exits: map[string]bool{}}
}

// On registers out as the stdout of git args in dir. The command also
// counts as succeeding.
func (f *Fake) On(dir, out string, args ...string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := key(dir, args)
	f.outputs[k] = out
	f.exits[k] = true
	return f
}

// Exit registers only an exit status for git args in dir.
func (f *Fake) Exit(dir string, ok bool, args ...string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exits[key(dir, args)] = ok
	return f
}

// Output implements git.Client.
func (f *Fake) Output(_ context.Context, dir string, args ...string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, key(dir, args))
	if out, ok := f.outputs[key(dir, args)]; ok {
		return strings.TrimSpace(out)
	}
	if out, ok := f.outputs[key(AnyDir, args)]; ok {
		return strings.TrimSpace(out)
	}
	return ""
}

// Succeeds implements git.Client.
func (f *Fake) Succeeds(_ context.Context, dir string, args ...string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, key(dir, args))
	if ok, found := f.exits[key(dir, args)]; found {
		return ok
	}
	return f.exits[key(AnyDir, args)]
}

// Called reports whether git args was invoked in dir.
func (f *Fake) Called(dir string, args ...string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := key(dir, args)
	for _, c := range f.calls {
		if c == want {
			return true
		}
	}
	return false
}

// Calls returns the number of probes issued so far.
func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func key(dir string, args []string) string {
	return dir + "\x00" + strings.Join(args, " ")
}
