// Package task models agent tasks read from the external task store and
// their enriched, per-poll view.
package task

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/twiced-technology-gmbh/swarmwatch/internal/date"
)

// Task is one spawned coding-agent attempt as declared in the task store.
// Fields the store carries that Task does not model are retained and
// re-emitted untouched.
type Task struct {
	ID          string     `json:"id"`
	Agent       string     `json:"agent,omitempty"`
	Model       string     `json:"model,omitempty"`
	Branch      string     `json:"branch,omitempty"`
	Description string     `json:"description,omitempty"`
	StartedAt   date.Stamp `json:"startedAt"`
	CompletedAt date.Stamp `json:"completedAt"`
	Status      string     `json:"status,omitempty"`
	Worktree    string     `json:"worktree,omitempty"`
	TmuxSession string     `json:"tmuxSession,omitempty"`

	// raw holds every field of the source record, keyed by JSON name.
	raw map[string]json.RawMessage
}

// known lists the JSON names Task decodes into typed fields.
var known = []string{
	"id", "agent", "model", "branch", "description",
	"startedAt", "completedAt", "status", "worktree", "tmuxSession",
}

// UnmarshalJSON decodes a store record leniently: a typed field holding a
// value of the wrong JSON type is left empty instead of failing the record.
func (t *Task) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("task record is null")
	}

	*t = Task{raw: raw}
	t.ID = stringField(raw, "id")
	t.Agent = stringField(raw, "agent")
	t.Model = stringField(raw, "model")
	t.Branch = stringField(raw, "branch")
	t.Description = stringField(raw, "description")
	t.Status = stringField(raw, "status")
	t.Worktree = stringField(raw, "worktree")
	t.TmuxSession = stringField(raw, "tmuxSession")
	if v, ok := raw["startedAt"]; ok {
		_ = t.StartedAt.UnmarshalJSON(v)
	}
	if v, ok := raw["completedAt"]; ok {
		_ = t.CompletedAt.UnmarshalJSON(v)
	}
	return nil
}

// MarshalJSON emits the source record with typed fields overlaid.
func (t Task) MarshalJSON() ([]byte, error) {
	return marshalObject(t.Fields())
}

// Fields returns the record as a JSON field map: every source field, with
// typed fields set by code taking precedence.
func (t *Task) Fields() map[string]json.RawMessage {
	m := make(map[string]json.RawMessage, len(t.raw)+len(known))
	for k, v := range t.raw {
		m[k] = v
	}
	setString(m, "id", t.ID, true)
	setString(m, "agent", t.Agent, false)
	setString(m, "model", t.Model, false)
	setString(m, "branch", t.Branch, false)
	setString(m, "description", t.Description, false)
	setString(m, "status", t.Status, false)
	setString(m, "worktree", t.Worktree, false)
	setString(m, "tmuxSession", t.TmuxSession, false)
	setStamp(m, "startedAt", t.StartedAt)
	setStamp(m, "completedAt", t.CompletedAt)
	return m
}

// Extra returns the raw value of a field Task does not model.
func (t *Task) Extra(name string) (json.RawMessage, bool) {
	for _, k := range known {
		if k == name {
			return nil, false
		}
	}
	v, ok := t.raw[name]
	return v, ok
}

// Session returns the tmux session name hosting the task's agent.
func (t *Task) Session() string {
	if t.TmuxSession != "" {
		return t.TmuxSession
	}
	return t.ID
}

// WorktreeName returns the directory name of the task's worktree.
func (t *Task) WorktreeName() string {
	if t.Worktree != "" {
		return t.Worktree
	}
	return t.ID
}

func stringField(raw map[string]json.RawMessage, name string) string {
	v, ok := raw[name]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return ""
	}
	return s
}

// setString writes s into m unless the source already holds the same
// value (keeping its exact bytes) or s is empty and optional.
func setString(m map[string]json.RawMessage, name, s string, required bool) {
	if existing, ok := m[name]; ok {
		var cur string
		if json.Unmarshal(existing, &cur) == nil && cur == s {
			return
		}
		if s == "" {
			return
		}
	}
	if s == "" && !required {
		return
	}
	b, _ := json.Marshal(s)
	m[name] = b
}

func setStamp(m map[string]json.RawMessage, name string, s date.Stamp) {
	if len(s.Raw()) > 0 {
		m[name] = s.Raw()
		return
	}
	if s.Set() {
		b, _ := s.MarshalJSON()
		m[name] = b
	}
}

func marshalObject(m map[string]json.RawMessage) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(m); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
