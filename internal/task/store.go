package task

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/twiced-technology-gmbh/swarmwatch/internal/filelock"
)

// Sentinel errors returned by Load.
var (
	ErrStoreNotFound  = errors.New("task store not found")
	ErrStoreMalformed = errors.New("task store is not valid JSON")
)

// ReadWarning describes a store record that was skipped during lenient reading.
type ReadWarning struct {
	Index int // position of the record in the store
	Err   error
}

// Load reads the task store at path. The store is either a JSON array of
// tasks or an object with a "tasks" array. Records that are not objects
// or lack an id are skipped and reported as warnings; the store as a whole
// failing to parse returns ErrStoreMalformed.
func Load(path string) ([]*Task, []ReadWarning, error) {
	data, err := filelock.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %s", ErrStoreNotFound, path)
		}
		return nil, nil, fmt.Errorf("reading task store: %w", err)
	}
	return Parse(data)
}

// Parse decodes task store bytes. See Load.
func Parse(data []byte) ([]*Task, []ReadWarning, error) {
	records, err := splitRecords(data)
	if err != nil {
		return nil, nil, err
	}

	tasks := make([]*Task, 0, len(records))
	var warnings []ReadWarning
	for i, rec := range records {
		var t Task
		if err := json.Unmarshal(rec, &t); err != nil {
			warnings = append(warnings, ReadWarning{Index: i, Err: fmt.Errorf("record is not an object: %w", err)})
			continue
		}
		if t.ID == "" {
			warnings = append(warnings, ReadWarning{Index: i, Err: errors.New("record has no id")})
			continue
		}
		tasks = append(tasks, &t)
	}
	return tasks, warnings, nil
}

func splitRecords(data []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrStoreMalformed)
	}

	switch trimmed[0] {
	case '[':
		var records []json.RawMessage
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrStoreMalformed, err)
		}
		return records, nil
	case '{':
		var wrapper struct {
			Tasks []json.RawMessage `json:"tasks"`
		}
		if err := json.Unmarshal(trimmed, &wrapper); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrStoreMalformed, err)
		}
		return wrapper.Tasks, nil
	default:
		return nil, fmt.Errorf("%w: expected an array or an object with a \"tasks\" array", ErrStoreMalformed)
	}
}

// Find returns the task with id, or nil.
func Find(tasks []*Task, id string) *Task {
	for _, t := range tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}
