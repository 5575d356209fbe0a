// Package filelock provides advisory file locking for coordinating with
// other processes that read or write the same files (the spawn script
// rewriting the task store, concurrent config writers).
package filelock

import (
	"fmt"
	"io"
	"os"
)

const lockFileMode = 0o600

// Lock acquires an exclusive advisory lock on the file at path,
// creating it if it does not exist. The returned function releases
// the lock and must be called when the critical section is done.
func Lock(path string) (unlock func() error, err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, lockFileMode) //nolint:gosec // lock file path from trusted source
	if err != nil {
		return nil, err
	}

	if err := lockFile(f, true); err != nil {
		_ = f.Close()
		return nil, err
	}

	return releaser(f), nil
}

// ReadFile reads path while holding a shared advisory lock, so a writer
// holding an exclusive lock is never observed mid-write. Writers that do
// not lock are not excluded.
func ReadFile(path string) ([]byte, error) {
	f, err := os.Open(path) //nolint:gosec // caller-supplied store path
	if err != nil {
		return nil, err
	}

	if err := lockFile(f, false); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("locking %s: %w", path, err)
	}
	unlock := releaser(f)

	data, readErr := io.ReadAll(f)
	if err := unlock(); err != nil && readErr == nil {
		readErr = err
	}
	if readErr != nil {
		return nil, readErr
	}
	return data, nil
}

func releaser(f *os.File) func() error {
	return func() error {
		unlockErr := unlockFile(f)
		closeErr := f.Close()
		if unlockErr != nil {
			return unlockErr
		}
		return closeErr
	}
}
