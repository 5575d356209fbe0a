// Package logging builds the charmbracelet/log loggers shared by swarmwatch components.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// New returns a root logger writing to w at the named level.
// Unknown level names fall back to info.
func New(w io.Writer, level string) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Level:           ParseLevel(level),
	})
	return l
}

// Discard returns a logger that drops everything. Used as the zero-value
// logger by components constructed without one.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

// ParseLevel maps a level name onto a log.Level.
func ParseLevel(level string) log.Level {
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// Component returns l with a component prefix, or a discarding logger when l is nil.
func Component(l *log.Logger, name string) *log.Logger {
	if l == nil {
		return Discard()
	}
	return l.WithPrefix(name)
}
