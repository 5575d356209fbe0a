// Package output renders enriched tasks, git views, and errors as
// tables, compact lines, or JSON.
package output

import (
	"os"
	"strings"
)

// EnvOutput selects the default format when no flag is given.
const EnvOutput = "SWARMWATCH_OUTPUT"

// Format names an output format.
type Format string

const (
	FormatTable   Format = "table"
	FormatJSON    Format = "json"
	FormatCompact Format = "compact"
)

// ParseFormat maps a format name onto a Format. "oneline" is accepted for
// compact; anything unrecognised reports false.
func ParseFormat(name string) (Format, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "table":
		return FormatTable, true
	case "json":
		return FormatJSON, true
	case "compact", "oneline":
		return FormatCompact, true
	}
	return "", false
}

// Detect picks the format: an explicit flag wins (json, then compact,
// then table), then $SWARMWATCH_OUTPUT, then table.
func Detect(jsonFlag, tableFlag, compactFlag bool) Format {
	switch {
	case jsonFlag:
		return FormatJSON
	case compactFlag:
		return FormatCompact
	case tableFlag:
		return FormatTable
	}
	if f, ok := ParseFormat(os.Getenv(EnvOutput)); ok {
		return f
	}
	return FormatTable
}
