// Package date provides a Stamp type for task timestamps that arrive in
// whatever shape the spawn script wrote them.
package date

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// layouts accepted for string timestamps, tried in order.
var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Stamp is a task timestamp. It keeps the raw JSON it was decoded from and
// marshals back to exactly those bytes, so enrichment never rewrites a
// source field. Time is the zero value when the raw form is unrecognized.
type Stamp struct {
	time.Time
	raw json.RawMessage
}

// FromTime creates a Stamp rendered as RFC3339.
func FromTime(t time.Time) Stamp {
	raw, _ := json.Marshal(t.UTC().Format(time.RFC3339))
	return Stamp{Time: t, raw: raw}
}

// Parse interprets a timestamp string: RFC3339, a few common layouts, or
// a Unix epoch in seconds or milliseconds.
func Parse(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return fromEpoch(n), true
	}
	return time.Time{}, false
}

// Set reports whether the stamp holds a recognized time.
func (s Stamp) Set() bool {
	return !s.IsZero()
}

// Raw returns the original JSON bytes, or nil.
func (s Stamp) Raw() json.RawMessage {
	return s.raw
}

// MarshalJSON implements json.Marshaler.
func (s Stamp) MarshalJSON() ([]byte, error) {
	if len(s.raw) > 0 {
		return s.raw, nil
	}
	if s.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(s.UTC().Format(time.RFC3339))
}

// UnmarshalJSON implements json.Unmarshaler. Unrecognized values are
// retained raw rather than rejected.
func (s *Stamp) UnmarshalJSON(data []byte) error {
	s.raw = append(json.RawMessage(nil), data...)
	s.Time = time.Time{}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if trimmed[0] == '"' {
		var str string
		if err := json.Unmarshal(trimmed, &str); err != nil {
			return nil //nolint:nilerr // keep the raw value, leave time unset
		}
		if t, ok := Parse(str); ok {
			s.Time = t
		}
		return nil
	}
	if n, err := strconv.ParseFloat(string(trimmed), 64); err == nil {
		s.Time = fromEpoch(n)
	}
	return nil
}

// fromEpoch treats values past the year 33658 in seconds as milliseconds.
func fromEpoch(n float64) time.Time {
	const msThreshold = 1e12
	if n >= msThreshold {
		return time.UnixMilli(int64(n)).UTC()
	}
	return time.Unix(int64(n), 0).UTC()
}
