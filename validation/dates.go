package validation

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalidDate = errors.New("invalid date")
	ErrNotFuture   = errors.New("date is not in the future")
)

// Accepted input layouts; the second matches an HTML datetime-local input.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseDateTime parses raw in one of the accepted layouts. Layouts without a zone use loc.
func ParseDateTime(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrInvalidDate
}

// ParseFuture parses raw and requires it to be strictly after now.
func ParseFuture(raw string, now time.Time) (time.Time, error) {
	t, err := ParseDateTime(raw, now.Location())
	if err != nil {
		return time.Time{}, err
	}
	if !t.After(now) {
		return time.Time{}, ErrNotFuture
	}
	return t, nil
}
