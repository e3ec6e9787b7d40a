package utils

import (
	"fmt"
	"strings"
	"time"
)

// Timestamp layouts seen across exchange CSV exports, tried in order.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05 MST",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02-01-2006",
	"1/2/2006 15:04",
	"1/2/2006",
}

// ParseTimestamp parses a transaction timestamp, trying the known export
// layouts in order.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse timestamp: %q", s)
}
