package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestampLayouts(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{"2024-01-15T10:30:00Z", time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)},
		{"2024-01-15 10:30:00", time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)},
		{"2024-01-15", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"15-01-2024", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"1/15/2024", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTimestamp(tt.input)
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %s", got)
		})
	}
}

func TestParseTimestampRejectsGarbage(t *testing.T) {
	for _, input := range []string{"", "   ", "yesterday", "2024-13-45"} {
		_, err := ParseTimestamp(input)
		assert.Error(t, err, "input %q", input)
	}
}
