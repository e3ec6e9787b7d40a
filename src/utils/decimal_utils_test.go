package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"123.45", "123.45"},
		{"1,234.56", "1234.56"},
		{"  42 ", "42"},
		{"$1,000", "1000"},
		{"-0.5", "-0.5"},
		{"€99.90", "99.9"},
		{"", "0"},
		{"garbage", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseDecimal(tt.input)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "1234.57", FormatMoney(ParseDecimal("1234.567")))
	assert.Equal(t, "0.00", FormatMoney(ParseDecimal("0")))
	assert.Equal(t, "-5.10", FormatMoney(ParseDecimal("-5.1")))
}
