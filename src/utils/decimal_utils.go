package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseDecimal parses a monetary or quantity cell. Exchange exports mix in
// thousands separators, currency signs and stray whitespace; anything that
// still fails after stripping those parses as zero.
func ParseDecimal(s string) decimal.Decimal {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return decimal.Zero
	}
	if d, err := decimal.NewFromString(s); err == nil {
		return d
	}
	var clean strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			clean.WriteRune(r)
		}
	}
	d, err := decimal.NewFromString(clean.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

// FormatMoney renders a decimal for presentation with two fractional
// digits, rounding half up. Intermediate computation never rounds; only
// output does.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}
