package models

import "github.com/shopspring/decimal"

// Jurisdiction maps a tax regime to its short- and long-term capital
// gains rates. Rates are percentages in [0, 100]. Long-term <= short-term
// is conventional but not enforced.
type Jurisdiction struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	ShortTermRate decimal.Decimal `json:"short_term_rate"`
	LongTermRate  decimal.Decimal `json:"long_term_rate"`
	Description   string          `json:"description"`
}

// Rate returns the applicable percentage for a holding-period
// classification.
func (j Jurisdiction) Rate(classification string) decimal.Decimal {
	if classification == LongTerm {
		return j.LongTermRate
	}
	return j.ShortTermRate
}
