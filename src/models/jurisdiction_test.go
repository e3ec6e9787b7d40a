package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestJurisdictionRate(t *testing.T) {
	j := Jurisdiction{
		ID:            "us-short",
		ShortTermRate: decimal.NewFromInt(37),
		LongTermRate:  decimal.NewFromInt(20),
	}

	assert.True(t, j.Rate(ShortTerm).Equal(decimal.NewFromInt(37)))
	assert.True(t, j.Rate(LongTerm).Equal(decimal.NewFromInt(20)))
	// Anything that is not long-term falls back to the short-term rate.
	assert.True(t, j.Rate("").Equal(decimal.NewFromInt(37)))
}
