package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CanonicalTransaction is the unified, intermediate representation of a
// parsed CSV row. Each parser populates as many fields as its dialect
// provides; the normalization boundary resolves the raw category, fills
// derived fields and produces TransactionRecords.
type CanonicalTransaction struct {
	Source          string          `json:"source"`
	TransactionDate time.Time       `json:"transaction_date"`
	Symbol          string          `json:"symbol"`
	Category        string          `json:"category"` // raw type text, e.g. "buy", "withdrawal", "swap"
	Amount          decimal.Decimal `json:"amount"`   // asset quantity, may be signed
	Price           decimal.Decimal `json:"price"`    // unit price, zero if the dialect lacks it
	Value           decimal.Decimal `json:"value"`    // total value, zero if the dialect lacks it
	ReferenceID     string          `json:"reference_id"`
	RawText         string          `json:"raw_text"`
}
