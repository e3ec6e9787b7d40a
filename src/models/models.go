package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types after normalization. The matcher knows no third kind;
// transfers and unclassifiable rows are resolved or dropped upstream.
const (
	TypeBuy  = "BUY"
	TypeSell = "SELL"
)

// Holding-period classifications.
const (
	ShortTerm = "SHORT_TERM"
	LongTerm  = "LONG_TERM"
)

// TransactionRecord is a single normalized acquisition or disposal event.
// Amount is always positive; the sign convention is resolved during
// normalization. Value = Amount * Price in the reporting currency.
type TransactionRecord struct {
	ID     int64           `json:"id,omitempty"` // database primary key
	Date   time.Time       `json:"date"`
	Type   string          `json:"type"` // TypeBuy or TypeSell
	Symbol string          `json:"symbol"`
	Amount decimal.Decimal `json:"amount"`
	Price  decimal.Decimal `json:"price"`
	Value  decimal.Decimal `json:"value"`

	Source  string `json:"source,omitempty"` // e.g. "generic", "kraken"
	RawText string `json:"raw_text,omitempty"`
	HashID  string `json:"hash_id,omitempty"` // dedup hash, unique per user
}

// TaxLot is the remaining unconsumed quantity of one BUY and its fixed
// unit cost basis. Lots live inside the matcher's per-symbol FIFO queue;
// a lot is removed the moment its amount is fully consumed.
type TaxLot struct {
	Date      time.Time       `json:"date"`
	Amount    decimal.Decimal `json:"amount"`
	CostBasis decimal.Decimal `json:"cost_basis"` // unit acquisition price
}

// TaxableEvent is one matched (lot, disposal-portion) pair. A SELL produces
// one event per consumed lot plus, when the lot queue runs dry, a single
// zero-cost-basis event for the unmatched remainder.
type TaxableEvent struct {
	Date           time.Time       `json:"date"`
	Symbol         string          `json:"symbol"`
	Classification string          `json:"classification"` // ShortTerm or LongTerm
	SellAmount     decimal.Decimal `json:"sell_amount"`
	SellPrice      decimal.Decimal `json:"sell_price"`
	CostBasis      decimal.Decimal `json:"cost_basis"`
	PnL            decimal.Decimal `json:"pnl"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	IsTaxable      bool            `json:"is_taxable"`
}

// TaxSummary aggregates taxable events. NetAfterTax is derived at
// presentation time and not stored here.
type TaxSummary struct {
	ShortTermGains decimal.Decimal `json:"short_term_gains"`
	LongTermGains  decimal.Decimal `json:"long_term_gains"`
	TotalTax       decimal.Decimal `json:"total_tax"`
}
