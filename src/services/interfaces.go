package services

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/kryptogain/backend/src/models"
)

var (
	ErrParsingFailed       = errors.New("parsing failed")
	ErrProcessingFailed    = errors.New("processing failed")
	ErrUnknownJurisdiction = errors.New("unknown jurisdiction")
)

// UploadResult summarises one CSV import.
type UploadResult struct {
	Imported   int        `json:"imported"`
	Duplicates int        `json:"duplicates"`
	Skipped    int        `json:"skipped"`
	Report     *TaxReport `json:"report"`
}

// Holding is an open lot remaining after matching, optionally enriched with
// a current market quote.
type Holding struct {
	Symbol      string          `json:"symbol"`
	Amount      decimal.Decimal `json:"amount"`
	CostBasis   decimal.Decimal `json:"cost_basis"`
	AcquiredAt  time.Time       `json:"acquired_at"`
	MarketPrice decimal.Decimal `json:"market_price"`
	MarketValue decimal.Decimal `json:"market_value"`
}

// TaxReport is the full per-jurisdiction calculation served to the client.
type TaxReport struct {
	Jurisdiction models.Jurisdiction   `json:"jurisdiction"`
	Events       []models.TaxableEvent `json:"events"`
	Summary      models.TaxSummary     `json:"summary"`
	Holdings     []Holding             `json:"holdings"`
	TotalBuys    decimal.Decimal       `json:"total_buys"`
	TotalSells   decimal.Decimal       `json:"total_sells"`
	NetProfit    decimal.Decimal       `json:"net_profit"`
	NetAfterTax  decimal.Decimal       `json:"net_after_tax"`
}

// UploadService is the core import and reporting logic.
type UploadService interface {
	ProcessUpload(fileReader io.Reader, userID int64, source string) (*UploadResult, error)
	GetReport(userID int64, jurisdictionID string) (*TaxReport, error)
	GetHoldings(userID int64) ([]Holding, error)
	ListTransactions(userID int64) ([]models.TransactionRecord, error)
	DeleteAllTransactions(userID int64) error
	HasTransactions(userID int64) (bool, error)
	InvalidateUserCache(userID int64)
}

// PriceService provides current spot prices keyed by upper-case symbol.
type PriceService interface {
	GetSpotPrices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error)
}

// EmailService sends account mail.
type EmailService interface {
	SendVerificationEmail(toEmail, username, token string) error
}
