package services

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"github.com/username/kryptogain/backend/src/config"
	"github.com/username/kryptogain/backend/src/database"
	"github.com/username/kryptogain/backend/src/logger"
	"github.com/username/kryptogain/backend/src/models"
	"github.com/username/kryptogain/backend/src/parsers"
	"github.com/username/kryptogain/backend/src/processors"
)

const (
	// Per-user, per-jurisdiction report cache key.
	ckReport = "report_user_%d_jurisdiction_%s"

	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute

	priceLookupTimeout = 10 * time.Second
)

type uploadServiceImpl struct {
	normalizer   processors.TransactionNormalizer
	taxProcessor processors.TaxProcessor
	priceService PriceService
	reportCache  *cache.Cache
}

// NewUploadService wires the import pipeline. priceService may be nil, in
// which case holdings are served without market quotes.
func NewUploadService(
	normalizer processors.TransactionNormalizer,
	taxProcessor processors.TaxProcessor,
	priceService PriceService,
	reportCache *cache.Cache,
) UploadService {
	return &uploadServiceImpl{
		normalizer:   normalizer,
		taxProcessor: taxProcessor,
		priceService: priceService,
		reportCache:  reportCache,
	}
}

func (s *uploadServiceImpl) ProcessUpload(fileReader io.Reader, userID int64, source string) (*UploadResult, error) {
	overallStartTime := time.Now()
	logger.L.Info("ProcessUpload START", "userID", userID, "source", source)

	parser, err := parsers.GetParser(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}

	canonicalTxs, err := parser.Parse(fileReader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}

	records, skipped := s.normalizer.Normalize(canonicalTxs)

	imported, duplicates := 0, 0
	if len(records) > 0 {
		imported, duplicates, err = s.insertRecords(records, userID)
		if err != nil {
			return nil, err
		}
		s.InvalidateUserCache(userID)
	}

	report, err := s.GetReport(userID, config.Cfg.DefaultJurisdiction)
	if err != nil {
		return nil, err
	}

	logger.L.Info("ProcessUpload END",
		"userID", userID,
		"imported", imported,
		"duplicates", duplicates,
		"skipped", skipped,
		"duration", time.Since(overallStartTime))
	return &UploadResult{
		Imported:   imported,
		Duplicates: duplicates,
		Skipped:    skipped,
		Report:     report,
	}, nil
}

// insertRecords writes normalized records in one database transaction.
// Duplicate rows, identified by the (user_id, hash_id) unique constraint,
// are counted and skipped.
func (s *uploadServiceImpl) insertRecords(records []models.TransactionRecord, userID int64) (imported, duplicates int, err error) {
	dbTx, err := database.DB.Begin()
	if err != nil {
		return 0, 0, fmt.Errorf("error beginning database transaction: %w", err)
	}
	defer dbTx.Rollback()

	stmt, err := dbTx.Prepare(`INSERT INTO transactions (user_id, date, tx_type, symbol, amount, price, value, source, raw_text, hash_id) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, 0, fmt.Errorf("error preparing insert statement: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		_, execErr := stmt.Exec(
			userID,
			rec.Date.UTC().Format(time.RFC3339),
			rec.Type,
			rec.Symbol,
			rec.Amount.String(),
			rec.Price.String(),
			rec.Value.String(),
			rec.Source,
			rec.RawText,
			rec.HashID,
		)
		if execErr != nil {
			if strings.Contains(strings.ToLower(execErr.Error()), "unique constraint failed") {
				logger.L.Debug("Skipping duplicate transaction on upload", "userID", userID, "hashID", rec.HashID)
				duplicates++
				continue
			}
			return 0, 0, fmt.Errorf("error inserting transaction (hash %s): %w", rec.HashID, execErr)
		}
		imported++
	}

	if err := dbTx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("error committing transactions: %w", err)
	}
	return imported, duplicates, nil
}

func (s *uploadServiceImpl) GetReport(userID int64, jurisdictionID string) (*TaxReport, error) {
	jurisdiction, err := processors.GetJurisdiction(jurisdictionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownJurisdiction, err)
	}

	cacheKey := fmt.Sprintf(ckReport, userID, jurisdiction.ID)
	if cached, found := s.reportCache.Get(cacheKey); found {
		logger.L.Debug("Cache hit for report", "userID", userID, "jurisdiction", jurisdiction.ID)
		return cached.(*TaxReport), nil
	}

	records, err := fetchUserTransactions(userID)
	if err != nil {
		return nil, err
	}

	events, openLots, err := s.taxProcessor.Process(records, jurisdiction)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProcessingFailed, err)
	}

	report := &TaxReport{
		Jurisdiction: jurisdiction,
		Events:       events,
		Summary:      processors.Summarize(events),
		Holdings:     s.buildHoldings(openLots),
	}
	for _, rec := range records {
		switch rec.Type {
		case models.TypeBuy:
			report.TotalBuys = report.TotalBuys.Add(rec.Value)
		case models.TypeSell:
			report.TotalSells = report.TotalSells.Add(rec.Value)
		}
	}
	for _, event := range events {
		report.NetProfit = report.NetProfit.Add(event.PnL)
	}
	report.NetAfterTax = report.NetProfit.Sub(report.Summary.TotalTax)

	s.reportCache.Set(cacheKey, report, DefaultCacheExpiration)
	return report, nil
}

// buildHoldings flattens open lots per symbol into a stable, quote-enriched
// list. Holdings are jurisdiction independent.
func (s *uploadServiceImpl) buildHoldings(openLots map[string][]models.TaxLot) []Holding {
	symbols := make([]string, 0, len(openLots))
	for symbol := range openLots {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	holdings := []Holding{}
	for _, symbol := range symbols {
		for _, lot := range openLots[symbol] {
			holdings = append(holdings, Holding{
				Symbol:     symbol,
				Amount:     lot.Amount,
				CostBasis:  lot.CostBasis,
				AcquiredAt: lot.Date,
			})
		}
	}

	if s.priceService != nil && len(holdings) > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), priceLookupTimeout)
		defer cancel()
		prices, err := s.priceService.GetSpotPrices(ctx, symbols)
		if err != nil {
			logger.L.Warn("Spot price lookup failed, serving holdings without quotes", "error", err)
			return holdings
		}
		for i := range holdings {
			if price, ok := prices[holdings[i].Symbol]; ok {
				holdings[i].MarketPrice = price
				holdings[i].MarketValue = holdings[i].Amount.Mul(price)
			}
		}
	}
	return holdings
}

func (s *uploadServiceImpl) GetHoldings(userID int64) ([]Holding, error) {
	report, err := s.GetReport(userID, config.Cfg.DefaultJurisdiction)
	if err != nil {
		return nil, err
	}
	return report.Holdings, nil
}

func (s *uploadServiceImpl) ListTransactions(userID int64) ([]models.TransactionRecord, error) {
	return fetchUserTransactions(userID)
}

func (s *uploadServiceImpl) DeleteAllTransactions(userID int64) error {
	_, err := database.DB.Exec(`DELETE FROM transactions WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("error deleting transactions for userID %d: %w", userID, err)
	}
	s.InvalidateUserCache(userID)
	return nil
}

func (s *uploadServiceImpl) HasTransactions(userID int64) (bool, error) {
	var exists bool
	err := database.DB.QueryRow(`SELECT EXISTS(SELECT 1 FROM transactions WHERE user_id = ?)`, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking transactions for userID %d: %w", userID, err)
	}
	return exists, nil
}

// InvalidateUserCache clears the user's cached reports for every
// jurisdiction, forcing recalculation on the next request.
func (s *uploadServiceImpl) InvalidateUserCache(userID int64) {
	for _, jurisdiction := range processors.Jurisdictions() {
		s.reportCache.Delete(fmt.Sprintf(ckReport, userID, jurisdiction.ID))
	}
	logger.L.Info("Invalidated report caches for user", "userID", userID)
}

func fetchUserTransactions(userID int64) ([]models.TransactionRecord, error) {
	logger.L.Debug("Fetching transactions from DB", "userID", userID)
	rows, err := database.DB.Query(`SELECT id, date, tx_type, symbol, amount, price, value, source, raw_text, hash_id FROM transactions WHERE user_id = ? ORDER BY date ASC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying transactions for userID %d: %w", userID, err)
	}
	defer rows.Close()

	var records []models.TransactionRecord
	for rows.Next() {
		var rec models.TransactionRecord
		var dateStr, amountStr, priceStr, valueStr string
		if scanErr := rows.Scan(&rec.ID, &dateStr, &rec.Type, &rec.Symbol, &amountStr, &priceStr, &valueStr, &rec.Source, &rec.RawText, &rec.HashID); scanErr != nil {
			return nil, fmt.Errorf("error scanning transaction row for userID %d: %w", userID, scanErr)
		}
		rec.Date, err = time.Parse(time.RFC3339, dateStr)
		if err != nil {
			return nil, fmt.Errorf("error parsing stored date %q for userID %d: %w", dateStr, userID, err)
		}
		if rec.Amount, err = decimal.NewFromString(amountStr); err != nil {
			return nil, fmt.Errorf("error parsing stored amount %q for userID %d: %w", amountStr, userID, err)
		}
		if rec.Price, err = decimal.NewFromString(priceStr); err != nil {
			return nil, fmt.Errorf("error parsing stored price %q for userID %d: %w", priceStr, userID, err)
		}
		if rec.Value, err = decimal.NewFromString(valueStr); err != nil {
			return nil, fmt.Errorf("error parsing stored value %q for userID %d: %w", valueStr, userID, err)
		}
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over transaction rows for userID %d: %w", userID, err)
	}
	logger.L.Debug("DB fetch complete", "userID", userID, "transactionCount", len(records))
	return records, nil
}
