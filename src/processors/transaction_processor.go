package processors

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/username/kryptogain/backend/src/logger"
	"github.com/username/kryptogain/backend/src/models"
)

type TransactionProcessor struct{}

func NewTransactionProcessor() *TransactionProcessor { return &TransactionProcessor{} }

// Normalize converts parser output into the records the tax processor
// consumes. It resolves raw categories to BUY/SELL, derives the missing
// one of price/value, drops rows that cannot be salvaged (unknown
// category, zero date, non-positive amount) and returns how many were
// dropped. The result is sorted ascending by date; rows with identical
// timestamps keep their input order.
func (p *TransactionProcessor) Normalize(txs []models.CanonicalTransaction) ([]models.TransactionRecord, int) {
	var records []models.TransactionRecord
	skipped := 0

	for _, tx := range txs {
		recordType, ok := ResolveCategory(tx.Category)
		if !ok {
			logger.L.Debug("Skipping unclassifiable transaction", "category", tx.Category, "ref", tx.ReferenceID)
			skipped++
			continue
		}
		if tx.TransactionDate.IsZero() {
			logger.L.Debug("Skipping transaction without a usable date", "ref", tx.ReferenceID)
			skipped++
			continue
		}

		amount := tx.Amount.Abs()
		if !amount.IsPositive() {
			logger.L.Debug("Skipping transaction with non-positive amount", "ref", tx.ReferenceID)
			skipped++
			continue
		}

		price := tx.Price.Abs()
		value := tx.Value.Abs()
		if price.IsZero() && !value.IsZero() {
			price = value.Div(amount)
		}
		if value.IsZero() {
			value = amount.Mul(price)
		}

		records = append(records, models.TransactionRecord{
			Date:    tx.TransactionDate,
			Type:    recordType,
			Symbol:  strings.ToUpper(strings.TrimSpace(tx.Symbol)),
			Amount:  amount,
			Price:   price,
			Value:   value,
			Source:  tx.Source,
			RawText: tx.RawText,
			HashID:  generateHash(tx),
		})
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})

	return records, skipped
}

// ResolveCategory maps an exchange's free-form transaction type to BUY or
// SELL. Swaps dispose of the asset and are treated as sells; transfers and
// anything unrecognized never reach the matcher.
func ResolveCategory(category string) (string, bool) {
	c := strings.ToLower(strings.TrimSpace(category))
	switch {
	case strings.Contains(c, "buy"), strings.Contains(c, "deposit"), strings.Contains(c, "receive"):
		return models.TypeBuy, true
	case strings.Contains(c, "sell"), strings.Contains(c, "withdraw"), strings.Contains(c, "send"), strings.Contains(c, "swap"):
		return models.TypeSell, true
	}
	return "", false
}

// generateHash builds the dedup key for a row so re-uploading the same
// export is idempotent.
func generateHash(tx models.CanonicalTransaction) string {
	input := fmt.Sprintf("%s|%s|%s|%s|%s|%s",
		tx.TransactionDate.Format(time.RFC3339), tx.Symbol, tx.Category,
		tx.Amount.String(), tx.Value.String(), tx.ReferenceID)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])
}
