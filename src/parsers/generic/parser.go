package generic

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/username/kryptogain/backend/src/logger"
	"github.com/username/kryptogain/backend/src/models"
	"github.com/username/kryptogain/backend/src/security/validation"
	"github.com/username/kryptogain/backend/src/utils"
)

// GenericParser handles the loose CSV shape most exchanges can export:
// a header row naming at least a transaction-type column and a value
// column, optionally date, symbol, quantity and unit-price columns.
// Columns are located by header keywords, not position.
type GenericParser struct{}

func NewParser() *GenericParser {
	return &GenericParser{}
}

func (p *GenericParser) Parse(file io.Reader) ([]models.CanonicalTransaction, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	typeIdx := findColumn(header, "type", "transaction")
	valueIdx := findColumn(header, "value", "usd", "amount")
	dateIdx := findColumn(header, "date", "time")
	symbolIdx := findColumn(header, "symbol", "asset", "coin")
	qtyIdx := findColumn(header, "quantity", "qty", "units", "vol")
	priceIdx := findColumn(header, "price")

	if typeIdx == -1 || valueIdx == -1 {
		return nil, fmt.Errorf("could not find required columns (type and value) in CSV header")
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV records: %w", err)
	}

	var txs []models.CanonicalTransaction
	for i, row := range records {
		if len(row) <= 1 {
			continue
		}

		date, dateErr := parseDateCell(row, dateIdx)
		if dateErr != nil {
			logger.L.Debug("Row has unparseable date, keeping with zero date", "row", i+1, "error", dateErr)
		}

		value := utils.ParseDecimal(cell(row, valueIdx)).Abs()
		amount := value // the simplest exports carry only a fiat value per row
		if qtyIdx != -1 {
			if qty := utils.ParseDecimal(cell(row, qtyIdx)).Abs(); qty.IsPositive() {
				amount = qty
			}
		}

		tx := models.CanonicalTransaction{
			Source:          "generic",
			TransactionDate: date,
			Symbol:          cleanCell(cell(row, symbolIdx)),
			Category:        cleanCell(cell(row, typeIdx)),
			Amount:          amount,
			Value:           value,
			ReferenceID:     fmt.Sprintf("row-%d", i+1),
			RawText:         strings.Join(row, ","),
		}
		if priceIdx != -1 {
			tx.Price = utils.ParseDecimal(cell(row, priceIdx)).Abs()
		}
		txs = append(txs, tx)
	}

	return txs, nil
}

// findColumn returns the index of the first header cell containing any of
// the keywords, or -1.
func findColumn(header []string, keywords ...string) int {
	for i, h := range header {
		lower := strings.ToLower(strings.TrimSpace(h))
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				return i
			}
		}
	}
	return -1
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func cleanCell(s string) string {
	return strings.TrimSpace(validation.StripUnprintable(s))
}

func parseDateCell(row []string, dateIdx int) (time.Time, error) {
	if dateIdx == -1 {
		return time.Time{}, fmt.Errorf("no date column")
	}
	return utils.ParseTimestamp(cell(row, dateIdx))
}
