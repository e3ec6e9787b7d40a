package kraken

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/username/kryptogain/backend/src/logger"
	"github.com/username/kryptogain/backend/src/models"
	"github.com/username/kryptogain/backend/src/utils"
)

// KrakenParser reads Kraken ledger exports: txid, refid, time, type,
// asset, amount, fee, plus cost/price on trade exports. Fiat legs carry
// the reporting-currency side of a trade and are not transactions of
// their own, so they are dropped here.
type KrakenParser struct{}

func NewParser() *KrakenParser {
	return &KrakenParser{}
}

var fiatAssets = map[string]bool{
	"usd": true, "eur": true, "gbp": true, "chf": true,
	"cad": true, "aud": true, "jpy": true,
	"zusd": true, "zeur": true, "zgbp": true, "zcad": true, "zaud": true, "zjpy": true,
}

func (p *KrakenParser) Parse(file io.Reader) ([]models.CanonicalTransaction, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	headerIdx := make(map[string]int, len(header))
	for i, h := range header {
		headerIdx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := headerIdx["time"]; !ok {
		return nil, fmt.Errorf("not a kraken export: missing 'time' column")
	}
	if _, ok := headerIdx["type"]; !ok {
		return nil, fmt.Errorf("not a kraken export: missing 'type' column")
	}

	var txs []models.CanonicalTransaction
	rowNum := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}
		rowNum++

		get := func(keys ...string) string {
			for _, k := range keys {
				if idx, ok := headerIdx[k]; ok && idx < len(row) {
					if v := strings.TrimSpace(row[idx]); v != "" {
						return v
					}
				}
			}
			return ""
		}

		asset := get("asset", "pair", "symbol")
		if isFiat(asset) {
			continue
		}

		date, err := utils.ParseTimestamp(get("time", "date"))
		if err != nil {
			logger.L.Debug("Skipping kraken row with unparseable time", "row", rowNum, "error", err)
			continue
		}

		amount := utils.ParseDecimal(get("vol", "amount"))
		price := utils.ParseDecimal(get("price")).Abs()
		value := utils.ParseDecimal(get("cost", "value")).Abs()
		if value.IsZero() && !price.IsZero() {
			value = price.Mul(amount.Abs())
		}

		category := strings.ToLower(get("type"))
		// Ledger rows are signed; a negative trade/spend leg is a
		// disposal even when the type column says "trade".
		if (category == "trade" || category == "spend") && amount.IsNegative() {
			category = "sell"
		} else if (category == "trade" || category == "receive") && amount.IsPositive() {
			category = "buy"
		}

		txs = append(txs, models.CanonicalTransaction{
			Source:          "kraken",
			TransactionDate: date,
			Symbol:          normalizeAsset(asset),
			Category:        category,
			Amount:          amount,
			Price:           price,
			Value:           value,
			ReferenceID:     get("txid", "refid"),
			RawText:         strings.Join(row, ","),
		})
	}

	return txs, nil
}

func isFiat(asset string) bool {
	return fiatAssets[strings.ToLower(strings.TrimSpace(asset))]
}

// normalizeAsset strips Kraken's X/Z asset-class prefixes (XXBT, XETH)
// from the common tickers.
func normalizeAsset(asset string) string {
	a := strings.ToUpper(strings.TrimSpace(asset))
	if len(a) == 4 && (a[0] == 'X' || a[0] == 'Z') {
		a = a[1:]
	}
	if a == "XBT" {
		a = "BTC"
	}
	return a
}
