package processors

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/kryptogain/backend/src/models"
)

func TestResolveCategory(t *testing.T) {
	tests := []struct {
		category string
		want     string
		ok       bool
	}{
		{"buy", models.TypeBuy, true},
		{"Market Buy", models.TypeBuy, true},
		{"deposit", models.TypeBuy, true},
		{"Receive", models.TypeBuy, true},
		{"sell", models.TypeSell, true},
		{"withdraw", models.TypeSell, true},
		{"Withdrawal", models.TypeSell, true},
		{"send", models.TypeSell, true},
		{"swap", models.TypeSell, true},
		{"staking reward", "", false},
		{"transfer", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			got, ok := ResolveCategory(tt.category)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeDerivesPriceAndValue(t *testing.T) {
	txs := []models.CanonicalTransaction{
		{
			TransactionDate: date("2024-01-01"),
			Symbol:          "btc",
			Category:        "buy",
			Amount:          dec("2"),
			Value:           dec("80000"),
		},
		{
			TransactionDate: date("2024-01-02"),
			Symbol:          "ETH",
			Category:        "sell",
			Amount:          dec("3"),
			Price:           dec("2500"),
		},
	}

	records, skipped := NewTransactionProcessor().Normalize(txs)
	require.Len(t, records, 2)
	assert.Zero(t, skipped)

	assert.Equal(t, "BTC", records[0].Symbol)
	assert.True(t, records[0].Price.Equal(dec("40000")), "derived price %s", records[0].Price)
	assert.True(t, records[0].Value.Equal(dec("80000")))

	assert.Equal(t, models.TypeSell, records[1].Type)
	assert.True(t, records[1].Value.Equal(dec("7500")), "derived value %s", records[1].Value)
}

func TestNormalizeSkipsUnusableRows(t *testing.T) {
	txs := []models.CanonicalTransaction{
		{TransactionDate: date("2024-01-01"), Symbol: "BTC", Category: "staking", Amount: dec("1"), Value: dec("100")},
		{Symbol: "BTC", Category: "buy", Amount: dec("1"), Value: dec("100")},
		{TransactionDate: date("2024-01-01"), Symbol: "BTC", Category: "buy", Amount: decimal.Zero, Value: dec("100")},
		{TransactionDate: date("2024-01-01"), Symbol: "BTC", Category: "buy", Amount: dec("1"), Value: dec("100")},
	}

	records, skipped := NewTransactionProcessor().Normalize(txs)
	assert.Len(t, records, 1)
	assert.Equal(t, 3, skipped)
}

func TestNormalizeUsesAbsoluteAmounts(t *testing.T) {
	txs := []models.CanonicalTransaction{
		{TransactionDate: date("2024-01-01"), Symbol: "BTC", Category: "sell", Amount: dec("-0.5"), Value: dec("-15000")},
	}

	records, skipped := NewTransactionProcessor().Normalize(txs)
	require.Len(t, records, 1)
	assert.Zero(t, skipped)
	assert.True(t, records[0].Amount.Equal(dec("0.5")))
	assert.True(t, records[0].Value.Equal(dec("15000")))
	assert.True(t, records[0].Price.Equal(dec("30000")))
}

func TestNormalizeSortsByDateKeepingInputOrderOnTies(t *testing.T) {
	sameDay := date("2024-02-01")
	txs := []models.CanonicalTransaction{
		{TransactionDate: date("2024-03-01"), Symbol: "BTC", Category: "buy", Amount: dec("1"), Value: dec("3")},
		{TransactionDate: sameDay, Symbol: "BTC", Category: "buy", Amount: dec("1"), Value: dec("1"), ReferenceID: "first"},
		{TransactionDate: sameDay, Symbol: "BTC", Category: "buy", Amount: dec("1"), Value: dec("2"), ReferenceID: "second"},
	}

	records, _ := NewTransactionProcessor().Normalize(txs)
	require.Len(t, records, 3)
	assert.True(t, records[0].Value.Equal(dec("1")))
	assert.True(t, records[1].Value.Equal(dec("2")))
	assert.True(t, records[2].Value.Equal(dec("3")))
}

func TestNormalizeHashIsStableAndDistinct(t *testing.T) {
	tx := models.CanonicalTransaction{
		TransactionDate: time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC),
		Symbol:          "BTC",
		Category:        "buy",
		Amount:          dec("1"),
		Value:           dec("40000"),
		ReferenceID:     "row-1",
	}
	other := tx
	other.ReferenceID = "row-2"

	first, _ := NewTransactionProcessor().Normalize([]models.CanonicalTransaction{tx})
	second, _ := NewTransactionProcessor().Normalize([]models.CanonicalTransaction{tx})
	distinct, _ := NewTransactionProcessor().Normalize([]models.CanonicalTransaction{other})

	require.Len(t, first, 1)
	assert.Equal(t, first[0].HashID, second[0].HashID)
	assert.NotEqual(t, first[0].HashID, distinct[0].HashID)
}
