package generic

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(value string) decimal.Decimal {
	d, err := decimal.NewFromString(value)
	if err != nil {
		panic(err)
	}
	return d
}

func TestParseFullHeader(t *testing.T) {
	csvData := `Date,Type,Asset,Quantity,Price,Value (USD)
2024-01-15,buy,BTC,0.5,40000,20000
2024-02-20,sell,BTC,0.25,50000,12500
`
	txs, err := NewParser().Parse(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, txs, 2)

	first := txs[0]
	assert.Equal(t, "generic", first.Source)
	assert.Equal(t, "buy", first.Category)
	assert.Equal(t, "BTC", first.Symbol)
	assert.Equal(t, 2024, first.TransactionDate.Year())
	assert.True(t, first.Amount.Equal(dec("0.5")))
	assert.True(t, first.Price.Equal(dec("40000")))
	assert.True(t, first.Value.Equal(dec("20000")))
	assert.Equal(t, "row-1", first.ReferenceID)

	second := txs[1]
	assert.Equal(t, "sell", second.Category)
	assert.True(t, second.Value.Equal(dec("12500")))
}

func TestParseMinimalHeaderFallsBackToValueAsAmount(t *testing.T) {
	csvData := `Transaction,Amount (USD)
deposit,1000
withdraw,250.50
`
	txs, err := NewParser().Parse(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, txs, 2)

	assert.Equal(t, "deposit", txs[0].Category)
	assert.True(t, txs[0].Amount.Equal(dec("1000")))
	assert.True(t, txs[0].Value.Equal(dec("1000")))
	assert.True(t, txs[1].Amount.Equal(dec("250.50")))
	// No date column: the row survives with a zero date and the
	// normalizer decides its fate.
	assert.True(t, txs[0].TransactionDate.IsZero())
}

func TestParseRejectsHeaderWithoutRequiredColumns(t *testing.T) {
	csvData := `Foo,Bar
1,2
`
	_, err := NewParser().Parse(strings.NewReader(csvData))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required columns")
}

func TestParseHandlesMessyNumbersAndUnevenRows(t *testing.T) {
	csvData := `Date,Type,Coin,Qty,Value
2024-03-01,buy,ETH,"1,250.5","$2,501,000"
not-a-date,sell,ETH,1,2000
2024-03-02
`
	txs, err := NewParser().Parse(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, txs, 2, "the single-cell row is dropped")

	assert.True(t, txs[0].Amount.Equal(dec("1250.5")))
	assert.True(t, txs[0].Value.Equal(dec("2501000")))

	// Unparseable dates are kept as zero dates.
	assert.True(t, txs[1].TransactionDate.IsZero())
	assert.True(t, txs[1].Value.Equal(dec("2000")))
}

func TestParseStripsUnprintableCells(t *testing.T) {
	csvData := "Type,Value,Symbol\nbuy,100,B\x00TC\n"
	txs, err := NewParser().Parse(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "BTC", txs[0].Symbol)
}
