package kraken

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

func TestParseLedgerExport(t *testing.T) {
	csvData := `"txid","refid","time","type","subtype","aclass","asset","amount","fee","balance"
"L1","R1","2024-01-15 10:30:00","deposit","","currency","XXBT","0.5000000000","0","0.5000000000"
"L2","R2","2024-01-16 11:00:00","trade","","currency","ZUSD","-20000.00","10.00","5000.00"
"L3","R3","2024-01-16 11:00:00","trade","","currency","XXBT","0.4000000000","0","0.9000000000"
"L4","R4","2024-02-01 09:00:00","trade","","currency","XXBT","-0.2000000000","0","0.7000000000"
"L5","R5","2024-02-02 09:00:00","withdrawal","","currency","XETH","-1.0000000000","0.001","0"
`
	txs, err := NewParser().Parse(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, txs, 4, "the fiat ZUSD leg is dropped")

	deposit := txs[0]
	assert.Equal(t, "kraken", deposit.Source)
	assert.Equal(t, "BTC", deposit.Symbol)
	assert.Equal(t, "deposit", deposit.Category)
	assert.True(t, deposit.Amount.Equal(dec("0.5")))
	assert.Equal(t, "L1", deposit.ReferenceID)

	tradeBuy := txs[1]
	assert.Equal(t, "buy", tradeBuy.Category, "positive trade leg becomes a buy")
	assert.True(t, tradeBuy.Amount.Equal(dec("0.4")))

	tradeSell := txs[2]
	assert.Equal(t, "sell", tradeSell.Category, "negative trade leg becomes a sell")
	assert.True(t, tradeSell.Amount.Equal(dec("-0.2")))

	withdrawal := txs[3]
	assert.Equal(t, "ETH", withdrawal.Symbol)
	assert.Equal(t, "withdrawal", withdrawal.Category)
}

func TestParseTradesExportWithCostAndPrice(t *testing.T) {
	csvData := `txid,ordertxid,pair,time,type,ordertype,price,cost,fee,vol
T1,O1,XBTUSD,2024-03-01 12:00:00,buy,market,60000,30000,30,0.5
T2,O2,XBTUSD,2024-04-01 12:00:00,sell,limit,70000,,35,0.25
`
	txs, err := NewParser().Parse(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, txs, 2)

	assert.Equal(t, "buy", txs[0].Category)
	assert.True(t, txs[0].Price.Equal(dec("60000")))
	assert.True(t, txs[0].Value.Equal(dec("30000")))

	// Missing cost is derived from price and volume.
	assert.True(t, txs[1].Value.Equal(dec("17500")), "derived value %s", txs[1].Value)
}

func TestParseRejectsNonKrakenHeader(t *testing.T) {
	csvData := `Date,Type,Value
2024-01-01,buy,100
`
	_, err := NewParser().Parse(strings.NewReader(csvData))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a kraken export")
}

func TestParseSkipsRowsWithBadTimestamps(t *testing.T) {
	csvData := `txid,time,type,asset,amount
L1,garbage,deposit,XXBT,1
L2,2024-01-01 00:00:00,deposit,XXBT,1
`
	txs, err := NewParser().Parse(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "L2", txs[0].ReferenceID)
}

func TestNormalizeAsset(t *testing.T) {
	tests := map[string]string{
		"XXBT":  "BTC",
		"XETH":  "ETH",
		"XBT":   "BTC",
		"SOL":   "SOL",
		"ada":   "ADA",
		"XDG":   "XDG", // only 4-char codes carry the asset-class prefix
		"MATIC": "MATIC",
	}
	for input, want := range tests {
		assert.Equal(t, want, normalizeAsset(input), input)
	}
}
