package processors

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/kryptogain/backend/src/models"
)

func date(value string) time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return t
}

func dec(value string) decimal.Decimal {
	d, err := decimal.NewFromString(value)
	if err != nil {
		panic(err)
	}
	return d
}

func buy(day, symbol, amount, price string) models.TransactionRecord {
	return models.TransactionRecord{
		Date:   date(day),
		Type:   models.TypeBuy,
		Symbol: symbol,
		Amount: dec(amount),
		Price:  dec(price),
		Value:  dec(amount).Mul(dec(price)),
	}
}

func sell(day, symbol, amount, price string) models.TransactionRecord {
	return models.TransactionRecord{
		Date:   date(day),
		Type:   models.TypeSell,
		Symbol: symbol,
		Amount: dec(amount),
		Price:  dec(price),
		Value:  dec(amount).Mul(dec(price)),
	}
}

func flatJurisdiction(short, long string) models.Jurisdiction {
	return models.Jurisdiction{
		ID:            "test",
		Name:          "Test",
		ShortTermRate: dec(short),
		LongTermRate:  dec(long),
	}
}

func TestProcessLotSplitAcrossHoldingPeriods(t *testing.T) {
	records := []models.TransactionRecord{
		buy("2023-01-01", "BTC", "1.0", "1000"),
		buy("2023-06-01", "BTC", "1.0", "1500"),
		sell("2024-02-01", "BTC", "1.5", "2000"),
	}

	events, open, err := NewFIFOTaxProcessor().Process(records, flatJurisdiction("30", "15"))
	require.NoError(t, err)
	require.Len(t, events, 2)

	first := events[0]
	assert.Equal(t, models.LongTerm, first.Classification)
	assert.True(t, first.SellAmount.Equal(dec("1.0")), "matched %s", first.SellAmount)
	assert.True(t, first.CostBasis.Equal(dec("1000")))
	assert.True(t, first.PnL.Equal(dec("1000")), "pnl %s", first.PnL)
	assert.True(t, first.TaxAmount.Equal(dec("150")), "tax %s", first.TaxAmount)
	assert.True(t, first.IsTaxable)

	second := events[1]
	assert.Equal(t, models.ShortTerm, second.Classification)
	assert.True(t, second.SellAmount.Equal(dec("0.5")), "matched %s", second.SellAmount)
	assert.True(t, second.CostBasis.Equal(dec("1500")))
	assert.True(t, second.PnL.Equal(dec("250")), "pnl %s", second.PnL)
	assert.True(t, second.TaxAmount.Equal(dec("75")), "tax %s", second.TaxAmount)

	summary := Summarize(events)
	assert.True(t, summary.LongTermGains.Equal(dec("1000")))
	assert.True(t, summary.ShortTermGains.Equal(dec("250")))
	assert.True(t, summary.TotalTax.Equal(dec("225")))

	require.Len(t, open["BTC"], 1)
	assert.True(t, open["BTC"][0].Amount.Equal(dec("0.5")))
	assert.True(t, open["BTC"][0].CostBasis.Equal(dec("1500")))
}

func TestProcessConsumesLotsOldestFirst(t *testing.T) {
	records := []models.TransactionRecord{
		buy("2024-03-01", "ETH", "2", "100"),
		buy("2024-04-01", "ETH", "2", "200"),
		sell("2024-05-01", "ETH", "3", "300"),
	}

	events, open, err := NewFIFOTaxProcessor().Process(records, flatJurisdiction("20", "20"))
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.True(t, events[0].CostBasis.Equal(dec("100")))
	assert.True(t, events[0].SellAmount.Equal(dec("2")))
	assert.True(t, events[1].CostBasis.Equal(dec("200")))
	assert.True(t, events[1].SellAmount.Equal(dec("1")))

	require.Len(t, open["ETH"], 1)
	assert.True(t, open["ETH"][0].Amount.Equal(dec("1")))
}

func TestProcessConservesDisposalAmount(t *testing.T) {
	records := []models.TransactionRecord{
		buy("2024-01-01", "BTC", "0.3", "40000"),
		buy("2024-01-15", "BTC", "0.3", "42000"),
		buy("2024-02-01", "BTC", "0.3", "44000"),
		sell("2024-03-01", "BTC", "0.8", "50000"),
	}

	events, _, err := NewFIFOTaxProcessor().Process(records, flatJurisdiction("30", "30"))
	require.NoError(t, err)

	total := decimal.Zero
	for _, ev := range events {
		total = total.Add(ev.SellAmount)
	}
	assert.True(t, total.Equal(dec("0.8")), "disposed %s", total)
}

func TestProcessHoldingPeriodBoundary(t *testing.T) {
	jurisdiction := flatJurisdiction("30", "15")
	processor := NewFIFOTaxProcessor()

	// 365 whole days is still short-term.
	events, _, err := processor.Process([]models.TransactionRecord{
		buy("2023-01-01", "BTC", "1", "100"),
		sell("2024-01-01", "BTC", "1", "200"),
	}, jurisdiction)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.ShortTerm, events[0].Classification)

	// One more day crosses the threshold.
	events, _, err = processor.Process([]models.TransactionRecord{
		buy("2023-01-01", "BTC", "1", "100"),
		sell("2024-01-02", "BTC", "1", "200"),
	}, jurisdiction)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.LongTerm, events[0].Classification)
}

func TestProcessLossOwesNoTax(t *testing.T) {
	records := []models.TransactionRecord{
		buy("2024-01-01", "SOL", "10", "150"),
		sell("2024-02-01", "SOL", "10", "90"),
	}

	events, _, err := NewFIFOTaxProcessor().Process(records, flatJurisdiction("37", "20"))
	require.NoError(t, err)
	require.Len(t, events, 1)

	assert.True(t, events[0].PnL.Equal(dec("-600")), "pnl %s", events[0].PnL)
	assert.True(t, events[0].TaxAmount.IsZero())
	assert.False(t, events[0].IsTaxable)
}

func TestProcessDisposalWithoutAcquisition(t *testing.T) {
	records := []models.TransactionRecord{
		buy("2024-01-01", "BTC", "1", "1000"),
		sell("2024-02-01", "BTC", "1.4", "2000"),
	}

	events, open, err := NewFIFOTaxProcessor().Process(records, flatJurisdiction("30", "15"))
	require.NoError(t, err)
	require.Len(t, events, 2)

	shortfall := events[1]
	assert.Equal(t, models.ShortTerm, shortfall.Classification)
	assert.True(t, shortfall.SellAmount.Equal(dec("0.4")))
	assert.True(t, shortfall.CostBasis.IsZero())
	assert.True(t, shortfall.PnL.Equal(dec("800")), "pnl %s", shortfall.PnL)
	assert.True(t, shortfall.TaxAmount.Equal(dec("240")), "tax %s", shortfall.TaxAmount)

	assert.Empty(t, open["BTC"])
}

func TestProcessSortsRecordsByDate(t *testing.T) {
	records := []models.TransactionRecord{
		sell("2024-03-01", "BTC", "1", "500"),
		buy("2024-01-01", "BTC", "1", "100"),
	}

	events, _, err := NewFIFOTaxProcessor().Process(records, flatJurisdiction("10", "10"))
	require.NoError(t, err)
	require.Len(t, events, 1)

	// The buy precedes the sell once sorted, so the disposal matches the
	// lot instead of falling through as uncovered.
	assert.True(t, events[0].CostBasis.Equal(dec("100")))
	assert.True(t, events[0].PnL.Equal(dec("400")))
}

func TestProcessSkipsNonPositiveAmounts(t *testing.T) {
	records := []models.TransactionRecord{
		buy("2024-01-01", "BTC", "1", "100"),
		{Date: date("2024-01-02"), Type: models.TypeSell, Symbol: "BTC", Amount: decimal.Zero, Price: dec("200")},
	}

	events, open, err := NewFIFOTaxProcessor().Process(records, flatJurisdiction("10", "10"))
	require.NoError(t, err)
	assert.Empty(t, events)
	require.Len(t, open["BTC"], 1)
}

func TestProcessRejectsNegativeRates(t *testing.T) {
	jurisdiction := models.Jurisdiction{ID: "bad", ShortTermRate: dec("-1"), LongTermRate: dec("20")}
	_, _, err := NewFIFOTaxProcessor().Process(nil, jurisdiction)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "negative tax rate")
}

func TestProcessIsDeterministicAcrossRuns(t *testing.T) {
	records := []models.TransactionRecord{
		buy("2024-01-01", "BTC", "1", "100"),
		buy("2024-01-01", "BTC", "1", "200"),
		sell("2024-06-01", "BTC", "1.5", "300"),
	}

	first, _, err := NewFIFOTaxProcessor().Process(records, flatJurisdiction("30", "30"))
	require.NoError(t, err)
	second, _, err := NewFIFOTaxProcessor().Process(records, flatJurisdiction("30", "30"))
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.True(t, first[i].PnL.Equal(second[i].PnL))
		assert.True(t, first[i].SellAmount.Equal(second[i].SellAmount))
		assert.Equal(t, first[i].Classification, second[i].Classification)
	}

	// Same-day lots are consumed in input order.
	assert.True(t, first[0].CostBasis.Equal(dec("100")))
	assert.True(t, first[1].CostBasis.Equal(dec("200")))
}

func TestProcessRateChangeOnlyScalesTax(t *testing.T) {
	records := []models.TransactionRecord{
		buy("2022-01-01", "BTC", "2", "100"),
		sell("2023-06-01", "BTC", "1", "400"),
		sell("2023-07-01", "BTC", "2", "400"),
	}

	low, _, err := NewFIFOTaxProcessor().Process(records, flatJurisdiction("10", "5"))
	require.NoError(t, err)
	high, _, err := NewFIFOTaxProcessor().Process(records, flatJurisdiction("20", "10"))
	require.NoError(t, err)

	require.Equal(t, len(low), len(high))
	for i := range low {
		assert.True(t, low[i].PnL.Equal(high[i].PnL))
		assert.Equal(t, low[i].Classification, high[i].Classification)
		if low[i].PnL.IsPositive() {
			assert.True(t, high[i].TaxAmount.Equal(low[i].TaxAmount.Mul(dec("2"))))
		} else {
			assert.True(t, high[i].TaxAmount.IsZero())
		}
	}
}

func TestProcessZeroRateJurisdiction(t *testing.T) {
	records := []models.TransactionRecord{
		buy("2024-01-01", "BTC", "1", "100"),
		sell("2024-02-01", "BTC", "1", "300"),
	}

	events, _, err := NewFIFOTaxProcessor().Process(records, flatJurisdiction("0", "0"))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, events[0].TaxAmount.IsZero())
	assert.True(t, events[0].IsTaxable, "gain is taxable even when the rate is zero")
}

func TestSummarizeSplitsByClassification(t *testing.T) {
	events := []models.TaxableEvent{
		{Classification: models.ShortTerm, PnL: dec("100"), TaxAmount: dec("30")},
		{Classification: models.LongTerm, PnL: dec("200"), TaxAmount: dec("30")},
		{Classification: models.ShortTerm, PnL: dec("-50"), TaxAmount: decimal.Zero},
	}

	summary := Summarize(events)
	assert.True(t, summary.ShortTermGains.Equal(dec("50")))
	assert.True(t, summary.LongTermGains.Equal(dec("200")))
	assert.True(t, summary.TotalTax.Equal(dec("60")))
}
