package processors

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/kryptogain/backend/src/models"
)

// Holding periods longer than this many days are long-term. Exactly 365
// days is still short-term.
const longTermThresholdDays = 365

var oneHundred = decimal.NewFromInt(100)

// FIFOTaxProcessor computes realized gains by consuming cost-basis lots
// strictly oldest-first. It is pure: every call builds its own lot queues,
// so concurrent invocations over the same records are safe.
type FIFOTaxProcessor struct{}

func NewFIFOTaxProcessor() *FIFOTaxProcessor {
	return &FIFOTaxProcessor{}
}

// Process consumes transactions in ascending date order and emits one
// taxable event per (lot, disposal-portion) match. It returns the events,
// the open lots remaining per symbol, and an error only on contract
// misuse (negative jurisdiction rates). Records with non-positive amounts
// are skipped, never fatal.
//
// Records are re-sorted defensively; same-timestamp records keep their
// input order so repeated runs are deterministic.
func (p *FIFOTaxProcessor) Process(records []models.TransactionRecord, jurisdiction models.Jurisdiction) ([]models.TaxableEvent, map[string][]models.TaxLot, error) {
	if jurisdiction.ShortTermRate.IsNegative() || jurisdiction.LongTermRate.IsNegative() {
		return nil, nil, fmt.Errorf("jurisdiction %q has a negative tax rate", jurisdiction.ID)
	}

	ordered := make([]models.TransactionRecord, len(records))
	copy(ordered, records)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date.Before(ordered[j].Date)
	})

	lotQueues := make(map[string][]*models.TaxLot)
	var events []models.TaxableEvent

	for _, rec := range ordered {
		if !rec.Amount.IsPositive() {
			continue
		}

		switch rec.Type {
		case models.TypeBuy:
			lotQueues[rec.Symbol] = append(lotQueues[rec.Symbol], &models.TaxLot{
				Date:      rec.Date,
				Amount:    rec.Amount,
				CostBasis: rec.Price,
			})

		case models.TypeSell:
			queue := lotQueues[rec.Symbol]
			remaining := rec.Amount

			for remaining.IsPositive() && len(queue) > 0 {
				lot := queue[0]
				matched := decimal.Min(remaining, lot.Amount)

				classification := classifyHolding(lot.Date, rec.Date)
				pnl := rec.Price.Sub(lot.CostBasis).Mul(matched)

				events = append(events, models.TaxableEvent{
					Date:           rec.Date,
					Symbol:         rec.Symbol,
					Classification: classification,
					SellAmount:     matched,
					SellPrice:      rec.Price,
					CostBasis:      lot.CostBasis,
					PnL:            pnl,
					TaxAmount:      taxOnGain(pnl, jurisdiction.Rate(classification)),
					IsTaxable:      pnl.IsPositive(),
				})

				lot.Amount = lot.Amount.Sub(matched)
				if !lot.Amount.IsPositive() {
					queue = queue[1:]
				}
				remaining = remaining.Sub(matched)
			}

			// Disposal exceeds everything acquired in the observed
			// history. The shortfall carries zero cost basis and, with no
			// acquisition date to measure against, is short-term.
			if remaining.IsPositive() {
				pnl := remaining.Mul(rec.Price)
				events = append(events, models.TaxableEvent{
					Date:           rec.Date,
					Symbol:         rec.Symbol,
					Classification: models.ShortTerm,
					SellAmount:     remaining,
					SellPrice:      rec.Price,
					CostBasis:      decimal.Zero,
					PnL:            pnl,
					TaxAmount:      taxOnGain(pnl, jurisdiction.ShortTermRate),
					IsTaxable:      pnl.IsPositive(),
				})
			}

			lotQueues[rec.Symbol] = queue
		}
	}

	return events, openLots(lotQueues), nil
}

// classifyHolding returns the holding-period classification for a lot
// acquired at buyDate and disposed at sellDate. Whole days only; a
// fractional day does not count.
func classifyHolding(buyDate, sellDate time.Time) string {
	holdingDays := int(sellDate.Sub(buyDate).Hours() / 24)
	if holdingDays > longTermThresholdDays {
		return models.LongTerm
	}
	return models.ShortTerm
}

// taxOnGain applies a percentage rate to a gain; losses owe nothing.
func taxOnGain(pnl, rate decimal.Decimal) decimal.Decimal {
	if !pnl.IsPositive() {
		return decimal.Zero
	}
	return pnl.Mul(rate).Div(oneHundred)
}

// openLots flattens the per-symbol queues into value copies, dropping
// symbols with nothing left.
func openLots(queues map[string][]*models.TaxLot) map[string][]models.TaxLot {
	holdings := make(map[string][]models.TaxLot)
	for symbol, queue := range queues {
		for _, lot := range queue {
			if lot.Amount.IsPositive() {
				holdings[symbol] = append(holdings[symbol], *lot)
			}
		}
	}
	return holdings
}

// Summarize reduces taxable events to the aggregate gain and tax figures.
func Summarize(events []models.TaxableEvent) models.TaxSummary {
	summary := models.TaxSummary{
		ShortTermGains: decimal.Zero,
		LongTermGains:  decimal.Zero,
		TotalTax:       decimal.Zero,
	}
	for _, ev := range events {
		if ev.Classification == models.LongTerm {
			summary.LongTermGains = summary.LongTermGains.Add(ev.PnL)
		} else {
			summary.ShortTermGains = summary.ShortTermGains.Add(ev.PnL)
		}
		summary.TotalTax = summary.TotalTax.Add(ev.TaxAmount)
	}
	return summary
}
