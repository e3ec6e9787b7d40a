package processors

import (
	"github.com/username/kryptogain/backend/src/models"
)

// TaxProcessor matches normalized transactions against cost-basis lots and
// produces taxable events plus the open lots left per symbol.
type TaxProcessor interface {
	Process(records []models.TransactionRecord, jurisdiction models.Jurisdiction) ([]models.TaxableEvent, map[string][]models.TaxLot, error)
}

// TransactionNormalizer turns parser output into validated, date-ordered
// TransactionRecords, reporting how many rows were skipped.
type TransactionNormalizer interface {
	Normalize(txs []models.CanonicalTransaction) ([]models.TransactionRecord, int)
}
