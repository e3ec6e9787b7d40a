package processors

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/username/kryptogain/backend/src/logger"
	"github.com/username/kryptogain/backend/src/models"
)

var (
	jurisdictionMu    sync.RWMutex
	jurisdictionTable map[string]models.Jurisdiction
	jurisdictionOrder []string
)

func init() {
	setJurisdictions(defaultJurisdictions())
}

// defaultJurisdictions is the compiled-in table, used when no data file is
// configured or loading fails.
func defaultJurisdictions() []models.Jurisdiction {
	return []models.Jurisdiction{
		{
			ID:            "us-short",
			Name:          "US Short-Term Capital Gains",
			ShortTermRate: decimal.NewFromInt(37),
			LongTermRate:  decimal.NewFromInt(20),
			Description:   "Assets held < 1 year",
		},
		{
			ID:            "us-long",
			Name:          "US Long-Term Capital Gains",
			ShortTermRate: decimal.NewFromInt(20),
			LongTermRate:  decimal.NewFromInt(20),
			Description:   "Assets held > 1 year",
		},
		{
			ID:            "flat-30",
			Name:          "Flat Rate 30%",
			ShortTermRate: decimal.NewFromInt(30),
			LongTermRate:  decimal.NewFromInt(30),
			Description:   "Standard flat rate",
		},
		{
			ID:            "flat-20",
			Name:          "Flat Rate 20%",
			ShortTermRate: decimal.NewFromInt(20),
			LongTermRate:  decimal.NewFromInt(20),
			Description:   "Lower flat rate",
		},
	}
}

// LoadJurisdictions replaces the table with the contents of a JSON data
// file. Call once from main after config is loaded; the compiled-in
// defaults stay in place when this fails.
func LoadJurisdictions(filePath string) error {
	logger.L.Info("Loading jurisdiction table", "path", filePath)
	data, err := os.ReadFile(filePath)
	if err != nil {
		logger.L.Error("Error reading jurisdiction data file", "path", filePath, "error", err)
		return fmt.Errorf("error reading jurisdiction data file %q: %w", filePath, err)
	}

	var loaded []models.Jurisdiction
	if err := json.Unmarshal(data, &loaded); err != nil {
		logger.L.Error("Error unmarshalling jurisdiction data", "path", filePath, "error", err)
		return fmt.Errorf("error unmarshalling jurisdiction data from %q: %w", filePath, err)
	}
	if len(loaded) == 0 {
		return fmt.Errorf("jurisdiction data file %q contains no entries", filePath)
	}
	for _, j := range loaded {
		if err := validateJurisdiction(j); err != nil {
			return fmt.Errorf("invalid jurisdiction %q in %q: %w", j.ID, filePath, err)
		}
	}

	setJurisdictions(loaded)
	logger.L.Info("Jurisdiction table loaded", "path", filePath, "count", len(loaded))
	return nil
}

func validateJurisdiction(j models.Jurisdiction) error {
	if j.ID == "" {
		return fmt.Errorf("missing id")
	}
	for _, rate := range []decimal.Decimal{j.ShortTermRate, j.LongTermRate} {
		if rate.IsNegative() || rate.GreaterThan(oneHundred) {
			return fmt.Errorf("rate %s outside [0, 100]", rate)
		}
	}
	return nil
}

func setJurisdictions(list []models.Jurisdiction) {
	table := make(map[string]models.Jurisdiction, len(list))
	order := make([]string, 0, len(list))
	for _, j := range list {
		if _, exists := table[j.ID]; !exists {
			order = append(order, j.ID)
		}
		table[j.ID] = j
	}
	jurisdictionMu.Lock()
	jurisdictionTable = table
	jurisdictionOrder = order
	jurisdictionMu.Unlock()
}

// GetJurisdiction looks up a jurisdiction by identifier.
func GetJurisdiction(id string) (models.Jurisdiction, error) {
	jurisdictionMu.RLock()
	defer jurisdictionMu.RUnlock()
	j, ok := jurisdictionTable[id]
	if !ok {
		return models.Jurisdiction{}, fmt.Errorf("unknown jurisdiction: %q", id)
	}
	return j, nil
}

// Jurisdictions returns the table in its declaration order.
func Jurisdictions() []models.Jurisdiction {
	jurisdictionMu.RLock()
	defer jurisdictionMu.RUnlock()
	list := make([]models.Jurisdiction, 0, len(jurisdictionOrder))
	for _, id := range jurisdictionOrder {
		list = append(list, jurisdictionTable[id])
	}
	return list
}
