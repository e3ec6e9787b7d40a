package handlers

import (
	"encoding/csv"
	"encoding/json"
	"net/http"
	"time"

	"github.com/username/kryptogain/backend/src/logger"
	"github.com/username/kryptogain/backend/src/models"
	"github.com/username/kryptogain/backend/src/security/validation"
	"github.com/username/kryptogain/backend/src/services"
	"github.com/username/kryptogain/backend/src/utils"
)

type TransactionHandler struct {
	uploadService services.UploadService
}

func NewTransactionHandler(service services.UploadService) *TransactionHandler {
	return &TransactionHandler{
		uploadService: service,
	}
}

// HandleGetTransactions lists the user's stored transactions in date order.
func (h *TransactionHandler) HandleGetTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	records, err := h.uploadService.ListTransactions(userID)
	if err != nil {
		logger.L.Error("Error listing transactions", "userID", userID, "error", err)
		utils.SendJSONError(w, "Error listing transactions", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []models.TransactionRecord{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(records); err != nil {
		logger.L.Error("Error encoding JSON response for transactions", "userID", userID, "error", err)
	}
}

// HandleExportTransactions streams the user's transactions as a CSV
// download. Text cells are sanitized so a re-imported export cannot carry
// spreadsheet formulas.
func (h *TransactionHandler) HandleExportTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	records, err := h.uploadService.ListTransactions(userID)
	if err != nil {
		logger.L.Error("Error listing transactions for export", "userID", userID, "error", err)
		utils.SendJSONError(w, "Error exporting transactions", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="transactions.csv"`)

	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"date", "type", "symbol", "amount", "price", "value", "source"}); err != nil {
		logger.L.Error("Error writing CSV export header", "userID", userID, "error", err)
		return
	}
	for _, rec := range records {
		row := []string{
			rec.Date.UTC().Format(time.RFC3339),
			rec.Type,
			validation.SanitizeForFormulaInjection(rec.Symbol),
			rec.Amount.String(),
			utils.FormatMoney(rec.Price),
			utils.FormatMoney(rec.Value),
			validation.SanitizeForFormulaInjection(rec.Source),
		}
		if err := writer.Write(row); err != nil {
			logger.L.Error("Error writing CSV export row", "userID", userID, "error", err)
			return
		}
	}
}

// HandleDeleteAllTransactions wipes the user's imported data.
func (h *TransactionHandler) HandleDeleteAllTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	if err := h.uploadService.DeleteAllTransactions(userID); err != nil {
		logger.L.Error("Error deleting transactions", "userID", userID, "error", err)
		utils.SendJSONError(w, "Error deleting transactions", http.StatusInternalServerError)
		return
	}
	logger.L.Info("Deleted all transactions for user", "userID", userID)

	w.WriteHeader(http.StatusNoContent)
}
