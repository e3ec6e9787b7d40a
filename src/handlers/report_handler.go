package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/username/kryptogain/backend/src/config"
	"github.com/username/kryptogain/backend/src/logger"
	"github.com/username/kryptogain/backend/src/processors"
	"github.com/username/kryptogain/backend/src/services"
	"github.com/username/kryptogain/backend/src/utils"
)

type ReportHandler struct {
	uploadService services.UploadService
}

func NewReportHandler(service services.UploadService) *ReportHandler {
	return &ReportHandler{
		uploadService: service,
	}
}

// HandleGetReport serves the tax report for the jurisdiction named in the
// query string, falling back to the configured default. Responses carry an
// ETag so unchanged reports answer 304.
func (h *ReportHandler) HandleGetReport(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	jurisdictionID := strings.TrimSpace(r.URL.Query().Get("jurisdiction"))
	if jurisdictionID == "" {
		jurisdictionID = config.Cfg.DefaultJurisdiction
	}

	report, err := h.uploadService.GetReport(userID, jurisdictionID)
	if err != nil {
		if errors.Is(err, services.ErrUnknownJurisdiction) {
			utils.SendJSONError(w, fmt.Sprintf("unknown jurisdiction %q", jurisdictionID), http.StatusBadRequest)
			return
		}
		logger.L.Error("Error building tax report", "userID", userID, "jurisdiction", jurisdictionID, "error", err)
		utils.SendJSONError(w, "Error building tax report", http.StatusInternalServerError)
		return
	}

	currentETag, etagErr := utils.GenerateETag(report)
	if etagErr != nil {
		logger.L.Error("Failed to generate ETag for report", "userID", userID, "error", etagErr)
	}

	w.Header().Set("Cache-Control", "no-cache, private")

	if etagErr == nil && currentETag != "" {
		quotedETag := fmt.Sprintf("%q", currentETag)
		w.Header().Set("ETag", quotedETag)
		for _, clientETag := range strings.Split(r.Header.Get("If-None-Match"), ",") {
			if strings.TrimSpace(clientETag) == quotedETag {
				logger.L.Debug("ETag match for report", "userID", userID, "etag", currentETag)
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(report); err != nil {
		logger.L.Error("Error encoding JSON response for report", "userID", userID, "error", err)
	}
}

// HandleGetHoldings serves the open lots for the default jurisdiction view.
func (h *ReportHandler) HandleGetHoldings(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	holdings, err := h.uploadService.GetHoldings(userID)
	if err != nil {
		logger.L.Error("Error retrieving holdings", "userID", userID, "error", err)
		utils.SendJSONError(w, "Error retrieving holdings", http.StatusInternalServerError)
		return
	}
	if holdings == nil {
		holdings = []services.Holding{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(holdings); err != nil {
		logger.L.Error("Error encoding JSON response for holdings", "userID", userID, "error", err)
	}
}

// HandleGetJurisdictions lists the available tax jurisdictions.
func (h *ReportHandler) HandleGetJurisdictions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(processors.Jurisdictions()); err != nil {
		logger.L.Error("Error encoding JSON response for jurisdictions", "error", err)
	}
}
