package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wonny/verdict/internal/contracts"
	"github.com/wonny/verdict/internal/faults"
	"github.com/wonny/verdict/internal/report"
	"github.com/wonny/verdict/pkg/logger"
)

// ReportStore reads persisted run reports
type ReportStore interface {
	GetReport(ctx context.Context, runID string) (contracts.Report, error)
	ListReports(ctx context.Context, market string, limit int) ([]contracts.Report, error)
}

// ReportHandler handles report read API endpoints
type ReportHandler struct {
	store  ReportStore
	logger *logger.Logger
}

// NewReportHandler creates a new report handler
func NewReportHandler(store ReportStore, log *logger.Logger) *ReportHandler {
	return &ReportHandler{
		store:  store,
		logger: log,
	}
}

// Get returns one persisted report
// GET /api/reports/{run_id}
func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["run_id"]

	rep, err := h.store.GetReport(r.Context(), runID)
	if errors.Is(err, report.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Report not found")
		return
	}
	if err != nil {
		fe := faults.Classify(err)
		h.logger.WithError(err).WithField("run_id", runID).Error("Failed to load report")

		status := http.StatusInternalServerError
		if fe.Code == faults.CodeConfiguration {
			status = http.StatusServiceUnavailable
		}
		respondError(w, status, fe.Message)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    rep,
	})
}

// RunListItem is one row of the report listing
type RunListItem struct {
	RunID       string `json:"run_id"`
	Market      string `json:"market"`
	AsOf        string `json:"asof"`
	Degraded    bool   `json:"degraded"`
	Decisions   int    `json:"decisions"`
	Skipped     int    `json:"skipped"`
	GeneratedAt string `json:"generated_at"`
}

// List returns recent runs for a market, newest first
// GET /api/reports?market=JP&limit=20
func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	market := r.URL.Query().Get("market")
	if market == "" {
		respondError(w, http.StatusBadRequest, "market query parameter is required")
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	reports, err := h.store.ListReports(r.Context(), market, limit)
	if err != nil {
		fe := faults.Classify(err)
		h.logger.WithError(err).WithField("market", market).Error("Failed to list reports")

		status := http.StatusInternalServerError
		if fe.Code == faults.CodeConfiguration {
			status = http.StatusServiceUnavailable
		}
		respondError(w, status, fe.Message)
		return
	}

	items := make([]RunListItem, 0, len(reports))
	for _, rep := range reports {
		items = append(items, RunListItem{
			RunID:       rep.RunID,
			Market:      rep.Market,
			AsOf:        rep.AsOf,
			Degraded:    rep.Pack.Degraded,
			Decisions:   len(rep.Pack.Pack.Decisions),
			Skipped:     len(rep.Pack.SkippedSymbols),
			GeneratedAt: rep.GeneratedAt.Format("2006-01-02T15:04:05Z"),
		})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"market": market,
			"count":  len(items),
			"items":  items,
		},
	})
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
