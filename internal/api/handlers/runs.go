package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/wonny/verdict/internal/app"
	"github.com/wonny/verdict/internal/contracts"
	"github.com/wonny/verdict/internal/faults"
	"github.com/wonny/verdict/pkg/logger"
)

// Runner triggers one EOD pipeline run
type Runner interface {
	RunEOD(ctx context.Context, params app.RunParams) (contracts.Report, error)
}

// RunHandler handles run-trigger API endpoints
// ⭐ SSOT: 런 트리거 API 핸들러는 여기서만
type RunHandler struct {
	runner Runner
	logger *logger.Logger
}

// NewRunHandler creates a new run handler
func NewRunHandler(runner Runner, log *logger.Logger) *RunHandler {
	return &RunHandler{
		runner: runner,
		logger: log,
	}
}

// TriggerRequest is the body of POST /api/runs
type TriggerRequest struct {
	Market     string `json:"market"`
	AsOf       string `json:"asof"`
	PolicyPath string `json:"policy_path,omitempty"`
	ConfigPath string `json:"config_path,omitempty"`
	PlanID     string `json:"plan_id,omitempty"`
}

// Trigger runs the pipeline synchronously and returns the finished report
// POST /api/runs
func (h *RunHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	var req TriggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Market == "" || req.AsOf == "" {
		respondError(w, http.StatusBadRequest, "market and asof are required")
		return
	}

	report, err := h.runner.RunEOD(r.Context(), app.RunParams{
		Market:     req.Market,
		AsOf:       req.AsOf,
		PolicyPath: req.PolicyPath,
		ConfigPath: req.ConfigPath,
		PlanID:     req.PlanID,
	})
	if err != nil {
		fe := faults.Classify(err)
		h.logger.WithError(err).WithFields(map[string]interface{}{
			"market": req.Market,
			"asof":   req.AsOf,
		}).Error("Pipeline run failed")

		status := http.StatusInternalServerError
		if fe.Code == faults.CodeConfiguration {
			status = http.StatusBadRequest
		}
		respondJSON(w, status, map[string]interface{}{
			"error": fe.Message,
			"code":  fe.Code,
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    report,
	})
}
