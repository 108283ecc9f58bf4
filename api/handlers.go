/*
handlers.go - HTTP handler implementations

PURPOSE:
  Connects HTTP requests to the compensation pipeline: load inputs from
  the store, run the pure engines, persist and return the results.

ERROR MAPPING:
  Bad request bodies and input-data errors (malformed shift, join
  ambiguity, division undefined) -> 400 with the originating message.
  Store failures -> 500. Validation issues are never errors - they are
  part of the successful response body.

SEE ALSO:
  - server.go: Route wiring
  - dto.go: Wire shapes
*/
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/medshift/comp-engine/comp"
	"github.com/medshift/comp-engine/store/sqlite"
	"github.com/medshift/comp-engine/validate"
)

const dateFormat = "2006-01-02"

// Handler holds the wired collaborators for all endpoints.
type Handler struct {
	Store     *sqlite.Store
	Calc      *comp.Calculator
	Validator *validate.Validator
	Log       *zap.Logger
}

// NewHandler wires the handler. A nil logger is replaced with a no-op.
func NewHandler(store *sqlite.Store, calc *comp.Calculator, validator *validate.Validator, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{Store: store, Calc: calc, Validator: validator, Log: log}
}

// CreateRun executes the pipeline for the requested window: shifts and
// billing from the store, validation against the stored schedule, the
// full compensation run, then one persisted run record.
func (h *Handler) CreateRun(w http.ResponseWriter, r *http.Request) {
	var req CreateRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	start, err := time.ParseInLocation(dateFormat, req.StartDate, time.UTC)
	if err != nil {
		writeError(w, http.StatusBadRequest, "start_date must be YYYY-MM-DD")
		return
	}
	end, err := time.ParseInLocation(dateFormat, req.EndDate, time.UTC)
	if err != nil {
		writeError(w, http.StatusBadRequest, "end_date must be YYYY-MM-DD")
		return
	}
	if end.Before(start) {
		writeError(w, http.StatusBadRequest, "end_date is before start_date")
		return
	}
	// Include the whole final calendar day.
	windowEnd := end.AddDate(0, 0, 1).Add(-time.Second)

	ctx := r.Context()
	shifts, err := h.Store.ShiftsInRange(ctx, start, windowEnd)
	if err != nil {
		h.Log.Error("loading shifts failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load shifts")
		return
	}
	billing, err := h.Store.BillingInRange(ctx, start, windowEnd)
	if err != nil {
		h.Log.Error("loading billing failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load billing")
		return
	}
	scheduled, err := h.Store.ScheduledInRange(ctx, start, windowEnd)
	if err != nil {
		h.Log.Error("loading schedule failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load schedule")
		return
	}

	issues := h.Validator.ValidateAll(shifts, scheduled)

	result, err := h.Calc.Run(shifts, billing)
	if err != nil {
		h.respondPipelineError(w, err)
		return
	}
	report, err := h.Calc.Report(result, start, windowEnd)
	if err != nil {
		h.respondPipelineError(w, err)
		return
	}

	runID := uuid.NewString()
	record := sqlite.RunRecord{
		ID:          runID,
		PeriodStart: start,
		PeriodEnd:   windowEnd,
		Report:      report,
		Issues:      issues,
	}
	if err := h.Store.SaveRun(ctx, record); err != nil {
		h.Log.Error("persisting run failed", zap.String("run_id", runID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to persist run")
		return
	}

	h.Log.Info("run completed",
		zap.String("run_id", runID),
		zap.Int("shifts", len(shifts)),
		zap.Int("physicians", len(report)),
		zap.Int("issues", len(issues)),
	)
	writeJSON(w, http.StatusCreated, CreateRunResponse{
		RunID:  runID,
		Report: toReportDTO(report),
		Issues: toIssueDTO(issues),
	})
}

// GetReport returns the persisted report for a run.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "id")
	report, err := h.Store.GetReport(r.Context(), runID)
	if err != nil {
		h.Log.Error("loading report failed", zap.String("run_id", runID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load report")
		return
	}
	if len(report) == 0 {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	writeJSON(w, http.StatusOK, toReportDTO(report))
}

// GetIssues returns the persisted validation issues for a run.
func (h *Handler) GetIssues(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "id")
	issues, err := h.Store.GetIssues(r.Context(), runID)
	if err != nil {
		h.Log.Error("loading issues failed", zap.String("run_id", runID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load issues")
		return
	}
	writeJSON(w, http.StatusOK, toIssueDTO(issues))
}

// Health is the liveness probe.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) respondPipelineError(w http.ResponseWriter, err error) {
	if comp.IsInputError(err) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.Log.Error("pipeline failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
