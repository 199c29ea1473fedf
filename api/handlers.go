/*
handlers.go - HTTP API handlers for the staffing cost report

PURPOSE:
  Exposes the cost resolution engine via REST API. Handles HTTP
  request/response, query parsing, JSON serialization, and delegates to the
  engine.

ENDPOINTS:
  GET /api/reports/staffing-costs   Compute a staffing cost report
  GET /api/health                   Liveness check

QUERY PARAMETERS (staffing-costs):
  start_date      YYYY-MM-DD, required
  end_date        YYYY-MM-DD, required, >= start_date
  resource_types  comma-separated subset of guide,escort,headphone,printing
                  (default: all)
  group_by        staff | date | activity (default: staff)

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Missing/malformed dates, unknown resource type or grouping
  - 500: Reference data read failure (the report aborts, never partial)

SECURITY NOTE:
  No authentication middleware. The service is meant to sit behind the back
  office's gateway.

SEE ALSO:
  - dto.go: Response data structures
  - server.go: Router setup and middleware
  - costing/engine.go: The pipeline behind BuildReport
*/
package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/warp/cost-engine/costing"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine *costing.Engine
	Logger *zap.Logger
}

// NewHandler creates a new handler around the engine.
func NewHandler(engine *costing.Engine, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Engine: engine, Logger: logger}
}

// =============================================================================
// REPORT HANDLER
// =============================================================================

// StaffingCosts computes and returns the staffing cost report.
// GET /api/reports/staffing-costs
func (h *Handler) StaffingCosts(w http.ResponseWriter, r *http.Request) {
	req, err := parseReportRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid report request", err)
		return
	}

	report, err := h.Engine.BuildReport(r.Context(), req)
	if err != nil {
		if costing.IsClientError(err) {
			writeError(w, http.StatusBadRequest, "Invalid report request", err)
			return
		}
		h.Logger.Error("staffing cost report failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to compute report", err)
		return
	}

	writeJSON(w, http.StatusOK, toReportResponse(report))
}

// Health is a liveness check.
// GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// REQUEST PARSING
// =============================================================================

func parseReportRequest(r *http.Request) (costing.ReportRequest, error) {
	q := r.URL.Query()
	var req costing.ReportRequest

	start, err := costing.ParseDate(q.Get("start_date"))
	if err != nil {
		return req, costing.ErrInvalidDateRange
	}
	end, err := costing.ParseDate(q.Get("end_date"))
	if err != nil {
		return req, costing.ErrInvalidDateRange
	}
	req.Range = costing.DateRange{Start: start, End: end}

	if raw := q.Get("resource_types"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			kind := costing.ResourceKind(strings.TrimSpace(part))
			if !costing.ValidKind(kind) {
				return req, costing.ErrUnknownResourceKind
			}
			req.Kinds = append(req.Kinds, kind)
		}
	}

	req.GroupBy = costing.GroupBy(q.Get("group_by"))
	return req, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
