// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/cityfix/cityfix/internal/domain/model"
	"github.com/cityfix/cityfix/internal/domain/types"
)

// SLADependencies defines the interface for SLA sweep operations.
type SLADependencies interface {
	RunSweep(ctx context.Context, now time.Time) (types.SweepResult, error)
	AtRisk(ctx context.Context, now time.Time, lookahead time.Duration) ([]model.ServiceRequest, error)
	RecentViolations(ctx context.Context, limit int) ([]model.SlaViolation, error)
}

// SLAHandler handles sweep trigger and SLA read requests.
type SLAHandler struct {
	deps    SLADependencies
	limiter *rate.Limiter
}

// NewSLAHandler creates a new SLA handler. The trigger endpoint is rate
// limited so a misbehaving scheduler cannot storm the store.
func NewSLAHandler(deps SLADependencies) *SLAHandler {
	return &SLAHandler{
		deps:    deps,
		limiter: rate.NewLimiter(rate.Limit(1), 3),
	}
}

// HandleCheck handles POST /sla/check requests. The sweep runs against a
// single clock reading taken here, so every decision in the pass agrees on
// what "now" means.
func (h *SLAHandler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	const op = "api.sla_check"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if !h.limiter.Allow() {
		writeError(w, http.StatusTooManyRequests, "rate_limited", NewKind(op, ErrRateLimited))
		return
	}
	result, err := h.deps.RunSweep(r.Context(), time.Now().UTC())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleAtRisk handles GET /sla/at-risk?lookahead_hours=N requests.
func (h *SLAHandler) HandleAtRisk(w http.ResponseWriter, r *http.Request) {
	const op = "api.sla_at_risk"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	var lookahead time.Duration
	if raw := r.URL.Query().Get("lookahead_hours"); raw != "" {
		hours, err := strconv.ParseFloat(raw, 64)
		if err != nil || hours <= 0 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		lookahead = time.Duration(hours * float64(time.Hour))
	}
	reqs, err := h.deps.AtRisk(r.Context(), time.Now().UTC(), lookahead)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, reqs)
}

// HandleViolations handles GET /sla/violations?limit=N requests.
func (h *SLAHandler) HandleViolations(w http.ResponseWriter, r *http.Request) {
	const op = "api.sla_violations"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		limit = n
	}
	violations, err := h.deps.RecentViolations(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, violations)
}
