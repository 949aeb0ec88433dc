// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/cityfix/cityfix/internal/domain/types"
)

// RankingsDependencies defines the interface for ranking operations.
type RankingsDependencies interface {
	RecalculateRankings(ctx context.Context) (types.RecalcResult, error)
	Rankings(ctx context.Context) ([]types.Ranking, error)
}

// RankingsHandler handles worker ranking requests.
type RankingsHandler struct {
	deps    RankingsDependencies
	limiter *rate.Limiter
}

// NewRankingsHandler creates a new rankings handler.
func NewRankingsHandler(deps RankingsDependencies) *RankingsHandler {
	return &RankingsHandler{
		deps:    deps,
		limiter: rate.NewLimiter(rate.Limit(1), 3),
	}
}

// HandleRecalculate handles POST /workers/rankings/recalculate requests.
func (h *RankingsHandler) HandleRecalculate(w http.ResponseWriter, r *http.Request) {
	const op = "api.rankings_recalculate"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if !h.limiter.Allow() {
		writeError(w, http.StatusTooManyRequests, "rate_limited", NewKind(op, ErrRateLimited))
		return
	}
	result, err := h.deps.RecalculateRankings(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleGetRankings handles GET /workers/rankings requests.
func (h *RankingsHandler) HandleGetRankings(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_rankings"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	rankings, err := h.deps.Rankings(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, rankings)
}
