// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/cityfix/cityfix/internal/adapters/repository"
	service "github.com/cityfix/cityfix/internal/app"
	"github.com/cityfix/cityfix/internal/domain/model"
	"github.com/cityfix/cityfix/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// SLA sweep operations.
	RunSweep(ctx context.Context, now time.Time) (types.SweepResult, error)
	AtRisk(ctx context.Context, now time.Time, lookahead time.Duration) ([]model.ServiceRequest, error)
	RecentViolations(ctx context.Context, limit int) ([]model.SlaViolation, error)

	// Ranking operations.
	RecalculateRankings(ctx context.Context) (types.RecalcResult, error)
	Rankings(ctx context.Context) ([]types.Ranking, error)

	// Request lifecycle.
	Submit(ctx context.Context, in service.SubmitInput) (model.ServiceRequest, error)
	ListRequests(ctx context.Context) ([]model.ServiceRequest, error)
	Dispatch(ctx context.Context, in service.DispatchInput) error
	DeleteRequest(ctx context.Context, requestID string) error

	// Worker task operations.
	AvailableTasks(ctx context.Context) ([]model.ServiceRequest, error)
	WorkerTasks(ctx context.Context, workerID string) ([]model.ServiceRequest, error)
	Claim(ctx context.Context, requestID, workerID string) error
	UpdateTaskStatus(ctx context.Context, requestID, workerID string, newStatus model.Status) error

	// Notification read side.
	Notifications(ctx context.Context, recipientID string, limit int) ([]model.Notification, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	slaHandler      *SLAHandler
	rankingsHandler *RankingsHandler
	requestsHandler *RequestsHandler
	tasksHandler    *TasksHandler
	levelHandler    *CitizenLevelHandler
	noticesHandler  *NotificationsHandler
}

// ServerOption applies a configuration option to the Server.
type ServerOption func(*Server)

// WithTriggerLimit bounds how often the admin sweep and recalculation
// triggers may fire. Applies to both handlers.
func WithTriggerLimit(perSecond float64, burst int) ServerOption {
	return func(s *Server) {
		if perSecond > 0 && burst > 0 {
			s.slaHandler.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
			s.rankingsHandler.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...ServerOption) *Server {
	s := &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		slaHandler:      NewSLAHandler(deps),
		rankingsHandler: NewRankingsHandler(deps),
		requestsHandler: NewRequestsHandler(deps),
		tasksHandler:    NewTasksHandler(deps),
		levelHandler:    NewCitizenLevelHandler(),
		noticesHandler:  NewNotificationsHandler(deps),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/sla/check", MetricsMiddleware(s.slaHandler.HandleCheck, "sla_check"))
	mux.HandleFunc("/sla/at-risk", MetricsMiddleware(s.slaHandler.HandleAtRisk, "sla_at_risk"))
	mux.HandleFunc("/sla/violations", MetricsMiddleware(s.slaHandler.HandleViolations, "sla_violations"))
	mux.HandleFunc("/workers/rankings/recalculate", MetricsMiddleware(s.rankingsHandler.HandleRecalculate, "rankings_recalculate"))
	mux.HandleFunc("/workers/rankings", MetricsMiddleware(s.rankingsHandler.HandleGetRankings, "rankings"))
	mux.HandleFunc("/requests", MetricsMiddleware(s.requestsHandler.HandleRequests, "requests"))
	mux.HandleFunc("/requests/", MetricsMiddleware(s.requestsHandler.HandleRequestByID, "request"))
	mux.HandleFunc("/tasks", MetricsMiddleware(s.tasksHandler.HandleListTasks, "tasks"))
	mux.HandleFunc("/tasks/", MetricsMiddleware(s.tasksHandler.HandleUpdateTask, "task"))
	mux.HandleFunc("/citizens/level", MetricsMiddleware(s.levelHandler.HandleLevel, "citizen_level"))
	mux.HandleFunc("/notifications", MetricsMiddleware(s.noticesHandler.HandleList, "notifications"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError translates service and store sentinels to their HTTP
// shape. Anything unrecognized is a 500.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, repository.ErrWorkerNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, repository.ErrAlreadyClaimed):
		writeError(w, http.StatusConflict, "already_claimed", err)
	case errors.Is(err, service.ErrDuplicate):
		writeError(w, http.StatusConflict, "duplicate_submission", err)
	case errors.Is(err, service.ErrNotAssigned):
		writeError(w, http.StatusForbidden, "not_assigned", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
