// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cityfix/cityfix/internal/adapters/mq/queue"
	"github.com/cityfix/cityfix/internal/adapters/mq/worker"
	"github.com/cityfix/cityfix/internal/adapters/repository"
	"github.com/cityfix/cityfix/internal/domain/dedupe"
	"github.com/cityfix/cityfix/internal/domain/model"
	"github.com/cityfix/cityfix/internal/domain/scoring"
	"github.com/cityfix/cityfix/internal/domain/sla"
	"github.com/cityfix/cityfix/internal/domain/types"
	"github.com/cityfix/cityfix/pkg/logger"
	"github.com/cityfix/cityfix/pkg/metrics"
)

// Service implements the sweep, ranking and request-lifecycle operations.
//
// The sweep and the recalculation are single-shot, re-entrant batch passes:
// they hold no state between invocations and tolerate concurrent runs.
// Idempotency of the sweep comes from the candidate query itself, which
// excludes requests already flagged overdue.
type Service struct {
	mu sync.RWMutex

	// Stores
	requests repository.RequestStore
	workers  repository.WorkerStore

	// Core components
	calc  *scoring.Calculator
	guard dedupe.Guard

	// Notification pipeline
	notifyQueue    *queue.InMemoryQueue
	notifyPool     *worker.Pool
	inbox          *worker.Inbox
	notifyWorkers  int
	notifyCapacity int
	notifyEnabled  bool
	notifyCancel   context.CancelFunc

	// Configuration
	slaHours        map[model.Priority]time.Duration
	lookahead       time.Duration
	violationsLimit int

	// Clock, swappable in tests
	now func() time.Time

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithRequestStore sets the backing request store.
func WithRequestStore(store repository.RequestStore) Option {
	return func(s *Service) {
		if store != nil {
			s.requests = store
		}
	}
}

// WithWorkerStore sets the backing worker store.
func WithWorkerStore(store repository.WorkerStore) Option {
	return func(s *Service) {
		if store != nil {
			s.workers = store
		}
	}
}

// WithCalculator sets the ranking score calculator.
func WithCalculator(calc *scoring.Calculator) Option {
	return func(s *Service) {
		if calc != nil {
			s.calc = calc
		}
	}
}

// WithSLAHours sets the per-priority response windows applied at submission.
func WithSLAHours(hours map[model.Priority]time.Duration) Option {
	return func(s *Service) {
		if len(hours) > 0 {
			s.slaHours = hours
		}
	}
}

// WithLookahead sets the default at-risk window.
func WithLookahead(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.lookahead = d
		}
	}
}

// WithViolationsLimit caps the recent-violations listing.
func WithViolationsLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.violationsLimit = n
		}
	}
}

// WithSubmissionGuard sets the duplicate-submission guard.
func WithSubmissionGuard(g dedupe.Guard) Option {
	return func(s *Service) {
		if g != nil {
			s.guard = g
		}
	}
}

// WithNotificationWorkers sets the size of the dispatch pool.
func WithNotificationWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.notifyWorkers = n
		}
	}
}

// WithNotificationCapacity bounds the pending-notification queue.
func WithNotificationCapacity(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.notifyCapacity = n
		}
	}
}

// WithoutNotifications disables the notification pipeline entirely.
func WithoutNotifications() Option {
	return func(s *Service) {
		s.notifyEnabled = false
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithNowFunc swaps the clock. Tests use this to pin time.
func WithNowFunc(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		calc:           scoring.NewCalculator(),
		guard:          dedupe.NewInMemoryGuard(),
		notifyWorkers:  2,
		notifyCapacity: 1024,
		notifyEnabled:  true,
		slaHours: map[model.Priority]time.Duration{
			model.PriorityUrgent: 4 * time.Hour,
			model.PriorityHigh:   24 * time.Hour,
			model.PriorityMedium: 48 * time.Hour,
			model.PriorityLow:    72 * time.Hour,
		},
		lookahead:       sla.DefaultLookahead,
		violationsLimit: 100,
		now:             time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the service. When no stores were configured a shared
// in-memory store backs both interfaces.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	if s.requests == nil || s.workers == nil {
		mem := repository.NewMemoryStore()
		if s.requests == nil {
			s.requests = mem
		}
		if s.workers == nil {
			s.workers = mem
		}
		s.logger.Info(ctx, "using in-memory store")
	}

	if s.notifyEnabled {
		s.inbox = worker.NewInbox(0)
		s.notifyQueue = queue.NewInMemoryQueue(queue.WithCapacity(s.notifyCapacity))
		s.notifyPool = worker.NewPool(s.notifyWorkers, s.notifyQueue, s.inbox)

		// The pipeline outlives any request context.
		notifyCtx, cancel := context.WithCancel(context.Background())
		s.notifyCancel = cancel
		s.notifyPool.Start(notifyCtx)
	}

	s.started = true
	s.logger.Info(ctx, "cityfix service started",
		logger.Int("violationsLimit", s.violationsLimit),
		logger.String("lookahead", s.lookahead.String()),
	)
	return nil
}

// Stop releases store resources.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	if s.notifyPool != nil {
		_ = s.notifyPool.Shutdown(context.Background())
		// If the drain timed out, force the dispatchers out of their loops.
		s.notifyPool.Stop()
		s.notifyCancel()
	}

	if closer, ok := s.requests.(interface{ Close() }); ok {
		closer.Close()
	}

	s.started = false
	s.logger.Info(context.Background(), "cityfix service stopped")
}

// --- SLA sweep ---

// RunSweep executes one deadline sweep pass against the supplied clock
// reading. A zero now means "current time". The only hard error is failure
// of the candidate query itself; per-candidate write failures are logged,
// counted in metrics and skipped.
func (s *Service) RunSweep(ctx context.Context, now time.Time) (types.SweepResult, error) {
	if now.IsZero() {
		now = s.now().UTC()
	}
	start := s.now()

	candidates, err := s.requests.FindBreached(ctx, now)
	if err != nil {
		return types.SweepResult{}, fmt.Errorf("fetch breach candidates: %w", err)
	}

	result := types.SweepResult{Checked: len(candidates)}
	for _, req := range candidates {
		if s.recordViolation(ctx, req, now) {
			result.Violations++
		}
		result.Marked++
	}

	metrics.RecordSweep(result.Checked, result.Marked, result.Violations, s.now().Sub(start))
	s.logger.Info(ctx, "sla sweep finished",
		logger.Int("checked", result.Checked),
		logger.Int("marked", result.Marked),
		logger.Int("violations", result.Violations),
	)
	return result, nil
}

// recordViolation applies the three-step overdue transition to one
// candidate. The steps are sequential but deliberately non-transactional:
// a failed violation insert leaves the request overdue (safe state), and a
// failed counter increment never rolls back the violation row. Returns
// whether the violation row was inserted.
func (s *Service) recordViolation(ctx context.Context, req model.ServiceRequest, now time.Time) bool {
	if err := s.requests.UpdateStatus(ctx, req.ID, model.StatusOverdue); err != nil {
		metrics.RecordSweepPartialFailure("mark_overdue")
		s.logger.Error(ctx, "failed to flag request overdue",
			logger.String("request", req.ID), logger.Error(err))
	}

	violation := model.SlaViolation{
		ID:         uuid.NewString(),
		RequestID:  req.ID,
		WorkerID:   req.AssignedWorkerID,
		DelayHours: sla.DelayHours(*req.SLADeadline, now),
		CreatedAt:  now,
	}
	if err := s.requests.InsertViolation(ctx, &violation); err != nil {
		metrics.RecordSweepPartialFailure("insert_violation")
		s.logger.Error(ctx, "failed to insert sla violation",
			logger.String("request", req.ID), logger.Error(err))
		return false
	}

	if req.AssignedWorkerID != nil {
		if err := s.workers.IncrementViolations(ctx, *req.AssignedWorkerID); err != nil {
			metrics.RecordSweepPartialFailure("increment_counter")
			s.logger.Warn(ctx, "failed to increment worker violation counter",
				logger.String("worker", *req.AssignedWorkerID), logger.Error(err))
		}
		s.notify(ctx, *req.AssignedWorkerID, req.ID, model.NoticeRequestOverdue,
			fmt.Sprintf("Task %q missed its response deadline.", req.Title))
	}
	s.notify(ctx, req.CitizenID, req.ID, model.NoticeRequestOverdue,
		fmt.Sprintf("Your report %q is overdue and has been escalated.", req.Title))
	return true
}

// notify enqueues a status notice. Best-effort: a full queue drops the
// notice rather than delaying the caller.
func (s *Service) notify(ctx context.Context, recipientID, requestID string, kind model.NotificationKind, message string) {
	if s.notifyQueue == nil || recipientID == "" {
		return
	}
	ok := s.notifyQueue.Enqueue(ctx, model.Notification{
		ID:          uuid.NewString(),
		RecipientID: recipientID,
		RequestID:   requestID,
		Kind:        kind,
		Message:     message,
		CreatedAt:   s.now().UTC(),
	})
	if !ok {
		s.logger.Warn(ctx, "notification dropped",
			logger.String("recipient", recipientID), logger.String("kind", string(kind)))
	}
}

// Notifications returns the recipient's recent notices, newest first.
func (s *Service) Notifications(ctx context.Context, recipientID string, limit int) ([]model.Notification, error) {
	if recipientID == "" {
		return nil, fmt.Errorf("%w: missing recipient_id", ErrValidation)
	}
	if s.inbox == nil {
		return []model.Notification{}, nil
	}
	return s.inbox.Recent(recipientID, limit), nil
}

// AtRisk returns active requests whose deadline falls within the lookahead
// window. Zero lookahead selects the configured default. Read-only.
func (s *Service) AtRisk(ctx context.Context, now time.Time, lookahead time.Duration) ([]model.ServiceRequest, error) {
	if now.IsZero() {
		now = s.now().UTC()
	}
	if lookahead <= 0 {
		lookahead = s.lookahead
	}
	return s.requests.FindAtRisk(ctx, now, lookahead)
}

// RecentViolations returns the newest violation records. A non-positive
// limit selects the configured cap; larger requests are clamped to it.
func (s *Service) RecentViolations(ctx context.Context, limit int) ([]model.SlaViolation, error) {
	if limit <= 0 || limit > s.violationsLimit {
		limit = s.violationsLimit
	}
	return s.requests.ListViolations(ctx, limit)
}

// --- Rankings ---

// RecalculateRankings recomputes every worker's TotalScore from their
// current stored counters. Full overwrite, not a delta; running it twice
// with no intervening changes is a no-op the second time.
func (s *Service) RecalculateRankings(ctx context.Context) (types.RecalcResult, error) {
	workers, err := s.workers.ListWorkers(ctx)
	if err != nil {
		return types.RecalcResult{}, fmt.Errorf("list workers: %w", err)
	}

	var result types.RecalcResult
	failed := 0
	for _, w := range workers {
		score := s.calc.Score(w.CompletedTasks, w.SLAViolations, w.AverageRating)
		if err := s.workers.SetTotalScore(ctx, w.ID, score); err != nil {
			failed++
			s.logger.Error(ctx, "failed to persist worker score",
				logger.String("worker", w.ID), logger.Error(err))
			continue
		}
		result.Updated++
	}

	metrics.RecordRecalculation(result.Updated, failed)
	s.logger.Info(ctx, "ranking recalculation finished",
		logger.Int("workers", len(workers)), logger.Int("updated", result.Updated))
	return result, nil
}

// Rankings returns all workers ordered by TotalScore descending, with
// ranks assigned from the store's stable order.
func (s *Service) Rankings(ctx context.Context) ([]types.Ranking, error) {
	workers, err := s.workers.ListWorkers(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]types.Ranking, len(workers))
	for i, w := range workers {
		out[i] = types.Ranking{
			Rank:           i + 1,
			WorkerID:       w.ID,
			FullName:       w.FullName,
			CompletedTasks: w.CompletedTasks,
			SLAViolations:  w.SLAViolations,
			AverageRating:  w.AverageRating,
			TotalScore:     w.TotalScore,
		}
	}
	metrics.UpdateWorkersTracked(len(workers))
	return out, nil
}

// --- Request lifecycle ---

// SubmitInput carries a citizen report. ClientRef is an optional
// client-generated token; resubmits carrying the same token are rejected
// as duplicates.
type SubmitInput struct {
	Title       string
	Description string
	CategoryID  string
	Priority    model.Priority
	CitizenID   string
	Address     string
	Latitude    *float64
	Longitude   *float64
	PhotoURL    string
	ClientRef   string
}

func (in SubmitInput) validate() error {
	switch {
	case strings.TrimSpace(in.Title) == "":
		return fmt.Errorf("%w: missing title", ErrValidation)
	case strings.TrimSpace(in.CategoryID) == "":
		return fmt.Errorf("%w: missing category_id", ErrValidation)
	case strings.TrimSpace(in.CitizenID) == "":
		return fmt.Errorf("%w: missing citizen_id", ErrValidation)
	}
	if in.Priority != "" && !in.Priority.Valid() {
		return fmt.Errorf("%w: unknown priority %q", ErrValidation, in.Priority)
	}
	return nil
}

// Submit accepts a citizen report, derives its SLA deadline from priority
// and persists it in status submitted.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (model.ServiceRequest, error) {
	if err := in.validate(); err != nil {
		return model.ServiceRequest{}, err
	}

	if in.ClientRef != "" && s.guard.SeenAndRecord(ctx, in.ClientRef) {
		metrics.RecordDuplicateSubmission()
		return model.ServiceRequest{}, fmt.Errorf("%w: client_ref %s", ErrDuplicate, in.ClientRef)
	}

	priority := in.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}

	now := s.now().UTC()
	req := model.ServiceRequest{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		CategoryID:  in.CategoryID,
		Status:      model.StatusSubmitted,
		Priority:    priority,
		CitizenID:   in.CitizenID,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		Address:     in.Address,
		PhotoURL:    in.PhotoURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if window, ok := s.slaHours[priority]; ok {
		deadline := now.Add(window)
		req.SLADeadline = &deadline
	}

	if err := s.requests.Create(ctx, &req); err != nil {
		// Let the citizen retry with the same token.
		if in.ClientRef != "" {
			s.guard.Forget(ctx, in.ClientRef)
		}
		return model.ServiceRequest{}, fmt.Errorf("create request: %w", err)
	}

	metrics.RecordRequestSubmitted()
	s.notify(ctx, req.CitizenID, req.ID, model.NoticeReportReceived,
		fmt.Sprintf("Your report %q was received and queued for dispatch.", req.Title))
	s.logger.Info(ctx, "request submitted",
		logger.String("request", req.ID), logger.String("priority", string(priority)))
	return req, nil
}

// ListRequests returns every request, newest first.
func (s *Service) ListRequests(ctx context.Context) ([]model.ServiceRequest, error) {
	return s.requests.List(ctx)
}

// AvailableTasks returns unassigned submitted requests, most urgent first.
func (s *Service) AvailableTasks(ctx context.Context) ([]model.ServiceRequest, error) {
	return s.requests.FindAvailable(ctx)
}

// WorkerTasks returns a worker's open tasks.
func (s *Service) WorkerTasks(ctx context.Context, workerID string) ([]model.ServiceRequest, error) {
	if workerID == "" {
		return nil, fmt.Errorf("%w: missing worker_id", ErrValidation)
	}
	return s.requests.FindAssigned(ctx, workerID)
}

// Claim assigns a request to workerID if nobody holds it yet.
func (s *Service) Claim(ctx context.Context, requestID, workerID string) error {
	if requestID == "" || workerID == "" {
		return fmt.Errorf("%w: missing request_id or worker_id", ErrValidation)
	}
	if err := s.requests.ClaimIfUnassigned(ctx, requestID, workerID); err != nil {
		if errors.Is(err, repository.ErrAlreadyClaimed) {
			metrics.RecordClaimConflict()
		}
		return err
	}
	metrics.RecordTaskClaimed()
	if req, err := s.requests.Get(ctx, requestID); err == nil {
		s.notify(ctx, req.CitizenID, req.ID, model.NoticeTaskClaimed,
			fmt.Sprintf("A crew picked up your report %q.", req.Title))
	}
	return nil
}

// UpdateTaskStatus moves one of the worker's own tasks to newStatus.
// Resolving a task bumps the worker's completed counter; that increment is
// best-effort and never blocks the status change.
func (s *Service) UpdateTaskStatus(ctx context.Context, requestID, workerID string, newStatus model.Status) error {
	if !newStatus.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, newStatus)
	}

	req, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return err
	}
	if req.AssignedWorkerID == nil || *req.AssignedWorkerID != workerID {
		return ErrNotAssigned
	}

	if err := s.requests.UpdateStatus(ctx, requestID, newStatus); err != nil {
		return err
	}

	if newStatus == model.StatusResolved {
		metrics.RecordTaskResolved()
		if err := s.workers.IncrementCompleted(ctx, workerID); err != nil {
			s.logger.Warn(ctx, "failed to increment completed counter",
				logger.String("worker", workerID), logger.Error(err))
		}
	}
	s.notify(ctx, req.CitizenID, req.ID, model.NoticeStatusChanged,
		fmt.Sprintf("Your report %q is now %s.", req.Title, newStatus))
	return nil
}

// DispatchInput carries an administrative request update. Empty priority
// or status leave the current value untouched.
type DispatchInput struct {
	RequestID string
	WorkerID  *string
	Priority  model.Priority
	Status    model.Status
}

// Dispatch applies an admin assignment/priority/status change.
func (s *Service) Dispatch(ctx context.Context, in DispatchInput) error {
	if in.RequestID == "" {
		return fmt.Errorf("%w: missing request_id", ErrValidation)
	}
	if in.Priority != "" && !in.Priority.Valid() {
		return fmt.Errorf("%w: unknown priority %q", ErrValidation, in.Priority)
	}
	if in.Status != "" && !in.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, in.Status)
	}
	return s.requests.Assign(ctx, in.RequestID, in.WorkerID, in.Priority, in.Status)
}

// DeleteRequest removes a request. Administrative action; the sweep never
// deletes.
func (s *Service) DeleteRequest(ctx context.Context, requestID string) error {
	if requestID == "" {
		return fmt.Errorf("%w: missing request_id", ErrValidation)
	}
	return s.requests.Delete(ctx, requestID)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":          s.started,
		"violations_limit": s.violationsLimit,
		"lookahead":        s.lookahead.String(),
	}

	if !s.started {
		return stats
	}

	if reqs, err := s.requests.List(ctx); err == nil {
		stats["total_requests"] = len(reqs)
		overdue := 0
		for _, r := range reqs {
			if r.Status == model.StatusOverdue {
				overdue++
			}
		}
		stats["overdue_requests"] = overdue
		metrics.UpdateOverdueRequests(overdue)
	}
	if workers, err := s.workers.ListWorkers(ctx); err == nil {
		stats["total_workers"] = len(workers)
		metrics.UpdateWorkersTracked(len(workers))
	}
	if s.notifyQueue != nil {
		stats["pending_notifications"] = s.notifyQueue.Len(ctx)
	}
	stats["tracked_submission_tokens"] = s.guard.Size()
	return stats
}
