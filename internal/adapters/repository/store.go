// Package repository defines the request and worker store interfaces and errors.
package repository

import (
	"context"
	"time"

	"github.com/cityfix/cityfix/internal/domain/model"
)

// RequestStore provides access to service requests and their violation log.
// Implementations must keep the violation log append-only.
type RequestStore interface {
	// Create persists a new service request.
	Create(ctx context.Context, req *model.ServiceRequest) error

	// Get returns one request by id.
	// Returns ErrNotFound if the request is unknown.
	Get(ctx context.Context, id string) (model.ServiceRequest, error)

	// List returns every request, newest first.
	List(ctx context.Context) ([]model.ServiceRequest, error)

	// FindBreached returns the sweep candidate set: requests with a
	// deadline strictly before now whose status is still active.
	// Requests already flagged overdue are excluded, which is what makes
	// repeated sweeps idempotent.
	FindBreached(ctx context.Context, now time.Time) ([]model.ServiceRequest, error)

	// FindAtRisk returns active requests whose deadline falls within
	// (now, now+lookahead], ordered by deadline ascending. Read-only.
	FindAtRisk(ctx context.Context, now time.Time, lookahead time.Duration) ([]model.ServiceRequest, error)

	// FindAvailable returns unassigned submitted requests, most urgent first.
	FindAvailable(ctx context.Context) ([]model.ServiceRequest, error)

	// FindAssigned returns a worker's open tasks (assigned or in_progress).
	FindAssigned(ctx context.Context, workerID string) ([]model.ServiceRequest, error)

	// UpdateStatus moves a request to newStatus.
	UpdateStatus(ctx context.Context, id string, newStatus model.Status) error

	// Assign applies an administrative dispatch: worker, priority and
	// status in one write. A nil workerID clears the assignment.
	Assign(ctx context.Context, id string, workerID *string, priority model.Priority, status model.Status) error

	// ClaimIfUnassigned assigns workerID only when no worker holds the
	// request yet. Returns ErrAlreadyClaimed when the guard fails.
	ClaimIfUnassigned(ctx context.Context, id string, workerID string) error

	// Delete removes a request. Administrative action only; the sweep
	// never deletes.
	Delete(ctx context.Context, id string) error

	// InsertViolation appends one violation record.
	InsertViolation(ctx context.Context, v *model.SlaViolation) error

	// ListViolations returns the most recent violations, newest first.
	ListViolations(ctx context.Context, limit int) ([]model.SlaViolation, error)
}

// WorkerStore provides access to worker profiles and their counters.
type WorkerStore interface {
	// ListWorkers returns all workers ordered by TotalScore descending,
	// ties broken by profile creation order.
	ListWorkers(ctx context.Context) ([]model.WorkerProfile, error)

	// IncrementViolations bumps a worker's violation counter by one.
	IncrementViolations(ctx context.Context, workerID string) error

	// IncrementCompleted bumps a worker's completed-task counter by one.
	IncrementCompleted(ctx context.Context, workerID string) error

	// SetTotalScore overwrites a worker's derived score.
	SetTotalScore(ctx context.Context, workerID string, score float64) error
}
