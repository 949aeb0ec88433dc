package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cityfix/cityfix/internal/domain/model"
)

// MemoryStore is a mutex-guarded, in-memory implementation of both
// RequestStore and WorkerStore. It backs the test suite and single-node
// deployments that run without Postgres. Reads return copies so callers
// can never mutate shared state.
type MemoryStore struct {
	mu         sync.RWMutex
	requests   map[string]model.ServiceRequest
	violations []model.SlaViolation
	workers    map[string]model.WorkerProfile
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		requests: make(map[string]model.ServiceRequest),
		workers:  make(map[string]model.WorkerProfile),
	}
}

// --- RequestStore ---

func (s *MemoryStore) Create(_ context.Context, req *model.ServiceRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[req.ID] = *req
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (model.ServiceRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[id]
	if !ok {
		return model.ServiceRequest{}, ErrNotFound
	}
	return req, nil
}

func (s *MemoryStore) List(_ context.Context) ([]model.ServiceRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.ServiceRequest, 0, len(s.requests))
	for _, req := range s.requests {
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) FindBreached(_ context.Context, now time.Time) ([]model.ServiceRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.ServiceRequest
	for _, req := range s.requests {
		if req.SLADeadline == nil || !req.Status.Active() {
			continue
		}
		if req.SLADeadline.Before(now) {
			out = append(out, req)
		}
	}
	sortByDeadline(out)
	return out, nil
}

func (s *MemoryStore) FindAtRisk(_ context.Context, now time.Time, lookahead time.Duration) ([]model.ServiceRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	edge := now.Add(lookahead)
	var out []model.ServiceRequest
	for _, req := range s.requests {
		if req.SLADeadline == nil || !req.Status.Active() {
			continue
		}
		d := *req.SLADeadline
		if d.After(now) && !d.After(edge) {
			out = append(out, req)
		}
	}
	sortByDeadline(out)
	return out, nil
}

func (s *MemoryStore) FindAvailable(_ context.Context) ([]model.ServiceRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.ServiceRequest
	for _, req := range s.requests {
		if req.AssignedWorkerID == nil && req.Status == model.StatusSubmitted {
			out = append(out, req)
		}
	}
	sortByUrgency(out)
	return out, nil
}

func (s *MemoryStore) FindAssigned(_ context.Context, workerID string) ([]model.ServiceRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.ServiceRequest
	for _, req := range s.requests {
		if req.AssignedWorkerID == nil || *req.AssignedWorkerID != workerID {
			continue
		}
		if req.Status == model.StatusAssigned || req.Status == model.StatusInProgress {
			out = append(out, req)
		}
	}
	sortByUrgency(out)
	return out, nil
}

func (s *MemoryStore) UpdateStatus(_ context.Context, id string, newStatus model.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok {
		return ErrNotFound
	}
	req.Status = newStatus
	req.UpdatedAt = time.Now().UTC()
	s.requests[id] = req
	return nil
}

func (s *MemoryStore) Assign(_ context.Context, id string, workerID *string, priority model.Priority, status model.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok {
		return ErrNotFound
	}
	req.AssignedWorkerID = workerID
	if priority.Valid() {
		req.Priority = priority
	}
	if status.Valid() {
		req.Status = status
	}
	req.UpdatedAt = time.Now().UTC()
	s.requests[id] = req
	return nil
}

func (s *MemoryStore) ClaimIfUnassigned(_ context.Context, id string, workerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok {
		return ErrNotFound
	}
	if req.AssignedWorkerID != nil {
		return ErrAlreadyClaimed
	}
	req.AssignedWorkerID = &workerID
	req.Status = model.StatusAssigned
	req.UpdatedAt = time.Now().UTC()
	s.requests[id] = req
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[id]; !ok {
		return ErrNotFound
	}
	delete(s.requests, id)
	return nil
}

func (s *MemoryStore) InsertViolation(_ context.Context, v *model.SlaViolation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.violations = append(s.violations, *v)
	return nil
}

func (s *MemoryStore) ListViolations(_ context.Context, limit int) ([]model.SlaViolation, error) {
	if limit < 1 {
		return nil, ErrInvalidLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.SlaViolation, len(s.violations))
	copy(out, s.violations)
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- WorkerStore ---

func (s *MemoryStore) ListWorkers(_ context.Context) ([]model.WorkerProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.WorkerProfile, 0, len(s.workers))
	for _, w := range s.workers {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalScore != out[j].TotalScore {
			return out[i].TotalScore > out[j].TotalScore
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) IncrementViolations(_ context.Context, workerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.workers[workerID]
	if !ok {
		return ErrWorkerNotFound
	}
	w.SLAViolations++
	s.workers[workerID] = w
	return nil
}

func (s *MemoryStore) IncrementCompleted(_ context.Context, workerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.workers[workerID]
	if !ok {
		return ErrWorkerNotFound
	}
	w.CompletedTasks++
	s.workers[workerID] = w
	return nil
}

func (s *MemoryStore) SetTotalScore(_ context.Context, workerID string, score float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.workers[workerID]
	if !ok {
		return ErrWorkerNotFound
	}
	w.TotalScore = score
	s.workers[workerID] = w
	return nil
}

// PutWorker registers or replaces a worker profile. Worker registration is
// owned by the identity layer in production; this exists for seeding and tests.
func (s *MemoryStore) PutWorker(w model.WorkerProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workers[w.ID] = w
}

func sortByDeadline(reqs []model.ServiceRequest) {
	sort.Slice(reqs, func(i, j int) bool {
		return reqs[i].SLADeadline.Before(*reqs[j].SLADeadline)
	})
}

func sortByUrgency(reqs []model.ServiceRequest) {
	sort.Slice(reqs, func(i, j int) bool {
		if reqs[i].Priority.Weight() != reqs[j].Priority.Weight() {
			return reqs[i].Priority.Weight() > reqs[j].Priority.Weight()
		}
		return reqs[i].CreatedAt.Before(reqs[j].CreatedAt)
	})
}
