// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/cityfix/cityfix/internal/domain/model"
)

// TaskDependencies defines the interface for worker task operations.
type TaskDependencies interface {
	AvailableTasks(ctx context.Context) ([]model.ServiceRequest, error)
	WorkerTasks(ctx context.Context, workerID string) ([]model.ServiceRequest, error)
	Claim(ctx context.Context, requestID, workerID string) error
	UpdateTaskStatus(ctx context.Context, requestID, workerID string, newStatus model.Status) error
}

// TasksHandler handles the worker-facing task queue.
type TasksHandler struct {
	deps TaskDependencies
}

// NewTasksHandler creates a new tasks handler.
func NewTasksHandler(deps TaskDependencies) *TasksHandler {
	return &TasksHandler{deps: deps}
}

// taskUpdateRequest mirrors the wire schema for PATCH /tasks/{id}.
// Action "claim" takes the request for the worker; action "status" moves
// an already-claimed task to the given status.
type taskUpdateRequest struct {
	Action   string `json:"action"`
	WorkerID string `json:"worker_id"`
	Status   string `json:"status"`
}

// HandleListTasks handles GET /tasks requests. With a worker_id query the
// response is that worker's open tasks; without one it is the unassigned
// pool ordered most urgent first.
func (h *TasksHandler) HandleListTasks(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_tasks"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	var (
		tasks []model.ServiceRequest
		err   error
	)
	if workerID := r.URL.Query().Get("worker_id"); workerID != "" {
		tasks, err = h.deps.WorkerTasks(r.Context(), workerID)
	} else {
		tasks, err = h.deps.AvailableTasks(r.Context())
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

// HandleUpdateTask handles PATCH /tasks/{id} requests.
func (h *TasksHandler) HandleUpdateTask(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_task"
	if r.Method != http.MethodPatch {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/tasks/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	var req taskUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.WorkerID) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	switch req.Action {
	case "claim":
		if err := h.deps.Claim(r.Context(), id, req.WorkerID); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "claimed"})
	case "status":
		if err := h.deps.UpdateTaskStatus(r.Context(), id, req.WorkerID, model.Status(req.Status)); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
	default:
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
	}
}
