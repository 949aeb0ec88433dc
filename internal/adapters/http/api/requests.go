// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	service "github.com/cityfix/cityfix/internal/app"
	"github.com/cityfix/cityfix/internal/domain/model"
)

// RequestDependencies defines the interface for request lifecycle operations.
type RequestDependencies interface {
	Submit(ctx context.Context, in service.SubmitInput) (model.ServiceRequest, error)
	ListRequests(ctx context.Context) ([]model.ServiceRequest, error)
	Dispatch(ctx context.Context, in service.DispatchInput) error
	DeleteRequest(ctx context.Context, requestID string) error
}

// RequestsHandler handles citizen submissions and admin request management.
type RequestsHandler struct {
	deps RequestDependencies
}

// NewRequestsHandler creates a new requests handler.
func NewRequestsHandler(deps RequestDependencies) *RequestsHandler {
	return &RequestsHandler{deps: deps}
}

// submitRequest mirrors the wire schema for POST /requests.
type submitRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	CategoryID  string   `json:"category_id"`
	Priority    string   `json:"priority"`
	CitizenID   string   `json:"citizen_id"`
	Address     string   `json:"address"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	PhotoURL    string   `json:"photo_url"`
	ClientRef   string   `json:"client_ref"`
}

// dispatchRequest mirrors the wire schema for PATCH /requests/{id}.
type dispatchRequest struct {
	WorkerID *string `json:"assigned_worker_id"`
	Priority string  `json:"priority"`
	Status   string  `json:"status"`
}

// HandleRequests handles POST and GET /requests.
func (h *RequestsHandler) HandleRequests(w http.ResponseWriter, r *http.Request) {
	const op = "api.requests"
	switch r.Method {
	case http.MethodPost:
		var req submitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		created, err := h.deps.Submit(r.Context(), service.SubmitInput{
			Title:       req.Title,
			Description: req.Description,
			CategoryID:  req.CategoryID,
			Priority:    model.Priority(req.Priority),
			CitizenID:   req.CitizenID,
			Address:     req.Address,
			Latitude:    req.Latitude,
			Longitude:   req.Longitude,
			PhotoURL:    req.PhotoURL,
			ClientRef:   req.ClientRef,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	case http.MethodGet:
		reqs, err := h.deps.ListRequests(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
			return
		}
		writeJSON(w, http.StatusOK, reqs)
	default:
		http.NotFound(w, r)
	}
}

// HandleRequestByID handles PATCH and DELETE /requests/{id}.
func (h *RequestsHandler) HandleRequestByID(w http.ResponseWriter, r *http.Request) {
	const op = "api.request_by_id"
	id := strings.TrimPrefix(r.URL.Path, "/requests/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	switch r.Method {
	case http.MethodPatch:
		var req dispatchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		err := h.deps.Dispatch(r.Context(), service.DispatchInput{
			RequestID: id,
			WorkerID:  req.WorkerID,
			Priority:  model.Priority(req.Priority),
			Status:    model.Status(req.Status),
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
	case http.MethodDelete:
		if err := h.deps.DeleteRequest(r.Context(), id); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		http.NotFound(w, r)
	}
}
