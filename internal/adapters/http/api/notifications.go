// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/cityfix/cityfix/internal/domain/model"
)

// NotificationDependencies defines the interface for notification reads.
type NotificationDependencies interface {
	Notifications(ctx context.Context, recipientID string, limit int) ([]model.Notification, error)
}

// NotificationsHandler serves per-recipient status notices.
type NotificationsHandler struct {
	deps NotificationDependencies
}

// NewNotificationsHandler creates a new notifications handler.
func NewNotificationsHandler(deps NotificationDependencies) *NotificationsHandler {
	return &NotificationsHandler{deps: deps}
}

// HandleList handles GET /notifications?recipient_id=X&limit=N requests.
func (h *NotificationsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.notifications"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	recipientID := r.URL.Query().Get("recipient_id")
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		limit = n
	}
	notices, err := h.deps.Notifications(r.Context(), recipientID, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notices)
}
