// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strconv"

	"github.com/cityfix/cityfix/internal/domain/engagement"
)

// CitizenLevelHandler handles citizen recognition level lookups.
type CitizenLevelHandler struct{}

// NewCitizenLevelHandler creates a new citizen level handler.
func NewCitizenLevelHandler() *CitizenLevelHandler {
	return &CitizenLevelHandler{}
}

type levelResponse struct {
	Current  engagement.Level  `json:"current"`
	Next     *engagement.Level `json:"next,omitempty"`
	Progress int               `json:"progress"`
	Reports  int               `json:"reports"`
}

// HandleLevel handles GET /citizens/level?reports=N requests.
func (h *CitizenLevelHandler) HandleLevel(w http.ResponseWriter, r *http.Request) {
	const op = "api.citizen_level"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	reports, err := strconv.Atoi(r.URL.Query().Get("reports"))
	if err != nil || reports < 0 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	writeJSON(w, http.StatusOK, levelResponse{
		Current:  engagement.LevelFor(reports),
		Next:     engagement.NextLevel(reports),
		Progress: engagement.Progress(reports),
		Reports:  reports,
	})
}
