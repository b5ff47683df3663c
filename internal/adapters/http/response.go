package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/OliveiraNt/infralens/internal/domain"
	"github.com/OliveiraNt/infralens/internal/utils"
	"github.com/invopop/ctxi18n/i18n"
)

// envelope wraps every snapshot read with the health it was served under.
type envelope struct {
	Health     domain.HealthStatus `json:"health"`
	CapturedAt time.Time           `json:"captured_at"`
	Data       any                 `json:"data"`
}

type errorResponse struct {
	Error   string              `json:"error"`
	Message string              `json:"message"`
	Health  domain.HealthStatus `json:"health,omitempty"`
}

type messageResponse struct {
	Message string                `json:"message"`
	State   domain.LifecycleState `json:"state,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		utils.Logger.Error("encode response failed", "status", status, "err", err)
	}
}

// writeSnapshot serves data taken from a snapshot captured at capturedAt.
func (s *Server) writeSnapshot(w http.ResponseWriter, capturedAt time.Time, data any) {
	writeJSON(w, http.StatusOK, envelope{
		Health:     s.engine.GetHealth().Status,
		CapturedAt: capturedAt,
		Data:       data,
	})
}

// writeReadError maps an engine read error onto a status code: 503 before the
// first snapshot, 404 for unknown entities.
func (s *Server) writeReadError(w http.ResponseWriter, r *http.Request, err error, notFoundKey string) {
	health := s.engine.GetHealth().Status
	switch {
	case errors.Is(err, domain.ErrNoSnapshot):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{
			Error:   err.Error(),
			Message: i18n.T(r.Context(), "health.no_snapshot"),
			Health:  health,
		})
	case notFoundKey != "":
		writeJSON(w, http.StatusNotFound, errorResponse{
			Error:   err.Error(),
			Message: i18n.T(r.Context(), notFoundKey),
			Health:  health,
		})
	default:
		utils.Logger.Error("api read failed", "path", r.URL.Path, "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error(), Health: health})
	}
}
