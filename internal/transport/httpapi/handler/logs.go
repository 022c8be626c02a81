package handler

import (
	"net/http"

	"github.com/kislikjeka/piclaim/internal/platform/logring"
)

// LogHandler serves the in-memory activity log
type LogHandler struct {
	ring *logring.Ring
}

// NewLogHandler creates a new log handler
func NewLogHandler(ring *logring.Ring) *LogHandler {
	return &LogHandler{ring: ring}
}

// LogsResponse represents the activity log listing, oldest first
type LogsResponse struct {
	Logs []logring.Record `json:"logs"`
}

// GetLogs handles GET /logs
func (h *LogHandler) GetLogs(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, LogsResponse{Logs: h.ring.List()})
}

// ClearLogs handles DELETE /logs
func (h *LogHandler) ClearLogs(w http.ResponseWriter, r *http.Request) {
	h.ring.Clear()
	w.WriteHeader(http.StatusNoContent)
}
