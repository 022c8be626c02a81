package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kislikjeka/piclaim/internal/platform/logring"
)

func TestGetLogs(t *testing.T) {
	ring := logring.NewRing(10, clock.NewMock())
	ring.Info("monitoring GDXXXX…YYYY", nil)
	ring.Success("claimed 5 for GDXXXX…YYYY", nil)

	h := NewLogHandler(ring)

	r := httptest.NewRequest(http.MethodGet, "/logs", nil)
	w := httptest.NewRecorder()
	h.GetLogs(w, r)

	require.Equal(t, http.StatusOK, w.Code)

	var resp LogsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Logs, 2)
	assert.Equal(t, logring.LevelInfo, resp.Logs[0].Level)
	assert.Equal(t, logring.LevelSuccess, resp.Logs[1].Level)
}

func TestClearLogs(t *testing.T) {
	ring := logring.NewRing(10, clock.NewMock())
	ring.Warning("submit failed", nil)

	h := NewLogHandler(ring)

	r := httptest.NewRequest(http.MethodDelete, "/logs", nil)
	w := httptest.NewRecorder()
	h.ClearLogs(w, r)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Zero(t, ring.Len())
}
