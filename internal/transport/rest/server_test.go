package rest

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rocketscienceinc/caro-backend/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedStats struct {
	stats usecase.Stats
}

func (that *fixedStats) Stats() usecase.Stats {
	return that.stats
}

func newTestServer(stats usecase.Stats) *Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(logger, &fixedStats{stats: stats})
}

func TestServer_HandlePing(t *testing.T) {
	server := newTestServer(usecase.Stats{})
	recorder := httptest.NewRecorder()

	server.handlePing(recorder, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "pong", recorder.Body.String())
}

func TestServer_HandleStatus(t *testing.T) {
	server := newTestServer(usecase.Stats{
		ConnectedPlayers: 4,
		WaitingPlayers:   1,
		ActiveSessions:   1,
	})
	recorder := httptest.NewRecorder()

	server.handleStatus(recorder, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))

	var got usecase.Stats
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&got))
	assert.Equal(t, usecase.Stats{ConnectedPlayers: 4, WaitingPlayers: 1, ActiveSessions: 1}, got)
}
