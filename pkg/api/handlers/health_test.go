package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthHandler_Health(t *testing.T) {
	h := NewHealthHandler(StatusInfo{}, nil, nil)
	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHealthHandler_Ready(t *testing.T) {
	tests := []struct {
		name  string
		check ReadyCheck
		want  int
	}{
		{"no check", nil, http.StatusOK},
		{"healthy", func(context.Context) error { return nil }, http.StatusOK},
		{"store down", func(context.Context) error { return errors.New("badger closed") }, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(StatusInfo{}, tt.check, nil)
			rec := httptest.NewRecorder()
			h.Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

			assert.Equal(t, tt.want, rec.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.want == http.StatusOK, body["ready"])
		})
	}
}

func TestHealthHandler_Status(t *testing.T) {
	ws := NewWebSocketHandler(nil, WebSocketConfig{}, nil)
	defer ws.Close()
	h := NewHealthHandler(StatusInfo{Storage: "badger", Cache: "redis", Generator: "anthropic"}, nil, ws)

	rec := httptest.NewRecorder()
	h.Status(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "badger", body["storage"])
	assert.Equal(t, "redis", body["cache"])
	assert.Equal(t, "anthropic", body["generator"])
	assert.EqualValues(t, 0, body["websocketClients"])
	assert.Contains(t, body["version"], "version")
	assert.NotEmpty(t, body["uptime"])
}
