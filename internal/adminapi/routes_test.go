package adminapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StarFreedomX/ktv-casting-go/internal/dlna/discovery"
	"github.com/StarFreedomX/ktv-casting-go/internal/engine"
)

func TestHealthz_ReturnsOK(t *testing.T) {
	router := NewRouter(mustCache(t))
	server := httptest.NewServer(router)
	defer server.Close()

	resp, err := http.Get(server.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestEngineState_UninitializedReportsSentinels(t *testing.T) {
	engine.Reset()

	router := NewRouter(mustCache(t))
	server := httptest.NewServer(router)
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/engine/state")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, false, body["initialized"])
	assert.Equal(t, float64(-1), body["positionSeconds"])
	assert.Equal(t, float64(0), body["totalSeconds"])
}

func mustCache(t *testing.T) *discovery.Cache {
	t.Helper()
	cache, err := discovery.NewCache("@every 1h", discovery.DefaultWindow)
	require.NoError(t, err)
	return cache
}
