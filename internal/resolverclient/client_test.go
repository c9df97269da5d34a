package resolverclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_ParsesURLAndHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "BV123", r.URL.Query().Get("bvid"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"url":"https://upstream/stream","headers":{"Cookie":"x"}}`))
	}))
	defer server.Close()

	client := New(server.URL)
	url, headers, err := client.Resolve(context.Background(), "BV123", "2", true)
	require.NoError(t, err)
	assert.Equal(t, "https://upstream/stream", url)
	assert.Equal(t, "x", headers["Cookie"])
}

func TestResolve_ErrorStatusIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := New(server.URL)
	_, _, err := client.Resolve(context.Background(), "BV123", "", false)
	require.Error(t, err)
}
