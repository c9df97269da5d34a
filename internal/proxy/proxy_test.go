package proxy

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResolver struct {
	upstreamURL string
	headers     map[string]string
	err         error
}

func (s stubResolver) Resolve(ctx context.Context, bvid, page string, hasPage bool) (string, map[string]string, error) {
	return s.upstreamURL, s.headers, s.err
}

// TestProxy_ForwardsRangeAndStripsHopByHopHeaders exercises a renderer
// issuing a ranged GET against the proxy, with the upstream returning a
// partial-content response carrying a Set-Cookie header and a
// Transfer-Encoding header that must not reach the renderer.
func TestProxy_ForwardsRangeAndStripsHopByHopHeaders(t *testing.T) {
	var gotRange string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRange = r.Header.Get("Range")
		w.Header().Set("Set-Cookie", "session=abc")
		w.Header().Set("Transfer-Encoding", "chunked")
		w.Header().Set("Content-Range", "bytes 100-199/1000")
		w.WriteHeader(http.StatusPartialContent)
		_, _ = w.Write([]byte("partial-body"))
	}))
	defer upstream.Close()

	p := New(stubResolver{upstreamURL: upstream.URL}, NewDurationCache())
	front := httptest.NewServer(p)
	defer front.Close()

	req, err := http.NewRequest(http.MethodGet, front.URL+"/BVxyz", nil)
	require.NoError(t, err)
	req.Header.Set("Range", "bytes=100-199")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "bytes=100-199", gotRange)
	assert.Equal(t, http.StatusPartialContent, resp.StatusCode)
	assert.Equal(t, "session=abc", resp.Header.Get("Set-Cookie"))
	assert.Empty(t, resp.Header.Get("Transfer-Encoding"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "partial-body", string(body))
}

func TestProxy_ResolverErrorIsBadGateway(t *testing.T) {
	p := New(stubResolver{err: assertErr("boom")}, NewDurationCache())
	front := httptest.NewServer(p)
	defer front.Close()

	resp, err := http.Get(front.URL + "/BVxyz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestProxy_SniffsDurationOnNonRangeRequest(t *testing.T) {
	mvhd := buildMvhdV0(1000, 50000) // 50 seconds
	moov := buildBox("moov", mvhd)
	ftyp := buildBox("ftyp", []byte("isom"))

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(ftyp)
		w.Write(moov)
	}))
	defer upstream.Close()

	cache := NewDurationCache()
	p := New(stubResolver{upstreamURL: upstream.URL}, cache)
	front := httptest.NewServer(p)
	defer front.Close()

	resp, err := http.Get(front.URL + "/BVxyz")
	require.NoError(t, err)
	defer resp.Body.Close()
	_, _ = io.ReadAll(resp.Body)

	duration, ok := cache.Get("BVxyz")
	require.True(t, ok)
	assert.Equal(t, 50, duration)
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
