// Package proxy implements the MediaProxy: a local HTTP server that
// decodes an incoming GET path into a queue-entry key, asks a Resolver for
// the real upstream URL, and streams the upstream response back,
// opportunistically sniffing an MP4 moov/mvhd box to populate the
// DurationCache.
package proxy

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/StarFreedomX/ktv-casting-go/internal/loglevel"
	"github.com/StarFreedomX/ktv-casting-go/internal/queuekey"
)

// hopByHopHeaders are stripped from the upstream response before it is
// mirrored to the renderer.
var hopByHopHeaders = []string{"Connection", "Content-Encoding", "Transfer-Encoding"}

// moovSniffLimit bounds how many upstream bytes the proxy will buffer
// looking for a moov atom before giving up; files whose moov sits further
// into the stream are never found, an accepted limitation.
const moovSniffLimit = 8 << 20 // 8 MiB

// Resolver resolves an opaque queue-entry key into an upstream URL and the
// headers required to fetch it. An external collaborator, mocked in
// tests.
type Resolver interface {
	Resolve(ctx context.Context, bvid, page string, hasPage bool) (upstreamURL string, headers map[string]string, err error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, bvid, page string, hasPage bool) (string, map[string]string, error)

func (f ResolverFunc) Resolve(ctx context.Context, bvid, page string, hasPage bool) (string, map[string]string, error) {
	return f(ctx, bvid, page, hasPage)
}

const (
	desktopUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	hostingReferer   = "https://www.bilibili.com/"
	resolverTimeout  = 10 * time.Second
)

// Proxy is the MediaProxy HTTP handler.
type Proxy struct {
	resolver  Resolver
	durations *DurationCache

	mu         sync.Mutex
	sniffedFor map[string]bool
}

// New creates a Proxy backed by resolver, writing discovered durations
// into durations.
func New(resolver Resolver, durations *DurationCache) *Proxy {
	return &Proxy{
		resolver:   resolver,
		durations:  durations,
		sniffedFor: make(map[string]bool),
	}
}

func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	key := strings.TrimPrefix(r.URL.Path, "/")
	bvid, page, hasPage := queuekey.Split(key)

	resolveCtx, cancel := context.WithTimeout(r.Context(), resolverTimeout)
	upstreamURL, headers, err := p.resolver.Resolve(resolveCtx, bvid, page, hasPage)
	cancel()
	if err != nil {
		loglevel.Warnf("[proxy] resolve failed for %s: %v", key, err)
		http.Error(w, "resolver failed", http.StatusBadGateway)
		return
	}

	upstreamReq, err := http.NewRequestWithContext(r.Context(), http.MethodGet, upstreamURL, nil)
	if err != nil {
		http.Error(w, "bad upstream url", http.StatusBadGateway)
		return
	}
	for name, value := range headers {
		upstreamReq.Header.Set(name, value)
	}
	upstreamReq.Header.Set("User-Agent", desktopUserAgent)
	if upstreamReq.Header.Get("Referer") == "" {
		upstreamReq.Header.Set("Referer", hostingReferer)
	}

	isRange := r.Header.Get("Range") != ""
	if isRange {
		upstreamReq.Header.Set("Range", r.Header.Get("Range"))
	}

	// Streaming: no client-side timeout, relies on the request context.
	client := &http.Client{}
	upstreamResp, err := client.Do(upstreamReq)
	if err != nil {
		loglevel.Warnf("[proxy] upstream request failed for %s: %v", key, err)
		http.Error(w, "upstream unreachable", http.StatusBadGateway)
		return
	}
	defer upstreamResp.Body.Close()

	copyHeaders(w.Header(), upstreamResp.Header)
	w.WriteHeader(upstreamResp.StatusCode)

	if !isRange && !p.alreadySniffed(key) {
		p.streamAndSniff(key, w, upstreamResp.Body)
		return
	}

	if _, err := io.Copy(w, upstreamResp.Body); err != nil {
		loglevel.Warnf("[proxy] streaming body failed for %s: %v", key, err)
	}
}

func copyHeaders(dst, src http.Header) {
	for name, values := range src {
		skip := false
		for _, hop := range hopByHopHeaders {
			if strings.EqualFold(name, hop) {
				skip = true
				break
			}
		}
		if skip {
			continue
		}
		for _, v := range values {
			dst.Add(name, v)
		}
	}
}

func (p *Proxy) alreadySniffed(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sniffedFor[key]
}

func (p *Proxy) markSniffed(key string) {
	p.mu.Lock()
	p.sniffedFor[key] = true
	p.mu.Unlock()
}

// streamAndSniff mirrors body to w while also capturing up to
// moovSniffLimit bytes into a buffer, then parses that buffer for a
// moov/mvhd box once streaming completes.
func (p *Proxy) streamAndSniff(key string, w http.ResponseWriter, body io.Reader) {
	var captured bytes.Buffer
	tee := io.TeeReader(io.LimitReader(body, moovSniffLimit), &captured)

	if _, err := io.Copy(w, tee); err != nil {
		loglevel.Warnf("[proxy] streaming+sniffing body failed for %s: %v", key, err)
		return
	}
	// Any remainder beyond moovSniffLimit still needs to reach the client.
	if _, err := io.Copy(w, body); err != nil {
		loglevel.Warnf("[proxy] streaming remainder failed for %s: %v", key, err)
	}

	p.markSniffed(key)
	if p.durations == nil {
		return
	}
	if _, ok := p.durations.Get(key); ok {
		return
	}
	duration, err := DurationFromMP4(bytes.NewReader(captured.Bytes()))
	if err != nil {
		return
	}
	p.durations.Set(key, duration)
}
