// Package resolverclient provides the one concrete implementation of
// proxy.Resolver this module ships: an HTTP client against a
// caller-supplied resolver service that turns a bvid (and optional page)
// into a streamable upstream URL. The Resolver itself is documented as an
// external collaborator; this is the thin HTTP binding a real deployment
// plugs in, not a reimplementation of any particular video host's API.
package resolverclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/StarFreedomX/ktv-casting-go/internal/apperrors"
)

// Client resolves queue-entry keys against a configured resolver service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Client pointed at baseURL (e.g. "http://localhost:9100").
func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type resolveResponse struct {
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers"`
}

// Resolve implements proxy.Resolver.
func (c *Client) Resolve(ctx context.Context, bvid, page string, hasPage bool) (string, map[string]string, error) {
	query := url.Values{"bvid": {bvid}}
	if hasPage {
		query.Set("page", page)
	}
	endpoint := fmt.Sprintf("%s/resolve?%s", c.baseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", nil, apperrors.NewResolverFailedError("building resolver request", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", nil, apperrors.NewResolverFailedError("calling resolver service", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", nil, apperrors.NewResolverFailedError(fmt.Sprintf("resolver service returned status %d", resp.StatusCode), nil)
	}

	var decoded resolveResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", nil, apperrors.NewResolverFailedError("decoding resolver response", err)
	}
	if decoded.URL == "" {
		return "", nil, apperrors.NewResolverFailedError("resolver response missing url", nil)
	}
	return decoded.URL, decoded.Headers, nil
}
