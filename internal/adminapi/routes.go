// Package adminapi exposes the small chi-routed HTTP surface used to
// observe the casting engine from outside the CLI: health
// check, discovered-device listing, and a read-only engine-state
// snapshot.
package adminapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/StarFreedomX/ktv-casting-go/internal/apperrors"
	"github.com/StarFreedomX/ktv-casting-go/internal/dlna/discovery"
	"github.com/StarFreedomX/ktv-casting-go/internal/engine"
	"github.com/StarFreedomX/ktv-casting-go/internal/loglevel"
)

// deviceSummary is the JSON shape of one discovered renderer.
type deviceSummary struct {
	FriendlyName string `json:"friendlyName"`
	Location     string `json:"location"`
}

// engineStateResponse is the JSON shape of GET /api/engine/state.
type engineStateResponse struct {
	Initialized      bool   `json:"initialized"`
	CurrentSongTitle string `json:"currentSongTitle"`
	IsPlaying        bool   `json:"isPlaying"`
	PositionSeconds  int    `json:"positionSeconds"`
	TotalSeconds     int    `json:"totalSeconds"`
}

const discoveryRequestTimeout = 5 * time.Second

// engineHandler adapts a handler that can fail to read engine/discovery
// state into an http.Handler, routing the error through WriteError with
// the request's tracking ID attached.
type engineHandler func(w http.ResponseWriter, r *http.Request) error

func (h engineHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h(w, r); err != nil {
		loglevel.Warnf("[adminapi] %s %s (request %s) failed: %v", r.Method, r.URL.Path, requestIDFrom(r), err)
		WriteError(w, r, err)
	}
}

type contextKey string

const requestIDKey contextKey = "requestID"

// stampRequestID reuses an inbound x-request-id header if present,
// otherwise mints one, and echoes it back so the CLI's admin-surface
// caller and the engine's own logs can be correlated by a single ID.
func stampRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("x-request-id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		w.Header().Set("x-request-id", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestIDFrom returns the ID stamped by stampRequestID, or "" if the
// middleware was bypassed (e.g. a handler invoked directly from a test).
func requestIDFrom(r *http.Request) string {
	if r == nil {
		return ""
	}
	if value := r.Context().Value(requestIDKey); value != nil {
		if requestID, ok := value.(string); ok {
			return requestID
		}
	}
	return ""
}

// recoverEngineHandler turns a panic anywhere below it, most likely a nil
// device or a torn-down engine context read mid-Reset, into a 500 instead
// of taking down the whole admin listener, tagging the log line with the
// request ID so it can be matched against the engine's own goroutine logs.
func recoverEngineHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if recovered := recover(); recovered != nil {
				loglevel.Errorf("[adminapi] panic handling %s %s (request %s): %v", r.Method, r.URL.Path, requestIDFrom(r), recovered)
				WriteError(w, r, apperrors.NewInternalError("internal server error"))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// NewRouter builds the admin chi router. discoveryCache supplies the
// device listing for /api/devices.
func NewRouter(discoveryCache *discovery.Cache) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(stampRequestID)
	router.Use(recoverEngineHandler)

	router.Get("/healthz", healthHandler)
	router.Method(http.MethodGet, "/api/devices", engineHandler(devicesHandler(discoveryCache)))
	router.Method(http.MethodGet, "/api/engine/state", engineHandler(engineStateHandler))

	return router
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	_ = WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func devicesHandler(discoveryCache *discovery.Cache) func(w http.ResponseWriter, r *http.Request) error {
	return func(w http.ResponseWriter, r *http.Request) error {
		ctx, cancel := context.WithTimeout(r.Context(), discoveryRequestTimeout)
		defer cancel()

		devices, err := discoveryCache.Devices(ctx)
		if err != nil {
			return err
		}
		summaries := make([]deviceSummary, 0, len(devices))
		for _, d := range devices {
			summaries = append(summaries, deviceSummary{FriendlyName: d.FriendlyName, Location: d.Location})
		}
		return WriteJSON(w, http.StatusOK, summaries)
	}
}

func engineStateHandler(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	title := engine.GetCurrentSongTitle()
	resp := engineStateResponse{
		Initialized:      engine.IsInitialized(),
		CurrentSongTitle: title,
		IsPlaying:        engine.IsPlaying(),
		PositionSeconds:  engine.QueryProgress(ctx),
		TotalSeconds:     engine.QueryTotalDuration(),
	}
	return WriteJSON(w, http.StatusOK, resp)
}
