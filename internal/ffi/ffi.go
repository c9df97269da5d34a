// Package ffi is the plain-Go mirror of the mobile-shell foreign-function
// surface: the same function signatures a future cgo/gomobile binding
// would export, minus the export annotations themselves, which are a
// platform-packaging concern outside this module.
package ffi

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/StarFreedomX/ktv-casting-go/internal/dlna/discovery"
	"github.com/StarFreedomX/ktv-casting-go/internal/engine"
	"github.com/StarFreedomX/ktv-casting-go/internal/loglevel"
	"github.com/StarFreedomX/ktv-casting-go/internal/playlist"
	"github.com/StarFreedomX/ktv-casting-go/internal/proxy"
)

var logInitialized bool

// InitLogging sets the process-wide log verbosity (0=error,1=warn,2=info,
// 3=debug), gating every component logger through internal/loglevel.
// Idempotent and safe to call more than once, one of the two recoverable
// panic sites named in the error handling design (the other being start's
// one-shot publish, which Go's mutex-guarded cell makes unnecessary to
// guard against here).
func InitLogging(level int) {
	loglevel.SetLevel(level)
	if logInitialized {
		return
	}
	logInitialized = true
	log.SetOutput(os.Stderr)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
}

// DeviceSummary is one entry in SearchDevices' result.
type DeviceSummary struct {
	FriendlyName string
	Location     string
}

// SearchDevices runs a bounded SSDP discovery window and returns the
// resolved renderers. An empty slice is a normal result.
func SearchDevices(ctx context.Context) []DeviceSummary {
	devices, err := discovery.Discover(ctx, discovery.DefaultWindow)
	if err != nil {
		loglevel.Warnf("[ffi] searchDevices failed: %v", err)
		return nil
	}
	out := make([]DeviceSummary, 0, len(devices))
	for _, d := range devices {
		out = append(out, DeviceSummary{FriendlyName: d.FriendlyName, Location: d.Location})
	}
	return out
}

// StartEngineParams bundles the arguments needed to bind a new engine
// context, beyond the three positional ones (a Resolver must also be
// supplied; there is no FFI-safe way to pass one across a real cgo
// boundary, so gomobile bindings would wire a fixed Resolver
// implementation here instead of accepting one).
type StartEngineParams struct {
	RoomID     string
	Nickname   string
	ProxyPort  int
	SyncMode   playlist.SyncMode
	Resolver   proxy.Resolver
}

// StartEngine binds baseURL/roomId/deviceLocation as the active engine
// context, tearing down any previous one.
func StartEngine(ctx context.Context, baseURL, roomID, deviceLocation string, params StartEngineParams) error {
	return engine.Start(ctx, engine.Options{
		RoomBaseURL:    baseURL,
		RoomID:         roomID,
		Nickname:       params.Nickname,
		DeviceLocation: deviceLocation,
		ProxyPort:      params.ProxyPort,
		SyncMode:       params.SyncMode,
		Resolver:       params.Resolver,
	})
}

// ResetEngine tears down the active engine context, if any.
func ResetEngine() {
	engine.Reset()
}

// QueryProgress returns the renderer's current position in seconds, or
// -1 if unavailable.
func QueryProgress(ctx context.Context) int {
	return engine.QueryProgress(ctx)
}

// QueryTotalDuration returns the cached total duration in seconds, or 0
// if unavailable.
func QueryTotalDuration() int {
	return engine.QueryTotalDuration()
}

// NextSong advances the bound playlist manager. Errors are logged, not
// returned, matching the FFI's "sentinel, never panic" contract for
// functions with no return value.
func NextSong(ctx context.Context) {
	if err := engine.NextSong(ctx); err != nil {
		loglevel.Warnf("[ffi] nextSong failed: %v", err)
	}
}

// TogglePause flips playback state, returning 1 (now playing), 0 (now
// paused), or -1 on error.
func TogglePause(ctx context.Context) int {
	return engine.TogglePause(ctx)
}

// SetVolume sets the renderer's master volume, clamped to [0,100],
// returning the clamped level or -1 on error.
func SetVolume(ctx context.Context, level int) int {
	return engine.SetVolume(ctx, level)
}

// GetVolume returns the renderer's master volume, or -1 on error.
func GetVolume(ctx context.Context) int {
	return engine.GetVolume(ctx)
}

// defaultFFITimeout bounds any FFI call the caller doesn't attach its own
// context to (a gomobile binding typically can't construct a Go context).
const defaultFFITimeout = 10 * time.Second

// WithDefaultTimeout is a convenience for callers with no context of
// their own, mirroring what a gomobile shell would do at the boundary.
func WithDefaultTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), defaultFFITimeout)
}
