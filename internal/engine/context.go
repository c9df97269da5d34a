// Package engine owns the process-wide casting engine: one bound
// renderer, one playlist manager, one media proxy, one status poller.
// There is exactly one engine per running process, published behind a
// reader-writer lock so every FFI-style entry point in internal/ffi reads
// a consistent snapshot without ever seeing a half-constructed context.
package engine

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/StarFreedomX/ktv-casting-go/internal/apperrors"
	"github.com/StarFreedomX/ktv-casting-go/internal/dlna/discovery"
	"github.com/StarFreedomX/ktv-casting-go/internal/dlna/soap"
	"github.com/StarFreedomX/ktv-casting-go/internal/loglevel"
	"github.com/StarFreedomX/ktv-casting-go/internal/netutil"
	"github.com/StarFreedomX/ktv-casting-go/internal/playlist"
	"github.com/StarFreedomX/ktv-casting-go/internal/proxy"
	"github.com/StarFreedomX/ktv-casting-go/internal/retry"
)

const (
	resetSettleDelay    = 300 * time.Millisecond
	statusPollInterval  = 1 * time.Second
	autoAdvanceCooldown = 5 * time.Second
	soapTimeout         = 5 * time.Second
)

// Context binds one renderer, one room, and the goroutines that drive
// them for the lifetime of a single cast session.
type Context struct {
	device    *discovery.Device
	soap      *soap.Client
	playlist  *playlist.Manager
	proxy     *proxy.Proxy
	proxySrv  *http.Server
	durations *proxy.DurationCache

	localIP    net.IP
	serverPort int

	isPlaying atomic.Bool

	songTitle atomic.Value // string

	cancel context.CancelFunc
}

var (
	cellMu sync.RWMutex
	cell   *Context

	// startMu serializes the whole Start sequence, rejecting two
	// near-simultaneous start calls outright rather than relying on
	// SO_REUSEADDR timing: only one Start can be mid-flight (resetting the
	// old context, binding the new proxy port, publishing the new cell) at
	// a time.
	startMu sync.Mutex
)

// Resolver is supplied by the caller of Start; cmd/ktv-cast passes a
// resolverclient.Client.
type Resolver = proxy.Resolver

// Options configures Start.
type Options struct {
	RoomBaseURL    string
	RoomID         string
	Nickname       string
	DeviceLocation string
	ProxyPort      int
	SyncMode       playlist.SyncMode
	Resolver       proxy.Resolver
}

// Start binds a new Context to the given device, tearing down any
// previous one first. Mirrors the lifecycle in the EngineContext section:
// Uninit/Running → (start) → Running, with a brief Resetting substate when
// replacing an existing context.
func Start(ctx context.Context, opts Options) error {
	if !startMu.TryLock() {
		return apperrors.NewInternalError("engine.Start: another start is already in progress")
	}
	defer startMu.Unlock()

	Reset()
	time.Sleep(resetSettleDelay)

	device, err := discovery.ResolveDevice(ctx, opts.DeviceLocation)
	if err != nil {
		return err
	}

	targetIP, err := deviceHostIP(device.Location)
	if err != nil {
		return err
	}
	localIP, err := netutil.BestLocalIP(targetIP)
	if err != nil {
		return err
	}

	durations := proxy.NewDurationCache()
	if opts.Resolver == nil {
		return apperrors.NewInternalError("engine.Start: resolver must not be nil")
	}
	mediaProxy := proxy.New(opts.Resolver, durations)

	listener, err := net.Listen("tcp", fmt.Sprintf("0.0.0.0:%d", opts.ProxyPort))
	if err != nil {
		return apperrors.NewInternalError("engine.Start: bind proxy port: " + err.Error())
	}
	proxySrv := &http.Server{Handler: mediaProxy}
	go func() {
		if err := proxySrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			loglevel.Errorf("[engine] proxy server exited: %v", err)
		}
	}()

	soapClient := soap.NewClient(soapTimeout)

	runCtx, cancel := context.WithCancel(context.Background())

	ec := &Context{
		device:     device,
		soap:       soapClient,
		proxy:      mediaProxy,
		proxySrv:   proxySrv,
		durations:  durations,
		localIP:    localIP,
		serverPort: opts.ProxyPort,
		cancel:     cancel,
	}
	if info, err := soapClient.GetTransportInfo(ctx, device.Target); err == nil {
		ec.isPlaying.Store(info.CurrentTransportState == soap.TransportStatePlaying)
	}

	mgr := playlist.New(playlist.Options{
		BaseURL:  opts.RoomBaseURL,
		RoomID:   opts.RoomID,
		Nickname: opts.Nickname,
		Mode:     opts.SyncMode,
	})
	mgr.SetOnSingingChanged(func(key string, song playlist.Song) {
		ec.onSingingChanged(runCtx, key, song)
	})
	ec.playlist = mgr

	go mgr.Run(runCtx)
	go runStatusPoller(runCtx, ec)

	cellMu.Lock()
	cell = ec
	cellMu.Unlock()

	return nil
}

// onSingingChanged implements the on-change pipeline: stop → setURI(proxyURL)
// → play, each step under the retry wrapper. The playlist manager calls it
// synchronously on the goroutine that observed the transition (its sync
// loop, or a NextSong caller), so transitions seen by the sync loop are
// handled one at a time.
func (ec *Context) onSingingChanged(ctx context.Context, key string, song playlist.Song) {
	ec.songTitle.Store(song.Title)

	proxyURL := fmt.Sprintf("http://%s:%d/%s", ec.localIP.String(), ec.serverPort, key)

	_, err := retry.Forever(ctx, "stop", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, ec.soap.Stop(ctx, ec.device.Target)
	})
	if err != nil {
		loglevel.Warnf("[engine] stop failed for %s: %v", key, err)
	}

	_, err = retry.Forever(ctx, "setAVTransportURI", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, ec.soap.SetAVTransportURI(ctx, ec.device.Target, proxyURL, "")
	})
	if err != nil {
		loglevel.Warnf("[engine] setAVTransportURI failed for %s: %v", key, err)
		return
	}

	_, err = retry.Forever(ctx, "play", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, ec.soap.Play(ctx, ec.device.Target)
	})
	if err != nil {
		loglevel.Warnf("[engine] play failed for %s: %v", key, err)
		return
	}
	ec.isPlaying.Store(true)
}

// Reset tears down the current context, if any. Safe to call when no
// context is bound.
func Reset() {
	cellMu.Lock()
	ec := cell
	cell = nil
	cellMu.Unlock()

	if ec == nil {
		return
	}
	ec.cancel()
	if ec.proxySrv != nil {
		_ = ec.proxySrv.Close()
	}
}

func deviceHostIP(location string) (net.IP, error) {
	parsed, err := url.Parse(location)
	if err != nil || parsed.Hostname() == "" {
		return nil, apperrors.NewParseFailedError("device location host", fmt.Errorf("invalid location %q", location))
	}
	ips, err := net.LookupIP(parsed.Hostname())
	if err != nil || len(ips) == 0 {
		return nil, apperrors.NewDeviceUnreachableError("resolving device host", err)
	}
	for _, ip := range ips {
		if v4 := ip.To4(); v4 != nil {
			return v4, nil
		}
	}
	return nil, apperrors.NewDeviceUnreachableError("device has no IPv4 address", nil)
}
