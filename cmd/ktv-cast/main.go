// Command ktv-cast is the interactive CLI front-end for the casting
// engine: it discovers renderers, prompts for a room URL and a device,
// then drives playback with a handful of single-key commands.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/StarFreedomX/ktv-casting-go/internal/adminapi"
	"github.com/StarFreedomX/ktv-casting-go/internal/config"
	"github.com/StarFreedomX/ktv-casting-go/internal/dlna/discovery"
	"github.com/StarFreedomX/ktv-casting-go/internal/engine"
	"github.com/StarFreedomX/ktv-casting-go/internal/ffi"
	"github.com/StarFreedomX/ktv-casting-go/internal/loglevel"
	"github.com/StarFreedomX/ktv-casting-go/internal/resolverclient"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	ffi.InitLogging(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reader := bufio.NewReader(os.Stdin)

	fmt.Print("Room URL (e.g. http://room-server:9000, room=myroom): ")
	roomInput, err := reader.ReadString('\n')
	if err != nil {
		log.Fatalf("reading room URL: %v", err)
	}
	baseURL, roomID, err := splitRoomInput(strings.TrimSpace(roomInput))
	if err != nil {
		log.Fatalf("invalid room URL: %v", err)
	}

	fmt.Println("Searching for cast devices...")
	devices := ffi.SearchDevices(ctx)
	if len(devices) == 0 {
		log.Fatalf("no cast devices found")
	}
	for i, d := range devices {
		fmt.Printf("  [%d] %s (%s)\n", i, d.FriendlyName, d.Location)
	}

	fmt.Print("Device index: ")
	indexInput, err := reader.ReadString('\n')
	if err != nil {
		log.Fatalf("reading device index: %v", err)
	}
	index, err := strconv.Atoi(strings.TrimSpace(indexInput))
	if err != nil || index < 0 || index >= len(devices) {
		log.Fatalf("invalid device index %q", strings.TrimSpace(indexInput))
	}
	chosen := devices[index]

	discoveryCache, err := discovery.NewCache(cfg.DiscoverySchedule, time.Duration(cfg.DiscoveryWindowMs)*time.Millisecond)
	if err != nil {
		log.Fatalf("discovery cache init error: %v", err)
	}
	discoveryCache.Start()
	defer discoveryCache.Stop()

	var adminSrv *http.Server
	if cfg.AdminEnabled {
		adminSrv = &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.AdminPort),
			Handler:           adminapi.NewRouter(discoveryCache),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := adminSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				loglevel.Errorf("admin server error: %v", err)
			}
		}()
	}

	resolverURL := os.Getenv("KTV_RESOLVER_URL")
	if resolverURL == "" {
		log.Fatalf("KTV_RESOLVER_URL must be set to a resolver service endpoint")
	}
	resolver := resolverclient.New(resolverURL)

	if err := engine.Start(ctx, engine.Options{
		RoomBaseURL:    baseURL,
		RoomID:         roomID,
		Nickname:       cfg.Nickname,
		DeviceLocation: chosen.Location,
		ProxyPort:      cfg.ProxyPort,
		SyncMode:       cfg.SyncMode,
		Resolver:       resolver,
	}); err != nil {
		log.Fatalf("engine start error: %v", err)
	}

	fmt.Println("Casting started. Keys: p=toggle pause, n=next song, Ctrl+C=exit.")

	keyCh := make(chan rune)
	go readKeys(keyCh)

	for {
		select {
		case <-ctx.Done():
			shutdown(adminSrv)
			return
		case key, ok := <-keyCh:
			if !ok {
				shutdown(adminSrv)
				return
			}
			handleKey(ctx, key)
		}
	}
}

func handleKey(ctx context.Context, key rune) {
	switch key {
	case 'p':
		result := ffi.TogglePause(ctx)
		switch result {
		case 1:
			fmt.Println("playing")
		case 0:
			fmt.Println("paused")
		default:
			fmt.Println("toggle pause failed")
		}
	case 'n':
		ffi.NextSong(ctx)
		fmt.Println("skipped")
	}
}

// readKeys blocks on stdin one line at a time (the dedicated-OS-thread
// equivalent named in the concurrency model) and forwards the first rune
// of each line to keyCh, closing it on EOF.
func readKeys(keyCh chan<- rune) {
	defer close(keyCh)
	reader := bufio.NewReader(os.Stdin)
	for {
		line, err := reader.ReadString('\n')
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			keyCh <- rune(trimmed[0])
		}
		if err != nil {
			return
		}
	}
}

func shutdown(adminSrv *http.Server) {
	engine.Reset()
	if adminSrv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = adminSrv.Shutdown(ctx)
}

// splitRoomInput parses "<baseURL>, room=<id>" or "<baseURL> <id>" shaped
// input into its two parts.
func splitRoomInput(input string) (baseURL, roomID string, err error) {
	parts := strings.FieldsFunc(input, func(r rune) bool { return r == ',' || r == ' ' })
	if len(parts) < 2 {
		return "", "", fmt.Errorf("expected a base URL and a room id")
	}
	baseURL = parts[0]
	roomID = strings.TrimPrefix(parts[len(parts)-1], "room=")
	return baseURL, roomID, nil
}
