package playlist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/StarFreedomX/ktv-casting-go/internal/apperrors"
	"github.com/StarFreedomX/ktv-casting-go/internal/loglevel"
	"github.com/StarFreedomX/ktv-casting-go/internal/queuekey"
	"github.com/StarFreedomX/ktv-casting-go/internal/retry"
)

const (
	pollInterval          = 300 * time.Millisecond
	wsReconnectDelay      = 3 * time.Second
	defaultHeartbeatEvery = 30 * time.Second
)

// Manager owns one room's playlist state and its sync loop.
type Manager struct {
	baseURL           string
	roomID            string
	nickname          string
	mode              SyncMode
	heartbeatInterval time.Duration

	httpClient *http.Client

	mu       sync.Mutex
	hash     string
	state    State
	onChange OnSingingChanged

	lastCallbackKey string
}

// Options configures a new Manager.
type Options struct {
	BaseURL           string
	RoomID            string
	Nickname          string
	Mode              SyncMode
	HeartbeatInterval time.Duration
}

// New creates a playlist manager for one room. The sync loop is not
// started until Run is called.
func New(opts Options) *Manager {
	mode := opts.Mode
	if mode == "" {
		mode = SyncModeWS
	}
	heartbeat := opts.HeartbeatInterval
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeatEvery
	}
	return &Manager{
		baseURL:           strings.TrimRight(opts.BaseURL, "/"),
		roomID:            opts.RoomID,
		nickname:          opts.Nickname,
		mode:              mode,
		heartbeatInterval: heartbeat,
		httpClient:        &http.Client{Timeout: 10 * time.Second},
		hash:              EmptyListHash,
	}
}

// SetOnSingingChanged installs the callback fired on a singing-key
// transition. Must be called before Run.
func (m *Manager) SetOnSingingChanged(cb OnSingingChanged) {
	m.mu.Lock()
	m.onChange = cb
	m.mu.Unlock()
}

// State returns a snapshot of the currently cached playlist state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// fetchPlaylist is the shared primitive behind both sync loops: it GETs
// songListInfo, and on a changed response atomically replaces the cached
// state, returning the (possibly new) singing key.
func (m *Manager) fetchPlaylist(ctx context.Context) (string, error) {
	m.mu.Lock()
	lastHash := m.hash
	m.mu.Unlock()

	reqURL := fmt.Sprintf("%s/api/songListInfo?roomId=%s&lastHash=%s",
		m.baseURL, url.QueryEscape(m.roomID), url.QueryEscape(lastHash))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", apperrors.NewParseFailedError("songListInfo request", err)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", apperrors.NewDeviceUnreachableError("songListInfo request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperrors.NewParseFailedError("songListInfo body", err)
	}

	var parsed fetchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", apperrors.NewParseFailedError("songListInfo JSON", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !parsed.Changed {
		return singingKeyOf(m.state.Singing), nil
	}

	m.state = State{
		Queued:  parsed.List.Queued,
		Singing: parsed.List.Singing,
		Hash:    parsed.Hash,
	}
	m.hash = parsed.Hash

	return singingKeyOf(m.state.Singing), nil
}

func singingKeyOf(song *Song) string {
	if song == nil {
		return ""
	}
	return queuekey.FromURL(song.URL)
}

// maybeFireCallback invokes onChange iff key is non-empty and differs from
// the last callback-observed key, so a song is cast at most once per
// distinct singing-key transition.
func (m *Manager) maybeFireCallback(key string) {
	if key == "" {
		return
	}
	m.mu.Lock()
	if key == m.lastCallbackKey {
		m.mu.Unlock()
		return
	}
	m.lastCallbackKey = key
	cb := m.onChange
	var song Song
	if m.state.Singing != nil {
		song = *m.state.Singing
	}
	m.mu.Unlock()

	if cb != nil {
		cb(key, song)
	}
}

// NextSong posts nextSong and, on success, performs one immediate
// fetchPlaylist to pick up the new singing entry.
func (m *Manager) NextSong(ctx context.Context) error {
	m.mu.Lock()
	hash := m.hash
	m.mu.Unlock()

	payload, err := json.Marshal(nextSongRequest{IDArrayHash: hash})
	if err != nil {
		return apperrors.NewParseFailedError("nextSong body", err)
	}

	reqURL := fmt.Sprintf("%s/api/nextSong?roomId=%s", m.baseURL, url.QueryEscape(m.roomID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		return apperrors.NewParseFailedError("nextSong request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return apperrors.NewDeviceUnreachableError("nextSong request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.NewParseFailedError("nextSong body", err)
	}

	var parsed nextSongResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return apperrors.NewParseFailedError("nextSong JSON", err)
	}
	if !parsed.Success {
		return apperrors.NewUpstreamRejectedError("room server rejected nextSong")
	}

	key, err := m.fetchPlaylist(ctx)
	if err != nil {
		return err
	}
	m.maybeFireCallback(key)
	return nil
}

// Run starts the configured sync loop and blocks until ctx is cancelled.
func (m *Manager) Run(ctx context.Context) {
	switch m.mode {
	case SyncModePolling:
		m.runPollingLoop(ctx)
	default:
		m.runWSLoop(ctx)
	}
}

func (m *Manager) runPollingLoop(ctx context.Context) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			key, err := m.fetchPlaylist(ctx)
			if err != nil {
				loglevel.Warnf("[playlist] poll fetchPlaylist failed: %v", err)
				continue
			}
			m.maybeFireCallback(key)
		}
	}
}

func (m *Manager) wsURL() string {
	rewritten := m.baseURL
	rewritten = strings.Replace(rewritten, "https://", "wss://", 1)
	rewritten = strings.Replace(rewritten, "http://", "ws://", 1)
	return fmt.Sprintf("%s/api/ws?roomId=%s&nickname=%s",
		rewritten, url.QueryEscape(m.roomID), url.QueryEscape(m.nickname))
}

func (m *Manager) runWSLoop(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if err := m.runWSSession(ctx); err != nil {
			loglevel.Warnf("[playlist] websocket session ended: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(wsReconnectDelay):
		}
	}
}

func (m *Manager) runWSSession(ctx context.Context) error {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, m.wsURL(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	key, err := m.fetchPlaylist(ctx)
	if err != nil {
		loglevel.Warnf("[playlist] eager fetchPlaylist failed: %v", err)
	} else {
		m.maybeFireCallback(key)
	}

	conn.SetPongHandler(func(string) error { return nil })

	frames := make(chan []byte, 1)
	errs := make(chan error, 1)
	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				errs <- err
				return
			}
			frames <- data
		}
	}()

	ticker := time.NewTicker(m.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errs:
			return err
		case frame := <-frames:
			m.handleFrame(ctx, conn, frame)
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
			if key, err := m.fetchPlaylist(ctx); err != nil {
				loglevel.Warnf("[playlist] heartbeat fetchPlaylist failed: %v", err)
			} else {
				m.maybeFireCallback(key)
			}
		}
	}
}

func (m *Manager) handleFrame(ctx context.Context, conn *websocket.Conn, frame []byte) {
	var update wsUpdateMessage
	if err := json.Unmarshal(frame, &update); err != nil {
		return
	}
	if update.Type != "UPDATE" {
		return
	}

	m.mu.Lock()
	unchanged := update.Hash == m.hash
	m.mu.Unlock()
	if unchanged {
		return
	}

	key, err := retry.Forever(ctx, "playlist.fetchPlaylist", func(ctx context.Context) (string, error) {
		return m.fetchPlaylist(ctx)
	})
	if err != nil {
		return
	}
	m.maybeFireCallback(key)
}
