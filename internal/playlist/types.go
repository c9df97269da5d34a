// Package playlist maintains the authoritative local view of one room's
// queue and drives the WebSocket/polling synchronization loops, firing a
// single callback whenever the currently-singing entry changes.
package playlist

// EmptyListHash is the sentinel sent as lastHash when no hash has been
// observed yet.
const EmptyListHash = "EMPTY_LIST_HASH"

// Song is one queue entry as returned by the room server.
type Song struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	URL     string `json:"url"`
	AddedBy string `json:"addedBy,omitempty"`
}

// State is the local cached view of {queued[], singing, hash}.
type State struct {
	Queued  []Song
	Singing *Song
	Hash    string
}

// fetchResponse mirrors the songListInfo endpoint's JSON shape.
type fetchResponse struct {
	Changed bool   `json:"changed"`
	Hash    string `json:"hash"`
	List    struct {
		Queued  []Song `json:"queued"`
		Singing *Song  `json:"singing"`
		Sung    []Song `json:"sung"`
	} `json:"list"`
}

// nextSongRequest is the nextSong POST body.
type nextSongRequest struct {
	IDArrayHash string `json:"idArrayHash"`
}

// nextSongResponse is the nextSong POST response.
type nextSongResponse struct {
	Success bool `json:"success"`
}

// wsUpdateMessage is the only server->client WS message type handled.
type wsUpdateMessage struct {
	Type string `json:"type"`
	Hash string `json:"hash"`
}

// SyncMode selects the PlaylistManager's sync loop.
type SyncMode string

const (
	SyncModeWS      SyncMode = "WS"
	SyncModePolling SyncMode = "POLLING"
)

// OnSingingChanged is fired at most once per distinct transition of the
// singing key. Must be treated as fire-and-forget by the manager.
type OnSingingChanged func(key string, song Song)
