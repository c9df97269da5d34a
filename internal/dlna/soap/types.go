package soap

// Well-known UPnP service type URNs used by the casting engine. A renderer
// discovered on the LAN supplies its own control URL for each of these;
// the URN itself is standard across vendors.
const (
	ServiceTypeAVTransport      = "urn:schemas-upnp-org:service:AVTransport:1"
	ServiceTypeRenderingControl = "urn:schemas-upnp-org:service:RenderingControl:1"
)

// TransportState is the renderer's playback state as returned by
// GetTransportInfo.
type TransportState string

const (
	TransportStateStopped        TransportState = "STOPPED"
	TransportStatePlaying        TransportState = "PLAYING"
	TransportStatePausedPlayback TransportState = "PAUSED_PLAYBACK"
	TransportStateTransitioning  TransportState = "TRANSITIONING"
	TransportStateNoMediaPresent TransportState = "NO_MEDIA_PRESENT"
)

// TransportInfo mirrors a GetTransportInfo response.
type TransportInfo struct {
	CurrentTransportState  TransportState
	CurrentTransportStatus string
	CurrentSpeed           string
}

// PositionInfo mirrors a GetPositionInfo response. CurrentSeconds and
// TotalSeconds are derived from RelTime/TrackDuration by parsePositionInfo.
type PositionInfo struct {
	Track          int
	TrackDuration  string
	TrackURI       string
	RelTime        string
	AbsTime        string
	CurrentSeconds int
	TotalSeconds   int
}

// VolumeInfo mirrors a GetVolume response.
type VolumeInfo struct {
	CurrentVolume int
}
