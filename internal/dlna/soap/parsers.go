package soap

import (
	"bytes"
	"encoding/xml"
	"strconv"
	"strings"
)

func parseTextValue(payload []byte, element string) string {
	decoder := xml.NewDecoder(bytes.NewReader(payload))
	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if se.Name.Local == element {
			var value string
			if err := decoder.DecodeElement(&value, &se); err == nil {
				return strings.TrimSpace(value)
			}
		}
	}
	return ""
}

func parseTransportInfo(payload []byte) TransportInfo {
	return TransportInfo{
		CurrentTransportState:  TransportState(parseTextValue(payload, "CurrentTransportState")),
		CurrentTransportStatus: parseTextValue(payload, "CurrentTransportStatus"),
		CurrentSpeed:           parseTextValue(payload, "CurrentSpeed"),
	}
}

func parsePositionInfo(payload []byte) PositionInfo {
	trackStr := parseTextValue(payload, "Track")
	track, _ := strconv.Atoi(trackStr)
	relTime := parseTextValue(payload, "RelTime")
	duration := parseTextValue(payload, "TrackDuration")

	return PositionInfo{
		Track:          track,
		TrackDuration:  duration,
		TrackURI:       parseTextValue(payload, "TrackURI"),
		RelTime:        relTime,
		AbsTime:        parseTextValue(payload, "AbsTime"),
		CurrentSeconds: ParseHMS(relTime),
		TotalSeconds:   ParseHMS(duration),
	}
}

func parseVolume(payload []byte) VolumeInfo {
	vol, _ := strconv.Atoi(parseTextValue(payload, "CurrentVolume"))
	return VolumeInfo{CurrentVolume: vol}
}

// ParseHMS parses a UPnP "HH:MM:SS[.fraction]" duration/position string
// into whole seconds. A leading "00:00:00" or the literal "NOT_IMPLEMENTED"
// (some renderers report this instead of a real duration) both map to 0,
// and any other malformed value also maps to 0 rather than erroring, since
// callers treat an absent/invalid duration as "unknown" rather than fatal.
func ParseHMS(value string) int {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "NOT_IMPLEMENTED") {
		return 0
	}
	if idx := strings.IndexByte(value, '.'); idx >= 0 {
		value = value[:idx]
	}
	parts := strings.Split(value, ":")
	if len(parts) != 3 {
		return 0
	}
	hours, err1 := strconv.Atoi(parts[0])
	minutes, err2 := strconv.Atoi(parts[1])
	seconds, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return 0
	}
	return hours*3600 + minutes*60 + seconds
}

// FormatHMS formats a whole-second duration as "HH:MM:SS" for use as a
// Seek Target.
func FormatHMS(totalSeconds int) string {
	if totalSeconds < 0 {
		totalSeconds = 0
	}
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60
	return pad2(hours) + ":" + pad2(minutes) + ":" + pad2(seconds)
}

func pad2(v int) string {
	if v < 10 {
		return "0" + strconv.Itoa(v)
	}
	return strconv.Itoa(v)
}
