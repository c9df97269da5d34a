package proxy

import (
	"encoding/binary"
	"errors"
	"io"
)

// errNoMvhd is returned when a moov atom is parsed but no mvhd box is
// found inside it.
var errNoMvhd = errors.New("proxy: no mvhd box found in moov atom")

// DurationFromMP4 scans r (expected to be the head of an MP4/MOV file, or
// enough of it to cover the moov atom) for a moov/mvhd box and returns the
// track duration in whole seconds, computed as duration/timescale. No
// library in this module's dependency set parses MP4 box structure, so
// this walks the ISO BMFF box layout directly: each box is a 4-byte
// big-endian size followed by a 4-byte type, recursing into container
// boxes (here, only "moov") and skipping the payload of anything else.
func DurationFromMP4(r io.Reader) (int, error) {
	return scanForMvhd(r, -1)
}

// scanForMvhd walks sibling boxes until it finds "moov" (recursing into
// it) or "mvhd" directly, up to limit bytes (-1 for unbounded, governed by
// r's own EOF).
func scanForMvhd(r io.Reader, limit int64) (int, error) {
	var header [8]byte
	var consumed int64

	for limit < 0 || consumed < limit {
		n, err := io.ReadFull(r, header[:])
		consumed += int64(n)
		if err != nil {
			return 0, errNoMvhd
		}

		boxSize := int64(binary.BigEndian.Uint32(header[0:4]))
		boxType := string(header[4:8])

		if boxSize < 8 {
			// 0 means "rest of file"; 1 means a 64-bit size follows, which
			// this opportunistic parser doesn't need to support since the
			// moov/mvhd boxes it cares about are always small.
			return 0, errNoMvhd
		}
		payloadSize := boxSize - 8

		switch boxType {
		case "moov":
			return scanForMvhd(io.LimitReader(r, payloadSize), payloadSize)
		case "mvhd":
			duration, err := parseMvhdPayload(io.LimitReader(r, payloadSize))
			if err != nil {
				return 0, err
			}
			return duration, nil
		default:
			if _, err := io.CopyN(io.Discard, r, payloadSize); err != nil {
				return 0, errNoMvhd
			}
			consumed += payloadSize
		}
	}
	return 0, errNoMvhd
}

// parseMvhdPayload reads an mvhd box body (after the 8-byte box header)
// and returns duration/timescale in whole seconds. Versions 0 and 1 differ
// in field widths; both are handled.
func parseMvhdPayload(r io.Reader) (int, error) {
	var versionAndFlags [4]byte
	if _, err := io.ReadFull(r, versionAndFlags[:]); err != nil {
		return 0, errNoMvhd
	}
	version := versionAndFlags[0]

	var timescale, duration uint64
	if version == 1 {
		buf := make([]byte, 8+8+4+8)
		if _, err := io.ReadFull(r, buf); err != nil {
			return 0, errNoMvhd
		}
		timescale = uint64(binary.BigEndian.Uint32(buf[16:20]))
		duration = binary.BigEndian.Uint64(buf[20:28])
	} else {
		buf := make([]byte, 4+4+4+4)
		if _, err := io.ReadFull(r, buf); err != nil {
			return 0, errNoMvhd
		}
		timescale = uint64(binary.BigEndian.Uint32(buf[8:12]))
		duration = uint64(binary.BigEndian.Uint32(buf[12:16]))
	}

	if timescale == 0 {
		return 0, errNoMvhd
	}
	return int(duration / timescale), nil
}
