package proxy

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildBox(boxType string, payload []byte) []byte {
	size := make([]byte, 4)
	binary.BigEndian.PutUint32(size, uint32(8+len(payload)))
	var buf bytes.Buffer
	buf.Write(size)
	buf.WriteString(boxType)
	buf.Write(payload)
	return buf.Bytes()
}

func buildMvhdV0(timescale, duration uint32) []byte {
	payload := make([]byte, 4+4+4+4+4)
	// versionAndFlags left zero (version 0)
	binary.BigEndian.PutUint32(payload[4:8], 0)  // creation time
	binary.BigEndian.PutUint32(payload[8:12], 0) // modification time
	binary.BigEndian.PutUint32(payload[12:16], timescale)
	binary.BigEndian.PutUint32(payload[16:20], duration)
	return buildBox("mvhd", payload)
}

func TestDurationFromMP4_FindsMvhdInsideMoov(t *testing.T) {
	mvhd := buildMvhdV0(1000, 203000) // 203 seconds
	moov := buildBox("moov", mvhd)

	ftyp := buildBox("ftyp", []byte("isom"))

	var file bytes.Buffer
	file.Write(ftyp)
	file.Write(moov)

	duration, err := DurationFromMP4(&file)
	require.NoError(t, err)
	assert.Equal(t, 203, duration)
}

func TestDurationFromMP4_NoMoovIsError(t *testing.T) {
	ftyp := buildBox("ftyp", []byte("isom"))
	_, err := DurationFromMP4(bytes.NewReader(ftyp))
	assert.Error(t, err)
}
