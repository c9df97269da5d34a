package soap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteAction_Success2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, `"urn:schemas-upnp-org:service:AVTransport:1#Play"`, r.Header.Get("SOAPACTION"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`<s:Envelope><s:Body><u:PlayResponse/></s:Body></s:Envelope>`))
	}))
	defer server.Close()

	client := NewClient(2 * time.Second)
	target := Target{AVTransportControlURL: server.URL}
	err := client.Play(context.Background(), target)
	require.NoError(t, err)
}

func TestExecuteAction_FaultOnNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<s:Envelope><s:Body><s:Fault><detail><UPnPError><errorCode>718</errorCode><errorDescription>Invalid InstanceID</errorDescription></UPnPError></detail></s:Fault></s:Body></s:Envelope>`))
	}))
	defer server.Close()

	client := NewClient(2 * time.Second)
	err := client.Stop(context.Background(), Target{AVTransportControlURL: server.URL})
	require.Error(t, err)
	var faultErr *FaultError
	require.ErrorAs(t, err, &faultErr)
	assert.Equal(t, "718", faultErr.Code)
}

func TestGetPositionInfo_ParsesHMSAndNotImplemented(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`<s:Envelope><s:Body><u:GetPositionInfoResponse>
			<Track>1</Track>
			<TrackDuration>NOT_IMPLEMENTED</TrackDuration>
			<RelTime>00:03:21</RelTime>
		</u:GetPositionInfoResponse></s:Body></s:Envelope>`))
	}))
	defer server.Close()

	client := NewClient(2 * time.Second)
	info, err := client.GetPositionInfo(context.Background(), Target{AVTransportControlURL: server.URL})
	require.NoError(t, err)
	assert.Equal(t, 0, info.TotalSeconds)
	assert.Equal(t, 201, info.CurrentSeconds)
}

func TestSetVolume_ClampsLevel(t *testing.T) {
	var gotVolume string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := make([]byte, r.ContentLength)
		_, _ = r.Body.Read(body)
		gotVolume = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(2 * time.Second)
	target := Target{RenderingControlControlURL: server.URL}
	require.NoError(t, client.SetVolume(context.Background(), target, 500))
	assert.Contains(t, gotVolume, "<DesiredVolume>100</DesiredVolume>")

	require.NoError(t, client.SetVolume(context.Background(), target, -5))
}

func TestParseHMS(t *testing.T) {
	assert.Equal(t, 0, ParseHMS(""))
	assert.Equal(t, 0, ParseHMS("NOT_IMPLEMENTED"))
	assert.Equal(t, 0, ParseHMS("00:00:00"))
	assert.Equal(t, 3661, ParseHMS("01:01:01"))
	assert.Equal(t, 3661, ParseHMS("01:01:01.500"))
}

func TestFormatHMS(t *testing.T) {
	assert.Equal(t, "00:00:00", FormatHMS(0))
	assert.Equal(t, "01:01:01", FormatHMS(3661))
}
