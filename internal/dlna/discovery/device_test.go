package discovery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDescription = `<?xml version="1.0"?>
<root xmlns="urn:schemas-upnp-org:device-1-0">
  <device>
    <friendlyName>Living Room TV</friendlyName>
    <UDN>uuid:abc-123</UDN>
    <serviceList>
      <service>
        <serviceType>urn:schemas-upnp-org:service:AVTransport:1</serviceType>
        <controlURL>/AVTransport/control</controlURL>
      </service>
      <service>
        <serviceType>urn:schemas-upnp-org:service:RenderingControl:1</serviceType>
        <controlURL>/RenderingControl/control</controlURL>
      </service>
    </serviceList>
  </device>
</root>`

func TestResolveDevice_ParsesFriendlyNameUDNAndControlURLs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleDescription))
	}))
	defer server.Close()

	device, err := ResolveDevice(context.Background(), server.URL+"/description.xml")
	require.NoError(t, err)
	assert.Equal(t, "Living Room TV", device.FriendlyName)
	assert.Equal(t, "abc-123", device.UDN)
	assert.Equal(t, server.URL+"/AVTransport/control", device.Target.AVTransportControlURL)
	assert.Equal(t, server.URL+"/RenderingControl/control", device.Target.RenderingControlControlURL)
}

func TestResolveDevice_NoAVTransportIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<root><device><friendlyName>Nope</friendlyName></device></root>`))
	}))
	defer server.Close()

	_, err := ResolveDevice(context.Background(), server.URL+"/description.xml")
	require.Error(t, err)
}
