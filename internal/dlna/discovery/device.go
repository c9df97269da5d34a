package discovery

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/StarFreedomX/ktv-casting-go/internal/apperrors"
	"github.com/StarFreedomX/ktv-casting-go/internal/dlna/soap"
)

// Device is an immutable renderer identity resolved from SSDP discovery
// (or a direct device-description URL supplied by the caller). Immutable
// after construction.
type Device struct {
	FriendlyName string
	Location     string
	UDN          string
	Target       soap.Target
}

var descriptionHTTPClient = &http.Client{
	Timeout: 5 * time.Second,
	Transport: &http.Transport{
		DialContext:         (&net.Dialer{Timeout: 3 * time.Second}).DialContext,
		TLSHandshakeTimeout: 3 * time.Second,
		IdleConnTimeout:     30 * time.Second,
	},
}

type deviceDescriptionXML struct {
	Device struct {
		FriendlyName string `xml:"friendlyName"`
		UDN          string `xml:"UDN"`
		ServiceList  struct {
			Service []struct {
				ServiceType string `xml:"serviceType"`
				ControlURL  string `xml:"controlURL"`
			} `xml:"service"`
		} `xml:"serviceList"`
	} `xml:"device"`
}

// ResolveDevice fetches the device description XML at location and builds
// a Device from its friendlyName, UDN and per-service control URLs.
func ResolveDevice(ctx context.Context, location string) (*Device, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, apperrors.NewParseFailedError("device description request", err)
	}
	resp, err := descriptionHTTPClient.Do(req)
	if err != nil {
		return nil, apperrors.NewDeviceUnreachableError("fetching device description", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, apperrors.NewDeviceUnreachableError(fmt.Sprintf("device description returned http %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewParseFailedError("device description body", err)
	}

	var desc deviceDescriptionXML
	if err := xml.Unmarshal(body, &desc); err != nil {
		return nil, apperrors.NewParseFailedError("device description XML", err)
	}

	device := &Device{
		FriendlyName: strings.TrimSpace(desc.Device.FriendlyName),
		Location:     location,
		UDN:          strings.TrimPrefix(strings.TrimSpace(desc.Device.UDN), "uuid:"),
	}

	for _, svc := range desc.Device.ServiceList.Service {
		controlURL, err := resolveAgainst(location, svc.ControlURL)
		if err != nil {
			continue
		}
		switch svc.ServiceType {
		case soap.ServiceTypeAVTransport:
			device.Target.AVTransportControlURL = controlURL
		case soap.ServiceTypeRenderingControl:
			device.Target.RenderingControlControlURL = controlURL
		}
	}

	if device.Target.AVTransportControlURL == "" {
		return nil, apperrors.NewParseFailedError("device description", fmt.Errorf("no AVTransport service advertised at %s", location))
	}

	return device, nil
}

// resolveAgainst resolves a (possibly relative) controlURL against the
// device description's own location URL.
func resolveAgainst(location, controlURL string) (string, error) {
	base, err := url.Parse(location)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(controlURL)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}
