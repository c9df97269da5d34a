package discovery

import (
	"context"
	"time"

	"github.com/StarFreedomX/ktv-casting-go/internal/loglevel"
)

// DefaultWindow is the bounded SSDP M-SEARCH listen window.
const DefaultWindow = 3 * time.Second

// Discover issues SSDP M-SEARCH for the configured search targets, waits
// up to window for replies, resolves each distinct LOCATION's device
// description, and returns the deduplicated (by UDN) device list. An empty
// result is a normal outcome, not an error.
func Discover(ctx context.Context, window time.Duration) ([]*Device, error) {
	responses, err := searchOnce(ctx, window)
	if err != nil {
		return nil, err
	}

	seenUDN := make(map[string]struct{})
	seenLocation := make(map[string]struct{})
	var devices []*Device

	for _, resp := range responses {
		if _, dup := seenLocation[resp.Location]; dup {
			continue
		}
		seenLocation[resp.Location] = struct{}{}

		device, err := ResolveDevice(ctx, resp.Location)
		if err != nil {
			loglevel.Debugf("[discovery] skipping %s: %v", resp.Location, err)
			continue
		}
		if _, dup := seenUDN[device.UDN]; dup {
			continue
		}
		seenUDN[device.UDN] = struct{}{}
		devices = append(devices, device)
	}

	return devices, nil
}
