// Package discovery finds DLNA/UPnP media renderers on the local network
// via SSDP multicast, fetches and parses their device description XML, and
// caches the resulting device list on a scheduled refresh.
package discovery

import (
	"bufio"
	"context"
	"net"
	"strings"
	"time"
)

const ssdpAddr = "239.255.255.250:1900"

// SearchTargets are the UPnP service types this engine needs a renderer to
// advertise. RenderingControl is optional; a device missing it still
// discovers, it simply cannot serve GetVolume/SetVolume.
var SearchTargets = []string{
	"urn:schemas-upnp-org:service:AVTransport:1",
	"urn:schemas-upnp-org:service:RenderingControl:1",
}

// ssdpResponse is one raw M-SEARCH reply.
type ssdpResponse struct {
	Location string
	USN      string
}

// searchOnce issues one M-SEARCH per entry of SearchTargets and collects
// responses until
// window elapses or ctx is cancelled. Responses are deduplicated by
// LOCATION so that a device answering both search targets only appears
// once.
func searchOnce(ctx context.Context, window time.Duration) ([]ssdpResponse, error) {
	conn, err := net.ListenPacket("udp4", ":0")
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	addr, err := net.ResolveUDPAddr("udp4", ssdpAddr)
	if err != nil {
		return nil, err
	}

	for _, target := range SearchTargets {
		if err := sendSearch(conn, addr, target); err != nil {
			return nil, err
		}
	}

	deadline := time.Now().Add(window)
	if earlier, ok := ctx.Deadline(); ok && earlier.Before(deadline) {
		deadline = earlier
	}
	if err := conn.SetReadDeadline(deadline); err != nil {
		return nil, err
	}

	byLocation := make(map[string]ssdpResponse)
	buf := make([]byte, 2048)
	for {
		n, _, err := conn.ReadFrom(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				break
			}
			break
		}
		resp := parseSSDPResponse(string(buf[:n]))
		if resp.Location == "" {
			continue
		}
		if _, exists := byLocation[resp.Location]; !exists {
			byLocation[resp.Location] = resp
		}
	}

	result := make([]ssdpResponse, 0, len(byLocation))
	for _, r := range byLocation {
		result = append(result, r)
	}
	return result, nil
}

func sendSearch(conn net.PacketConn, addr *net.UDPAddr, target string) error {
	msg := strings.Join([]string{
		"M-SEARCH * HTTP/1.1",
		"HOST: " + ssdpAddr,
		`MAN: "ssdp:discover"`,
		"MX: 2",
		"ST: " + target,
		"",
		"",
	}, "\r\n")
	_, err := conn.WriteTo([]byte(msg), addr)
	return err
}

func parseSSDPResponse(raw string) ssdpResponse {
	scanner := bufio.NewScanner(strings.NewReader(raw))
	headers := make(map[string]string)

	if scanner.Scan() {
		// status line, discarded
	}
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			break
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.ToUpper(strings.TrimSpace(parts[0]))
		headers[key] = strings.TrimSpace(parts[1])
	}

	return ssdpResponse{Location: headers["LOCATION"], USN: headers["USN"]}
}
