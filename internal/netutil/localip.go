// Package netutil selects the local network interface address that will
// be reachable by a given renderer, and builds the proxy URL advertised to
// that renderer.
package netutil

import (
	"encoding/binary"
	"fmt"
	"math/bits"
	"net"
)

// BestLocalIP returns the local IPv4 address, among all up, non-loopback
// interface addresses, whose value shares the longest leading-bit prefix
// with target when both are viewed as big-endian uint32s. Ties are broken
// by iteration order (the first interface address enumerated wins), which
// matches net.Interfaces()'s stable, OS-reported ordering.
func BestLocalIP(target net.IP) (net.IP, error) {
	targetV4 := target.To4()
	if targetV4 == nil {
		return nil, fmt.Errorf("netutil: target %s is not an IPv4 address", target)
	}
	targetBits := binary.BigEndian.Uint32(targetV4)

	candidates, err := localIPv4Addrs()
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("netutil: no usable local IPv4 addresses found")
	}

	var best net.IP
	bestScore := -1
	for _, candidate := range candidates {
		candidateBits := binary.BigEndian.Uint32(candidate)
		score := bits.LeadingZeros32(targetBits ^ candidateBits)
		if score > bestScore {
			bestScore = score
			best = candidate
		}
	}
	return best, nil
}

func localIPv4Addrs() ([]net.IP, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("netutil: listing interfaces: %w", err)
	}

	var result []net.IP
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			var ip net.IP
			switch v := addr.(type) {
			case *net.IPNet:
				ip = v.IP
			case *net.IPAddr:
				ip = v.IP
			}
			if v4 := ip.To4(); v4 != nil {
				result = append(result, v4)
			}
		}
	}
	return result, nil
}

// ProxyURL builds the URL a renderer should fetch a queue entry from,
// given the locally-selected address, the proxy's bound port and a queue
// entry key.
func ProxyURL(localIP net.IP, port int, key string) string {
	return fmt.Sprintf("http://%s:%d/%s", localIP.String(), port, key)
}
