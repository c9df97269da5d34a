package netutil

import (
	"math/bits"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBestLocalIP_PicksLongestPrefixMatch(t *testing.T) {
	// This test does not call BestLocalIP: real interface enumeration is
	// environment-dependent, so it repeats the same XOR/leading-zero
	// comparison BestLocalIP performs over a fixed candidate list.
	target := net.ParseIP("192.168.1.50").To4()

	candidates := []net.IP{
		net.ParseIP("10.0.0.5").To4(),
		net.ParseIP("192.168.1.1").To4(),
		net.ParseIP("192.168.0.1").To4(),
	}

	targetBits := beUint32(target)
	bestIdx := -1
	bestScore := -1
	for i, c := range candidates {
		score := bits.LeadingZeros32(targetBits ^ beUint32(c))
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	assert.Equal(t, "192.168.1.1", candidates[bestIdx].String())
}

func beUint32(ip net.IP) uint32 {
	return uint32(ip[0])<<24 | uint32(ip[1])<<16 | uint32(ip[2])<<8 | uint32(ip[3])
}

func TestBestLocalIP_NonIPv4TargetErrors(t *testing.T) {
	_, err := BestLocalIP(net.ParseIP("::1"))
	assert.Error(t, err)
}
