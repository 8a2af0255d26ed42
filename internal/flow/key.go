// Package flow groups frames into bidirectional flows, one Nprint per flow.
package flow

import (
	"encoding/binary"
	"fmt"
	"net/netip"

	"firestige.xyz/nprint/internal/core/decoder"
)

// Key identifies a bidirectional flow. Both directions of a conversation
// map to the same Key: the lower address is always SrcIP.
type Key struct {
	SrcIP   netip.Addr
	DstIP   netip.Addr
	SrcPort uint16
	DstPort uint16
	Proto   uint8
}

func (k Key) String() string {
	if !k.SrcIP.IsValid() {
		return "non-ipv4"
	}
	return fmt.Sprintf("%s:%d<->%s:%d/%d", k.SrcIP, k.SrcPort, k.DstIP, k.DstPort, k.Proto)
}

// KeyOf derives the canonical key of a demultiplexed frame. Frames without
// an IPv4 header share the zero Key; ports stay zero for transports other
// than TCP and UDP or when fewer than four bytes were captured.
func KeyOf(h decoder.Headers) Key {
	if len(h.IPv4) < 20 {
		return Key{}
	}
	k := Key{
		SrcIP: netip.AddrFrom4([4]byte(h.IPv4[12:16])),
		DstIP: netip.AddrFrom4([4]byte(h.IPv4[16:20])),
		Proto: h.IPv4[9],
	}

	transport := h.TCP
	if transport == nil {
		transport = h.UDP
	}
	if len(transport) >= 4 {
		k.SrcPort = binary.BigEndian.Uint16(transport[0:2])
		k.DstPort = binary.BigEndian.Uint16(transport[2:4])
	}
	return k.canonical()
}

func (k Key) canonical() Key {
	swap := k.DstIP.Less(k.SrcIP) || (k.SrcIP == k.DstIP && k.DstPort < k.SrcPort)
	if !swap {
		return k
	}
	return Key{
		SrcIP:   k.DstIP,
		DstIP:   k.SrcIP,
		SrcPort: k.DstPort,
		DstPort: k.SrcPort,
		Proto:   k.Proto,
	}
}
