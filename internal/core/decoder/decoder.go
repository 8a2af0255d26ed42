// Package decoder splits link-layer frames into per-protocol header slices.
package decoder

import "firestige.xyz/nprint/internal/core"

// Headers holds at most one raw slice per protocol. A nil slice means the
// protocol was not found in the frame. Slices alias the frame.
type Headers struct {
	IPv4    []byte // IPv4 header including options
	TCP     []byte // IPv4 payload when next protocol is TCP
	UDP     []byte // IPv4 payload when next protocol is UDP
	Payload []byte // application bytes after the transport header
}

// Get returns the slice surfaced for p.
func (h Headers) Get(p core.ProtocolType) []byte {
	switch p {
	case core.ProtocolIPv4:
		return h.IPv4
	case core.ProtocolTCP:
		return h.TCP
	case core.ProtocolUDP:
		return h.UDP
	case core.ProtocolPayload:
		return h.Payload
	default:
		return nil
	}
}

// Demux walks Ethernet, one optional 802.1Q tag, IPv4 and TCP/UDP.
// Every protocol is surfaced whether or not a caller asked for it. A layer
// that fails to parse leaves its slice and every deeper slice nil; no error
// is returned.
func Demux(frame []byte) Headers {
	var h Headers

	etherType, payload, err := decodeEthernet(frame)
	if err != nil || etherType != etherTypeIPv4 {
		return h
	}

	ip, err := decodeIPv4(payload)
	if err != nil {
		return h
	}
	h.IPv4 = ip.header

	switch ip.protocol {
	case protocolTCP:
		h.TCP = ip.payload
		h.Payload = tcpPayload(ip.payload)
	case protocolUDP:
		h.UDP = ip.payload
		h.Payload = udpPayload(ip.payload)
	default:
		h.Payload = ip.payload
	}
	return h
}
