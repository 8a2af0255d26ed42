package decoder

import (
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

const (
	protocolTCP = layers.IPProtocolTCP
	protocolUDP = layers.IPProtocolUDP
)

// tcpPayload returns the bytes after the TCP header and its options, or nil
// when the segment does not parse.
func tcpPayload(seg []byte) []byte {
	var tcp layers.TCP
	if err := tcp.DecodeFromBytes(seg, gopacket.NilDecodeFeedback); err != nil {
		return nil
	}
	return nonNil(tcp.Payload)
}

// udpPayload returns the datagram body, bounded by the UDP length field.
func udpPayload(dgram []byte) []byte {
	var udp layers.UDP
	if err := udp.DecodeFromBytes(dgram, gopacket.NilDecodeFeedback); err != nil {
		return nil
	}
	return nonNil(udp.Payload)
}

// nonNil keeps an empty payload distinguishable from a missing one.
func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
