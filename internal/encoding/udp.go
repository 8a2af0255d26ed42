package encoding

import "firestige.xyz/nprint/internal/core"

const (
	// UDPWidth is the fixed UDP header in bits.
	UDPWidth = 64

	udpHeaderLen = 8
)

var udpLayout = newLayout(core.ProtocolUDP,
	fieldSpec{"udp_sport", 16},
	fieldSpec{"udp_dport", 16},
	fieldSpec{"udp_len", 16},
	fieldSpec{"udp_cksum", 16},
)

// EncodeUDP encodes a UDP header.
func EncodeUDP(dgram []byte) Vector {
	if len(dgram) < udpHeaderLen {
		return Default(core.ProtocolUDP)
	}
	bits := appendFieldBits(make([]float32, 0, UDPWidth), dgram, udpLayout.Fields)
	return Vector{Protocol: core.ProtocolUDP, Bits: bits, Present: true}
}
