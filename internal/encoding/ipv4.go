package encoding

import "firestige.xyz/nprint/internal/core"

const (
	// IPv4Width covers the largest IPv4 header (IHL 15).
	IPv4Width = 480

	ipv4FixedLen = 20
)

var ipv4Layout = newLayout(core.ProtocolIPv4,
	fieldSpec{"ipv4_ver", 4},
	fieldSpec{"ipv4_hl", 4},
	fieldSpec{"ipv4_tos", 8},
	fieldSpec{"ipv4_tl", 16},
	fieldSpec{"ipv4_id", 16},
	fieldSpec{"ipv4_rbit", 1},
	fieldSpec{"ipv4_dfbit", 1},
	fieldSpec{"ipv4_mfbit", 1},
	fieldSpec{"ipv4_foff", 13},
	fieldSpec{"ipv4_ttl", 8},
	fieldSpec{"ipv4_proto", 8},
	fieldSpec{"ipv4_cksum", 16},
	fieldSpec{"ipv4_src", 32},
	fieldSpec{"ipv4_dst", 32},
	fieldSpec{"ipv4_opt", OptionsWidth},
)

// EncodeIPv4 encodes an IPv4 header. Anything shorter than the fixed
// 20-byte header yields the default vector.
func EncodeIPv4(hdr []byte) Vector {
	if len(hdr) < ipv4FixedLen {
		return Default(core.ProtocolIPv4)
	}
	fields := ipv4Layout.Fields
	bits := make([]float32, 0, IPv4Width)
	bits = appendFieldBits(bits, hdr, fields[:len(fields)-1])
	ihl := int(hdr[0]&0x0f) * 4
	bits = appendOptions(bits, headerOptions(hdr, ipv4FixedLen, ihl))
	return Vector{Protocol: core.ProtocolIPv4, Bits: bits, Present: true}
}
