package encoding

import "firestige.xyz/nprint/internal/core"

const (
	// TCPWidth covers the largest TCP header (data offset 15).
	TCPWidth = 480

	tcpFixedLen = 20
)

var tcpLayout = newLayout(core.ProtocolTCP,
	fieldSpec{"tcp_sprt", 16},
	fieldSpec{"tcp_dprt", 16},
	fieldSpec{"tcp_seq", 32},
	fieldSpec{"tcp_ackn", 32},
	fieldSpec{"tcp_doff", 4},
	fieldSpec{"tcp_res", 3},
	fieldSpec{"tcp_ns", 1},
	fieldSpec{"tcp_cwr", 1},
	fieldSpec{"tcp_ece", 1},
	fieldSpec{"tcp_urg", 1},
	fieldSpec{"tcp_ackf", 1},
	fieldSpec{"tcp_psh", 1},
	fieldSpec{"tcp_rst", 1},
	fieldSpec{"tcp_syn", 1},
	fieldSpec{"tcp_fin", 1},
	fieldSpec{"tcp_wsize", 16},
	fieldSpec{"tcp_cksum", 16},
	fieldSpec{"tcp_urp", 16},
	fieldSpec{"tcp_opt", OptionsWidth},
)

// EncodeTCP encodes a TCP header. seg may carry the segment payload too;
// only the header and its options are read.
func EncodeTCP(seg []byte) Vector {
	if len(seg) < tcpFixedLen {
		return Default(core.ProtocolTCP)
	}
	fields := tcpLayout.Fields
	bits := make([]float32, 0, TCPWidth)
	bits = appendFieldBits(bits, seg, fields[:len(fields)-1])
	doff := int(seg[12]>>4) * 4
	bits = appendOptions(bits, headerOptions(seg, tcpFixedLen, doff))
	return Vector{Protocol: core.ProtocolTCP, Bits: bits, Present: true}
}
