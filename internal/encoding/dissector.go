package encoding

import "firestige.xyz/nprint/internal/core"

// Encode dispatches raw to the dissector of p. A nil raw slice means the
// protocol was absent from the packet and yields the default vector.
func Encode(p core.ProtocolType, raw []byte) Vector {
	switch p {
	case core.ProtocolIPv4:
		return EncodeIPv4(raw)
	case core.ProtocolTCP:
		return EncodeTCP(raw)
	case core.ProtocolUDP:
		return EncodeUDP(raw)
	case core.ProtocolPayload:
		return EncodePayload(raw)
	default:
		return Vector{Protocol: p}
	}
}

// Width returns the declared width of p, 0 for unknown protocols.
func Width(p core.ProtocolType) int {
	switch p {
	case core.ProtocolIPv4:
		return IPv4Width
	case core.ProtocolTCP:
		return TCPWidth
	case core.ProtocolUDP:
		return UDPWidth
	case core.ProtocolPayload:
		return PayloadWidth
	default:
		return 0
	}
}

// LayoutOf returns the field layout of p.
func LayoutOf(p core.ProtocolType) Layout {
	switch p {
	case core.ProtocolIPv4:
		return ipv4Layout
	case core.ProtocolTCP:
		return tcpLayout
	case core.ProtocolUDP:
		return udpLayout
	case core.ProtocolPayload:
		return payloadLayout
	default:
		return Layout{Protocol: p}
	}
}

// Default returns the all-Absent vector of p.
func Default(p core.ProtocolType) Vector {
	return Vector{Protocol: p, Bits: appendAbsent(make([]float32, 0, Width(p)), Width(p))}
}

// StackWidth is the per-packet width of a stack.
func StackWidth(s core.Stack) int {
	n := 0
	for _, p := range s {
		n += Width(p)
	}
	return n
}

// Columns returns the column names of one packet encoded under s.
func Columns(s core.Stack) []string {
	cols := make([]string, 0, StackWidth(s))
	for _, p := range s {
		cols = LayoutOf(p).appendColumns(cols)
	}
	return cols
}
