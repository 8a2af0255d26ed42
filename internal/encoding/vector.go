package encoding

import "firestige.xyz/nprint/internal/core"

// Absent is the sentinel for a bit whose field is not present.
const Absent float32 = -1

// Vector is the encoding of one protocol header.
type Vector struct {
	Protocol core.ProtocolType
	Bits     []float32
	// Present is false when Bits is the protocol's default vector.
	Present bool
}

// Len returns the number of encoded positions.
func (v Vector) Len() int {
	return len(v.Bits)
}

// Clone returns a deep copy.
func (v Vector) Clone() Vector {
	bits := make([]float32, len(v.Bits))
	copy(bits, v.Bits)
	v.Bits = bits
	return v
}

// Zero sets bits [start, end) to 0. The range is clamped to the vector.
func (v *Vector) Zero(start, end int) {
	if start < 0 {
		start = 0
	}
	if end > len(v.Bits) {
		end = len(v.Bits)
	}
	for i := start; i < end; i++ {
		v.Bits[i] = 0
	}
}

// Range is a half-open bit range [Start, End).
type Range struct {
	Start int
	End   int
}

var (
	ipv4Sensitive = []Range{{96, 128}, {128, 160}} // source, destination address
	tcpSensitive  = []Range{{0, 16}, {16, 32}}     // source, destination port
)

// SensitiveRanges returns the bit ranges that anonymization zeroes for p.
func SensitiveRanges(p core.ProtocolType) []Range {
	switch p {
	case core.ProtocolIPv4:
		return ipv4Sensitive
	case core.ProtocolTCP:
		return tcpSensitive
	default:
		return nil
	}
}

// Anonymize zeroes the protocol's sensitive ranges in place.
// Default vectors keep their sentinels.
func (v *Vector) Anonymize() {
	if !v.Present {
		return
	}
	for _, r := range SensitiveRanges(v.Protocol) {
		v.Zero(r.Start, r.End)
	}
}
