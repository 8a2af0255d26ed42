package nprint

import (
	"log/slog"

	"firestige.xyz/nprint/internal/core"
	"firestige.xyz/nprint/internal/core/decoder"
	"firestige.xyz/nprint/internal/encoding"
)

// HeaderSet is the encoding of one packet: one vector per stack entry, in
// stack order.
type HeaderSet struct {
	vectors []encoding.Vector
}

// BuildHeaderSet demultiplexes frame once and encodes every protocol of
// stack. Protocols missing from the frame get their default vector;
// protocols missing from the stack are not encoded at all.
func BuildHeaderSet(frame []byte, stack core.Stack) HeaderSet {
	return buildFromHeaders(decoder.Demux(frame), stack)
}

func buildFromHeaders(h decoder.Headers, stack core.Stack) HeaderSet {
	hs := HeaderSet{vectors: make([]encoding.Vector, 0, len(stack))}
	for _, p := range stack {
		v := encoding.Encode(p, h.Get(p))
		if !v.Present {
			slog.Debug("protocol not parsed, using default vector", "protocol", p.String())
		}
		hs.vectors = append(hs.vectors, v)
	}
	return hs
}

// Vectors returns the per-protocol vectors. Callers must not modify them.
func (hs HeaderSet) Vectors() []encoding.Vector {
	return hs.vectors
}

// Vector returns the vector of p and whether p is part of the set.
func (hs HeaderSet) Vector(p core.ProtocolType) (encoding.Vector, bool) {
	for _, v := range hs.vectors {
		if v.Protocol == p {
			return v, true
		}
	}
	return encoding.Vector{}, false
}

// Present reports whether p was parsed from the frame rather than defaulted.
func (hs HeaderSet) Present(p core.ProtocolType) bool {
	v, ok := hs.Vector(p)
	return ok && v.Present
}

// Width is the total number of encoded positions.
func (hs HeaderSet) Width() int {
	n := 0
	for _, v := range hs.vectors {
		n += v.Len()
	}
	return n
}

// AppendTo appends the concatenated vectors to dst.
func (hs HeaderSet) AppendTo(dst []float32) []float32 {
	for _, v := range hs.vectors {
		dst = append(dst, v.Bits...)
	}
	return dst
}

// Anonymize zeroes the sensitive ranges of every parsed vector in place.
func (hs HeaderSet) Anonymize() {
	for i := range hs.vectors {
		hs.vectors[i].Anonymize()
	}
}
