package encoding

import "firestige.xyz/nprint/internal/core"

const (
	// MaxPayloadLen is the largest application payload that is encoded.
	MaxPayloadLen = 1514

	// PayloadWidth is MaxPayloadLen bytes in bits.
	PayloadWidth = MaxPayloadLen * 8
)

var payloadLayout = newLayout(core.ProtocolPayload,
	fieldSpec{"payload_bit", PayloadWidth},
)

// EncodePayload encodes application bytes. A nil slice means no payload was
// found; payloads of MaxPayloadLen bytes or more yield the default vector.
func EncodePayload(data []byte) Vector {
	if data == nil || len(data) >= MaxPayloadLen {
		return Default(core.ProtocolPayload)
	}
	bits := make([]float32, 0, PayloadWidth)
	bits = appendBytes(bits, data)
	bits = appendAbsent(bits, PayloadWidth-len(data)*8)
	return Vector{Protocol: core.ProtocolPayload, Bits: bits, Present: true}
}
