package decoder

import (
	"encoding/binary"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

const ipv4MinLen = 20

type ipv4Packet struct {
	header   []byte
	payload  []byte
	protocol layers.IPProtocol
}

// decodeIPv4 splits an IPv4 datagram into header and payload. The payload is
// bounded by the total length field and by what was captured, so Ethernet
// padding never reaches the transport layer.
func decodeIPv4(data []byte) (ipv4Packet, error) {
	var ip layers.IPv4
	err := ip.DecodeFromBytes(data, gopacket.NilDecodeFeedback)
	if err == nil {
		return ipv4Packet{
			header:   ip.Contents,
			payload:  ip.Payload,
			protocol: ip.Protocol,
		}, nil
	}
	if pkt, ok := sliceIPv4(data); ok {
		return pkt, nil
	}
	return ipv4Packet{}, err
}

// sliceIPv4 splits a datagram gopacket rejected, e.g. for malformed option
// TLVs or a total length that disagrees with IHL. Only the 20-byte fixed
// header and an IHL of at least 5 are required; options stay raw bytes.
// The payload is nil when the header itself was cut short.
func sliceIPv4(data []byte) (ipv4Packet, bool) {
	if len(data) < ipv4MinLen {
		return ipv4Packet{}, false
	}
	hdrLen := int(data[0]&0x0f) * 4
	if hdrLen < ipv4MinLen {
		return ipv4Packet{}, false
	}

	pkt := ipv4Packet{
		header:   data[:min(hdrLen, len(data))],
		protocol: layers.IPProtocol(data[9]),
	}
	if hdrLen > len(data) {
		return pkt, true
	}
	end := len(data)
	if total := int(binary.BigEndian.Uint16(data[2:4])); total >= hdrLen && total < end {
		end = total
	}
	pkt.payload = data[hdrLen:end]
	return pkt, true
}
