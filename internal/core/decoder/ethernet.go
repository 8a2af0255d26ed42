package decoder

import (
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"firestige.xyz/nprint/internal/core"
)

const (
	etherTypeIPv4 = layers.EthernetTypeIPv4
	etherTypeVLAN = layers.EthernetTypeDot1Q
)

// decodeEthernet returns the EtherType and payload of a frame. A single
// 802.1Q tag is unwrapped; a second tag is left in place, so QinQ frames
// report etherTypeVLAN.
func decodeEthernet(data []byte) (layers.EthernetType, []byte, error) {
	var eth layers.Ethernet
	if err := eth.DecodeFromBytes(data, gopacket.NilDecodeFeedback); err != nil {
		return 0, nil, fmt.Errorf("%w: %v", core.ErrPacketTooShort, err)
	}

	etherType, payload := eth.EthernetType, eth.Payload
	if etherType == etherTypeVLAN {
		var tag layers.Dot1Q
		if err := tag.DecodeFromBytes(payload, gopacket.NilDecodeFeedback); err != nil {
			return 0, nil, fmt.Errorf("%w: 802.1Q: %v", core.ErrPacketTooShort, err)
		}
		etherType, payload = tag.Type, tag.Payload
	}
	return etherType, payload, nil
}
