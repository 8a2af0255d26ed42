package decoder

import (
	"bytes"
	"net"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"firestige.xyz/nprint/internal/core"
)

// VLAN-tagged IPv4/UDP frame with 44 bytes of payload and trailing bytes
// past the IPv4 total length.
var vlanUDPFrame = []byte{
	0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x81, 0x00, 0x20, 0x45, 0x08,
	0x00, 0x45, 0x00, 0x00, 0x48, 0x6f, 0xcd, 0x40, 0x00, 0x40, 0x11, 0x46, 0x1d, 0xac, 0x10,
	0x0c, 0x9b, 0xac, 0x10, 0x1f, 0xff, 0xe1, 0x15, 0xe1, 0x15, 0x00, 0x34, 0x85, 0x00, 0x53,
	0x70, 0x6f, 0x74, 0x55, 0x64, 0x70, 0x30, 0x9e, 0x61, 0x42, 0x3d, 0x11, 0x99, 0x99, 0xee,
	0x00, 0x01, 0x00, 0x04, 0x48, 0x95, 0xc2, 0x03, 0x58, 0xc0, 0x4d, 0x5a, 0xde, 0x92, 0x01,
	0xbb, 0x72, 0x07, 0xf6, 0xa0, 0x00, 0x00, 0x00, 0x00, 0x80, 0x02, 0x20, 0x00, 0x05, 0x24,
	0x00, 0x00, 0x02, 0x04, 0x05, 0xb4, 0x01, 0x03, 0x03, 0x02, 0x01, 0x01, 0x04, 0x02,
}

// serialize builds a frame with lengths and checksums fixed up.
func serialize(t *testing.T, ls ...gopacket.SerializableLayer) []byte {
	t.Helper()
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, ls...); err != nil {
		t.Fatalf("SerializeLayers failed: %v", err)
	}
	return buf.Bytes()
}

func ethernet(t layers.EthernetType) *layers.Ethernet {
	return &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF},
		DstMAC:       net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55},
		EthernetType: t,
	}
}

func ipv4(proto layers.IPProtocol) *layers.IPv4 {
	return &layers.IPv4{
		Version:  4,
		IHL:      5,
		TTL:      64,
		Flags:    layers.IPv4DontFragment,
		Protocol: proto,
		SrcIP:    net.IP{10, 0, 0, 1},
		DstIP:    net.IP{10, 0, 0, 2},
	}
}

func makeTCPFrame(t *testing.T, payload []byte) []byte {
	t.Helper()
	ip := ipv4(layers.IPProtocolTCP)
	tcp := &layers.TCP{SrcPort: 40000, DstPort: 443, Seq: 1, SYN: true, Window: 1024}
	if err := tcp.SetNetworkLayerForChecksum(ip); err != nil {
		t.Fatalf("SetNetworkLayerForChecksum failed: %v", err)
	}
	return serialize(t, ethernet(layers.EthernetTypeIPv4), ip, tcp, gopacket.Payload(payload))
}

func TestDemuxVLANUDP(t *testing.T) {
	h := Demux(vlanUDPFrame)

	if len(h.IPv4) != 20 || h.IPv4[0] != 0x45 {
		t.Fatalf("Expected 20-byte IPv4 header, got %x", h.IPv4)
	}
	if h.TCP != nil {
		t.Errorf("Expected no TCP slice, got %d bytes", len(h.TCP))
	}
	if len(h.UDP) != 52 || !bytes.HasPrefix(h.UDP, []byte{0xe1, 0x15, 0xe1, 0x15}) {
		t.Errorf("Expected 52-byte UDP datagram, got %x", h.UDP)
	}
	if len(h.Payload) != 44 || !bytes.HasPrefix(h.Payload, []byte("SpotUdp0")) {
		t.Errorf("Expected 44-byte payload, got %x", h.Payload)
	}
}

func TestDemuxTCP(t *testing.T) {
	frame := makeTCPFrame(t, []byte("hello"))

	h := Demux(frame)

	if len(h.IPv4) != 20 {
		t.Fatalf("Expected 20-byte IPv4 header, got %d", len(h.IPv4))
	}
	if h.UDP != nil {
		t.Errorf("Expected no UDP slice")
	}
	if len(h.TCP) != 25 {
		t.Errorf("Expected TCP segment of 25 bytes, got %d", len(h.TCP))
	}
	if string(h.Payload) != "hello" {
		t.Errorf("Expected payload hello, got %q", h.Payload)
	}
	if !bytes.Equal(h.Get(core.ProtocolTCP), h.TCP) {
		t.Errorf("Get(TCP) does not match TCP slice")
	}
}

func TestDemuxOtherIPProtocol(t *testing.T) {
	icmp := &layers.ICMPv4{TypeCode: layers.CreateICMPv4TypeCode(layers.ICMPv4TypeEchoRequest, 0), Id: 1, Seq: 1}
	frame := serialize(t, ethernet(layers.EthernetTypeIPv4), ipv4(layers.IPProtocolICMPv4), icmp)

	h := Demux(frame)

	if h.IPv4 == nil {
		t.Fatal("Expected IPv4 slice")
	}
	if h.TCP != nil || h.UDP != nil {
		t.Errorf("Expected no transport slices for ICMP")
	}
	if len(h.Payload) != 8 {
		t.Errorf("Expected the 8-byte ICMP message as payload, got %d", len(h.Payload))
	}
}

func TestDemuxAbsent(t *testing.T) {
	arp := &layers.ARP{
		AddrType:          layers.LinkTypeEthernet,
		Protocol:          layers.EthernetTypeIPv4,
		HwAddressSize:     6,
		ProtAddressSize:   4,
		Operation:         layers.ARPRequest,
		SourceHwAddress:   []byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF},
		SourceProtAddress: []byte{10, 0, 0, 1},
		DstHwAddress:      []byte{0, 0, 0, 0, 0, 0},
		DstProtAddress:    []byte{10, 0, 0, 2},
	}

	tests := []struct {
		name  string
		frame []byte
	}{
		{"nil", nil},
		{"short ethernet", []byte{0x00, 0x11, 0x22}},
		{"arp", serialize(t, ethernet(layers.EthernetTypeARP), arp)},
		{"truncated ipv4", vlanUDPFrame[:24]},
		{"truncated vlan", vlanUDPFrame[:15]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Demux(tt.frame)
			for _, p := range []core.ProtocolType{core.ProtocolIPv4, core.ProtocolTCP, core.ProtocolUDP, core.ProtocolPayload} {
				if h.Get(p) != nil {
					t.Errorf("Expected no %s slice, got %x", p, h.Get(p))
				}
			}
		})
	}
}

// rawIPv4Frame builds Ethernet + a hand-written IPv4 header so fields that
// gopacket refuses to serialize can be set freely.
func rawIPv4Frame(verIHL byte, totalLen uint16, proto byte, options, rest []byte) []byte {
	frame := []byte{
		0x00, 0x11, 0x22, 0x33, 0x44, 0x55,
		0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF,
		0x08, 0x00,
		verIHL, 0x00, byte(totalLen >> 8), byte(totalLen),
		0x12, 0x34, 0x40, 0x00,
		0x40, proto, 0x00, 0x00,
		10, 0, 0, 1,
		10, 0, 0, 2,
	}
	frame = append(frame, options...)
	return append(frame, rest...)
}

var rawTCPHeader = []byte{
	0x9c, 0x40, 0x01, 0xbb, // ports 40000 -> 443
	0x00, 0x00, 0x00, 0x01, // seq
	0x00, 0x00, 0x00, 0x00, // ack
	0x50, 0x02, 0x04, 0x00, // data offset 5, SYN, window 1024
	0x00, 0x00, 0x00, 0x00,
}

var rawUDPDatagram = []byte{0xe1, 0x15, 0x00, 0x35, 0x00, 0x0c, 0x00, 0x00, 'p', 'i', 'n', 'g'}

func TestDemuxMalformedIPv4(t *testing.T) {
	tests := []struct {
		name       string
		frame      []byte
		ipv4Len    int
		tcpLen     int
		udpLen     int
		payloadLen int
	}{
		{
			name:       "invalid option length",
			frame:      rawIPv4Frame(0x46, 44, 6, []byte{0x07, 0x00, 0x00, 0x00}, rawTCPHeader),
			ipv4Len:    24,
			tcpLen:     20,
			udpLen:     -1,
			payloadLen: 0,
		},
		{
			name:       "total length below header",
			frame:      rawIPv4Frame(0x45, 10, 17, nil, rawUDPDatagram),
			ipv4Len:    20,
			tcpLen:     -1,
			udpLen:     12,
			payloadLen: 4,
		},
		{
			name:       "options cut by capture",
			frame:      rawIPv4Frame(0x4f, 80, 6, []byte{0x01, 0x01, 0x01, 0x01}, nil),
			ipv4Len:    24,
			tcpLen:     -1,
			udpLen:     -1,
			payloadLen: -1,
		},
	}

	// -1 means the slice must be nil.
	check := func(t *testing.T, p core.ProtocolType, got []byte, want int) {
		t.Helper()
		if want < 0 {
			if got != nil {
				t.Errorf("Expected no %s slice, got %x", p, got)
			}
			return
		}
		if got == nil || len(got) != want {
			t.Errorf("Expected %d-byte %s slice, got %x (nil=%t)", want, p, got, got == nil)
		}
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Demux(tt.frame)
			check(t, core.ProtocolIPv4, h.IPv4, tt.ipv4Len)
			check(t, core.ProtocolTCP, h.TCP, tt.tcpLen)
			check(t, core.ProtocolUDP, h.UDP, tt.udpLen)
			check(t, core.ProtocolPayload, h.Payload, tt.payloadLen)
		})
	}
}

func TestDemuxMalformedOptionsKeepRawBytes(t *testing.T) {
	opts := []byte{0x07, 0x00, 0x00, 0x00}
	h := Demux(rawIPv4Frame(0x46, 44, 6, opts, rawTCPHeader))

	if !bytes.Equal(h.IPv4[20:], opts) {
		t.Errorf("Expected raw option bytes %x, got %x", opts, h.IPv4[20:])
	}
	if !bytes.Equal(h.TCP, rawTCPHeader) {
		t.Errorf("Expected TCP header after the options, got %x", h.TCP)
	}
}

func TestDemuxIHLTooSmall(t *testing.T) {
	h := Demux(rawIPv4Frame(0x44, 40, 6, nil, rawTCPHeader))
	if h.IPv4 != nil || h.TCP != nil {
		t.Errorf("Expected IHL 4 to leave IPv4 absent, got ipv4=%x tcp=%x", h.IPv4, h.TCP)
	}
}

func TestDemuxTruncatedTransport(t *testing.T) {
	frame := makeTCPFrame(t, nil)
	// Keep Ethernet, IPv4 and 10 bytes of TCP.
	frame = frame[:14+20+10]

	h := Demux(frame)

	if h.IPv4 == nil {
		t.Fatal("Expected IPv4 slice")
	}
	if len(h.TCP) != 10 {
		t.Errorf("Expected the captured 10 TCP bytes, got %d", len(h.TCP))
	}
	if h.Payload != nil {
		t.Errorf("Expected no payload for an unparsable segment")
	}
}

func BenchmarkDemux(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		Demux(vlanUDPFrame)
	}
}
