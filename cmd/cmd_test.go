package cmd

import (
	"bytes"
	"context"
	"encoding/csv"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/sbinet/npyio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"

	"firestige.xyz/nprint/internal/config"
	"firestige.xyz/nprint/internal/core"
	"firestige.xyz/nprint/internal/encoding"
)

func tcpFrame(t *testing.T, src, dst net.IP, sport, dport uint16) []byte {
	t.Helper()
	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF},
		DstMAC:       net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55},
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{Version: 4, TTL: 64, Protocol: layers.IPProtocolTCP, SrcIP: src, DstIP: dst}
	tcp := &layers.TCP{SrcPort: layers.TCPPort(sport), DstPort: layers.TCPPort(dport), SYN: true, Window: 1024}
	require.NoError(t, tcp.SetNetworkLayerForChecksum(ip))

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	require.NoError(t, gopacket.SerializeLayers(buf, opts, eth, ip, tcp))
	return buf.Bytes()
}

// writeCapture writes three frames in two flows.
func writeCapture(t *testing.T) string {
	t.Helper()
	a := net.IP{192, 168, 1, 10}
	b := net.IP{192, 168, 1, 20}
	frames := [][]byte{
		tcpFrame(t, a, b, 40000, 443),
		tcpFrame(t, b, a, 443, 40000),
		tcpFrame(t, a, b, 40001, 443),
	}

	path := filepath.Join(t.TempDir(), "in.pcap")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := pcapgo.NewWriter(f)
	require.NoError(t, w.WriteFileHeader(65535, layers.LinkTypeEthernet))
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, data := range frames {
		ci := gopacket.CaptureInfo{
			Timestamp:     ts.Add(time.Duration(i) * time.Millisecond),
			CaptureLength: len(data),
			Length:        len(data),
		}
		require.NoError(t, w.WritePacket(ci, data))
	}
	return path
}

func defaultConfig(t *testing.T) *config.GlobalConfig {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	return cfg
}

func TestRunEncodeNpy(t *testing.T) {
	dir := t.TempDir()
	cfg := defaultConfig(t)
	cfg.Input = writeCapture(t)
	cfg.Output.Path = filepath.Join(dir, "out.npy")
	cfg.SchemaPath = filepath.Join(dir, "cols.txt")
	cfg.Metrics.Textfile = filepath.Join(dir, "nprint.prom")

	var out bytes.Buffer
	require.NoError(t, runEncode(context.Background(), cfg, &out))
	assert.Contains(t, out.String(), "Encoded 3 of 3 packets into 2 flows (1024 columns)")

	f, err := os.Open(cfg.Output.Path)
	require.NoError(t, err)
	defer f.Close()
	var m mat.Dense
	require.NoError(t, npyio.Read(f, &m))
	rows, cols := m.Dims()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 1024, cols)

	// IPv4 version 4 is 0100, most significant bit first.
	assert.Equal(t, float64(0), m.At(0, 0))
	assert.Equal(t, float64(1), m.At(0, 1))
	for j := 960; j < 1024; j++ {
		assert.Equal(t, float64(-1), m.At(2, j), "udp column %d", j)
	}

	schema, err := os.ReadFile(cfg.SchemaPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(schema)), "\n")
	assert.Len(t, lines, 1024)
	assert.Equal(t, "ipv4_ver_0", lines[0])

	prom, err := os.ReadFile(cfg.Metrics.Textfile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "nprint_packets_total")
}

func TestRunEncodeCSVGroupByNone(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Input = writeCapture(t)
	cfg.Output.Path = stdoutPath
	cfg.Output.Format = "csv"
	cfg.GroupBy = "none"
	cfg.Anonymize = true

	var out bytes.Buffer
	require.NoError(t, runEncode(context.Background(), cfg, &out))

	records, err := csv.NewReader(&out).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, "flow", records[0][0])
	assert.Len(t, records[0], 1025)
	for _, rec := range records[1:] {
		assert.Equal(t, "all", rec[0])
	}
	// ipv4 source address (bits 96..127) is zeroed.
	assert.Equal(t, "0", records[1][1+96])
}

func TestRunEncodeMissingPaths(t *testing.T) {
	cfg := defaultConfig(t)
	err := runEncode(context.Background(), cfg, &bytes.Buffer{})
	assert.ErrorIs(t, err, core.ErrConfigInvalid)

	cfg.Input = writeCapture(t)
	err = runEncode(context.Background(), cfg, &bytes.Buffer{})
	assert.ErrorIs(t, err, core.ErrConfigInvalid)

	cfg.Input = filepath.Join(t.TempDir(), "missing.pcap")
	cfg.Output.Path = stdoutPath
	assert.Error(t, runEncode(context.Background(), cfg, &bytes.Buffer{}))
}

func TestRunSchemaText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, runSchema(core.Stack{core.ProtocolUDP}, "text", &buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 64)
	assert.Equal(t, "udp_sport_0", lines[0])
	assert.Equal(t, "udp_cksum_15", lines[63])
}

func TestRunSchemaYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, runSchema(core.Stack{core.ProtocolIPv4, core.ProtocolUDP}, "yaml", &buf))

	var doc stackSchema
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, 544, doc.Width)
	require.Len(t, doc.Protocols, 2)
	assert.Equal(t, "ipv4", doc.Protocols[0].Protocol)
	assert.Equal(t, 480, doc.Protocols[0].Width)
	assert.Equal(t, "udp", doc.Protocols[1].Protocol)
	assert.Equal(t, "udp_sport", doc.Protocols[1].Fields[0].Name)
	assert.Equal(t, 16, doc.Protocols[1].Fields[0].Width)
}

func TestRunSchemaBadFormat(t *testing.T) {
	err := runSchema(core.Stack{core.ProtocolTCP}, "xml", &bytes.Buffer{})
	assert.ErrorIs(t, err, core.ErrUnsupportedFormat)
}

func TestSchemaCommand(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"schema", "-p", "tcp,payload"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	require.NoError(t, rootCmd.Execute())
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, encoding.TCPWidth+encoding.PayloadWidth)
	assert.Equal(t, "tcp_sprt_0", lines[0])
}

func TestRunValidate(t *testing.T) {
	dir := t.TempDir()
	valid := filepath.Join(dir, "valid.yml")
	require.NoError(t, os.WriteFile(valid, []byte(`nprint:
  protocols: [ipv4, udp]
  output:
    format: csv
    compression: zstd
`), 0o644))

	var buf bytes.Buffer
	require.NoError(t, runValidate(valid, &buf))
	assert.Equal(t, "VALID: protocols=ipv4,udp width=544 group_by=flow output=csv/zstd\n", buf.String())

	invalid := filepath.Join(dir, "invalid.yml")
	require.NoError(t, os.WriteFile(invalid, []byte(`nprint:
  protocols: [ipv4, ipv4]
`), 0o644))
	err := runValidate(invalid, &bytes.Buffer{})
	assert.ErrorIs(t, err, core.ErrDuplicateProtocol)
	assert.Contains(t, err.Error(), "INVALID")
}

func TestEncodeFlagsBindToConfig(t *testing.T) {
	for name := range encodeFlagKeys {
		assert.NotNil(t, encodeCmd.Flags().Lookup(name), "flag %s", name)
	}
	assert.Equal(t, "zero IPv4 addresses and TCP ports", encodeCmd.Flags().Lookup("anonymize").Usage)
}
