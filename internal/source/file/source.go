// Package file reads frames from pcap and pcapng capture files.
package file

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"firestige.xyz/nprint/internal/core"
)

var pcapngMagic = []byte{0x0A, 0x0D, 0x0D, 0x0A}

type packetReader interface {
	ReadPacketData() ([]byte, gopacket.CaptureInfo, error)
	LinkType() layers.LinkType
}

// Source yields the frames of one capture file in file order.
type Source struct {
	path   string
	file   *os.File
	reader packetReader
}

// Open opens path and detects pcap or pcapng from its magic number.
func Open(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open capture %s: %w", path, err)
	}

	reader, err := newReader(bufio.NewReader(f))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("read capture header %s: %w", path, err)
	}

	s := &Source{path: path, file: f, reader: reader}
	if lt := reader.LinkType(); lt != layers.LinkTypeEthernet {
		slog.Warn("capture is not ethernet, frames will encode as defaults",
			"path", path, "link_type", lt.String())
	}
	return s, nil
}

func newReader(r *bufio.Reader) (packetReader, error) {
	magic, err := r.Peek(len(pcapngMagic))
	if err != nil {
		return nil, err
	}
	if bytes.Equal(magic, pcapngMagic) {
		ng, err := pcapgo.NewNgReader(r, pcapgo.DefaultNgReaderOptions)
		if err != nil {
			return nil, err
		}
		return ng, nil
	}
	pr, err := pcapgo.NewReader(r)
	if err != nil {
		return nil, err
	}
	return pr, nil
}

// Next returns the next frame, or io.EOF after the last one.
func (s *Source) Next() (core.RawPacket, error) {
	data, ci, err := s.reader.ReadPacketData()
	if err != nil {
		if err == io.EOF {
			return core.RawPacket{}, io.EOF
		}
		return core.RawPacket{}, fmt.Errorf("read packet from %s: %w", s.path, err)
	}
	return core.RawPacket{
		Data:       data,
		Timestamp:  ci.Timestamp,
		CaptureLen: uint32(ci.CaptureLength),
		OrigLen:    uint32(ci.Length),
	}, nil
}

// LinkType returns the link type declared by the capture.
func (s *Source) LinkType() layers.LinkType {
	return s.reader.LinkType()
}

// Close closes the underlying file.
func (s *Source) Close() error {
	return s.file.Close()
}
