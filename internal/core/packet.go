// Package core defines core data structures with zero external dependencies.
package core

import "time"

// RawPacket is one captured frame starting at the link-layer header.
type RawPacket struct {
	Data       []byte    // Raw frame data
	Timestamp  time.Time // Capture timestamp
	CaptureLen uint32    // Actual captured length
	OrigLen    uint32    // Original frame length
}
