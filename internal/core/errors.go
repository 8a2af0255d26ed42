package core

import "errors"

// Sentinel errors shared across packages. Callers match them with errors.Is.
var (
	// Packet decoding errors
	ErrPacketTooShort = errors.New("nprint: packet too short")

	// Protocol stack errors
	ErrEmptyStack        = errors.New("nprint: empty protocol stack")
	ErrDuplicateProtocol = errors.New("nprint: duplicate protocol in stack")
	ErrUnknownProtocol   = errors.New("nprint: unknown protocol")

	// Configuration errors
	ErrConfigInvalid = errors.New("nprint: invalid configuration")

	// Export errors
	ErrUnsupportedFormat = errors.New("nprint: unsupported output format")
)
