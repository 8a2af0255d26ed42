package pipeline

import (
	"sync/atomic"
)

// Metrics contains per-run counters. The capture and process loops update
// them from different goroutines.
type Metrics struct {
	Received   atomic.Uint64
	Encoded    atomic.Uint64
	Dropped    atomic.Uint64
	ReadErrors atomic.Uint64
}

// Stats represents pipeline statistics.
type Stats struct {
	Received   uint64
	Encoded    uint64
	Dropped    uint64
	ReadErrors uint64
	Flows      int
}
