// Package metrics implements Prometheus metrics.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PacketsTotal counts frames read from the source
	PacketsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nprint_packets_total",
			Help: "Total number of frames read",
		},
	)

	// FlowsTotal counts flows created by the flow table
	FlowsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nprint_flows_total",
			Help: "Total number of flows created",
		},
	)

	// PacketsDroppedTotal counts frames that were read but not encoded
	PacketsDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nprint_packets_dropped_total",
			Help: "Total number of frames not encoded",
		},
		[]string{"reason"},
	)

	// ProtocolDefaultedTotal counts configured protocols that fell back to the default vector
	ProtocolDefaultedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nprint_protocol_defaulted_total",
			Help: "Total number of protocol vectors replaced by the default vector",
		},
		[]string{"protocol"},
	)
)

// Drop reasons
const (
	DropReasonMaxPackets = "max_packets"
	DropReasonReadError  = "read_error"
)

// WriteTextfile writes the default registry in the node_exporter textfile
// format. The file is replaced atomically.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
