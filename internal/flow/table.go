package flow

import (
	"fmt"
	"log/slog"

	"firestige.xyz/nprint/internal/core"
	"firestige.xyz/nprint/internal/core/decoder"
	"firestige.xyz/nprint/internal/metrics"
	"firestige.xyz/nprint/internal/nprint"
)

// Grouping modes
const (
	GroupByFlow = "flow"
	GroupByNone = "none"

	allFlows = "all"
)

// Config controls how a Table groups frames.
type Config struct {
	Stack core.Stack
	// MaxPackets caps the packets kept per flow; 0 keeps everything.
	MaxPackets int
	GroupBy    string
}

// Flow is one group of frames and its encoding.
type Flow struct {
	Key    Key
	Name   string // Key.String(), or "all" when grouping is off
	Nprint *nprint.Nprint
}

// Table maps frames to flows. It is not safe for concurrent use.
type Table struct {
	cfg     Config
	flows   map[Key]*Flow
	order   []*Flow
	dropped int
}

// NewTable validates cfg and returns an empty table.
func NewTable(cfg Config) (*Table, error) {
	if err := cfg.Stack.Validate(); err != nil {
		return nil, fmt.Errorf("create flow table: %w", err)
	}
	switch cfg.GroupBy {
	case "":
		cfg.GroupBy = GroupByFlow
	case GroupByFlow, GroupByNone:
	default:
		return nil, fmt.Errorf("%w: group_by %q", core.ErrConfigInvalid, cfg.GroupBy)
	}
	if cfg.MaxPackets < 0 {
		return nil, fmt.Errorf("%w: max_packets %d", core.ErrConfigInvalid, cfg.MaxPackets)
	}
	cfg.Stack = cfg.Stack.Clone()

	return &Table{
		cfg:   cfg,
		flows: make(map[Key]*Flow),
	}, nil
}

// Add encodes frame into its flow. It returns false when the flow already
// holds MaxPackets packets and the frame was dropped.
func (t *Table) Add(frame []byte) (bool, error) {
	h := decoder.Demux(frame)

	var key Key
	if t.cfg.GroupBy == GroupByFlow {
		key = KeyOf(h)
	}

	f, ok := t.flows[key]
	switch {
	case !ok:
		n, err := nprint.NewFromHeaders(h, t.cfg.Stack)
		if err != nil {
			return false, err
		}
		f = &Flow{Key: key, Name: key.String(), Nprint: n}
		if t.cfg.GroupBy == GroupByNone {
			f.Name = allFlows
		}
		t.flows[key] = f
		t.order = append(t.order, f)
		metrics.FlowsTotal.Inc()
		slog.Debug("new flow", "key", key.String())
	case t.cfg.MaxPackets > 0 && f.Nprint.Count() >= t.cfg.MaxPackets:
		t.dropped++
		metrics.PacketsDroppedTotal.WithLabelValues(metrics.DropReasonMaxPackets).Inc()
		return false, nil
	default:
		f.Nprint.AddHeaders(h)
	}

	last := f.Nprint.Last()
	for _, p := range t.cfg.Stack {
		if !last.Present(p) {
			metrics.ProtocolDefaultedTotal.WithLabelValues(p.String()).Inc()
		}
	}
	return true, nil
}

// Flows returns the flows in the order their first frame was seen.
func (t *Table) Flows() []*Flow {
	return t.order
}

// Len returns the number of flows.
func (t *Table) Len() int {
	return len(t.order)
}

// Packets returns the number of encoded packets across all flows.
func (t *Table) Packets() int {
	n := 0
	for _, f := range t.order {
		n += f.Nprint.Count()
	}
	return n
}

// Dropped returns the number of frames rejected by the MaxPackets cap.
func (t *Table) Dropped() int {
	return t.dropped
}

// Stack returns the table's protocol stack.
func (t *Table) Stack() core.Stack {
	return t.cfg.Stack.Clone()
}

// Anonymize anonymizes every flow.
func (t *Table) Anonymize() {
	for _, f := range t.order {
		f.Nprint.Anonymize()
	}
}
