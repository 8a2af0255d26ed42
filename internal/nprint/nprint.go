// Package nprint accumulates the per-packet encodings of one flow.
package nprint

import (
	"fmt"

	"firestige.xyz/nprint/internal/core"
	"firestige.xyz/nprint/internal/core/decoder"
	"firestige.xyz/nprint/internal/encoding"
)

// Nprint holds the HeaderSets of one flow under a fixed protocol stack.
// It is not safe for concurrent use.
type Nprint struct {
	stack core.Stack
	width int
	sets  []HeaderSet
}

// New validates stack and encodes the first frame of a flow.
func New(frame []byte, stack core.Stack) (*Nprint, error) {
	n, err := newEmpty(stack)
	if err != nil {
		return nil, err
	}
	n.Add(frame)
	return n, nil
}

// NewFromHeaders is New for a frame that was already demultiplexed.
func NewFromHeaders(h decoder.Headers, stack core.Stack) (*Nprint, error) {
	n, err := newEmpty(stack)
	if err != nil {
		return nil, err
	}
	n.AddHeaders(h)
	return n, nil
}

func newEmpty(stack core.Stack) (*Nprint, error) {
	if err := stack.Validate(); err != nil {
		return nil, fmt.Errorf("create nprint: %w", err)
	}
	stack = stack.Clone()
	return &Nprint{
		stack: stack,
		width: encoding.StackWidth(stack),
	}, nil
}

// Add encodes one more frame of the flow.
func (n *Nprint) Add(frame []byte) {
	n.AddHeaders(decoder.Demux(frame))
}

// AddHeaders appends a frame that was already demultiplexed.
func (n *Nprint) AddHeaders(h decoder.Headers) {
	n.sets = append(n.sets, buildFromHeaders(h, n.stack))
}

// Count returns the number of packets accumulated.
func (n *Nprint) Count() int {
	return len(n.sets)
}

// Stack returns a copy of the protocol stack.
func (n *Nprint) Stack() core.Stack {
	return n.stack.Clone()
}

// Width is the per-packet width.
func (n *Nprint) Width() int {
	return n.width
}

// HeaderSets returns the stored sets in arrival order.
func (n *Nprint) HeaderSets() []HeaderSet {
	return n.sets
}

// Last returns the most recently added set.
func (n *Nprint) Last() HeaderSet {
	return n.sets[len(n.sets)-1]
}

// Flatten concatenates every packet, packet-major.
func (n *Nprint) Flatten() []float32 {
	out := make([]float32, 0, len(n.sets)*n.width)
	for _, hs := range n.sets {
		out = hs.AppendTo(out)
	}
	return out
}

// Rows returns one row of Width values per packet. Rows share one backing
// array with each other but not with the Nprint.
func (n *Nprint) Rows() [][]float32 {
	flat := n.Flatten()
	rows := make([][]float32, len(n.sets))
	for i := range rows {
		rows[i] = flat[i*n.width : (i+1)*n.width : (i+1)*n.width]
	}
	return rows
}

// Anonymize zeroes addresses and ports of every stored packet. Calling it
// again has no further effect.
func (n *Nprint) Anonymize() {
	for _, hs := range n.sets {
		hs.Anonymize()
	}
}

// Schema names the columns of one packet. Flatten output repeats this
// layout once per packet.
func (n *Nprint) Schema() []string {
	return Schema(n.stack)
}

// Schema names the columns of one packet encoded under stack.
func Schema(stack core.Stack) []string {
	return encoding.Columns(stack)
}
