// Package pipeline runs one encode job: read frames, group them into
// flows, encode and write the rows.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"firestige.xyz/nprint/internal/core"
	"firestige.xyz/nprint/internal/export"
	"firestige.xyz/nprint/internal/flow"
	"firestige.xyz/nprint/internal/metrics"
)

// Source yields raw frames until io.EOF.
type Source interface {
	Next() (core.RawPacket, error)
}

// Config contains pipeline configuration.
type Config struct {
	Source     Source
	Flow       flow.Config
	Anonymize  bool
	Writer     export.Writer
	BufferSize int // Raw packet channel buffer size
}

// Pipeline reads on one goroutine and encodes on the caller's.
type Pipeline struct {
	source    Source
	table     *flow.Table
	writer    export.Writer
	anonymize bool
	metrics   Metrics

	wg            sync.WaitGroup
	rawPacketChan chan core.RawPacket
}

// New creates a new pipeline.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Source == nil || cfg.Writer == nil {
		return nil, fmt.Errorf("%w: pipeline needs a source and a writer", core.ErrConfigInvalid)
	}
	if cfg.BufferSize == 0 {
		cfg.BufferSize = 1024
	}

	table, err := flow.NewTable(cfg.Flow)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		source:        cfg.Source,
		table:         table,
		writer:        cfg.Writer,
		anonymize:     cfg.Anonymize,
		rawPacketChan: make(chan core.RawPacket, cfg.BufferSize),
	}, nil
}

// Run consumes the source, then writes every flow in first-seen order.
// Flows are only written when the source was read to the end; a cancelled
// ctx returns its error and writes nothing. The writer is not closed.
func (p *Pipeline) Run(ctx context.Context) (Stats, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	slog.Info("pipeline starting", "stack", p.table.Stack().String())

	p.wg.Add(1)
	go p.captureLoop(ctx)

	processErr := p.processLoop(ctx)
	cancel()
	p.wg.Wait()

	if processErr != nil {
		return p.Stats(), processErr
	}

	if p.anonymize {
		p.table.Anonymize()
	}
	for _, f := range p.table.Flows() {
		if err := p.writer.WriteFlow(f.Name, f.Nprint.Rows()); err != nil {
			return p.Stats(), fmt.Errorf("write flow %s: %w", f.Name, err)
		}
	}

	stats := p.Stats()
	slog.Info("pipeline finished",
		"packets", stats.Received, "encoded", stats.Encoded,
		"dropped", stats.Dropped, "flows", stats.Flows)
	return stats, nil
}

// captureLoop reads frames from the source and sends them to the process loop.
func (p *Pipeline) captureLoop(ctx context.Context) {
	defer p.wg.Done()
	// Close channel when capture ends
	defer close(p.rawPacketChan)

	for {
		raw, err := p.source.Next()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			// A damaged capture keeps what was read so far.
			p.metrics.ReadErrors.Add(1)
			metrics.PacketsDroppedTotal.WithLabelValues(metrics.DropReasonReadError).Inc()
			slog.Warn("capture read failed, stopping", "error", err)
			return
		}

		p.metrics.Received.Add(1)
		metrics.PacketsTotal.Inc()

		select {
		case p.rawPacketChan <- raw:
		case <-ctx.Done():
			return
		}
	}
}

// processLoop is the main processing loop.
func (p *Pipeline) processLoop(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()

		case raw, ok := <-p.rawPacketChan:
			if !ok {
				// Channel closed: source exhausted or capture cancelled
				return ctx.Err()
			}
			added, err := p.table.Add(raw.Data)
			if err != nil {
				return err
			}
			if added {
				p.metrics.Encoded.Add(1)
			} else {
				p.metrics.Dropped.Add(1)
			}
		}
	}
}

// Stats returns pipeline statistics.
func (p *Pipeline) Stats() Stats {
	return Stats{
		Received:   p.metrics.Received.Load(),
		Encoded:    p.metrics.Encoded.Load(),
		Dropped:    p.metrics.Dropped.Load(),
		ReadErrors: p.metrics.ReadErrors.Load(),
		Flows:      p.table.Len(),
	}
}
