package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// csvWriter writes a "flow,<columns...>" header and one record per packet.
type csvWriter struct {
	w      io.WriteCloser
	csv    *csv.Writer
	cols   int
	record []string
}

func newCSVWriter(w io.WriteCloser, columns []string) (*csvWriter, error) {
	c := &csvWriter{
		w:      w,
		csv:    csv.NewWriter(w),
		cols:   len(columns),
		record: make([]string, len(columns)+1),
	}
	header := append([]string{"flow"}, columns...)
	if err := c.csv.Write(header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	return c, nil
}

func (c *csvWriter) WriteFlow(flow string, rows [][]float32) error {
	for _, row := range rows {
		if len(row) != c.cols {
			return fmt.Errorf("csv row has %d values, want %d", len(row), c.cols)
		}
		c.record[0] = flow
		for i, v := range row {
			c.record[i+1] = strconv.FormatFloat(float64(v), 'f', -1, 32)
		}
		if err := c.csv.Write(c.record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	return nil
}

func (c *csvWriter) Close() error {
	c.csv.Flush()
	if err := c.csv.Error(); err != nil {
		c.w.Close()
		return fmt.Errorf("flush csv: %w", err)
	}
	return c.w.Close()
}
