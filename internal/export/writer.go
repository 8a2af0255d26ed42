// Package export writes encoded flows to .npy or CSV files.
package export

import (
	"errors"
	"fmt"
	"io"
	"os"

	"firestige.xyz/nprint/internal/core"
)

// Output formats
const (
	FormatNpy = "npy"
	FormatCSV = "csv"
)

// Writer receives the rows of one flow at a time. Every row has the same
// width. Close must be called to flush buffered output.
type Writer interface {
	WriteFlow(flow string, rows [][]float32) error
	Close() error
}

// Options selects the output encoding.
type Options struct {
	Format      string
	Compression string
	// Columns names the values of one row.
	Columns []string
}

// New returns a Writer for format that writes to w through the requested
// compression. Closing the Writer does not close w.
func New(w io.Writer, opts Options) (Writer, error) {
	cw, err := Compress(w, opts.Compression)
	if err != nil {
		return nil, err
	}

	switch opts.Format {
	case "", FormatNpy:
		return newNpyWriter(cw, len(opts.Columns)), nil
	case FormatCSV:
		return newCSVWriter(cw, opts.Columns)
	default:
		cw.Close()
		return nil, fmt.Errorf("%w: %q", core.ErrUnsupportedFormat, opts.Format)
	}
}

type fileWriter struct {
	Writer
	file *os.File
}

func (f *fileWriter) Close() error {
	return errors.Join(f.Writer.Close(), f.file.Close())
}

// Create opens path for writing and returns a Writer on it. The file is
// closed together with the Writer.
func Create(path string, opts Options) (Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output %s: %w", path, err)
	}
	w, err := New(f, opts)
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, err
	}
	return &fileWriter{Writer: w, file: f}, nil
}
