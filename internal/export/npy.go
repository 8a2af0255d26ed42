package export

import (
	"fmt"
	"io"

	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"
)

// npyWriter collects every row and writes one 2-D float64 array on Close,
// shaped (packets, columns).
type npyWriter struct {
	w    io.WriteCloser
	cols int
	data []float64
	rows int
}

func newNpyWriter(w io.WriteCloser, cols int) *npyWriter {
	return &npyWriter{w: w, cols: cols}
}

func (n *npyWriter) WriteFlow(_ string, rows [][]float32) error {
	for _, row := range rows {
		if len(row) != n.cols {
			return fmt.Errorf("npy row has %d values, want %d", len(row), n.cols)
		}
		for _, v := range row {
			n.data = append(n.data, float64(v))
		}
		n.rows++
	}
	return nil
}

func (n *npyWriter) Close() error {
	var err error
	if n.rows == 0 || n.cols == 0 {
		// mat.Dense cannot be empty.
		err = npyio.Write(n.w, []float64{})
	} else {
		err = npyio.Write(n.w, mat.NewDense(n.rows, n.cols, n.data))
	}
	if err != nil {
		n.w.Close()
		return fmt.Errorf("write npy: %w", err)
	}
	return n.w.Close()
}
