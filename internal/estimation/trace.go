// Package estimation implements the two-phase Equilibrium Expectation
// parameter estimation controller: Algorithm S bootstraps the parameter
// vector and per-parameter derivative scales without mutating the graph,
// then Algorithm EE refines the parameters with persisted MCMC moves and
// adaptive step-size rescaling. The Run driver sequences a full estimation
// from configuration to diagnostic and result output.
package estimation

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Trace is one line-oriented diagnostic stream: a header row naming every
// column, then one row per retained iteration. Each run owns its traces;
// they are never shared across runs.
type Trace struct {
	f *os.File
	w *bufio.Writer
}

// NewTrace writes the header row to w and returns a trace over it. The
// iteration-index column "t" is implicit and always first.
func NewTrace(w io.Writer, cols []string) (*Trace, error) {
	t := &Trace{w: bufio.NewWriter(w)}
	if _, err := fmt.Fprintf(t.w, "t %s\n", strings.Join(cols, " ")); err != nil {
		return nil, fmt.Errorf("writing trace header: %w", err)
	}
	return t, nil
}

// CreateTrace creates the file at path and writes the header row.
func CreateTrace(path string, cols []string) (*Trace, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating trace file: %w", err)
	}
	t, err := NewTrace(f, cols)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	t.f = f
	return t, nil
}

// Row writes one data row: the iteration index followed by the values.
func (t *Trace) Row(index int, values []float64) {
	fmt.Fprintf(t.w, "%d", index)
	for _, v := range values {
		fmt.Fprintf(t.w, " %g", v)
	}
	t.w.WriteByte('\n')
}

// Flush flushes buffered rows and reports any write error seen so far.
func (t *Trace) Flush() error {
	if err := t.w.Flush(); err != nil {
		return fmt.Errorf("writing trace: %w", err)
	}
	return nil
}

// Close flushes and, when the trace owns a file, closes it.
func (t *Trace) Close() error {
	if err := t.Flush(); err != nil {
		if t.f != nil {
			t.f.Close()
		}
		return err
	}
	if t.f != nil {
		if err := t.f.Close(); err != nil {
			return fmt.Errorf("closing trace: %w", err)
		}
	}
	return nil
}
