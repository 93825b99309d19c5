package graph

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// AttrNA is the sentinel for a missing binary or categorical attribute
// value. Missing continuous values are stored as NaN.
const AttrNA = -1.0

// attrColumn is one named attribute column, one value per node.
type attrColumn struct {
	name   string
	values []float64
}

// attrKind selects the parsing and NA rules for an attribute file.
type attrKind int

const (
	attrBinary attrKind = iota
	attrCategorical
	attrContinuous
)

func (k attrKind) String() string {
	switch k {
	case attrBinary:
		return "binary"
	case attrCategorical:
		return "categorical"
	default:
		return "continuous"
	}
}

// BinaryAttr returns binary attribute column idx; values are 0, 1 or AttrNA.
func (g *Digraph) BinaryAttr(idx int) []float64 { return g.binAttrs[idx].values }

// CategoricalAttr returns categorical column idx; values are non-negative
// category codes or AttrNA.
func (g *Digraph) CategoricalAttr(idx int) []float64 { return g.catAttrs[idx].values }

// ContinuousAttr returns continuous column idx; missing values are NaN.
func (g *Digraph) ContinuousAttr(idx int) []float64 { return g.contAttrs[idx].values }

// BinaryAttrIndex resolves a binary attribute name to its column index.
func (g *Digraph) BinaryAttrIndex(name string) (int, bool) {
	return findColumn(g.binAttrs, name)
}

// CategoricalAttrIndex resolves a categorical attribute name to its column index.
func (g *Digraph) CategoricalAttrIndex(name string) (int, bool) {
	return findColumn(g.catAttrs, name)
}

// ContinuousAttrIndex resolves a continuous attribute name to its column index.
func (g *Digraph) ContinuousAttrIndex(name string) (int, bool) {
	return findColumn(g.contAttrs, name)
}

func findColumn(cols []attrColumn, name string) (int, bool) {
	for i, c := range cols {
		if strings.EqualFold(c.name, name) {
			return i, true
		}
	}
	return 0, false
}

// parseAttributes reads a whitespace-delimited attribute file: a header row
// of attribute names followed by one row per node in node order.
func parseAttributes(r io.Reader, kind attrKind, numNodes int) ([]attrColumn, error) {
	sc := bufio.NewScanner(r)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("reading %s attribute header: %w", kind, err)
		}
		return nil, fmt.Errorf("%s attribute file is empty", kind)
	}
	names := strings.Fields(sc.Text())
	if len(names) == 0 {
		return nil, fmt.Errorf("%s attribute file has an empty header", kind)
	}

	cols := make([]attrColumn, len(names))
	for i, name := range names {
		cols[i] = attrColumn{name: name, values: make([]float64, 0, numNodes)}
	}

	row := 0
	for sc.Scan() {
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != len(names) {
			return nil, fmt.Errorf("%s attribute row %d has %d values, header has %d",
				kind, row+1, len(fields), len(names))
		}
		for i, field := range fields {
			v, err := parseAttrValue(field, kind)
			if err != nil {
				return nil, fmt.Errorf("%s attribute %q row %d: %w", kind, names[i], row+1, err)
			}
			cols[i].values = append(cols[i].values, v)
		}
		row++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading %s attribute file: %w", kind, err)
	}
	if row != numNodes {
		return nil, fmt.Errorf("%s attribute file has %d rows for %d nodes", kind, row, numNodes)
	}
	return cols, nil
}

func parseAttrValue(field string, kind attrKind) (float64, error) {
	if strings.EqualFold(field, "NA") {
		if kind == attrContinuous {
			return math.NaN(), nil
		}
		return AttrNA, nil
	}
	switch kind {
	case attrBinary:
		switch field {
		case "0":
			return 0, nil
		case "1":
			return 1, nil
		}
		return 0, fmt.Errorf("%q is not 0, 1 or NA", field)
	case attrCategorical:
		n, err := strconv.Atoi(field)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("%q is not a non-negative integer or NA", field)
		}
		return float64(n), nil
	default:
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not a number or NA", field)
		}
		return v, nil
	}
}

// LoadBinaryAttrFile loads a binary attribute file into the graph.
func (g *Digraph) LoadBinaryAttrFile(path string) error {
	return g.loadAttrFile(path, attrBinary)
}

// LoadCategoricalAttrFile loads a categorical attribute file into the graph.
func (g *Digraph) LoadCategoricalAttrFile(path string) error {
	return g.loadAttrFile(path, attrCategorical)
}

// LoadContinuousAttrFile loads a continuous attribute file into the graph.
func (g *Digraph) LoadContinuousAttrFile(path string) error {
	return g.loadAttrFile(path, attrContinuous)
}

func (g *Digraph) loadAttrFile(path string, kind attrKind) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s attribute file: %w", kind, err)
	}
	defer f.Close()
	cols, err := parseAttributes(f, kind, g.n)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	switch kind {
	case attrBinary:
		g.binAttrs = append(g.binAttrs, cols...)
	case attrCategorical:
		g.catAttrs = append(g.catAttrs, cols...)
	default:
		g.contAttrs = append(g.contAttrs, cols...)
	}
	return nil
}
