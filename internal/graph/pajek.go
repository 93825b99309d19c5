package graph

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// LoadArcList reads a Pajek-style arc list:
//
//	*vertices N
//	...ignored vertex lines...
//	*arcs
//	i j
//	...
//
// Node ids in the file are 1-based; the returned graph uses 0-based ids.
// Duplicate arcs are ignored, matching the boolean arc multiplicity.
func LoadArcList(r io.Reader) (*Digraph, error) {
	sc := bufio.NewScanner(r)

	var g *Digraph
	inArcs := false
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		lower := strings.ToLower(text)
		switch {
		case strings.HasPrefix(lower, "*vertices"):
			fields := strings.Fields(text)
			if len(fields) < 2 {
				return nil, fmt.Errorf("arc list line %d: *vertices without a count", line)
			}
			n, err := strconv.Atoi(fields[1])
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("arc list line %d: bad vertex count %q", line, fields[1])
			}
			g = New(n)
		case strings.HasPrefix(lower, "*arcs"):
			if g == nil {
				return nil, fmt.Errorf("arc list line %d: *arcs before *vertices", line)
			}
			inArcs = true
		case strings.HasPrefix(text, "*"):
			inArcs = false // some other Pajek section, e.g. *edges
		case inArcs:
			fields := strings.Fields(text)
			if len(fields) < 2 {
				return nil, fmt.Errorf("arc list line %d: expected \"i j\", got %q", line, text)
			}
			i, err1 := strconv.Atoi(fields[0])
			j, err2 := strconv.Atoi(fields[1])
			if err1 != nil || err2 != nil {
				return nil, fmt.Errorf("arc list line %d: bad arc %q", line, text)
			}
			if i < 1 || i > g.n || j < 1 || j > g.n {
				return nil, fmt.Errorf("arc list line %d: node id out of range in %q", line, text)
			}
			if i == j {
				return nil, fmt.Errorf("arc list line %d: self-loop %d->%d", line, i, j)
			}
			if !g.ArcExists(i-1, j-1) {
				g.InsertArc(i-1, j-1)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading arc list: %w", err)
	}
	if g == nil {
		return nil, fmt.Errorf("arc list has no *vertices section")
	}
	return g, nil
}

// LoadArcListFile reads a Pajek arc list from path.
func LoadArcListFile(path string) (*Digraph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening arc list: %w", err)
	}
	defer f.Close()
	g, err := LoadArcList(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// WriteArcList writes the graph in the same Pajek arc list format that
// LoadArcList reads, with 1-based node ids.
func (g *Digraph) WriteArcList(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "*vertices %d\n*arcs\n", g.n)
	for i := 0; i < g.n; i++ {
		for j := range g.out[i] {
			fmt.Fprintf(bw, "%d %d\n", i+1, j+1)
		}
	}
	return bw.Flush()
}

// WriteArcListFile writes the graph to path in Pajek arc list format.
func (g *Digraph) WriteArcListFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating arc list file: %w", err)
	}
	if err := g.WriteArcList(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}
