package graph

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// AttachZones attaches snowball sampling wave numbers to the graph, one per
// node. Zones must be 0-based and contiguous (every wave up to the maximum
// must be non-empty), and no existing tie may span more than one wave: a
// snowball sample cannot contain such a tie, so one indicates the zone file
// does not belong to this network.
func (g *Digraph) AttachZones(zones []int) error {
	if len(zones) != g.n {
		return fmt.Errorf("graph: %d zone values for %d nodes", len(zones), g.n)
	}
	maxZone := 0
	for v, z := range zones {
		if z < 0 {
			return fmt.Errorf("graph: negative zone %d for node %d", z, v)
		}
		if z > maxZone {
			maxZone = z
		}
	}
	waveSizes := make([]int, maxZone+1)
	for _, z := range zones {
		waveSizes[z]++
	}
	for z, size := range waveSizes {
		if size == 0 {
			return fmt.Errorf("graph: wave %d is empty, zones must be contiguous", z)
		}
	}

	for i := range g.out {
		for j := range g.out[i] {
			if d := zones[i] - zones[j]; d > 1 || d < -1 {
				return fmt.Errorf("graph: arc %d->%d spans waves %d and %d",
					i, j, zones[i], zones[j])
			}
		}
	}

	g.zones = zones
	g.maxZone = maxZone
	g.innerNodes = nil
	for v, z := range zones {
		if z < maxZone {
			g.innerNodes = append(g.innerNodes, v)
		}
	}

	// Preceding-wave tie counts, direction-agnostic over the current arcs.
	g.prevWaveDeg = make([]int, g.n)
	for i := range g.out {
		for j := range g.out[i] {
			if g.ArcExists(j, i) && j < i {
				continue // count a reciprocated pair once
			}
			switch {
			case zones[i] == zones[j]+1:
				g.prevWaveDeg[i]++
			case zones[j] == zones[i]+1:
				g.prevWaveDeg[j]++
			}
		}
	}
	return nil
}

// HasZones reports whether snowball zone metadata is attached.
func (g *Digraph) HasZones() bool { return g.zones != nil }

// Zone returns the wave number of node v.
func (g *Digraph) Zone(v int) int { return g.zones[v] }

// MaxZone returns the highest wave number.
func (g *Digraph) MaxZone() int { return g.maxZone }

// InnerNodes returns the nodes in waves before the outermost. Ties incident
// only to the outermost wave are fixed under conditional estimation.
func (g *Digraph) InnerNodes() []int { return g.innerNodes }

// NumInnerNodes returns len(InnerNodes()).
func (g *Digraph) NumInnerNodes() int { return len(g.innerNodes) }

// PrecedingWaveDegree returns the number of direction-agnostic ties from
// node v to nodes in the immediately preceding wave.
func (g *Digraph) PrecedingWaveDegree(v int) int { return g.prevWaveDeg[v] }

// ZoneSummary returns wave sizes for logging, e.g. "wave 0: 5 nodes, ...".
func (g *Digraph) ZoneSummary() string {
	if g.zones == nil {
		return "no snowball zones"
	}
	sizes := make([]int, g.maxZone+1)
	for _, z := range g.zones {
		sizes[z]++
	}
	parts := make([]string, len(sizes))
	for z, size := range sizes {
		parts[z] = fmt.Sprintf("wave %d: %d nodes", z, size)
	}
	return strings.Join(parts, ", ")
}

// ParseZones reads a zone file: one integer wave number per line, one line
// per node in node order. Blank lines and lines starting with '#' or '*'
// are skipped (some zone files carry a Pajek-style header).
func ParseZones(r io.Reader) ([]int, error) {
	var zones []int
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") || strings.HasPrefix(text, "*") {
			continue
		}
		z, err := strconv.Atoi(text)
		if err != nil {
			return nil, fmt.Errorf("zone file line %d: %q is not an integer", line, text)
		}
		zones = append(zones, z)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading zone file: %w", err)
	}
	return zones, nil
}

// LoadZoneFile reads a zone file and attaches the zones to the graph.
func (g *Digraph) LoadZoneFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening zone file: %w", err)
	}
	defer f.Close()
	zones, err := ParseZones(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return g.AttachZones(zones)
}
