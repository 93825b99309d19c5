package effects

import (
	"fmt"
	"math"
	"strings"

	"github.com/kyuyeonrhee/EstimNetDirected/internal/graph"
)

// earthRadiusKm is the mean Earth radius used by the GeoDistance effect.
const earthRadiusKm = 6371.0

// Dyadic computes a dyadic-covariate change statistic. The covariate is
// derived from continuous attribute columns bound at model build time.
// A missing coordinate on either endpoint contributes zero.
type Dyadic interface {
	Change(g *graph.Digraph, i, j int) float64
}

// euclideanDistance is the straight-line distance covariate over x/y/z
// coordinate columns.
type euclideanDistance struct {
	x, y, z int
}

func (e euclideanDistance) Change(g *graph.Digraph, i, j int) float64 {
	dx := g.ContinuousAttr(e.x)[i] - g.ContinuousAttr(e.x)[j]
	dy := g.ContinuousAttr(e.y)[i] - g.ContinuousAttr(e.y)[j]
	dz := g.ContinuousAttr(e.z)[i] - g.ContinuousAttr(e.z)[j]
	d := math.Sqrt(dx*dx + dy*dy + dz*dz)
	if math.IsNaN(d) {
		return 0
	}
	return d
}

// geoDistance is the great-circle distance covariate in kilometres over
// latitude/longitude columns given in degrees, using the haversine formula.
type geoDistance struct {
	lat, lon int
}

func (e geoDistance) Change(g *graph.Digraph, i, j int) float64 {
	lat1 := g.ContinuousAttr(e.lat)[i] * math.Pi / 180
	lat2 := g.ContinuousAttr(e.lat)[j] * math.Pi / 180
	dLat := lat2 - lat1
	dLon := (g.ContinuousAttr(e.lon)[j] - g.ContinuousAttr(e.lon)[i]) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	if math.IsNaN(a) {
		return 0
	}
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// NewDyadic resolves a dyadic effect name against the continuous attribute
// column indices it is computed from. EuclideanDistance takes three columns
// (x, y, z); GeoDistance takes two (latitude, longitude).
func NewDyadic(name string, cols []int) (Dyadic, string, error) {
	switch strings.ToLower(name) {
	case "euclideandistance":
		if len(cols) != 3 {
			return nil, "", fmt.Errorf("EuclideanDistance needs 3 attribute columns (x, y, z), got %d", len(cols))
		}
		return euclideanDistance{cols[0], cols[1], cols[2]}, "EuclideanDistance", nil
	case "geodistance":
		if len(cols) != 2 {
			return nil, "", fmt.Errorf("GeoDistance needs 2 attribute columns (latitude, longitude), got %d", len(cols))
		}
		return geoDistance{cols[0], cols[1]}, "GeoDistance", nil
	default:
		return nil, "", fmt.Errorf("unknown dyadic effect %q", name)
	}
}
