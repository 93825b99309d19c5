package effects

import (
	"fmt"
	"math"
	"strings"

	"github.com/kyuyeonrhee/EstimNetDirected/internal/graph"
)

// AttrFamily identifies which nodal attribute family an attribute effect
// binds to, and therefore which attribute file its column is resolved from.
type AttrFamily int

const (
	FamilyBinary AttrFamily = iota
	FamilyCategorical
	FamilyContinuous
)

func (f AttrFamily) String() string {
	switch f {
	case FamilyBinary:
		return "binary"
	case FamilyCategorical:
		return "categorical"
	default:
		return "continuous"
	}
}

// Attribute computes a nodal-attribute change statistic for the attribute
// column it was bound to at model build time. A missing attribute value on
// either endpoint contributes zero.
type Attribute interface {
	Change(g *graph.Digraph, i, j, attrIndex int) float64
	Family() AttrFamily
}

type attributeEffect struct {
	family AttrFamily
	fn     func(g *graph.Digraph, i, j, attrIndex int) float64
}

func (e attributeEffect) Change(g *graph.Digraph, i, j, attrIndex int) float64 {
	return e.fn(g, i, j, attrIndex)
}

func (e attributeEffect) Family() AttrFamily { return e.family }

// changeSender is the binary activity effect of the sending node.
func changeSender(g *graph.Digraph, i, _, idx int) float64 {
	if g.BinaryAttr(idx)[i] == 1 {
		return 1
	}
	return 0
}

// changeReceiver is the binary popularity effect of the receiving node.
func changeReceiver(g *graph.Digraph, _, j, idx int) float64 {
	if g.BinaryAttr(idx)[j] == 1 {
		return 1
	}
	return 0
}

// changeInteraction counts arcs between two nodes that both have the
// binary attribute.
func changeInteraction(g *graph.Digraph, i, j, idx int) float64 {
	vals := g.BinaryAttr(idx)
	if vals[i] == 1 && vals[j] == 1 {
		return 1
	}
	return 0
}

// changeMatching counts arcs between nodes in the same category.
func changeMatching(g *graph.Digraph, i, j, idx int) float64 {
	vals := g.CategoricalAttr(idx)
	if vals[i] != graph.AttrNA && vals[i] == vals[j] {
		return 1
	}
	return 0
}

// changeMatchingReciprocity counts mutual pairs within the same category.
func changeMatchingReciprocity(g *graph.Digraph, i, j, idx int) float64 {
	vals := g.CategoricalAttr(idx)
	if vals[i] != graph.AttrNA && vals[i] == vals[j] && g.ArcExists(j, i) {
		return 1
	}
	return 0
}

// changeContinuousDiff is the heterophily effect -|x_i - x_j|.
func changeContinuousDiff(g *graph.Digraph, i, j, idx int) float64 {
	vals := g.ContinuousAttr(idx)
	d := vals[i] - vals[j]
	if math.IsNaN(d) {
		return 0
	}
	return -math.Abs(d)
}

var attributeRegistry = map[string]attributeEffect{
	"sender":              {FamilyBinary, changeSender},
	"receiver":            {FamilyBinary, changeReceiver},
	"interaction":         {FamilyBinary, changeInteraction},
	"matching":            {FamilyCategorical, changeMatching},
	"matchingreciprocity": {FamilyCategorical, changeMatchingReciprocity},
	"continuousdiff":      {FamilyContinuous, changeContinuousDiff},
}

var attributeNames = map[string]string{
	"sender":              "Sender",
	"receiver":            "Receiver",
	"interaction":         "Interaction",
	"matching":            "Matching",
	"matchingreciprocity": "MatchingReciprocity",
	"continuousdiff":      "ContinuousDiff",
}

// NewAttribute resolves an attribute effect name.
func NewAttribute(name string) (Attribute, string, error) {
	key := strings.ToLower(name)
	e, ok := attributeRegistry[key]
	if !ok {
		return nil, "", fmt.Errorf("unknown attribute effect %q", name)
	}
	return e, attributeNames[key], nil
}
