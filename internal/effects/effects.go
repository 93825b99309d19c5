// Package effects implements the ERGM change-statistic library: structural,
// nodal-attribute and dyadic-covariate effects, a name registry resolving
// configured effect names, and the Model type that evaluates all registered
// effects for a proposed arc in fixed parameter-vector order.
//
// Every change statistic is the marginal effect of adding the arc i->j to a
// graph that does not contain it. The sampler guarantees that precondition
// by temporarily removing an existing arc before evaluation.
package effects

import (
	"fmt"
	"math"
	"strings"

	"github.com/kyuyeonrhee/EstimNetDirected/internal/graph"
)

// starDecay is the decay factor lambda for the alternating k-star effects.
const starDecay = 2.0

// Structural computes a purely structural change statistic.
type Structural interface {
	// Change returns the change statistic for adding arc i->j.
	Change(g *graph.Digraph, i, j int) float64
}

// StructuralFunc adapts a function to the Structural interface.
type StructuralFunc func(g *graph.Digraph, i, j int) float64

// Change implements Structural.
func (f StructuralFunc) Change(g *graph.Digraph, i, j int) float64 { return f(g, i, j) }

// changeArc is the edge-count effect: adding any arc changes it by one.
func changeArc(_ *graph.Digraph, _, _ int) float64 { return 1 }

// changeReciprocity counts the new mutual pair created when the reverse arc
// already exists.
func changeReciprocity(g *graph.Digraph, i, j int) float64 {
	if g.ArcExists(j, i) {
		return 1
	}
	return 0
}

// changeAltInStars is the alternating k-in-star change statistic
// lambda * (1 - (1-1/lambda)^indegree(j)).
func changeAltInStars(g *graph.Digraph, _, j int) float64 {
	return starDecay * (1 - math.Pow(1-1/starDecay, float64(g.InDegree(j))))
}

// changeAltOutStars is the alternating k-out-star change statistic
// lambda * (1 - (1-1/lambda)^outdegree(i)).
func changeAltOutStars(g *graph.Digraph, i, _ int) float64 {
	return starDecay * (1 - math.Pow(1-1/starDecay, float64(g.OutDegree(i))))
}

// structuralRegistry maps effect names (matched case-insensitively, as the
// original config parser does) to implementations.
var structuralRegistry = map[string]StructuralFunc{
	"arc":         changeArc,
	"reciprocity": changeReciprocity,
	"altinstars":  changeAltInStars,
	"altoutstars": changeAltOutStars,
}

// canonical display names for the registry keys.
var structuralNames = map[string]string{
	"arc":         "Arc",
	"reciprocity": "Reciprocity",
	"altinstars":  "AltInStars",
	"altoutstars": "AltOutStars",
}

// NewStructural resolves a structural effect name.
func NewStructural(name string) (Structural, string, error) {
	key := strings.ToLower(name)
	f, ok := structuralRegistry[key]
	if !ok {
		return nil, "", fmt.Errorf("unknown structural effect %q", name)
	}
	return f, structuralNames[key], nil
}
