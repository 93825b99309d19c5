package effects

import (
	"fmt"

	"github.com/kyuyeonrhee/EstimNetDirected/internal/config"
	"github.com/kyuyeonrhee/EstimNetDirected/internal/graph"
)

// Model is the ordered set of registered effects for an estimation run. The
// parameter vector and every change-statistic vector share its segmentation:
// structural effects first, then attribute effects, then dyadic effects.
type Model struct {
	structural []Structural
	attribute  []Attribute
	attrIndex  []int // attribute column per attribute effect
	dyadic     []Dyadic
	names      []string
}

// NumParams returns the parameter vector length.
func (m *Model) NumParams() int {
	return len(m.structural) + len(m.attribute) + len(m.dyadic)
}

// EffectNames returns the display name of every effect in parameter order.
// Attribute effects render as Effect_attrname.
func (m *Model) EffectNames() []string { return m.names }

// ChangeStats evaluates every registered effect for adding arc i->j, in
// parameter order, into out. The arc i->j must not be present in g.
func (m *Model) ChangeStats(g *graph.Digraph, i, j int, out []float64) {
	p := 0
	for _, e := range m.structural {
		out[p] = e.Change(g, i, j)
		p++
	}
	for k, e := range m.attribute {
		out[p] = e.Change(g, i, j, m.attrIndex[k])
		p++
	}
	for _, e := range m.dyadic {
		out[p] = e.Change(g, i, j)
		p++
	}
}

// BuildModel resolves the configured effect names against the registry and
// the graph's attribute columns.
func BuildModel(g *graph.Digraph, spec config.EffectsConfig) (*Model, error) {
	m := &Model{}

	for _, name := range spec.Structural {
		e, display, err := NewStructural(name)
		if err != nil {
			return nil, err
		}
		m.structural = append(m.structural, e)
		m.names = append(m.names, display)
	}

	for _, a := range spec.Attribute {
		e, display, err := NewAttribute(a.Effect)
		if err != nil {
			return nil, err
		}
		idx, ok := attrColumnIndex(g, e.Family(), a.Attribute)
		if !ok {
			return nil, fmt.Errorf("effect %s: no %s attribute named %q",
				display, e.Family(), a.Attribute)
		}
		m.attribute = append(m.attribute, e)
		m.attrIndex = append(m.attrIndex, idx)
		m.names = append(m.names, display+"_"+a.Attribute)
	}

	for _, d := range spec.Dyadic {
		cols := make([]int, 0, len(d.Attributes))
		for _, attr := range d.Attributes {
			idx, ok := g.ContinuousAttrIndex(attr)
			if !ok {
				return nil, fmt.Errorf("dyadic effect %s: no continuous attribute named %q",
					d.Effect, attr)
			}
			cols = append(cols, idx)
		}
		e, display, err := NewDyadic(d.Effect, cols)
		if err != nil {
			return nil, err
		}
		m.dyadic = append(m.dyadic, e)
		m.names = append(m.names, display)
	}

	return m, nil
}

func attrColumnIndex(g *graph.Digraph, family AttrFamily, name string) (int, bool) {
	switch family {
	case FamilyBinary:
		return g.BinaryAttrIndex(name)
	case FamilyCategorical:
		return g.CategoricalAttrIndex(name)
	default:
		return g.ContinuousAttrIndex(name)
	}
}
