// Package sampler implements the basic ERGM MCMC dyad sampler: it repeatedly
// proposes toggling one arc of the digraph, scores the proposal with the
// model's change statistics, and accepts or rejects it with the
// Metropolis-Hastings rule. A conditional proposal mode restricts selection
// to dyads that a snowball sampling design leaves free.
package sampler

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/kyuyeonrhee/EstimNetDirected/internal/effects"
	"github.com/kyuyeonrhee/EstimNetDirected/internal/graph"
)

// expClamp bounds the exponent passed to math.Exp so the acceptance
// probability saturates instead of overflowing.
const expClamp = 700.0

// Accumulators collects per-parameter change-statistic sums for the accepted
// moves of one sampler batch, split by move direction.
type Accumulators struct {
	Add []float64
	Del []float64
}

// NewAccumulators allocates accumulators for n parameters.
func NewAccumulators(n int) *Accumulators {
	return &Accumulators{
		Add: make([]float64, n),
		Del: make([]float64, n),
	}
}

// Reset zeroes both sums. The sampler calls it at the start of every batch.
func (a *Accumulators) Reset() {
	for i := range a.Add {
		a.Add[i] = 0
		a.Del[i] = 0
	}
}

// Sampler runs one MCMC batch against the graph and returns the acceptance
// rate. When performMove is false the graph is guaranteed unchanged after
// the batch regardless of which proposals were accepted.
type Sampler interface {
	Sample(g *graph.Digraph, theta []float64, acc *Accumulators, batchSize int, performMove bool) float64
}

// Basic is the basic dyad sampler. It selects a directed pair uniformly at
// random and proposes toggling the arc between them.
type Basic struct {
	model *effects.Model
	rng   *rand.Rand

	conditional       bool
	forbidReciprocity bool

	changeStats []float64
}

// NewBasic creates a basic sampler over the given model. The random source
// is injected so runs are reproducible under a fixed seed.
//
// conditional restricts proposals to dyads left free by a snowball sampling
// design; forbidReciprocity rejects proposals that would create a
// reciprocated pair. The two cannot be combined.
func NewBasic(model *effects.Model, rng *rand.Rand, conditional, forbidReciprocity bool) (*Basic, error) {
	if conditional && forbidReciprocity {
		return nil, fmt.Errorf("sampler: forbidReciprocity is not supported with conditional estimation")
	}
	return &Basic{
		model:             model,
		rng:               rng,
		conditional:       conditional,
		forbidReciprocity: forbidReciprocity,
		changeStats:       make([]float64, model.NumParams()),
	}, nil
}

// Sample runs batchSize proposals and returns accepted/batchSize.
//
// Change statistics are always evaluated as the effect of adding i->j to a
// graph lacking that arc: a delete proposal temporarily removes the arc
// first and the temporary removal is reversed unless the delete is both
// accepted and performMove is true. Accepted proposals add their
// change-statistic vector to acc.Add or acc.Del.
func (s *Basic) Sample(g *graph.Digraph, theta []float64, acc *Accumulators, batchSize int, performMove bool) float64 {
	if batchSize <= 0 {
		panic("sampler: batch size must be positive")
	}
	acc.Reset()

	accepted := 0
	for k := 0; k < batchSize; k++ {
		var i, j int
		if s.conditional {
			i, j = s.selectConditional(g)
		} else {
			i, j = s.selectUnconstrained(g)
		}

		// The proposal toggles i->j: delete if present, add otherwise.
		isDelete := g.ArcExists(i, j)
		if isDelete {
			g.RemoveArc(i, j)
		}

		s.model.ChangeStats(g, i, j, s.changeStats)
		sign := 1.0
		if isDelete {
			sign = -1.0
		}
		total := 0.0
		for l, cs := range s.changeStats {
			total += theta[l] * sign * cs
		}
		if total > expClamp {
			total = expClamp
		}

		if s.rng.Float64() < math.Exp(total) {
			accepted++
			if performMove {
				// A delete is already applied; an add happens now.
				if !isDelete {
					g.InsertArc(i, j)
				}
			} else if isDelete {
				g.InsertArc(i, j)
			}
			if isDelete {
				for l, cs := range s.changeStats {
					acc.Del[l] += cs
				}
			} else {
				for l, cs := range s.changeStats {
					acc.Add[l] += cs
				}
			}
		} else if isDelete {
			g.InsertArc(i, j)
		}
	}

	return float64(accepted) / float64(batchSize)
}

// selectUnconstrained draws a directed pair (i, j), i != j, uniformly from
// all nodes. Under forbidReciprocity a proposal that would create a
// reciprocated pair is redrawn; deletes are always allowed.
func (s *Basic) selectUnconstrained(g *graph.Digraph) (int, int) {
	n := g.NumNodes()
	for {
		i := s.rng.Intn(n)
		j := s.rng.Intn(n)
		for j == i {
			j = s.rng.Intn(n)
		}
		if s.forbidReciprocity && !g.ArcExists(i, j) && g.ArcExists(j, i) {
			continue
		}
		return i, j
	}
}

// selectConditional draws a directed pair from the inner snowball waves,
// redrawing until the pair satisfies the conditional estimation
// constraints: the wave numbers differ by at most one, and an existing tie
// (direction ignored, as the snowball design ignores direction) is not the
// sole remaining connection from an outer-wave node to its preceding wave.
func (s *Basic) selectConditional(g *graph.Digraph) (int, int) {
	inner := g.InnerNodes()
	n := len(inner)
	maxZone := g.MaxZone()
	for {
		i := inner[s.rng.Intn(n)]
		j := inner[s.rng.Intn(n)]
		for j == i {
			j = inner[s.rng.Intn(n)]
		}
		zi, zj := g.Zone(i), g.Zone(j)
		if zi >= maxZone || zj >= maxZone {
			panic(fmt.Sprintf("sampler: inner node in outermost wave (zones %d, %d, max %d)", zi, zj, maxZone))
		}
		if d := zi - zj; d > 1 || d < -1 {
			continue
		}
		if g.ArcExistsIgnoreDirection(i, j) &&
			((zi > zj && g.PrecedingWaveDegree(i) == 1) ||
				(zj > zi && g.PrecedingWaveDegree(j) == 1)) {
			continue
		}
		return i, j
	}
}
