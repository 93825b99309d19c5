package estimation

import (
	"github.com/kyuyeonrhee/EstimNetDirected/internal/graph"
	"github.com/kyuyeonrhee/EstimNetDirected/internal/sampler"
)

// SConfig controls Algorithm S.
type SConfig struct {
	// Steps is the number of bootstrap iterations.
	Steps int

	// BatchSize is the number of sampler proposals per iteration.
	BatchSize int

	// StepMultiplier scales the per-iteration step size (ACA_S).
	StepMultiplier float64
}

// AlgorithmS bootstraps theta from all zeros by running the sampler in
// statistics-only mode: no move is ever persisted, so the graph is
// unchanged when it returns. The squared per-batch discrepancy between
// delete and add change-statistic sums approximates each parameter's local
// derivative magnitude; its accumulation seeds derivScale, the adaptive
// step-size divisor Algorithm EE starts from.
//
// One theta-trace row is written per iteration, indexed t-Steps so the
// bootstrap rows precede Algorithm EE's zero-based rows.
//
// Steps must be positive: with no iterations the derivative accumulator
// stays zero and every derivScale entry would be infinite.
func AlgorithmS(g *graph.Digraph, smp sampler.Sampler, cfg SConfig,
	theta, derivScale []float64, acc *sampler.Accumulators, thetaTrace *Trace) error {

	n := len(theta)
	d0 := make([]float64, n)
	row := make([]float64, n+1)

	for l := range theta {
		theta[l] = 0
	}

	for t := 0; t < cfg.Steps; t++ {
		rate := smp.Sample(g, theta, acc, cfg.BatchSize, false)
		for l := 0; l < n; l++ {
			dz := acc.Del[l] - acc.Add[l]
			sum := acc.Add[l] + acc.Del[l]
			// The expected squared discrepancy approximates the derivative
			// with respect to the parameter.
			d0[l] += dz * dz
			da := 0.0
			if sum != 0 {
				da = cfg.StepMultiplier / (sum * sum)
			}
			theta[l] += signOf(dz) * da * dz * dz
			row[l] = theta[l]
		}
		row[n] = rate
		thetaTrace.Row(t-cfg.Steps, row)
	}

	for l := 0; l < n; l++ {
		derivScale[l] = float64(cfg.BatchSize) / d0[l]
	}
	return thetaTrace.Flush()
}

// signOf returns -1 for negative x and +1 otherwise.
func signOf(x float64) float64 {
	if x < 0 {
		return -1
	}
	return 1
}
