package estimation

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/kyuyeonrhee/EstimNetDirected/internal/graph"
	"github.com/kyuyeonrhee/EstimNetDirected/internal/sampler"
)

// TODO: promote minThetaMean and sdThreshold to AlgorithmConfig settings;
// both inherit unexplained hard-coded values.
const (
	// minThetaMean is the minimum magnitude the inner-loop theta mean is
	// clamped to before dividing, so a parameter near zero cannot blow up
	// the rescaling ratio.
	minThetaMean = 0.1

	// sdThreshold is the minimum inner-loop standard deviation for which
	// the derivative scale is rescaled at all.
	sdThreshold = 1e-10
)

// EEConfig controls Algorithm EE.
type EEConfig struct {
	// OuterSteps and InnerSteps are the nested loop lengths. The
	// derivative scale is rescaled once per outer iteration from the
	// InnerSteps theta values recorded in between.
	OuterSteps int
	InnerSteps int

	// BatchSize is the number of sampler proposals per inner iteration.
	BatchSize int

	// StepMultiplier scales the derivative scale into a step size (ACA_EE).
	StepMultiplier float64

	// VarianceLimit bounds sd(theta)/|mean(theta)| when rescaling (compC).
	VarianceLimit float64

	// OutputAllSteps writes trace rows every inner iteration instead of
	// only on the first inner iteration of each outer block.
	OutputAllSteps bool
}

// AlgorithmEE refines theta with persisted MCMC moves: the graph is mutated
// in place across the whole run. dzA accumulates the discrepancy between
// add- and delete-side change statistics over the entire run and drives the
// stochastic-approximation update; at the end of every outer iteration the
// per-parameter derivative scale is rescaled down for parameters whose
// recent theta trajectory is too volatile relative to its mean.
//
// varianceTrace may be nil; when present it receives one sd/|mean| row per
// parameter per outer iteration. Returns the acceptance rate of the final
// sampler batch.
func AlgorithmEE(g *graph.Digraph, smp sampler.Sampler, cfg EEConfig,
	theta, derivScale []float64, acc *sampler.Accumulators,
	thetaTrace, dzaTrace, varianceTrace *Trace) (float64, error) {

	n := len(theta)
	dzA := make([]float64, n) // zeroed once, accumulates for the whole run
	thetaRow := make([]float64, n+1)
	ratioRow := make([]float64, n)
	thetaHist := make([][]float64, n)
	for l := range thetaHist {
		thetaHist[l] = make([]float64, cfg.InnerSteps)
	}

	rate := 0.0
	t := 0
	for outer := 0; outer < cfg.OuterSteps; outer++ {
		for inner := 0; inner < cfg.InnerSteps; inner++ {
			rate = smp.Sample(g, theta, acc, cfg.BatchSize, true)
			for l := 0; l < n; l++ {
				dzA[l] += acc.Add[l] - acc.Del[l]
				da := derivScale[l] * cfg.StepMultiplier
				theta[l] += -signOf(dzA[l]) * da * dzA[l] * dzA[l]
				thetaHist[l][inner] = theta[l]
				thetaRow[l] = theta[l]
			}
			if cfg.OutputAllSteps || inner == 0 {
				thetaRow[n] = rate
				thetaTrace.Row(t, thetaRow)
				dzaTrace.Row(t, dzA)
			}
			t++
		}

		// Rescale the derivative scale from the variability of theta over
		// the just-completed inner loop.
		for l := 0; l < n; l++ {
			mean, sd := stat.MeanStdDev(thetaHist[l], nil)
			if sd < 0 {
				panic(fmt.Sprintf("estimation: negative standard deviation %g for parameter %d", sd, l))
			}
			absMean := math.Abs(mean)
			if absMean < minThetaMean {
				absMean = minThetaMean
			}
			ratioRow[l] = sd / absMean
			if sd > sdThreshold {
				derivScale[l] *= math.Sqrt(cfg.VarianceLimit / (sd / absMean))
			}
		}
		if varianceTrace != nil {
			varianceTrace.Row(outer, ratioRow)
			if err := varianceTrace.Flush(); err != nil {
				return rate, err
			}
		}
		if err := thetaTrace.Flush(); err != nil {
			return rate, err
		}
		if err := dzaTrace.Flush(); err != nil {
			return rate, err
		}
	}
	return rate, nil
}
