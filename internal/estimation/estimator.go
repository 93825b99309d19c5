package estimation

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/kyuyeonrhee/EstimNetDirected/internal/config"
	"github.com/kyuyeonrhee/EstimNetDirected/internal/effects"
	"github.com/kyuyeonrhee/EstimNetDirected/internal/graph"
	"github.com/kyuyeonrhee/EstimNetDirected/internal/results"
	"github.com/kyuyeonrhee/EstimNetDirected/internal/sampler"
)

// Run performs one complete estimation: load the network and covariates,
// build the effect model, run Algorithm S then Algorithm EE, and write the
// diagnostic traces, the optional simulated network, and the optional
// results database entry. task distinguishes the output files of
// independent runs; seed fixes the random source for reproducibility.
func Run(cfg *config.Config, task int, seed int64, logger *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.Sampler.UseIFDSampler {
		return fmt.Errorf("the IFD sampler is not available in this build; unset sampler.use_ifd_sampler")
	}

	start := time.Now()
	g, err := graph.LoadArcListFile(cfg.Input.ArcListFile)
	if err != nil {
		return err
	}
	if cfg.Input.BinaryAttrFile != "" {
		if err := g.LoadBinaryAttrFile(cfg.Input.BinaryAttrFile); err != nil {
			return err
		}
	}
	if cfg.Input.CategoricalAttrFile != "" {
		if err := g.LoadCategoricalAttrFile(cfg.Input.CategoricalAttrFile); err != nil {
			return err
		}
	}
	if cfg.Input.ContinuousAttrFile != "" {
		if err := g.LoadContinuousAttrFile(cfg.Input.ContinuousAttrFile); err != nil {
			return err
		}
	}
	if cfg.Input.ZoneFile != "" {
		if err := g.LoadZoneFile(cfg.Input.ZoneFile); err != nil {
			return err
		}
		logger.Info("snowball zones attached", "waves", g.ZoneSummary())
	}
	logger.Info("network loaded", "file", cfg.Input.ArcListFile,
		"summary", g.Summary(), "elapsed", time.Since(start))

	if cfg.Sampler.Conditional && g.NumInnerNodes() < 2 {
		return fmt.Errorf("conditional estimation needs at least 2 inner-wave nodes, have %d", g.NumInnerNodes())
	}

	model, err := effects.BuildModel(g, cfg.Effects)
	if err != nil {
		return err
	}
	names := model.EffectNames()
	n := model.NumParams()

	rng := rand.New(rand.NewSource(seed))
	smp, err := sampler.NewBasic(model, rng, cfg.Sampler.Conditional, cfg.Sampler.ForbidReciprocity)
	if err != nil {
		return err
	}

	theta := make([]float64, n)
	derivScale := make([]float64, n)
	acc := sampler.NewAccumulators(n)

	// Algorithm S steps scale with network size; the Algorithm EE inner
	// step count deliberately does not.
	stepsS := cfg.Algorithm.SSteps * g.NumNodes() / cfg.Sampler.Steps
	if stepsS == 0 {
		return fmt.Errorf("algorithm.s_steps * %d nodes / %d sampler steps rounds to zero iterations",
			g.NumNodes(), cfg.Sampler.Steps)
	}

	thetaTrace, err := CreateTrace(tracePath(cfg.Output.ThetaPrefix, task),
		append(append([]string{}, names...), "AcceptanceRate"))
	if err != nil {
		return err
	}
	defer thetaTrace.Close()
	dzaTrace, err := CreateTrace(tracePath(cfg.Output.DzAPrefix, task), names)
	if err != nil {
		return err
	}
	defer dzaTrace.Close()
	var varianceTrace *Trace
	if cfg.Output.VariancePrefix != "" {
		varianceTrace, err = CreateTrace(tracePath(cfg.Output.VariancePrefix, task), names)
		if err != nil {
			return err
		}
		defer varianceTrace.Close()
	}

	logger.Info("running Algorithm S", "task", task,
		"steps", stepsS, "batch_size", cfg.Sampler.Steps,
		"step_multiplier", cfg.Algorithm.StepMultiplierS, "effects", n)
	phaseStart := time.Now()
	if err := AlgorithmS(g, smp, SConfig{
		Steps:          stepsS,
		BatchSize:      cfg.Sampler.Steps,
		StepMultiplier: cfg.Algorithm.StepMultiplierS,
	}, theta, derivScale, acc, thetaTrace); err != nil {
		return err
	}
	logger.Info("Algorithm S complete", "task", task, "elapsed", time.Since(phaseStart),
		"theta", theta, "derivative_scale", derivScale)

	logger.Info("running Algorithm EE", "task", task,
		"outer_steps", cfg.Algorithm.EEOuterSteps, "inner_steps", cfg.Algorithm.EEInnerSteps,
		"step_multiplier", cfg.Algorithm.StepMultiplierEE,
		"variance_limit", cfg.Algorithm.VarianceLimit)
	phaseStart = time.Now()
	rate, err := AlgorithmEE(g, smp, EEConfig{
		OuterSteps:     cfg.Algorithm.EEOuterSteps,
		InnerSteps:     cfg.Algorithm.EEInnerSteps,
		BatchSize:      cfg.Sampler.Steps,
		StepMultiplier: cfg.Algorithm.StepMultiplierEE,
		VarianceLimit:  cfg.Algorithm.VarianceLimit,
		OutputAllSteps: cfg.Algorithm.OutputAllSteps,
	}, theta, derivScale, acc, thetaTrace, dzaTrace, varianceTrace)
	if err != nil {
		return err
	}
	logger.Info("Algorithm EE complete", "task", task, "elapsed", time.Since(phaseStart),
		"theta", theta, "acceptance_rate", rate)

	if cfg.Output.OutputSimulatedNetwork {
		path := fmt.Sprintf("%s_%d.net", cfg.Output.SimNetPrefix, task)
		if err := g.WriteArcListFile(path); err != nil {
			return err
		}
		logger.Info("simulated network written", "file", path)
	}

	if cfg.Output.ResultsDB != "" {
		if err := recordRun(cfg, task, start, rate, names, theta); err != nil {
			return err
		}
		logger.Info("run recorded", "db", cfg.Output.ResultsDB)
	}
	return nil
}

// recordRun persists the final estimates to the results database.
func recordRun(cfg *config.Config, task int, started time.Time, rate float64,
	names []string, theta []float64) error {

	store, err := results.Open(cfg.Output.ResultsDB)
	if err != nil {
		return err
	}
	defer store.Close()

	estimates := make([]results.Estimate, len(names))
	for l, name := range names {
		estimates[l] = results.Estimate{Effect: name, Theta: theta[l]}
	}
	_, err = store.RecordRun(context.Background(), results.Run{
		Task:           task,
		StartedAt:      started,
		FinishedAt:     time.Now(),
		BatchSize:      cfg.Sampler.Steps,
		AcceptanceRate: rate,
	}, estimates)
	return err
}

func tracePath(prefix string, task int) string {
	return fmt.Sprintf("%s_%d.txt", prefix, task)
}
