package estimation

import (
	"bytes"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/kyuyeonrhee/EstimNetDirected/internal/config"
	"github.com/kyuyeonrhee/EstimNetDirected/internal/effects"
	"github.com/kyuyeonrhee/EstimNetDirected/internal/graph"
	"github.com/kyuyeonrhee/EstimNetDirected/internal/sampler"
)

// scriptedSampler returns fixed per-batch change-statistic sums, making the
// controller arithmetic deterministic.
type scriptedSampler struct {
	add  []float64
	del  []float64
	rate float64
}

func (s *scriptedSampler) Sample(_ *graph.Digraph, _ []float64, acc *sampler.Accumulators, _ int, _ bool) float64 {
	acc.Reset()
	copy(acc.Add, s.add)
	copy(acc.Del, s.del)
	return s.rate
}

// newTrace builds a buffer-backed trace for a single-parameter run.
func newTrace(t *testing.T, buf *bytes.Buffer, cols ...string) *Trace {
	t.Helper()
	tr, err := NewTrace(buf, cols)
	if err != nil {
		t.Fatalf("NewTrace: %v", err)
	}
	return tr
}

// dataRows returns the non-header lines written to a trace buffer.
func dataRows(t *testing.T, buf *bytes.Buffer) []string {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) == 0 || !strings.HasPrefix(lines[0], "t ") {
		t.Fatalf("missing trace header in %q", buf.String())
	}
	return lines[1:]
}

func TestAlgorithmSUpdateRule(t *testing.T) {
	// Constant del-add discrepancy: dz = 4, sum = 8 each step, so every
	// step adds ACA/64 * 16 = ACA/4 to theta, and the derivative
	// accumulator gains 16 per step.
	smp := &scriptedSampler{add: []float64{2}, del: []float64{6}, rate: 0.5}
	theta := []float64{99} // must be reset to zero
	derivScale := make([]float64, 1)
	var buf bytes.Buffer
	tr := newTrace(t, &buf, "Arc", "AcceptanceRate")

	cfg := SConfig{Steps: 5, BatchSize: 800, StepMultiplier: 0.64}
	if err := AlgorithmS(nil, smp, cfg, theta, derivScale, sampler.NewAccumulators(1), tr); err != nil {
		t.Fatalf("AlgorithmS: %v", err)
	}

	wantTheta := 5 * cfg.StepMultiplier / 4
	if math.Abs(theta[0]-wantTheta) > 1e-12 {
		t.Errorf("theta = %g, want %g", theta[0], wantTheta)
	}
	wantScale := float64(cfg.BatchSize) / (5 * 16)
	if math.Abs(derivScale[0]-wantScale) > 1e-12 {
		t.Errorf("derivScale = %g, want %g", derivScale[0], wantScale)
	}

	rows := dataRows(t, &buf)
	if len(rows) != cfg.Steps {
		t.Fatalf("wrote %d rows, want %d", len(rows), cfg.Steps)
	}
	// Bootstrap rows are indexed t-Steps so they precede the EE rows.
	if !strings.HasPrefix(rows[0], "-5 ") {
		t.Errorf("first row %q should be indexed -5", rows[0])
	}
	if !strings.HasPrefix(rows[4], "-1 ") {
		t.Errorf("last row %q should be indexed -1", rows[4])
	}
	if !strings.HasSuffix(rows[0], " 0.5") {
		t.Errorf("row %q should end with the acceptance rate", rows[0])
	}
}

func TestAlgorithmSNegativeDiscrepancyLowersTheta(t *testing.T) {
	smp := &scriptedSampler{add: []float64{6}, del: []float64{2}, rate: 1}
	theta := make([]float64, 1)
	derivScale := make([]float64, 1)
	var buf bytes.Buffer
	tr := newTrace(t, &buf, "Arc", "AcceptanceRate")

	err := AlgorithmS(nil, smp, SConfig{Steps: 3, BatchSize: 100, StepMultiplier: 0.1},
		theta, derivScale, sampler.NewAccumulators(1), tr)
	if err != nil {
		t.Fatalf("AlgorithmS: %v", err)
	}
	if theta[0] >= 0 {
		t.Errorf("theta = %g, want negative when adds dominate", theta[0])
	}
}

func TestAlgorithmSZeroSumGivesZeroStep(t *testing.T) {
	// add = -del makes the change-stat sum zero; the step size falls back
	// to zero instead of dividing by zero.
	smp := &scriptedSampler{add: []float64{-3}, del: []float64{3}, rate: 1}
	theta := make([]float64, 1)
	derivScale := make([]float64, 1)
	var buf bytes.Buffer
	tr := newTrace(t, &buf, "Arc", "AcceptanceRate")

	err := AlgorithmS(nil, smp, SConfig{Steps: 4, BatchSize: 100, StepMultiplier: 0.1},
		theta, derivScale, sampler.NewAccumulators(1), tr)
	if err != nil {
		t.Fatalf("AlgorithmS: %v", err)
	}
	if theta[0] != 0 {
		t.Errorf("theta = %g, want 0 under zero-sum fallback", theta[0])
	}
	// The discrepancy is still nonzero, so the derivative seed is finite.
	if math.IsInf(derivScale[0], 0) || derivScale[0] <= 0 {
		t.Errorf("derivScale = %g, want positive and finite", derivScale[0])
	}
}

func TestAlgorithmEEDiscrepancyAccumulatesAcrossRun(t *testing.T) {
	// add-del = 4 per inner iteration; dzA must accumulate across the
	// whole run, never resetting at outer boundaries.
	smp := &scriptedSampler{add: []float64{5}, del: []float64{1}, rate: 0.25}
	theta := make([]float64, 1)
	derivScale := []float64{1e-6}
	var thetaBuf, dzaBuf bytes.Buffer
	thetaTr := newTrace(t, &thetaBuf, "Arc", "AcceptanceRate")
	dzaTr := newTrace(t, &dzaBuf, "Arc")

	cfg := EEConfig{
		OuterSteps: 3, InnerSteps: 4, BatchSize: 100,
		StepMultiplier: 1e-3, VarianceLimit: 1e-2, OutputAllSteps: true,
	}
	if _, err := AlgorithmEE(nil, smp, cfg, theta, derivScale,
		sampler.NewAccumulators(1), thetaTr, dzaTr, nil); err != nil {
		t.Fatalf("AlgorithmEE: %v", err)
	}

	rows := dataRows(t, &dzaBuf)
	if len(rows) != cfg.OuterSteps*cfg.InnerSteps {
		t.Fatalf("dzA rows = %d, want %d", len(rows), cfg.OuterSteps*cfg.InnerSteps)
	}
	// 4 per inner iteration for 12 iterations, indexed from zero.
	if last := rows[len(rows)-1]; last != "11 48" {
		t.Errorf("last dzA row = %q, want %q", last, "11 48")
	}

	// Positive accumulated discrepancy pushes theta down.
	if theta[0] >= 0 {
		t.Errorf("theta = %g, want negative for positive dzA", theta[0])
	}
}

func TestAlgorithmEEOutputPerOuterIteration(t *testing.T) {
	smp := &scriptedSampler{add: []float64{1}, del: []float64{0}, rate: 1}
	theta := make([]float64, 1)
	derivScale := []float64{1e-6}
	var thetaBuf, dzaBuf bytes.Buffer
	thetaTr := newTrace(t, &thetaBuf, "Arc", "AcceptanceRate")
	dzaTr := newTrace(t, &dzaBuf, "Arc")

	cfg := EEConfig{
		OuterSteps: 4, InnerSteps: 5, BatchSize: 100,
		StepMultiplier: 1e-3, VarianceLimit: 1e-2, OutputAllSteps: false,
	}
	if _, err := AlgorithmEE(nil, smp, cfg, theta, derivScale,
		sampler.NewAccumulators(1), thetaTr, dzaTr, nil); err != nil {
		t.Fatalf("AlgorithmEE: %v", err)
	}

	rows := dataRows(t, &thetaBuf)
	if len(rows) != cfg.OuterSteps {
		t.Fatalf("theta rows = %d, want one per outer iteration", len(rows))
	}
	// Retained rows are the first inner iteration of each outer block.
	for i, wantIdx := range []string{"0 ", "5 ", "10 ", "15 "} {
		if !strings.HasPrefix(rows[i], wantIdx) {
			t.Errorf("row %d = %q, want index prefix %q", i, rows[i], wantIdx)
		}
	}
}

func TestAlgorithmEEStableParameterKeepsScale(t *testing.T) {
	// add = del keeps dzA at zero, so theta never moves, the inner-loop
	// standard deviation is zero, and the derivative scale is untouched.
	smp := &scriptedSampler{add: []float64{3}, del: []float64{3}, rate: 1}
	theta := make([]float64, 1)
	derivScale := []float64{0.125}
	var thetaBuf, dzaBuf, varBuf bytes.Buffer
	thetaTr := newTrace(t, &thetaBuf, "Arc", "AcceptanceRate")
	dzaTr := newTrace(t, &dzaBuf, "Arc")
	varTr := newTrace(t, &varBuf, "Arc")

	cfg := EEConfig{
		OuterSteps: 2, InnerSteps: 5, BatchSize: 100,
		StepMultiplier: 1e-3, VarianceLimit: 1e-2, OutputAllSteps: true,
	}
	if _, err := AlgorithmEE(nil, smp, cfg, theta, derivScale,
		sampler.NewAccumulators(1), thetaTr, dzaTr, varTr); err != nil {
		t.Fatalf("AlgorithmEE: %v", err)
	}
	if theta[0] != 0 {
		t.Errorf("theta = %g, want 0", theta[0])
	}
	if derivScale[0] != 0.125 {
		t.Errorf("derivScale = %g, want unchanged 0.125", derivScale[0])
	}
	varRows := dataRows(t, &varBuf)
	if len(varRows) != cfg.OuterSteps {
		t.Fatalf("variance rows = %d, want one per outer iteration", len(varRows))
	}
}

func TestAlgorithmEEVolatileParameterRescalesDown(t *testing.T) {
	// A steadily growing dzA drives theta on a strongly varying
	// trajectory; the rescale step must then shrink the derivative scale
	// (the trajectory's sd/|mean| far exceeds the variance limit).
	smp := &scriptedSampler{add: []float64{10}, del: []float64{0}, rate: 1}
	theta := make([]float64, 1)
	derivScale := []float64{0.01}
	before := derivScale[0]
	var thetaBuf, dzaBuf bytes.Buffer
	thetaTr := newTrace(t, &thetaBuf, "Arc", "AcceptanceRate")
	dzaTr := newTrace(t, &dzaBuf, "Arc")

	cfg := EEConfig{
		OuterSteps: 1, InnerSteps: 10, BatchSize: 100,
		StepMultiplier: 0.1, VarianceLimit: 1e-4, OutputAllSteps: true,
	}
	if _, err := AlgorithmEE(nil, smp, cfg, theta, derivScale,
		sampler.NewAccumulators(1), thetaTr, dzaTr, nil); err != nil {
		t.Fatalf("AlgorithmEE: %v", err)
	}
	if derivScale[0] >= before {
		t.Errorf("derivScale = %g, want rescaled below %g", derivScale[0], before)
	}
	if derivScale[0] <= 0 {
		t.Errorf("derivScale = %g, want positive", derivScale[0])
	}
}

func TestAlgorithmsEndToEndOnRealSampler(t *testing.T) {
	// Algorithm S on a real sampler must leave the graph unchanged, and
	// the seeded scales must be usable by Algorithm EE.
	g := graph.New(8)
	g.InsertArc(0, 1)
	g.InsertArc(2, 3)
	m, err := effects.BuildModel(g, config.EffectsConfig{Structural: []string{"Arc"}})
	if err != nil {
		t.Fatalf("BuildModel: %v", err)
	}
	smp, err := sampler.NewBasic(m, rand.New(rand.NewSource(5)), false, false)
	if err != nil {
		t.Fatalf("NewBasic: %v", err)
	}

	arcsBefore := g.NumArcs()
	theta := make([]float64, 1)
	derivScale := make([]float64, 1)
	acc := sampler.NewAccumulators(1)
	var thetaBuf, dzaBuf bytes.Buffer
	thetaTr := newTrace(t, &thetaBuf, "Arc", "AcceptanceRate")
	dzaTr := newTrace(t, &dzaBuf, "Arc")

	sCfg := SConfig{Steps: 10, BatchSize: 500, StepMultiplier: 0.1}
	if err := AlgorithmS(g, smp, sCfg, theta, derivScale, acc, thetaTr); err != nil {
		t.Fatalf("AlgorithmS: %v", err)
	}
	if g.NumArcs() != arcsBefore {
		t.Fatalf("Algorithm S changed arc count %d -> %d", arcsBefore, g.NumArcs())
	}
	if math.IsNaN(theta[0]) || math.IsInf(theta[0], 0) {
		t.Fatalf("theta = %g after Algorithm S", theta[0])
	}
	if derivScale[0] <= 0 || math.IsInf(derivScale[0], 0) {
		t.Fatalf("derivScale = %g after Algorithm S", derivScale[0])
	}

	rate, err := AlgorithmEE(g, smp, EEConfig{
		OuterSteps: 3, InnerSteps: 5, BatchSize: 500,
		StepMultiplier: 1e-9, VarianceLimit: 1e-2, OutputAllSteps: false,
	}, theta, derivScale, acc, thetaTr, dzaTr, nil)
	if err != nil {
		t.Fatalf("AlgorithmEE: %v", err)
	}
	if rate < 0 || rate > 1 {
		t.Errorf("acceptance rate = %g, want within [0,1]", rate)
	}
	if math.IsNaN(theta[0]) {
		t.Errorf("theta diverged to NaN")
	}
}
