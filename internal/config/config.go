// Package config provides YAML configuration loading for the estimator.
// Settings follow defaults -> config file -> ESTIMNET_* environment
// variable order.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config contains all estimation run settings.
type Config struct {
	// Sampler contains MCMC sampler settings.
	Sampler SamplerConfig `yaml:"sampler"`

	// Algorithm contains Algorithm S / Algorithm EE control settings.
	Algorithm AlgorithmConfig `yaml:"algorithm"`

	// Input names the network, attribute and zone input files.
	Input InputConfig `yaml:"input"`

	// Output names diagnostic and simulated-network output destinations.
	Output OutputConfig `yaml:"output"`

	// Effects lists the ERGM effects to estimate, in parameter-vector order.
	Effects EffectsConfig `yaml:"effects"`

	// Logging configures operational log verbosity.
	Logging LoggingConfig `yaml:"logging"`
}

// SamplerConfig configures the MCMC proposal sampler.
type SamplerConfig struct {
	// Steps is the number of proposals per sampler batch (samplerSteps).
	Steps int `yaml:"steps"`

	// UseIFDSampler selects the IFD sampler variant instead of the basic
	// dyad sampler. Mutually exclusive with a structural Arc effect, which
	// the IFD sampler computes internally.
	UseIFDSampler bool `yaml:"use_ifd_sampler"`

	// ForbidReciprocity disallows proposals that would create a
	// reciprocated arc pair. Not supported with Conditional.
	ForbidReciprocity bool `yaml:"forbid_reciprocity"`

	// Conditional enables conditional estimation for a snowball-sampled
	// network. Requires Input.ZoneFile.
	Conditional bool `yaml:"conditional"`
}

// AlgorithmConfig configures the two estimation phases.
type AlgorithmConfig struct {
	// StepMultiplierS is the Algorithm S step-size multiplier (ACA_S).
	StepMultiplierS float64 `yaml:"step_multiplier_s"`

	// StepMultiplierEE is the Algorithm EE step-size multiplier (ACA_EE).
	StepMultiplierEE float64 `yaml:"step_multiplier_ee"`

	// VarianceLimit bounds the ratio sd(theta)/|mean(theta)| used when
	// rescaling the per-parameter step-size constant (compC).
	VarianceLimit float64 `yaml:"variance_limit"`

	// SSteps is the Algorithm S step count before scaling by the node
	// count divided by the sampler batch size.
	SSteps int `yaml:"s_steps"`

	// EEOuterSteps is the Algorithm EE outer loop length.
	EEOuterSteps int `yaml:"ee_steps"`

	// EEInnerSteps is the Algorithm EE inner loop length. Unlike SSteps it
	// is used as a constant, not scaled by network size.
	EEInnerSteps int `yaml:"ee_inner_steps"`

	// OutputAllSteps writes diagnostic rows every inner iteration instead
	// of once per outer iteration.
	OutputAllSteps bool `yaml:"output_all_steps"`
}

// InputConfig names the input files. Only ArcListFile is required.
type InputConfig struct {
	ArcListFile         string `yaml:"arclist_file"`
	BinaryAttrFile      string `yaml:"binattr_file"`
	CategoricalAttrFile string `yaml:"catattr_file"`
	ContinuousAttrFile  string `yaml:"contattr_file"`
	ZoneFile            string `yaml:"zone_file"`
}

// OutputConfig names output destinations. Trace files are written as
// <prefix>_<task>.txt and the simulated network as <prefix>_<task>.net.
type OutputConfig struct {
	ThetaPrefix string `yaml:"theta_prefix"`
	DzAPrefix   string `yaml:"dza_prefix"`

	// VariancePrefix, when set, enables the per-outer-iteration
	// sd/|mean| trace.
	VariancePrefix string `yaml:"variance_prefix"`

	SimNetPrefix           string `yaml:"sim_net_prefix"`
	OutputSimulatedNetwork bool   `yaml:"output_simulated_network"`

	// ResultsDB, when set, is the path of a SQLite database recording the
	// final parameter estimates of each run.
	ResultsDB string `yaml:"results_db"`
}

// EffectsConfig lists the effects to estimate. The parameter vector is the
// concatenation structural + attribute + dyadic, in list order.
type EffectsConfig struct {
	Structural []string          `yaml:"structural"`
	Attribute  []AttributeEffect `yaml:"attribute"`
	Dyadic     []DyadicEffect    `yaml:"dyadic"`
}

// AttributeEffect binds an attribute effect to a named nodal attribute.
type AttributeEffect struct {
	Effect    string `yaml:"effect"`
	Attribute string `yaml:"attribute"`
}

// DyadicEffect binds a dyadic covariate effect to the named continuous
// attribute columns it is computed from (e.g. lat/long for GeoDistance).
type DyadicEffect struct {
	Effect     string   `yaml:"effect"`
	Attributes []string `yaml:"attributes"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	// Level sets log verbosity: "info" (default), "debug", or "trace".
	Level string `yaml:"level"`
}

// Default returns a Config with the original implementation's default
// algorithm settings.
func Default() *Config {
	return &Config{
		Sampler: SamplerConfig{
			Steps: 1000,
		},
		Algorithm: AlgorithmConfig{
			StepMultiplierS:  0.1,
			StepMultiplierEE: 1e-09,
			VarianceLimit:    1e-02,
			SSteps:           50,
			EEOuterSteps:     500,
			EEInnerSteps:     100,
		},
		Output: OutputConfig{
			ThetaPrefix:  "theta_values",
			DzAPrefix:    "dzA_values",
			SimNetPrefix: "sim",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromFile loads configuration from a YAML file on top of defaults and
// applies environment overrides.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// Validate checks that the configuration is usable before any sampling
// begins. It does not check that input files exist; file errors surface
// when the estimation driver opens them.
func (c *Config) Validate() error {
	if c.Sampler.Steps <= 0 {
		return fmt.Errorf("sampler.steps must be positive, got %d", c.Sampler.Steps)
	}
	if c.Algorithm.SSteps <= 0 {
		return fmt.Errorf("algorithm.s_steps must be positive, got %d", c.Algorithm.SSteps)
	}
	if c.Algorithm.EEOuterSteps <= 0 {
		return fmt.Errorf("algorithm.ee_steps must be positive, got %d", c.Algorithm.EEOuterSteps)
	}
	if c.Algorithm.EEInnerSteps <= 0 {
		return fmt.Errorf("algorithm.ee_inner_steps must be positive, got %d", c.Algorithm.EEInnerSteps)
	}
	if c.Algorithm.StepMultiplierS <= 0 || c.Algorithm.StepMultiplierEE <= 0 {
		return fmt.Errorf("algorithm step multipliers must be positive")
	}
	if c.Algorithm.VarianceLimit <= 0 {
		return fmt.Errorf("algorithm.variance_limit must be positive, got %g", c.Algorithm.VarianceLimit)
	}
	if c.Input.ArcListFile == "" {
		return fmt.Errorf("input.arclist_file is required")
	}
	if c.Sampler.Conditional && c.Input.ZoneFile == "" {
		return fmt.Errorf("sampler.conditional requires input.zone_file")
	}
	if c.Sampler.Conditional && c.Sampler.ForbidReciprocity {
		return fmt.Errorf("sampler.forbid_reciprocity is not supported with sampler.conditional")
	}
	if c.NumEffects() == 0 {
		return fmt.Errorf("no effects configured")
	}
	if c.Sampler.UseIFDSampler {
		for _, name := range c.Effects.Structural {
			if strings.EqualFold(name, "Arc") {
				return fmt.Errorf("cannot include the Arc effect when using the IFD sampler: " +
					"the IFD sampler computes Arc from its auxiliary parameter")
			}
		}
	}
	for _, a := range c.Effects.Attribute {
		if a.Effect == "" || a.Attribute == "" {
			return fmt.Errorf("attribute effect entries need both effect and attribute names")
		}
	}
	for _, d := range c.Effects.Dyadic {
		if d.Effect == "" {
			return fmt.Errorf("dyadic effect entries need an effect name")
		}
	}
	return nil
}

// NumEffects returns the total number of configured effects, which is the
// parameter vector length.
func (c *Config) NumEffects() int {
	return len(c.Effects.Structural) + len(c.Effects.Attribute) + len(c.Effects.Dyadic)
}

// applyEnvOverrides applies ESTIMNET_* environment variable overrides.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ESTIMNET_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("ESTIMNET_RESULTS_DB"); v != "" {
		cfg.Output.ResultsDB = v
	}
}
