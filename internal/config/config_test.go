package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return path
}

// validConfig returns a Default config made valid by adding the required
// input file and one effect.
func validConfig() *Config {
	cfg := Default()
	cfg.Input.ArcListFile = "net.net"
	cfg.Effects.Structural = []string{"Arc"}
	return cfg
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Sampler.Steps != 1000 {
		t.Errorf("Sampler.Steps = %d, want 1000", cfg.Sampler.Steps)
	}
	if cfg.Algorithm.StepMultiplierS != 0.1 {
		t.Errorf("StepMultiplierS = %g, want 0.1", cfg.Algorithm.StepMultiplierS)
	}
	if cfg.Algorithm.StepMultiplierEE != 1e-09 {
		t.Errorf("StepMultiplierEE = %g, want 1e-09", cfg.Algorithm.StepMultiplierEE)
	}
	if cfg.Algorithm.VarianceLimit != 1e-02 {
		t.Errorf("VarianceLimit = %g, want 1e-02", cfg.Algorithm.VarianceLimit)
	}
	if cfg.Algorithm.SSteps != 50 || cfg.Algorithm.EEOuterSteps != 500 || cfg.Algorithm.EEInnerSteps != 100 {
		t.Errorf("phase lengths = %d/%d/%d, want 50/500/100",
			cfg.Algorithm.SSteps, cfg.Algorithm.EEOuterSteps, cfg.Algorithm.EEInnerSteps)
	}
	if cfg.Output.ThetaPrefix != "theta_values" || cfg.Output.DzAPrefix != "dzA_values" {
		t.Errorf("output prefixes = %q/%q", cfg.Output.ThetaPrefix, cfg.Output.DzAPrefix)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
sampler:
  steps: 4000
  forbid_reciprocity: true
algorithm:
  ee_steps: 200
  output_all_steps: true
input:
  arclist_file: example.net
  binattr_file: bin.txt
output:
  theta_prefix: out/theta
effects:
  structural: [Arc, Reciprocity, AltInStars]
  attribute:
    - effect: Sender
      attribute: smoker
  dyadic:
    - effect: GeoDistance
      attributes: [lat, long]
`)
	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if cfg.Sampler.Steps != 4000 || !cfg.Sampler.ForbidReciprocity {
		t.Errorf("sampler = %+v", cfg.Sampler)
	}
	if cfg.Algorithm.EEOuterSteps != 200 || !cfg.Algorithm.OutputAllSteps {
		t.Errorf("algorithm = %+v", cfg.Algorithm)
	}
	// Unset values keep their defaults.
	if cfg.Algorithm.EEInnerSteps != 100 || cfg.Algorithm.StepMultiplierS != 0.1 {
		t.Errorf("defaults not preserved: %+v", cfg.Algorithm)
	}
	if cfg.Input.ArcListFile != "example.net" || cfg.Input.BinaryAttrFile != "bin.txt" {
		t.Errorf("input = %+v", cfg.Input)
	}
	if cfg.Output.ThetaPrefix != "out/theta" || cfg.Output.DzAPrefix != "dzA_values" {
		t.Errorf("output = %+v", cfg.Output)
	}
	if cfg.NumEffects() != 5 {
		t.Errorf("NumEffects = %d, want 5", cfg.NumEffects())
	}
	if cfg.Effects.Attribute[0].Attribute != "smoker" {
		t.Errorf("attribute effect = %+v", cfg.Effects.Attribute[0])
	}
	if got := cfg.Effects.Dyadic[0].Attributes; len(got) != 2 || got[0] != "lat" {
		t.Errorf("dyadic attributes = %v", got)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadFromFileErrors(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := LoadFromFile(writeConfig(t, "sampler: [not, a, mapping]")); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ESTIMNET_LOG_LEVEL", "trace")
	t.Setenv("ESTIMNET_RESULTS_DB", "/tmp/results.db")
	cfg, err := LoadFromFile(writeConfig(t, "input:\n  arclist_file: a.net\n"))
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if cfg.Logging.Level != "trace" {
		t.Errorf("Logging.Level = %q, want env override", cfg.Logging.Level)
	}
	if cfg.Output.ResultsDB != "/tmp/results.db" {
		t.Errorf("Output.ResultsDB = %q, want env override", cfg.Output.ResultsDB)
	}
}

func TestValidate(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"zero sampler steps", func(c *Config) { c.Sampler.Steps = 0 }, "sampler.steps"},
		{"zero s steps", func(c *Config) { c.Algorithm.SSteps = 0 }, "s_steps"},
		{"zero outer steps", func(c *Config) { c.Algorithm.EEOuterSteps = 0 }, "ee_steps"},
		{"zero inner steps", func(c *Config) { c.Algorithm.EEInnerSteps = 0 }, "ee_inner_steps"},
		{"negative multiplier", func(c *Config) { c.Algorithm.StepMultiplierEE = -1 }, "multipliers"},
		{"zero variance limit", func(c *Config) { c.Algorithm.VarianceLimit = 0 }, "variance_limit"},
		{"no arc list", func(c *Config) { c.Input.ArcListFile = "" }, "arclist_file"},
		{"conditional without zones", func(c *Config) { c.Sampler.Conditional = true }, "zone_file"},
		{
			"conditional with forbid reciprocity",
			func(c *Config) {
				c.Sampler.Conditional = true
				c.Sampler.ForbidReciprocity = true
				c.Input.ZoneFile = "zones.txt"
			},
			"forbid_reciprocity",
		},
		{"no effects", func(c *Config) { c.Effects = EffectsConfig{} }, "no effects"},
		{
			"IFD sampler with Arc effect",
			func(c *Config) { c.Sampler.UseIFDSampler = true },
			"Arc effect",
		},
		{
			"IFD sampler with lowercase arc effect",
			func(c *Config) {
				c.Sampler.UseIFDSampler = true
				c.Effects.Structural = []string{"arc"}
			},
			"Arc effect",
		},
		{
			"attribute effect missing attribute",
			func(c *Config) { c.Effects.Attribute = []AttributeEffect{{Effect: "Sender"}} },
			"attribute",
		},
		{
			"dyadic effect missing name",
			func(c *Config) { c.Effects.Dyadic = []DyadicEffect{{Attributes: []string{"x"}}} },
			"dyadic",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("err = %v, want mention of %q", err, tc.wantErr)
			}
		})
	}
}

func TestIFDSamplerWithoutArcEffectValidates(t *testing.T) {
	cfg := validConfig()
	cfg.Sampler.UseIFDSampler = true
	cfg.Effects.Structural = []string{"Reciprocity"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}
