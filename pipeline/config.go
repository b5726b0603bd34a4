package pipeline

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RunConfig holds the sampling-run options, loadable from a YAML file.
// Zero values mean "not set" and are filled by normalize; Validate reports
// every wiring mistake as a ConfigurationError before any sampling begins.
type RunConfig struct {
	EnsembleSize int `yaml:"ensemble_size"`

	RandomPolicy RandomPolicy `yaml:"random_policy"`
	SeedTracer   int64        `yaml:"seed_tracer"`

	Protocol Protocol `yaml:"protocol"`

	LikelihoodRescaler  float64 `yaml:"likelihood_rescaler"`
	CheckThreshold      bool    `yaml:"check_threshold"`
	LikelihoodThreshold float64 `yaml:"likelihood_threshold"`

	// SamplingControllers are passed through to the external sampler
	// (live points, iteration caps and similar); the pipeline does not
	// interpret them.
	SamplingControllers map[string]float64 `yaml:"sampling_controllers"`
}

// LoadRunConfig reads and parses a YAML run configuration file.
func LoadRunConfig(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading run config: %w", err)
	}
	var cfg RunConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing run config: %w", err)
	}
	return &cfg, nil
}

// normalize returns a copy with defaults filled in for unset fields.
func (c RunConfig) normalize() RunConfig {
	if c.EnsembleSize == 0 {
		c.EnsembleSize = 1
	}
	if c.RandomPolicy == "" {
		c.RandomPolicy = RandomFree
	}
	if c.Protocol == "" {
		c.Protocol = ProtocolReplicated
	}
	if c.LikelihoodRescaler == 0 {
		c.LikelihoodRescaler = 1
	}
	return c
}

// Validate checks policy names and numeric ranges.
func (c *RunConfig) Validate() error {
	if c.EnsembleSize < 0 {
		return configErrorf("ensemble_size must be positive, got %d", c.EnsembleSize)
	}
	if c.RandomPolicy != "" && !ValidRandomPolicies[c.RandomPolicy] {
		return configErrorf("unknown randomness policy %q", c.RandomPolicy)
	}
	if c.Protocol != "" && !ValidProtocols[c.Protocol] {
		return configErrorf("unknown protocol %q", c.Protocol)
	}
	return nil
}
