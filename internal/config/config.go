package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultMethod   = "adaptive"
	DefaultStepSize = 0.01
	DefaultRTol     = 1e-9
	DefaultATol     = 1e-12
	DefaultT0       = 0.0
	DefaultTf       = 2 * math.Pi
)

var ErrInvalidConfig = errors.New("config: invalid scenario")

// Config describes one simulation scenario.
type Config struct {
	Name     string       `yaml:"name"`
	Method   string       `yaml:"method"`
	StepSize float64      `yaml:"step_size"`
	RTol     float64      `yaml:"rtol"`
	ATol     float64      `yaml:"atol"`
	MaxStep  float64      `yaml:"max_step,omitempty"`
	MaxSteps int          `yaml:"max_steps,omitempty"`
	T0       float64      `yaml:"t0"`
	Tf       float64      `yaml:"tf"`
	Bodies   []BodyConfig `yaml:"bodies"`
}

type BodyConfig struct {
	Name string  `yaml:"name,omitempty"`
	Mass float64 `yaml:"mass"`
	X    float64 `yaml:"x"`
	Y    float64 `yaml:"y"`
	VX   float64 `yaml:"vx"`
	VY   float64 `yaml:"vy"`
}

// DefaultConfig is an equal-mass binary on a circular orbit.
func DefaultConfig() *Config {
	return &Config{
		Name:     "binary",
		Method:   DefaultMethod,
		StepSize: DefaultStepSize,
		RTol:     DefaultRTol,
		ATol:     DefaultATol,
		T0:       DefaultT0,
		Tf:       DefaultTf,
		Bodies:   binaryBodies(),
	}
}

// Load reads a YAML scenario; fields absent from the file keep their
// DefaultConfig values, except bodies, which must be given.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	cfg.Bodies = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the scenario's structure. The method name is checked by
// the integrators package.
func (c *Config) Validate() error {
	if len(c.Bodies) == 0 {
		return fmt.Errorf("%w: no bodies", ErrInvalidConfig)
	}
	if !(c.T0 < c.Tf) {
		return fmt.Errorf("%w: t0=%g must be before tf=%g", ErrInvalidConfig, c.T0, c.Tf)
	}
	if !(c.StepSize > 0) {
		return fmt.Errorf("%w: step_size must be positive, got %g", ErrInvalidConfig, c.StepSize)
	}
	if !(c.RTol > 0) || !(c.ATol > 0) {
		return fmt.Errorf("%w: tolerances must be positive, got rtol=%g atol=%g", ErrInvalidConfig, c.RTol, c.ATol)
	}
	if c.MaxStep < 0 || c.MaxSteps < 0 {
		return fmt.Errorf("%w: max_step=%g and max_steps=%d must not be negative", ErrInvalidConfig, c.MaxStep, c.MaxSteps)
	}
	total := 0.0
	for i, b := range c.Bodies {
		if b.Mass < 0 {
			return fmt.Errorf("%w: body %d has negative mass %g", ErrInvalidConfig, i, b.Mass)
		}
		total += b.Mass
	}
	if total == 0 {
		return fmt.Errorf("%w: total mass is zero", ErrInvalidConfig)
	}
	return nil
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Bodies = append([]BodyConfig(nil), c.Bodies...)
	return &out
}

// BodyName returns the configured name of body i or a positional default.
func (c *Config) BodyName(i int) string {
	if i < len(c.Bodies) && c.Bodies[i].Name != "" {
		return c.Bodies[i].Name
	}
	return fmt.Sprintf("body%d", i)
}
