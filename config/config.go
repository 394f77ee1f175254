// Package config loads experiment settings for the sindy command from YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/dynadojo-go/baselines"
	"github.com/YuminosukeSato/dynadojo-go/integrate"
	"github.com/YuminosukeSato/dynadojo-go/pkg/errors"
	"github.com/YuminosukeSato/dynadojo-go/systems"
)

const (
	DefaultSystem       = "lorenz"
	DefaultTrajectories = 4
	DefaultTimesteps    = 500
	DefaultTEnd         = 5.0
	DefaultInitScale    = 1.0
	DefaultHorizon      = 200
	DefaultIntegrator   = "dopri5"
)

type Config struct {
	System       string             `yaml:"system"`
	Params       map[string]float64 `yaml:"params,omitempty"`
	Trajectories int                `yaml:"trajectories"`
	Timesteps    int                `yaml:"timesteps"`
	TEnd         float64            `yaml:"t_end"`
	InitScale    float64            `yaml:"init_scale"`
	Noise        float64            `yaml:"noise"`
	Horizon      int                `yaml:"horizon"`
	Seed         int64              `yaml:"seed"`
	Model        ModelConfig        `yaml:"model"`
}

type ModelConfig struct {
	Differentiation string  `yaml:"differentiation"`
	EnsembleModels  int     `yaml:"ensemble_models"`
	Integrator      string  `yaml:"integrator"`
	MaxControlCost  float64 `yaml:"max_control_cost"`
	Workers         int     `yaml:"workers"`
}

func DefaultConfig() *Config {
	return &Config{
		System:       DefaultSystem,
		Trajectories: DefaultTrajectories,
		Timesteps:    DefaultTimesteps,
		TEnd:         DefaultTEnd,
		InitScale:    DefaultInitScale,
		Horizon:      DefaultHorizon,
		Model: ModelConfig{
			Differentiation: "fd",
			EnsembleModels:  baselines.DefaultEnsembleModels,
			Integrator:      DefaultIntegrator,
		},
	}
}

// Load reads a YAML file on top of DefaultConfig and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "encode config")
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if _, err := c.NewSystem(); err != nil {
		return err
	}
	if c.Trajectories < 1 {
		return errors.NewValidationError("trajectories", "must be positive", c.Trajectories)
	}
	if c.Timesteps <= 2 {
		return errors.NewValidationError("timesteps", "must be greater than 2", c.Timesteps)
	}
	if !(c.TEnd > 0) {
		return errors.NewValidationError("t_end", "must be positive", c.TEnd)
	}
	if c.InitScale < 0 {
		return errors.NewValidationError("init_scale", "must be non-negative", c.InitScale)
	}
	if c.Noise < 0 {
		return errors.NewValidationError("noise", "must be non-negative", c.Noise)
	}
	if c.Horizon < 1 {
		return errors.NewValidationError("horizon", "must be positive", c.Horizon)
	}
	if _, err := baselines.ParseDifferentiation(c.Model.Differentiation); err != nil {
		return err
	}
	if _, err := NewIntegrator(c.Model.Integrator); err != nil {
		return err
	}
	return nil
}

// NewSystem looks up the configured system and applies the parameter
// overrides.
func (c *Config) NewSystem() (systems.System, error) {
	sys, err := systems.Lookup(c.System)
	if err != nil {
		return nil, err
	}
	for name, v := range c.Params {
		if err := sys.SetParam(name, v); err != nil {
			return nil, err
		}
	}
	return sys, nil
}

// NewIntegrator maps an integrator name to an implementation.
func NewIntegrator(name string) (integrate.Integrator, error) {
	switch name {
	case "", "dopri5", "odeint":
		return integrate.NewDormandPrince(), nil
	case "rk4":
		return integrate.NewRK4(), nil
	default:
		return nil, errors.NewValidationError("integrator", fmt.Sprintf("unknown integrator %q", name), name)
	}
}

// BaselineOptions converts the model section into options for
// baselines.NewSINDy.
func (c *Config) BaselineOptions() ([]baselines.Option, error) {
	diff, err := baselines.ParseDifferentiation(c.Model.Differentiation)
	if err != nil {
		return nil, err
	}
	integ, err := NewIntegrator(c.Model.Integrator)
	if err != nil {
		return nil, err
	}
	opts := []baselines.Option{
		baselines.WithDifferentiation(diff),
		baselines.WithSeed(c.Seed),
		baselines.WithIntegrator(integ),
	}
	if c.Model.EnsembleModels > 0 {
		opts = append(opts, baselines.WithEnsembleModels(c.Model.EnsembleModels))
	}
	if c.Model.Workers > 0 {
		opts = append(opts, baselines.WithWorkers(c.Model.Workers))
	}
	return opts, nil
}
