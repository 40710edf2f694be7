package config

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/san-kum/pidctl/internal/pid"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDt       = 0.01
	DefaultDuration = 10.0
	DefaultSetpoint = 1.0
	DefaultKp       = 2.0
	DefaultKi       = 1.0
	DefaultKd       = 0.1
	DefaultMinOut   = -10.0
	DefaultMaxOut   = 10.0
)

var ErrInvalid = errors.New("config: invalid run configuration")

// Names accepted for the plant, integrator and controller keys.
var (
	Plants      = []string{"first_order", "pendulum", "spring_mass"}
	Integrators = []string{"euler", "rk4"}
	Controllers = []string{"none", "pid"}
)

// Config describes one closed-loop run. The simulation step is the
// controller timestep.
type Config struct {
	Plant       string             `yaml:"plant"`
	Integrator  string             `yaml:"integrator"`
	Controller  string             `yaml:"controller"`
	Duration    float64            `yaml:"duration"`
	Seed        int64              `yaml:"seed"`
	Setpoint    float64            `yaml:"setpoint"`
	InitState   []float64          `yaml:"init_state,omitempty"`
	PID         pid.Config         `yaml:"pid"`
	PlantParams map[string]float64 `yaml:"plant_params,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Plant:      "first_order",
		Integrator: "rk4",
		Controller: "pid",
		Duration:   DefaultDuration,
		Setpoint:   DefaultSetpoint,
		PID: pid.Config{
			KP:       DefaultKp,
			KI:       DefaultKi,
			KD:       DefaultKd,
			Timestep: DefaultDt,
			MinOut:   DefaultMinOut,
			MaxOut:   DefaultMaxOut,
		},
	}
}

// Load reads a YAML file over the defaults, so omitted keys keep their
// default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
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

// Validate checks the component names, the run parameters and the
// controller config.
func (c *Config) Validate() error {
	for _, f := range []struct {
		key, value string
		known      []string
	}{
		{"plant", c.Plant, Plants},
		{"integrator", c.Integrator, Integrators},
		{"controller", c.Controller, Controllers},
	} {
		if !slices.Contains(f.known, f.value) {
			return fmt.Errorf("%w: unknown %s %q (available: %v)", ErrInvalid, f.key, f.value, f.known)
		}
	}
	if !(c.Duration > 0) {
		return fmt.Errorf("%w: duration must be positive, got %g", ErrInvalid, c.Duration)
	}
	if err := c.PID.Validate(); err != nil {
		return err
	}
	return nil
}

// Dt is the loop period.
func (c *Config) Dt() float64 {
	return c.PID.Timestep
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	if c.InitState != nil {
		out.InitState = append([]float64(nil), c.InitState...)
	}
	if c.PlantParams != nil {
		out.PlantParams = make(map[string]float64, len(c.PlantParams))
		for k, v := range c.PlantParams {
			out.PlantParams[k] = v
		}
	}
	return &out
}
