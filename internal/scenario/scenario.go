// Package scenario runs scripted closed-loop sequences. A scenario is a base
// run configuration followed by timed phases; each phase may move the
// setpoint, retune the controller, reset its history or change plant
// parameters, and the plant state carries over from one phase to the next.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/san-kum/pidctl/internal/config"
	"github.com/san-kum/pidctl/internal/experiment"
	"github.com/san-kum/pidctl/internal/pid"
	"github.com/san-kum/pidctl/internal/sim"
	"gopkg.in/yaml.v3"
)

var ErrNoLoop = errors.New("scenario: phase needs a pid controller")

type Scenario struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Base        config.Config `yaml:"base"`
	Phases      []Phase       `yaml:"phases"`
}

// Phase is one segment of a scenario. Nil fields leave the running values
// unchanged.
type Phase struct {
	Name        string             `yaml:"name"`
	Duration    float64            `yaml:"duration"`
	Setpoint    *float64           `yaml:"setpoint,omitempty"`
	PID         *Retune            `yaml:"pid,omitempty"`
	Reset       bool               `yaml:"reset"`
	PlantParams map[string]float64 `yaml:"plant_params,omitempty"`
}

// Retune overrides fields of the active controller config. Omitted fields
// keep their current values.
type Retune struct {
	KP       *float64 `yaml:"kp,omitempty"`
	KI       *float64 `yaml:"ki,omitempty"`
	KD       *float64 `yaml:"kd,omitempty"`
	Timestep *float64 `yaml:"timestep,omitempty"`
	MinOut   *float64 `yaml:"min_out,omitempty"`
	MaxOut   *float64 `yaml:"max_out,omitempty"`
}

// Apply returns cfg with the set fields replaced.
func (r Retune) Apply(cfg pid.Config) pid.Config {
	set := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	set(&cfg.KP, r.KP)
	set(&cfg.KI, r.KI)
	set(&cfg.KD, r.KD)
	set(&cfg.Timestep, r.Timestep)
	set(&cfg.MinOut, r.MinOut)
	set(&cfg.MaxOut, r.MaxOut)
	return cfg
}

type PhaseResult struct {
	Name   string
	Result *sim.Result
}

type Report struct {
	Name   string
	Phases []PhaseResult
	// PID is the controller config active at the end of the run.
	PID pid.Config
}

// Load reads a scenario; the base run config starts from the defaults.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	sc := Scenario{Base: *config.DefaultConfig()}
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &sc, nil
}

func (s *Scenario) Validate() error {
	if len(s.Phases) == 0 {
		return fmt.Errorf("scenario %q has no phases", s.Name)
	}
	for i, p := range s.Phases {
		if !(p.Duration > 0) {
			return fmt.Errorf("phase %d: duration must be positive, got %g", i+1, p.Duration)
		}
	}
	return nil
}

// Run executes every phase in order. The loop period follows the active
// controller timestep, so a retune may change it between phases.
func Run(ctx context.Context, s *Scenario, registry *experiment.Registry) (*Report, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	base := s.Base.Clone()
	exp := experiment.New(base, registry)
	if err := exp.Setup(); err != nil {
		return nil, err
	}

	report := &Report{Name: s.Name, Phases: make([]PhaseResult, 0, len(s.Phases)), PID: base.PID}
	x := exp.InitialState()
	t := 0.0

	for i, phase := range s.Phases {
		if err := apply(exp, phase); err != nil {
			return report, fmt.Errorf("phase %d: %w", i+1, err)
		}

		cfg := exp.SimConfig()
		cfg.Start = t
		cfg.Duration = phase.Duration
		if loop := exp.Loop(); loop != nil {
			report.PID, _ = loop.PID.Config()
			cfg.Dt = report.PID.Timestep
		}

		res, err := exp.Simulator().Run(ctx, x, cfg)
		if err != nil {
			return report, fmt.Errorf("phase %d: %w", i+1, err)
		}

		name := phase.Name
		if name == "" {
			name = fmt.Sprintf("phase %d", i+1)
		}
		report.Phases = append(report.Phases, PhaseResult{Name: name, Result: res})

		if len(res.Errors) > 0 {
			return report, fmt.Errorf("phase %d: %w", i+1, res.Errors[0])
		}
		x = res.Final()
		t = res.Times[len(res.Times)-1]
	}

	return report, nil
}

func apply(exp *experiment.Experiment, phase Phase) error {
	loop := exp.Loop()
	if loop == nil && (phase.Setpoint != nil || phase.PID != nil || phase.Reset) {
		return ErrNoLoop
	}

	if phase.Setpoint != nil {
		loop.SetSetpoint(*phase.Setpoint)
	}
	if phase.PID != nil {
		active, _ := loop.PID.Config()
		if err := loop.Retune(phase.PID.Apply(active)); err != nil {
			return err
		}
	}
	if phase.Reset {
		if err := loop.Reset(); err != nil {
			return err
		}
	}

	if len(phase.PlantParams) > 0 {
		tunable, ok := exp.Plant().(sim.Configurable)
		if !ok {
			return fmt.Errorf("plant %s has no parameters", exp.Config().Plant)
		}
		for k, v := range phase.PlantParams {
			if err := tunable.SetParam(k, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// Combined joins the phases into one result. The first sample of each later
// phase repeats the last sample of the previous one and is dropped.
func (r *Report) Combined() *sim.Result {
	out := &sim.Result{Metrics: make(map[string]float64)}
	for i, p := range r.Phases {
		res := p.Result
		skip := 0
		if i > 0 && len(res.States) > 0 {
			skip = 1
		}
		out.States = append(out.States, res.States[skip:]...)
		out.Times = append(out.Times, res.Times[skip:]...)
		out.Setpoints = append(out.Setpoints, res.Setpoints[skip:]...)
		out.Controls = append(out.Controls, res.Controls...)
		out.Errors = append(out.Errors, res.Errors...)
		out.StepsTaken += res.StepsTaken
		for k, v := range res.Metrics {
			out.Metrics[fmt.Sprintf("%s.%s", p.Name, k)] = v
		}
	}
	return out
}
