package control

import (
	"fmt"

	"github.com/san-kum/pidctl/internal/pid"
	"github.com/san-kum/pidctl/internal/sim"
)

// Loop drives a plant with a PID controller. It measures x[Index] and writes
// the controller output to u[0].
type Loop struct {
	PID      *pid.Controller
	Index    int
	dim      int
	setpoint float64
}

func NewLoop(cfg pid.Config, setpoint float64, index, dim int) (*Loop, error) {
	c, err := pid.New(cfg)
	if err != nil {
		return nil, err
	}
	if dim < 1 {
		dim = 1
	}
	return &Loop{PID: c, Index: index, dim: dim, setpoint: setpoint}, nil
}

func (l *Loop) measure(x sim.State) float64 {
	if l.Index < 0 || l.Index >= len(x) {
		return 0
	}
	return x[l.Index]
}

// Compute advances the controller one step. An uninitialized controller
// yields zero control.
func (l *Loop) Compute(x sim.State, t float64) sim.Control {
	u := make(sim.Control, l.dim)
	out, err := l.PID.Calculate(l.setpoint, l.measure(x))
	if err != nil {
		return u
	}
	u[0] = out
	return u
}

// Peek returns the output the next Compute would produce if the integrator
// did not advance, leaving the controller untouched.
func (l *Loop) Peek(x sim.State) float64 {
	out, _ := l.PID.CalculatePeek(l.setpoint, l.measure(x))
	return out
}

func (l *Loop) Setpoint() float64 { return l.setpoint }

// Period is the active controller timestep, or 0 when uninitialized.
func (l *Loop) Period() float64 {
	cfg, _ := l.PID.Config()
	return cfg.Timestep
}

func (l *Loop) SetSetpoint(sp float64) { l.setpoint = sp }

// Reset clears the controller history.
func (l *Loop) Reset() error {
	return l.PID.Reset()
}

// Retune replaces the controller config, keeping its history.
func (l *Loop) Retune(cfg pid.Config) error {
	return l.PID.SetConfig(cfg)
}

// Params returns the PID gains and bounds plus the setpoint.
func (l *Loop) Params() map[string]float64 {
	params := l.PID.Params()
	params["setpoint"] = l.setpoint
	return params
}

func (l *Loop) SetParam(name string, value float64) error {
	if name == "setpoint" {
		l.setpoint = value
		return nil
	}
	if err := l.PID.SetParam(name, value); err != nil {
		return fmt.Errorf("set %s: %w", name, err)
	}
	return nil
}
