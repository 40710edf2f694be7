package plant

import (
	"fmt"
	"math"

	"github.com/san-kum/pidctl/internal/sim"
)

// Pendulum is a damped pendulum with a torque input. The state is
// [theta, omega] and theta is measured.
type Pendulum struct {
	Mass    float64
	Length  float64
	Damping float64
	Gravity float64
}

func NewPendulum() *Pendulum {
	return &Pendulum{
		Mass:    1.0,
		Length:  1.0,
		Damping: 0.1,
		Gravity: 9.81,
	}
}

func (p *Pendulum) StateDim() int   { return 2 }
func (p *Pendulum) ControlDim() int { return 1 }
func (p *Pendulum) Measured() int   { return 0 }

func (p *Pendulum) Derivative(x sim.State, u sim.Control, t float64) sim.State {
	theta, omega := x[0], x[1]

	torque := 0.0
	if len(u) > 0 {
		torque = u[0]
	}
	inertia := p.Mass * p.Length * p.Length
	alpha := (-p.Damping*omega - p.Mass*p.Gravity*p.Length*math.Sin(theta) + torque) / inertia

	return sim.State{omega, alpha}
}

func (p *Pendulum) DefaultState() sim.State { return sim.State{0, 0} }

func (p *Pendulum) Params() map[string]float64 {
	return map[string]float64{
		"mass":    p.Mass,
		"length":  p.Length,
		"damping": p.Damping,
		"gravity": p.Gravity,
	}
}

func (p *Pendulum) SetParam(name string, value float64) error {
	switch name {
	case "mass", "length":
		if !(value > 0) {
			return fmt.Errorf("%w: %s must be positive, got %g", ErrParameterBounds, name, value)
		}
		if name == "mass" {
			p.Mass = value
		} else {
			p.Length = value
		}
	case "damping":
		p.Damping = value
	case "gravity":
		p.Gravity = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownParam, name)
	}
	return nil
}
