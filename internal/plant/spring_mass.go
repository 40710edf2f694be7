package plant

import (
	"fmt"

	"github.com/san-kum/pidctl/internal/sim"
)

const (
	DefaultMass      = 1.0
	DefaultStiffness = 10.0
	DefaultDamping   = 0.5
)

// SpringMass is a damped mass on a spring with a force input. The state is
// [position, velocity] and position is measured.
type SpringMass struct {
	Mass      float64
	Stiffness float64
	Damping   float64
}

func NewSpringMass() *SpringMass {
	return &SpringMass{
		Mass:      DefaultMass,
		Stiffness: DefaultStiffness,
		Damping:   DefaultDamping,
	}
}

func (s *SpringMass) StateDim() int   { return 2 }
func (s *SpringMass) ControlDim() int { return 1 }
func (s *SpringMass) Measured() int   { return 0 }

func (s *SpringMass) Derivative(x sim.State, u sim.Control, t float64) sim.State {
	pos, vel := x[0], x[1]

	force := 0.0
	if len(u) > 0 {
		force = u[0]
	}

	acc := (force - s.Stiffness*pos - s.Damping*vel) / s.Mass
	return sim.State{vel, acc}
}

func (s *SpringMass) DefaultState() sim.State { return sim.State{0, 0} }

func (s *SpringMass) Params() map[string]float64 {
	return map[string]float64{
		"mass":      s.Mass,
		"stiffness": s.Stiffness,
		"damping":   s.Damping,
	}
}

func (s *SpringMass) SetParam(name string, value float64) error {
	switch name {
	case "mass":
		if !(value > 0) {
			return fmt.Errorf("%w: mass must be positive, got %g", ErrParameterBounds, value)
		}
		s.Mass = value
	case "stiffness":
		s.Stiffness = value
	case "damping":
		s.Damping = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownParam, name)
	}
	return nil
}
