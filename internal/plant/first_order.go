package plant

import (
	"fmt"

	"github.com/san-kum/pidctl/internal/sim"
)

// FirstOrder is tau*dy/dt = -y + Gain*u + Disturbance.
type FirstOrder struct {
	Tau         float64
	Gain        float64
	Disturbance float64
}

func NewFirstOrder() *FirstOrder {
	return &FirstOrder{Tau: 1.0, Gain: 1.0}
}

func (p *FirstOrder) StateDim() int   { return 1 }
func (p *FirstOrder) ControlDim() int { return 1 }
func (p *FirstOrder) Measured() int   { return 0 }

func (p *FirstOrder) Derivative(x sim.State, u sim.Control, t float64) sim.State {
	in := 0.0
	if len(u) > 0 {
		in = u[0]
	}
	return sim.State{(-x[0] + p.Gain*in + p.Disturbance) / p.Tau}
}

func (p *FirstOrder) DefaultState() sim.State { return sim.State{0} }

func (p *FirstOrder) Params() map[string]float64 {
	return map[string]float64{
		"tau":         p.Tau,
		"gain":        p.Gain,
		"disturbance": p.Disturbance,
	}
}

func (p *FirstOrder) SetParam(name string, value float64) error {
	switch name {
	case "tau":
		if !(value > 0) {
			return fmt.Errorf("%w: tau must be positive, got %g", ErrParameterBounds, value)
		}
		p.Tau = value
	case "gain":
		p.Gain = value
	case "disturbance":
		p.Disturbance = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownParam, name)
	}
	return nil
}
