package integrators

import "github.com/san-kum/pidctl/internal/sim"

// Euler is the explicit forward Euler method. It matches how a sampled
// controller sees a plant that is held constant over one timestep.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(p sim.Plant, x sim.State, u sim.Control, t float64, dt float64) sim.State {
	dx := p.Derivative(x, u, t)
	result := make(sim.State, len(x))
	for i := range x {
		result[i] = x[i] + dt*dx[i]
	}
	return result
}
