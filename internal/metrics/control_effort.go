package metrics

import (
	"github.com/san-kum/pidctl/internal/sim"
	"gonum.org/v1/gonum/floats"
)

// ControlEffort is the mean L1 norm of the control vector per step.
type ControlEffort struct {
	total float64
	steps int
}

func NewControlEffort() *ControlEffort {
	return &ControlEffort{}
}

func (c *ControlEffort) Name() string { return "control_effort" }

func (c *ControlEffort) Observe(x sim.State, u sim.Control, t float64) {
	c.total += floats.Norm(u, 1)
	c.steps++
}

func (c *ControlEffort) Value() float64 {
	if c.steps == 0 {
		return 0
	}
	return c.total / float64(c.steps)
}

func (c *ControlEffort) Reset() {
	*c = ControlEffort{}
}
