package metrics

import "github.com/san-kum/pidctl/internal/sim"

// Saturation is the fraction of steps where the control output sits on
// one of the controller bounds.
type Saturation struct {
	name      string
	min, max  float64
	saturated int
	samples   int
}

func NewSaturation(min, max float64) *Saturation {
	return &Saturation{
		name: "saturation",
		min:  min,
		max:  max,
	}
}

func (s *Saturation) Name() string {
	return s.name
}

func (s *Saturation) Observe(x sim.State, u sim.Control, t float64) {
	s.samples++
	if len(u) == 0 {
		return
	}
	if u[0] <= s.min || u[0] >= s.max {
		s.saturated++
	}
}

func (s *Saturation) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return float64(s.saturated) / float64(s.samples)
}

func (s *Saturation) Reset() {
	s.saturated = 0
	s.samples = 0
}
