package pid

import "fmt"

// Config holds the gains, loop period and output bounds of a controller.
// MinOut and MaxOut bound both the output and the integrator.
type Config struct {
	KP       float64 `yaml:"kp" json:"kp"`
	KD       float64 `yaml:"kd" json:"kd"`
	KI       float64 `yaml:"ki" json:"ki"`
	Timestep float64 `yaml:"timestep" json:"timestep"`
	MinOut   float64 `yaml:"min_out" json:"min_out"`
	MaxOut   float64 `yaml:"max_out" json:"max_out"`
}

// Validate reports whether c can be stored in a controller. The error wraps
// ErrInvalidConfig.
func (c Config) Validate() error {
	if !(c.Timestep > 0) {
		return fmt.Errorf("%w: timestep must be positive, got %g", ErrInvalidConfig, c.Timestep)
	}
	if !(c.MinOut <= c.MaxOut) {
		return fmt.Errorf("%w: min_out %g exceeds max_out %g", ErrInvalidConfig, c.MinOut, c.MaxOut)
	}
	return nil
}

// Valid is Validate() == nil.
func (c Config) Valid() bool {
	return c.Validate() == nil
}

func clamp(v, lo, hi float64) float64 {
	if v > hi {
		return hi
	}
	if v < lo {
		return lo
	}
	return v
}
