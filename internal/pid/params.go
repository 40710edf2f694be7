package pid

import "fmt"

// Params returns the tunable parameters for live adjustment. An
// uninitialized controller has none.
func (c *Controller) Params() map[string]float64 {
	cfg, ok := c.Config()
	if !ok {
		return map[string]float64{}
	}
	return map[string]float64{
		"kp":      cfg.KP,
		"ki":      cfg.KI,
		"kd":      cfg.KD,
		"min_out": cfg.MinOut,
		"max_out": cfg.MaxOut,
	}
}

// SetParam adjusts one parameter through SetConfig, so a value that would
// make the config invalid is rejected and nothing changes.
func (c *Controller) SetParam(name string, value float64) error {
	cfg, ok := c.Config()
	if !ok {
		return ErrNotInitialized
	}
	switch name {
	case "kp":
		cfg.KP = value
	case "ki":
		cfg.KI = value
	case "kd":
		cfg.KD = value
	case "min_out":
		cfg.MinOut = value
	case "max_out":
		cfg.MaxOut = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownParam, name)
	}
	return c.SetConfig(cfg)
}
