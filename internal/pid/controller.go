package pid

// Controller is a discrete-time PID controller. The zero value is
// uninitialized and ready for Initialize.
type Controller struct {
	initialized bool
	config      Config
	prevErr     float64
	integrator  float64
}

// New returns a controller initialized with cfg.
func New(cfg Config) (*Controller, error) {
	c := &Controller{}
	if err := c.Initialize(cfg); err != nil {
		return nil, err
	}
	return c, nil
}

// Initialize stores cfg and clears the run state. It fails on an invalid
// config or when the controller is already initialized; in both cases the
// controller is left unchanged.
func (c *Controller) Initialize(cfg Config) error {
	if c.initialized {
		return ErrAlreadyInitialized
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	c.config = cfg
	c.prevErr = 0
	c.integrator = 0
	c.initialized = true
	return nil
}

// Deinitialize marks the controller uninitialized. It always succeeds.
func (c *Controller) Deinitialize() {
	c.initialized = false
}

func (c *Controller) IsInitialized() bool {
	return c.initialized
}

// Reset clears the integrator and the previous error, keeping the config.
func (c *Controller) Reset() error {
	if !c.initialized {
		return ErrNotInitialized
	}
	c.prevErr = 0
	c.integrator = 0
	return nil
}

// SetConfig replaces the config of an initialized controller. The integrator
// and previous error are kept so the derivative stays continuous across a
// retune; a new KI only affects future accumulation.
func (c *Controller) SetConfig(cfg Config) error {
	if !c.initialized {
		return ErrNotInitialized
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.config = cfg
	return nil
}

// Config returns the active config, or false when uninitialized.
func (c *Controller) Config() (Config, bool) {
	if !c.initialized {
		return Config{}, false
	}
	return c.config, true
}

// Integrator returns the accumulated, gain-applied integral term.
func (c *Controller) Integrator() float64 { return c.integrator }

// PrevError returns the error seen by the last Calculate.
func (c *Controller) PrevError() float64 { return c.prevErr }

// Calculate advances the controller by one timestep and returns the clamped
// output. An uninitialized controller returns 0 and ErrNotInitialized.
func (c *Controller) Calculate(setpoint, measurement float64) (float64, error) {
	if !c.initialized {
		return 0, ErrNotInitialized
	}

	cfg := c.config
	err := setpoint - measurement

	c.integrator += err * cfg.Timestep * cfg.KI
	c.integrator = clamp(c.integrator, cfg.MinOut, cfg.MaxOut)

	out := c.output(err)

	// raw error, before the output clamp
	c.prevErr = err

	return clamp(out, cfg.MinOut, cfg.MaxOut), nil
}

// CalculatePeek returns what Calculate would return if the integrator did
// not advance, without modifying any state.
func (c *Controller) CalculatePeek(setpoint, measurement float64) (float64, error) {
	if !c.initialized {
		return 0, ErrNotInitialized
	}
	out := c.output(setpoint - measurement)
	return clamp(out, c.config.MinOut, c.config.MaxOut), nil
}

func (c *Controller) output(err float64) float64 {
	cfg := c.config
	p := err * cfg.KP
	d := (err - c.prevErr) * cfg.KD / cfg.Timestep
	return p + d + c.integrator
}
