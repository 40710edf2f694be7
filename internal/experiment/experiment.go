package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/pidctl/internal/config"
	"github.com/san-kum/pidctl/internal/control"
	"github.com/san-kum/pidctl/internal/sim"
)

type defaultStater interface {
	DefaultState() sim.State
}

type Experiment struct {
	cfg       *config.Config
	registry  *Registry
	simulator *sim.Simulator
	plant     sim.Plant
	ctrl      sim.Controller
}

func New(cfg *config.Config, registry *Registry) *Experiment {
	return &Experiment{cfg: cfg, registry: registry}
}

// Setup validates the config and builds the plant, integrator, controller
// and default metrics.
func (e *Experiment) Setup() error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}

	p, err := e.registry.GetPlant(e.cfg.Plant)
	if err != nil {
		return err
	}
	if len(e.cfg.PlantParams) > 0 {
		tunable, ok := p.(sim.Configurable)
		if !ok {
			return fmt.Errorf("plant %s has no parameters", e.cfg.Plant)
		}
		for k, v := range e.cfg.PlantParams {
			if err := tunable.SetParam(k, v); err != nil {
				return err
			}
		}
	}

	integ, err := e.registry.GetIntegrator(e.cfg.Integrator)
	if err != nil {
		return err
	}

	ctrl, err := e.registry.GetController(e.cfg.Controller, e.cfg, p)
	if err != nil {
		return fmt.Errorf("controller %s: %w", e.cfg.Controller, err)
	}

	e.plant = p
	e.ctrl = ctrl
	e.simulator = sim.New(p, integ, ctrl)
	for _, m := range e.registry.DefaultMetrics(e.cfg, p, ctrl) {
		e.simulator.AddMetric(m)
	}
	return nil
}

// InitialState is the configured initial state, or the plant default.
func (e *Experiment) InitialState() sim.State {
	if len(e.cfg.InitState) > 0 {
		return sim.State(e.cfg.InitState).Clone()
	}
	if ds, ok := e.plant.(defaultStater); ok {
		return ds.DefaultState()
	}
	return make(sim.State, e.plant.StateDim())
}

func (e *Experiment) SimConfig() sim.Config {
	return sim.Config{
		Dt:            e.cfg.Dt(),
		Duration:      e.cfg.Duration,
		Seed:          e.cfg.Seed,
		ValidateState: true,
	}
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return e.simulator.Run(ctx, e.InitialState(), e.SimConfig())
}

func (e *Experiment) Config() *config.Config { return e.cfg }

// Simulator returns the underlying simulator for adding observers.
func (e *Experiment) Simulator() *sim.Simulator { return e.simulator }

func (e *Experiment) Plant() sim.Plant { return e.plant }

func (e *Experiment) Controller() sim.Controller { return e.ctrl }

// Loop returns the PID loop, or nil for other controllers.
func (e *Experiment) Loop() *control.Loop {
	loop, _ := e.ctrl.(*control.Loop)
	return loop
}
