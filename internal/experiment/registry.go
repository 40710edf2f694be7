package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/pidctl/internal/config"
	"github.com/san-kum/pidctl/internal/control"
	"github.com/san-kum/pidctl/internal/integrators"
	"github.com/san-kum/pidctl/internal/metrics"
	"github.com/san-kum/pidctl/internal/plant"
	"github.com/san-kum/pidctl/internal/sim"
)

type ControllerFactory func(cfg *config.Config, p sim.Plant) (sim.Controller, error)

type Registry struct {
	plants      map[string]func() sim.Plant
	integrators map[string]func() sim.Integrator
	controllers map[string]ControllerFactory
}

func NewRegistry() *Registry {
	r := &Registry{
		plants:      make(map[string]func() sim.Plant),
		integrators: make(map[string]func() sim.Integrator),
		controllers: make(map[string]ControllerFactory),
	}

	r.plants["first_order"] = func() sim.Plant { return plant.NewFirstOrder() }
	r.plants["spring_mass"] = func() sim.Plant { return plant.NewSpringMass() }
	r.plants["pendulum"] = func() sim.Plant { return plant.NewPendulum() }

	r.integrators["euler"] = func() sim.Integrator { return integrators.NewEuler() }
	r.integrators["rk4"] = func() sim.Integrator { return integrators.NewRK4() }

	r.controllers["none"] = func(cfg *config.Config, p sim.Plant) (sim.Controller, error) {
		return control.NewNone(p.ControlDim()), nil
	}
	r.controllers["pid"] = func(cfg *config.Config, p sim.Plant) (sim.Controller, error) {
		return control.NewLoop(cfg.PID, cfg.Setpoint, p.Measured(), p.ControlDim())
	}

	return r
}

func (r *Registry) GetPlant(name string) (sim.Plant, error) {
	fn, ok := r.plants[name]
	if !ok {
		return nil, fmt.Errorf("unknown plant: %s", name)
	}
	return fn(), nil
}

func (r *Registry) GetIntegrator(name string) (sim.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

func (r *Registry) GetController(name string, cfg *config.Config, p sim.Plant) (sim.Controller, error) {
	fn, ok := r.controllers[name]
	if !ok {
		return nil, fmt.Errorf("unknown controller: %s", name)
	}
	return fn(cfg, p)
}

func (r *Registry) ListPlants() []string {
	return sortedKeys(r.plants)
}

func (r *Registry) ListIntegrators() []string {
	return sortedKeys(r.integrators)
}

func (r *Registry) ListControllers() []string {
	return sortedKeys(r.controllers)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultMetrics returns effort metrics for any controller, plus tracking and
// saturation metrics when the controller follows a setpoint.
func (r *Registry) DefaultMetrics(cfg *config.Config, p sim.Plant, ctrl sim.Controller) []sim.Metric {
	ms := []sim.Metric{metrics.NewControlEffort()}

	tracker, ok := ctrl.(sim.Tracker)
	if !ok {
		return ms
	}
	return append(ms,
		metrics.NewSaturation(cfg.PID.MinOut, cfg.PID.MaxOut),
		metrics.NewTracking(metrics.IAE, tracker, p.Measured(), cfg.Dt()),
		metrics.NewTracking(metrics.ISE, tracker, p.Measured(), cfg.Dt()),
		metrics.NewTracking(metrics.RMS, tracker, p.Measured(), cfg.Dt()),
	)
}
