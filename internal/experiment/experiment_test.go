package experiment

import (
	"context"
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/san-kum/pidctl/internal/config"
	"github.com/san-kum/pidctl/internal/pid"
)

func TestRegistryLookups(t *testing.T) {
	r := NewRegistry()

	if _, err := r.GetPlant("first_order"); err != nil {
		t.Errorf("first_order: %v", err)
	}
	if _, err := r.GetPlant("warp_drive"); err == nil {
		t.Error("expected error for unknown plant")
	}
	if _, err := r.GetIntegrator("leapfrog"); err == nil {
		t.Error("expected error for unknown integrator")
	}

	plants := r.ListPlants()
	if len(plants) != 3 || plants[0] != "first_order" {
		t.Errorf("unexpected plants %v", plants)
	}
}

func TestRegistryMatchesConfigNames(t *testing.T) {
	r := NewRegistry()
	if !slices.Equal(r.ListPlants(), config.Plants) {
		t.Errorf("plants: registry %v, config %v", r.ListPlants(), config.Plants)
	}
	if !slices.Equal(r.ListIntegrators(), config.Integrators) {
		t.Errorf("integrators: registry %v, config %v", r.ListIntegrators(), config.Integrators)
	}
	if !slices.Equal(r.ListControllers(), config.Controllers) {
		t.Errorf("controllers: registry %v, config %v", r.ListControllers(), config.Controllers)
	}
}

func TestExperimentRun(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Duration = 15

	exp := New(cfg, NewRegistry())
	if err := exp.Setup(); err != nil {
		t.Fatalf("setup: %v", err)
	}
	result, err := exp.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if want := 1501; len(result.States) != want {
		t.Errorf("expected %d states, got %d", want, len(result.States))
	}
	if y := result.Final()[0]; math.Abs(y-cfg.Setpoint) > 1e-2 {
		t.Errorf("expected to track setpoint %f, got %f", cfg.Setpoint, y)
	}
	for _, name := range []string{"control_effort", "saturation", "iae", "ise", "rms_error"} {
		if _, ok := result.Metrics[name]; !ok {
			t.Errorf("missing metric %s", name)
		}
	}
	if exp.Loop() == nil {
		t.Error("expected a pid loop")
	}
}

func TestExperimentPlantParams(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.PlantParams = map[string]float64{"tau": 5}

	exp := New(cfg, NewRegistry())
	if err := exp.Setup(); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if tau := exp.Plant().(interface{ Params() map[string]float64 }).Params()["tau"]; tau != 5 {
		t.Errorf("expected tau 5, got %f", tau)
	}

	cfg.PlantParams = map[string]float64{"tau": -1}
	if err := New(cfg, NewRegistry()).Setup(); err == nil {
		t.Error("expected error for negative tau")
	}
}

func TestExperimentOpenLoop(t *testing.T) {
	cfg := config.GetPreset("spring_mass", "open_loop")
	exp := New(cfg, NewRegistry())
	if err := exp.Setup(); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if exp.Loop() != nil {
		t.Error("open loop should have no pid loop")
	}
	result, err := exp.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, ok := result.Metrics["iae"]; ok {
		t.Error("open loop should not report tracking metrics")
	}
	if result.States[0][0] != 1.0 {
		t.Errorf("expected init state 1.0, got %f", result.States[0][0])
	}
}

func TestExperimentInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.PID.Timestep = -1
	if err := New(cfg, NewRegistry()).Setup(); !errors.Is(err, pid.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestRunWithoutSetup(t *testing.T) {
	if _, err := New(config.DefaultConfig(), NewRegistry()).Run(context.Background()); err == nil {
		t.Error("expected error running without setup")
	}
}

func TestCompare(t *testing.T) {
	base := config.DefaultConfig()
	base.Duration = 5

	variants := []pid.Config{
		{KP: 0.5, Timestep: 0.01, MinOut: -10, MaxOut: 10},
		{KP: 4, KI: 3, Timestep: 0.01, MinOut: -10, MaxOut: 10},
	}

	results, err := Compare(context.Background(), NewRegistry(), base, variants)
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	// P-only leaves a steady-state error; PI removes it
	if results[0].Metrics["iae"] <= results[1].Metrics["iae"] {
		t.Errorf("expected PI to beat P: %f vs %f", results[0].Metrics["iae"], results[1].Metrics["iae"])
	}
	if base.PID.KP != config.DefaultKp {
		t.Error("compare modified the base config")
	}
}

func TestCompareInvalidVariant(t *testing.T) {
	variants := []pid.Config{
		{KP: 1, Timestep: 0.01, MinOut: -1, MaxOut: 1},
		{KP: 1, Timestep: 0, MinOut: -1, MaxOut: 1},
	}
	_, err := Compare(context.Background(), NewRegistry(), config.DefaultConfig(), variants)
	if !errors.Is(err, pid.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}
