package scenario

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/pidctl/internal/config"
	"github.com/san-kum/pidctl/internal/experiment"
	"github.com/san-kum/pidctl/internal/pid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stepAndRetune = `name: step-and-retune
description: settle, move the setpoint, retune without losing the integral
base:
  plant: first_order
  setpoint: 1.0
  pid: {kp: 2, ki: 1, kd: 0, timestep: 0.01, min_out: -10, max_out: 10}
phases:
  - name: settle
    duration: 15
  - name: step
    duration: 15
    setpoint: 2.0
  - name: retune
    duration: 1
    pid: {kp: 0.5, ki: 0, kd: 0, timestep: 0.01, min_out: -10, max_out: 10}
`

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad(t *testing.T) {
	sc, err := Load(writeScenario(t, stepAndRetune))
	require.NoError(t, err)

	assert.Equal(t, "step-and-retune", sc.Name)
	require.Len(t, sc.Phases, 3)
	assert.Nil(t, sc.Phases[0].Setpoint)
	require.NotNil(t, sc.Phases[1].Setpoint)
	assert.Equal(t, 2.0, *sc.Phases[1].Setpoint)
	require.NotNil(t, sc.Phases[2].PID)
	require.NotNil(t, sc.Phases[2].PID.KP)
	assert.Equal(t, 0.5, *sc.Phases[2].PID.KP)

	// unspecified base keys keep their defaults
	assert.Equal(t, "rk4", sc.Base.Integrator)
	assert.Equal(t, "pid", sc.Base.Controller)
}

func TestRunStepAndRetune(t *testing.T) {
	sc, err := Load(writeScenario(t, stepAndRetune))
	require.NoError(t, err)

	report, err := Run(context.Background(), sc, experiment.NewRegistry())
	require.NoError(t, err)
	require.Len(t, report.Phases, 3)

	settle := report.Phases[0].Result
	assert.InDelta(t, 1.0, settle.Final()[0], 1e-2)

	step := report.Phases[1].Result
	assert.InDelta(t, 2.0, step.Final()[0], 2e-2)
	assert.InDelta(t, 15.0, step.Times[0], 1e-9)
	assert.Equal(t, 2.0, step.Setpoints[len(step.Setpoints)-1])

	// ki=0 after the retune freezes the integral, so the output barely moves
	retune := report.Phases[2].Result
	assert.InDelta(t, 2.0, retune.Final()[0], 5e-2)

	combined := report.Combined()
	assert.Len(t, combined.States, 1+1500+1500+100)
	assert.Equal(t, combined.StepsTaken, len(combined.Controls))
	assert.Contains(t, combined.Metrics, "step.iae")
}

func TestRunReset(t *testing.T) {
	sc := &Scenario{
		Name: "reset",
		Base: *config.DefaultConfig(),
		Phases: []Phase{
			{Duration: 5},
			{Duration: 0.01, Reset: true},
		},
	}

	report, err := Run(context.Background(), sc, experiment.NewRegistry())
	require.NoError(t, err)

	// after reset the first output has no integral term: P + D with prevErr 0
	res := report.Phases[1].Result
	y := res.States[0][0]
	e := sc.Base.Setpoint - y
	want := e*sc.Base.PID.KP + e*sc.Base.PID.KD/sc.Base.PID.Timestep + e*sc.Base.PID.Timestep*sc.Base.PID.KI
	assert.InDelta(t, math.Max(math.Min(want, sc.Base.PID.MaxOut), sc.Base.PID.MinOut), res.Controls[0][0], 1e-9)
}

func TestRunDisturbance(t *testing.T) {
	sc := &Scenario{
		Base: *config.DefaultConfig(),
		Phases: []Phase{
			{Name: "settle", Duration: 15},
			{Name: "load", Duration: 20, PlantParams: map[string]float64{"disturbance": -0.5}},
		},
	}

	report, err := Run(context.Background(), sc, experiment.NewRegistry())
	require.NoError(t, err)

	// integral action rejects the constant disturbance
	assert.InDelta(t, 1.0, report.Phases[1].Result.Final()[0], 1e-2)
}

func TestValidate(t *testing.T) {
	base := *config.DefaultConfig()

	_, err := Run(context.Background(), &Scenario{Base: base}, experiment.NewRegistry())
	assert.Error(t, err)

	_, err = Run(context.Background(), &Scenario{Base: base, Phases: []Phase{{Duration: 0}}}, experiment.NewRegistry())
	assert.Error(t, err)

	inverted := -20.0
	bad := Retune{MaxOut: &inverted}
	_, err = Run(context.Background(), &Scenario{Base: base, Phases: []Phase{{Duration: 1, PID: &bad}}}, experiment.NewRegistry())
	assert.ErrorIs(t, err, pid.ErrInvalidConfig)
}

func TestOpenLoopRejectsControllerPhases(t *testing.T) {
	base := *config.GetPreset("spring_mass", "open_loop")
	sp := 1.0
	sc := &Scenario{Base: base, Phases: []Phase{{Duration: 1, Setpoint: &sp}}}

	_, err := Run(context.Background(), sc, experiment.NewRegistry())
	assert.True(t, errors.Is(err, ErrNoLoop), "got %v", err)
}

func TestPartialRetuneKeepsActiveConfig(t *testing.T) {
	sc, err := Load(writeScenario(t, `name: partial
phases:
  - duration: 1
  - duration: 1
    pid: {kp: 3}
`))
	require.NoError(t, err)

	report, err := Run(context.Background(), sc, experiment.NewRegistry())
	require.NoError(t, err)

	want := config.DefaultConfig().PID
	want.KP = 3
	assert.Equal(t, want, report.PID)
}

func TestTimestepRetuneWeightsTrackingError(t *testing.T) {
	base := *config.DefaultConfig()
	// zero gains hold the plant at rest, so the error stays 1
	base.PID = pid.Config{Timestep: 0.01, MinOut: -1, MaxOut: 1}

	coarse := 0.1
	sc := &Scenario{
		Base: base,
		Phases: []Phase{
			{Name: "fine", Duration: 1},
			{Name: "coarse", Duration: 1, PID: &Retune{Timestep: &coarse}},
		},
	}

	report, err := Run(context.Background(), sc, experiment.NewRegistry())
	require.NoError(t, err)
	require.Len(t, report.Phases, 2)

	assert.Len(t, report.Phases[1].Result.Controls, 10)
	for _, p := range report.Phases {
		assert.InDelta(t, 1.0, p.Result.Metrics["iae"], 1e-9, p.Name)
		assert.InDelta(t, 1.0, p.Result.Metrics["ise"], 1e-9, p.Name)
	}
	assert.Equal(t, 0.1, report.PID.Timestep)
}
