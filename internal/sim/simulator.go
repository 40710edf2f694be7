package sim

import (
	"context"
	"fmt"
	"math"
)

type Simulator struct {
	plant      Plant
	integrator Integrator
	controller Controller
	metrics    []Metric
	observers  []Observer
}

func New(plant Plant, integrator Integrator, controller Controller) *Simulator {
	return &Simulator{
		plant:      plant,
		integrator: integrator,
		controller: controller,
		metrics:    make([]Metric, 0),
		observers:  make([]Observer, 0),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Plant() Plant           { return s.plant }
func (s *Simulator) Controller() Controller { return s.controller }

// Run closes the loop for round(Duration/Dt) steps starting from x0 at
// cfg.Start. A NaN/Inf state ends the run early with a StepError recorded in
// the result; cancellation returns the partial result and ctx.Err().
func (s *Simulator) Run(ctx context.Context, x0 State, cfg Config) (*Result, error) {
	if err := s.validate(x0, cfg); err != nil {
		return nil, err
	}

	steps := int(math.Round(cfg.Duration / cfg.Dt))
	result := &Result{
		States:    make([]State, 0, steps+1),
		Controls:  make([]Control, 0, steps),
		Times:     make([]float64, 0, steps+1),
		Setpoints: make([]float64, 0, steps+1),
		Metrics:   make(map[string]float64),
		Errors:    make([]error, 0),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	x := x0.Clone()
	t := cfg.Start
	s.record(result, x, t)

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		u := s.controller.Compute(x, t)

		for _, m := range s.metrics {
			m.Observe(x, u, t)
		}
		for _, obs := range s.observers {
			obs.OnStep(x, u, t)
		}

		next := s.integrator.Step(s.plant, x, u, t, cfg.Dt)
		if cfg.ValidateState && !next.IsValid() {
			result.Errors = append(result.Errors, &StepError{Step: i, Time: t, State: next, Wrapped: ErrInvalidState})
			break
		}

		x = next
		t = cfg.Start + float64(i+1)*cfg.Dt
		result.StepsTaken++

		result.Controls = append(result.Controls, u)
		s.record(result, x, t)
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, nil
}

func (s *Simulator) record(r *Result, x State, t float64) {
	r.States = append(r.States, x.Clone())
	r.Times = append(r.Times, t)
	sp := 0.0
	if tr, ok := s.controller.(Tracker); ok {
		sp = tr.Setpoint()
	}
	r.Setpoints = append(r.Setpoints, sp)
}

func (s *Simulator) validate(x0 State, cfg Config) error {
	if !(cfg.Dt > 0) {
		return fmt.Errorf("%w: dt must be positive, got %f", ErrInvalidConfig, cfg.Dt)
	}
	if !(cfg.Duration > 0) {
		return fmt.Errorf("%w: duration must be positive, got %f", ErrInvalidConfig, cfg.Duration)
	}
	if len(x0) != s.plant.StateDim() {
		return fmt.Errorf("%w: got %d values, plant has %d", ErrDimensionMismatch, len(x0), s.plant.StateDim())
	}
	return nil
}

// RunWithCallback steps the loop until Duration elapses or callback returns
// false, and returns the last valid state. The callback sees each state with
// the control computed for it, before the plant advances.
func (s *Simulator) RunWithCallback(ctx context.Context, x0 State, cfg Config, callback func(State, Control, float64) bool) (State, error) {
	if err := s.validate(x0, cfg); err != nil {
		return nil, err
	}

	x := x0.Clone()
	steps := int(math.Round(cfg.Duration / cfg.Dt))

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return x, ctx.Err()
		default:
		}

		t := cfg.Start + float64(i)*cfg.Dt
		u := s.controller.Compute(x, t)

		if !callback(x, u, t) {
			return x, nil
		}

		next := s.integrator.Step(s.plant, x, u, t, cfg.Dt)
		if cfg.ValidateState && !next.IsValid() {
			return x, &StepError{Step: i, Time: t + cfg.Dt, State: next, Wrapped: ErrInvalidState}
		}
		x = next
	}

	return x, nil
}
