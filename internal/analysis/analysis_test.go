package analysis

import (
	"math"
	"testing"
)

func TestDominantFrequency(t *testing.T) {
	dt := 0.01
	n := 1000
	data := make([]float64, n)
	for i := range data {
		data[i] = 3 + math.Sin(2*math.Pi*2.0*float64(i)*dt)
	}

	freq := DominantFrequency(data, dt)
	if math.Abs(freq-2.0) > 0.11 {
		t.Errorf("expected ~2 Hz, got %f", freq)
	}
}

func TestDominantFrequencyFlat(t *testing.T) {
	data := []float64{1, 1, 1, 1, 1, 1, 1, 1}
	if f := DominantFrequency(data, 0.1); f != 0 {
		t.Errorf("expected 0 for a constant signal, got %f", f)
	}
	if f := DominantFrequency(nil, 0.1); f != 0 {
		t.Errorf("expected 0 for no data, got %f", f)
	}
}

func TestStepFirstOrder(t *testing.T) {
	// y = 1 - exp(-t), tau = 1
	dt := 0.01
	n := 1001
	times := make([]float64, n)
	values := make([]float64, n)
	for i := range times {
		times[i] = float64(i) * dt
		values[i] = 1 - math.Exp(-times[i])
	}

	info := Step(times, values, 1)

	if info.Overshoot != 0 {
		t.Errorf("expected no overshoot, got %f", info.Overshoot)
	}
	// ln(9) for 10%-90%
	if math.Abs(info.RiseTime-math.Log(9)) > 0.02 {
		t.Errorf("expected rise time ~%.3f, got %f", math.Log(9), info.RiseTime)
	}
	// -ln(0.02)
	if math.Abs(info.SettlingTime-3.912) > 0.02 {
		t.Errorf("expected settling time ~3.912, got %f", info.SettlingTime)
	}
	if math.Abs(info.SteadyStateError-math.Exp(-10)) > 1e-9 {
		t.Errorf("unexpected steady-state error %g", info.SteadyStateError)
	}
}

func TestStepOvershoot(t *testing.T) {
	times := []float64{0, 1, 2, 3, 4}
	values := []float64{0, 0.95, 1.3, 1.0, 1.0}

	info := Step(times, values, 1)

	if math.Abs(info.Overshoot-30) > 1e-9 {
		t.Errorf("expected 30%% overshoot, got %f", info.Overshoot)
	}
	if info.Peak != 1.3 {
		t.Errorf("expected peak 1.3, got %f", info.Peak)
	}
	if info.RiseTime != 0 {
		t.Errorf("expected rise within one sample, got %f", info.RiseTime)
	}
	if info.SettlingTime != 3 {
		t.Errorf("expected settling at 3, got %f", info.SettlingTime)
	}
}

func TestStepNeverSettles(t *testing.T) {
	info := Step([]float64{0, 1, 2}, []float64{0, 0.05, 0.5}, 1)

	if !math.IsNaN(info.RiseTime) {
		t.Errorf("expected NaN rise time, got %f", info.RiseTime)
	}
	if !math.IsNaN(info.SettlingTime) {
		t.Errorf("expected NaN settling time, got %f", info.SettlingTime)
	}
	if info.SteadyStateError != 0.5 {
		t.Errorf("expected error 0.5, got %f", info.SteadyStateError)
	}
}

func TestStepNoChange(t *testing.T) {
	info := Step([]float64{0, 1}, []float64{2, 2}, 2)
	if info.RiseTime != 0 || info.SettlingTime != 0 || info.Overshoot != 0 {
		t.Errorf("unexpected info for zero step: %+v", info)
	}
}
