package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

const (
	riseLow    = 0.1
	riseHigh   = 0.9
	settleBand = 0.02
)

// StepInfo describes a response to a setpoint step. Times are relative to
// the first sample; a time is NaN when the response never gets there.
type StepInfo struct {
	Peak             float64
	Overshoot        float64
	RiseTime         float64
	SettlingTime     float64
	SteadyStateError float64
}

// Step analyses values sampled at times, moving from values[0] towards
// setpoint. Rise time is 10% to 90% of the step, settling is entry into a 2%
// band that is never left again.
func Step(times, values []float64, setpoint float64) StepInfo {
	info := StepInfo{RiseTime: math.NaN(), SettlingTime: math.NaN()}
	n := len(values)
	if n == 0 || len(times) != n {
		return info
	}

	y0 := values[0]
	delta := setpoint - y0
	info.SteadyStateError = setpoint - values[n-1]
	if delta == 0 {
		info.Peak = y0
		info.RiseTime, info.SettlingTime = 0, 0
		return info
	}

	norm := make([]float64, n)
	for i, v := range values {
		norm[i] = (v - y0) / delta
	}

	peak := floats.MaxIdx(norm)
	info.Peak = values[peak]
	info.Overshoot = math.Max(0, (norm[peak]-1)*100)

	t0 := times[0]
	low, high := -1, -1
	for i, r := range norm {
		if low < 0 && r >= riseLow {
			low = i
		}
		if r >= riseHigh {
			high = i
			break
		}
	}
	if low >= 0 && high >= 0 {
		info.RiseTime = times[high] - times[low]
	}

	last := -1
	for i, r := range norm {
		if math.Abs(r-1) > settleBand {
			last = i
		}
	}
	switch {
	case last < 0:
		info.SettlingTime = 0
	case last < n-1:
		info.SettlingTime = times[last+1] - t0
	}

	return info
}
