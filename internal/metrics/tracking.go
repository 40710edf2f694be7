package metrics

import (
	"math"

	"github.com/san-kum/pidctl/internal/sim"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

type TrackingKind int

const (
	// IAE is the integral of the absolute error.
	IAE TrackingKind = iota
	// ISE is the integral of the squared error.
	ISE
	// RMS is the root mean square error.
	RMS
)

func (k TrackingKind) String() string {
	switch k {
	case IAE:
		return "iae"
	case ISE:
		return "ise"
	case RMS:
		return "rms_error"
	default:
		return "unknown"
	}
}

// Periodic is implemented by controllers whose loop period can change while
// running.
type Periodic interface {
	Period() float64
}

// Tracking accumulates setpoint - x[index] every step, reading the
// setpoint from the tracker so setpoint changes are followed. Each sample is
// weighted by the tracker's current period when it is Periodic, otherwise by
// the fixed dt.
type Tracking struct {
	kind    TrackingKind
	tracker sim.Tracker
	index   int
	dt      float64
	errs    []float64
	weights []float64
}

func NewTracking(kind TrackingKind, tracker sim.Tracker, index int, dt float64) *Tracking {
	return &Tracking{
		kind:    kind,
		tracker: tracker,
		index:   index,
		dt:      dt,
	}
}

func (m *Tracking) Name() string { return m.kind.String() }

func (m *Tracking) Observe(x sim.State, u sim.Control, t float64) {
	if m.index >= len(x) {
		return
	}
	w := m.dt
	if p, ok := m.tracker.(Periodic); ok {
		w = p.Period()
	}
	m.errs = append(m.errs, m.tracker.Setpoint()-x[m.index])
	m.weights = append(m.weights, w)
}

func (m *Tracking) Value() float64 {
	if len(m.errs) == 0 {
		return 0
	}
	switch m.kind {
	case IAE:
		abs := make([]float64, len(m.errs))
		for i, e := range m.errs {
			abs[i] = math.Abs(e)
		}
		return floats.Dot(abs, m.weights)
	case ISE:
		sq := make([]float64, len(m.errs))
		floats.MulTo(sq, m.errs, m.errs)
		return floats.Dot(sq, m.weights)
	case RMS:
		sq := make([]float64, len(m.errs))
		floats.MulTo(sq, m.errs, m.errs)
		return math.Sqrt(stat.Mean(sq, m.weights))
	}
	return 0
}

func (m *Tracking) Reset() {
	m.errs = m.errs[:0]
	m.weights = m.weights[:0]
}
