// Package plant provides process models to close a control loop around.
//
// Each model implements [sim.Plant] and [sim.Configurable]:
//
//   - [FirstOrder]: first-order lag, e.g. a heater or a motor speed
//   - [SpringMass]: damped mass on a spring driven by a force
//   - [Pendulum]: damped pendulum driven by a torque
//
// The measured component is the one a controller tracks:
//
//	p := plant.NewFirstOrder()
//	y := x[p.Measured()]
package plant
