// Package control adapts controllers to the [sim.Controller] interface so
// they can close a loop around a plant:
//
//   - [Loop]: a [pid.Controller] tracking a setpoint on one state component
//   - [None]: open loop (zero control)
//
// # Usage
//
//	loop, err := control.NewLoop(pid.Config{KP: 2, KI: 1, Timestep: 0.01, MinOut: -10, MaxOut: 10}, 1.0, p.Measured(), p.ControlDim())
//	s := sim.New(p, integrators.NewRK4(), loop)
//	// Loop.Compute is called each timestep
//
// Loop implements [sim.Configurable] for live tuning.
package control
