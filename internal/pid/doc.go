// Package pid implements a discrete-time PID feedback controller.
//
// A [Controller] is called once per fixed timestep with a setpoint and a
// measurement and returns an output clamped to the configured bounds:
//
//	c, err := pid.New(pid.Config{KP: 2, KI: 1, KD: 0.1, Timestep: 0.01, MinOut: -10, MaxOut: 10})
//	if err != nil {
//	    return err
//	}
//	for range ticker.C {
//	    u, _ := c.Calculate(target, sensor.Read())
//	    actuator.Set(u)
//	}
//
// The integral gain is folded into the accumulator, which is clamped to the
// output bounds (anti-windup). [Controller.CalculatePeek] returns the output
// the controller would produce without advancing its state.
//
// # Lifecycle
//
// The zero value is an uninitialized controller. [Controller.Initialize]
// activates it with a valid [Config]; re-initializing an active controller
// fails with [ErrAlreadyInitialized] and requires [Controller.Deinitialize]
// first. Every operation on an uninitialized controller reports
// [ErrNotInitialized]; Calculate and CalculatePeek also return 0.
//
// # Thread Safety
//
// Controller has no internal synchronization. Mutating calls must be
// serialized by the owner; CalculatePeek, Config and IsInitialized may run
// concurrently with each other but not with a mutator.
package pid
