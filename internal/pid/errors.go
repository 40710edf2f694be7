package pid

import "errors"

var (
	// ErrInvalidConfig indicates a non-positive timestep or MinOut > MaxOut.
	ErrInvalidConfig = errors.New("pid: invalid configuration")

	// ErrNotInitialized indicates an operation on a controller that has not been initialized.
	ErrNotInitialized = errors.New("pid: controller not initialized")

	// ErrAlreadyInitialized indicates Initialize on an active controller.
	ErrAlreadyInitialized = errors.New("pid: controller already initialized")

	// ErrUnknownParam indicates a tuning parameter name that does not exist.
	ErrUnknownParam = errors.New("pid: unknown parameter")
)
