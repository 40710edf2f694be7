package plant

import "errors"

var (
	// ErrUnknownParam indicates a parameter name the plant does not have.
	ErrUnknownParam = errors.New("plant: unknown parameter")

	// ErrParameterBounds indicates a parameter value outside its valid range.
	ErrParameterBounds = errors.New("plant: parameter out of valid bounds")
)
