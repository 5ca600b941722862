package utils

import "fmt"

// Error taxonomy shared by the engine packages. All solver failures are
// surfaced through one of these types so callers can dispatch with
// errors.As.

type InvalidGeometryError struct {
	Msg string
}

func (e *InvalidGeometryError) Error() string {
	return fmt.Sprintf("invalid geometry: %s", e.Msg)
}

type SingularOperatorError struct {
	Context string
}

func (e *SingularOperatorError) Error() string {
	return fmt.Sprintf("singular operator: %s", e.Context)
}

type NumericalInstabilityError struct {
	Context   string
	Condition float64
}

func (e *NumericalInstabilityError) Error() string {
	return fmt.Sprintf("numerical instability: %s, estimated condition number %8.4g", e.Context, e.Condition)
}

type UnsupportedConfigurationError struct {
	Msg string
}

func (e *UnsupportedConfigurationError) Error() string {
	return fmt.Sprintf("unsupported configuration: %s", e.Msg)
}
