package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Resolution errors
	ErrAllSourcesFailed = fmt.Errorf("could not extract audio from any source")
	ErrNoStrategies     = fmt.Errorf("no strategies registered for capability")
	ErrUnknownClient    = fmt.Errorf("unknown client identity")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// Relay errors
	ErrUpstream       = fmt.Errorf("upstream request failed")
	ErrHostNotAllowed = fmt.Errorf("host not allowed")

	// Input validation errors
	ErrInvalidInput      = fmt.Errorf("invalid input")
	ErrMissingArgument   = fmt.Errorf("missing required argument")
	ErrInvalidArgument   = fmt.Errorf("invalid argument")
	ErrInvalidFlag       = fmt.Errorf("invalid flag value")
	ErrInvalidIdentifier = fmt.Errorf("invalid identifier")
)
