package speed

import "errors"

// Domain errors for control cycles and configuration.
var (
	// ErrNotReady indicates a required input or parameter group has not
	// arrived yet. The cycle can be retried once it does.
	ErrNotReady = errors.New("speed: controller not ready")

	// ErrUnknownMode indicates a control or yaw mode outside the known set.
	ErrUnknownMode = errors.New("speed: unknown mode")

	// ErrMalformedReference indicates a reference payload with too few components.
	ErrMalformedReference = errors.New("speed: malformed reference")

	// ErrParameterType indicates a parameter value of the wrong type.
	ErrParameterType = errors.New("speed: parameter has wrong type")
)
