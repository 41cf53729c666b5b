package elements

import "errors"

// Errors returned by bulb construction and commands.
var (
	// ErrUnsupported is returned when a command needs a capability the
	// bulb does not advertise.
	ErrUnsupported = errors.New("elements: capability not supported")

	// ErrInvalidValue is returned when a command argument is outside the
	// range the hardware accepts.
	ErrInvalidValue = errors.New("elements: value out of range")

	// ErrBadDescriptor is returned when a discovery descriptor lacks a
	// field required to build a bulb.
	ErrBadDescriptor = errors.New("elements: descriptor missing required field")
)
