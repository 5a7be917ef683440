package template

import "github.com/vango-dev/trellis/internal/errors"

var (
	// ErrInvalidEventHandler is returned when an event hole holds a value
	// that is neither nil nor a supported function.
	ErrInvalidEventHandler = errors.New("T020")

	// ErrUnknownBinding is returned when a binding hole names a binding the
	// registry does not know.
	ErrUnknownBinding = errors.New("T021")

	// ErrValueCount is returned when the number of values does not match
	// the number of hole slots.
	ErrValueCount = errors.New("T022")

	// ErrInvalidMarkup is returned by Parse for holes it cannot place.
	ErrInvalidMarkup = errors.New("T023")

	// ErrBindingModifiers can be returned by binding factories that reject
	// their modifiers.
	ErrBindingModifiers = errors.New("T024")

	// ErrBindingValue can be returned by bindings that reject a value.
	ErrBindingValue = errors.New("T025")
)
