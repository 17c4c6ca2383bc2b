// Package errors defines the sentinel error taxonomy shared by the
// repository, service and handler layers. Higher layers match with
// errors.Is and translate to HTTP status codes; messages attached via
// fmt.Errorf("%w: ...") survive the mapping.
package errors

import "errors"

// ErrNotFound is returned when a referenced show, showtime or booking does
// not exist. Handlers translate this into HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrInsufficientAvailability is returned when the requested ticket count
// exceeds the current availability of a show or showtime. There is no
// partial booking. Handlers translate this into HTTP 409.
var ErrInsufficientAvailability = errors.New("insufficient availability")

// ErrInvalidStateTransition is returned when a confirm or cancel is
// attempted from a status that does not allow it. Handlers translate this
// into HTTP 422.
var ErrInvalidStateTransition = errors.New("invalid state transition")

// ErrValidation is returned for malformed requests: non-positive ticket
// counts, missing or malformed contact, unparseable ids. Handlers translate
// this into HTTP 400.
var ErrValidation = errors.New("validation failed")

// Code returns the wire-facing error code for err, or "Internal" for
// anything outside the taxonomy.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "NotFound"
	case errors.Is(err, ErrInsufficientAvailability):
		return "InsufficientAvailability"
	case errors.Is(err, ErrInvalidStateTransition):
		return "InvalidStateTransition"
	case errors.Is(err, ErrValidation):
		return "ValidationError"
	}
	return "Internal"
}
