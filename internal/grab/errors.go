package grab

import "errors"

// Grab errors. Drivers treat all of these as "no grab happened"; they are
// returned by Grip so hosts and tests can see why.
var (
	// ErrNilBody indicates Begin was called without a body.
	ErrNilBody = errors.New("grab: no body to attach")

	// ErrAlreadyAttached indicates Begin was called while a body is held.
	ErrAlreadyAttached = errors.New("grab: grip already attached")

	// ErrBodyHeld indicates another driver currently holds the body.
	ErrBodyHeld = errors.New("grab: body held by another driver")

	// ErrStaleBody indicates the body was destroyed before or during the grab.
	ErrStaleBody = errors.New("grab: body no longer valid")

	// ErrNoCamera indicates no single enabled camera could be resolved.
	ErrNoCamera = errors.New("grab: no unambiguous camera")
)

// RefusalError wraps a grab refusal with the driver and body involved.
type RefusalError struct {
	Driver  string
	Body    string
	Wrapped error
}

func (e *RefusalError) Error() string {
	if e.Body == "" {
		return e.Driver + ": " + e.Wrapped.Error()
	}
	return e.Driver + " -> " + e.Body + ": " + e.Wrapped.Error()
}

func (e *RefusalError) Unwrap() error {
	return e.Wrapped
}
