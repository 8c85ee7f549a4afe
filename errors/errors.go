package errors

import "fmt"

type DriverError interface {
	error
	WithMessage(message string) DriverError
	WrapError(err error) DriverError
}

// IsSameError reports whether err is, or wraps, the sentinel kind. It unwraps
// the way the standard library's errors.Is does, but also compares the bare
// DiskoError string constant to itself, which errors.Is's default Comparable
// behavior already gives us for the sentinel case; this wrapper exists so
// callers can write `kind.IsSameError(err)` instead of `errors.Is(err, kind)`.
func (e DiskoError) IsSameError(err error) bool {
	for err != nil {
		if err == error(e) {
			return true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = unwrapper.Unwrap()
	}
	return false
}

// -----------------------------------------------------------------------------

type customDriverError struct {
	message       string
	originalError error
}

// Error implements the `error` object interface. When called, it returns a string
// describing the error.
func (e customDriverError) Error() string {
	return e.message
}

func (e customDriverError) WithMessage(message string) DriverError {
	return customDriverError{
		message:       fmt.Sprintf("%s: %s", e.message, message),
		originalError: e,
	}
}

func (e customDriverError) WrapError(err error) DriverError {
	return customDriverError{
		message:       fmt.Sprintf("%s: %s", e.Error(), err.Error()),
		originalError: err,
	}
}

func (e customDriverError) Unwrap() error {
	return e.originalError
}
