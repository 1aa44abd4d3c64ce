package live

import (
	"errors"
	"fmt"

	"github.com/googleapis/gax-go/v2/apierror"
)

var (
	// ErrMissingAPIKey is returned by Connect when no API key is configured.
	ErrMissingAPIKey = errors.New("live: missing API key")

	// ErrClosed is returned by sends on a closed session.
	ErrClosed = errors.New("live: session closed")
)

// Error is a transport failure. Op is "connect", "read" or "send".
type Error struct {
	Op  string
	Err error
}

func newError(op string, err error) *Error {
	var ae *apierror.APIError
	if errors.As(err, &ae) {
		if inner := ae.Unwrap(); inner != nil {
			err = inner
		}
	}
	return &Error{Op: op, Err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("live: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
