package callcenter

import (
	"errors"
	"fmt"
	"net/http"

	"telecall/cmd/internal/apiclient"
)

// Sentinel error kinds (stable for errors.Is and for mapping to exit codes).
var (
	ErrInvalidInput = errors.New("invalid_input")
	ErrNotFound     = errors.New("not_found")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
)

// OpError is a typed operation error with a stable Op + Kind contract.
// Err carries the underlying cause (usually an *apiclient.HTTPError) when there is one.
type OpError struct {
	Op   string
	Kind error
	Msg  string
	Err  error
}

func (e OpError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %s", e.Op, e.Kind, e.Msg)
}

func (e OpError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func invalid(op, msg string) error {
	return OpError{Op: op, Kind: ErrInvalidInput, Msg: msg}
}

// classify maps backend statuses onto the package's kinds. Auth errors and
// transport failures pass through unchanged.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var he *apiclient.HTTPError
	if !errors.As(err, &he) || !errors.Is(err, apiclient.ErrHTTPStatus) {
		return err
	}

	var kind error
	switch he.StatusCode {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		kind = ErrInvalidInput
	case http.StatusForbidden:
		kind = ErrForbidden
	case http.StatusNotFound:
		kind = ErrNotFound
	case http.StatusConflict:
		kind = ErrConflict
	default:
		return err
	}
	return OpError{Op: op, Kind: kind, Msg: he.Message, Err: err}
}

// IsInvalidInput reports whether err represents ErrInvalidInput.
func IsInvalidInput(err error) bool { return errors.Is(err, ErrInvalidInput) }

// IsNotFound reports whether err represents ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
