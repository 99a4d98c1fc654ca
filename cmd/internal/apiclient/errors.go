package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Error kinds. Every HTTP failure unwraps to exactly one of them.
var (
	// ErrAuthExpired is a 401 on a protected path after the single retry was spent.
	ErrAuthExpired = errors.New("auth expired")

	// ErrAuthExempt is a 401 on a credential-issuing path (login, OTP send/verify).
	ErrAuthExempt = errors.New("auth rejected on exempt path")

	// ErrRefreshFailed is a failed refresh cycle, including a missing session identity.
	ErrRefreshFailed = errors.New("refresh failed")

	// ErrHTTPStatus is any other non-2xx response.
	ErrHTTPStatus = errors.New("http status")
)

// HTTPError is a non-2xx response surfaced to the caller.
type HTTPError struct {
	Op         string
	Method     string
	Path       string
	StatusCode int
	// Code and Message come from a {"code","message"} or {"detail"} error body when present.
	Code    string
	Message string
	Body    []byte
	Kind    error
}

func (e *HTTPError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Code
	}
	if msg == "" {
		return fmt.Sprintf("%s: %s %s: %d: %v", e.Op, e.Method, e.Path, e.StatusCode, e.Kind)
	}
	return fmt.Sprintf("%s: %s %s: %d: %v: %s", e.Op, e.Method, e.Path, e.StatusCode, e.Kind, msg)
}

func (e *HTTPError) Unwrap() error { return e.Kind }

// RefreshError is delivered to every waiter of a failed refresh cycle.
type RefreshError struct {
	Err error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("%v: %v", ErrRefreshFailed, e.Err)
}

func (e *RefreshError) Unwrap() []error { return []error{ErrRefreshFailed, e.Err} }

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode
	}
	return 0
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newHTTPError(op string, req Request, status int, body []byte, kind error) *HTTPError {
	e := &HTTPError{
		Op:         op,
		Method:     req.Method,
		Path:       req.Path,
		StatusCode: status,
		Body:       body,
		Kind:       kind,
	}

	var eb errorBody
	if json.Unmarshal(body, &eb) == nil {
		e.Code, e.Message = eb.Code, eb.Message
		if eb.Error != nil {
			e.Code, e.Message = eb.Error.Code, eb.Error.Message
		}
		if e.Message == "" {
			e.Message = eb.Detail
		}
	}
	return e
}
