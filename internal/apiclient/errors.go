package apiclient

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var ErrMalformedBody = errors.New("malformed json body")

// AuthError means there is no usable session: none was stored, or it expired and
// could not be refreshed. The operator has to log in again.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return "auth: " + e.Reason + ": " + e.Err.Error()
	}
	return "auth: " + e.Reason
}

func (e *AuthError) Unwrap() error { return e.Err }

// HTTPError is a non-2xx response the caller did not tolerate.
type HTTPError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
}

// NetworkError wraps transport failures, including timeouts and cancellation.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is raised before a request is sent.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func IsAuth(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// StatusOf returns the upstream status of an HTTPError, or 0.
func StatusOf(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status
	}
	return 0
}
