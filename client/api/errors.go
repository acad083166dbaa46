package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// HTTPError is a response with a non-2xx status.
type HTTPError struct {
	StatusCode int
	Message    string
	Fields     []FieldError
}

func (e *HTTPError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if len(e.Fields) == 0 {
		return fmt.Sprintf("http %d: %s", e.StatusCode, msg)
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return fmt.Sprintf("http %d: %s (%s)", e.StatusCode, msg, strings.Join(parts, "; "))
}

// TransportError means no response was received: the server is unreachable,
// the circuit breaker is open or the context ended first.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: no response received: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusCode returns the HTTP status carried by err, or 0 when there is none.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}

func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

func IsTransport(err error) bool {
	var transportErr *TransportError
	return errors.As(err, &transportErr)
}
