package qwen

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Transport failure codes used when no HTTP response was received.
const (
	CodeTimeout  = "timeout"
	CodeCanceled = "canceled"
	CodeNetwork  = "network_error"
)

// APIError is returned for a non-2xx response or a transport failure.
type APIError struct {
	// Code is the provider error code, or a transport code when no response arrived.
	Code    string
	Message string

	// Response fields, zero when the request never got a response.
	StatusCode int
	StatusText string
	Body       []byte

	URL    string
	Method string

	Err error
}

func (e *APIError) Error() string {
	code := e.Code
	if code == "" {
		code = fmt.Sprintf("Status %d", e.StatusCode)
	}
	return fmt.Sprintf("Qwen API Error: %s - %s", code, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// transportCode classifies an error from http.Client.Do.
func transportCode(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return CodeTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CodeTimeout
	}
	if errors.Is(err, context.Canceled) {
		return CodeCanceled
	}
	return CodeNetwork
}
