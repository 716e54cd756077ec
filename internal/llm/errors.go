package llm

import (
	"errors"
	"fmt"
)

// ErrNotConfigured is returned by the placeholder provider.
var ErrNotConfigured = errors.New("llm provider not configured")

// ServiceError reports that the model service could not produce a reply.
type ServiceError struct {
	Provider string
	Status   int
	Timeout  bool
	Err      error
}

func (e *ServiceError) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("%s: request timed out: %v", e.Provider, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("%s: http status %d: %v", e.Provider, e.Status, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Provider, e.Err)
	}
}

func (e *ServiceError) Unwrap() error { return e.Err }

// DecodeError reports a reply that does not match the requested shape.
type DecodeError struct {
	Raw string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode model output: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
