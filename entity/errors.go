package entity

import (
	"errors"
	"fmt"
)

var (
	ErrNoData        = errors.New("No data provided")
	ErrMissingFields = errors.New("Missing required fields")
	ErrInvalidAmount = errors.New("Invalid amount")
	ErrMissingToken  = errors.New("Token is required")

	ErrGatewayCreate = errors.New("Failed to create transaction")
	ErrGatewayCommit = errors.New("Failed to commit transaction")
)

// ValidationError is a client-side input problem; it never reaches the gateway.
type ValidationError struct {
	Err      error
	Required []string
	Reason   string
}

func NewValidationError(err error, required ...string) *ValidationError {
	return &ValidationError{Err: err, Required: required}
}

func (e *ValidationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s", e.Err, e.Reason)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

const gatewayUnavailable = "payment gateway unavailable"

// GatewayError is a failed call to the gateway: transport failure, rejected credentials
// or a request the gateway refused. A declined payment is not a GatewayError.
type GatewayError struct {
	Kind       error
	StatusCode int
	Message    string
	Err        error
}

func (e *GatewayError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: status %d: %s", e.Kind, e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
}

func (e *GatewayError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// Details is the text that may be returned to callers: the gateway message when it
// answered, a generic note for transport failures.
func (e *GatewayError) Details() string {
	if e.Message != "" {
		return e.Message
	}
	return gatewayUnavailable
}

// WithKind returns a copy of the error classified under kind.
func (e *GatewayError) WithKind(kind error) *GatewayError {
	c := *e
	c.Kind = kind
	return &c
}
