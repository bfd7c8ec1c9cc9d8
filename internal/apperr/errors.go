// Package apperr holds the error taxonomy shared by the storefront services.
// The HTTP layer classifies errors with errors.As and maps each kind to a status code.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// FieldViolation describes one failed input constraint.
type FieldViolation struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message"`
}

// ValidationError reports malformed or missing input.
type ValidationError struct {
	Message string
	Fields  []FieldViolation
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return e.Message + " (" + strings.Join(parts, ", ") + ")"
}

func Validation(message string, fields ...FieldViolation) error {
	return &ValidationError{Message: message, Fields: fields}
}

// NotFoundError reports a referenced record that does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func NotFound(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// ProviderError wraps a failure of the remote catalog/payment provider.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func Provider(op string, err error) error {
	return &ProviderError{Op: op, Err: err}
}

// PersistenceError wraps a ledger read or write failure.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func Persistence(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}

// CheckoutFailedError is returned for any provider or ledger failure during checkout.
type CheckoutFailedError struct {
	Err error
}

func (e *CheckoutFailedError) Error() string {
	return fmt.Sprintf("checkout failed: %v", e.Err)
}

func (e *CheckoutFailedError) Unwrap() error { return e.Err }

func CheckoutFailed(err error) error {
	return &CheckoutFailedError{Err: err}
}

// ConflictError reports a request that is illegal for the current state of a record.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

func Conflict(format string, args ...any) error {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
