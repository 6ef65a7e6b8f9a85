// Package service holds use-case orchestration between handlers and the store.
// I keep only validation, timeouts and domain error shaping here.
package service

import (
	"context"
	"errors"

	"github.com/maxviazov/edutrack-service/internal/model"
)

// ErrInvalidInput is the marker error for aggregated validation failures (maps to HTTP 400).
// Field-level details are retrieved via FieldErrors(err).
var ErrInvalidInput = errors.New("invalid input")

// FieldError describes a single invalid field in a client request.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// invalidInputError aggregates multiple FieldError instances and unwraps to ErrInvalidInput.
type invalidInputError struct {
	fields []FieldError
}

func (e *invalidInputError) Error() string        { return ErrInvalidInput.Error() }
func (e *invalidInputError) Unwrap() error        { return ErrInvalidInput }
func (e *invalidInputError) Fields() []FieldError { return e.fields }

// NewInvalidInput builds an aggregated validation error, or nil when fe is empty.
func NewInvalidInput(fe []FieldError) error {
	if len(fe) == 0 {
		return nil
	}
	return &invalidInputError{fields: fe}
}

// FieldErrors extracts field errors from an aggregated validation error.
func FieldErrors(err error) []FieldError {
	if err == nil {
		return nil
	}
	type feIface interface{ Fields() []FieldError }
	var v feIface
	if errors.As(err, &v) && errors.Is(err, ErrInvalidInput) {
		return v.Fields()
	}
	return nil
}

// UserListQuery carries raw pagination input. Nil means "not supplied".
type UserListQuery struct {
	Skip  *int
	Limit *int
}

// UserService defines user-oriented use cases.
// I keep the interface narrow so handlers can be tested with a stub.
type UserService interface {
	ListUsers(ctx context.Context, q UserListQuery) ([]model.User, error)
}
