// internal/apperrors/errors.go

// Package apperrors holds the error taxonomy shared by the oracle services.
// Handlers translate these into HTTP status codes with errors.Is / errors.As.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound               = errors.New("not found")
	ErrConflict               = errors.New("conflict")
	ErrUnauthorized           = errors.New("unauthorized")
	ErrValidation             = errors.New("validation failed")
	ErrCatalogUnavailable     = errors.New("tarot deck not initialized")
	ErrInsufficientCards      = errors.New("not enough cards in the deck for this spread")
	ErrInterpreterUnavailable = errors.New("oracle service unavailable")
)

// ValidationError describes a rejected input. The message is safe to show to the caller.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is lets errors.Is(err, ErrValidation) match any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid builds a ValidationError for field.
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// PublicError pairs one of the sentinels above with a message meant for the caller.
type PublicError struct {
	Kind    error
	Message string
}

func (e *PublicError) Error() string {
	return e.Message
}

func (e *PublicError) Is(target error) bool {
	return target == e.Kind
}

// New builds a PublicError of the given kind.
func New(kind error, message string) error {
	return &PublicError{Kind: kind, Message: message}
}

// Message returns the caller-facing text of err: the message of a ValidationError or
// PublicError in its chain, otherwise err.Error().
func Message(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	var pe *PublicError
	if errors.As(err, &pe) {
		return pe.Message
	}
	return err.Error()
}
