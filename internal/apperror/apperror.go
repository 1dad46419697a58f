// Package apperror defines the application's error taxonomy.
//
// Services return errors wrapping one of the sentinel values below; the HTTP
// layer maps each sentinel to a status code with errors.Is. Raw store or
// provider errors never reach a client.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrValidation          = errors.New("validation error")
	ErrConflict            = errors.New("conflict")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrUpstreamAuth        = errors.New("upstream auth failure")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrConfig              = errors.New("configuration error")
)

type AppError struct {
	Err     error  // sentinel this error wraps
	Message string // human-readable error message
	Field   string // optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Conflict reports a uniqueness violation on the given field.
func Conflict(field, value string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s %q is already taken", field, value),
		Field:   field,
	}
}

// Unauthorized reports failed authentication. Callers use the same message
// for every credential failure so responses don't reveal which check failed.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// UpstreamAuth reports a failed exchange with the identity provider
// (rejected code, unusable token, non-2xx API response).
func UpstreamAuth(message string) *AppError {
	return &AppError{
		Err:     ErrUpstreamAuth,
		Message: message,
	}
}

// UpstreamUnavailable reports that the identity provider could not be
// reached before the outbound timeout.
func UpstreamUnavailable(message string) *AppError {
	return &AppError{
		Err:     ErrUpstreamUnavailable,
		Message: message,
	}
}

// Config reports missing or invalid process configuration, such as absent
// OAuth client credentials.
func Config(message string) *AppError {
	return &AppError{
		Err:     ErrConfig,
		Message: message,
	}
}
