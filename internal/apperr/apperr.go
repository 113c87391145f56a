// Package apperr defines the error taxonomy shared by the workshop, the
// renderers and the HTTP handlers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an AppError.
type Kind string

const (
	KindValidation       Kind = "validation"
	KindNotFound         Kind = "not_found"
	KindConflict         Kind = "conflict"
	KindMissingRecipient Kind = "missing_recipient"
	KindStorage          Kind = "storage"
	KindRender           Kind = "render"
	KindDelivery         Kind = "delivery"
)

// AppError represents an application error
type AppError struct {
	Kind       Kind
	Message    string
	StatusCode int
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches on Kind so callers can compare against the sentinel values below.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Message == "" && t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrValidation       = &AppError{Kind: KindValidation}
	ErrNotFound         = &AppError{Kind: KindNotFound}
	ErrConflict         = &AppError{Kind: KindConflict}
	ErrMissingRecipient = &AppError{Kind: KindMissingRecipient}
	ErrStorage          = &AppError{Kind: KindStorage}
	ErrRender           = &AppError{Kind: KindRender}
	ErrDelivery         = &AppError{Kind: KindDelivery}
)

// NewValidationError creates a validation error
func NewValidationError(format string, args ...any) *AppError {
	return &AppError{
		Kind:       KindValidation,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: http.StatusBadRequest,
	}
}

// NewNotFoundError creates a not found error for an entity id.
func NewNotFoundError(entity, id string) *AppError {
	return &AppError{
		Kind:       KindNotFound,
		Message:    fmt.Sprintf("%s %q not found", entity, id),
		StatusCode: http.StatusNotFound,
	}
}

// NewConflictError creates a conflict error
func NewConflictError(format string, args ...any) *AppError {
	return &AppError{
		Kind:       KindConflict,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: http.StatusConflict,
	}
}

// NewMissingRecipientError reports a notification with no destination on the channel.
func NewMissingRecipientError(channel string) *AppError {
	return &AppError{
		Kind:       KindMissingRecipient,
		Message:    fmt.Sprintf("client has no %s recipient", channel),
		StatusCode: http.StatusBadRequest,
	}
}

// NewStorageError wraps a failed backing store call.
func NewStorageError(err error) *AppError {
	return &AppError{
		Kind:       KindStorage,
		Message:    "storage error",
		StatusCode: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewRenderError wraps a failed document generation.
func NewRenderError(err error) *AppError {
	return &AppError{
		Kind:       KindRender,
		Message:    "failed to render document",
		StatusCode: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewDeliveryError wraps a failed outbound delivery.
func NewDeliveryError(err error) *AppError {
	return &AppError{
		Kind:       KindDelivery,
		Message:    "delivery failed",
		StatusCode: http.StatusInternalServerError,
		Err:        err,
	}
}

// StatusCode returns the HTTP status for err, 500 for anything that is not an AppError.
func StatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.StatusCode != 0 {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

// PublicMessage is the message safe to show to a user. Storage and unknown
// errors collapse into a generic notice.
func PublicMessage(err error) string {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return "Internal server error"
	}
	if appErr.Kind == KindStorage {
		return "Storage error, please try again"
	}
	return appErr.Message
}
