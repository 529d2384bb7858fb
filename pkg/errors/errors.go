package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies a failure so the calling layer can render it.
type Kind string

const (
	KindSlotConflict      Kind = "SlotConflict"
	KindNotFound          Kind = "NotFound"
	KindForbidden         Kind = "Forbidden"
	KindInvalidDateTime   Kind = "InvalidDateTime"
	KindDuplicateUsername Kind = "DuplicateUsername"
	KindValidation        Kind = "ValidationError"
	KindUnauthorized      Kind = "Unauthorized"
	KindRateLimited       Kind = "RateLimited"
	KindInternal          Kind = "Internal"
)

// AppError represents an application error
type AppError struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Err     error  `json:"-"`
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

// Is matches another *AppError of the same kind. An empty target message
// matches any message, which is what the sentinels below rely on.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// Sentinels for errors.Is comparisons.
var (
	ErrSlotConflict      = &AppError{Kind: KindSlotConflict}
	ErrNotFound          = &AppError{Kind: KindNotFound}
	ErrForbidden         = &AppError{Kind: KindForbidden}
	ErrInvalidDateTime   = &AppError{Kind: KindInvalidDateTime}
	ErrDuplicateUsername = &AppError{Kind: KindDuplicateUsername}
	ErrValidation        = &AppError{Kind: KindValidation}
	ErrUnauthorized      = &AppError{Kind: KindUnauthorized}
)

func New(kind Kind, message string, err error) *AppError {
	return &AppError{Kind: kind, Message: message, Err: err}
}

func SlotConflict(message string) *AppError {
	if message == "" {
		message = "slot not available"
	}
	return New(KindSlotConflict, message, nil)
}

func NotFound(resource string, err error) *AppError {
	return New(KindNotFound, fmt.Sprintf("%s not found", resource), err)
}

func Forbidden(message string) *AppError {
	if message == "" {
		message = "access denied"
	}
	return New(KindForbidden, message, nil)
}

func InvalidDateTime(message string, err error) *AppError {
	return New(KindInvalidDateTime, message, err)
}

func DuplicateUsername(username string) *AppError {
	return New(KindDuplicateUsername, fmt.Sprintf("username %q already exists", username), nil)
}

func Validation(message string) *AppError {
	return New(KindValidation, message, nil)
}

func Unauthorized(err error) *AppError {
	return New(KindUnauthorized, "unauthorized", err)
}

func Internal(err error) *AppError {
	return New(KindInternal, "internal server error", err)
}

// KindOf returns the kind of the first AppError in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}
