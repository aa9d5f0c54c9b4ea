package domain

import (
	"errors"
	"fmt"
)

// Kind is the client-visible category of a failure.
type Kind string

const (
	KindForbiddenOrigin       Kind = "ForbiddenOrigin"
	KindUnauthorized          Kind = "Unauthorized"
	KindBackendUnavailable    Kind = "BackendUnavailable"
	KindPrinterNotFound       Kind = "PrinterNotFound"
	KindSubmissionFailed      Kind = "SubmissionFailed"
	KindAdvertisementConflict Kind = "AdvertisementConflict"
	KindMalformedPayload      Kind = "MalformedPayload"
	KindRateLimited           Kind = "RateLimited"
	KindRouteNotFound         Kind = "RouteNotFound"
	KindMethodNotAllowed      Kind = "MethodNotAllowed"
	KindInternal              Kind = "Internal"
)

// Error carries a Kind, a human-readable message and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrPrinterNotFound)
// works regardless of message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons.
var (
	ErrForbiddenOrigin       = &Error{Kind: KindForbiddenOrigin}
	ErrUnauthorized          = &Error{Kind: KindUnauthorized}
	ErrBackendUnavailable    = &Error{Kind: KindBackendUnavailable}
	ErrPrinterNotFound       = &Error{Kind: KindPrinterNotFound}
	ErrSubmissionFailed      = &Error{Kind: KindSubmissionFailed}
	ErrAdvertisementConflict = &Error{Kind: KindAdvertisementConflict}
	ErrMalformedPayload      = &Error{Kind: KindMalformedPayload}
)

// Errorf builds a kinded error with a formatted message.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds a kinded error around cause.
func Wrap(kind Kind, cause error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the message of a kinded error, or err.Error() otherwise.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Err != nil {
			return fmt.Sprintf("%s: %v", e.Message, e.Err)
		}
		return e.Message
	}
	return err.Error()
}
