package apiclient

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/keyxmakerx/steward/internal/apperror"
)

// Kind classifies a failed upstream call.
type Kind int

const (
	// KindBusiness is a rejected operation: the envelope code was not
	// success, or the upstream returned a 4xx outside the special cases.
	KindBusiness Kind = iota

	// KindUnauthorized is a 401 -- the session is no longer accepted.
	KindUnauthorized

	// KindForbidden is a 403 -- authenticated but not allowed.
	KindForbidden

	// KindNotFound is a 404.
	KindNotFound

	// KindServer is a 5xx or an unreadable response.
	KindServer

	// KindNetwork means no response was received at all.
	KindNetwork
)

// Error is the single failure type produced by the client. Message is the
// one user-visible string for the call; callers surface it once and never
// stack a second report on top.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("apiclient: %s (status %d): %v", e.Message, e.Status, e.cause)
	}
	return fmt.Sprintf("apiclient: %s (status %d)", e.Message, e.Status)
}

// Unwrap returns the underlying transport or decode error, if any.
func (e *Error) Unwrap() error { return e.cause }

// ToAppError converts a client failure into the domain error the central
// handler renders. The mapping keeps the one-message-per-call discipline:
// the apperror carries the same message the client produced.
func ToAppError(err error) error {
	var ce *Error
	if !errors.As(err, &ce) {
		return apperror.NewInternal(err)
	}

	switch ce.Kind {
	case KindUnauthorized:
		return apperror.NewUnauthorized(ce.Message)
	case KindForbidden:
		return apperror.NewForbidden(ce.Message)
	case KindNotFound:
		return apperror.NewNotFound(ce.Message)
	case KindNetwork:
		return apperror.NewUnavailable(ce)
	case KindServer:
		return &apperror.AppError{
			Code:     http.StatusBadGateway,
			Type:     "upstream_error",
			Message:  ce.Message,
			Internal: ce,
		}
	default:
		return apperror.NewBadRequest(ce.Message)
	}
}
