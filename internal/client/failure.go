package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	apperrors "github.com/vytor/tenxcards/internal/errors"
)

// Kind classifies a failed API call.
type Kind string

const (
	KindValidation Kind = "validation"
	KindAuth       Kind = "auth"
	KindRateLimit  Kind = "rateLimit"
	KindNotFound   Kind = "notFound"
	KindGeneration Kind = "generation"
	KindServer     Kind = "server"
	KindNetwork    Kind = "network"
	KindTimeout    Kind = "timeout"
	KindUnknown    Kind = "unknown"
)

// Failure is the error returned by every Client method.
type Failure struct {
	Kind    Kind
	Code    string // server error code, empty for transport failures
	Message string // server message, if any
	Status  int
	ResetAt time.Time // set for rate-limit failures when the server sent it
	Err     error
}

func (f *Failure) Error() string {
	switch {
	case f.Status != 0 && f.Message != "":
		return fmt.Sprintf("%s (%d %s): %s", f.Kind, f.Status, f.Code, f.Message)
	case f.Err != nil:
		return fmt.Sprintf("%s: %v", f.Kind, f.Err)
	default:
		return string(f.Kind)
	}
}

func (f *Failure) Unwrap() error { return f.Err }

// KindOf returns the Kind of err, or KindUnknown when err is not a *Failure.
func KindOf(err error) Kind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return KindUnknown
}

func kindForCode(code string) (Kind, bool) {
	switch code {
	case apperrors.ErrCodeValidation:
		return KindValidation, true
	case apperrors.ErrCodeUnauthorized, apperrors.ErrCodeForbidden:
		return KindAuth, true
	case apperrors.ErrCodeRateLimit:
		return KindRateLimit, true
	case apperrors.ErrCodeNotFound:
		return KindNotFound, true
	case apperrors.ErrCodeGenerationFailed:
		return KindGeneration, true
	case apperrors.ErrCodeInternal:
		return KindServer, true
	}
	return "", false
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusBadRequest:
		return KindValidation
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuth
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusTooManyRequests:
		return KindRateLimit
	case status == http.StatusUnprocessableEntity:
		return KindGeneration
	case status >= 500:
		return KindServer
	}
	return KindUnknown
}

// transportFailure classifies an error returned before any response
// arrived.
func transportFailure(err error) *Failure {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &Failure{Kind: KindTimeout, Err: err}
	case errors.As(err, &netErr) && netErr.Timeout():
		return &Failure{Kind: KindTimeout, Err: err}
	case errors.Is(err, context.Canceled):
		return &Failure{Kind: KindUnknown, Err: err}
	}
	return &Failure{Kind: KindNetwork, Err: err}
}
