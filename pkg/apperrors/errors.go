package apperrors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

type Kind string

const (
	KindValidation Kind = "VALIDATION_FAILURE"
	KindUpstream   Kind = "UPSTREAM_FAILURE"
	KindResource   Kind = "RESOURCE_EXHAUSTION"
	KindStuck      Kind = "STUCK_PROCESSING"
	KindNotFound   Kind = "NOT_FOUND"
	KindConflict   Kind = "CONFLICT_STATE"
	KindTimeout    Kind = "TIMEOUT"
	KindDiskFull   Kind = "DISK_FULL"
	KindCancelled  Kind = "CANCELLED"
	KindInternal   Kind = "INTERNAL"
)

// Error is a classified failure. Message is what ends up in task error_message
// and API responses.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	if e.Message == "" {
		return e.Err.Error()
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Cause() error {
	return e.Err
}

func New(kind Kind, message string) error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Err: err}
}

func Wrapf(kind Kind, err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// Internal classifies err as unclassified and records a stack trace.
func Internal(err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindInternal, Err: errors.WithStack(err)}
}

// KindOf returns the kind of the outermost classified error in the chain.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func IsNotFound(err error) bool {
	return IsKind(err, KindNotFound)
}

func IsConflict(err error) bool {
	return IsKind(err, KindConflict)
}

func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindResource:
		return http.StatusServiceUnavailable
	case KindUpstream, KindStuck:
		return http.StatusBadGateway
	case KindTimeout:
		return http.StatusGatewayTimeout
	case KindDiskFull:
		return http.StatusInsufficientStorage
	case KindCancelled:
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}
