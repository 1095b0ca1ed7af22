package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a collaborator failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindUnauthenticated
	KindForbidden
	KindAlreadyRated
	KindNotFound
	KindValidation
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindAlreadyRated:
		return "already_rated"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindTransport:
		return "transport"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind    Kind
	Status  int
	Code    string
	Message string
	Err     error
}

var (
	ErrUnauthenticated = &Error{Kind: KindUnauthenticated}
	ErrForbidden       = &Error{Kind: KindForbidden}
	ErrAlreadyRated    = &Error{Kind: KindAlreadyRated}
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrValidation      = &Error{Kind: KindValidation}
	ErrTransport       = &Error{Kind: KindTransport}
)

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := strings.TrimSpace(e.Message)
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s (status=%d): %s", e.Kind, e.Status, msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind so wrapped errors compare equal to the package sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return t.Kind == e.Kind
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// FromStatus maps an HTTP status onto a Kind.
func FromStatus(status int, message string) *Error {
	kind := KindUnknown
	switch status {
	case http.StatusUnauthorized:
		kind = KindUnauthenticated
	case http.StatusForbidden:
		kind = KindForbidden
	case http.StatusNotFound:
		kind = KindNotFound
	case http.StatusConflict:
		kind = KindAlreadyRated
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		kind = KindValidation
	}
	return &Error{Kind: kind, Status: status, Message: strings.TrimSpace(message)}
}

// KindOf returns the Kind carried by err, KindUnknown otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// UserMessage turns an error into the text shown to the user.
// Validation messages from the server are passed through verbatim.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if !errors.As(err, &e) {
		return "something went wrong"
	}
	switch e.Kind {
	case KindUnauthenticated:
		return "please sign in to continue"
	case KindForbidden:
		return "you are not allowed to do this"
	case KindAlreadyRated:
		return "you have already rated this idea"
	case KindNotFound:
		return "idea not found"
	case KindValidation:
		if msg := strings.TrimSpace(e.Message); msg != "" {
			return msg
		}
		return "invalid input"
	case KindTransport:
		return "could not reach the server, check that the backend is running"
	default:
		return "something went wrong"
	}
}
