package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures surfaced to the boundary layer.
type ErrorKind string

const (
	KindInvalidInput    ErrorKind = "invalid_input"
	KindInvalidArgument ErrorKind = "invalid_argument"
	KindCatalogLoad     ErrorKind = "catalog_load_error"
	KindUnknownLabel    ErrorKind = "unknown_label"
	KindUpstream        ErrorKind = "upstream_error"
	KindNotConfigured   ErrorKind = "not_configured"
)

var (
	ErrInvalidInput    = errors.New("domain: invalid input")
	ErrInvalidArgument = errors.New("domain: invalid argument")
	ErrCatalogLoad     = errors.New("domain: catalog load error")
	ErrUnknownLabel    = errors.New("domain: unknown label")
	ErrUpstream        = errors.New("domain: upstream error")
	ErrNotConfigured   = errors.New("domain: not configured")
)

var kindSentinels = map[ErrorKind]error{
	KindInvalidInput:    ErrInvalidInput,
	KindInvalidArgument: ErrInvalidArgument,
	KindCatalogLoad:     ErrCatalogLoad,
	KindUnknownLabel:    ErrUnknownLabel,
	KindUpstream:        ErrUpstream,
	KindNotConfigured:   ErrNotConfigured,
}

// Error is the structured failure returned across the service boundary.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// NewError builds an Error with a formatted message.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError builds an Error that keeps err in its chain.
func WrapError(kind ErrorKind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error's kind. An unknown label is also a
// form of invalid input.
func (e *Error) Is(target error) bool {
	if target == kindSentinels[e.Kind] {
		return true
	}
	return e.Kind == KindUnknownLabel && target == ErrInvalidInput
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return "", false
}
