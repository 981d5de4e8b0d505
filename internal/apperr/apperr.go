// internal/apperr/apperr.go

// Package apperr defines the closed set of failure kinds raised by the
// repositories and the helpers the transport layer uses to present them.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure.
type Kind int

const (
	// Internal is any unexpected failure from the store layer.
	Internal Kind = iota
	// NotFound means a lookup or filtered list returned zero records.
	NotFound
	// WriteFailure means an insert or update did not produce or affect the expected record.
	WriteFailure
	// Validation means caller input failed shape or type constraints.
	Validation
	// Configuration means a required startup setting was missing or malformed.
	Configuration
)

// Code returns the extension code reported to API callers.
func (k Kind) Code() string {
	switch k {
	case NotFound:
		return "NOT_FOUND"
	case WriteFailure:
		return "WRITE_FAILURE"
	case Validation:
		return "VALIDATION_ERROR"
	case Configuration:
		return "CONFIGURATION_ERROR"
	default:
		return "INTERNAL_SERVER_ERROR"
	}
}

func (k Kind) String() string { return k.Code() }

// HTTPStatus maps the kind to a status code for plain HTTP routes.
func (k Kind) HTTPStatus() int {
	switch k {
	case NotFound:
		return http.StatusNotFound
	case WriteFailure:
		return http.StatusExpectationFailed
	case Validation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified failure. Resource names the entity collection involved
// ("author", "book", ...) and Op the repository operation.
type Error struct {
	Kind     Kind
	Op       string
	Resource string
	Message  string
	Err      error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.Code()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Extensions satisfies the graphql-go ResolverError contract.
func (e *Error) Extensions() map[string]interface{} {
	ext := map[string]interface{}{"code": e.Kind.Code()}
	if e.Resource != "" {
		ext["resource"] = e.Resource
	}
	if e.Op != "" {
		ext["operation"] = e.Op
	}
	return ext
}

// Is reports kind equality so callers can match with errors.Is(err, &Error{Kind: NotFound}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Resource == "" && t.Op == "" && t.Message == "" && t.Err == nil
}

func newf(kind Kind, resource, op, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Resource: resource, Op: op, Message: fmt.Sprintf(format, args...)}
}

// NotFoundf builds a NotFound error.
func NotFoundf(resource, op, format string, args ...interface{}) *Error {
	return newf(NotFound, resource, op, format, args...)
}

// WriteFailuref builds a WriteFailure error.
func WriteFailuref(resource, op, format string, args ...interface{}) *Error {
	return newf(WriteFailure, resource, op, format, args...)
}

// Validationf builds a Validation error.
func Validationf(resource, op, format string, args ...interface{}) *Error {
	return newf(Validation, resource, op, format, args...)
}

// Configurationf builds a Configuration error.
func Configurationf(format string, args ...interface{}) *Error {
	return newf(Configuration, "", "", format, args...)
}

// Wrap classifies err under kind. A nil err yields nil.
func Wrap(err error, kind Kind, resource, op, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Resource: resource, Op: op, Message: message, Err: err}
}

// KindOf returns the kind of the outermost classified error in err's chain,
// or Internal when none is present.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

const maskedMessage = "Internal server error"

// Present prepares err for an API caller. Classified errors other than
// Internal keep their kind and message. Underlying causes, and the detail of
// Internal errors, are only shown in debug mode.
func Present(err error, debug bool) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) && e.Kind != Internal {
		if debug || e.Err == nil {
			return e
		}
		return &Error{Kind: e.Kind, Op: e.Op, Resource: e.Resource, Message: e.Message}
	}
	if debug {
		return &Error{Kind: Internal, Message: err.Error()}
	}
	return &Error{Kind: Internal, Message: maskedMessage}
}
