// Package apperr defines the closed set of error kinds shared by the
// repositories, services and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers that need to branch on it.
type Kind int

const (
	Unknown Kind = iota
	NotFound
	Unauthorized
	Invalid
	Conflict
	Upstream
	Persistence
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not found"
	case Unauthorized:
		return "unauthorized"
	case Invalid:
		return "invalid"
	case Conflict:
		return "conflict"
	case Upstream:
		return "upstream"
	case Persistence:
		return "persistence"
	default:
		return "unknown"
	}
}

// Error carries a Kind, the operation that failed and optional key/value
// context suitable for structured logging.
type Error struct {
	Kind   Kind
	Op     string
	Err    error
	Fields map[string]any
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// With attaches a context field and returns the same error.
func (e *Error) With(key string, value any) *Error {
	if e.Fields == nil {
		e.Fields = make(map[string]any)
	}
	e.Fields[key] = value
	return e
}

// New builds an error of the given kind with a plain message.
func New(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Err: errors.New(msg)}
}

// Wrap classifies err. A nil err stays nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of the outermost *Error in the chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
