// Package fault defines the error taxonomy for the checkout core. Every
// failure crossing a component boundary carries one of five kinds so that
// callers can branch on classification instead of matching message strings.
package fault

import (
	"fmt"

	"github.com/go-faster/errors"
)

// Kind classifies a failure.
type Kind uint8

const (
	// KindUnknown is the zero value for errors that did not originate in
	// this package.
	KindUnknown Kind = iota
	// KindValidation marks malformed or missing caller input. Never retried
	// automatically; surfaced to the caller verbatim.
	KindValidation
	// KindAuthorization marks a missing or mismatched identity. Surfaced as
	// a generic unauthorized response without detail.
	KindAuthorization
	// KindAuthenticity marks a failed cryptographic check on a payment
	// callback. Treated as a security event; no state is mutated.
	KindAuthenticity
	// KindDependency marks a failed external call (gateway, data store).
	// Retried by the caller, not internally.
	KindDependency
	// KindConflict marks a duplicate-resource race, typically resolved by
	// returning the existing resource once detected.
	KindConflict
)

// String returns the kind name used in logs and error output.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthorization:
		return "authorization"
	case KindAuthenticity:
		return "authenticity"
	case KindDependency:
		return "dependency"
	case KindConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// Error is a classified error with an optional wrapped cause.
type Error struct {
	kind  Kind
	msg   string
	cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return e.msg + ": " + e.cause.Error()
	}
	return e.msg
}

// Unwrap exposes the cause to errors.Is/As chains.
func (e *Error) Unwrap() error { return e.cause }

// Kind returns the error's classification.
func (e *Error) Kind() Kind { return e.kind }

// New creates a classified error without a cause.
func New(kind Kind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

// Newf creates a classified error from a format string.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Wrap creates a classified error around cause. A nil cause yields nil so
// call sites can wrap unconditionally.
func Wrap(kind Kind, cause error, msg string) error {
	if cause == nil {
		return nil
	}
	return &Error{kind: kind, msg: msg, cause: cause}
}

// KindOf extracts the classification from err, or KindUnknown if err does
// not carry one anywhere in its chain. Any error exposing a Kind method
// participates, not just errors created by this package.
func KindOf(err error) Kind {
	var k interface{ Kind() Kind }
	if errors.As(err, &k) {
		return k.Kind()
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
