// Package errs defines the error taxonomy shared by the access, statistics,
// messaging and persistence layers. Callers test with errors.Is.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means a resource id did not resolve.
	ErrNotFound = errors.New("not found")
	// ErrForbidden means the actor failed an access rule.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidInput covers malformed input, bad addressing and uniqueness violations.
	ErrInvalidInput = errors.New("invalid input")
)

// NotFound wraps ErrNotFound with the kind and id of the missing resource.
func NotFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
}

// Forbidden wraps ErrForbidden with a short reason.
func Forbidden(reason string) error {
	return fmt.Errorf("%s: %w", reason, ErrForbidden)
}

// Invalid wraps ErrInvalidInput with a formatted message.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidInput)
}

// Message strips the sentinel suffix so the text can be shown to a client.
func Message(err error) string {
	msg := err.Error()
	for _, sentinel := range []error{ErrNotFound, ErrForbidden, ErrInvalidInput} {
		suffix := ": " + sentinel.Error()
		if len(msg) > len(suffix) && msg[len(msg)-len(suffix):] == suffix {
			return msg[:len(msg)-len(suffix)]
		}
	}
	return msg
}
