package errors

import (
	"errors"
	"fmt"
)

// Common errors for the payment console
var (
	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrNoRefreshToken     = errors.New("no refresh token")

	// Session errors
	ErrSessionExpired = errors.New("session expired")

	// Request errors
	ErrInvalidRequest = errors.New("invalid request")
	ErrNoSelection    = errors.New("no entity selected")

	// General errors
	ErrNotFound    = errors.New("not found")
	ErrInternal    = errors.New("internal error")
	ErrUnsupported = errors.New("unsupported operation")
)

// Kind classifies an error by how it surfaces to the user.
type Kind string

const (
	KindAuth           Kind = "auth"            // login rejected, shown inline on the login form
	KindFetch          Kind = "fetch"           // failed read, shown as a toast, cache left stale
	KindMutation       Kind = "mutation"        // failed create/update/delete, toast, no local change
	KindSessionExpired Kind = "session_expired" // forced logout and redirect to login
	KindValidation     Kind = "validation"
	KindStorage        Kind = "storage"
	KindConfig         Kind = "config"
	KindUnknown        Kind = "unknown"
)

// Error is a kind-tagged error carrying a human-readable message.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Kind, e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Kind, e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a kind-tagged error without a cause.
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap tags err with kind, op and a user-facing message. A nil err yields nil.
func Wrap(kind Kind, op, message string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Message: message, Cause: err}
}

// Auth builds an AuthError.
func Auth(op, message string, cause error) error {
	return &Error{Kind: KindAuth, Op: op, Message: message, Cause: cause}
}

// Fetch builds a FetchError.
func Fetch(op, message string, cause error) error {
	return &Error{Kind: KindFetch, Op: op, Message: message, Cause: cause}
}

// Mutation builds a MutationError.
func Mutation(op, message string, cause error) error {
	return &Error{Kind: KindMutation, Op: op, Message: message, Cause: cause}
}

// SessionExpired builds a SessionExpiredError.
func SessionExpired(op string) error {
	return &Error{Kind: KindSessionExpired, Op: op, Message: "Session expired", Cause: ErrSessionExpired}
}

// IsKind reports whether the outermost kind-tagged error in err's chain has the given kind.
func IsKind(err error, kind Kind) bool {
	var target *Error
	if errors.As(err, &target) {
		return target.Kind == kind
	}
	return false
}

// KindOf returns the kind of the outermost tagged error, or KindUnknown.
func KindOf(err error) Kind {
	var target *Error
	if errors.As(err, &target) {
		return target.Kind
	}
	return KindUnknown
}

// Message returns the text a user should see for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var target *Error
	if errors.As(err, &target) && target.Message != "" {
		return target.Message
	}
	return err.Error()
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
