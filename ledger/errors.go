package ledger

import "errors"

// Kind is a stable category for programmatic error handling.
//
// These categories are intended to remain stable across versions. Callers
// should branch on Kind rather than matching error strings.
type Kind string

const (
	// KindSignerRejected: the signer or its signature was refused. Terminal.
	KindSignerRejected Kind = "SignerRejected"
	// KindReverted: the ledger's own policy rejected the write. Terminal.
	KindReverted Kind = "Reverted"
	// KindTimeout: the submission outcome is unknown; the transaction may or
	// may not have been included. Never blindly retryable.
	KindTimeout Kind = "Timeout"
	// KindUnavailable: the ledger could not be reached before anything was
	// submitted. Safe to retry.
	KindUnavailable Kind = "Unavailable"
	KindInternal    Kind = "Internal"
)

// Error is the ledger boundary's structured error type.
//
// Message is intended for humans; do not match on it. Use errors.As to
// extract *Error for structured handling.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func NewError(kind Kind, msg string) error {
	return &Error{Kind: kind, Message: msg}
}

func WrapError(kind Kind, msg string, cause error) error {
	if cause == nil {
		return NewError(kind, msg)
	}
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// IsKind reports whether err is (or wraps) a *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// Retryable reports whether err may be retried without risking a duplicate
// anchor record: only pre-submission unavailability qualifies.
func Retryable(err error) bool { return IsKind(err, KindUnavailable) }

// Ambiguous reports whether the submission outcome is unknown. An ambiguous
// failure must be resolved through a Finder before any resubmission.
func Ambiguous(err error) bool { return IsKind(err, KindTimeout) }
