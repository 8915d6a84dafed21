package issuance

import "errors"

// Kind is a stable category for programmatic error handling.
//
// These categories are intended to remain stable across versions. Callers
// should branch on Kind rather than matching error strings.
type Kind string

const (
	// KindIdentityUnresolved: no active signing identity. Nothing happened.
	KindIdentityUnresolved Kind = "IdentityUnresolved"
	// KindUnauthorized: the identity may not issue documents. Nothing was
	// uploaded or anchored.
	KindUnauthorized Kind = "Unauthorized"
	// KindStoreUnavailable: transient content-store failure. The whole
	// pipeline may be retried from the start; content addressing makes the
	// re-upload a no-op for anything that already landed.
	KindStoreUnavailable Kind = "StoreUnavailable"
	// KindStoreRejected: the store refused the content. Terminal.
	KindStoreRejected Kind = "StoreRejected"
	// KindLedgerUnavailable: the ledger was unreachable before anything was
	// submitted. Safe to retry the pipeline in full.
	KindLedgerUnavailable Kind = "LedgerUnavailable"
	// KindSignerRejected: the ledger refused the signing identity. Terminal.
	KindSignerRejected Kind = "SignerRejected"
	// KindSubmissionStatusUnknown: the anchor submission timed out and its
	// inclusion could not be confirmed or ruled out. Resubmitting without an
	// anchor lookup risks a duplicate record.
	KindSubmissionStatusUnknown Kind = "SubmissionStatusUnknown"
	// KindReverted: the ledger's policy rejected the anchor. Terminal.
	KindReverted Kind = "Reverted"
	// KindEmbedFailed: the verification overlay could not be produced.
	// Terminal for the output document; the anchor, if any, is durable.
	KindEmbedFailed Kind = "EmbedFailed"
	KindInternal    Kind = "Internal"
)

// Error is the pipeline's structured error type.
//
// Message is intended for humans; do not match on it. Use errors.As to
// extract *Error, or IsKind for a single-kind check.
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

func newError(kind Kind, msg string) error {
	return &Error{Kind: kind, Message: msg}
}

func wrapError(kind Kind, msg string, cause error) error {
	if cause == nil {
		return newError(kind, msg)
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

// Retryable reports whether the pipeline may be rerun from the start without
// risking a duplicate anchor record.
func Retryable(err error) bool {
	return IsKind(err, KindStoreUnavailable) || IsKind(err, KindLedgerUnavailable)
}
