package contentstore

import "errors"

var (
	ErrNotFound        = errors.New("contentstore: not found")
	ErrInvalidAddress  = errors.New("contentstore: invalid address")
	ErrAddressMismatch = errors.New("contentstore: address mismatch")
	ErrImmutable       = errors.New("contentstore: immutable object mismatch")
	ErrUnavailable     = errors.New("contentstore: store unavailable")
	ErrRejected        = errors.New("contentstore: content rejected")
)

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsRetryable reports whether err is a transient store failure that is safe
// to retry. Content addressing makes a retried Put a no-op when the first
// attempt partially succeeded.
func IsRetryable(err error) bool { return errors.Is(err, ErrUnavailable) }
