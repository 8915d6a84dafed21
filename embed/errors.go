package embed

// Error reports a failed embedding. The overlay either completes in full or
// fails with an Error; a partially modified document is never returned.
type Error struct {
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func newError(msg string, cause error) error {
	return &Error{Message: msg, Cause: cause}
}
