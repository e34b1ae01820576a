package eta

import (
	"errors"
	"fmt"
)

// ErrAuthenticationFailed marks an exhausted token exchange. The submission
// that triggered it moves the invoice to the error state; a later attempt may
// succeed once credentials/connectivity recover.
var ErrAuthenticationFailed = errors.New("eta: authentication failed")

// APIError is a non-success response from the authority. The last response
// body is preserved verbatim for audit; the orchestrator stores it inside the
// invoice's ETA envelope.
type APIError struct {
	Op         string // logical operation, e.g. "submit", "token", "cancel"
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("eta: %s returned HTTP %d: %s", e.Op, e.StatusCode, e.Body)
}

// transportError is a connection-level failure (dial, TLS, per-attempt
// timeout). Only surfaced once the retry policy is exhausted.
type transportError struct {
	Op  string
	Err error
}

func (e *transportError) Error() string {
	return fmt.Sprintf("eta: %s transport failure: %v", e.Op, e.Err)
}

func (e *transportError) Unwrap() error { return e.Err }

// retryableOutcome reports whether an outcome is worth another attempt: every
// transport failure and every non-whitelisted HTTP status is. Cancellation of
// the caller's context is handled by the retry loop itself.
func retryableOutcome(err error) bool {
	if err == nil {
		return false
	}
	var te *transportError
	if errors.As(err, &te) {
		return true
	}
	var ae *APIError
	return errors.As(err, &ae)
}
