// Package client provides typed HTTP clients for the collaborator
// services: the persistence backend and the exchange-rate service.
// Every call carries a bounded timeout and resolves to a typed outcome;
// no call is retried automatically.
package client

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound reports a 404 from a collaborator service.
	ErrNotFound = errors.New("not found")
	// ErrUnavailable reports a timeout, refused connection, or 5xx.
	ErrUnavailable = errors.New("service unavailable")
)

// RejectedError reports a 400 response: the collaborator understood the
// request and refused it (duplicate user, unknown currency).
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("rejected: %s", e.Reason)
}

// IsRejected reports whether err is a collaborator rejection and
// returns its reason.
func IsRejected(err error) (string, bool) {
	var re *RejectedError
	if errors.As(err, &re) {
		return re.Reason, true
	}
	return "", false
}
