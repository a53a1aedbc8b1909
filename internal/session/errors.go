package session

import (
	"errors"
	"fmt"
)

// ErrBusy is returned by Submit while a session is already in flight.
var ErrBusy = errors.New("session: a submission is already in progress")

// ValidationError reports unusable input, detected before any network call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// User-facing error messages for the error state.
const (
	msgUploadFailed     = "analysis request failed"
	msgPollTimeout      = "analysis is taking longer than expected"
	msgResultUnreadable = "analysis results could not be read"
)
