package backend

import "fmt"

// APIError is a non-2xx response decoded from the analysis API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("analysis api: %s (%s, status %d)", e.Message, e.Code, e.StatusCode)
	}
	return fmt.Sprintf("analysis api: %s (status %d)", e.Message, e.StatusCode)
}

// ServerMessage returns the human-readable message the server supplied, if
// any, so callers can surface it directly.
func (e *APIError) ServerMessage() string {
	return e.Message
}
