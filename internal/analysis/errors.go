package analysis

import "fmt"

// NormalizationError reports a raw payload field that could not be converted
// into the canonical result shape.
type NormalizationError struct {
	Field  string
	Reason string
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("normalize %s: %s", e.Field, e.Reason)
}
