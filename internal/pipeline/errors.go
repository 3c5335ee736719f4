package pipeline

import (
	"errors"
	"fmt"
)

// ErrCodeGeneration is returned when the code provider produced no completion.
var ErrCodeGeneration = errors.New("failed to generate code")

// IntentParseError reports model output that did not contain a usable
// generation context. Raw holds the provider text for diagnostics.
type IntentParseError struct {
	Reason string
	Raw    string
	Err    error
}

func (e *IntentParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to parse intent: %s: %v", e.Reason, e.Err)
	}
	return "failed to parse intent: " + e.Reason
}

func (e *IntentParseError) Unwrap() error { return e.Err }

// IsIntentParse reports whether err is an IntentParseError.
func IsIntentParse(err error) bool {
	var pe *IntentParseError
	return errors.As(err, &pe)
}
