package llmclient

import (
	"context"
	"errors"
	"fmt"
)

// Roles understood by every provider. System messages are mapped to the
// provider's native system slot where one exists.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one role-tagged entry of a completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Params carries per-call model parameters. An empty Model falls back to the
// client's default model; a nil Temperature leaves the provider default.
type Params struct {
	Model       string
	Temperature *float32
	MaxTokens   int
}

// Temperature returns a pointer suitable for Params.Temperature.
func Temperature(t float32) *float32 { return &t }

// ProviderClient wraps a single language-model endpoint. One Complete call is
// one outbound request; retries are not performed at this layer.
type ProviderClient interface {
	Name() string
	Complete(ctx context.Context, messages []Message, params Params) (string, error)
	Close() error
}

// ErrEmptyResponse is returned when the provider answered but produced no usable text.
var ErrEmptyResponse = errors.New("empty response from provider")

// ConfigurationError reports missing credentials or settings, detected at call time.
type ConfigurationError struct {
	Provider string
	Msg      string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Provider, e.Msg)
}

func missingKey(provider, env string) error {
	return &ConfigurationError{Provider: provider, Msg: env + " is not configured"}
}

// ProviderError reports a transport or HTTP failure talking to a provider.
type ProviderError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: unexpected status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// PermanentError indicates an error that will not resolve with retries.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}

// IsConfiguration reports whether err stems from missing configuration.
func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// IsRetryable reports whether re-issuing the whole request may succeed.
func IsRetryable(err error) bool {
	if err == nil || IsConfiguration(err) {
		return false
	}
	var pe *PermanentError
	return !errors.As(err, &pe)
}
