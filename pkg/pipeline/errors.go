package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingRequiredInput is the kind of a ConfigurationError raised when a required input is empty.
	ErrMissingRequiredInput = errors.New("missing required input")
	// ErrMalformedSecretsPayload is the kind raised when the secrets payload is not a JSON object.
	ErrMalformedSecretsPayload = errors.New("malformed secrets payload")
	// ErrInvalidPattern is the kind raised when an include or exclude pattern does not compile.
	ErrInvalidPattern = errors.New("invalid pattern")
	// ErrInvalidInput is the kind raised when an input has a value outside its allowed set.
	ErrInvalidInput = errors.New("invalid input")
)

// ConfigurationError aborts a whole run. Kind is one of the Err* sentinels above.
type ConfigurationError struct {
	Kind  error
	Input string
	Err   error
}

func (e *ConfigurationError) Error() string {
	msg := e.Kind.Error()
	if e.Input != "" {
		msg = fmt.Sprintf("%s %q", msg, e.Input)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ConfigurationError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewConfigurationError builds a ConfigurationError of the given kind.
func NewConfigurationError(kind error, input string, err error) *ConfigurationError {
	return &ConfigurationError{Kind: kind, Input: input, Err: err}
}
