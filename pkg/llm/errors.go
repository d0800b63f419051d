package llm

import (
	"errors"
	"fmt"
)

// ErrConfiguration is matched by every ConfigurationError with errors.Is
var ErrConfiguration = errors.New("backend is not configured")

// ConfigurationError reports a missing backend credential or endpoint.
// It is detected before any network call is made.
type ConfigurationError struct {
	Setting string // name of the missing setting, e.g. llm.api_key
	Message string // optional message, reported by a relay
}

func (e *ConfigurationError) Error() string {
	if e.Message != "" {
		return "configuration error: " + e.Message
	}
	return fmt.Sprintf("configuration error: %s is not set", e.Setting)
}

// Is makes errors.Is(err, ErrConfiguration) work
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// TransportError reports a failure to reach the backend or a broken response stream
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ServiceError reports a backend which was reached but refused the request.
// Message is the backend's own error text, kept verbatim.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("backend responded with status %d", e.StatusCode)
}
