package domain

import (
	"fmt"
	"strings"
)

// ValidationError marks bad user input. Always user-surfaced with a
// field-specific message; blocks calculation.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

// ValidationErrors aggregates per-field failures so a response can list
// every offending field at once instead of the first one found.
type ValidationErrors []*ValidationError

func (e ValidationErrors) Error() string {
	fields := make([]string, len(e))
	for i, v := range e {
		fields[i] = v.Field
	}
	return fmt.Sprintf("validation failed for fields: %s", strings.Join(fields, ", "))
}

// RateFetchError marks an upstream rate provider failure. It is absorbed
// at the rate cache boundary and downgraded to fallback data - never
// surfaced as a hard failure to calculation callers.
type RateFetchError struct {
	Provider string
	Err      error
}

func (e *RateFetchError) Error() string {
	return fmt.Sprintf("rate fetch from %s failed: %v", e.Provider, e.Err)
}

func (e *RateFetchError) Unwrap() error {
	return e.Err
}

// ConfigurationError marks a missing or invalid credential/setting.
// Fatal at startup or feature level, never per-request.
type ConfigurationError struct {
	Key     string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error (%s): %s", e.Key, e.Message)
}
