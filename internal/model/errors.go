package model

import (
	"fmt"
	"strings"
)

// ValidationError reports mandatory request facets that are absent. It is
// raised before any search executes and maps to a 400 response.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Missing, ", "))
}

// NewValidationError builds a ValidationError for the given missing fields.
func NewValidationError(missing []string) *ValidationError {
	return &ValidationError{Missing: missing}
}

// ConfigurationError reports a missing or unusable upstream credential for a
// mandatory dependency. It is fatal to the request and maps to a 500
// response naming the credential. Absent credentials for optional Tier-2
// sources never raise this; they degrade silently.
type ConfigurationError struct {
	Credential string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s is not set", e.Credential)
}

// NewConfigurationError builds a ConfigurationError naming the credential.
func NewConfigurationError(credential string) *ConfigurationError {
	return &ConfigurationError{Credential: credential}
}
