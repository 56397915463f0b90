package schema

import (
	"fmt"
	"strings"
)

// MissingRequiredFieldError aborts a run: no meaningful testing is possible
// without the required fields. It names every unmapped required field, not
// just the first one found.
type MissingRequiredFieldError struct {
	Domain string
	Fields []string
}

func (e *MissingRequiredFieldError) Error() string {
	return fmt.Sprintf("domain %q: required fields not detected in header row: %s",
		e.Domain, strings.Join(e.Fields, ", "))
}

// ConfigurationError marks a malformed catalog or threshold configuration.
// It is fatal and raised before any check executes.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "invalid configuration: " + e.Reason
}
