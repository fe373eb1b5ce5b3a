// Package fault defines the error taxonomy shared by the pipeline stages.
//
// Defects scoped to one field or one claim are healed by the stage that finds
// them. Defects that make a provider unreachable or unparseable abort the run.
package fault

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is returned for empty or over-long input text
var ErrInvalidInput = errors.New("invalid input")

// ConfigurationError reports a missing credential, endpoint, or unknown setting.
// It is raised before any outbound call is attempted.
type ConfigurationError struct {
	Setting string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s: %s", e.Setting, e.Reason)
}

// Missing builds a ConfigurationError for an absent required setting
func Missing(setting string) *ConfigurationError {
	return &ConfigurationError{Setting: setting, Reason: "required but not set"}
}

// ServiceError reports a transport or HTTP-level failure of an outbound call
type ServiceError struct {
	Service    string // Provider name (e.g., "groq", "duckduckgo")
	StatusCode int    // 0 when the request never produced a response
	Err        error
}

func (e *ServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: HTTP %d: %v", e.Service, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// MalformedResponseError reports model output with no parseable JSON object.
// Raw carries the offending text for diagnosis.
type MalformedResponseError struct {
	Raw string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response: no JSON object in %q", truncate(e.Raw, 200))
}

// ValidationDefect describes one extracted entry that was dropped
type ValidationDefect struct {
	Index  int // 1-based position in the model output
	Field  string
	Reason string
}

func (e *ValidationDefect) Error() string {
	return fmt.Sprintf("claim entry %d: %s: %s", e.Index, e.Field, e.Reason)
}

// IsFatal reports whether err must abort a run
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var defect *ValidationDefect
	return !errors.As(err, &defect)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
