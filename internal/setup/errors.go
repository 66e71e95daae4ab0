package setup

import (
	"fmt"
	"strings"
)

// ValidationError reports malformed or missing structural data in the
// cluster description.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	// Line is the 1-based source line, 0 when unknown.
	Line int `json:"line,omitempty"`
}

func (e *ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: %s (line %d)", e.Field, e.Message, e.Line)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every problem found in one pass over the
// document.
type ValidationErrors []*ValidationError

func (errs ValidationErrors) Error() string {
	switch len(errs) {
	case 0:
		return "no validation errors"
	case 1:
		return "invalid cluster description: " + errs[0].Error()
	}
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("invalid cluster description (%d problems): %s", len(errs), strings.Join(msgs, "; "))
}

// Unwrap exposes the individual errors to errors.As.
func (errs ValidationErrors) Unwrap() []error {
	out := make([]error, len(errs))
	for i, e := range errs {
		out[i] = e
	}
	return out
}

// MissingRequiredFieldError reports a required config field that the
// cluster or shard settings do not define.
type MissingRequiredFieldError struct {
	Scope string // "cluster" or "shard <name>"
	Field string
}

func (e *MissingRequiredFieldError) Error() string {
	return fmt.Sprintf("%s: required field %q is not set", e.Scope, e.Field)
}

// EnvironmentError reports a problem with the host environment, such as a
// missing server install.
type EnvironmentError struct {
	Path    string
	Message string
	Err     error
}

func (e *EnvironmentError) Error() string {
	msg := e.Message
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Path)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *EnvironmentError) Unwrap() error { return e.Err }
