// Package util provides the error taxonomy shared by the topology generator.
package util

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Every typed error below unwraps to exactly one of them.
var (
	ErrValidationFailed  = errors.New("validation failed")
	ErrDependencyMissing = errors.New("required dependency missing")
	ErrMergeConflict     = errors.New("merge conflict")
	ErrAddressExhausted  = errors.New("address space exhausted")
	ErrInternal          = errors.New("internal error")
)

// ValidationError reports a malformed or out-of-range user value.
// Position is the 1-based element of a comma-separated list, or 0 when the
// parameter is a single value.
type ValidationError struct {
	Param    string
	Value    string
	Position int
	Reason   string
}

func (e *ValidationError) Error() string {
	if e.Position > 0 {
		return fmt.Sprintf("invalid --%s element %d %q: %s", e.Param, e.Position, e.Value, e.Reason)
	}
	return fmt.Sprintf("invalid --%s %q: %s", e.Param, e.Value, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// NewValidationError creates a validation error for a single-valued parameter.
func NewValidationError(param, value, reason string) *ValidationError {
	return &ValidationError{Param: param, Value: value, Reason: reason}
}

// DependencyError reports an option that cannot be honoured without another.
type DependencyError struct {
	Option   string
	Requires string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s requires %s", e.Option, e.Requires)
}

func (e *DependencyError) Unwrap() error {
	return ErrDependencyMissing
}

// NewDependencyError creates a dependency error.
func NewDependencyError(option, requires string) *DependencyError {
	return &DependencyError{Option: option, Requires: requires}
}

// MergeConflictError reports two bootstrap-config values of incompatible
// kinds under the same key.
type MergeConflictError struct {
	Path   string
	Target string
	Source string
}

func (e *MergeConflictError) Error() string {
	return fmt.Sprintf("merge conflict at %q: cannot merge %s into %s", e.Path, e.Source, e.Target)
}

func (e *MergeConflictError) Unwrap() error {
	return ErrMergeConflict
}

// AddressError reports a node or interface index outside the address space.
// Interface is -1 when the failure is not tied to one interface.
type AddressError struct {
	Node      int
	Interface int
	Reason    string
}

func (e *AddressError) Error() string {
	if e.Interface < 0 {
		return fmt.Sprintf("node %d: %s", e.Node, e.Reason)
	}
	return fmt.Sprintf("node %d interface %d: %s", e.Node, e.Interface, e.Reason)
}

func (e *AddressError) Unwrap() error {
	return ErrAddressExhausted
}

// Internalf marks a programming error so callers can tell it apart from bad input.
func Internalf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInternal, fmt.Sprintf(format, args...))
}

// IsUserError reports whether err is something the caller can fix by
// changing its input.
func IsUserError(err error) bool {
	return errors.Is(err, ErrValidationFailed) ||
		errors.Is(err, ErrDependencyMissing) ||
		errors.Is(err, ErrMergeConflict) ||
		errors.Is(err, ErrAddressExhausted)
}

// ValidationBuilder accumulates validation messages.
type ValidationBuilder struct {
	errors []string
}

// Add records message if condition is false.
func (v *ValidationBuilder) Add(condition bool, message string) *ValidationBuilder {
	if !condition {
		v.errors = append(v.errors, message)
	}
	return v
}

// AddErrorf records a formatted message unconditionally.
func (v *ValidationBuilder) AddErrorf(format string, args ...interface{}) *ValidationBuilder {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
	return v
}

// HasErrors reports whether any message was recorded.
func (v *ValidationBuilder) HasErrors() bool {
	return len(v.errors) > 0
}

// Build returns nil, or one error listing every recorded message under subject.
func (v *ValidationBuilder) Build(subject string) error {
	if len(v.errors) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s is invalid:\n  - %s", ErrValidationFailed, subject, strings.Join(v.errors, "\n  - "))
}
