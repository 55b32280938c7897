/*
errors.go - Error taxonomy for the holiday pay engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Domain packages return these directly or wrap them with %w.

ERROR CATEGORIES:
  1. Configuration errors - no (or ambiguous) rule set for a date
  2. Validation errors - malformed input, fatal, no result is produced
  3. Not implemented - documented jurisdiction rules without a formula yet
  4. Publication errors - overlapping or duplicate rule-set rows

RECOVERABLE CONDITIONS:
  Incomplete work history is NOT an error. The calculator pro-rates and
  attaches a warning to the result (see holidaypay.Warning).

USAGE:
  if errors.Is(err, generic.ErrConfigNotFound) {
      // never fall back to "latest"; surface to the caller
  }

  var vErr *generic.ValidationError
  if errors.As(err, &vErr) {
      log.Printf("bad input field %s: %s", vErr.Field, vErr.Reason)
  }

SEE ALSO:
  - jurisdiction/table.go: returns ConfigNotFoundError
  - holidaypay/validate.go: returns ValidationError
  - api/handlers.go: maps these to HTTP status codes
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrConfigNotFound is returned when zero or more than one rule set is in
	// effect for a province on a date.
	ErrConfigNotFound = errors.New("jurisdiction config not found")

	// ErrValidation is returned for malformed engine input.
	ErrValidation = errors.New("validation failed")

	// ErrNotImplemented is returned for documented rules that have no formula.
	ErrNotImplemented = errors.New("rule not implemented")

	// ErrOverlappingRuleSet is returned when publishing a row whose effective
	// range overlaps a current row of the same province.
	ErrOverlappingRuleSet = errors.New("overlapping rule set effective range")

	// ErrDuplicateRuleSet is returned when a (id, revision) pair already exists.
	ErrDuplicateRuleSet = errors.New("duplicate rule set revision")

	// ErrEmployeeNotFound is returned by stores when an employee is missing.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrResultNotFound is returned by stores when a stored result is missing.
	ErrResultNotFound = errors.New("result not found")

	// ErrLeaveNotDefined is returned when the rule set in force has no rule
	// for the requested leave type.
	ErrLeaveNotDefined = errors.New("leave type not defined")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ConfigNotFoundError reports a failed rule-set resolution.
// Matches == 0 means nothing was in effect; Matches > 1 means the table holds
// overlapping rows, which is a data-integrity bug.
type ConfigNotFoundError struct {
	Province Province
	Date     TimePoint
	Matches  int
}

func (e *ConfigNotFoundError) Error() string {
	if e.Matches > 1 {
		return fmt.Sprintf("jurisdiction config not found: %d overlapping rule sets for %s on %s",
			e.Matches, e.Province, e.Date)
	}
	if e.Date.IsZero() {
		return fmt.Sprintf("jurisdiction config not found: no rule set for %s", e.Province)
	}
	return fmt.Sprintf("jurisdiction config not found: no rule set for %s on %s", e.Province, e.Date)
}

func (e *ConfigNotFoundError) Unwrap() error { return ErrConfigNotFound }

// ValidationError describes one malformed input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid is shorthand for building a ValidationError.
func Invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// NotImplementedError names a rule type that is documented for a
// jurisdiction but deliberately has no formula.
type NotImplementedError struct {
	Rule     string
	Province Province
	Detail   string
}

func (e *NotImplementedError) Error() string {
	msg := fmt.Sprintf("rule not implemented: %s for %s", e.Rule, e.Province)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *NotImplementedError) Unwrap() error { return ErrNotImplemented }

// OverlapError identifies the existing row a new row collides with.
type OverlapError struct {
	Province   Province
	NewID      string
	ExistingID string
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("rule set %s overlaps %s for %s", e.NewID, e.ExistingID, e.Province)
}

func (e *OverlapError) Unwrap() error { return ErrOverlappingRuleSet }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsNotFound returns true if the error indicates missing config or records.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrConfigNotFound) || errors.Is(err, ErrEmployeeNotFound) ||
		errors.Is(err, ErrResultNotFound) || errors.Is(err, ErrLeaveNotDefined)
}

// IsConflict returns true for publication conflicts.
func IsConflict(err error) bool {
	return errors.Is(err, ErrOverlappingRuleSet) || errors.Is(err, ErrDuplicateRuleSet)
}

func IsNotImplemented(err error) bool {
	return errors.Is(err, ErrNotImplemented)
}
