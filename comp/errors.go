/*
errors.go - Centralized error types for the compensation engines

PURPOSE:
  All computation errors in one place. Validation findings about shift
  integrity are NOT errors - they are validate.Issue values. Errors here
  mean the pipeline cannot produce a correct answer for its inputs.

ERROR CATEGORIES:
  1. Malformed input  - missing/unparseable timestamps or identifiers
  2. Configuration    - invalid rates/thresholds, caught at construction
  3. Join ambiguity   - duplicate keys where a one-to-one join is expected
  4. Division undefined - zero/negative denominators that must not be
                          coerced to zero, NaN, or infinity

PROPAGATION:
  A failing engine stage aborts the run for that date range and surfaces
  the originating error to the caller. Nothing here is swallowed or
  logged inside the engines.

USAGE:
  if errors.Is(err, comp.ErrMalformedShift) { ... }

SEE ALSO:
  - types.go: Shift.Validate produces MalformedShiftError
  - calculator.go: ConfigurationError at construction
*/
package comp

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrMalformedShift is returned when a shift record is missing required
	// fields or has a non-positive duration.
	ErrMalformedShift = errors.New("malformed shift record")

	// ErrConfiguration is returned when calculator or validator parameters
	// fail validation at construction time.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrJoinAmbiguity is returned when duplicate join keys would fan a
	// one-to-one join out into multiple rows.
	ErrJoinAmbiguity = errors.New("ambiguous join: duplicate key")

	// ErrDivisionUndefined is returned when a per-row or per-group
	// denominator is zero or negative.
	ErrDivisionUndefined = errors.New("division undefined")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// MalformedShiftError identifies the shift and field that failed input
// validation.
type MalformedShiftError struct {
	ShiftID ShiftID
	Field   string
	Reason  string
}

func (e *MalformedShiftError) Error() string {
	return fmt.Sprintf("malformed shift %q: %s (%s)", e.ShiftID, e.Reason, e.Field)
}

func (e *MalformedShiftError) Unwrap() error { return ErrMalformedShift }

// ConfigurationError identifies the parameter that failed fail-fast
// validation.
type ConfigurationError struct {
	Parameter string
	Reason    string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s: %s", e.Parameter, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// JoinAmbiguityError identifies the duplicated join key.
type JoinAmbiguityError struct {
	Relation    string // e.g. "billing", "performance"
	ShiftID     ShiftID
	PhysicianID PhysicianID
}

func (e *JoinAmbiguityError) Error() string {
	if e.ShiftID != "" {
		return fmt.Sprintf("ambiguous %s join: duplicate key (shift %q, physician %q)",
			e.Relation, e.ShiftID, e.PhysicianID)
	}
	return fmt.Sprintf("ambiguous %s join: duplicate key (physician %q)",
		e.Relation, e.PhysicianID)
}

func (e *JoinAmbiguityError) Unwrap() error { return ErrJoinAmbiguity }

// DivisionUndefinedError identifies the row or group whose denominator
// was zero or negative.
type DivisionUndefinedError struct {
	ShiftID     ShiftID
	PhysicianID PhysicianID
	Denominator string // e.g. "shift_hours"
}

func (e *DivisionUndefinedError) Error() string {
	if e.ShiftID != "" {
		return fmt.Sprintf("division undefined: %s is not positive for shift %q",
			e.Denominator, e.ShiftID)
	}
	return fmt.Sprintf("division undefined: %s is not positive for physician %q",
		e.Denominator, e.PhysicianID)
}

func (e *DivisionUndefinedError) Unwrap() error { return ErrDivisionUndefined }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsInputError returns true if the error is due to bad input data rather
// than engine configuration.
func IsInputError(err error) bool {
	return errors.Is(err, ErrMalformedShift) ||
		errors.Is(err, ErrJoinAmbiguity) ||
		errors.Is(err, ErrDivisionUndefined)
}
