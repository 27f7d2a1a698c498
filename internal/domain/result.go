package domain

import "fmt"

// Violation describes one failed validation rule.
type Violation struct {
	// Field is the RunConfiguration field that failed, e.g. "totalFlowRate".
	Field string `json:"field"`

	// Rule is a short human-readable statement of the bound, e.g. "0.8-15.0 mL/min".
	Rule string `json:"rule"`

	// Observed is the value that was supplied.
	Observed string `json:"observed"`

	// Allowed is the accepted range or set.
	Allowed string `json:"allowed"`
}

// String renders the violation in a form suitable for relaying to an operator.
func (v Violation) String() string {
	return fmt.Sprintf("%s: observed %s, allowed %s (%s)", v.Field, v.Observed, v.Allowed, v.Rule)
}

// ValidationResult is the outcome of static validation.
//
// It is never partially populated: either Accepted is true and Violations is
// empty, or Accepted is false and Violations lists every failing field.
type ValidationResult struct {
	Accepted   bool        `json:"accepted"`
	Violations []Violation `json:"violations,omitempty"`
}

// Reject returns a ValidationResult carrying the given violations.
func Reject(violations []Violation) ValidationResult {
	return ValidationResult{Accepted: false, Violations: violations}
}

// Accept returns an accepting ValidationResult.
func Accept() ValidationResult {
	return ValidationResult{Accepted: true}
}
