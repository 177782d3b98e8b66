// Package schema validates raw model responses against the per-kind artifact
// contracts: fence stripping, typed parsing, required-field and range checks,
// and the room-kind structural rules. Validation never panics and never
// returns Go errors for content defects; defects accumulate in a Result so
// the orchestrator decides whether to continue.
package schema

import (
	"fmt"
	"regexp"
)

// Kind names an artifact schema.
type Kind string

// Artifact kinds the validator understands.
const (
	KindOutline Kind = "outline"
	KindGraph   Kind = "graph"
	KindRoom    Kind = "room"
	KindQuest   Kind = "quest"
	KindEnemy   Kind = "enemy"
	KindItem    Kind = "item"
)

// idPattern is the id-format rule embedded verbatim in every prompt:
// lowercase slug starting with a letter.
var idPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// ValidID reports whether id satisfies the slug rule.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}

// Result is the value-typed outcome of validating one artifact. Errors are
// blocking; warnings are advisory.
type Result struct {
	Errors   []string
	Warnings []string
}

// Fatal reports whether the result carries any blocking error.
func (r Result) Fatal() bool { return len(r.Errors) > 0 }

// Clean reports whether the result carries neither errors nor warnings.
func (r Result) Clean() bool { return len(r.Errors) == 0 && len(r.Warnings) == 0 }

// Errorf appends a formatted blocking error.
func (r *Result) Errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Warnf appends a formatted advisory warning.
func (r *Result) Warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Merge appends other's errors and warnings to r.
func (r *Result) Merge(other Result) {
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}

// checkID appends an error when id is empty or violates the slug rule.
func (r *Result) checkID(field, id string) {
	if id == "" {
		r.Errorf("%s must not be empty", field)
		return
	}
	if !ValidID(id) {
		r.Errorf("%s %q is not a lowercase slug", field, id)
	}
}
