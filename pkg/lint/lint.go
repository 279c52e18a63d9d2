// Package lint provides static analysis for form schemas.
// It detects likely authoring mistakes without rendering the form.
package lint

import (
	"encoding/json"
	"fmt"

	"github.com/dlovans/formcraft/pkg/form"
)

// Severity levels.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Rule names reported on issues.
const (
	RuleDuplicateID      = "duplicate-id"
	RuleUnknownType      = "unknown-type"
	RuleMissingCalc      = "missing-calculation"
	RuleStrayCalc        = "stray-calculation"
	RuleUnresolvedSource = "unresolved-source"
	RuleDerivedSource    = "derived-source"
	RuleSelfReference    = "self-reference"
	RuleStrayOptions     = "stray-options"
	RuleNoOptions        = "no-options"
	RuleNotDerivable     = "not-derivable"
)

// Issue represents a problem found during static analysis.
type Issue struct {
	Severity string `json:"severity"`
	Field    string `json:"field,omitempty"`
	Rule     string `json:"rule"`
	Message  string `json:"message"`
}

// Result contains all issues found by the linter.
type Result struct {
	Valid  bool    `json:"valid"`
	Issues []Issue `json:"issues"`
}

// Errors returns the error-severity issues.
func (r *Result) Errors() []Issue {
	var out []Issue
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			out = append(out, issue)
		}
	}
	return out
}

// Run parses a form (or draft) document and analyses it.
func Run(jsonText string) (*Result, error) {
	var f form.Form
	if err := json.Unmarshal([]byte(jsonText), &f); err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return Check(f.Fields), nil
}

// Check analyses fields in form order. Issues of one field are reported
// together, errors before warnings.
func Check(fields []form.Field) *Result {
	result := &Result{
		Valid:  true,
		Issues: make([]Issue, 0),
	}

	seen := make(map[string]bool, len(fields))
	for _, field := range fields {
		if seen[field.ID] {
			result.addError(field.ID, RuleDuplicateID, fmt.Sprintf("field id '%s' is used more than once", field.ID))
		}
		seen[field.ID] = true

		info, known := form.Lookup(field.Type)
		if !known {
			result.addError(field.ID, RuleUnknownType, fmt.Sprintf("field '%s' has unknown type '%s'", field.Label, field.Type))
		}

		if field.IsDerived && !field.CalculationType.Valid() {
			result.addError(field.ID, RuleMissingCalc, fmt.Sprintf("derived field '%s' has no valid calculation type", field.Label))
		}
		if !field.IsDerived && field.CalculationType != "" {
			result.addError(field.ID, RuleStrayCalc, fmt.Sprintf("field '%s' is not derived but has calculation type '%s'", field.Label, field.CalculationType))
		}

		if known {
			switch {
			case !info.SupportsOptions && len(field.Options) > 0:
				result.addWarning(field.ID, RuleStrayOptions, fmt.Sprintf("options on '%s' are ignored by type %s", field.Label, field.Type))
			case info.SupportsOptions && len(field.Options) == 0:
				result.addWarning(field.ID, RuleNoOptions, fmt.Sprintf("%s field '%s' has no options", field.Type, field.Label))
			}
			if field.IsDerived && !info.SupportsDerivation {
				result.addWarning(field.ID, RuleNotDerivable, fmt.Sprintf("type %s cannot display a derived value", field.Type))
			}
		}

		if field.IsDerived {
			checkSources(result, fields, field)
		}
	}

	return result
}

// checkSources reports how each needle of a derived field resolves.
func checkSources(r *Result, fields []form.Field, field form.Field) {
	for _, needle := range form.Needles(field.CalculationType) {
		source, ok := form.Resolve(fields, needle)
		switch {
		case !ok:
			r.addWarning(field.ID, RuleUnresolvedSource, fmt.Sprintf(
				"no field label contains '%s'; %s will read an empty value", needle, field.CalculationType))
		case source.ID == field.ID:
			r.addWarning(field.ID, RuleSelfReference, fmt.Sprintf(
				"'%s' resolves to the derived field itself", needle))
		case source.IsDerived:
			r.addWarning(field.ID, RuleDerivedSource, fmt.Sprintf(
				"'%s' resolves to derived field '%s'; its value lags by one update", needle, source.Label))
		}
	}
}

func (r *Result) addError(field, rule, message string) {
	r.Valid = false
	r.Issues = append(r.Issues, Issue{
		Severity: SeverityError,
		Field:    field,
		Rule:     rule,
		Message:  message,
	})
}

func (r *Result) addWarning(field, rule, message string) {
	r.Issues = append(r.Issues, Issue{
		Severity: SeverityWarning,
		Field:    field,
		Rule:     rule,
		Message:  message,
	})
}
