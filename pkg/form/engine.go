package form

import (
	"encoding/json"
	"fmt"
	"time"
)

// Engine recomputes the derived fields of one form.
type Engine struct {
	form *Form
	now  func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the source of "today" used by date formulas.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithDate pins "today" to a fixed instant.
func WithDate(date time.Time) Option {
	return WithClock(func() time.Time { return date })
}

// NewEngine creates an engine for the given form.
func NewEngine(f *Form, opts ...Option) *Engine {
	e := &Engine{form: f, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Form returns the form the engine evaluates.
func (e *Engine) Form() *Form {
	return e.form
}

// Recompute evaluates every derived field once, in field order, against the
// snapshot as it was before the pass. Derived fields therefore see the
// previous value of other derived fields, never one computed in this pass.
// The returned snapshot is a copy with all updates applied together; changed
// lists the ids whose value differs, in field order. The input is not modified.
func (e *Engine) Recompute(snap Snapshot) (Snapshot, []string) {
	today := e.now()

	type update struct {
		id    string
		value Value
	}
	var staged []update

	for _, field := range e.form.Fields {
		if !field.IsDerived {
			continue
		}
		value, ok := e.compute(field, snap, today)
		if !ok {
			continue
		}
		if !value.Equal(snap.Get(field.ID)) {
			staged = append(staged, update{id: field.ID, value: value})
		}
	}

	next := snap.Clone()
	changed := make([]string, 0, len(staged))
	for _, u := range staged {
		next[u.id] = u.value
		changed = append(changed, u.id)
	}
	return next, changed
}

// compute runs the field's formula. Reports false for an unknown
// calculation type, leaving the field untouched.
func (e *Engine) compute(field Field, snap Snapshot, today time.Time) (Value, bool) {
	f, ok := formulas[field.CalculationType]
	if !ok {
		return None, false
	}
	in := make([]Value, len(f.needles))
	for i, needle := range f.needles {
		in[i] = e.lookup(snap, needle)
	}
	return f.eval(in, today), true
}

// ConvergeResult is the outcome of iterating Recompute.
type ConvergeResult struct {
	Snapshot  Snapshot
	Changed   []string // every id changed by any pass, first change first
	Passes    int      // passes actually run
	Converged bool     // the last pass changed nothing
}

// Converge repeats Recompute until a pass changes nothing or maxPasses is
// reached. On hitting the cap the snapshot of the last completed pass is
// returned as a best effort. maxPasses below one runs a single pass.
func Converge(e *Engine, snap Snapshot, maxPasses int) ConvergeResult {
	if maxPasses < 1 {
		maxPasses = 1
	}

	result := ConvergeResult{Snapshot: snap}
	seen := make(map[string]bool)
	for result.Passes < maxPasses {
		next, changed := e.Recompute(result.Snapshot)
		result.Passes++
		result.Snapshot = next
		if len(changed) == 0 {
			result.Converged = true
			break
		}
		for _, id := range changed {
			if !seen[id] {
				seen[id] = true
				result.Changed = append(result.Changed, id)
			}
		}
	}
	return result
}

// InitialSnapshot returns each field's starting value.
func InitialSnapshot(f *Form) Snapshot {
	snap := make(Snapshot, len(f.Fields))
	for _, field := range f.Fields {
		snap[field.ID] = field.InitialValue()
	}
	return snap
}

// Status summarises an evaluated document.
type Status string

const (
	StatusValid   Status = "VALID"   // every field passes its rules
	StatusInvalid Status = "INVALID" // at least one field failed validation
)

// Evaluation is the document returned by Evaluate.
type Evaluation struct {
	Values   Snapshot            `json:"values"`
	Changed  []string            `json:"changed"`
	Failures map[string][]string `json:"failures,omitempty"`
	Status   Status              `json:"status"`
}

// Evaluate takes a form and raw values as JSON, applies one derivation pass
// for the given date and validates the result. Values missing from valuesJSON
// start from the field defaults.
func Evaluate(formJSON, valuesJSON string, date time.Time) (string, error) {
	f, snap, err := parseDocument(formJSON, valuesJSON)
	if err != nil {
		return "", err
	}
	next, changed := NewEngine(f, WithDate(date)).Recompute(snap)
	return encodeEvaluation(f, next, changed)
}

// ValidateDocument validates raw values against a form without deriving.
// The result has the same shape as Evaluate with no changed fields.
func ValidateDocument(formJSON, valuesJSON string) (string, error) {
	f, snap, err := parseDocument(formJSON, valuesJSON)
	if err != nil {
		return "", err
	}
	return encodeEvaluation(f, snap, []string{})
}

// parseDocument decodes a form and overlays the known ids of valuesJSON on
// its initial snapshot, coerced to each field's kind.
func parseDocument(formJSON, valuesJSON string) (*Form, Snapshot, error) {
	var f Form
	if err := json.Unmarshal([]byte(formJSON), &f); err != nil {
		return nil, nil, fmt.Errorf("unmarshal form: %w", err)
	}

	snap := InitialSnapshot(&f)
	if valuesJSON != "" {
		var raw Snapshot
		if err := json.Unmarshal([]byte(valuesJSON), &raw); err != nil {
			return nil, nil, fmt.Errorf("unmarshal values: %w", err)
		}
		for id, v := range raw {
			field, ok := f.FieldByID(id)
			if !ok {
				continue
			}
			coerced, err := Coerce(field, v)
			if err != nil {
				return nil, nil, fmt.Errorf("values: %w", err)
			}
			snap[id] = coerced
		}
	}
	return &f, snap, nil
}

func encodeEvaluation(f *Form, values Snapshot, changed []string) (string, error) {
	doc := Evaluation{
		Values:   values,
		Changed:  changed,
		Failures: ValidateAll(f, values),
		Status:   StatusValid,
	}
	if len(doc.Failures) > 0 {
		doc.Status = StatusInvalid
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal: %w", err)
	}
	return string(out), nil
}
