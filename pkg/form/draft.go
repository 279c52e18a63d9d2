package form

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrFieldNotFound   = errors.New("field not found")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrNameRequired    = errors.New("form name required")
	ErrInvalidSchema   = errors.New("invalid schema")
)

// NewDraft returns an empty draft carrying the placeholder name.
func NewDraft() *Draft {
	return &Draft{Name: PlaceholderName, Fields: []Field{}}
}

// NewField creates a field with a fresh id, empty validations and
// IsDerived false. Options are kept only for types that support them.
func NewField(t FieldType, label string, options []string) Field {
	field := Field{
		ID:    uuid.NewString(),
		Type:  t,
		Label: label,
	}
	if t.SupportsOptions() && len(options) > 0 {
		field.Options = append([]string(nil), options...)
	}
	return field
}

// FieldPatch carries a partial update. Nil members are left unchanged.
type FieldPatch struct {
	Type            *FieldType       `json:"type,omitempty"`
	Label           *string          `json:"label,omitempty"`
	DefaultValue    *Value           `json:"defaultValue,omitempty"`
	Options         *[]string        `json:"options,omitempty"`
	Validations     *Rules           `json:"validations,omitempty"`
	IsDerived       *bool            `json:"isDerived,omitempty"`
	CalculationType *CalculationType `json:"calculationType,omitempty"`
}

// SetName replaces the draft name.
func (d *Draft) SetName(name string) {
	d.Name = name
}

// AddField appends a new field and returns it.
func (d *Draft) AddField(t FieldType, label string, options []string) Field {
	field := NewField(t, label, options)
	d.Fields = append(d.Fields, field)
	return field.clone()
}

// UpdateField merges patch into the field with the given id.
// Reports false, changing nothing, when no field has that id.
func (d *Draft) UpdateField(id string, patch FieldPatch) bool {
	i := d.indexOf(id)
	if i < 0 {
		return false
	}

	field := &d.Fields[i]
	if patch.Type != nil {
		field.Type = *patch.Type
	}
	if patch.Label != nil {
		field.Label = *patch.Label
	}
	if patch.DefaultValue != nil {
		field.DefaultValue = *patch.DefaultValue
	}
	if patch.Options != nil {
		field.Options = append([]string(nil), (*patch.Options)...)
	}
	if patch.Validations != nil {
		field.Validations = *patch.Validations
	}
	if patch.IsDerived != nil {
		field.IsDerived = *patch.IsDerived
	}
	if patch.CalculationType != nil {
		field.CalculationType = *patch.CalculationType
	}

	// Options only mean something on choice types; a derived flag switched
	// off drops its formula.
	if !field.Type.SupportsOptions() {
		field.Options = nil
	}
	if !field.IsDerived {
		field.CalculationType = ""
	}
	return true
}

// RemoveField deletes the field with the given id. Reports false when absent.
func (d *Draft) RemoveField(id string) bool {
	i := d.indexOf(id)
	if i < 0 {
		return false
	}
	d.Fields = append(d.Fields[:i], d.Fields[i+1:]...)
	return true
}

// ReorderField moves the field at from to position to, shifting the others.
func (d *Draft) ReorderField(from, to int) error {
	n := len(d.Fields)
	if from < 0 || from >= n || to < 0 || to >= n {
		return fmt.Errorf("reorder %d -> %d of %d fields: %w", from, to, n, ErrIndexOutOfRange)
	}
	if from == to {
		return nil
	}

	moved := d.Fields[from]
	if from < to {
		copy(d.Fields[from:to], d.Fields[from+1:to+1])
	} else {
		copy(d.Fields[to+1:from+1], d.Fields[to:from])
	}
	d.Fields[to] = moved
	return nil
}

// NeedsName reports whether the current name must be replaced before saving.
func (d *Draft) NeedsName() bool {
	return NeedsName(d.Name)
}

// NeedsName reports whether name is blank or still the placeholder.
func NeedsName(name string) bool {
	trimmed := strings.TrimSpace(name)
	return trimmed == "" || trimmed == PlaceholderName
}

// Persist turns the draft into an immutable form record with the given
// identity. The draft itself is not modified.
func (d *Draft) Persist(id string, createdAt time.Time) (Form, error) {
	if d.NeedsName() {
		return Form{}, ErrNameRequired
	}
	f := Form{
		ID:        id,
		Name:      strings.TrimSpace(d.Name),
		CreatedAt: createdAt.UTC(),
		Fields:    cloneFields(d.Fields),
	}
	if f.Fields == nil {
		f.Fields = []Field{}
	}
	if err := f.Check(); err != nil {
		return Form{}, err
	}
	return f, nil
}

// Check verifies the structural rules of a form: unique non-empty field
// ids, known types, and a calculation type present iff the field is derived.
func (f *Form) Check() error {
	var errs []error
	seen := make(map[string]bool, len(f.Fields))
	for i, field := range f.Fields {
		switch {
		case field.ID == "":
			errs = append(errs, fmt.Errorf("fields[%d]: id required", i))
		case seen[field.ID]:
			errs = append(errs, fmt.Errorf("fields[%d]: duplicate id %q", i, field.ID))
		}
		seen[field.ID] = true

		if !field.Type.Valid() {
			errs = append(errs, fmt.Errorf("fields[%d]: unknown type %q", i, field.Type))
		}
		if field.IsDerived && !field.CalculationType.Valid() {
			errs = append(errs, fmt.Errorf("fields[%d]: derived field needs a calculation type", i))
		}
		if !field.IsDerived && field.CalculationType != "" {
			errs = append(errs, fmt.Errorf("fields[%d]: calculation type on a non-derived field", i))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidSchema, errors.Join(errs...))
}

func (d *Draft) indexOf(id string) int {
	for i := range d.Fields {
		if d.Fields[i].ID == id {
			return i
		}
	}
	return -1
}
