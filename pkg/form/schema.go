// Package form provides the schema model and evaluation core for dynamic forms.
// It handles field configuration, per-field validation, label-based source
// resolution and derived-value computation over a live value snapshot.
package form

import "time"

// FieldType is the closed set of field kinds a form can be built from.
type FieldType string

const (
	TypeText     FieldType = "Text"
	TypeNumber   FieldType = "Number"
	TypeTextarea FieldType = "Textarea"
	TypeSelect   FieldType = "Select"
	TypeRadio    FieldType = "Radio"
	TypeCheckbox FieldType = "Checkbox"
	TypeDate     FieldType = "Date"
)

// CalculationType selects the formula used by a derived field.
type CalculationType string

const (
	CalcAge               CalculationType = "Age"
	CalcFullName          CalculationType = "FullName"
	CalcTotalCost         CalculationType = "TotalCost"
	CalcBMI               CalculationType = "BMI"
	CalcDaysUntilEvent    CalculationType = "DaysUntilEvent"
	CalcEligibilityStatus CalculationType = "EligibilityStatus"
)

// CalculationTypes lists every calculation type in declaration order.
var CalculationTypes = []CalculationType{
	CalcAge, CalcFullName, CalcTotalCost, CalcBMI, CalcDaysUntilEvent, CalcEligibilityStatus,
}

// Valid reports whether c is a known calculation type.
func (c CalculationType) Valid() bool {
	for _, known := range CalculationTypes {
		if c == known {
			return true
		}
	}
	return false
}

// PlaceholderName is the name a fresh draft starts with. It must be replaced
// before the draft can be persisted.
const PlaceholderName = "Untitled Form"

// Rules holds the validation flags of a field. All rules are optional and
// independently combinable. Length thresholds are ignored unless positive.
type Rules struct {
	Required       bool `json:"required,omitempty"`
	MinLength      *int `json:"minLength,omitempty"`
	MaxLength      *int `json:"maxLength,omitempty"`
	IsEmail        bool `json:"isEmail,omitempty"`
	CustomPassword bool `json:"customPassword,omitempty"`
}

// Field is one configurable input unit within a form.
// ID is assigned at creation and never reused.
type Field struct {
	ID              string          `json:"id"`
	Type            FieldType       `json:"type"`
	Label           string          `json:"label"`
	DefaultValue    Value           `json:"defaultValue,omitzero"`
	Options         []string        `json:"options,omitempty"` // Select and Radio only
	Validations     Rules           `json:"validations"`
	IsDerived       bool            `json:"isDerived"`
	CalculationType CalculationType `json:"calculationType,omitempty"` // set iff IsDerived
}

// Form is a persisted, immutable form record. Field order is both edit order
// and render order.
type Form struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	Fields    []Field   `json:"fields"`
}

// Draft is an in-progress form owned by one editing session.
// It has no id or creation time until it is saved.
type Draft struct {
	Name   string  `json:"name"`
	Fields []Field `json:"fields"`
}

// FieldByID returns the field with the given id.
func (f *Form) FieldByID(id string) (Field, bool) {
	for _, field := range f.Fields {
		if field.ID == id {
			return field, true
		}
	}
	return Field{}, false
}

// Clone returns a deep copy of the form so callers can hand it out without
// sharing option or rule storage.
func (f Form) Clone() Form {
	f.Fields = cloneFields(f.Fields)
	return f
}

func cloneFields(fields []Field) []Field {
	if fields == nil {
		return nil
	}
	out := make([]Field, len(fields))
	for i, field := range fields {
		out[i] = field.clone()
	}
	return out
}

func (f Field) clone() Field {
	if f.Options != nil {
		f.Options = append([]string(nil), f.Options...)
	}
	if f.Validations.MinLength != nil {
		n := *f.Validations.MinLength
		f.Validations.MinLength = &n
	}
	if f.Validations.MaxLength != nil {
		n := *f.Validations.MaxLength
		f.Validations.MaxLength = &n
	}
	return f
}
