package form

import "strings"

// Needles are the fixed label fragments each formula searches for.
const (
	NeedleDateOfBirth = "date of birth"
	NeedleFirstName   = "first name"
	NeedleLastName    = "last name"
	NeedleQuantity    = "quantity"
	NeedleUnitPrice   = "unit price"
	NeedleWeight      = "weight (kg)"
	NeedleHeight      = "height (m)"
	NeedleEventDate   = "event date"
	NeedleAge         = "age"
)

// Resolve returns the first field, in form order, whose label contains needle
// case-insensitively. Ties are broken by field order, not by match quality.
func Resolve(fields []Field, needle string) (Field, bool) {
	needle = strings.ToLower(needle)
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field.Label), needle) {
			return field, true
		}
	}
	return Field{}, false
}

// lookup reads the current value of the field matching needle.
// An unresolved needle reads as None.
func (e *Engine) lookup(snap Snapshot, needle string) Value {
	field, ok := Resolve(e.form.Fields, needle)
	if !ok {
		return None
	}
	return snap.Get(field.ID)
}
