package form

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrValueKind is returned by Coerce for a value the field type cannot hold.
var ErrValueKind = errors.New("value does not fit field type")

// TypeInfo describes what the editor and renderer may offer for a field type.
type TypeInfo struct {
	Type               FieldType `json:"type"`
	InputKind          string    `json:"inputKind"` // HTML-equivalent input kind
	SupportsOptions    bool      `json:"supportsOptions"`
	SupportsDefault    bool      `json:"supportsDefault"`
	SupportsDerivation bool      `json:"supportsDerivation"`
	ValueKind          Kind      `json:"-"`
}

var registry = []TypeInfo{
	{Type: TypeText, InputKind: "text", SupportsDefault: true, SupportsDerivation: true, ValueKind: KindString},
	{Type: TypeNumber, InputKind: "number", SupportsDefault: true, SupportsDerivation: true, ValueKind: KindNumber},
	{Type: TypeTextarea, InputKind: "textarea", SupportsDefault: true, SupportsDerivation: true, ValueKind: KindString},
	{Type: TypeSelect, InputKind: "select", SupportsOptions: true, SupportsDefault: true, ValueKind: KindString},
	{Type: TypeRadio, InputKind: "radio", SupportsOptions: true, SupportsDefault: true, ValueKind: KindString},
	{Type: TypeCheckbox, InputKind: "checkbox", SupportsDefault: true, ValueKind: KindBool},
	{Type: TypeDate, InputKind: "date", SupportsDefault: true, SupportsDerivation: true, ValueKind: KindDate},
}

// FieldTypes returns the palette in display order.
func FieldTypes() []TypeInfo {
	return append([]TypeInfo(nil), registry...)
}

// Lookup returns the registry entry for t.
func Lookup(t FieldType) (TypeInfo, bool) {
	for _, info := range registry {
		if info.Type == t {
			return info, true
		}
	}
	return TypeInfo{}, false
}

// Valid reports whether t is part of the palette.
func (t FieldType) Valid() bool {
	_, ok := Lookup(t)
	return ok
}

// SupportsOptions reports whether fields of type t carry an option list.
func (t FieldType) SupportsOptions() bool {
	info, ok := Lookup(t)
	return ok && info.SupportsOptions
}

// InitialValue is the value a field holds when a session starts: its default,
// or false for checkboxes, or the empty string.
func (f Field) InitialValue() Value {
	if !f.DefaultValue.IsZero() {
		return f.DefaultValue
	}
	if f.Type == TypeCheckbox {
		return BoolValue(false)
	}
	return StringValue("")
}

// Coerce converts a raw input to the kind the field type holds. Text-like
// fields take strings, numbers and dates as text; Number and Date fields
// keep raw text that parses; checkboxes take booleans or "true"/"false".
// None clears the field to its empty value. Anything else is ErrValueKind.
func Coerce(field Field, v Value) (Value, error) {
	info, ok := Lookup(field.Type)
	if !ok {
		return v, nil
	}

	switch info.ValueKind {
	case KindBool:
		if v.IsZero() {
			return BoolValue(false), nil
		}
		if _, ok := v.Bool(); ok {
			return v, nil
		}
		if v.Kind() == KindString {
			if b, err := strconv.ParseBool(strings.TrimSpace(v.Text())); err == nil {
				return BoolValue(b), nil
			}
		}
	case KindString:
		switch v.Kind() {
		case KindNone:
			return StringValue(""), nil
		case KindString:
			return v, nil
		case KindNumber, KindDate:
			return StringValue(v.Text()), nil
		}
	case KindNumber:
		switch v.Kind() {
		case KindNone:
			return StringValue(""), nil
		case KindNumber:
			return v, nil
		case KindString:
			if _, ok := v.AsNumber(); ok || strings.TrimSpace(v.Text()) == "" {
				return v, nil
			}
		}
	case KindDate:
		switch v.Kind() {
		case KindNone:
			return StringValue(""), nil
		case KindDate:
			return v, nil
		case KindString:
			if _, ok := v.AsDate(); ok || strings.TrimSpace(v.Text()) == "" {
				return v, nil
			}
		}
	}
	return None, fmt.Errorf("%w: %s field %q cannot hold %s %q",
		ErrValueKind, field.Type, field.ID, v.Kind(), v.Text())
}
