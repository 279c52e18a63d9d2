package form

import (
	"errors"
	"testing"
	"time"
)

func TestFieldTypes(t *testing.T) {
	types := FieldTypes()
	want := []FieldType{TypeText, TypeNumber, TypeTextarea, TypeSelect, TypeRadio, TypeCheckbox, TypeDate}
	if len(types) != len(want) {
		t.Fatalf("got %d types, want %d", len(types), len(want))
	}
	for i, info := range types {
		if info.Type != want[i] {
			t.Errorf("types[%d] = %s, want %s", i, info.Type, want[i])
		}
	}

	types[0].Type = "Mutated"
	if FieldTypes()[0].Type != TypeText {
		t.Error("FieldTypes exposed the registry")
	}
}

func TestSupportsOptions(t *testing.T) {
	for _, info := range FieldTypes() {
		want := info.Type == TypeSelect || info.Type == TypeRadio
		if info.Type.SupportsOptions() != want {
			t.Errorf("%s.SupportsOptions() = %v", info.Type, !want)
		}
	}
	if FieldType("Slider").SupportsOptions() || FieldType("Slider").Valid() {
		t.Error("unknown type reported as supported")
	}
}

func TestInitialValue(t *testing.T) {
	tests := []struct {
		field Field
		want  Value
	}{
		{Field{Type: TypeText}, StringValue("")},
		{Field{Type: TypeCheckbox}, BoolValue(false)},
		{Field{Type: TypeCheckbox, DefaultValue: BoolValue(true)}, BoolValue(true)},
		{Field{Type: TypeNumber, DefaultValue: StringValue("5")}, StringValue("5")},
		{Field{Type: TypeDate}, StringValue("")},
	}
	for _, tt := range tests {
		if got := tt.field.InitialValue(); !got.Equal(tt.want) {
			t.Errorf("%s initial = %#v, want %#v", tt.field.Type, got, tt.want)
		}
	}
}

func TestCoerce(t *testing.T) {
	day := time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		typ     FieldType
		in      Value
		want    Value
		wantErr bool
	}{
		{TypeText, StringValue("hi"), StringValue("hi"), false},
		{TypeText, NumberValue(2.5), StringValue("2.5"), false},
		{TypeTextarea, DateValue(day), StringValue("2024-06-14"), false},
		{TypeSelect, None, StringValue(""), false},
		{TypeText, BoolValue(false), None, true},
		{TypeRadio, BoolValue(true), None, true},

		{TypeNumber, StringValue(" 3 "), StringValue(" 3 "), false},
		{TypeNumber, StringValue(""), StringValue(""), false},
		{TypeNumber, NumberValue(7), NumberValue(7), false},
		{TypeNumber, StringValue("seven"), None, true},
		{TypeNumber, BoolValue(true), None, true},

		{TypeCheckbox, BoolValue(true), BoolValue(true), false},
		{TypeCheckbox, StringValue("false"), BoolValue(false), false},
		{TypeCheckbox, None, BoolValue(false), false},
		{TypeCheckbox, StringValue("on"), None, true},
		{TypeCheckbox, NumberValue(1), None, true},

		{TypeDate, StringValue("2024-06-14"), StringValue("2024-06-14"), false},
		{TypeDate, DateValue(day), DateValue(day), false},
		{TypeDate, StringValue("soon"), None, true},
		{TypeDate, NumberValue(20240614), None, true},

		{FieldType("Slider"), BoolValue(true), BoolValue(true), false},
	}

	for _, tt := range tests {
		field := Field{ID: "f", Type: tt.typ, Label: "F"}
		got, err := Coerce(field, tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrValueKind) {
				t.Errorf("Coerce(%s, %#v) err = %v, want ErrValueKind", tt.typ, tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("Coerce(%s, %#v) failed: %v", tt.typ, tt.in, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("Coerce(%s, %#v) = %#v, want %#v", tt.typ, tt.in, got, tt.want)
		}
	}
}
