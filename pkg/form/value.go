package form

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind tags the payload carried by a Value.
type Kind uint8

const (
	KindNone Kind = iota // not set (distinguishes "unknown" from "zero")
	KindString
	KindNumber
	KindBool
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	case KindDate:
		return "date"
	default:
		return "none"
	}
}

// Value is a tagged union over the payloads a field can hold.
// The zero Value is KindNone.
type Value struct {
	kind Kind
	str  string
	num  float64
	flag bool
	date time.Time
}

// None is the absent value.
var None = Value{}

// StringValue wraps s.
func StringValue(s string) Value { return Value{kind: KindString, str: s} }

// NumberValue wraps n.
func NumberValue(n float64) Value { return Value{kind: KindNumber, num: n} }

// BoolValue wraps b.
func BoolValue(b bool) Value { return Value{kind: KindBool, flag: b} }

// DateValue wraps the calendar day of t.
func DateValue(t time.Time) Value { return Value{kind: KindDate, date: dayOf(t)} }

// Kind returns the payload tag.
func (v Value) Kind() Kind { return v.kind }

// IsZero reports whether the value is absent.
func (v Value) IsZero() bool { return v.kind == KindNone }

func (v Value) String() string { return v.Text() }

func (v Value) GoString() string {
	return fmt.Sprintf("form.Value{%s:%q}", v.kind, v.Text())
}

// Bool returns the boolean payload and whether the value is a boolean.
func (v Value) Bool() (bool, bool) { return v.flag, v.kind == KindBool }

// IsEmpty reports whether the value counts as "not entered": absent or the
// empty string. Booleans are never empty.
func (v Value) IsEmpty() bool {
	return v.kind == KindNone || (v.kind == KindString && v.str == "")
}

// Text renders the value as display text.
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.flag)
	case KindDate:
		return v.date.Format(dateLayout)
	default:
		return ""
	}
}

// AsNumber coerces the value to a number. Strings are trimmed and parsed;
// an empty or non-numeric string is not a number.
func (v Value) AsNumber() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindString:
		s := strings.TrimSpace(v.str)
		if s == "" {
			return 0, false
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// AsDate coerces the value to a calendar date.
func (v Value) AsDate() (time.Time, bool) {
	switch v.kind {
	case KindDate:
		return v.date, true
	case KindString:
		return parseDate(strings.TrimSpace(v.str))
	default:
		return time.Time{}, false
	}
}

// Equal reports whether both values have the same kind and payload.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == other.str
	case KindNumber:
		return v.num == other.num
	case KindBool:
		return v.flag == other.flag
	case KindDate:
		return v.date.Equal(other.date)
	default:
		return true
	}
}

// MarshalJSON encodes the payload directly: null, string, number, bool,
// or a YYYY-MM-DD string for dates.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.flag)
	case KindDate:
		return json.Marshal(v.date.Format(dateLayout))
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts null, strings, numbers and booleans.
// Strings stay strings; dates are recognised at the derivation boundary.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = None
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("value: %w", err)
		}
		*v = StringValue(s)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return fmt.Errorf("value: %w", err)
		}
		*v = BoolValue(b)
	default:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("value: unsupported payload %s", data)
		}
		*v = NumberValue(n)
	}
	return nil
}

// Snapshot maps field ids to their current values for one rendering session.
type Snapshot map[string]Value

// Get returns the value for id, or None.
func (s Snapshot) Get(id string) Value {
	if s == nil {
		return None
	}
	return s[id]
}

// Clone returns an independent copy.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
