package form

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/require"
)

func intp(n int) *int { return &n }

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		field Field
		value Value
		want  []string
	}{
		{
			name:  "no rules",
			field: Field{Type: TypeText},
			value: StringValue("anything"),
			want:  []string{},
		},
		{
			name:  "required empty",
			field: Field{Type: TypeText, Validations: Rules{Required: true}},
			value: StringValue(""),
			want:  []string{MsgRequired},
		},
		{
			name:  "required absent",
			field: Field{Type: TypeNumber, Validations: Rules{Required: true}},
			value: None,
			want:  []string{MsgRequired},
		},
		{
			name:  "required whitespace counts as entered",
			field: Field{Type: TypeText, Validations: Rules{Required: true}},
			value: StringValue(" "),
			want:  []string{},
		},
		{
			name:  "optional empty skips other rules",
			field: Field{Type: TypeText, Validations: Rules{MinLength: intp(3), IsEmail: true, CustomPassword: true}},
			value: StringValue(""),
			want:  []string{},
		},
		{
			name:  "required empty still reports the other rules",
			field: Field{Type: TypeText, Validations: Rules{Required: true, MinLength: intp(3), IsEmail: true}},
			value: StringValue(""),
			want:  []string{MsgRequired, "Minimum length is 3", MsgEmail},
		},
		{
			name:  "min length",
			field: Field{Type: TypeText, Validations: Rules{MinLength: intp(5)}},
			value: StringValue("abcd"),
			want:  []string{"Minimum length is 5"},
		},
		{
			name:  "max length",
			field: Field{Type: TypeTextarea, Validations: Rules{MaxLength: intp(3)}},
			value: StringValue("abcd"),
			want:  []string{"Maximum length is 3"},
		},
		{
			name:  "length counts runes",
			field: Field{Type: TypeText, Validations: Rules{MaxLength: intp(4)}},
			value: StringValue("żółw"),
			want:  []string{},
		},
		{
			name:  "zero thresholds are ignored",
			field: Field{Type: TypeText, Validations: Rules{MinLength: intp(0), MaxLength: intp(0)}},
			value: StringValue("abc"),
			want:  []string{},
		},
		{
			name:  "email ok",
			field: Field{Type: TypeText, Validations: Rules{IsEmail: true}},
			value: StringValue("ada@example.com"),
			want:  []string{},
		},
		{
			name:  "email is permissive",
			field: Field{Type: TypeText, Validations: Rules{IsEmail: true}},
			value: StringValue("a@b"),
			want:  []string{},
		},
		{
			name:  "email with space",
			field: Field{Type: TypeText, Validations: Rules{IsEmail: true}},
			value: StringValue("ada @example.com"),
			want:  []string{MsgEmail},
		},
		{
			name:  "email missing at",
			field: Field{Type: TypeText, Validations: Rules{IsEmail: true}},
			value: StringValue("example.com"),
			want:  []string{MsgEmail},
		},
		{
			name:  "password ok",
			field: Field{Type: TypeText, Validations: Rules{CustomPassword: true}},
			value: StringValue("hunter22"),
			want:  []string{},
		},
		{
			name:  "password too short",
			field: Field{Type: TypeText, Validations: Rules{CustomPassword: true}},
			value: StringValue("abc1"),
			want:  []string{MsgPassword},
		},
		{
			name:  "password without digit",
			field: Field{Type: TypeText, Validations: Rules{CustomPassword: true}},
			value: StringValue("abcdefgh"),
			want:  []string{MsgPassword},
		},
		{
			name:  "all failures in rule order",
			field: Field{Type: TypeText, Validations: Rules{MinLength: intp(10), MaxLength: intp(2), IsEmail: true, CustomPassword: true}},
			value: StringValue("abc"),
			want:  []string{"Minimum length is 10", "Maximum length is 2", MsgEmail, MsgPassword},
		},
		{
			name:  "numbers validate as text",
			field: Field{Type: TypeNumber, Validations: Rules{MaxLength: intp(2)}},
			value: NumberValue(1234),
			want:  []string{"Maximum length is 2"},
		},
		{
			name:  "unticked required checkbox passes",
			field: Field{Type: TypeCheckbox, Validations: Rules{Required: true}},
			value: BoolValue(false),
			want:  []string{},
		},
		{
			name:  "checkbox ignores text rules",
			field: Field{Type: TypeCheckbox, Validations: Rules{MinLength: intp(20), IsEmail: true}},
			value: BoolValue(true),
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Validate(tt.field, tt.value))
		})
	}
}

func TestValidateAll(t *testing.T) {
	f := &Form{Fields: []Field{
		{ID: "email", Type: TypeText, Validations: Rules{Required: true, IsEmail: true}},
		{ID: "nick", Type: TypeText, Validations: Rules{MaxLength: intp(4)}},
		{ID: "ok", Type: TypeText},
	}}

	got := ValidateAll(f, Snapshot{"email": StringValue("nope"), "nick": StringValue("bob")})

	require.Equal(t, map[string][]string{"email": {MsgEmail}}, got)
}

// oracle restates the rules directly over plain inputs.
func oracle(text string, absent bool, r Rules) []string {
	out := []string{}
	empty := absent || text == ""
	if empty && !r.Required {
		return out
	}
	if empty {
		out = append(out, MsgRequired)
	}
	n := utf8.RuneCountInString(text)
	if r.MinLength != nil && *r.MinLength > 0 && n < *r.MinLength {
		out = append(out, fmt.Sprintf("Minimum length is %d", *r.MinLength))
	}
	if r.MaxLength != nil && *r.MaxLength > 0 && n > *r.MaxLength {
		out = append(out, fmt.Sprintf("Maximum length is %d", *r.MaxLength))
	}
	if r.IsEmail {
		ok := len(text) >= 3 && strings.Contains(text[1:len(text)-1], "@") &&
			!strings.ContainsAny(text, " \t\n\r\f")
		if !ok {
			out = append(out, MsgEmail)
		}
	}
	if r.CustomPassword && (n < 8 || !strings.ContainsAny(text, "0123456789")) {
		out = append(out, MsgPassword)
	}
	return out
}

func TestValidateMatchesOracle(t *testing.T) {
	type input struct {
		Text     string
		Absent   bool
		Required bool
		Min, Max int8
		Email    bool
		Password bool
	}

	alphabet := []rune("ab1 @.xyz9")
	f := fuzz.New().NilChance(0).Funcs(func(s *string, c fuzz.Continue) {
		n := c.Intn(14)
		runes := make([]rune, n)
		for i := range runes {
			runes[i] = alphabet[c.Intn(len(alphabet))]
		}
		*s = string(runes)
	})

	var in input
	for i := 0; i < 5000; i++ {
		f.Fuzz(&in)

		rules := Rules{Required: in.Required, IsEmail: in.Email, CustomPassword: in.Password}
		if in.Min != 0 {
			rules.MinLength = intp(int(in.Min) % 12)
		}
		if in.Max != 0 {
			rules.MaxLength = intp(int(in.Max) % 12)
		}
		value := StringValue(in.Text)
		if in.Absent {
			value = None
		}

		got := Validate(Field{Type: TypeText, Validations: rules}, value)
		require.Equal(t, oracle(in.Text, in.Absent, rules), got, "input %+v", in)
	}
}
