package form

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

// Failure messages shown next to a field.
const (
	MsgRequired = "This field is required"
	MsgEmail    = "Invalid email address"
	MsgPassword = "Password must be at least 8 characters and contain a number"
)

var (
	emailPattern = regexp.MustCompile(`(?i)^\S+@\S+$`)
	digitPattern = regexp.MustCompile(`\d`)
)

const minPasswordLength = 8

// Validate checks value against the field's rules and returns the failures in
// rule order: required, minLength, maxLength, isEmail, customPassword.
// An empty result means the value is valid.
//
// Checkbox fields carry no textual rules and are exempt from required: an
// unticked box is a valid answer. An empty value on a field that is not
// required passes every rule.
func Validate(field Field, value Value) []string {
	rules := field.Validations
	failures := make([]string, 0)

	if field.Type == TypeCheckbox {
		return failures
	}

	empty := value.IsEmpty()
	if empty && !rules.Required {
		return failures
	}
	if empty {
		failures = append(failures, MsgRequired)
	}

	text := value.Text()
	length := utf8.RuneCountInString(text)

	if n, ok := threshold(rules.MinLength); ok && length < n {
		failures = append(failures, fmt.Sprintf("Minimum length is %d", n))
	}
	if n, ok := threshold(rules.MaxLength); ok && length > n {
		failures = append(failures, fmt.Sprintf("Maximum length is %d", n))
	}
	if rules.IsEmail && !emailPattern.MatchString(text) {
		failures = append(failures, MsgEmail)
	}
	if rules.CustomPassword && (length < minPasswordLength || !digitPattern.MatchString(text)) {
		failures = append(failures, MsgPassword)
	}

	return failures
}

// ValidateAll runs Validate over every field in form order and returns the
// failing fields only.
func ValidateAll(f *Form, values Snapshot) map[string][]string {
	failures := make(map[string][]string)
	for _, field := range f.Fields {
		if msgs := Validate(field, values.Get(field.ID)); len(msgs) > 0 {
			failures[field.ID] = msgs
		}
	}
	return failures
}

func threshold(n *int) (int, bool) {
	if n == nil || *n <= 0 {
		return 0, false
	}
	return *n, true
}
