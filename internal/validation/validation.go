package validation

import "strings"

type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

func MinLen(field, value string, minLen int, v Violations) {
	if len(value) < minLen {
		v[field] = "too_short"
	}
}

func PositiveInt(field string, val int, v Violations) {
	if val <= 0 {
		v[field] = "must_be_positive"
	}
}

func PositiveFloat(field string, val float64, v Violations) {
	if val <= 0 {
		v[field] = "must_be_positive"
	}
}

// Email checks the bare minimum shape: one "@" with a non-empty local and
// domain part. Full RFC validation is left to the mail delivery path.
func Email(field, value string, v Violations) {
	at := strings.LastIndex(value, "@")
	if at <= 0 || at == len(value)-1 {
		v[field] = "invalid_email"
	}
}
