package validator

import (
	"reflect"
	"strings"
	"unicode"
)

// fieldName reports a struct field under its JSON name so error keys line up
// with request bodies. Untagged fields fall back to lower snake case.
func fieldName(fld reflect.StructField) string {
	if name, _, _ := strings.Cut(fld.Tag.Get("json"), ","); name != "" && name != "-" {
		return name
	}
	return lowerSnake(fld.Name)
}

// lowerSnake splits on lower-to-upper transitions and on the last capital of
// an acronym: SessionID -> session_id, OTPCode -> otp_code.
func lowerSnake(s string) string {
	runes := []rune(s)

	var b strings.Builder
	b.Grow(len(s) + 4)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			acronymEnd := unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || acronymEnd {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
