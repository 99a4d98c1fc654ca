package callcenter

import (
	"strings"
	"unicode"
)

// NormalizeMobile strips spacing and punctuation and keeps an optional
// leading '+'. ok is false unless 10 to 15 digits remain.
func NormalizeMobile(s string) (string, bool) {
	s = strings.TrimSpace(s)
	var b strings.Builder
	for i, r := range s {
		switch {
		case unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
		default:
			return "", false
		}
	}
	out := b.String()
	digits := len(strings.TrimPrefix(out, "+"))
	if digits < 10 || digits > 15 {
		return "", false
	}
	return out, true
}

// validOTP accepts 4 to 8 ASCII digits.
func validOTP(s string) bool {
	if len(s) < 4 || len(s) > 8 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func normalizeSearch(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
