// Package phone provides phone number utilities shared by the dialer and the
// reconciliation matchers. No business logic here.
package phone

import (
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// defaultRegion is used to interpret numbers uploaded without a country code.
const defaultRegion = "IN"

var e164Pattern = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)

// NormalizeE164 formats a phone number to E.164 for dialing. If parsing
// fails, it returns the trimmed input unchanged.
func NormalizeE164(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, defaultRegion)
	if err != nil {
		return trimmed
	}
	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}
	return phonenumbers.Format(number, phonenumbers.E164)
}

// Valid reports whether the number, after normalization, is a dialable E.164
// number.
func Valid(input string) bool {
	return e164Pattern.MatchString(NormalizeE164(input))
}

// MatchKey reduces a phone number to a comparable form: every character is
// stripped except digits and a leading '+'. Leads arrive in mixed formats
// (raw digits, E.164, provider-formatted) and webhook payloads differ again,
// so equality is checked on this reduced form.
func MatchKey(input string) string {
	var b strings.Builder
	for i, r := range input {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			continue
		}
		if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SameNumber reports whether two phone numbers refer to the same line under
// the reduced-form comparison, with exact string equality as a fallback.
func SameNumber(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	ka, kb := MatchKey(a), MatchKey(b)
	if ka == "" || kb == "" {
		return false
	}
	if ka == kb {
		return true
	}
	// "+14155550100" and "4155550100" should still match when one side was
	// stored without the country prefix.
	return strings.TrimPrefix(ka, "+") == strings.TrimPrefix(kb, "+") ||
		strings.HasSuffix(strings.TrimPrefix(ka, "+"), strings.TrimPrefix(kb, "+")) && len(strings.TrimPrefix(kb, "+")) >= 10 ||
		strings.HasSuffix(strings.TrimPrefix(kb, "+"), strings.TrimPrefix(ka, "+")) && len(strings.TrimPrefix(ka, "+")) >= 10
}
