// Package normalizer turns raw document and phone numbers into canonical
// comparable forms. All functions are pure and total.
package normalizer

import "strings"

const subscriberDigits = 9

// Document strips every non-digit character from a raw document number
// (CPF/CNPJ). Empty input yields an empty string, which callers treat as
// an absent key.
func Document(raw string) string {
	return digitsOnly(raw)
}

// Phone strips non-digits and keeps the last 9 digits, the local
// subscriber number, discarding area and country code noise. Shorter
// inputs pass through unchanged.
func Phone(raw string) string {
	digits := digitsOnly(raw)
	if len(digits) <= subscriberDigits {
		return digits
	}
	return digits[len(digits)-subscriberDigits:]
}

func digitsOnly(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
