package utils

import (
	"regexp"
	"strings"
)

var phonePattern = regexp.MustCompile(`^\+?1?[0-9]{10}$`)

// cleanPhone strips formatting characters: spaces, dashes, dots, parens.
func cleanPhone(phone string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')', '.':
			return -1
		}
		return r
	}, phone)
}

// IsValidPhone reports whether the input is a plausible US phone number.
// Accepts formats like +12345678901, (123) 456-7890, 123-456-7890.
func IsValidPhone(phone string) bool {
	if phone == "" {
		return false
	}
	return phonePattern.MatchString(cleanPhone(phone))
}

// NormalizePhone formats a phone number to E.164 (+1XXXXXXXXXX) where
// possible; inputs it cannot interpret are returned unchanged.
func NormalizePhone(phone string) string {
	if phone == "" {
		return ""
	}
	cleaned := cleanPhone(phone)

	switch {
	case len(cleaned) == 10:
		return "+1" + cleaned
	case len(cleaned) == 11 && strings.HasPrefix(cleaned, "1"):
		return "+" + cleaned
	case strings.HasPrefix(cleaned, "+"):
		return cleaned
	}
	return phone
}
