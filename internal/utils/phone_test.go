package utils

import "testing"

func TestIsValidPhone(t *testing.T) {
	tests := []struct {
		name     string
		phone    string
		expected bool
	}{
		{"e164", "+14805551234", true},
		{"bare ten digits", "4805551234", true},
		{"formatted", "(480) 555-1234", true},
		{"dashed", "480-555-1234", true},
		{"dotted", "480.555.1234", true},
		{"leading one", "14805551234", true},
		{"too short", "555123", false},
		{"too long", "+1480555123456", false},
		{"letters", "480555ABCD", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidPhone(tt.phone); got != tt.expected {
				t.Errorf("IsValidPhone(%q) = %v, expected %v", tt.phone, got, tt.expected)
			}
		})
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name     string
		phone    string
		expected string
	}{
		{"ten digits", "4805551234", "+14805551234"},
		{"formatted", "(480) 555-1234", "+14805551234"},
		{"eleven with one", "14805551234", "+14805551234"},
		{"already e164", "+14805551234", "+14805551234"},
		{"unrecognized left alone", "12345", "12345"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizePhone(tt.phone); got != tt.expected {
				t.Errorf("NormalizePhone(%q) = %q, expected %q", tt.phone, got, tt.expected)
			}
		})
	}
}
