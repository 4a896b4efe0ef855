package utils

import (
	"unicode"
	"unicode/utf8"
)

// MaxUsernameLength bounds display names accepted from identity providers
const MaxUsernameLength = 64

// ValidateUsername reports whether a provider display name can be used as
// a player username: non-blank, at most MaxUsernameLength runes, no control
// characters or whitespace.
func ValidateUsername(name string) bool {
	if name == "" || !utf8.ValidString(name) {
		return false
	}

	if utf8.RuneCountInString(name) > MaxUsernameLength {
		return false
	}

	for _, r := range name {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return false
		}
	}

	return true
}
