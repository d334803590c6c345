package validation

import (
	"regexp"
	"strings"
	"unicode"
)

// Same shape the sign-up form checks: something@something.tld
var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func IsValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

// MinPasswordLength matches the auth provider's own minimum.
const MinPasswordLength = 6

// IsValidPassword requires MinPasswordLength characters with at least one
// letter and one digit.
func IsValidPassword(password string) bool {
	if len([]rune(password)) < MinPasswordLength {
		return false
	}
	hasLetter, hasDigit := false, false
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	return hasLetter && hasDigit
}

// IsValidName accepts letters (any script), spaces, hyphens, apostrophes and dots.
func IsValidName(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsSpace(r) || r == '-' || r == '\'' || r == '.' {
			continue
		}
		return false
	}
	return true
}

// NormalizeEmail lowercases and trims an address for lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
