package common

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

const MinPasswordLength = 8

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// NormalizeEmail lowercases and trims an address before storage or lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ValidateEmail(email string) error {
	if !emailRe.MatchString(email) {
		return fmt.Errorf("%w: invalid email address", ErrValidation)
	}
	return nil
}

// ValidatePassword enforces the account password policy: at least
// MinPasswordLength characters with an upper-case letter, a lower-case
// letter and a digit.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, MinPasswordLength)
	}

	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper || !lower || !digit {
		return fmt.Errorf("%w: password needs upper-case, lower-case and numeric characters", ErrValidation)
	}

	return nil
}
