package auth

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

const maxEmailLength = 254 // RFC 5321

// ValidateEmail checks format and length. Callers lowercase before storage;
// validation itself is case-insensitive.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return errors.New("Email is required")
	}
	if len(email) > maxEmailLength {
		return fmt.Errorf("Email must be at most %d characters", maxEmailLength)
	}
	if err := validate.Var(email, "email"); err != nil {
		return errors.New("Invalid email format")
	}
	return nil
}

// PasswordPolicy is a configurable password rule set. The zero value gets
// NIST-style defaults from DefaultPasswordPolicy: length bounds only, no
// composition rules.
type PasswordPolicy struct {
	MinLength      int
	MaxLength      int
	RequireUpper   bool
	RequireLower   bool
	RequireDigit   bool
	RequireSpecial bool
}

func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{MinLength: 8, MaxLength: 128}
}

const specialChars = "!@#$%^&*()_+-=[]{}|;':\",./<>?`~"

// Validate checks a password against the policy and returns a user-facing
// error describing the first violated rule.
func (p PasswordPolicy) Validate(password string) error {
	if p.MinLength <= 0 {
		p.MinLength = 8
	}
	if p.MaxLength <= 0 {
		p.MaxLength = 128
	}

	if password == "" {
		return errors.New("Password is required")
	}
	if len(password) < p.MinLength {
		return fmt.Errorf("Password must be at least %d characters", p.MinLength)
	}
	if len(password) > p.MaxLength {
		return fmt.Errorf("Password must be at most %d characters", p.MaxLength)
	}

	if p.RequireUpper && !strings.ContainsFunc(password, unicode.IsUpper) {
		return errors.New("Password must contain at least one uppercase letter")
	}
	if p.RequireLower && !strings.ContainsFunc(password, unicode.IsLower) {
		return errors.New("Password must contain at least one lowercase letter")
	}
	if p.RequireDigit && !strings.ContainsFunc(password, unicode.IsDigit) {
		return errors.New("Password must contain at least one digit")
	}
	if p.RequireSpecial && !strings.ContainsAny(password, specialChars) {
		return errors.New("Password must contain at least one special character")
	}
	return nil
}
