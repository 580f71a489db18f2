package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEmail_Valid(t *testing.T) {
	valid := []string{
		"user@example.com",
		"user.name+tag@example.co.uk",
		"  padded@example.com  ",
	}
	for _, email := range valid {
		assert.NoError(t, ValidateEmail(email), "email %q", email)
	}
}

func TestValidateEmail_Invalid(t *testing.T) {
	assert.EqualError(t, ValidateEmail(""), "Email is required")
	assert.EqualError(t, ValidateEmail("   "), "Email is required")
	assert.EqualError(t, ValidateEmail("not-an-email"), "Invalid email format")
	assert.EqualError(t, ValidateEmail("user@"), "Invalid email format")

	long := strings.Repeat("a", 250) + "@example.com"
	err := ValidateEmail(long)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at most 254")
}

func TestPasswordPolicy_Defaults(t *testing.T) {
	policy := DefaultPasswordPolicy()

	assert.NoError(t, policy.Validate("abc12345"))

	err := policy.Validate("short")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 8")

	assert.EqualError(t, policy.Validate(""), "Password is required")
}

func TestPasswordPolicy_MaxLength(t *testing.T) {
	policy := DefaultPasswordPolicy()
	err := policy.Validate(strings.Repeat("a", 129))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at most 128")
}

func TestPasswordPolicy_CompositionRules(t *testing.T) {
	policy := PasswordPolicy{
		MinLength:      8,
		RequireUpper:   true,
		RequireLower:   true,
		RequireDigit:   true,
		RequireSpecial: true,
	}

	assert.NoError(t, policy.Validate("Valid123!"))

	err := policy.Validate("valid123!")
	assert.Contains(t, err.Error(), "uppercase")

	err = policy.Validate("VALID123!")
	assert.Contains(t, err.Error(), "lowercase")

	err = policy.Validate("ValidPass!")
	assert.Contains(t, err.Error(), "digit")

	err = policy.Validate("Valid1234")
	assert.Contains(t, err.Error(), "special")
}

func TestPasswordPolicy_ZeroValueGetsLengthDefaults(t *testing.T) {
	var policy PasswordPolicy
	err := policy.Validate("short")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 8")
	assert.NoError(t, policy.Validate("longenoughpwd"))
}
