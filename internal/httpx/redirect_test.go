package httpx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSafeRedirectURL_RelativePaths(t *testing.T) {
	assert.True(t, IsSafeRedirectURL("/x", nil))
	assert.True(t, IsSafeRedirectURL("/dashboard?tab=1", nil))
	assert.True(t, IsSafeRedirectURL("relative/path", nil))
	assert.True(t, IsSafeRedirectURL("  /padded  ", nil))
}

func TestIsSafeRedirectURL_RejectsEmpty(t *testing.T) {
	assert.False(t, IsSafeRedirectURL("", nil))
	assert.False(t, IsSafeRedirectURL("   ", nil))
}

func TestIsSafeRedirectURL_RejectsProtocolRelative(t *testing.T) {
	assert.False(t, IsSafeRedirectURL("//evil.com", nil))
	assert.False(t, IsSafeRedirectURL("//evil.com/path", nil))
	assert.False(t, IsSafeRedirectURL("//evil.com", map[string]bool{"evil.com": true}))
}

func TestIsSafeRedirectURL_RejectsAbsoluteWithoutAllowList(t *testing.T) {
	assert.False(t, IsSafeRedirectURL("https://evil.com", nil))
	assert.False(t, IsSafeRedirectURL("http://evil.com/steal", nil))
}

func TestIsSafeRedirectURL_AllowList(t *testing.T) {
	allowed := map[string]bool{"good.com": true}

	assert.True(t, IsSafeRedirectURL("https://good.com", allowed))
	assert.True(t, IsSafeRedirectURL("https://GOOD.com/home", allowed))
	assert.True(t, IsSafeRedirectURL("https://good.com:8443/home", allowed))
	assert.False(t, IsSafeRedirectURL("https://evil.com", allowed))
}

func TestIsSafeRedirectURL_RejectsCredentials(t *testing.T) {
	allowed := map[string]bool{"good.com": true}
	assert.False(t, IsSafeRedirectURL("https://u:p@good.com", allowed))
	assert.False(t, IsSafeRedirectURL("https://u@good.com", allowed))
}

func TestIsSafeRedirectURL_RejectsDangerousSchemes(t *testing.T) {
	assert.False(t, IsSafeRedirectURL("javascript:alert(1)", nil))
	assert.False(t, IsSafeRedirectURL("data:text/html,x", nil))
}

func TestSafeRedirectURL_Fallback(t *testing.T) {
	assert.Equal(t, "/dashboard", SafeRedirectURL("/dashboard", "/", nil))
	assert.Equal(t, "/home", SafeRedirectURL("https://evil.com", "/home", nil))
	assert.Equal(t, "/", SafeRedirectURL("", "/", nil))
}
