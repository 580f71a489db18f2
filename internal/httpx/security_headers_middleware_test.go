package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func serveWithHeaders(cfg SecurityHeadersConfig) *httptest.ResponseRecorder {
	handler := SecurityHeaders(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestSecurityHeaders_Defaults(t *testing.T) {
	rec := serveWithHeaders(SecurityHeadersConfig{})

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "1; mode=block", rec.Header().Get("X-XSS-Protection"))
	assert.Equal(t, "strict-origin-when-cross-origin", rec.Header().Get("Referrer-Policy"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
	assert.Empty(t, rec.Header().Get("Content-Security-Policy"))
	assert.Empty(t, rec.Header().Get("Permissions-Policy"))
}

func TestSecurityHeaders_HSTS(t *testing.T) {
	rec := serveWithHeaders(SecurityHeadersConfig{
		EnableHSTS:            true,
		HSTSIncludeSubdomains: true,
	})
	assert.Equal(t, "max-age=31536000; includeSubDomains", rec.Header().Get("Strict-Transport-Security"))

	rec = serveWithHeaders(SecurityHeadersConfig{EnableHSTS: true, HSTSMaxAge: 300})
	assert.Equal(t, "max-age=300", rec.Header().Get("Strict-Transport-Security"))
}

func TestSecurityHeaders_OptionalPolicies(t *testing.T) {
	rec := serveWithHeaders(SecurityHeadersConfig{
		ContentSecurityPolicy: "default-src 'self'",
		PermissionsPolicy:     "geolocation=()",
		XFrameOptions:         "SAMEORIGIN",
		ReferrerPolicy:        "no-referrer",
	})

	assert.Equal(t, "default-src 'self'", rec.Header().Get("Content-Security-Policy"))
	assert.Equal(t, "geolocation=()", rec.Header().Get("Permissions-Policy"))
	assert.Equal(t, "SAMEORIGIN", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-referrer", rec.Header().Get("Referrer-Policy"))
}
