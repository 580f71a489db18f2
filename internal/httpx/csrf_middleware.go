package httpx

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"authcore/internal/audit"
)

// CSRF wire contract.
const (
	CSRFCookieName = "csrf_token"
	CSRFHeaderName = "X-CSRF-Token"
	CSRFFormField  = "csrf_token"

	csrfTokenBytes   = 32
	csrfCookieMaxAge = 24 * time.Hour
)

// CSRF implements double-submit-cookie protection. The cookie carries
// "value.signature" where signature = HMAC-SHA256(secret, value); the
// server verifies without storing anything. Mutating requests must echo
// the unsigned value in the X-CSRF-Token header or a csrf_token form field.
type CSRF struct {
	secret       []byte
	exemptPaths  []string
	cookieSecure bool
}

// CSRFOptions configures exemptions (path prefixes, e.g. "/api/" for
// Bearer-authenticated routes) and the cookie Secure flag.
type CSRFOptions struct {
	ExemptPaths  []string
	CookieSecure bool
}

func NewCSRF(secret string, opts CSRFOptions) (*CSRF, error) {
	if secret == "" {
		return nil, fmt.Errorf("csrf: server secret is required")
	}
	return &CSRF{
		secret:       []byte(secret),
		exemptPaths:  opts.ExemptPaths,
		cookieSecure: opts.CookieSecure,
	}, nil
}

func (c *CSRF) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, signed := c.tokenFromCookie(r)
		if token == "" {
			var err error
			token, signed, err = c.mintToken()
			if err != nil {
				JSONError(w, http.StatusInternalServerError, "Failed to issue CSRF token")
				return
			}
		}

		// Expose the unsigned value to handlers and templates for every
		// method, not just mutating ones.
		r = r.WithContext(ContextWithCSRFToken(r.Context(), token))

		if isMutating(r.Method) && !c.isExempt(r.URL.Path) {
			submitted := submittedToken(r)
			if submitted == "" || !constantTimeEquals(token, submitted) {
				audit.Log(audit.CSRFRejected, audit.Record{
					IP:     ClientIP(r),
					Detail: r.Method + " " + r.URL.Path,
				})
				JSONError(w, http.StatusForbidden, "CSRF token validation failed")
				return
			}
		}

		// Refresh the cookie so value and signature survive across
		// requests. Headers must be written before the handler's body.
		c.setCookie(w, signed)

		next.ServeHTTP(w, r)
	})
}

// tokenFromCookie validates the presented cookie and returns the unsigned
// value plus the full signed form, or empty strings when the cookie is
// missing, malformed, or carries a bad signature.
func (c *CSRF) tokenFromCookie(r *http.Request) (token, signed string) {
	cookie, err := r.Cookie(CSRFCookieName)
	if err != nil || cookie.Value == "" {
		return "", ""
	}

	dot := strings.LastIndex(cookie.Value, ".")
	if dot <= 0 || dot == len(cookie.Value)-1 {
		return "", ""
	}

	value, signature := cookie.Value[:dot], cookie.Value[dot+1:]
	if !constantTimeEquals(c.sign(value), signature) {
		return "", ""
	}
	return value, cookie.Value
}

func (c *CSRF) mintToken() (token, signed string, err error) {
	b := make([]byte, csrfTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", "", fmt.Errorf("csrf: generate token: %w", err)
	}
	token = base64.RawURLEncoding.EncodeToString(b)
	return token, token + "." + c.sign(token), nil
}

func (c *CSRF) sign(value string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(value))
	return hex.EncodeToString(mac.Sum(nil))
}

func (c *CSRF) setCookie(w http.ResponseWriter, signed string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(csrfCookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.cookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (c *CSRF) isExempt(path string) bool {
	for _, exempt := range c.exemptPaths {
		if strings.HasPrefix(path, exempt) {
			return true
		}
	}
	return false
}

// submittedToken extracts the client's echoed token: header first, then a
// form field for url-encoded and multipart bodies.
func submittedToken(r *http.Request) string {
	if header := r.Header.Get(CSRFHeaderName); header != "" {
		return header
	}

	contentType := r.Header.Get("Content-Type")
	switch {
	case strings.Contains(contentType, "application/x-www-form-urlencoded"):
		if err := r.ParseForm(); err != nil {
			return ""
		}
		return r.PostFormValue(CSRFFormField)
	case strings.Contains(contentType, "multipart/form-data"):
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			return ""
		}
		return r.PostFormValue(CSRFFormField)
	}
	return ""
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
		return true
	default:
		return false
	}
}

func constantTimeEquals(a, b string) bool {
	return hmac.Equal([]byte(a), []byte(b))
}
