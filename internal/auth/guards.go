package auth

import (
	"net/http"
	"net/url"

	"authcore/internal/httpx"
)

// RequireAuthenticated redirects anonymous requests to the login page with
// a next parameter pointing back at the guarded page, so the user lands
// where they intended after signing in. The next value is only attached
// when it passes the same-origin redirect check.
func RequireAuthenticated(loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if httpx.UserFrom(r) != nil {
				next.ServeHTTP(w, r)
				return
			}

			target := loginPath
			requested := r.URL.Path
			if r.URL.RawQuery != "" {
				requested += "?" + r.URL.RawQuery
			}
			if httpx.IsSafeRedirectURL(requested, nil) {
				target = loginPath + "?next=" + url.QueryEscape(requested)
			}
			http.Redirect(w, r, target, http.StatusSeeOther)
		})
	}
}

// RequireAnonymous sends already-authenticated users to the app instead of
// showing login or signup pages again.
func RequireAnonymous(appPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if httpx.UserFrom(r) != nil {
				http.Redirect(w, r, appPath, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// PostLoginRedirect resolves where to send the user after login: the next
// query parameter when it is a safe target (relative, or on an allowed
// host), the fallback otherwise. Open-redirect attempts degrade silently
// to the fallback.
func PostLoginRedirect(r *http.Request, fallback string, allowedHosts map[string]bool) string {
	return httpx.SafeRedirectURL(r.URL.Query().Get("next"), fallback, allowedHosts)
}
