package httpx

import (
	"net/url"
	"strings"
)

// IsSafeRedirectURL reports whether a redirect target is safe against open
// redirect attacks. A URL is safe if it is relative (no host) with an
// empty/http/https scheme, or if its port-stripped lowercased host appears
// in allowedHosts. With no allow-list, any URL carrying a host is unsafe.
func IsSafeRedirectURL(rawURL string, allowedHosts map[string]bool) bool {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return false
	}

	// Protocol-relative URLs resolve against the attacker's host.
	if strings.HasPrefix(rawURL, "//") {
		return false
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	// Embedded credentials are only ever used for confusion attacks.
	if u.User != nil {
		return false
	}

	if u.Host == "" {
		switch strings.ToLower(u.Scheme) {
		case "", "http", "https":
			return true
		default:
			return false
		}
	}

	return allowedHosts[strings.ToLower(u.Hostname())]
}

// SafeRedirectURL returns rawURL when it validates, else the fallback.
func SafeRedirectURL(rawURL, fallback string, allowedHosts map[string]bool) string {
	if IsSafeRedirectURL(rawURL, allowedHosts) {
		return rawURL
	}
	return fallback
}
