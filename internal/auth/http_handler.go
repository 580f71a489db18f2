package auth

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"

	"authcore/internal/audit"
	"authcore/internal/httpx"
	"authcore/internal/session"
)

// Handler exposes the account use cases over form-based HTTP. Failures
// redirect back to the form with an error code in the query string; the
// handlers never echo submitted credentials.
type Handler struct {
	svc      *Service
	sessions *session.Manager

	loginPath    string
	appPath      string
	allowedHosts map[string]bool
}

func NewHandler(svc *Service, sessions *session.Manager, loginPath, appPath string, allowedHosts map[string]bool) *Handler {
	return &Handler{
		svc:          svc,
		sessions:     sessions,
		loginPath:    loginPath,
		appPath:      appPath,
		allowedHosts: allowedHosts,
	}
}

// requestSecure reports whether the request arrived over TLS. Cookie Secure
// flags follow the scheme instead of being hardcoded.
func requestSecure(r *http.Request) bool {
	return r.TLS != nil
}

func redirectWithError(w http.ResponseWriter, r *http.Request, path, code, msg string) {
	target := path + "?e=" + url.QueryEscape(code)
	if msg != "" {
		target += "&msg=" + url.QueryEscape(msg)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// Login handles POST /login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		redirectWithError(w, r, h.loginPath, "badcreds", "")
		return
	}

	prior, _ := session.TokenFromRequest(r)
	remember := r.PostFormValue("remember") != ""

	_, token, err := h.svc.Login(r.Context(), LoginParams{
		Email:      r.PostFormValue("email"),
		Password:   r.PostFormValue("password"),
		Remember:   remember,
		IPAddress:  httpx.ClientIP(r),
		UserAgent:  r.UserAgent(),
		PriorToken: prior,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			redirectWithError(w, r, h.loginPath, "badcreds", "")
			return
		}
		log.Printf("auth login error=%v", err)
		httpx.JSONError(w, http.StatusInternalServerError, "An internal error occurred")
		return
	}

	h.sessions.SetCookie(w, token, remember, requestSecure(r))
	http.Redirect(w, r, PostLoginRedirect(r, h.appPath, h.allowedHosts), http.StatusSeeOther)
}

// Register handles POST /register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		redirectWithError(w, r, "/register", "invalid_form", "")
		return
	}

	password := r.PostFormValue("password")
	if confirm := r.PostFormValue("password_confirm"); confirm != "" && confirm != password {
		redirectWithError(w, r, "/register", "password_mismatch", "")
		return
	}

	_, err := h.svc.Register(r.Context(), RegisterParams{
		Email:    r.PostFormValue("email"),
		Password: password,
		Name:     r.PostFormValue("name"),
	})
	if err != nil {
		var verr *ValidationError
		switch {
		case errors.As(err, &verr) && verr.Field == "email":
			redirectWithError(w, r, "/register", "invalid_email", verr.Message)
		case errors.As(err, &verr):
			redirectWithError(w, r, "/register", "weak_password", verr.Message)
		case errors.Is(err, ErrEmailTaken):
			redirectWithError(w, r, "/register", "email_exists", "")
		default:
			log.Printf("auth register error=%v", err)
			httpx.JSONError(w, http.StatusInternalServerError, "An internal error occurred")
		}
		return
	}

	http.Redirect(w, r, h.loginPath+"?m=signup_ok", http.StatusSeeOther)
}

// Logout handles POST /logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	user := httpx.UserFrom(r)

	if err := h.sessions.Logout(r.Context(), w, r, requestSecure(r)); err != nil {
		log.Printf("auth logout error=%v", err)
		httpx.JSONError(w, http.StatusInternalServerError, "An internal error occurred")
		return
	}

	if user != nil {
		audit.Log(audit.Logout, audit.Record{UserID: user.ID, Email: user.Email, IP: httpx.ClientIP(r)})
	}
	http.Redirect(w, r, h.loginPath, http.StatusSeeOther)
}

// ChangePassword handles POST /settings/password. Requires authentication;
// all other sessions are revoked and the current one re-issued.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user := httpx.UserFrom(r)
	if user == nil {
		httpx.JSONError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	if err := r.ParseForm(); err != nil {
		redirectWithError(w, r, "/settings", "invalid_form", "")
		return
	}

	err := h.svc.ChangePassword(r.Context(), ChangePasswordParams{
		UserID:          user.ID,
		CurrentPassword: r.PostFormValue("current_password"),
		NewPassword:     r.PostFormValue("new_password"),
	})
	if err != nil {
		var verr *ValidationError
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			redirectWithError(w, r, "/settings", "badcreds", "")
		case errors.As(err, &verr):
			redirectWithError(w, r, "/settings", "weak_password", verr.Message)
		default:
			log.Printf("auth change password error=%v", err)
			httpx.JSONError(w, http.StatusInternalServerError, "An internal error occurred")
		}
		return
	}

	// RevokeAllForUser killed the caller's session too; start a fresh one
	// so the password change does not log them out.
	token, err := h.sessions.Start(r.Context(), user.ID, session.StartOptions{
		IPAddress: httpx.ClientIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		log.Printf("auth change password error=%v", err)
		httpx.JSONError(w, http.StatusInternalServerError, "An internal error occurred")
		return
	}
	h.sessions.SetCookie(w, token, false, requestSecure(r))

	http.Redirect(w, r, "/settings?m=password_changed", http.StatusSeeOther)
}

// Me handles GET /me and returns the authenticated user as JSON.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user := httpx.UserFrom(r)
	if user == nil {
		httpx.JSONError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(user); err != nil {
		log.Printf("auth me encode error=%v", err)
	}
}
