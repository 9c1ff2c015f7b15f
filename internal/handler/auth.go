package handler

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/etiennegwiavander/linguaflow/internal/handler/views"
	appI18n "github.com/etiennegwiavander/linguaflow/internal/i18n"
	"github.com/etiennegwiavander/linguaflow/internal/model"
)

const (
	sessionCookieName = "session"
	csrfCookieName    = "csrf_token"
)

func generateCSRFToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

func (h *Handler) cookiePath() string {
	if h.config.BasePath != "" {
		return h.config.BasePath + "/"
	}
	return "/"
}

func (h *Handler) setCSRFCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     h.cookiePath(),
		HttpOnly: false,
		Secure:   h.config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) csrfMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "GET" || r.Method == "HEAD" {
			token, err := generateCSRFToken()
			if err != nil {
				slog.Error("failed to generate CSRF token", "error", err)
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			h.setCSRFCookie(w, token)
			ctx := model.ContextWithCSRFToken(r.Context(), token)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		cookie, err := r.Cookie(csrfCookieName)
		if err != nil || cookie.Value == "" {
			slog.Warn("CSRF cookie missing")
			http.Error(w, "csrf token missing", http.StatusForbidden)
			return
		}

		formToken := r.FormValue("csrf_token")
		if formToken == "" {
			slog.Warn("CSRF form token missing")
			http.Error(w, "csrf token missing", http.StatusForbidden)
			return
		}

		if len(formToken) != len(cookie.Value) || subtle.ConstantTimeCompare([]byte(formToken), []byte(cookie.Value)) != 1 {
			slog.Warn("CSRF token mismatch")
			http.Error(w, "invalid csrf token", http.StatusForbidden)
			return
		}

		token, err := generateCSRFToken()
		if err != nil {
			slog.Error("failed to generate CSRF token", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		h.setCSRFCookie(w, token)

		ctx := model.ContextWithCSRFToken(r.Context(), token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAuth is middleware that checks for a valid session cookie.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil || cookie.Value == "" {
			h.redirectToLogin(w, r)
			return
		}

		authSess, err := h.store.GetAuthSession(cookie.Value)
		if err != nil {
			slog.Error("failed to get auth session", "error", err)
			h.redirectToLogin(w, r)
			return
		}
		if authSess == nil {
			h.redirectToLogin(w, r)
			return
		}

		tutor, err := h.store.GetTutorByID(authSess.TutorID)
		if err != nil || tutor == nil || !tutor.Active {
			h.redirectToLogin(w, r)
			return
		}

		ctx := model.ContextWithTutor(r.Context(), tutor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireRole returns middleware that checks the tutor has one of the allowed roles.
func requireRole(allowed ...model.TutorRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tutor := model.TutorFromContext(r.Context())
			if tutor == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			for _, role := range allowed {
				if tutor.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			http.Error(w, "forbidden", http.StatusForbidden)
		})
	}
}

func (h *Handler) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.path("/login"), http.StatusSeeOther)
}

func (h *Handler) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.LoginPage("").Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	password := r.FormValue("password")

	tutor, err := h.store.GetTutorByEmail(email)
	if err != nil {
		slog.Error("failed to get tutor", "error", err)
		h.renderLoginError(w, r)
		return
	}
	if tutor == nil || !tutor.Active {
		h.renderLoginError(w, r)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(tutor.PasswordHash), []byte(password)); err != nil {
		h.renderLoginError(w, r)
		return
	}

	token, err := h.store.CreateAuthSession(tutor.ID)
	if err != nil {
		slog.Error("failed to create auth session", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     h.cookiePath(),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.config.SecureCookies,
	})
	http.Redirect(w, r, h.path("/"), http.StatusSeeOther)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(sessionCookieName)
	if err == nil && cookie.Value != "" {
		_ = h.store.DeleteAuthSession(cookie.Value)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     h.cookiePath(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.SecureCookies,
	})
	http.Redirect(w, r, h.path("/login"), http.StatusSeeOther)
}

func (h *Handler) renderLoginError(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	if err := views.LoginPage(appI18n.T(r.Context(), "LoginError")).Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}

func (h *Handler) handleForgotPasswordPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.ForgotPasswordPage("").Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}

// handleForgotPassword creates a reset token for the account, if one
// exists. The response is identical either way so the form cannot be
// used to probe for registered addresses. Mail delivery is out of
// scope here, so the reset link is written to the server log for an
// operator to pass on.
func (h *Handler) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")

	tutor, err := h.store.GetTutorByEmail(email)
	if err != nil {
		slog.Error("failed to get tutor", "error", err)
	}
	if tutor != nil && tutor.Active {
		token, err := h.store.CreatePasswordReset(tutor.ID)
		if err != nil {
			slog.Error("failed to create password reset", "error", err)
		} else {
			slog.Info("password reset requested",
				"email", email, "reset_path", h.path("/password/reset?token="+token))
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.ForgotPasswordPage(appI18n.T(r.Context(), "ResetRequested")).Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}

func (h *Handler) handleResetPasswordPage(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")

	reset, err := h.store.GetPasswordReset(token)
	if err != nil {
		slog.Error("failed to get password reset", "error", err)
	}
	valid := reset != nil

	notice := ""
	if !valid {
		notice = appI18n.T(r.Context(), "ResetInvalid")
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.ResetPasswordPage(token, valid, notice).Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}

func (h *Handler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	token := r.FormValue("token")
	password := r.FormValue("password")

	reset, err := h.store.GetPasswordReset(token)
	if err != nil {
		slog.Error("failed to get password reset", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if reset == nil || password == "" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := views.ResetPasswordPage(token, false, appI18n.T(r.Context(), "ResetInvalid")).Render(r.Context(), w); err != nil {
			slog.Error("render error", "error", err)
		}
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if err := h.store.UpdateTutorPassword(reset.TutorID, string(hash)); err != nil {
		slog.Error("failed to update password", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if err := h.store.MarkPasswordResetUsed(token); err != nil {
		slog.Error("failed to mark reset used", "error", err)
	}

	slog.Info("password reset completed", "tutor_id", reset.TutorID)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.LoginPage(appI18n.T(r.Context(), "ResetDone")).Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}
