package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/picshelf/picshelf/internal/service"
	"github.com/picshelf/picshelf/internal/transport/http/middleware"
	"github.com/picshelf/picshelf/pkg/validator"
)

type SessionHandler struct {
	authService *service.AuthService
	logger      *slog.Logger
}

func NewSessionHandler(authService *service.AuthService, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{authService: authService, logger: logger}
}

// Signup handles POST /api/users.
func (h *SessionHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var input service.SignupInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeErrors(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if errs := validator.ValidateSignup(input.Username, input.Password, input.ProfileImageURL); errs.HasErrors() {
		writeErrors(w, http.StatusBadRequest, errs.Messages()...)
		return
	}

	sess, err := h.authService.Signup(r.Context(), input)
	if err != nil {
		if errors.Is(err, service.ErrUsernameTaken) {
			// Surfaced like a validation error, not a server fault.
			writeErrors(w, http.StatusBadRequest, "Username is already taken.")
			return
		}
		h.logger.Error("signup", "error", err)
		writeErrors(w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	setSessionCookie(w, sess.Token, sess.Expiry)
	writeJSON(w, http.StatusOK, map[string]any{"user": sess.User})
}

// Login handles POST /api/session.
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input service.LoginInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeErrors(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if errs := validator.ValidateLogin(input.Username, input.Password); errs.HasErrors() {
		writeErrors(w, http.StatusBadRequest, errs.Messages()...)
		return
	}

	sess, err := h.authService.Login(r.Context(), input)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCreds) {
			// Same body whether the username exists or not.
			writeErrors(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		h.logger.Error("login", "error", err)
		writeErrors(w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	setSessionCookie(w, sess.Token, sess.Expiry)
	writeJSON(w, http.StatusOK, map[string]any{"user": sess.User})
}

// Restore handles GET /api/session. It never fails on bad tokens: the
// response is 200 with user null, and the client treats that as
// anonymous.
func (h *SessionHandler) Restore(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService.Restore(r.Context(), sessionToken(r))
	if err != nil {
		h.logger.Error("restore session", "error", err)
		writeErrors(w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

// Logout handles DELETE /api/session. 200 regardless of prior state.
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.authService.Logout(r.Context(), sessionToken(r))
	clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]any{"user": nil})
}

func sessionToken(r *http.Request) string {
	cookie, err := r.Cookie(middleware.SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func setSessionCookie(w http.ResponseWriter, token string, expiry time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiry,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeErrors(w http.ResponseWriter, status int, messages ...string) {
	writeJSON(w, status, map[string]any{"errors": messages})
}
