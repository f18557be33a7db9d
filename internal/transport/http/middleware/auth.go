package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/picshelf/picshelf/internal/repository"
	"github.com/picshelf/picshelf/internal/token"
)

// SessionCookieName is the HTTP-only cookie carrying the session token.
const SessionCookieName = "picshelf_session"

type contextKey string

const UserIDKey contextKey = "user_id"

// Auth authenticates requests from the session cookie. The token must
// verify and must not be on the revocation list; otherwise the request
// is rejected before reaching the handler.
func Auth(issuer *token.Issuer, revoked repository.TokenRevocationList) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				unauthorized(w)
				return
			}

			v, err := issuer.Verify(cookie.Value)
			if err != nil {
				unauthorized(w)
				return
			}

			isRevoked, err := revoked.IsRevoked(r.Context(), v.JTI)
			if err != nil {
				http.Error(w, `{"errors":["Something went wrong"]}`, http.StatusInternalServerError)
				return
			}
			if isRevoked {
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, v.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	http.Error(w, `{"errors":["Authentication required"]}`, http.StatusUnauthorized)
}

// GetUserID extracts the authenticated user ID from request context.
func GetUserID(ctx context.Context) uuid.UUID {
	return ctx.Value(UserIDKey).(uuid.UUID)
}
