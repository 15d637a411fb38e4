// Package middleware holds the HTTP middleware shared by the API routes.
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ayush/user-auth-service/internal/logging"
	"github.com/ayush/user-auth-service/internal/models"
	"github.com/ayush/user-auth-service/internal/session"
)

// SessionResolver turns a session token into a live session.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (session.Session, error)
}

// LoadSession resolves the session token from the session cookie or an
// "Authorization: Bearer" header and injects the session into the request
// context. The cookie is tried first; a cookie that no longer resolves falls
// back to the header. Requests without a live session pass through
// untouched; handlers decide whether they need one.
func LoadSession(sessions SessionResolver, logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, token := range TokensFromRequest(r) {
				s, err := sessions.Resolve(r.Context(), token)
				if errors.Is(err, session.ErrNoSession) {
					continue
				}
				if err != nil {
					logger.Error(r.Context(), "resolve session", "error", err)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(models.APIResponse{Message: "internal server error"})
					return
				}
				next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), s)))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// TokensFromRequest returns the candidate session tokens, cookie first.
func TokensFromRequest(r *http.Request) []string {
	var tokens []string
	if c, err := r.Cookie(session.CookieName); err == nil && c.Value != "" {
		tokens = append(tokens, c.Value)
	}
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if ok && strings.EqualFold(scheme, "Bearer") {
		if token = strings.TrimSpace(token); token != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens
}
