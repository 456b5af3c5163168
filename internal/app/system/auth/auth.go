// internal/app/system/auth/auth.go
package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// AuthUser is the identity loaded for each authenticated request.
type AuthUser struct {
	ID       string
	Username string
	Email    string
	Role     string
}

// UserFetcher loads the current state of a user on each request, so role
// changes and deletions take effect immediately. It returns nil when the
// user does not exist or cannot be loaded.
type UserFetcher interface {
	FetchUser(ctx context.Context, userID string) *AuthUser
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user & "found?" flag.
func CurrentUser(r *http.Request) (*AuthUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*AuthUser)
	return u, ok
}

// WithTestUser injects u into the request context. Tests use it to bypass
// token verification.
func WithTestUser(r *http.Request, u *AuthUser) *http.Request {
	return withUser(r, u)
}

// Authenticator verifies bearer tokens and resolves the caller's identity.
type Authenticator struct {
	tokens  *TokenManager
	fetcher UserFetcher
	log     *zap.Logger
}

// NewAuthenticator builds an Authenticator.
func NewAuthenticator(tokens *TokenManager, fetcher UserFetcher, logger *zap.Logger) *Authenticator {
	return &Authenticator{tokens: tokens, fetcher: fetcher, log: logger}
}

// Tokens returns the token manager used to verify requests.
func (a *Authenticator) Tokens() *TokenManager {
	return a.tokens
}

// RequireUser rejects requests without a valid bearer token with 401.
// On success it loads the user through the fetcher and stores it in the
// request context. Tokens for users that no longer exist are rejected too.
func (a *Authenticator) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		userID, err := a.tokens.Parse(raw)
		if err != nil {
			a.log.Debug("token rejected", zap.Error(err))
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		u := a.fetcher.FetchUser(r.Context(), userID)
		if u == nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		next.ServeHTTP(w, withUser(r, u))
	})
}

// RequireRole permits only users whose current role is in allowed.
// No user in context → 401; wrong role → 403.
func RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if _, has := set[strings.ToLower(u.Role)]; !has {
				writeError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// helpers

func withUser(r *http.Request, u *AuthUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
