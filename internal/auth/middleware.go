package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/rifayetuxbd/craftshop-api/internal/apperror"
	"github.com/rifayetuxbd/craftshop-api/internal/httputil"
	"github.com/rifayetuxbd/craftshop-api/internal/user"
)

type contextKey string

const (
	accessClaimsKey contextKey = "accessClaims"
	accessTokenKey  contextKey = "accessToken"
	sessionIDKey    contextKey = "sessionID"
)

// Middleware validates access tokens, session ids and caller roles.
type Middleware struct {
	tokens     *TokenService
	users      UserStore
	production bool
}

func NewMiddleware(tokens *TokenService, users UserStore, production bool) *Middleware {
	return &Middleware{
		tokens:     tokens,
		users:      users,
		production: production,
	}
}

// ValidateAccessToken requires a valid bearer access token and stores its
// claims in the request context.
func (m *Middleware) ValidateAccessToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			httputil.RespondAppError(w, apperror.Forbidden("Token not found", "auth/token-missing"), m.production)
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer"))
		if token == "" || token == "null" || token == "undefined" {
			httputil.RespondAppError(w, apperror.Forbidden("Invalid token. Access denied", "auth/access-denied"), m.production)
			return
		}

		claims, err := m.tokens.Verify(TokenAccess, token)
		if err != nil {
			httputil.RespondAppError(w, apperror.Forbidden("Invalid token. Access denied", "auth/access-denied").WithCause(err), m.production)
			return
		}

		ctx := context.WithValue(r.Context(), accessClaimsKey, claims)
		ctx = context.WithValue(ctx, accessTokenKey, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ValidateSessionID parses the x-session-id header into the request context.
// A missing or malformed header resolves to the nil UUID, letting handlers
// decide whether a session is required.
func (m *Middleware) ValidateSessionID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := uuid.Nil
		if raw := r.Header.Get("x-session-id"); raw != "" {
			if parsed, err := uuid.Parse(raw); err == nil {
				sessionID = parsed
			}
		}

		ctx := context.WithValue(r.Context(), sessionIDKey, sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ValidateUser loads the account behind the validated access token and
// stores the caller identity in the request context. Must run after
// ValidateAccessToken.
func (m *Middleware) ValidateUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := AccessClaimsFromContext(r.Context())
		if !ok {
			httputil.RespondAppError(w, apperror.Forbidden("Missing validated token", "auth/missing-validated-token"), m.production)
			return
		}

		u, err := m.users.GetByEmail(r.Context(), claims.Email)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				httputil.RespondAppError(w, apperror.Forbidden("Invalid token", "auth/invalid-token"), m.production)
				return
			}
			httputil.RespondAppError(w, apperror.Internal(err), m.production)
			return
		}

		if !u.EmailVerified {
			httputil.RespondAppError(w, apperror.Forbidden("User email is not verified", "auth/email-not-verified"), m.production)
			return
		}

		role, ok := user.ParseRole(u.Role)
		if !ok {
			httputil.RespondAppError(w, apperror.Unauthorized("Access denied. Invalid role", "auth/invalid-role"), m.production)
			return
		}

		identity := &user.Identity{
			UserID:        u.ID,
			Email:         u.Email,
			DisplayName:   u.DisplayName,
			EmailVerified: u.EmailVerified,
			Role:          role,
		}

		next.ServeHTTP(w, r.WithContext(user.ContextWithIdentity(r.Context(), identity)))
	})
}

func (m *Middleware) requireRole(next http.Handler, allowed func(user.Role) bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := user.IdentityFromContext(r.Context())
		if !ok || !allowed(identity.Role) {
			httputil.RespondAppError(w, apperror.Unauthorized("Access denied. Insufficient role", "auth/insufficient-role"), m.production)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AccessClaimsFromContext returns the claims stored by ValidateAccessToken.
func AccessClaimsFromContext(ctx context.Context) (*TokenClaims, bool) {
	claims, ok := ctx.Value(accessClaimsKey).(*TokenClaims)
	return claims, ok
}

// AccessTokenFromContext returns the raw access token stored by
// ValidateAccessToken.
func AccessTokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(accessTokenKey).(string)
	return token, ok
}

// SessionIDFromContext returns the session id stored by ValidateSessionID.
func SessionIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	sessionID, ok := ctx.Value(sessionIDKey).(uuid.UUID)
	return sessionID, ok
}
