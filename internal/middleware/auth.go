package middleware

import (
	"context"
	"net/http"
	"strings"

	"marketplace/internal/model"

	"github.com/rs/zerolog"
)

type contextKey int

const (
	identityKey contextKey = iota
	tokenKey
)

// TokenResolver looks up the identity behind a bearer token.
type TokenResolver interface {
	ResolveToken(ctx context.Context, token string) (*model.Identity, error)
}

// WithIdentity returns a copy of ctx carrying the caller and its token.
func WithIdentity(ctx context.Context, identity *model.Identity, token string) context.Context {
	ctx = context.WithValue(ctx, identityKey, identity)
	return context.WithValue(ctx, tokenKey, token)
}

// IdentityFromContext returns the authenticated caller, or nil.
func IdentityFromContext(ctx context.Context) *model.Identity {
	identity, _ := ctx.Value(identityKey).(*model.Identity)
	return identity
}

// TokenFromContext returns the bearer token the caller authenticated with.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey).(string)
	return token
}

// Authenticate resolves an optional bearer token. Requests without a usable
// token pass through anonymously and RequireRole guards the protected routes.
// Only a failing session store stops the request here.
func Authenticate(resolver TokenResolver, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			scheme, token, ok := strings.Cut(header, " ")
			token = strings.TrimSpace(token)
			if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
				logger.Debug().Str("path", r.URL.Path).Msg("ignoring malformed authorization header")
				next.ServeHTTP(w, r)
				return
			}

			identity, err := resolver.ResolveToken(r.Context(), token)
			if err != nil {
				logger.Error().Err(err).Str("path", r.URL.Path).Msg("failed to resolve bearer token")
				writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "failed to verify session")
				return
			}
			if identity == nil {
				logger.Debug().Str("path", r.URL.Path).Msg("unknown or expired bearer token, continuing anonymously")
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity, token)))
		})
	}
}

// RequireRole rejects anonymous callers with 401 and callers holding none of
// the given roles with 403.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := IdentityFromContext(r.Context())
			if identity == nil {
				writeError(w, r, http.StatusUnauthorized, model.ErrCodeUnauthenticated, model.ErrUnauthenticated.Message)
				return
			}

			for _, role := range roles {
				if identity.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			writeError(w, r, http.StatusForbidden, model.ErrCodeForbidden, model.ErrForbidden.Message)
		})
	}
}
