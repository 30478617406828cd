package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"atlantic-photo/internal/model"
)

// IdentityResolver turns a bearer access token into the active user it
// belongs to.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, accessToken string) (model.User, error)
}

type contextKey string

const userContextKey contextKey = "auth_user"

// credentialsMessage is the body of every authentication failure.
const credentialsMessage = "Could not validate credentials"

type AuthMiddleware struct {
	resolver IdentityResolver
}

func NewAuthMiddleware(resolver IdentityResolver) *AuthMiddleware {
	return &AuthMiddleware{resolver: resolver}
}

func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := BearerToken(r)
		if !ok {
			writeUnauthorized(w, "UNAUTHORIZED", credentialsMessage)
			return
		}

		user, err := m.resolver.ResolveIdentity(r.Context(), token)
		if errors.Is(err, model.ErrUnauthenticated) {
			writeUnauthorized(w, "UNAUTHORIZED", credentialsMessage)
			return
		}
		if err != nil {
			slog.Error("resolve identity failed",
				"error", err,
				"request_id", RequestIDFromContext(r.Context()),
				"path", r.URL.Path,
			)
			writeJSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Unexpected server error")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Require admits the request only when allow accepts the authenticated
// user. It must run after RequireAuth.
func (m *AuthMiddleware) Require(allow func(model.User) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				writeUnauthorized(w, "UNAUTHORIZED", credentialsMessage)
				return
			}

			if !allow(user) {
				writeUnauthorized(w, "FORBIDDEN", "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func UserFromContext(ctx context.Context) (model.User, bool) {
	user, ok := ctx.Value(userContextKey).(model.User)
	return user, ok
}

// WithUser stores user in ctx the same way RequireAuth does.
func WithUser(ctx context.Context, user model.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return "", false
	}

	token := strings.TrimSpace(header[7:])
	return token, token != ""
}

func writeUnauthorized(w http.ResponseWriter, code string, message string) {
	if code == "FORBIDDEN" {
		writeJSONError(w, http.StatusForbidden, code, message)
		return
	}

	w.Header().Set("WWW-Authenticate", "Bearer")
	writeJSONError(w, http.StatusUnauthorized, code, message)
}
