package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atlantic-photo/internal/model"
)

type stubResolver struct {
	users map[string]model.User
}

func (s stubResolver) ResolveIdentity(_ context.Context, token string) (model.User, error) {
	if token == "store-down" {
		return model.User{}, errors.New("connection refused")
	}
	user, ok := s.users[token]
	if !ok {
		return model.User{}, model.ErrUnauthenticated
	}
	return user, nil
}

func newAuth() *AuthMiddleware {
	return NewAuthMiddleware(stubResolver{users: map[string]model.User{
		"admin-token": {ID: 1, Email: "root@example.com", Role: model.RoleAdmin},
		"user-token":  {ID: 2, Email: "ana@example.com", Role: model.RoleUser},
	}})
}

func TestRequireAuth(t *testing.T) {
	var seen model.User
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		require.True(t, ok)
		seen = user
		w.WriteHeader(http.StatusNoContent)
	})
	handler := newAuth().RequireAuth(next)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "missing header", header: "", want: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", want: http.StatusUnauthorized},
		{name: "empty token", header: "Bearer   ", want: http.StatusUnauthorized},
		{name: "unknown token", header: "Bearer forged", want: http.StatusUnauthorized},
		{name: "valid token", header: "Bearer user-token", want: http.StatusNoContent},
		{name: "case insensitive scheme", header: "bearer user-token", want: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusUnauthorized {
				assert.Contains(t, rec.Body.String(), credentialsMessage)
				assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
			}
		})
	}

	assert.Equal(t, int64(2), seen.ID)
}

func TestRequireAuthStoreFailure(t *testing.T) {
	called := false
	handler := newAuth().RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer store-down")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
	assert.Empty(t, rec.Header().Get("WWW-Authenticate"))
}

func TestRequire(t *testing.T) {
	auth := newAuth()
	adminOnly := auth.Require(func(u model.User) bool { return u.Role == model.RoleAdmin })
	handler := auth.RequireAuth(adminOnly(okHandler()))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/audit", nil)
	req.Header.Set("Authorization", "Bearer user-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "FORBIDDEN")

	req = httptest.NewRequest(http.MethodGet, "/api/v1/audit", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireWithoutAuthenticatedUser(t *testing.T) {
	handler := newAuth().Require(func(model.User) bool { return true })(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
