package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atlantic-photo/pkg/apierror"
)

func TestLoginPayload(t *testing.T) {
	t.Run("urlencoded form", func(t *testing.T) {
		form := url.Values{"username": {"ana@example.com"}, "password": {"hunter22"}}
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		payload, err := loginPayload(httptest.NewRecorder(), req)
		require.NoError(t, err)
		assert.Equal(t, "ana@example.com", payload.Username)
		assert.Equal(t, "hunter22", payload.Password)
	})

	t.Run("multipart form", func(t *testing.T) {
		var body bytes.Buffer
		writer := multipart.NewWriter(&body)
		require.NoError(t, writer.WriteField("username", "ana@example.com"))
		require.NoError(t, writer.WriteField("password", "hunter22"))
		require.NoError(t, writer.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", &body)
		req.Header.Set("Content-Type", writer.FormDataContentType())

		payload, err := loginPayload(httptest.NewRecorder(), req)
		require.NoError(t, err)
		assert.Equal(t, "ana@example.com", payload.Username)
	})

	t.Run("json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"username":"ana@example.com","password":"hunter22"}`))
		req.Header.Set("Content-Type", "application/json; charset=utf-8")

		payload, err := loginPayload(httptest.NewRecorder(), req)
		require.NoError(t, err)
		assert.Equal(t, "hunter22", payload.Password)
	})

	t.Run("unsupported content type", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader("ana"))
		req.Header.Set("Content-Type", "text/plain")

		_, err := loginPayload(httptest.NewRecorder(), req)
		var apiErr *apierror.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusUnsupportedMediaType, apiErr.HTTPStatus)
	})
}

func TestLoginRequiresCredentials(t *testing.T) {
	h := NewAuthHandler(nil)

	form := url.Values{"username": {"ana@example.com"}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRefreshAndLogoutRequireBearer(t *testing.T) {
	h := NewAuthHandler(nil)

	for name, fn := range map[string]http.HandlerFunc{"refresh": h.Refresh, "logout": h.Logout} {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			fn(rec, httptest.NewRequest(http.MethodPost, "/", nil))
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}
