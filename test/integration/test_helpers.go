//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"atlantic-photo/internal/auth"
	"atlantic-photo/internal/cache"
	"atlantic-photo/internal/config"
	"atlantic-photo/internal/database"
	"atlantic-photo/internal/event"
	"atlantic-photo/internal/handler"
	"atlantic-photo/internal/metrics"
	"atlantic-photo/internal/middleware"
	"atlantic-photo/internal/provider"
	"atlantic-photo/internal/repository"
	"atlantic-photo/internal/router"
	"atlantic-photo/internal/service"
	"atlantic-photo/internal/storage"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type tokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// newServer runs the full HTTP stack against DATABASE_URL with the local
// provider rooted in a temp dir.
func newServer(t *testing.T) *httptest.Server {
	t.Helper()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		t.Skip("DATABASE_URL is not set")
	}

	ctx := context.Background()
	db, err := database.New(ctx, databaseURL, 4, 1)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.EnsureSchema(ctx))

	disk, err := storage.New(t.TempDir())
	require.NoError(t, err)

	cfg := &config.Config{
		RequestTimeout:   30 * time.Second,
		CORSOrigins:      []string{"*"},
		RateLimitRPM:     1000,
		AuthRateLimitRPM: 1000,
		MaxUploadSize:    10 << 20,
	}

	server := httptest.NewUnstartedServer(nil)
	baseURL := "http://" + server.Listener.Addr().String()

	pool := db.Pool
	users := repository.NewUserRepository(pool)
	images := repository.NewImageRepository(pool)
	bus := event.NewBus()
	identities := cache.NewMemory(time.Minute)
	t.Cleanup(func() { _ = identities.Close() })

	tokens, err := auth.NewTokenService("integration-secret", "HS256", 15*time.Minute, time.Hour)
	require.NoError(t, err)

	local := provider.NewLocal(disk, baseURL)
	authService := service.NewAuthService(users, repository.NewTokenRepository(pool), auth.NewPasswordHasher(4), tokens, identities, bus)
	auditService := service.NewAuditService(repository.NewAuditRepository(pool))

	server.Config.Handler = router.New(cfg, middleware.NewAuthMiddleware(authService), metrics.New(), router.Handlers{
		Auth:      handler.NewAuthHandler(authService),
		Users:     handler.NewUserHandler(authService),
		Images:    handler.NewImageHandler(service.NewImageService(images, local, bus), cfg.MaxUploadSize),
		Tags:      handler.NewTagHandler(service.NewTagService(repository.NewTagRepository(pool), images, bus)),
		Comments:  handler.NewCommentHandler(service.NewCommentService(repository.NewCommentRepository(pool), images, bus)),
		Transform: handler.NewTransformHandler(service.NewTransformService(repository.NewTransformRepository(pool), images, local, bus)),
		Audit:     handler.NewAuditHandler(auditService),
		Health:    handler.NewHealthHandler(db),
		Media:     handler.NewMediaHandler(disk),
	})
	server.Start()
	t.Cleanup(server.Close)

	return server
}

// signupAndLogin registers a fresh account and returns its tokens.
func signupAndLogin(t *testing.T, server *httptest.Server) (string, tokenPair) {
	t.Helper()

	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	email := "user" + suffix + "@example.com"
	signup := map[string]string{"username": "user" + suffix, "email": email, "password": "s3cret-pass"}

	resp := doJSON(t, http.MethodPost, server.URL+"/api/v1/auth/signup", signup, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	form := url.Values{"username": {email}, "password": {"s3cret-pass"}}
	resp, err := http.PostForm(server.URL+"/api/v1/auth/login", form)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var pair tokenPair
	decodeData(t, resp, &pair)
	return email, pair
}

func doJSON(t *testing.T, method string, target string, body any, token string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, target, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func uploadPNG(t *testing.T, server *httptest.Server, token string, description string, tags string) *http.Response {
	t.Helper()

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	require.NoError(t, form.WriteField("description", description))
	if tags != "" {
		require.NoError(t, form.WriteField("tags", tags))
	}
	part, err := form.CreateFormFile("file", "harbour.png")
	require.NoError(t, err)
	_, err = part.Write(samplePNG(t))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req, err := http.NewRequest(http.MethodPost, server.URL+"/api/v1/images", &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func samplePNG(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 240, 160))
	for y := range 160 {
		for x := range 240 {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodeData(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	require.True(t, env.Success)
	require.NoError(t, json.Unmarshal(env.Data, dst))
}
