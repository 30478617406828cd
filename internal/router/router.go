package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"atlantic-photo/internal/config"
	"atlantic-photo/internal/handler"
	"atlantic-photo/internal/middleware"
	"atlantic-photo/internal/model"
)

type Handlers struct {
	Auth      *handler.AuthHandler
	Users     *handler.UserHandler
	Images    *handler.ImageHandler
	Tags      *handler.TagHandler
	Comments  *handler.CommentHandler
	Transform *handler.TransformHandler
	Audit     *handler.AuditHandler
	Health    *handler.HealthHandler
	// Media is nil when assets live with a hosted provider.
	Media *handler.MediaHandler
	// Metrics serves the Prometheus exposition format.
	Metrics http.Handler
}

func New(
	cfg *config.Config,
	authMiddleware *middleware.AuthMiddleware,
	observer middleware.RequestObserver,
	h Handlers,
) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.Metrics(observer))
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", h.Health.Check)
	if h.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.Metrics)
	}
	if h.Media != nil {
		r.Get("/media/*", h.Media.Serve)
	}

	requireAuth := authMiddleware.RequireAuth
	admin := authMiddleware.Require(func(u model.User) bool { return u.Role == model.RoleAdmin })

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/signup", h.Auth.Signup)
			auth.Post("/login", h.Auth.Login)
			auth.Get("/refresh_token", h.Auth.Refresh)
			auth.Post("/logout", h.Auth.Logout)
		})

		api.With(requireAuth).Get("/users/me", h.Users.Me)
		api.Get("/users/{username}", h.Users.Profile)

		api.Route("/images", func(images chi.Router) {
			images.Use(requireAuth)
			images.Get("/", h.Images.ListMine)
			images.Post("/", h.Images.Upload)
			images.Get("/all", h.Images.ListAll)
			images.Get("/{id}", h.Images.Get)
			images.Patch("/{id}", h.Images.UpdateDescription)
			images.Delete("/{id}", h.Images.Delete)
		})

		api.Route("/tags", func(tags chi.Router) {
			tags.Use(requireAuth)
			tags.Post("/", h.Tags.Create)
			tags.Get("/{id}", h.Tags.Get)
			tags.Delete("/{id}", h.Tags.Delete)
		})

		api.Route("/comments", func(comments chi.Router) {
			comments.Use(requireAuth)
			comments.Get("/", h.Comments.ListByImage)
			comments.Post("/", h.Comments.Create)
			comments.Get("/{id}", h.Comments.Get)
			comments.Put("/{id}", h.Comments.Update)
			comments.Patch("/{id}", h.Comments.Update)
			comments.Delete("/{id}", h.Comments.Delete)
		})

		api.Route("/transform", func(transform chi.Router) {
			transform.Use(requireAuth)
			transform.Post("/create_transformed/{original_image_id}", h.Transform.Create)
			transform.Get("/mine", h.Transform.ListMine)
			transform.Get("/{id}", h.Transform.Get)
			transform.Patch("/{id}", h.Transform.Update)
			transform.Delete("/{id}", h.Transform.Delete)
			transform.Post("/{id}/qr", h.Transform.QRCode)
		})

		api.With(requireAuth, admin).Get("/audit", h.Audit.List)
	})

	return r
}
