package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

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

const cacheSweepInterval = time.Minute

type App struct {
	server       *http.Server
	workers      sync.WaitGroup
	cancel       context.CancelFunc
	cleanupFuncs []func()
}

func New(cfg *config.Config) (*App, error) {
	a := &App{}
	ok := false
	defer func() {
		if !ok {
			a.cleanup()
		}
	}()

	slog.Info("connecting to PostgreSQL")
	db, err := database.New(context.Background(), cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	a.cleanupFuncs = append(a.cleanupFuncs, db.Close)

	if err := db.EnsureSchema(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}

	pool := db.Pool
	userRepo := repository.NewUserRepository(pool)
	tokenRepo := repository.NewTokenRepository(pool)
	imageRepo := repository.NewImageRepository(pool)
	tagRepo := repository.NewTagRepository(pool)
	commentRepo := repository.NewCommentRepository(pool)
	transformRepo := repository.NewTransformRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)
	slog.Info("database ready")

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	identities, err := newIdentityCache(ctx, cfg, a)
	if err != nil {
		return nil, err
	}
	a.cleanupFuncs = append(a.cleanupFuncs, func() { _ = identities.Close() })

	imageProvider, disk, err := newProvider(cfg)
	if err != nil {
		return nil, err
	}

	bus := event.NewBus()
	appMetrics := metrics.New()
	auditService := service.NewAuditService(auditRepo)

	a.spawn(func() { auditService.Consume(ctx, bus) })
	a.spawn(func() { appMetrics.Consume(ctx, bus) })
	if cfg.AMQPURL != "" {
		bridge := event.NewAMQPBridge(cfg.AMQPURL, cfg.AMQPQueue)
		a.spawn(func() { bridge.Run(ctx, bus) })
		slog.Info("forwarding events to AMQP", "queue", cfg.AMQPQueue)
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.JWTAlgorithm, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}
	hasher := auth.NewPasswordHasher(cfg.BcryptCost)

	authService := service.NewAuthService(userRepo, tokenRepo, hasher, tokens, identities, bus)
	imageService := service.NewImageService(imageRepo, imageProvider, bus)
	tagService := service.NewTagService(tagRepo, imageRepo, bus)
	commentService := service.NewCommentService(commentRepo, imageRepo, bus)
	transformService := service.NewTransformService(transformRepo, imageRepo, imageProvider, bus)

	handlers := router.Handlers{
		Auth:      handler.NewAuthHandler(authService),
		Users:     handler.NewUserHandler(authService),
		Images:    handler.NewImageHandler(imageService, cfg.MaxUploadSize),
		Tags:      handler.NewTagHandler(tagService),
		Comments:  handler.NewCommentHandler(commentService),
		Transform: handler.NewTransformHandler(transformService),
		Audit:     handler.NewAuditHandler(auditService),
		Health:    handler.NewHealthHandler(db),
		Metrics:   appMetrics.Handler(),
	}
	if disk != nil {
		handlers.Media = handler.NewMediaHandler(disk)
	}

	appRouter := router.New(cfg, middleware.NewAuthMiddleware(authService), appMetrics, handlers)

	a.server = &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadTimeout,
		ReadTimeout:       cfg.ServerReadTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	ok = true
	return a, nil
}

func newIdentityCache(ctx context.Context, cfg *config.Config, a *App) (cache.IdentityCache, error) {
	if cfg.RedisAddr == "" {
		memory := cache.NewMemory(cfg.IdentityCacheTTL)
		a.spawn(func() { memory.Run(ctx, cacheSweepInterval) })
		slog.Info("identity cache: in-memory", "ttl", cfg.IdentityCacheTTL)
		return memory, nil
	}

	client, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	redisCache, err := cache.NewRedis(client, cfg.IdentityCacheTTL)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to initialize redis cache: %w", err)
	}

	slog.Info("identity cache: redis", "addr", cfg.RedisAddr, "ttl", cfg.IdentityCacheTTL)
	return redisCache, nil
}

// newProvider also returns the disk store backing the local provider so its
// files can be served; it is nil for hosted providers.
func newProvider(cfg *config.Config) (provider.Provider, storage.Storage, error) {
	switch cfg.Provider {
	case config.ProviderCloudinary:
		slog.Info("image provider: cloudinary", "cloud", cfg.CloudinaryCloudName)
		return provider.NewCloudinary(cfg.CloudinaryBaseURL, cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.ProviderTimeout), nil, nil
	default:
		disk, err := storage.New(cfg.MediaRoot)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize media storage: %w", err)
		}
		slog.Info("image provider: local", "root", disk.RootAbs())
		return provider.NewLocal(disk, cfg.PublicBaseURL), disk, nil
	}
}

func (a *App) spawn(fn func()) {
	a.workers.Add(1)
	go func() {
		defer a.workers.Done()
		fn()
	}()
}

func (a *App) Run() error {
	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	var runErr error
	select {
	case sig := <-stop:
		slog.Info("shutdown requested", "signal", sig.String())
	case err := <-serveErr:
		runErr = fmt.Errorf("server failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil && runErr == nil {
		runErr = fmt.Errorf("graceful shutdown failed: %w", err)
	}

	a.cleanup()

	slog.Info("server stopped")
	return runErr
}

// cleanup stops background workers, then releases resources in reverse
// order of acquisition.
func (a *App) cleanup() {
	if a.cancel != nil {
		a.cancel()
	}
	a.workers.Wait()

	for i := len(a.cleanupFuncs) - 1; i >= 0; i-- {
		a.cleanupFuncs[i]()
	}
	a.cleanupFuncs = nil
}
