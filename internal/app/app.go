package app

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/inkgen/server/internal/module/auth"
	"github.com/inkgen/server/internal/module/auth/oauth"
	"github.com/inkgen/server/internal/module/billing"
	"github.com/inkgen/server/internal/module/gallery"
	"github.com/inkgen/server/internal/module/generation"
	"github.com/inkgen/server/internal/module/usage"
	"github.com/inkgen/server/internal/module/user"
	"github.com/inkgen/server/internal/shared/cache"
	"github.com/inkgen/server/internal/shared/config"
	"github.com/inkgen/server/internal/shared/database"
	"github.com/inkgen/server/internal/shared/logger"
	"github.com/inkgen/server/internal/shared/metrics"
	"github.com/inkgen/server/internal/shared/middleware"
)

// App wires the modules together and owns their lifecycles.
type App struct {
	config  *config.Config
	db      *gorm.DB
	redis   redis.UniversalClient
	router  *gin.Engine
	logger  *zap.Logger
	metrics *metrics.Metrics

	// Modules
	authHandler       *auth.Handler
	authMiddleware    gin.HandlerFunc
	rateLimit         gin.HandlerFunc
	userHandler       *user.Handler
	generationHandler *generation.Handler
	billingHandler    *billing.Handler
	galleryHandler    *gallery.Handler

	archiver *gallery.Archiver
}

// New creates a new application instance.
func New(cfg *config.Config) (*App, error) {
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	app := &App{
		config:  cfg,
		logger:  log,
		metrics: metrics.New("inkgen"),
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	app.db = db

	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("init redis: %w", err)
	}
	app.redis = redisClient

	if err := db.AutoMigrate(&user.User{}); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	if err := app.initModules(); err != nil {
		return nil, err
	}

	app.router = app.setupRouter()
	app.registerRoutes()

	return app, nil
}

// initModules builds every module and its cross-module dependencies.
func (a *App) initModules() error {
	cfg := a.config

	// Users
	userRepo := user.NewRepository(a.db)
	userService := user.NewService(userRepo, a.logger)
	a.userHandler = user.NewHandler(userService)

	// Auth
	registry := oauth.NewRegistry()
	if cfg.Auth.GitHub.ClientID != "" {
		registry.Register(oauth.NewGitHubProvider(&oauth.Config{
			ClientID:     cfg.Auth.GitHub.ClientID,
			ClientSecret: cfg.Auth.GitHub.ClientSecret,
			RedirectURL:  cfg.Auth.GitHub.RedirectURL,
		}))
	}
	if cfg.Auth.Google.ClientID != "" {
		registry.Register(oauth.NewGoogleProvider(&oauth.Config{
			ClientID:     cfg.Auth.Google.ClientID,
			ClientSecret: cfg.Auth.Google.ClientSecret,
			RedirectURL:  cfg.Auth.Google.RedirectURL,
		}))
	}
	sessions := auth.NewSessionStore(a.redis, cfg.Auth.SessionTTL)
	states := auth.NewRedisStateStore(a.redis)
	authService := auth.NewService(registry, states, sessions, userService, a.logger)
	a.authHandler = auth.NewHandler(authService, a.metrics)
	a.authMiddleware = auth.RequireUser(sessions)

	// Per-user rate limit on the generation endpoint.
	a.rateLimit = middleware.RateLimit(middleware.NewRedisRateLimiter(a.redis), middleware.RateLimitConfig{
		Limit:  cfg.Usage.RateLimit,
		Window: cfg.Usage.RateLimitWindow,
		KeyFunc: func(c *gin.Context) string {
			if userID := middleware.GetUserID(c); userID != uuid.Nil {
				return "user:" + userID.String()
			}
			return "ip:" + c.ClientIP()
		},
	})

	// Credit ledger
	ledger := usage.NewRedisLedger(a.redis, usage.Limits{
		FreeDaily:    cfg.Usage.FreeDailyLimit,
		MemberDaily:  cfg.Usage.MemberDailyLimit,
		BoostPackTTL: cfg.Usage.BoostPackTTL,
	}, a.logger)

	// Gallery. Generation works without it when storage is not configured.
	var archiver generation.Archiver
	store, err := gallery.NewS3Store(cfg.Storage)
	if err != nil {
		a.logger.Warn("gallery disabled", zap.Error(err))
	} else {
		a.archiver = gallery.NewArchiver(store, a.logger, 64)
		archiver = a.archiver
		a.galleryHandler = gallery.NewHandler(store)
	}

	// Generation
	stability := generation.NewStabilityClient(cfg.Stability, a.logger)
	generationService := generation.NewService(ledger, stability, archiver, a.metrics, a.logger)
	a.generationHandler = generation.NewHandler(generationService)

	// Billing
	billingService := billing.NewService(cfg.Stripe, ledger, userService, a.logger)
	a.billingHandler = billing.NewHandler(billingService, a.logger)

	return nil
}

// setupRouter builds the engine with the shared middleware chain.
func (a *App) setupRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(middleware.Recovery(a.logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(a.logger))
	r.Use(middleware.Metrics(a.metrics))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

// registerRoutes attaches module routes to the router.
func (a *App) registerRoutes() {
	api := a.router.Group("/api")
	protected := a.router.Group("/api")
	protected.Use(a.authMiddleware)

	root := a.router.Group("")
	a.authHandler.RegisterRoutes(root)
	rootProtected := a.router.Group("")
	rootProtected.Use(a.authMiddleware)
	a.authHandler.RegisterProtectedRoutes(rootProtected)

	a.userHandler.RegisterRoutes(protected)

	limited := a.router.Group("/api")
	limited.Use(a.authMiddleware, a.rateLimit)
	a.generationHandler.RegisterRoutes(api, limited)

	webhooks := a.router.Group("/webhooks")
	a.billingHandler.RegisterRoutes(protected, webhooks)

	if a.galleryHandler != nil {
		a.galleryHandler.RegisterRoutes(api)
	}
}

// Router returns the HTTP router.
func (a *App) Router() *gin.Engine {
	return a.router
}

// Stop shuts down application components.
func (a *App) Stop() {
	if a.archiver != nil {
		a.archiver.Close()
	}
	if a.redis != nil {
		if err := cache.Close(a.redis); err != nil {
			a.logger.Error("failed to close redis", zap.Error(err))
		}
	}
	if a.db != nil {
		if err := database.Close(a.db); err != nil {
			a.logger.Error("failed to close database", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}
