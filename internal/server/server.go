// Package server contains the HTTP and WebSocket handlers of the blog.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "lukeblog/docs" // swagger docs
	"lukeblog/internal/admin"
	"lukeblog/internal/bootstrap"
	"lukeblog/internal/cache"
	"lukeblog/internal/config"
	"lukeblog/internal/featureflags"
	"lukeblog/internal/feed"
	"lukeblog/internal/middleware"
	"lukeblog/internal/models"
	"lukeblog/internal/notifications"
	"lukeblog/internal/repository"
	"lukeblog/internal/service"
	"lukeblog/internal/view"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	commentRateLimit = 5
	loginRateLimit   = 10
	globalRateLimit  = 300
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	store          cache.Store
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	views          *view.Renderer

	userRepo     repository.UserRepository
	postRepo     repository.PostRepository
	categoryRepo repository.CategoryRepository
	commentRepo  repository.CommentRepository

	notifier       *notifications.Notifier
	hub            *notifications.Hub
	featureFlags   *featureflags.Manager
	postService    *service.PostService
	commentService *service.CommentService
	visitService   *service.VisitService
	authService    *service.AuthService
	imageService   *service.ImageService
	feeds          *feed.Builder
	admin          *admin.Admin
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	// redisClient is nil when redis is not configured or unreachable
	db, redisClient, err := bootstrap.InitRuntime(cfg)
	if err != nil {
		return nil, err
	}

	server, err := newServer(cfg, db, redisClient)
	if err != nil {
		return nil, err
	}
	server.promMiddleware = middleware.InitMetrics("lukeblog-api")
	return server, nil
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil, in which case an in-process cache is used.
// Request metrics are not registered, so tests can build many servers.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	return newServer(cfg, db, redisClient)
}

func newServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	views, err := view.New()
	if err != nil {
		return nil, fmt.Errorf("templates: %w", err)
	}

	var store cache.Store
	if redisClient != nil {
		store = cache.NewRedisStore(redisClient)
	} else {
		store = cache.NewMemoryStore()
	}

	server := &Server{
		config:       cfg,
		db:           db,
		redis:        redisClient,
		store:        store,
		views:        views,
		userRepo:     repository.NewUserRepository(db),
		postRepo:     repository.NewPostRepository(db),
		categoryRepo: repository.NewCategoryRepository(db),
		commentRepo:  repository.NewCommentRepository(db),
		notifier:     notifications.NewNotifier(redisClient),
		hub:          notifications.NewHub(),
		featureFlags: featureflags.NewManager(cfg.FeatureFlags),
	}

	server.postService = service.NewPostService(service.PostServiceDeps{
		Posts:      server.postRepo,
		Categories: server.categoryRepo,
		Tags:       repository.NewTagRepository(db),
		Users:      server.userRepo,
		Comments:   server.commentRepo,
		Links:      repository.NewLinkRepository(db),
		SideBars:   repository.NewSideBarRepository(db),
		Store:      store,
	})
	server.commentService = service.NewCommentService(server.commentRepo, server.postRepo, server.featureFlags, server.notifier)
	server.visitService = service.NewVisitService(store, server.postRepo)
	server.authService = service.NewAuthService(server.userRepo, store, cfg.JWTSecret)
	server.imageService = service.NewImageService(cfg, server.featureFlags)
	server.feeds = feed.NewBuilder(server.postRepo, store, feed.Options{
		SiteURL: cfg.SiteURL,
		Title:   cfg.SiteTitle,
	})
	server.admin = admin.New(admin.Deps{
		DB:              db,
		Posts:           server.postRepo,
		Logs:            repository.NewAdminLogRepository(db),
		OnSideBarChange: server.postService.InvalidateSideBars,
	})

	return server, nil
}

// App builds the Fiber application once and returns it.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	bodyLimit := s.config.UploadMaxMB
	if bodyLimit <= 0 {
		bodyLimit = service.DefaultUploadMaxMB
	}
	app := fiber.New(fiber.Config{
		AppName:      "LukeBlog",
		BodyLimit:    (bodyLimit + 1) * 1024 * 1024,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		ErrorHandler: s.handleError,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.Visitor())

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	// Context Middleware to propagate Request ID, trace id and visitor id
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New(helmet.Config{
		// editor uploads are embedded from other origins
		CrossOriginEmbedderPolicy: "unsafe-none",
		CrossOriginResourcePolicy: "cross-origin",
	}))

	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:8000,http://127.0.0.1:8000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        globalRateLimit,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || strings.HasPrefix(c.Path(), "/media/")
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return fiber.NewError(fiber.StatusTooManyRequests, "Too many requests, please try again later.")
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	// Public pages
	app.Get("/", s.Index)
	app.Get("/category/:id/", s.CategoryPosts)
	app.Get("/tag/:id/", s.TagPosts)
	app.Get("/search/", s.Search)
	app.Get("/author/:id", s.AuthorPosts)
	app.Get("/post/:file", s.PostDetail)
	app.Get("/links/", s.Links)
	app.Post("/comment/", middleware.RateLimit(
		s.store, commentRateLimit, time.Minute, "comment"), s.CreateComment)
	app.Get("/rss/", s.RSS)
	app.Get("/sitemap.xml", s.Sitemap)

	mediaURL := strings.TrimSuffix(s.config.MediaURL, "/")
	if mediaURL == "" {
		mediaURL = strings.TrimSuffix(service.DefaultMediaURL, "/")
	}
	mediaRoot := s.config.MediaRoot
	if mediaRoot == "" {
		mediaRoot = service.DefaultMediaRoot
	}
	app.Static(mediaURL, mediaRoot)

	// Read-only REST API
	api := app.Group("/api")
	api.Get("/", s.APIRoot)
	api.Get("/post/", s.APIPostList)
	api.Get("/post/:id/", s.APIPostDetail)
	api.Get("/category/", s.APICategoryList)
	api.Get("/category/:id/", s.APICategoryDetail)
	api.Get("/docs/*", swagger.HandlerDefault)
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "LukeBlog Metrics Dashboard",
	}))

	auth := api.Group("/auth")
	auth.Post("/login", middleware.RateLimit(
		s.store, loginRateLimit, 5*time.Minute, "login"), s.Login)
	auth.Post("/logout", s.AuthRequired(), s.Logout)
	auth.Get("/me", s.AuthRequired(), s.Me)

	api.Get("/features", s.AuthRequired(), s.StaffRequired(), s.GetFeatureFlags)

	app.Post("/ckeditor/upload/", s.AuthRequired(), s.StaffRequired(), s.UploadImage)

	// The live feed is registered before the admin sites so /admin/ws is not
	// taken for a resource name.
	app.Get("/admin/ws", s.AuthRequired(), s.StaffRequired(), s.AdminFeedHandler())
	for _, site := range admin.Sites {
		s.admin.Mount(app, site, s.AuthRequired(), s.StaffRequired())
	}
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	cacheStatus := "healthy"
	if err := s.store.Ping(ctx); err != nil {
		cacheStatus = "unhealthy"
	}
	backend := "memory"
	if s.redis != nil {
		backend = "redis"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" || cacheStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"cache":    cacheStatus,
		},
		"cache_backend": backend,
		"time":          time.Now(),
	})
}

// handleError is the Fiber error handler. Errors that reach it were not
// rendered by a handler, such as unknown routes.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	status := models.StatusFor(err)
	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
	}
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "unhandled error",
			slog.String("path", c.Path()), slog.String("error", err.Error()))
	}
	if wantsJSON(c) {
		if fe != nil {
			return c.Status(status).JSON(models.ErrorResponse{Error: fe.Message})
		}
		return models.RespondWithError(c, status, err)
	}
	message := fiber.ErrInternalServerError.Message
	if fe != nil {
		message = fe.Message
	}
	return s.renderErrorPage(c, status, message)
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := s.App()

	if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
		middleware.Logger.Error("failed to start admin feed wiring", slog.String("error", err.Error()))
	}

	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if err := s.hub.Shutdown(ctx); err != nil {
		middleware.Logger.Error("error shutting down admin feed", slog.String("error", err.Error()))
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
