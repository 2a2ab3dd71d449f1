// Package server contains the HTTP handlers and page rendering for the blog admin.
package server

import (
	"context"
	"fmt"
	"time"

	"blogly/internal/bootstrap"
	"blogly/internal/cache"
	"blogly/internal/config"
	"blogly/internal/database"
	"blogly/internal/middleware"
	"blogly/internal/repository"
	"blogly/internal/service"
	"blogly/internal/views"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const serviceName = "blogly"

// Server holds all dependencies and provides handlers
type Server struct {
	config           *config.Config
	db               *gorm.DB
	redis            *redis.Client
	app              *fiber.App
	promMiddleware   *fiberprometheus.FiberPrometheus
	sessions         *session.Store
	store            repository.Store
	userService      *service.UserService
	postService      *service.PostService
	tagService       *service.TagService
	dashboardService *service.DashboardService
}

// NewServer creates a new server instance with all dependencies
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	db, redisClient, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{SeedIfEmpty: cfg.SeedOnStart})
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis and optionally
// performs explicit seeding.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle is required")
	}
	if cfg.CacheTTLSeconds > 0 {
		cache.SetTTL(time.Duration(cfg.CacheTTLSeconds) * time.Second)
	}

	store := repository.NewStore(db)
	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics(serviceName),
		sessions: session.New(session.Config{
			Expiration:     24 * time.Hour,
			KeyLookup:      "cookie:blogly_session",
			CookieHTTPOnly: true,
			CookieSameSite: "Lax",
			CookieSecure:   cfg.IsProduction(),
		}),
		store:            store,
		userService:      service.NewUserService(store),
		postService:      service.NewPostService(store),
		tagService:       service.NewTagService(store),
		dashboardService: service.NewDashboardService(store),
	}
	return server, nil
}

// App returns the configured Fiber application, building it on first use.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	app := fiber.New(fiber.Config{
		AppName:               "Blogly",
		Views:                 views.New(),
		ViewsLayout:           "layouts/main",
		ErrorHandler:          s.errorHandler,
		DisableStartupMessage: s.config.Env == "test",
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))

	// Context Middleware to propagate Request ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New(helmet.Config{
		ContentSecurityPolicy: "default-src 'self'; style-src 'self' https://cdn.jsdelivr.net; img-src * data:",
	}))

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	app.Use(middleware.TracingMiddleware())

	if s.config.RateLimitPerMinute > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        s.config.RateLimitPerMinute,
			Expiration: 1 * time.Minute,
			Next: func(c *fiber.Ctx) bool {
				return isProbe(c.Path())
			},
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).SendString("Too many requests, please try again later.")
			},
		}))
	}
}

func isProbe(path string) bool {
	return path == "/health/live" || path == "/health/ready" || path == "/metrics"
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	// Form submissions share one per-IP budget.
	submit := middleware.RateLimit(s.redis, s.config.FormRateLimit, time.Minute, "form")

	app.Get("/", s.Dashboard)

	users := app.Group("/users")
	users.Get("/", s.ListUsers)
	users.Get("/new", s.NewUserForm)
	users.Post("/new", submit, s.CreateUser)
	// Specific /:id/:resource routes before the generic /:id route
	users.Get("/:id/edit", s.EditUserForm)
	users.Post("/:id/edit", submit, s.UpdateUser)
	users.Post("/:id/delete", submit, s.DeleteUser)
	users.Get("/:id/posts/new", s.NewPostForm)
	users.Post("/:id/posts/new", submit, s.CreatePost)
	users.Get("/:id", s.ShowUser)

	posts := app.Group("/posts")
	posts.Get("/", s.ListPosts)
	posts.Get("/:id/edit", s.EditPostForm)
	posts.Post("/:id/edit", submit, s.UpdatePost)
	posts.Post("/:id/delete", submit, s.DeletePost)
	posts.Get("/:id", s.ShowPost)

	tags := app.Group("/tags")
	tags.Get("/", s.ListTags)
	tags.Get("/new", s.NewTagForm)
	tags.Post("/new", submit, s.CreateTag)
	tags.Get("/:id/edit", s.EditTagForm)
	tags.Post("/:id/edit", submit, s.UpdateTag)
	tags.Post("/:id/delete", submit, s.DeleteTag)
	tags.Get("/:id", s.ShowTag)

	// Anything else renders the not-found page.
	app.Use(func(c *fiber.Ctx) error {
		return fiber.ErrNotFound
	})
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional: without it the
// caches and form limits are simply off.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "degraded"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	app := s.App()
	middleware.Logger.Info("Server starting", "port", s.config.Port, "env", s.config.Env)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", "error", err)
		}
	}

	if err := database.Close(s.db); err != nil {
		middleware.Logger.Error("error closing sql DB", "error", err)
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			middleware.Logger.Error("error closing redis", "error", err)
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
