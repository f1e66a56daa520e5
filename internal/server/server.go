// Package server contains the HTTP handlers for the publishing and analytics API.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"ampcast/internal/cache"
	"ampcast/internal/config"
	"ampcast/internal/credentials"
	"ampcast/internal/database"
	"ampcast/internal/middleware"
	"ampcast/internal/platform"
	"ampcast/internal/ratelimit"
	"ampcast/internal/repository"
	"ampcast/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	promMiddleware *fiberprometheus.FiberPrometheus

	postRepo       repository.PostRepository
	credentialRepo repository.CredentialRepository
	engagementRepo repository.EngagementRepository
	experimentRepo repository.ExperimentRepository
	timeSlotRepo   repository.TimeSlotRepository
	insightRepo    repository.InsightRepository

	resolver *credentials.Resolver
	registry *platform.Registry

	postService       *service.PostService
	credentialService *service.CredentialService
	publisher         *service.PublisherService
	collector         *service.CollectorService
	experiments       *service.ExperimentService
	timing            *service.TimingService
	insights          *service.InsightEmitter
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("ampcast-api"),
		postRepo:       repository.NewPostRepository(db),
		credentialRepo: repository.NewCredentialRepository(db),
		engagementRepo: repository.NewEngagementRepository(db),
		experimentRepo: repository.NewExperimentRepository(db),
		timeSlotRepo:   repository.NewTimeSlotRepository(db),
		insightRepo:    repository.NewInsightRepository(db),
	}

	resolver, err := credentials.NewResolver(s.credentialRepo, cfg.CredentialMasterKey, middleware.Logger)
	if err != nil {
		return nil, fmt.Errorf("credential resolver init failed: %w", err)
	}
	s.resolver = resolver
	s.registry = platform.NewDefaultRegistry(&http.Client{Timeout: cfg.PublishTimeout()})

	// Outbound throttle shared across replicas. Fails open so a Redis
	// outage degrades to unthrottled publishing instead of a stalled queue.
	var limiter *ratelimit.Limiter
	if redisClient != nil {
		limiter = ratelimit.New(redisClient, cfg.PlatformRateLimit, cfg.PlatformRateWindow(), ratelimit.FailOpen)
	}

	retry := platform.RetryPolicy{
		Attempts:  cfg.PublishRetryAttempts,
		BaseDelay: cfg.PublishRetryBase(),
		MaxDelay:  30 * time.Second,
	}

	s.insights = service.NewInsightEmitter(s.insightRepo)
	s.postService = service.NewPostService(s.postRepo)
	s.credentialService = service.NewCredentialService(s.credentialRepo, s.resolver)
	s.publisher = service.NewPublisherService(s.postRepo, s.resolver, s.registry, limiter, retry, cfg.PublishWorkers, cfg.PublishStaleLock())
	s.collector = service.NewCollectorService(s.postRepo, s.engagementRepo, s.resolver, s.registry, s.insights)
	s.experiments = service.NewExperimentService(s.experimentRepo, s.engagementRepo, s.postRepo, s.insights)
	s.timing = service.NewTimingService(s.postRepo, s.engagementRepo, s.timeSlotRepo, s.insights)

	return s, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}
	app.Use(middleware.ContextMiddleware())
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}
	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/api/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api", middleware.AuthRequired)

	// Run triggers are budgeted per user: cron and dashboards share the
	// same windows, counted in Redis so all replicas see them.
	publisher := api.Group("/publisher")
	publisher.Post("/run", middleware.RateLimit(s.redis, 6, time.Minute, "publisher_run"), s.RunPublisher)

	metrics := api.Group("/metrics")
	metrics.Post("/collect", middleware.RateLimit(s.redis, 30, time.Minute, "metrics_collect"), s.CollectMetrics)

	posts := api.Group("/posts")
	posts.Get("/", s.ListPosts)
	posts.Post("/", s.CreatePost)
	posts.Get("/:id/engagement", s.GetPostEngagement)
	posts.Post("/:id/schedule", s.SchedulePost)
	posts.Post("/:id/retry", s.RetryPost)
	posts.Get("/:id", s.GetPost)

	experiments := api.Group("/experiments")
	experiments.Post("/", s.CreateExperiment)
	experiments.Get("/", s.ListExperiments)
	experiments.Post("/:id/start", s.StartExperiment)
	experiments.Post("/:id/analyze", s.AnalyzeExperiment)
	experiments.Post("/:id/cancel", s.CancelExperiment)
	experiments.Get("/:id", s.GetExperiment)

	timing := api.Group("/timing")
	timing.Post("/recompute", middleware.RateLimit(s.redis, 6, time.Minute, "timing_recompute"), s.RecomputeTiming)
	timing.Get("/recommendations", s.GetTimingRecommendations)

	api.Get("/insights", s.ListInsights)

	creds := api.Group("/credentials")
	creds.Put("/:platform", s.StoreCredential)
	creds.Get("/:platform", s.GetCredentialStatus)
}

// Publisher returns the publisher service for out-of-process runners.
func (s *Server) Publisher() *service.PublisherService { return s.publisher }

// Timing returns the timing service for out-of-process runners.
func (s *Server) Timing() *service.TimingService { return s.timing }

// LivenessCheck reports process health only.
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// ReadinessCheck reports dependency health.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	checks := fiber.Map{"database": "ok", "redis": "ok"}
	status := fiber.StatusOK

	sqlDB, err := s.db.DB()
	if err != nil || sqlDB.PingContext(c.Context()) != nil {
		checks["database"] = "unavailable"
		status = fiber.StatusServiceUnavailable
	}
	if s.redis == nil {
		checks["redis"] = "not configured"
	} else if err := s.redis.Ping(c.Context()).Err(); err != nil {
		checks["redis"] = "unavailable"
	}

	return c.Status(status).JSON(fiber.Map{"status": checks})
}

// Shutdown releases server-held resources.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.redis != nil {
		cache.Close()
	}
	if sqlDB, err := s.db.DB(); err == nil {
		return sqlDB.Close()
	}
	return nil
}
