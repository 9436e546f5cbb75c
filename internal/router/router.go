package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/soltixdb/popstats/internal/blobstore"
	"github.com/soltixdb/popstats/internal/config"
	"github.com/soltixdb/popstats/internal/handlers"
	"github.com/soltixdb/popstats/internal/logging"
	"github.com/soltixdb/popstats/internal/middleware"
)

// Deps are the collaborators the routes are wired to
type Deps struct {
	Store    blobstore.Store
	Ingest   handlers.Invoker
	Analysis handlers.Invoker
	Gatherer prometheus.Gatherer
}

// Setup configures all routes and middlewares
func Setup(app *fiber.App, logger *logging.Logger, deps Deps, cfg config.Config) *handlers.Handler {
	h := handlers.New(logger, deps.Store, deps.Ingest, deps.Analysis, cfg.Bucket, cfg.Storage.Type)

	// Global middlewares
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-API-Key,X-Request-ID",
	}))
	app.Use(logging.FiberMiddleware(logger, "/health", "/metrics"))

	// Health and metrics (no auth required)
	app.Get("/health", h.Health)
	if deps.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	authMiddleware := middleware.APIKeyAuth(logger, cfg.Auth.APIKeys, cfg.Auth.Enabled)
	v1 := app.Group("/v1", authMiddleware)

	// Invocations run under the per-invocation deadline
	invoke := v1.Group("/invoke", middleware.InvokeTimeout(cfg.Server.InvokeTimeout))
	invoke.Post("/ingest", h.InvokeIngest)
	invoke.Post("/analysis", h.InvokeAnalysis)

	v1.Get("/artifacts/:key", h.GetArtifact)

	// 404 handler
	app.Use(h.NotFound)

	return h
}

// New creates a new Fiber app with configuration
func New(logger *logging.Logger, deps Deps, cfg config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "popstats",
		DisableStartupMessage: true,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	Setup(app, logger, deps, cfg)

	return app
}
