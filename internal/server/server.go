// Package server assembles the HTTP application: middleware, error handling and
// every route group under /api/v1.
package server

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/qolzam/natours/auth"
	"github.com/qolzam/natours/internal/apperror"
	"github.com/qolzam/natours/internal/cache"
	"github.com/qolzam/natours/internal/middleware/metrics"
	"github.com/qolzam/natours/internal/middleware/requestid"
	platformconfig "github.com/qolzam/natours/internal/platform/config"
	"github.com/qolzam/natours/internal/types"
	"github.com/qolzam/natours/reviews"
	"github.com/qolzam/natours/tours"
	"github.com/qolzam/natours/users"
)

const APIPrefix = "/api/v1"

// Deps holds the route handlers and shared middleware.
type Deps struct {
	Config  *platformconfig.Config
	Tours   *tours.ToursHandlers
	Reviews *reviews.ReviewsHandlers
	Users   *users.UsersHandlers
	Auth    *auth.AuthHandlers
	Protect fiber.Handler
	// Metrics is optional. When set, requests are counted and /metrics is served.
	Metrics *metrics.Metrics
	// Cache statistics are exported with the metrics when both are enabled.
	Cache *cache.GenericCacheService
}

// New builds the application. Every error returned by a handler or middleware,
// panics included, is rendered by the error normalizer.
func New(deps Deps) *fiber.App {
	cfg := deps.Config

	var opts []apperror.Option
	if deps.Metrics != nil {
		opts = append(opts, apperror.WithObserver(deps.Metrics.ObserveError))
		if deps.Cache.IsEnabled() {
			deps.Metrics.ObserveCache(deps.Cache)
		}
	}
	normalizer := apperror.NewNormalizer(apperror.ModeFor(cfg.App.Env), opts...)

	app := fiber.New(fiber.Config{
		AppName:      "natours",
		ErrorHandler: normalizer.Handler(),
		BodyLimit:    cfg.App.BodyLimit,
	})

	app.Use(recover.New(recover.Config{EnableStackTrace: cfg.IsDevelopment()}))
	app.Use(requestid.New())
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(types.RequestTimeName, time.Now().UTC().Format(time.RFC3339))
		return c.Next()
	})
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.App.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		AllowMethods: "GET, POST, PUT, DELETE, PATCH, OPTIONS",
	}))
	if cfg.IsDevelopment() {
		app.Use(logger.New(logger.Config{
			Format: "${time} ${method} ${path} ${status} ${latency} - ${bytesSent}\n",
		}))
	}
	if deps.Metrics != nil {
		app.Use(deps.Metrics.Middleware())
		app.Get("/metrics", deps.Metrics.Handler())
	}

	if cfg.IsDevelopment() {
		app.Get("/", func(c *fiber.Ctx) error {
			return c.SendString("API is running...")
		})
	}

	api := app.Group(APIPrefix)
	tours.RegisterRoutes(api, deps.Tours, deps.Protect)
	reviews.RegisterRoutes(api, deps.Reviews, deps.Protect)
	auth.RegisterRoutes(api, deps.Auth, deps.Protect, cfg.RateLimits)
	users.RegisterRoutes(api, deps.Users, deps.Protect)

	app.Use(func(c *fiber.Ctx) error {
		return apperror.Newf(http.StatusNotFound, "Can't find %s on this server!", c.OriginalURL())
	})
	return app
}
