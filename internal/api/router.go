package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	_ "github.com/tazuo/autoloot/docs"
	"github.com/tazuo/autoloot/internal/domain"
	"github.com/tazuo/autoloot/internal/health"
	"github.com/tazuo/autoloot/internal/middleware"
	"github.com/tazuo/autoloot/internal/storage"
)

// RouterConfig contains configuration for the HTTP router
type RouterConfig struct {
	CORSOrigins    []string
	BodyLimit      int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	RateLimitRPS   int
	RateLimitBurst int
}

// RouterDependencies contains all dependencies needed by the router
type RouterDependencies struct {
	Engine         Engine
	World          World
	Moves          MoveSource
	HighlightRules *storage.RuleStore[domain.HighlightRule]
	LootEntries    *storage.RuleStore[domain.LootEntry]
	Health         *health.Checker
	Metrics        http.Handler
}

// RouterResult contains the configured app and cleanup function
type RouterResult struct {
	App     *fiber.App
	Cleanup func()
}

// SetupRouter creates and configures the Fiber app with all routes and middleware
func SetupRouter(deps RouterDependencies, config RouterConfig) *RouterResult {
	app := fiber.New(fiber.Config{
		BodyLimit:             config.BodyLimit,
		ReadTimeout:           config.ReadTimeout,
		WriteTimeout:          config.WriteTimeout,
		ErrorHandler:          customErrorHandler,
		DisableStartupMessage: true,
	})

	handlers := NewHandlers(deps.Engine, deps.World, deps.Moves, deps.Health)
	highlightHandlers := NewRuleHandlers("highlight", deps.HighlightRules, deps.Engine.RecheckAll)
	lootHandlers := NewRuleHandlers("autoloot", deps.LootEntries, nil)

	// Middleware pipeline (order is critical)

	app.Use(requestid.New(requestid.Config{
		Header:    "X-Request-ID",
		Generator: generateUUID,
	}))

	app.Use(structuredLoggingMiddleware())

	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e any) {
			log.Error().
				Str("request_id", requestID(c)).
				Interface("panic", e).
				Str("method", c.Method()).
				Str("path", c.Path()).
				Msg("Panic recovered")
		},
	}))

	app.Use(securityHeadersMiddleware())

	// Rate limiting runs before CORS so every request is counted.
	var stopRateLimiter func()
	if config.RateLimitRPS > 0 {
		rateLimiter := middleware.NewRateLimiter(config.RateLimitRPS, config.RateLimitBurst)
		stopRateLimiter = rateLimiter.StartCleanupRoutine()
		app.Use(rateLimiter.Middleware())
	}

	if len(config.CORSOrigins) > 0 {
		app.Use(cors.New(cors.Config{
			AllowOrigins:     strings.Join(config.CORSOrigins, ","),
			AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
			AllowHeaders:     "Origin,Content-Type,Accept,X-API-Key,X-Request-ID",
			AllowCredentials: false,
			MaxAge:           86400,
		}))
	}

	v1 := app.Group("/v1")

	highlightHandlers.register(v1.Group("/highlight/rules"))
	v1.Post("/highlight/recheck", handlers.RecheckHandler)
	v1.Get("/highlights/:serial", handlers.HighlightHandler)

	lootHandlers.register(v1.Group("/autoloot/entries"))
	v1.Post("/containers/:serial/loot", handlers.ForceLootHandler)
	v1.Get("/journal", handlers.JournalHandler)

	v1.Get("/settings", handlers.ListSettingsHandler)
	v1.Get("/settings/:name", handlers.GetSettingHandler)
	v1.Put("/settings/:name", handlers.PutSettingHandler)
	v1.Delete("/settings/:name", handlers.DeleteSettingHandler)

	v1.Get("/friends", handlers.ListFriendsHandler)
	v1.Put("/friends/:serial", handlers.PutFriendHandler)
	v1.Delete("/friends/:serial", handlers.DeleteFriendHandler)

	v1.Get("/status", handlers.StatusHandler)
	v1.Get("/profile", handlers.GetProfileHandler)
	v1.Patch("/profile", handlers.UpdateProfileHandler)

	// Host game-state feed
	v1.Post("/world/items", handlers.PutItemsHandler)
	v1.Delete("/world/items/:serial", handlers.DeleteItemHandler)
	v1.Put("/world/cursor", handlers.CursorHandler)
	v1.Post("/events", handlers.EventsHandler)
	v1.Post("/moves/take", handlers.MovesHandler)

	app.Get("/health", handlers.HealthHandler)
	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics))
	}

	// Swagger documentation endpoint
	app.Get("/swagger/*", swagger.HandlerDefault)

	cleanup := func() {
		if stopRateLimiter != nil {
			stopRateLimiter()
		}
	}

	return &RouterResult{App: app, Cleanup: cleanup}
}

// customErrorHandler handles Fiber framework errors
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}

	switch code {
	case fiber.StatusRequestEntityTooLarge:
		return sendError(c, domain.NewAppError(domain.ErrTooLarge, "Request payload too large", code, nil))
	case fiber.StatusBadRequest:
		return sendError(c, domain.NewAppError(domain.ErrInvalidInput, message, code, nil))
	case fiber.StatusNotFound, fiber.StatusMethodNotAllowed:
		return sendError(c, domain.NewAppError(domain.ErrNotFound, message, code, nil))
	default:
		return sendError(c, domain.NewAppError(domain.ErrInternal, message, code, nil))
	}
}

// generateUUID generates a UUID v4 for request tracking
func generateUUID() string {
	return uuid.New().String()
}

// structuredLoggingMiddleware logs one structured line per request
func structuredLoggingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}

		logEvent := log.Debug()
		if status >= 500 {
			logEvent = log.Error()
		} else if status >= 400 {
			logEvent = log.Warn()
		}

		logEvent.
			Str("request_id", requestID(c)).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("ip", c.IP()).
			Int("body_size", len(c.Body())).
			Int("response_size", len(c.Response().Body())).
			Msg("HTTP request processed")

		return err
	}
}

// securityHeadersMiddleware adds security headers
func securityHeadersMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "no-referrer")
		c.Set("Cache-Control", "no-store")
		return c.Next()
	}
}
