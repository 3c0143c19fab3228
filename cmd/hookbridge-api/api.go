// Package main provides the HookBridge API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/hookbridge/hookbridge/pkg/eventbus"
	"github.com/hookbridge/hookbridge/pkg/persistence"
	"github.com/hookbridge/hookbridge/pkg/plugin"
	"github.com/hookbridge/hookbridge/pkg/web"
	"github.com/hookbridge/hookbridge/pkg/webhook"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *plugin.Registry
	eventBus    eventbus.EventBus
	publisher   message.Publisher
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	registry *plugin.Registry,
	eventBus eventbus.EventBus,
	publisher message.Publisher,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		registry:    registry,
		eventBus:    eventBus,
		publisher:   publisher,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	queue := webhook.NewQueue(a.publisher, a.logger)
	handlers := web.NewAPIHandlers(a.persistence, a.registry, a.eventBus, queue, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("HookBridge API")
	})

	p := app.Group("/plugins")
	p.Get("/", handlers.GetPlugins)
	p.Get("/:slug", handlers.GetPlugin)

	i := app.Group("/installations")
	i.Get("/", handlers.GetInstallations)
	i.Post("/", handlers.CreateInstallation)
	i.Delete("/:id", handlers.DeleteInstallation)

	w := app.Group("/webhooks")
	w.Get("/", handlers.GetSubscriptions)
	w.Post("/", handlers.CreateSubscription)
	w.Delete("/:id", handlers.DeleteSubscription)

	app.Post("/events", handlers.IngestEvent)
	app.Get("/dispatches", handlers.GetDispatches)
	app.Get("/deliveries", handlers.GetDeliveries)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
