package web

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/hookbridge/hookbridge/pkg/eventbus"
	"github.com/hookbridge/hookbridge/pkg/events"
	"github.com/hookbridge/hookbridge/pkg/models"
	"github.com/hookbridge/hookbridge/pkg/persistence"
	"github.com/hookbridge/hookbridge/pkg/plugin"
	"github.com/hookbridge/hookbridge/pkg/webhook"
)

type APIHandlers struct {
	persistence persistence.Persistence
	registry    *plugin.Registry
	eventBus    eventbus.EventPublisher
	queue       *webhook.Queue
	validator   *validator.Validate
}

func NewAPIHandlers(
	persistence persistence.Persistence,
	registry *plugin.Registry,
	eventBus eventbus.EventPublisher,
	queue *webhook.Queue,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		persistence: persistence,
		registry:    registry,
		eventBus:    eventBus,
		queue:       queue,
		validator:   validator,
	}
}

// Plugins

func (h *APIHandlers) GetPlugins(c fiber.Ctx) error {
	plugins := make([]PluginResponse, 0)

	for _, slug := range h.registry.Slugs() {
		def, err := h.registry.Get(slug)
		if err != nil {
			return internalError(c, err)
		}

		plugins = append(plugins, transformPluginResponse(def))
	}

	return c.JSON(fiber.Map{"plugins": plugins})
}

func (h *APIHandlers) GetPlugin(c fiber.Ctx) error {
	def, err := h.registry.Get(c.Params("slug"))
	if err != nil {
		if errors.Is(err, plugin.ErrPluginNotFound) {
			return notFound(c, err.Error())
		}

		return internalError(c, err)
	}

	return c.JSON(transformPluginResponse(def))
}

func transformPluginResponse(def *plugin.Definition) PluginResponse {
	actions := make([]string, 0, len(def.Actions))
	for name := range def.Actions {
		actions = append(actions, name)
	}

	return PluginResponse{
		Slug:         def.Slug,
		Name:         def.Name,
		Description:  def.Metadata.Description,
		Category:     def.Metadata.Category,
		LogoURL:      def.Metadata.LogoURL,
		DocsURL:      def.Metadata.DocsURL,
		Actions:      actions,
		ConfigSchema: def.ConfigSchema,
	}
}

// Installations

func (h *APIHandlers) CreateInstallation(c fiber.Ctx) error {
	var req CreateInstallationRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return badRequest(c, err.Error())
	}

	// Installation config must satisfy the plugin schema before anything is
	// stored; dispatch assumes stored configs are well-formed.
	if err := h.registry.ValidateConfig(req.PluginSlug, req.Config); err != nil {
		if errors.Is(err, plugin.ErrPluginNotFound) {
			return notFound(c, err.Error())
		}

		return badRequest(c, err.Error())
	}

	now := time.Now().UTC()
	installation := &models.Installation{
		ID:             uuid.New().String(),
		OrganizationID: req.OrganizationID,
		PluginSlug:     req.PluginSlug,
		Config:         req.Config,
		Events:         req.Events,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := h.persistence.Installations().Save(c.Context(), installation); err != nil {
		return internalError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(installation)
}

func (h *APIHandlers) GetInstallations(c fiber.Ctx) error {
	organizationID := c.Query("organization_id")
	if organizationID == "" {
		return badRequest(c, "organization_id query parameter is required")
	}

	installations, err := h.persistence.Installations().ListByOrganization(c.Context(), organizationID)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{"installations": installations})
}

func (h *APIHandlers) DeleteInstallation(c fiber.Ctx) error {
	if err := h.persistence.Installations().Delete(c.Context(), c.Params("id")); err != nil {
		return handleStorageError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Webhook subscriptions

func (h *APIHandlers) CreateSubscription(c fiber.Ctx) error {
	var req CreateSubscriptionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return badRequest(c, err.Error())
	}

	secret := req.Secret
	if secret == "" {
		secret = webhook.GenerateSecret()
	}

	now := time.Now().UTC()
	subscription := &models.Subscription{
		ID:             uuid.New().String(),
		OrganizationID: req.OrganizationID,
		URL:            req.URL,
		Secret:         secret,
		Events:         req.Events,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := h.persistence.Subscriptions().Save(c.Context(), subscription); err != nil {
		return internalError(c, err)
	}

	// The secret is returned once, on creation.
	return c.Status(fiber.StatusCreated).JSON(subscription)
}

func (h *APIHandlers) GetSubscriptions(c fiber.Ctx) error {
	organizationID := c.Query("organization_id")
	if organizationID == "" {
		return badRequest(c, "organization_id query parameter is required")
	}

	subscriptions, err := h.persistence.Subscriptions().ListByOrganization(c.Context(), organizationID)
	if err != nil {
		return internalError(c, err)
	}

	responses := make([]SubscriptionResponse, 0, len(subscriptions))
	for _, subscription := range subscriptions {
		responses = append(responses, TransformSubscriptionResponse(subscription))
	}

	return c.JSON(fiber.Map{"webhooks": responses})
}

func (h *APIHandlers) DeleteSubscription(c fiber.Ctx) error {
	if err := h.persistence.Subscriptions().Delete(c.Context(), c.Params("id")); err != nil {
		return handleStorageError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Events

// IngestEvent accepts a domain event, publishes it for plugin dispatch, and
// enqueues one webhook delivery per matching active subscription.
func (h *APIHandlers) IngestEvent(c fiber.Ctx) error {
	var req IngestEventRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return badRequest(c, err.Error())
	}

	event := events.NewEvent(req.Name, req.OrganizationID, req.Data)

	received := events.EventReceived{
		BaseEvent: events.NewBaseEvent(events.EventReceivedEvent, event.OrganizationID),
		Event:     event,
	}

	if err := h.eventBus.Publish(c.Context(), event.OrganizationID, received); err != nil {
		return internalError(c, err)
	}

	subscriptions, err := h.persistence.Subscriptions().ListByOrganization(c.Context(), event.OrganizationID)
	if err != nil {
		return internalError(c, err)
	}

	queued := 0

	for _, subscription := range subscriptions {
		if !subscription.Active || !subscription.Subscribed(event.Name) {
			continue
		}

		delivery := webhook.NewDelivery(*subscription, event.Name, map[string]any{
			"id":              event.ID,
			"event":           event.Name,
			"organization_id": event.OrganizationID,
			"timestamp":       event.Timestamp.Format(time.RFC3339),
			"data":            event.Data,
		})

		if err := h.queue.Enqueue(c.Context(), delivery); err != nil {
			return internalError(c, err)
		}

		queued++
	}

	return c.Status(fiber.StatusAccepted).JSON(IngestEventResponse{
		EventID:          event.ID,
		QueuedDeliveries: queued,
	})
}

// Records

func (h *APIHandlers) GetDispatches(c fiber.Ctx) error {
	organizationID := c.Query("organization_id")
	if organizationID == "" {
		return badRequest(c, "organization_id query parameter is required")
	}

	records, err := h.persistence.Dispatches().ListByOrganization(c.Context(), organizationID)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{"dispatches": records})
}

func (h *APIHandlers) GetDeliveries(c fiber.Ctx) error {
	subscriptionID := c.Query("subscription_id")
	if subscriptionID == "" {
		return badRequest(c, "subscription_id query parameter is required")
	}

	records, err := h.persistence.Deliveries().ListBySubscription(c.Context(), subscriptionID)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{"deliveries": records})
}

// Health

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	status := "healthy"
	httpStatus := fiber.StatusOK

	if err := h.persistence.HealthCheck(c.Context()); err != nil {
		status = "unhealthy"
		httpStatus = fiber.StatusServiceUnavailable
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status": status,
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
