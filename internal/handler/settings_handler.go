package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/fypdesk/fyp-api/internal/service"
	"github.com/fypdesk/fyp-api/internal/utils"
)

// SettingsHandler wires system setting routes.
type SettingsHandler struct {
	service service.SettingsService
	logger  zerolog.Logger
}

// NewSettingsHandler constructs the handler.
func NewSettingsHandler(service service.SettingsService, logger zerolog.Logger) *SettingsHandler {
	return &SettingsHandler{
		service: service,
		logger:  logger.With().Str("component", "settings_handler").Logger(),
	}
}

// Register attaches setting endpoints to an admin-gated group.
func (h *SettingsHandler) Register(admin fiber.Router) {
	admin.Get("", h.list)
	admin.Put("", h.set)
}

func (h *SettingsHandler) list(c *fiber.Ctx) error {
	settings, err := h.service.All(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "settings retrieved", settings)
}

func (h *SettingsHandler) set(c *fiber.Ctx) error {
	var payload struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	if err := c.BodyParser(&payload); err != nil || strings.TrimSpace(payload.Key) == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "key is required")
	}

	if err := h.service.Set(c.UserContext(), actorFromContext(c), payload.Key, payload.Value); err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "setting saved", fiber.Map{"key": payload.Key})
}
