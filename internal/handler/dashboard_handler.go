package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/fypdesk/fyp-api/internal/service"
	"github.com/fypdesk/fyp-api/internal/utils"
)

// DashboardHandler wires the student dashboard route.
type DashboardHandler struct {
	service service.DashboardService
	logger  zerolog.Logger
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service service.DashboardService, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: service,
		logger:  logger.With().Str("component", "dashboard_handler").Logger(),
	}
}

// Register attaches the dashboard endpoint to the student-gated group.
func (h *DashboardHandler) Register(student fiber.Router) {
	student.Get("/dashboard", h.studentDashboard)
}

func (h *DashboardHandler) studentDashboard(c *fiber.Ctx) error {
	dashboard, err := h.service.StudentDashboard(c.UserContext(), actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "dashboard retrieved", dashboard)
}
