package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/fypdesk/fyp-api/internal/dto"
	"github.com/fypdesk/fyp-api/internal/service"
	"github.com/fypdesk/fyp-api/internal/utils"
)

// StaffHandler wires staff HTTP routes.
type StaffHandler struct {
	service service.StaffService
	logger  zerolog.Logger
}

// NewStaffHandler constructs the handler.
func NewStaffHandler(service service.StaffService, logger zerolog.Logger) *StaffHandler {
	return &StaffHandler{
		service: service,
		logger:  logger.With().Str("component", "staff_handler").Logger(),
	}
}

// Register attaches staff endpoints to the router group.
func (h *StaffHandler) Register(public fiber.Router, admin fiber.Router) {
	public.Get("", h.list)
	public.Get("/:id", h.get)
	admin.Post("", h.create)
	admin.Patch("/:id", h.update)
	admin.Delete("/:id", h.delete)
}

func (h *StaffHandler) list(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page size")
	}
	departmentID, err := parseQueryUint(c, "department_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid department id")
	}

	response, err := h.service.List(c.UserContext(), dto.StaffListRequest{
		Page:         page,
		PageSize:     pageSize,
		Search:       c.Query("search"),
		DepartmentID: departmentID,
	})
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "staff retrieved", response)
}

func (h *StaffHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	staff, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "staff member retrieved", staff)
}

func (h *StaffHandler) create(c *fiber.Ctx) error {
	var payload dto.StaffCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	staff, err := h.service.Create(c.UserContext(), actorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "staff member created", staff)
}

func (h *StaffHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.StaffUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	staff, err := h.service.Update(c.UserContext(), actorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "staff member updated", staff)
}

func (h *StaffHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.UserContext(), actorFromContext(c), id); err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "staff member deleted", fiber.Map{"id": id})
}
