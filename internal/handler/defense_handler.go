package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/fypdesk/fyp-api/internal/dto"
	"github.com/fypdesk/fyp-api/internal/service"
	"github.com/fypdesk/fyp-api/internal/utils"
)

// DefenseHandler wires defense scheduling and marking HTTP routes.
type DefenseHandler struct {
	service service.DefenseService
	logger  zerolog.Logger
}

// NewDefenseHandler constructs the handler.
func NewDefenseHandler(service service.DefenseService, logger zerolog.Logger) *DefenseHandler {
	return &DefenseHandler{
		service: service,
		logger:  logger.With().Str("component", "defense_handler").Logger(),
	}
}

// Register attaches defense endpoints. Scheduling and verdicts belong to the
// coordinator; mark submission to assigned evaluators.
func (h *DefenseHandler) Register(common fiber.Router, coordinator fiber.Router, evaluator fiber.Router) {
	common.Get("", h.list)
	common.Get("/:id", h.get)

	coordinator.Post("", h.schedule)
	coordinator.Post("/:id/evaluators", h.assignEvaluators)
	coordinator.Post("/:id/status", h.changeStatus)
	coordinator.Post("/:id/result", h.recordResult)

	evaluator.Post("/:id/marks", h.submitMarks)
}

func (h *DefenseHandler) list(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page size")
	}
	groupID, err := parseQueryUint(c, "group_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid group id")
	}
	departmentID, err := parseQueryUint(c, "department_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid department id")
	}

	response, err := h.service.List(c.UserContext(), dto.DefenseListRequest{
		Page:         page,
		PageSize:     pageSize,
		GroupID:      groupID,
		Type:         c.Query("type"),
		Status:       c.Query("status"),
		DepartmentID: departmentID,
	})
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "defenses retrieved", response)
}

func (h *DefenseHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	defense, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "defense retrieved", defense)
}

func (h *DefenseHandler) schedule(c *fiber.Ctx) error {
	var payload dto.DefenseScheduleRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	defense, err := h.service.Schedule(c.UserContext(), actorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "defense scheduled", defense)
}

func (h *DefenseHandler) assignEvaluators(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.DefenseAssignEvaluatorsRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	defense, err := h.service.AssignEvaluators(c.UserContext(), actorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "evaluators assigned", defense)
}

func (h *DefenseHandler) changeStatus(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.DefenseStatusRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	defense, err := h.service.ChangeStatus(c.UserContext(), actorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "defense status changed", defense)
}

func (h *DefenseHandler) recordResult(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.DefenseResultRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	defense, err := h.service.RecordResult(c.UserContext(), actorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "defense result recorded", defense)
}

func (h *DefenseHandler) submitMarks(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.DefenseMarkRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	defense, err := h.service.SubmitMarks(c.UserContext(), actorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "marks submitted", defense)
}
