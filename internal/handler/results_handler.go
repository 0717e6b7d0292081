package handler

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/fypdesk/fyp-api/internal/dto"
	"github.com/fypdesk/fyp-api/internal/service"
	"github.com/fypdesk/fyp-api/internal/utils"
)

// ResultsHandler wires result compilation and project evaluation routes.
type ResultsHandler struct {
	results     service.ResultsService
	evaluations service.EvaluationService
	logger      zerolog.Logger
}

// NewResultsHandler constructs the handler.
func NewResultsHandler(results service.ResultsService, evaluations service.EvaluationService, logger zerolog.Logger) *ResultsHandler {
	return &ResultsHandler{
		results:     results,
		evaluations: evaluations,
		logger:      logger.With().Str("component", "results_handler").Logger(),
	}
}

// Register attaches result endpoints on coordinator/supervisor-gated groups.
func (h *ResultsHandler) Register(staff fiber.Router, coordinator fiber.Router, supervisor fiber.Router) {
	staff.Get("/group/:groupID", h.groupResults)
	staff.Get("/evaluation/:groupID", h.getEvaluation)

	coordinator.Post("/compile", h.compile)
	coordinator.Get("/export", h.exportCSV)
	coordinator.Post("/evaluation/:groupID/recompute", h.recompute)

	supervisor.Post("/group/:groupID/supervisor-marks", h.setSupervisorMarks)
}

func (h *ResultsHandler) compile(c *fiber.Ctx) error {
	var payload dto.ResultsCompileRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	results, err := h.results.Compile(c.UserContext(), actorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "results compiled", results)
}

func (h *ResultsHandler) groupResults(c *fiber.Ctx) error {
	groupID, err := parseUintParam(c, "groupID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	results, err := h.results.GroupResults(c.UserContext(), groupID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "results retrieved", results)
}

func (h *ResultsHandler) setSupervisorMarks(c *fiber.Ctx) error {
	groupID, err := parseUintParam(c, "groupID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.SupervisorMarksRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.results.SetSupervisorMarks(c.UserContext(), actorFromContext(c), groupID, payload); err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "supervisor marks recorded", fiber.Map{"group_id": groupID})
}

func (h *ResultsHandler) exportCSV(c *fiber.Ctx) error {
	departmentID, err := parseQueryUint(c, "department_id")
	if err != nil || departmentID == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "department_id is required")
	}

	filename := fmt.Sprintf("fyp-results-%d-%s.csv", departmentID, time.Now().Format("2006-01-02"))
	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))

	if err := h.results.ExportCSV(c.UserContext(), departmentID, c.Response().BodyWriter()); err != nil {
		return respondError(c, h.logger, err)
	}
	return nil
}

func (h *ResultsHandler) getEvaluation(c *fiber.Ctx) error {
	groupID, err := parseUintParam(c, "groupID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	evaluation, err := h.evaluations.Get(c.UserContext(), groupID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "evaluation retrieved", evaluation)
}

func (h *ResultsHandler) recompute(c *fiber.Ctx) error {
	groupID, err := parseUintParam(c, "groupID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ProjectEvaluationRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	evaluation, err := h.evaluations.Recompute(c.UserContext(), actorFromContext(c), groupID, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "evaluation recomputed", evaluation)
}
