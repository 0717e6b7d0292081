package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/fypdesk/fyp-api/internal/dto"
	"github.com/fypdesk/fyp-api/internal/service"
	"github.com/fypdesk/fyp-api/internal/utils"
)

// ProposalHandler wires Forms A-D HTTP routes.
type ProposalHandler struct {
	service service.ProposalService
	logger  zerolog.Logger
}

// NewProposalHandler constructs the handler.
func NewProposalHandler(service service.ProposalService, logger zerolog.Logger) *ProposalHandler {
	return &ProposalHandler{
		service: service,
		logger:  logger.With().Str("component", "proposal_handler").Logger(),
	}
}

// Register attaches proposal endpoints. Drafting and sign-off belong to
// students; review belongs to the committee/coordinator group.
func (h *ProposalHandler) Register(common fiber.Router, student fiber.Router, reviewer fiber.Router) {
	common.Get("/:id", h.get)
	common.Get("/group/:groupID", h.listByGroup)

	student.Post("", h.createDraft)
	student.Post("/:id/signoff", h.signOff)
	student.Post("/:id/submit", h.submit)

	reviewer.Post("/:id/review", h.review)
}

func (h *ProposalHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	proposal, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "proposal retrieved", proposal)
}

func (h *ProposalHandler) listByGroup(c *fiber.Ctx) error {
	groupID, err := parseUintParam(c, "groupID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	proposals, err := h.service.ListByGroup(c.UserContext(), groupID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "proposals retrieved", proposals)
}

func (h *ProposalHandler) createDraft(c *fiber.Ctx) error {
	var payload dto.ProposalCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	proposal, err := h.service.CreateDraft(c.UserContext(), actorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "proposal draft created", proposal)
}

func (h *ProposalHandler) signOff(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	proposal, err := h.service.SignOff(c.UserContext(), actorFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "form signed off", proposal)
}

func (h *ProposalHandler) submit(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ProposalSubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	proposal, err := h.service.Submit(c.UserContext(), actorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "proposal submitted", proposal)
}

func (h *ProposalHandler) review(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ProposalReviewRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	proposal, err := h.service.Review(c.UserContext(), actorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "proposal reviewed", proposal)
}
