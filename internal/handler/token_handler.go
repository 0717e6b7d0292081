package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/fypdesk/fyp-api/internal/dto"
	"github.com/fypdesk/fyp-api/internal/service"
	"github.com/fypdesk/fyp-api/internal/utils"
)

// TokenHandler wires external evaluator token routes.
type TokenHandler struct {
	service service.TokenService
	logger  zerolog.Logger
}

// NewTokenHandler constructs the handler.
func NewTokenHandler(service service.TokenService, logger zerolog.Logger) *TokenHandler {
	return &TokenHandler{
		service: service,
		logger:  logger.With().Str("component", "token_handler").Logger(),
	}
}

// Register attaches token endpoints. Issue/list/revoke belong to the
// coordinator; redeem is public since external examiners have no account.
func (h *TokenHandler) Register(public fiber.Router, coordinator fiber.Router) {
	public.Post("/redeem", h.redeem)

	coordinator.Post("", h.issue)
	coordinator.Get("/defense/:defenseID", h.listByDefense)
	coordinator.Post("/revoke", h.revoke)
}

func (h *TokenHandler) issue(c *fiber.Ctx) error {
	var payload dto.ExternalTokenIssueRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	token, err := h.service.Issue(c.UserContext(), actorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "token issued", token)
}

func (h *TokenHandler) redeem(c *fiber.Ctx) error {
	var payload struct {
		Token string `json:"token"`
	}
	if err := c.BodyParser(&payload); err != nil || payload.Token == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "token is required")
	}

	token, err := h.service.Redeem(c.UserContext(), payload.Token)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "token redeemed", token)
}

func (h *TokenHandler) listByDefense(c *fiber.Ctx) error {
	defenseID, err := parseUintParam(c, "defenseID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	tokens, err := h.service.ListByDefense(c.UserContext(), defenseID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "tokens retrieved", tokens)
}

func (h *TokenHandler) revoke(c *fiber.Ctx) error {
	var payload struct {
		Token string `json:"token"`
	}
	if err := c.BodyParser(&payload); err != nil || payload.Token == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "token is required")
	}

	if err := h.service.Revoke(c.UserContext(), actorFromContext(c), payload.Token); err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "token revoked", nil)
}
