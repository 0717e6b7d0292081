package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/fypdesk/fyp-api/internal/middleware"
	"github.com/fypdesk/fyp-api/internal/models"
	"github.com/fypdesk/fyp-api/internal/repository"
	"github.com/fypdesk/fyp-api/internal/service"
	"github.com/fypdesk/fyp-api/internal/storage"
	"github.com/fypdesk/fyp-api/internal/utils"
)

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	value := c.Params(name)
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, errors.New("invalid identifier")
	}
	return uint(parsed), nil
}

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func parseQueryUint(c *fiber.Ctx, key string) (uint, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(parsed), nil
}

func actorFromContext(c *fiber.Ctx) service.Actor {
	actor := service.Actor{IPAddress: c.IP()}
	if v := c.Locals("user_id"); v != nil {
		if id, ok := v.(uint); ok {
			actor.UserID = id
		}
	}
	if v := c.Locals("user_role"); v != nil {
		if role, ok := v.(string); ok {
			actor.Role = models.Role(role)
		}
	}
	if v := c.Locals("department_id"); v != nil {
		if dept, ok := v.(uint); ok {
			actor.DepartmentID = &dept
		}
	}
	return actor
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

// respondError maps service errors onto HTTP statuses. Unknown errors are
// logged and returned as a generic 500 so internals never leak.
func respondError(c *fiber.Ctx, logger zerolog.Logger, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	case errors.Is(err, repository.ErrStaleVersion):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case isNotFound(err):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case isForbidden(err):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	case isBadRequest(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}

func isNotFound(err error) bool {
	for _, target := range []error{
		service.ErrGroupNotFound,
		service.ErrStudentNotFound,
		service.ErrStaffNotFound,
		service.ErrDepartmentNotFound,
		service.ErrProposalNotFound,
		service.ErrDocumentNotFound,
		service.ErrDefenseNotFound,
		service.ErrEvaluationNotFound,
		service.ErrTokenNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func isForbidden(err error) bool {
	for _, target := range []error{
		service.ErrNotGroupCreator,
		service.ErrNotGroupMember,
		service.ErrNotAssignedEvaluator,
		service.ErrAccountDisabled,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Uniqueness violations are validation failures, not conflicts; 409 is
// reserved for stale optimistic-lock writes.
func isBadRequest(err error) bool {
	for _, target := range []error{
		service.ErrDuplicateStudent,
		service.ErrDuplicateStaff,
		service.ErrDuplicateCode,
		service.ErrDuplicateProposal,
		service.ErrDuplicateDefense,
		service.ErrAlreadyInGroup,
		service.ErrRegistrationClosed,
		service.ErrGroupFull,
		service.ErrNoPendingInvite,
		service.ErrSupervisorCapacity,
		service.ErrInvalidTransition,
		service.ErrMembersPending,
		service.ErrProposalNotSubmittable,
		service.ErrProposalNotReviewable,
		service.ErrWindowClosed,
		service.ErrDocumentFinalized,
		service.ErrDocumentNotReviewable,
		service.ErrResultAlreadyRecorded,
		service.ErrMarksAlreadySubmitted,
		service.ErrMarksNotOpen,
		service.ErrMarksExceedMaximum,
		service.ErrInvalidDefenseStatus,
		service.ErrTokenNotUsable,
		storage.ErrExtensionNotAllowed,
		storage.ErrFileTooLarge,
		storage.ErrInvalidPath,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
