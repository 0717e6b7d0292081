package handler

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/fypdesk/fyp-api/internal/dto"
	"github.com/fypdesk/fyp-api/internal/service"
	"github.com/fypdesk/fyp-api/internal/utils"
)

// DocumentHandler wires deliverable upload and review HTTP routes.
type DocumentHandler struct {
	service service.DocumentService
	logger  zerolog.Logger
}

// NewDocumentHandler constructs the handler.
func NewDocumentHandler(service service.DocumentService, logger zerolog.Logger) *DocumentHandler {
	return &DocumentHandler{
		service: service,
		logger:  logger.With().Str("component", "document_handler").Logger(),
	}
}

// Register attaches document endpoints. Uploads belong to students, review
// verdicts to supervisors, finalization and windows to the coordinator.
func (h *DocumentHandler) Register(common fiber.Router, student fiber.Router, supervisor fiber.Router, coordinator fiber.Router) {
	common.Get("", h.list)
	common.Get("/windows", h.listWindows)
	common.Get("/:id", h.get)
	common.Get("/:id/download", h.download)

	student.Post("", h.upload)

	supervisor.Post("/:id/supervisor-review", h.supervisorReview)

	coordinator.Post("/:id/finalize", h.finalize)
	coordinator.Put("/windows", h.upsertWindow)
}

func (h *DocumentHandler) list(c *fiber.Ctx) error {
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
	studentID, err := parseQueryUint(c, "student_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid student id")
	}

	response, err := h.service.List(c.UserContext(), dto.DocumentListRequest{
		Page:         page,
		PageSize:     pageSize,
		GroupID:      groupID,
		StudentID:    studentID,
		DocumentType: c.Query("document_type"),
		Status:       c.Query("status"),
	})
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "documents retrieved", response)
}

func (h *DocumentHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	document, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "document retrieved", document)
}

func (h *DocumentHandler) upload(c *fiber.Ctx) error {
	groupID, err := strconv.ParseUint(c.FormValue("group_id"), 10, 64)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid group id")
	}

	sequence := 0
	if raw := c.FormValue("sequence"); raw != "" {
		sequence, err = strconv.Atoi(raw)
		if err != nil || sequence < 0 {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid sequence")
		}
	}

	var version uint64
	if raw := c.FormValue("version"); raw != "" {
		version, err = strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid version")
		}
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "file is required")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return respondError(c, h.logger, err)
	}
	defer file.Close()

	document, err := h.service.Upload(c.UserContext(), actorFromContext(c), service.DocumentUpload{
		GroupID:      uint(groupID),
		DocumentType: c.FormValue("document_type"),
		Sequence:     sequence,
		FileName:     fileHeader.Filename,
		Content:      file,
		Version:      uint(version),
	})
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "document uploaded", document)
}

func (h *DocumentHandler) download(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	document, rc, err := h.service.Download(c.UserContext(), actorFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	c.Set(fiber.HeaderContentType, document.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", document.FileName))
	return c.SendStream(rc)
}

func (h *DocumentHandler) supervisorReview(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.DocumentReviewRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	document, err := h.service.SupervisorReview(c.UserContext(), actorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "document reviewed", document)
}

func (h *DocumentHandler) finalize(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.DocumentReviewRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	document, err := h.service.CoordinatorFinalize(c.UserContext(), actorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "document finalized", document)
}

func (h *DocumentHandler) upsertWindow(c *fiber.Ctx) error {
	var payload dto.DocumentWindowUpsertRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	window, err := h.service.UpsertWindow(c.UserContext(), actorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "upload window saved", window)
}

func (h *DocumentHandler) listWindows(c *fiber.Ctx) error {
	departmentID, err := parseQueryUint(c, "department_id")
	if err != nil || departmentID == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "department_id is required")
	}

	windows, err := h.service.ListWindows(c.UserContext(), departmentID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "upload windows retrieved", windows)
}
