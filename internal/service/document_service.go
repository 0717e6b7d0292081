package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/fypdesk/fyp-api/internal/dto"
	"github.com/fypdesk/fyp-api/internal/models"
	"github.com/fypdesk/fyp-api/internal/repository"
	"github.com/fypdesk/fyp-api/internal/storage"
)

var (
	// ErrDocumentNotFound indicates the document id matched no row.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrWindowClosed indicates the upload window is locked or past deadline.
	ErrWindowClosed = errors.New("upload window is closed")
	// ErrDocumentFinalized indicates a write against a finalized document.
	ErrDocumentFinalized = errors.New("document has been finalized")
	// ErrDocumentNotReviewable indicates a verdict from the wrong state.
	ErrDocumentNotReviewable = errors.New("document is not awaiting this review")
)

// DocumentUpload carries an upload parsed from a multipart request. Version
// is only consulted when the upload replaces an existing submission.
type DocumentUpload struct {
	GroupID      uint
	DocumentType string
	Sequence     int
	FileName     string
	Content      io.Reader
	Version      uint
}

// DocumentService drives deliverable uploads and their review workflow.
// Log forms pass through supervisor review before coordinator finalization;
// every other type goes to the coordinator directly.
type DocumentService interface {
	Get(ctx context.Context, id uint) (dto.DocumentResponse, error)
	List(ctx context.Context, req dto.DocumentListRequest) (dto.DocumentListResponse, error)
	Upload(ctx context.Context, actor Actor, upload DocumentUpload) (dto.DocumentResponse, error)
	Download(ctx context.Context, actor Actor, id uint) (dto.DocumentResponse, io.ReadCloser, error)
	SupervisorReview(ctx context.Context, actor Actor, id uint, payload dto.DocumentReviewRequest) (dto.DocumentResponse, error)
	CoordinatorFinalize(ctx context.Context, actor Actor, id uint, payload dto.DocumentReviewRequest) (dto.DocumentResponse, error)
	UpsertWindow(ctx context.Context, actor Actor, payload dto.DocumentWindowUpsertRequest) (dto.DocumentWindowResponse, error)
	ListWindows(ctx context.Context, departmentID uint) ([]dto.DocumentWindowResponse, error)
}

type documentService struct {
	documents repository.DocumentRepository
	groups    repository.GroupRepository
	students  repository.StudentRepository
	store     storage.Store
	validator *validator.Validate
	notifier  Notifier
	audit     AuditRecorder
	logger    zerolog.Logger
	now       func() time.Time
}

// NewDocumentService constructs the document service.
func NewDocumentService(documents repository.DocumentRepository, groups repository.GroupRepository, students repository.StudentRepository, store storage.Store, validate *validator.Validate, notifier Notifier, audit AuditRecorder, logger zerolog.Logger) DocumentService {
	return &documentService{
		documents: documents,
		groups:    groups,
		students:  students,
		store:     store,
		validator: validate,
		notifier:  notifier,
		audit:     audit,
		logger:    logger.With().Str("component", "document_service").Logger(),
		now:       time.Now,
	}
}

func (s *documentService) Get(ctx context.Context, id uint) (dto.DocumentResponse, error) {
	document, err := s.documents.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DocumentResponse{}, ErrDocumentNotFound
		}
		return dto.DocumentResponse{}, err
	}
	return dto.NewDocumentResponse(document), nil
}

func (s *documentService) List(ctx context.Context, req dto.DocumentListRequest) (dto.DocumentListResponse, error) {
	page := maxInt(req.Page, 1)
	pageSize := clampPageSize(req.PageSize)

	filter := repository.DocumentFilter{
		Page:      page,
		PageSize:  pageSize,
		GroupID:   req.GroupID,
		StudentID: req.StudentID,
	}
	if req.DocumentType != "" {
		docType, ok := models.ParseDocumentType(req.DocumentType)
		if !ok {
			return dto.DocumentListResponse{}, fmt.Errorf("unknown document type %q", req.DocumentType)
		}
		filter.DocumentType = docType
	}
	if req.Status != "" {
		filter.Status = models.DocumentWorkflowStatus(req.Status)
	}

	documents, total, err := s.documents.List(ctx, filter)
	if err != nil {
		return dto.DocumentListResponse{}, err
	}

	items := make([]dto.DocumentResponse, 0, len(documents))
	for _, document := range documents {
		items = append(items, dto.NewDocumentResponse(document))
	}

	return dto.DocumentListResponse{
		Items:      items,
		Pagination: dto.NewPaginationMeta(page, pageSize, total),
	}, nil
}

// Upload stores the file and creates the document row, or replaces the file
// of an existing non-finalized submission, resetting its review state.
func (s *documentService) Upload(ctx context.Context, actor Actor, upload DocumentUpload) (dto.DocumentResponse, error) {
	docType, ok := models.ParseDocumentType(upload.DocumentType)
	if !ok {
		return dto.DocumentResponse{}, fmt.Errorf("unknown document type %q", upload.DocumentType)
	}

	group, err := s.groups.GetByID(ctx, upload.GroupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DocumentResponse{}, ErrGroupNotFound
		}
		return dto.DocumentResponse{}, err
	}

	student, err := s.students.GetByUserID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DocumentResponse{}, ErrStudentNotFound
		}
		return dto.DocumentResponse{}, err
	}
	if !s.isAcceptedMember(group, student.ID) {
		return dto.DocumentResponse{}, ErrNotGroupMember
	}

	window, err := s.documents.GetWindow(ctx, group.DepartmentID, docType, upload.Sequence)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DocumentResponse{}, ErrWindowClosed
		}
		return dto.DocumentResponse{}, err
	}
	if !window.AcceptsUploadAt(s.now()) {
		return dto.DocumentResponse{}, ErrWindowClosed
	}

	existing, err := s.documents.GetByOwner(ctx, group.ID, student.ID, docType, upload.Sequence)
	switch {
	case err == nil:
		return s.replaceDocument(ctx, actor, existing, upload)
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return dto.DocumentResponse{}, err
	}

	stored, err := s.store.Save(group.ID, string(docType), upload.FileName, upload.Content)
	if err != nil {
		return dto.DocumentResponse{}, err
	}

	document := models.StudentDocument{
		GroupID:        group.ID,
		StudentID:      student.ID,
		DocumentType:   docType,
		Sequence:       upload.Sequence,
		FileName:       upload.FileName,
		StoredPath:     stored.Path,
		SizeBytes:      stored.SizeBytes,
		ContentType:    stored.ContentType,
		WorkflowStatus: models.DocumentStudentSubmitted,
		Version:        1,
	}
	if err := s.documents.Create(ctx, &document); err != nil {
		if removeErr := s.store.Remove(stored.Path); removeErr != nil {
			s.logger.Warn().Err(removeErr).Str("path", stored.Path).Msg("failed to clean up orphaned upload")
		}
		return dto.DocumentResponse{}, err
	}

	s.notifier.Dispatch(ctx, []Event{
		DepartmentEvent(models.AudienceSupervisor, group.DepartmentID,
			"Document uploaded",
			fmt.Sprintf("Group %q uploaded %s.", group.Name, docType)),
	})

	return dto.NewDocumentResponse(document), nil
}

func (s *documentService) replaceDocument(ctx context.Context, actor Actor, existing models.StudentDocument, upload DocumentUpload) (dto.DocumentResponse, error) {
	if existing.IsFinalized() {
		return dto.DocumentResponse{}, ErrDocumentFinalized
	}

	stored, err := s.store.Save(existing.GroupID, string(existing.DocumentType), upload.FileName, upload.Content)
	if err != nil {
		return dto.DocumentResponse{}, err
	}

	oldPath := existing.StoredPath
	existing.FileName = upload.FileName
	existing.StoredPath = stored.Path
	existing.SizeBytes = stored.SizeBytes
	existing.ContentType = stored.ContentType
	existing.WorkflowStatus = models.DocumentStudentSubmitted
	if upload.Version != 0 {
		existing.Version = upload.Version
	}
	if err := s.documents.Replace(ctx, &existing); err != nil {
		if removeErr := s.store.Remove(stored.Path); removeErr != nil {
			s.logger.Warn().Err(removeErr).Str("path", stored.Path).Msg("failed to clean up orphaned upload")
		}
		return dto.DocumentResponse{}, err
	}
	if err := s.store.Remove(oldPath); err != nil {
		s.logger.Warn().Err(err).Str("path", oldPath).Msg("failed to remove replaced file")
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:      actor,
		Action:     "resubmit",
		EntityType: "document",
		EntityID:   &existing.ID,
	})

	return dto.NewDocumentResponse(existing), nil
}

// Download streams the stored file. Students may only fetch their own
// group's documents; staff access is gated by route middleware.
func (s *documentService) Download(ctx context.Context, actor Actor, id uint) (dto.DocumentResponse, io.ReadCloser, error) {
	document, err := s.documents.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DocumentResponse{}, nil, ErrDocumentNotFound
		}
		return dto.DocumentResponse{}, nil, err
	}

	if actor.Role == models.RoleStudent {
		student, err := s.students.GetByUserID(ctx, actor.UserID)
		if err != nil {
			return dto.DocumentResponse{}, nil, err
		}
		group, err := s.groups.GetByID(ctx, document.GroupID)
		if err != nil {
			return dto.DocumentResponse{}, nil, err
		}
		if !s.isAcceptedMember(group, student.ID) {
			return dto.DocumentResponse{}, nil, ErrNotGroupMember
		}
	}

	rc, err := s.store.Open(document.StoredPath)
	if err != nil {
		return dto.DocumentResponse{}, nil, err
	}
	return dto.NewDocumentResponse(document), rc, nil
}

// SupervisorReview records the supervisor verdict on a log form.
func (s *documentService) SupervisorReview(ctx context.Context, actor Actor, id uint, payload dto.DocumentReviewRequest) (dto.DocumentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.DocumentResponse{}, err
	}

	document, err := s.documents.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DocumentResponse{}, ErrDocumentNotFound
		}
		return dto.DocumentResponse{}, err
	}
	if !document.DocumentType.RequiresSupervisorReview() {
		return dto.DocumentResponse{}, fmt.Errorf("%w: %s does not take supervisor review", ErrDocumentNotReviewable, document.DocumentType)
	}
	if document.WorkflowStatus != models.DocumentStudentSubmitted {
		return dto.DocumentResponse{}, ErrDocumentNotReviewable
	}

	at := s.now()
	document.WorkflowStatus = document.NextStatusAfterSupervisor(payload.Approve)
	document.ReviewNote = payload.Note
	document.ReviewedBy = &actor.UserID
	document.ReviewedAt = &at
	document.Version = payload.Version
	if err := s.documents.UpdateVersioned(ctx, &document); err != nil {
		return dto.DocumentResponse{}, err
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:      actor,
		Action:     "supervisor_review",
		EntityType: "document",
		EntityID:   &document.ID,
		Details:    map[string]interface{}{"approved": payload.Approve},
	})
	s.notifier.Dispatch(ctx, []Event{
		GroupEvent(document.GroupID, "Document reviewed",
			fmt.Sprintf("Your %s has been %s by the supervisor.", document.DocumentType, verdictWord(payload.Approve))),
	})

	return dto.NewDocumentResponse(document), nil
}

// CoordinatorFinalize locks the document. A negative verdict sends it back
// to the student with the note instead.
func (s *documentService) CoordinatorFinalize(ctx context.Context, actor Actor, id uint, payload dto.DocumentReviewRequest) (dto.DocumentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.DocumentResponse{}, err
	}

	document, err := s.documents.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DocumentResponse{}, ErrDocumentNotFound
		}
		return dto.DocumentResponse{}, err
	}
	if document.IsFinalized() {
		return dto.DocumentResponse{}, ErrDocumentFinalized
	}

	expected := models.DocumentStudentSubmitted
	if document.DocumentType.RequiresSupervisorReview() {
		expected = models.DocumentSupervisorReviewed
	}
	if document.WorkflowStatus != expected {
		return dto.DocumentResponse{}, ErrDocumentNotReviewable
	}

	at := s.now()
	if payload.Approve {
		document.WorkflowStatus = models.DocumentCoordinatorFinalized
		document.FinalizedAt = &at
	} else {
		document.WorkflowStatus = models.DocumentStudentSubmitted
	}
	document.ReviewNote = payload.Note
	document.ReviewedBy = &actor.UserID
	document.ReviewedAt = &at
	document.Version = payload.Version
	if err := s.documents.UpdateVersioned(ctx, &document); err != nil {
		return dto.DocumentResponse{}, err
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:      actor,
		Action:     "finalize",
		EntityType: "document",
		EntityID:   &document.ID,
		Details:    map[string]interface{}{"approved": payload.Approve},
	})
	s.notifier.Dispatch(ctx, []Event{
		GroupEvent(document.GroupID, "Document finalized",
			fmt.Sprintf("Your %s has been %s by the coordinator.", document.DocumentType, verdictWord(payload.Approve))),
	})

	return dto.NewDocumentResponse(document), nil
}

// UpsertWindow opens or closes an upload window for a department.
func (s *documentService) UpsertWindow(ctx context.Context, actor Actor, payload dto.DocumentWindowUpsertRequest) (dto.DocumentWindowResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.DocumentWindowResponse{}, err
	}

	docType, ok := models.ParseDocumentType(payload.DocumentType)
	if !ok {
		return dto.DocumentWindowResponse{}, fmt.Errorf("unknown document type %q", payload.DocumentType)
	}

	window := models.DocumentWindow{
		DepartmentID: payload.DepartmentID,
		DocumentType: docType,
		Sequence:     payload.Sequence,
		IsUnlocked:   payload.IsUnlocked,
		DeadlineDate: payload.DeadlineDate,
	}
	if err := s.documents.UpsertWindow(ctx, &window); err != nil {
		return dto.DocumentWindowResponse{}, err
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:      actor,
		Action:     "upsert_window",
		EntityType: "document_window",
		EntityID:   &window.ID,
		Details: map[string]interface{}{
			"document_type": string(docType),
			"sequence":      payload.Sequence,
			"is_unlocked":   payload.IsUnlocked,
		},
	})

	if payload.IsUnlocked {
		s.notifier.Dispatch(ctx, []Event{
			DepartmentEvent(models.AudienceStudents, payload.DepartmentID,
				"Upload window opened",
				fmt.Sprintf("Uploads for %s are now open.", docType)),
		})
	}

	return dto.NewDocumentWindowResponse(window), nil
}

func (s *documentService) ListWindows(ctx context.Context, departmentID uint) ([]dto.DocumentWindowResponse, error) {
	windows, err := s.documents.ListWindows(ctx, departmentID)
	if err != nil {
		return nil, err
	}
	items := make([]dto.DocumentWindowResponse, 0, len(windows))
	for _, window := range windows {
		items = append(items, dto.NewDocumentWindowResponse(window))
	}
	return items, nil
}

func (s *documentService) isAcceptedMember(group models.FYPGroup, studentID uint) bool {
	for _, member := range group.Members {
		if member.StudentID == studentID && member.Status == models.MemberAccepted {
			return true
		}
	}
	return false
}

func verdictWord(approved bool) string {
	if approved {
		return "approved"
	}
	return "returned for changes"
}
