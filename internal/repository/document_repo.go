package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fypdesk/fyp-api/internal/models"
)

// DocumentFilter filters document list queries.
type DocumentFilter struct {
	Page         int
	PageSize     int
	GroupID      uint
	StudentID    uint
	DocumentType models.DocumentType
	Status       models.DocumentWorkflowStatus
}

// DocumentRepository handles persistence for student documents and upload
// windows.
type DocumentRepository interface {
	Create(ctx context.Context, document *models.StudentDocument) error
	GetByID(ctx context.Context, id uint) (models.StudentDocument, error)
	GetByOwner(ctx context.Context, groupID, studentID uint, docType models.DocumentType, sequence int) (models.StudentDocument, error)
	List(ctx context.Context, filter DocumentFilter) ([]models.StudentDocument, int64, error)
	UpdateVersioned(ctx context.Context, document *models.StudentDocument) error
	Replace(ctx context.Context, document *models.StudentDocument) error
	UpsertWindow(ctx context.Context, window *models.DocumentWindow) error
	GetWindow(ctx context.Context, departmentID uint, docType models.DocumentType, sequence int) (models.DocumentWindow, error)
	ListWindows(ctx context.Context, departmentID uint) ([]models.DocumentWindow, error)
}

type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository constructs the repository implementation.
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) Create(ctx context.Context, document *models.StudentDocument) error {
	return r.db.WithContext(ctx).Create(document).Error
}

func (r *documentRepository) GetByID(ctx context.Context, id uint) (models.StudentDocument, error) {
	var document models.StudentDocument
	if err := r.db.WithContext(ctx).First(&document, id).Error; err != nil {
		return models.StudentDocument{}, err
	}
	return document, nil
}

func (r *documentRepository) GetByOwner(ctx context.Context, groupID, studentID uint, docType models.DocumentType, sequence int) (models.StudentDocument, error) {
	var document models.StudentDocument
	err := r.db.WithContext(ctx).
		Where("group_id = ? AND student_id = ? AND document_type = ? AND sequence = ?", groupID, studentID, docType, sequence).
		First(&document).Error
	if err != nil {
		return models.StudentDocument{}, err
	}
	return document, nil
}

func (r *documentRepository) List(ctx context.Context, filter DocumentFilter) ([]models.StudentDocument, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.StudentDocument{})
	if filter.GroupID != 0 {
		query = query.Where("group_id = ?", filter.GroupID)
	}
	if filter.StudentID != 0 {
		query = query.Where("student_id = ?", filter.StudentID)
	}
	if filter.DocumentType != "" {
		query = query.Where("document_type = ?", filter.DocumentType)
	}
	if filter.Status != "" {
		query = query.Where("workflow_status = ?", filter.Status)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var documents []models.StudentDocument
	if err := query.Order("created_at DESC").Find(&documents).Error; err != nil {
		return nil, 0, err
	}
	return documents, total, nil
}

func (r *documentRepository) UpdateVersioned(ctx context.Context, document *models.StudentDocument) error {
	current := document.Version
	result := r.db.WithContext(ctx).Model(&models.StudentDocument{}).
		Where("id = ? AND version = ?", document.ID, current).
		Updates(map[string]interface{}{
			"workflow_status": document.WorkflowStatus,
			"review_note":     document.ReviewNote,
			"reviewed_by":     document.ReviewedBy,
			"reviewed_at":     document.ReviewedAt,
			"finalized_at":    document.FinalizedAt,
			"version":         current + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleVersion
	}
	document.Version = current + 1
	return nil
}

// Replace swaps the stored file of a resubmission and resets the workflow,
// guarded by the version token.
func (r *documentRepository) Replace(ctx context.Context, document *models.StudentDocument) error {
	current := document.Version
	result := r.db.WithContext(ctx).Model(&models.StudentDocument{}).
		Where("id = ? AND version = ?", document.ID, current).
		Updates(map[string]interface{}{
			"file_name":       document.FileName,
			"stored_path":     document.StoredPath,
			"size_bytes":      document.SizeBytes,
			"content_type":    document.ContentType,
			"workflow_status": document.WorkflowStatus,
			"review_note":     "",
			"reviewed_by":     nil,
			"reviewed_at":     nil,
			"version":         current + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleVersion
	}
	document.Version = current + 1
	return nil
}

func (r *documentRepository) UpsertWindow(ctx context.Context, window *models.DocumentWindow) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "department_id"}, {Name: "document_type"}, {Name: "sequence"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"is_unlocked", "deadline_date", "updated_at",
		}),
	}).Create(window).Error
}

func (r *documentRepository) GetWindow(ctx context.Context, departmentID uint, docType models.DocumentType, sequence int) (models.DocumentWindow, error) {
	var window models.DocumentWindow
	err := r.db.WithContext(ctx).
		Where("department_id = ? AND document_type = ? AND sequence = ?", departmentID, docType, sequence).
		First(&window).Error
	if err != nil {
		return models.DocumentWindow{}, err
	}
	return window, nil
}

func (r *documentRepository) ListWindows(ctx context.Context, departmentID uint) ([]models.DocumentWindow, error) {
	var windows []models.DocumentWindow
	err := r.db.WithContext(ctx).
		Where("department_id = ?", departmentID).
		Order("document_type ASC, sequence ASC").
		Find(&windows).Error
	return windows, err
}
