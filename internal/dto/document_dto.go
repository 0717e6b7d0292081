package dto

import (
	"time"

	"github.com/fypdesk/fyp-api/internal/models"
)

// DocumentReviewRequest carries a supervisor or coordinator verdict on a
// submitted document.
type DocumentReviewRequest struct {
	Approve bool   `json:"approve"`
	Note    string `json:"note" validate:"omitempty,max=4000"`
	Version uint   `json:"version" validate:"required,min=1"`
}

// DocumentWindowUpsertRequest opens or closes an upload window.
type DocumentWindowUpsertRequest struct {
	DepartmentID uint       `json:"department_id" validate:"required"`
	DocumentType string     `json:"document_type" validate:"required"`
	Sequence     int        `json:"sequence" validate:"omitempty,min=0,max=12"`
	IsUnlocked   bool       `json:"is_unlocked"`
	DeadlineDate *time.Time `json:"deadline_date"`
}

// DocumentListRequest filters document listings.
type DocumentListRequest struct {
	Page         int
	PageSize     int
	GroupID      uint
	StudentID    uint
	DocumentType string
	Status       string
}

// DocumentResponse serializes a student document.
type DocumentResponse struct {
	ID             uint       `json:"id"`
	GroupID        uint       `json:"group_id"`
	StudentID      uint       `json:"student_id"`
	DocumentType   string     `json:"document_type"`
	Sequence       int        `json:"sequence"`
	FileName       string     `json:"file_name"`
	SizeBytes      int64      `json:"size_bytes"`
	ContentType    string     `json:"content_type"`
	WorkflowStatus string     `json:"workflow_status"`
	ReviewNote     string     `json:"review_note,omitempty"`
	ReviewedAt     *time.Time `json:"reviewed_at"`
	FinalizedAt    *time.Time `json:"finalized_at"`
	Version        uint       `json:"version"`
	CreatedAt      time.Time  `json:"created_at"`
}

// DocumentListResponse wraps a paginated document listing.
type DocumentListResponse struct {
	Items      []DocumentResponse `json:"items"`
	Pagination PaginationMeta     `json:"pagination"`
}

// DocumentWindowResponse serializes an upload window.
type DocumentWindowResponse struct {
	ID           uint       `json:"id"`
	DepartmentID uint       `json:"department_id"`
	DocumentType string     `json:"document_type"`
	Sequence     int        `json:"sequence"`
	IsUnlocked   bool       `json:"is_unlocked"`
	DeadlineDate *time.Time `json:"deadline_date"`
}

// NewDocumentResponse converts a document model into a DTO.
func NewDocumentResponse(document models.StudentDocument) DocumentResponse {
	return DocumentResponse{
		ID:             document.ID,
		GroupID:        document.GroupID,
		StudentID:      document.StudentID,
		DocumentType:   string(document.DocumentType),
		Sequence:       document.Sequence,
		FileName:       document.FileName,
		SizeBytes:      document.SizeBytes,
		ContentType:    document.ContentType,
		WorkflowStatus: string(document.WorkflowStatus),
		ReviewNote:     document.ReviewNote,
		ReviewedAt:     document.ReviewedAt,
		FinalizedAt:    document.FinalizedAt,
		Version:        document.Version,
		CreatedAt:      document.CreatedAt,
	}
}

// NewDocumentWindowResponse converts a window model into a DTO.
func NewDocumentWindowResponse(window models.DocumentWindow) DocumentWindowResponse {
	return DocumentWindowResponse{
		ID:           window.ID,
		DepartmentID: window.DepartmentID,
		DocumentType: string(window.DocumentType),
		Sequence:     window.Sequence,
		IsUnlocked:   window.IsUnlocked,
		DeadlineDate: window.DeadlineDate,
	}
}
