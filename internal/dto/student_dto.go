package dto

import (
	"time"

	"github.com/fypdesk/fyp-api/internal/models"
)

// StudentCreateRequest carries a new student payload. EnrollmentID must
// match the departmental format, enforced by the enrollment_id tag.
type StudentCreateRequest struct {
	EnrollmentID string `json:"enrollment_id" validate:"required,enrollment_id"`
	Name         string `json:"name" validate:"required,min=2,max=255"`
	Email        string `json:"email" validate:"required,email"`
	DepartmentID uint   `json:"department_id" validate:"required"`
	Batch        string `json:"batch" validate:"omitempty,max=16"`
	Password     string `json:"password" validate:"required,min=8"`
}

// StudentUpdateRequest carries partial student updates.
type StudentUpdateRequest struct {
	EnrollmentID *string `json:"enrollment_id" validate:"omitempty,enrollment_id"`
	Name         *string `json:"name" validate:"omitempty,min=2,max=255"`
	Email        *string `json:"email" validate:"omitempty,email"`
	DepartmentID *uint   `json:"department_id"`
	Batch        *string `json:"batch" validate:"omitempty,max=16"`
}

// StudentListRequest filters student listings.
type StudentListRequest struct {
	Page         int
	PageSize     int
	Search       string
	DepartmentID uint
	Batch        string
}

// StudentResponse serializes a student.
type StudentResponse struct {
	ID           uint      `json:"id"`
	EnrollmentID string    `json:"enrollment_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	DepartmentID uint      `json:"department_id"`
	Batch        string    `json:"batch"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// StudentListResponse wraps a paginated student listing.
type StudentListResponse struct {
	Items      []StudentResponse `json:"items"`
	Pagination PaginationMeta    `json:"pagination"`
}

// NewStudentResponse converts a student model into a DTO.
func NewStudentResponse(student models.Student) StudentResponse {
	return StudentResponse{
		ID:           student.ID,
		EnrollmentID: student.EnrollmentID,
		Name:         student.Name,
		Email:        student.Email,
		DepartmentID: student.DepartmentID,
		Batch:        student.Batch,
		CreatedAt:    student.CreatedAt,
		UpdatedAt:    student.UpdatedAt,
	}
}
