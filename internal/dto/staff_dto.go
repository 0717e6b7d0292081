package dto

import (
	"time"

	"github.com/fypdesk/fyp-api/internal/models"
)

// StaffCreateRequest carries a new staff payload.
type StaffCreateRequest struct {
	Name         string `json:"name" validate:"required,min=2,max=255"`
	Email        string `json:"email" validate:"required,email"`
	Designation  string `json:"designation" validate:"omitempty,max=64"`
	DepartmentID uint   `json:"department_id" validate:"required"`
	Role         string `json:"role" validate:"required,oneof=supervisor coordinator hod committee evaluator"`
	MaxGroups    int    `json:"max_groups" validate:"omitempty,min=1,max=20"`
	Password     string `json:"password" validate:"required,min=8"`
}

// StaffUpdateRequest carries partial staff updates.
type StaffUpdateRequest struct {
	Name         *string `json:"name" validate:"omitempty,min=2,max=255"`
	Email        *string `json:"email" validate:"omitempty,email"`
	Designation  *string `json:"designation" validate:"omitempty,max=64"`
	DepartmentID *uint   `json:"department_id"`
	MaxGroups    *int    `json:"max_groups" validate:"omitempty,min=1,max=20"`
}

// StaffListRequest filters staff listings.
type StaffListRequest struct {
	Page         int
	PageSize     int
	Search       string
	DepartmentID uint
}

// StaffResponse serializes a staff member.
type StaffResponse struct {
	ID           uint      `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Designation  string    `json:"designation"`
	DepartmentID uint      `json:"department_id"`
	MaxGroups    int       `json:"max_groups"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// StaffListResponse wraps a paginated staff listing.
type StaffListResponse struct {
	Items      []StaffResponse `json:"items"`
	Pagination PaginationMeta  `json:"pagination"`
}

// NewStaffResponse converts a staff model into a DTO.
func NewStaffResponse(staff models.Staff) StaffResponse {
	return StaffResponse{
		ID:           staff.ID,
		Name:         staff.Name,
		Email:        staff.Email,
		Designation:  staff.Designation,
		DepartmentID: staff.DepartmentID,
		MaxGroups:    staff.MaxGroups,
		CreatedAt:    staff.CreatedAt,
		UpdatedAt:    staff.UpdatedAt,
	}
}
