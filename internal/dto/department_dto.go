package dto

import (
	"time"

	"github.com/fypdesk/fyp-api/internal/models"
)

// DepartmentCreateRequest carries a new department payload.
type DepartmentCreateRequest struct {
	Code string `json:"code" validate:"required,min=2,max=16"`
	Name string `json:"name" validate:"required,min=2,max=255"`
}

// DepartmentUpdateRequest carries partial department updates.
type DepartmentUpdateRequest struct {
	Code *string `json:"code" validate:"omitempty,min=2,max=16"`
	Name *string `json:"name" validate:"omitempty,min=2,max=255"`
}

// DepartmentListRequest filters department listings.
type DepartmentListRequest struct {
	Page     int
	PageSize int
	Search   string
}

// DepartmentResponse serializes a department.
type DepartmentResponse struct {
	ID        uint      `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DepartmentListResponse wraps a paginated department listing.
type DepartmentListResponse struct {
	Items      []DepartmentResponse `json:"items"`
	Pagination PaginationMeta       `json:"pagination"`
}

// NewDepartmentResponse converts a department model into a DTO.
func NewDepartmentResponse(department models.Department) DepartmentResponse {
	return DepartmentResponse{
		ID:        department.ID,
		Code:      department.Code,
		Name:      department.Name,
		CreatedAt: department.CreatedAt,
		UpdatedAt: department.UpdatedAt,
	}
}
