package dto

import (
	"time"

	"github.com/fypdesk/fyp-api/internal/models"
)

// NotificationCreateRequest carries a manually published notification.
type NotificationCreateRequest struct {
	Audience     string     `json:"audience" validate:"required,oneof=students group committee supervisor evaluator coordinator"`
	DepartmentID *uint      `json:"department_id"`
	GroupID      *uint      `json:"group_id"`
	Title        string     `json:"title" validate:"required,min=3,max=255"`
	Message      string     `json:"message" validate:"required,min=3"`
	ExpiresAt    *time.Time `json:"expires_at"`
}

// NotificationResponse serializes a notification.
type NotificationResponse struct {
	ID           uint       `json:"id"`
	Audience     string     `json:"audience"`
	DepartmentID *uint      `json:"department_id"`
	GroupID      *uint      `json:"group_id"`
	Title        string     `json:"title"`
	Message      string     `json:"message"`
	ExpiresAt    *time.Time `json:"expires_at"`
	CreatedAt    time.Time  `json:"created_at"`
}

// NotificationListResponse wraps a paginated notification listing.
type NotificationListResponse struct {
	Items      []NotificationResponse `json:"items"`
	Pagination PaginationMeta         `json:"pagination"`
	CacheHit   bool                   `json:"cache_hit,omitempty"`
}

// NewNotificationResponse converts a notification model into a DTO.
func NewNotificationResponse(notification models.Notification) NotificationResponse {
	return NotificationResponse{
		ID:           notification.ID,
		Audience:     string(notification.Audience),
		DepartmentID: notification.DepartmentID,
		GroupID:      notification.GroupID,
		Title:        notification.Title,
		Message:      notification.Message,
		ExpiresAt:    notification.ExpiresAt,
		CreatedAt:    notification.CreatedAt,
	}
}
