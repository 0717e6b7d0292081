package dto

import (
	"encoding/json"
	"time"

	"github.com/fypdesk/fyp-api/internal/models"
)

// AuditListRequest filters audit-log listings.
type AuditListRequest struct {
	Page       int
	PageSize   int
	ActorID    uint
	Action     string
	EntityType string
}

// AuditLogResponse serializes an audit entry.
type AuditLogResponse struct {
	ID         uint                   `json:"id"`
	ActorID    uint                   `json:"actor_id"`
	ActorRole  string                 `json:"actor_role"`
	Action     string                 `json:"action"`
	EntityType string                 `json:"entity_type"`
	EntityID   *uint                  `json:"entity_id"`
	Details    map[string]interface{} `json:"details,omitempty"`
	IPAddress  string                 `json:"ip_address"`
	CreatedAt  time.Time              `json:"created_at"`
}

// AuditListResponse wraps a paginated audit listing.
type AuditListResponse struct {
	Items      []AuditLogResponse `json:"items"`
	Pagination PaginationMeta     `json:"pagination"`
}

// NewAuditLogResponse converts an audit model into a DTO.
func NewAuditLogResponse(entry models.AuditLog) AuditLogResponse {
	var details map[string]interface{}
	if len(entry.Details) > 0 {
		_ = json.Unmarshal(entry.Details, &details)
	}

	return AuditLogResponse{
		ID:         entry.ID,
		ActorID:    entry.ActorID,
		ActorRole:  string(entry.ActorRole),
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Details:    details,
		IPAddress:  entry.IPAddress,
		CreatedAt:  entry.CreatedAt,
	}
}
