package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog records a privileged mutation: who did what to which entity,
// from where.
type AuditLog struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	ActorID    uint           `gorm:"not null;index" json:"actor_id"`
	ActorRole  Role           `gorm:"size:32;not null" json:"actor_role"`
	Action     string         `gorm:"size:64;not null;index" json:"action"`
	EntityType string         `gorm:"size:64;not null;index" json:"entity_type"`
	EntityID   *uint          `json:"entity_id"`
	Details    datatypes.JSON `json:"details"`
	IPAddress  string         `gorm:"size:64" json:"ip_address"`
	CreatedAt  time.Time      `json:"created_at"`
}
