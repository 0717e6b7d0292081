package models

import "time"

// ExternalToken grants a one-time, expiring, read-only view to an external
// evaluator. The token string is 32 random bytes in URL-safe base64 and is
// matched by direct equality.
type ExternalToken struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Token         string     `gorm:"size:64;uniqueIndex;not null" json:"token"`
	DefenseID     uint       `gorm:"not null;index" json:"defense_id"`
	EvaluatorName string     `gorm:"size:255" json:"evaluator_name"`
	IssuedBy      uint       `gorm:"not null" json:"issued_by"`
	ExpiresAt     time.Time  `gorm:"not null" json:"expires_at"`
	IsRevoked     bool       `gorm:"not null;default:false" json:"is_revoked"`
	UsedAt        *time.Time `json:"used_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Usable reports whether the token may still be redeemed.
func (t ExternalToken) Usable(at time.Time) bool {
	return !t.IsRevoked && t.UsedAt == nil && at.Before(t.ExpiresAt)
}
