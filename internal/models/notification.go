package models

import "time"

// Notification is an audience-scoped announcement row. Delivery is pull
// only; consumers poll for active, unexpired rows matching their audience
// and department.
type Notification struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Audience     Audience   `gorm:"size:32;not null;index" json:"audience"`
	DepartmentID *uint      `gorm:"index" json:"department_id"`
	GroupID      *uint      `gorm:"index" json:"group_id"`
	Title        string     `gorm:"size:255;not null" json:"title"`
	Message      string     `gorm:"type:text;not null" json:"message"`
	ExpiresAt    *time.Time `json:"expires_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// IsActiveAt reports whether the row should still be served.
func (n Notification) IsActiveAt(at time.Time) bool {
	return n.ExpiresAt == nil || n.ExpiresAt.After(at)
}
