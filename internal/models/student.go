package models

import "time"

// Student is an enrolled undergraduate eligible for FYP group membership.
type Student struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	UserID       uint       `gorm:"uniqueIndex;not null" json:"user_id"`
	EnrollmentID string     `gorm:"size:16;uniqueIndex;not null" json:"enrollment_id"`
	Name         string     `gorm:"size:255;not null" json:"name"`
	Email        string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	DepartmentID uint       `gorm:"not null;index" json:"department_id"`
	Batch        string     `gorm:"size:16" json:"batch"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Department   Department `gorm:"constraint:OnUpdate:CASCADE" json:"department"`
}
