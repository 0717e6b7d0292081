package models

import "time"

// Staff is a faculty member who can supervise groups and evaluate defenses.
type Staff struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	UserID       uint       `gorm:"uniqueIndex;not null" json:"user_id"`
	Name         string     `gorm:"size:255;not null" json:"name"`
	Email        string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Designation  string     `gorm:"size:64" json:"designation"`
	DepartmentID uint       `gorm:"not null;index" json:"department_id"`
	MaxGroups    int        `gorm:"not null;default:5" json:"max_groups"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Department   Department `gorm:"constraint:OnUpdate:CASCADE" json:"department"`
}
