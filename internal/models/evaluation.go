package models

import "time"

// ProjectEvaluation is the denormalized per-group mark rollup. It is
// recomputed only by an explicit coordinator action; ComputedAt makes
// staleness visible to consumers.
type ProjectEvaluation struct {
	ID                     uint      `gorm:"primaryKey" json:"id"`
	GroupID                uint      `gorm:"not null;uniqueIndex" json:"group_id"`
	CoordinatorTimeline    float64   `gorm:"not null;default:0" json:"coordinator_timeline_marks"`
	SupervisorProgress     float64   `gorm:"not null;default:0" json:"supervisor_progress_marks"`
	InitialDefenseAverage  float64   `gorm:"not null;default:0" json:"initial_defense_marks"`
	MidTermDefenseAverage  float64   `gorm:"not null;default:0" json:"mid_defense_marks"`
	FinalDefenseAverage    float64   `gorm:"not null;default:0" json:"final_defense_marks"`
	TotalMarks             float64   `gorm:"not null;default:0" json:"total_marks"`
	Grade                  string    `gorm:"size:4" json:"grade"`
	ComputedAt             time.Time `json:"computed_at"`
	ComputedByStaffID      uint      `json:"computed_by_staff_id"`
	Version                uint      `gorm:"not null;default:1" json:"version"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}
