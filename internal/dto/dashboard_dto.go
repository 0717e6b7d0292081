package dto

import "time"

// StudentDashboardResponse aggregates a student's FYP standing.
type StudentDashboardResponse struct {
	GroupID          *uint                  `json:"group_id"`
	GroupName        string                 `json:"group_name,omitempty"`
	GroupStatus      string                 `json:"group_status,omitempty"`
	PendingDocuments []PendingDocument      `json:"pending_documents"`
	UpcomingDefenses []UpcomingDefense      `json:"upcoming_defenses"`
	Result           *MemberResultResponse  `json:"result,omitempty"`
	CacheHit         bool                   `json:"cache_hit,omitempty"`
}

// PendingDocument names an open upload window the student has not used.
type PendingDocument struct {
	DocumentType string     `json:"document_type"`
	Sequence     int        `json:"sequence"`
	DeadlineDate *time.Time `json:"deadline_date"`
}

// UpcomingDefense summarizes a scheduled session for the student's group.
type UpcomingDefense struct {
	DefenseID   uint      `json:"defense_id"`
	Type        string    `json:"type"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Venue       string    `json:"venue"`
}
