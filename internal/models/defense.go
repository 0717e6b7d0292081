package models

import "time"

// Defense is one scheduled evaluation session per (group, type).
type Defense struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	GroupID     uint           `gorm:"not null;uniqueIndex:idx_group_defense" json:"group_id"`
	Type        DefenseType    `gorm:"size:16;not null;uniqueIndex:idx_group_defense" json:"type"`
	ScheduledAt time.Time      `gorm:"not null" json:"scheduled_at"`
	Venue       string         `gorm:"size:128" json:"venue"`
	Status      DefenseStatus  `gorm:"size:16;not null" json:"status"`
	Result      *DefenseResult `gorm:"size:16" json:"result"`
	ResultNote  string         `gorm:"type:text" json:"result_note"`
	ResultAt    *time.Time     `json:"result_at"`
	Version     uint           `gorm:"not null;default:1" json:"version"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`

	Group      FYPGroup           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Evaluators []DefenseEvaluator `json:"evaluators"`
	Marks      []DefenseMark      `json:"marks"`
}

// HasResult reports whether the panel verdict is already recorded. The
// verdict is write-once.
func (d Defense) HasResult() bool {
	return d.Result != nil
}

// AcceptsMarks reports whether evaluators may currently enter marks.
func (d Defense) AcceptsMarks() bool {
	return d.Status == DefenseInProgress || d.Status == DefenseCompleted
}

// DefenseEvaluator assigns a staff member to a defense panel.
type DefenseEvaluator struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	DefenseID         uint      `gorm:"not null;uniqueIndex:idx_defense_staff" json:"defense_id"`
	StaffID           uint      `gorm:"not null;uniqueIndex:idx_defense_staff" json:"staff_id"`
	HasSubmittedMarks bool      `gorm:"not null;default:false" json:"has_submitted_marks"`
	IsNotified        bool      `gorm:"not null;default:false" json:"is_notified"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`

	Staff Staff `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"staff"`
}

// DefenseMark is one evaluator's component scores for a defense.
type DefenseMark struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	DefenseID          uint      `gorm:"not null;uniqueIndex:idx_mark_owner" json:"defense_id"`
	EvaluatorStaffID   uint      `gorm:"not null;uniqueIndex:idx_mark_owner" json:"evaluator_staff_id"`
	PresentationMarks  float64   `gorm:"not null;default:0" json:"presentation_marks"`
	ImplementationMark float64   `gorm:"not null;default:0" json:"implementation_marks"`
	DocumentationMarks float64   `gorm:"not null;default:0" json:"documentation_marks"`
	QAMarks            float64   `gorm:"not null;default:0" json:"qa_marks"`
	TotalMarks         float64   `gorm:"not null;default:0" json:"total_marks"`
	Remarks            string    `gorm:"type:text" json:"remarks"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Sum recomputes the component total.
func (m *DefenseMark) Sum() float64 {
	m.TotalMarks = m.PresentationMarks + m.ImplementationMark + m.DocumentationMarks + m.QAMarks
	return m.TotalMarks
}
