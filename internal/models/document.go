package models

import "time"

// StudentDocument is one deliverable per (group, student, type, sequence).
// Sequence distinguishes periodic deliverables (log form 3, monthly report 2);
// it is 0 for one-shot types.
type StudentDocument struct {
	ID             uint                   `gorm:"primaryKey" json:"id"`
	GroupID        uint                   `gorm:"not null;uniqueIndex:idx_doc_owner" json:"group_id"`
	StudentID      uint                   `gorm:"not null;uniqueIndex:idx_doc_owner" json:"student_id"`
	DocumentType   DocumentType           `gorm:"size:32;not null;uniqueIndex:idx_doc_owner" json:"document_type"`
	Sequence       int                    `gorm:"not null;default:0;uniqueIndex:idx_doc_owner" json:"sequence"`
	FileName       string                 `gorm:"size:255;not null" json:"file_name"`
	StoredPath     string                 `gorm:"size:512;not null" json:"-"`
	SizeBytes      int64                  `gorm:"not null" json:"size_bytes"`
	ContentType    string                 `gorm:"size:128" json:"content_type"`
	WorkflowStatus DocumentWorkflowStatus `gorm:"size:32;not null" json:"workflow_status"`
	ReviewNote     string                 `gorm:"type:text" json:"review_note"`
	ReviewedBy     *uint                  `json:"reviewed_by"`
	ReviewedAt     *time.Time             `json:"reviewed_at"`
	FinalizedAt    *time.Time             `json:"finalized_at"`
	Version        uint                   `gorm:"not null;default:1" json:"version"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// IsFinalized reports whether the coordinator has locked the document.
func (d StudentDocument) IsFinalized() bool {
	return d.WorkflowStatus == DocumentCoordinatorFinalized
}

// NextStatusAfterSupervisor returns the status a supervisor verdict yields.
func (d StudentDocument) NextStatusAfterSupervisor(approved bool) DocumentWorkflowStatus {
	if approved {
		return DocumentSupervisorReviewed
	}
	return DocumentSupervisorRejected
}

// DocumentWindow controls whether a deliverable type accepts uploads for a
// department, and until when.
type DocumentWindow struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	DepartmentID uint         `gorm:"not null;uniqueIndex:idx_window" json:"department_id"`
	DocumentType DocumentType `gorm:"size:32;not null;uniqueIndex:idx_window" json:"document_type"`
	Sequence     int          `gorm:"not null;default:0;uniqueIndex:idx_window" json:"sequence"`
	IsUnlocked   bool         `gorm:"not null;default:false" json:"is_unlocked"`
	DeadlineDate *time.Time   `json:"deadline_date"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// AcceptsUploadAt reports whether an upload is allowed at the given instant.
func (w DocumentWindow) AcceptsUploadAt(at time.Time) bool {
	if !w.IsUnlocked {
		return false
	}
	if w.DeadlineDate != nil && at.After(*w.DeadlineDate) {
		return false
	}
	return true
}
