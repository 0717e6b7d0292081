package models

import "time"

// Proposal is one milestone form per (group, form type).
type Proposal struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	GroupID     uint           `gorm:"not null;uniqueIndex:idx_group_form" json:"group_id"`
	FormType    FormType       `gorm:"size:16;not null;uniqueIndex:idx_group_form" json:"form_type"`
	Title       string         `gorm:"size:255" json:"title"`
	Abstract    string         `gorm:"type:text" json:"abstract"`
	Status      ProposalStatus `gorm:"size:16;not null" json:"status"`
	ReviewNote  string         `gorm:"type:text" json:"review_note"`
	SubmittedAt *time.Time     `json:"submitted_at"`
	ReviewedAt  *time.Time     `json:"reviewed_at"`
	ReviewedBy  *uint          `json:"reviewed_by"`
	Version     uint           `gorm:"not null;default:1" json:"version"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`

	Group       FYPGroup                `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Submissions []StudentFormSubmission `json:"submissions"`
}

// CanSubmit reports whether the proposal may move to submitted.
func (p Proposal) CanSubmit() bool {
	return p.Status == ProposalDraft || p.Status == ProposalRevision
}

// IsReviewed reports whether coordinator review has concluded.
func (p Proposal) IsReviewed() bool {
	return p.Status == ProposalApproved || p.Status == ProposalRejected
}

// StudentFormSubmission is one member's signature on a proposal form.
type StudentFormSubmission struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	ProposalID  uint       `gorm:"not null;uniqueIndex:idx_proposal_student" json:"proposal_id"`
	StudentID   uint       `gorm:"not null;uniqueIndex:idx_proposal_student" json:"student_id"`
	Submitted   bool       `gorm:"not null;default:false" json:"submitted"`
	SubmittedAt *time.Time `json:"submitted_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
