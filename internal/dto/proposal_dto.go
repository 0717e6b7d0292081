package dto

import (
	"time"

	"github.com/fypdesk/fyp-api/internal/models"
)

// ProposalCreateRequest opens a draft proposal for a group and form type.
type ProposalCreateRequest struct {
	GroupID  uint   `json:"group_id" validate:"required"`
	FormType string `json:"form_type" validate:"required,oneof=form_a form_b form_c form_d"`
	Title    string `json:"title" validate:"required,min=3,max=255"`
	Abstract string `json:"abstract" validate:"omitempty,max=8000"`
}

// ProposalSubmitRequest submits a draft or revision for review.
type ProposalSubmitRequest struct {
	Version uint `json:"version" validate:"required,min=1"`
}

// ProposalReviewRequest carries the coordinator verdict.
type ProposalReviewRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approved rejected revision"`
	Note     string `json:"note" validate:"omitempty,max=4000"`
	Version  uint   `json:"version" validate:"required,min=1"`
}

// FormSubmissionResponse serializes a member's signature on a form.
type FormSubmissionResponse struct {
	StudentID   uint       `json:"student_id"`
	Submitted   bool       `json:"submitted"`
	SubmittedAt *time.Time `json:"submitted_at"`
}

// ProposalResponse serializes a proposal.
type ProposalResponse struct {
	ID          uint                     `json:"id"`
	GroupID     uint                     `json:"group_id"`
	FormType    string                   `json:"form_type"`
	Title       string                   `json:"title"`
	Abstract    string                   `json:"abstract"`
	Status      string                   `json:"status"`
	ReviewNote  string                   `json:"review_note,omitempty"`
	SubmittedAt *time.Time               `json:"submitted_at"`
	ReviewedAt  *time.Time               `json:"reviewed_at"`
	Version     uint                     `json:"version"`
	Submissions []FormSubmissionResponse `json:"submissions"`
	CreatedAt   time.Time                `json:"created_at"`
}

// NewProposalResponse converts a proposal model into a DTO.
func NewProposalResponse(proposal models.Proposal) ProposalResponse {
	submissions := make([]FormSubmissionResponse, 0, len(proposal.Submissions))
	for _, submission := range proposal.Submissions {
		submissions = append(submissions, FormSubmissionResponse{
			StudentID:   submission.StudentID,
			Submitted:   submission.Submitted,
			SubmittedAt: submission.SubmittedAt,
		})
	}

	return ProposalResponse{
		ID:          proposal.ID,
		GroupID:     proposal.GroupID,
		FormType:    string(proposal.FormType),
		Title:       proposal.Title,
		Abstract:    proposal.Abstract,
		Status:      string(proposal.Status),
		ReviewNote:  proposal.ReviewNote,
		SubmittedAt: proposal.SubmittedAt,
		ReviewedAt:  proposal.ReviewedAt,
		Version:     proposal.Version,
		Submissions: submissions,
		CreatedAt:   proposal.CreatedAt,
	}
}
