package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/fypdesk/fyp-api/internal/models"
)

// ProposalRepository handles persistence for proposals and member form
// submissions.
type ProposalRepository interface {
	Create(ctx context.Context, proposal *models.Proposal) error
	GetByID(ctx context.Context, id uint) (models.Proposal, error)
	GetByGroupAndForm(ctx context.Context, groupID uint, formType models.FormType) (models.Proposal, error)
	ListByGroup(ctx context.Context, groupID uint) ([]models.Proposal, error)
	UpdateVersioned(ctx context.Context, proposal *models.Proposal) error
	CreateSubmission(ctx context.Context, submission *models.StudentFormSubmission) error
	GetSubmission(ctx context.Context, proposalID, studentID uint) (models.StudentFormSubmission, error)
	UpdateSubmission(ctx context.Context, submission *models.StudentFormSubmission) error
	CountUnsubmitted(ctx context.Context, proposalID uint) (int64, error)
	WithTx(tx *gorm.DB) ProposalRepository
}

type proposalRepository struct {
	db *gorm.DB
}

// NewProposalRepository constructs the repository implementation.
func NewProposalRepository(db *gorm.DB) ProposalRepository {
	return &proposalRepository{db: db}
}

func (r *proposalRepository) WithTx(tx *gorm.DB) ProposalRepository {
	return &proposalRepository{db: tx}
}

func (r *proposalRepository) Create(ctx context.Context, proposal *models.Proposal) error {
	return r.db.WithContext(ctx).Create(proposal).Error
}

func (r *proposalRepository) GetByID(ctx context.Context, id uint) (models.Proposal, error) {
	var proposal models.Proposal
	if err := r.db.WithContext(ctx).Preload("Submissions").First(&proposal, id).Error; err != nil {
		return models.Proposal{}, err
	}
	return proposal, nil
}

func (r *proposalRepository) GetByGroupAndForm(ctx context.Context, groupID uint, formType models.FormType) (models.Proposal, error) {
	var proposal models.Proposal
	err := r.db.WithContext(ctx).
		Preload("Submissions").
		Where("group_id = ? AND form_type = ?", groupID, formType).
		First(&proposal).Error
	if err != nil {
		return models.Proposal{}, err
	}
	return proposal, nil
}

func (r *proposalRepository) ListByGroup(ctx context.Context, groupID uint) ([]models.Proposal, error) {
	var proposals []models.Proposal
	err := r.db.WithContext(ctx).
		Preload("Submissions").
		Where("group_id = ?", groupID).
		Order("form_type ASC").
		Find(&proposals).Error
	return proposals, err
}

func (r *proposalRepository) UpdateVersioned(ctx context.Context, proposal *models.Proposal) error {
	current := proposal.Version
	result := r.db.WithContext(ctx).Model(&models.Proposal{}).
		Where("id = ? AND version = ?", proposal.ID, current).
		Updates(map[string]interface{}{
			"title":        proposal.Title,
			"abstract":     proposal.Abstract,
			"status":       proposal.Status,
			"review_note":  proposal.ReviewNote,
			"submitted_at": proposal.SubmittedAt,
			"reviewed_at":  proposal.ReviewedAt,
			"reviewed_by":  proposal.ReviewedBy,
			"version":      current + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleVersion
	}
	proposal.Version = current + 1
	return nil
}

func (r *proposalRepository) CreateSubmission(ctx context.Context, submission *models.StudentFormSubmission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *proposalRepository) GetSubmission(ctx context.Context, proposalID, studentID uint) (models.StudentFormSubmission, error) {
	var submission models.StudentFormSubmission
	err := r.db.WithContext(ctx).
		Where("proposal_id = ? AND student_id = ?", proposalID, studentID).
		First(&submission).Error
	if err != nil {
		return models.StudentFormSubmission{}, err
	}
	return submission, nil
}

func (r *proposalRepository) UpdateSubmission(ctx context.Context, submission *models.StudentFormSubmission) error {
	return r.db.WithContext(ctx).Save(submission).Error
}

func (r *proposalRepository) CountUnsubmitted(ctx context.Context, proposalID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.StudentFormSubmission{}).
		Where("proposal_id = ? AND submitted = ?", proposalID, false).
		Count(&count).Error
	return count, err
}
