package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fypdesk/fyp-api/internal/models"
)

// EvaluationRepository handles persistence for project evaluation rollups.
type EvaluationRepository interface {
	GetByGroup(ctx context.Context, groupID uint) (models.ProjectEvaluation, error)
	Upsert(ctx context.Context, evaluation *models.ProjectEvaluation) error
	UpdateVersioned(ctx context.Context, evaluation *models.ProjectEvaluation) error
}

type evaluationRepository struct {
	db *gorm.DB
}

// NewEvaluationRepository constructs the repository implementation.
func NewEvaluationRepository(db *gorm.DB) EvaluationRepository {
	return &evaluationRepository{db: db}
}

func (r *evaluationRepository) GetByGroup(ctx context.Context, groupID uint) (models.ProjectEvaluation, error) {
	var evaluation models.ProjectEvaluation
	if err := r.db.WithContext(ctx).Where("group_id = ?", groupID).First(&evaluation).Error; err != nil {
		return models.ProjectEvaluation{}, err
	}
	return evaluation, nil
}

func (r *evaluationRepository) Upsert(ctx context.Context, evaluation *models.ProjectEvaluation) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "group_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"coordinator_timeline", "supervisor_progress",
			"initial_defense_average", "mid_term_defense_average", "final_defense_average",
			"total_marks", "grade", "computed_at", "computed_by_staff_id", "updated_at",
		}),
	}).Create(evaluation).Error
}

func (r *evaluationRepository) UpdateVersioned(ctx context.Context, evaluation *models.ProjectEvaluation) error {
	current := evaluation.Version
	result := r.db.WithContext(ctx).Model(&models.ProjectEvaluation{}).
		Where("id = ? AND version = ?", evaluation.ID, current).
		Updates(map[string]interface{}{
			"coordinator_timeline":     evaluation.CoordinatorTimeline,
			"supervisor_progress":      evaluation.SupervisorProgress,
			"initial_defense_average":  evaluation.InitialDefenseAverage,
			"mid_term_defense_average": evaluation.MidTermDefenseAverage,
			"final_defense_average":    evaluation.FinalDefenseAverage,
			"total_marks":              evaluation.TotalMarks,
			"grade":                    evaluation.Grade,
			"computed_at":              evaluation.ComputedAt,
			"computed_by_staff_id":     evaluation.ComputedByStaffID,
			"version":                  current + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleVersion
	}
	evaluation.Version = current + 1
	return nil
}
