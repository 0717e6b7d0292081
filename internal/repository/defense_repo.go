package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/fypdesk/fyp-api/internal/models"
)

// DefenseFilter filters defense list queries.
type DefenseFilter struct {
	Page         int
	PageSize     int
	GroupID      uint
	Type         models.DefenseType
	Status       models.DefenseStatus
	DepartmentID uint
}

// DefenseRepository handles persistence for defenses, panels and marks.
type DefenseRepository interface {
	Create(ctx context.Context, defense *models.Defense) error
	GetByID(ctx context.Context, id uint) (models.Defense, error)
	GetByGroupAndType(ctx context.Context, groupID uint, defenseType models.DefenseType) (models.Defense, error)
	List(ctx context.Context, filter DefenseFilter) ([]models.Defense, int64, error)
	ListUpcomingForGroup(ctx context.Context, groupID uint) ([]models.Defense, error)
	UpdateVersioned(ctx context.Context, defense *models.Defense) error
	AddEvaluator(ctx context.Context, evaluator *models.DefenseEvaluator) error
	GetEvaluator(ctx context.Context, defenseID, staffID uint) (models.DefenseEvaluator, error)
	UpdateEvaluator(ctx context.Context, evaluator *models.DefenseEvaluator) error
	CreateMark(ctx context.Context, mark *models.DefenseMark) error
	AverageMarks(ctx context.Context, defenseID uint) (float64, int64, error)
	WithTx(tx *gorm.DB) DefenseRepository
}

type defenseRepository struct {
	db *gorm.DB
}

// NewDefenseRepository constructs the repository implementation.
func NewDefenseRepository(db *gorm.DB) DefenseRepository {
	return &defenseRepository{db: db}
}

func (r *defenseRepository) WithTx(tx *gorm.DB) DefenseRepository {
	return &defenseRepository{db: tx}
}

func (r *defenseRepository) Create(ctx context.Context, defense *models.Defense) error {
	return r.db.WithContext(ctx).Create(defense).Error
}

func (r *defenseRepository) GetByID(ctx context.Context, id uint) (models.Defense, error) {
	var defense models.Defense
	err := r.db.WithContext(ctx).
		Preload("Evaluators").
		Preload("Evaluators.Staff").
		Preload("Marks").
		First(&defense, id).Error
	if err != nil {
		return models.Defense{}, err
	}
	return defense, nil
}

func (r *defenseRepository) GetByGroupAndType(ctx context.Context, groupID uint, defenseType models.DefenseType) (models.Defense, error) {
	var defense models.Defense
	err := r.db.WithContext(ctx).
		Preload("Evaluators").
		Preload("Marks").
		Where("group_id = ? AND type = ?", groupID, defenseType).
		First(&defense).Error
	if err != nil {
		return models.Defense{}, err
	}
	return defense, nil
}

func (r *defenseRepository) List(ctx context.Context, filter DefenseFilter) ([]models.Defense, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Defense{})
	if filter.GroupID != 0 {
		query = query.Where("group_id = ?", filter.GroupID)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.DepartmentID != 0 {
		query = query.Joins("JOIN fyp_groups ON fyp_groups.id = defenses.group_id").
			Where("fyp_groups.department_id = ?", filter.DepartmentID)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var defenses []models.Defense
	err := query.
		Preload("Evaluators").
		Preload("Evaluators.Staff").
		Preload("Marks").
		Order("scheduled_at ASC").
		Find(&defenses).Error
	if err != nil {
		return nil, 0, err
	}
	return defenses, total, nil
}

func (r *defenseRepository) ListUpcomingForGroup(ctx context.Context, groupID uint) ([]models.Defense, error) {
	var defenses []models.Defense
	err := r.db.WithContext(ctx).
		Where("group_id = ? AND status = ?", groupID, models.DefenseScheduled).
		Order("scheduled_at ASC").
		Find(&defenses).Error
	return defenses, err
}

func (r *defenseRepository) UpdateVersioned(ctx context.Context, defense *models.Defense) error {
	current := defense.Version
	result := r.db.WithContext(ctx).Model(&models.Defense{}).
		Where("id = ? AND version = ?", defense.ID, current).
		Updates(map[string]interface{}{
			"scheduled_at": defense.ScheduledAt,
			"venue":        defense.Venue,
			"status":       defense.Status,
			"result":       defense.Result,
			"result_note":  defense.ResultNote,
			"result_at":    defense.ResultAt,
			"version":      current + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleVersion
	}
	defense.Version = current + 1
	return nil
}

func (r *defenseRepository) AddEvaluator(ctx context.Context, evaluator *models.DefenseEvaluator) error {
	return r.db.WithContext(ctx).Create(evaluator).Error
}

func (r *defenseRepository) GetEvaluator(ctx context.Context, defenseID, staffID uint) (models.DefenseEvaluator, error) {
	var evaluator models.DefenseEvaluator
	err := r.db.WithContext(ctx).
		Where("defense_id = ? AND staff_id = ?", defenseID, staffID).
		First(&evaluator).Error
	if err != nil {
		return models.DefenseEvaluator{}, err
	}
	return evaluator, nil
}

func (r *defenseRepository) UpdateEvaluator(ctx context.Context, evaluator *models.DefenseEvaluator) error {
	return r.db.WithContext(ctx).Save(evaluator).Error
}

func (r *defenseRepository) CreateMark(ctx context.Context, mark *models.DefenseMark) error {
	return r.db.WithContext(ctx).Create(mark).Error
}

// AverageMarks returns the cross-evaluator mean total and the number of
// mark rows it is based on.
func (r *defenseRepository) AverageMarks(ctx context.Context, defenseID uint) (float64, int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.DefenseMark{}).
		Where("defense_id = ?", defenseID).
		Count(&count).Error; err != nil {
		return 0, 0, err
	}
	if count == 0 {
		return 0, 0, nil
	}

	var average float64
	err := r.db.WithContext(ctx).Model(&models.DefenseMark{}).
		Where("defense_id = ?", defenseID).
		Select("AVG(total_marks)").
		Scan(&average).Error
	if err != nil {
		return 0, 0, err
	}
	return average, count, nil
}
