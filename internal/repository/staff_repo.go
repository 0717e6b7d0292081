package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/fypdesk/fyp-api/internal/models"
)

// StaffFilter filters staff list queries.
type StaffFilter struct {
	Page         int
	PageSize     int
	Search       string
	DepartmentID uint
}

// StaffRepository handles persistence for staff members.
type StaffRepository interface {
	Create(ctx context.Context, staff *models.Staff) error
	GetByID(ctx context.Context, id uint) (models.Staff, error)
	GetByUserID(ctx context.Context, userID uint) (models.Staff, error)
	GetByEmail(ctx context.Context, email string) (models.Staff, error)
	List(ctx context.Context, filter StaffFilter) ([]models.Staff, int64, error)
	Update(ctx context.Context, staff *models.Staff) error
	Delete(ctx context.Context, id uint) error
	CountSupervisedGroups(ctx context.Context, staffID uint) (int64, error)
	WithTx(tx *gorm.DB) StaffRepository
}

type staffRepository struct {
	db *gorm.DB
}

// NewStaffRepository constructs the repository implementation.
func NewStaffRepository(db *gorm.DB) StaffRepository {
	return &staffRepository{db: db}
}

func (r *staffRepository) WithTx(tx *gorm.DB) StaffRepository {
	return &staffRepository{db: tx}
}

func (r *staffRepository) Create(ctx context.Context, staff *models.Staff) error {
	return r.db.WithContext(ctx).Create(staff).Error
}

func (r *staffRepository) GetByID(ctx context.Context, id uint) (models.Staff, error) {
	var staff models.Staff
	if err := r.db.WithContext(ctx).First(&staff, id).Error; err != nil {
		return models.Staff{}, err
	}
	return staff, nil
}

func (r *staffRepository) GetByUserID(ctx context.Context, userID uint) (models.Staff, error) {
	var staff models.Staff
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&staff).Error; err != nil {
		return models.Staff{}, err
	}
	return staff, nil
}

func (r *staffRepository) GetByEmail(ctx context.Context, email string) (models.Staff, error) {
	var staff models.Staff
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&staff).Error
	if err != nil {
		return models.Staff{}, err
	}
	return staff, nil
}

func (r *staffRepository) List(ctx context.Context, filter StaffFilter) ([]models.Staff, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Staff{})
	if filter.DepartmentID != 0 {
		query = query.Where("department_id = ?", filter.DepartmentID)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern)
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

	var staff []models.Staff
	if err := query.Order("name ASC").Find(&staff).Error; err != nil {
		return nil, 0, err
	}
	return staff, total, nil
}

func (r *staffRepository) Update(ctx context.Context, staff *models.Staff) error {
	return r.db.WithContext(ctx).Save(staff).Error
}

func (r *staffRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var staff models.Staff
		if err := tx.First(&staff, id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Staff{}, id).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", staff.UserID).Delete(&models.User{}).Error
	})
}

func (r *staffRepository) CountSupervisedGroups(ctx context.Context, staffID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.FYPGroup{}).
		Where("supervisor_id = ? AND supervisor_accepted_at IS NOT NULL AND status NOT IN ?",
			staffID, []models.GroupStatus{models.GroupRejected, models.GroupCompleted}).
		Count(&count).Error
	return count, err
}
