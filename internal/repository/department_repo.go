package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/fypdesk/fyp-api/internal/models"
)

// DepartmentFilter filters department list queries.
type DepartmentFilter struct {
	Page     int
	PageSize int
	Search   string
}

// DepartmentRepository handles persistence for departments.
type DepartmentRepository interface {
	Create(ctx context.Context, department *models.Department) error
	GetByID(ctx context.Context, id uint) (models.Department, error)
	GetByCode(ctx context.Context, code string) (models.Department, error)
	List(ctx context.Context, filter DepartmentFilter) ([]models.Department, int64, error)
	Update(ctx context.Context, department *models.Department) error
	Delete(ctx context.Context, id uint) error
}

type departmentRepository struct {
	db *gorm.DB
}

// NewDepartmentRepository constructs the repository implementation.
func NewDepartmentRepository(db *gorm.DB) DepartmentRepository {
	return &departmentRepository{db: db}
}

func (r *departmentRepository) Create(ctx context.Context, department *models.Department) error {
	return r.db.WithContext(ctx).Create(department).Error
}

func (r *departmentRepository) GetByID(ctx context.Context, id uint) (models.Department, error) {
	var department models.Department
	if err := r.db.WithContext(ctx).First(&department, id).Error; err != nil {
		return models.Department{}, err
	}
	return department, nil
}

func (r *departmentRepository) GetByCode(ctx context.Context, code string) (models.Department, error) {
	var department models.Department
	err := r.db.WithContext(ctx).
		Where("LOWER(code) = ?", strings.ToLower(strings.TrimSpace(code))).
		First(&department).Error
	if err != nil {
		return models.Department{}, err
	}
	return department, nil
}

func (r *departmentRepository) List(ctx context.Context, filter DepartmentFilter) ([]models.Department, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Department{})
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(code) LIKE ?", pattern, pattern)
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

	var departments []models.Department
	if err := query.Order("code ASC").Find(&departments).Error; err != nil {
		return nil, 0, err
	}
	return departments, total, nil
}

func (r *departmentRepository) Update(ctx context.Context, department *models.Department) error {
	return r.db.WithContext(ctx).Save(department).Error
}

func (r *departmentRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Department{}, id).Error
}
