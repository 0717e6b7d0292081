package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/fypdesk/fyp-api/internal/models"
)

// StudentFilter filters student list queries.
type StudentFilter struct {
	Page         int
	PageSize     int
	Search       string
	DepartmentID uint
	Batch        string
}

// StudentRepository handles persistence for students.
type StudentRepository interface {
	Create(ctx context.Context, student *models.Student) error
	GetByID(ctx context.Context, id uint) (models.Student, error)
	GetByUserID(ctx context.Context, userID uint) (models.Student, error)
	GetByEnrollmentID(ctx context.Context, enrollmentID string) (models.Student, error)
	GetByEmail(ctx context.Context, email string) (models.Student, error)
	List(ctx context.Context, filter StudentFilter) ([]models.Student, int64, error)
	Update(ctx context.Context, student *models.Student) error
	DeleteCascading(ctx context.Context, id uint) error
	WithTx(tx *gorm.DB) StudentRepository
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository constructs the repository implementation.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) WithTx(tx *gorm.DB) StudentRepository {
	return &studentRepository{db: tx}
}

func (r *studentRepository) Create(ctx context.Context, student *models.Student) error {
	return r.db.WithContext(ctx).Create(student).Error
}

func (r *studentRepository) GetByID(ctx context.Context, id uint) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).First(&student, id).Error; err != nil {
		return models.Student{}, err
	}
	return student, nil
}

func (r *studentRepository) GetByUserID(ctx context.Context, userID uint) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&student).Error; err != nil {
		return models.Student{}, err
	}
	return student, nil
}

func (r *studentRepository) GetByEnrollmentID(ctx context.Context, enrollmentID string) (models.Student, error) {
	var student models.Student
	err := r.db.WithContext(ctx).
		Where("enrollment_id = ?", strings.TrimSpace(enrollmentID)).
		First(&student).Error
	if err != nil {
		return models.Student{}, err
	}
	return student, nil
}

func (r *studentRepository) GetByEmail(ctx context.Context, email string) (models.Student, error) {
	var student models.Student
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&student).Error
	if err != nil {
		return models.Student{}, err
	}
	return student, nil
}

func (r *studentRepository) List(ctx context.Context, filter StudentFilter) ([]models.Student, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Student{})
	if filter.DepartmentID != 0 {
		query = query.Where("department_id = ?", filter.DepartmentID)
	}
	if filter.Batch != "" {
		query = query.Where("batch = ?", filter.Batch)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR enrollment_id LIKE ?", pattern, pattern, "%"+search+"%")
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

	var students []models.Student
	if err := query.Order("enrollment_id ASC").Find(&students).Error; err != nil {
		return nil, 0, err
	}
	return students, total, nil
}

func (r *studentRepository) Update(ctx context.Context, student *models.Student) error {
	return r.db.WithContext(ctx).Save(student).Error
}

// DeleteCascading removes the student along with dependent rows that would
// otherwise block the delete, and detaches audit references.
func (r *studentRepository) DeleteCascading(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var student models.Student
		if err := tx.First(&student, id).Error; err != nil {
			return err
		}

		if err := tx.Where("student_id = ?", id).Delete(&models.GroupMember{}).Error; err != nil {
			return err
		}
		if err := tx.Where("student_id = ?", id).Delete(&models.StudentDocument{}).Error; err != nil {
			return err
		}
		if err := tx.Where("student_id = ?", id).Delete(&models.StudentFormSubmission{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.AuditLog{}).
			Where("entity_type = ? AND entity_id = ?", "student", id).
			Update("entity_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Student{}, id).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", student.UserID).Delete(&models.User{}).Error
	})
}
