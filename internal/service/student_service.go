package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/fypdesk/fyp-api/internal/dto"
	"github.com/fypdesk/fyp-api/internal/models"
	"github.com/fypdesk/fyp-api/internal/repository"
)

// ErrStudentNotFound indicates the student id matched no row.
var ErrStudentNotFound = errors.New("student not found")

// ErrDuplicateStudent indicates the email or enrollment id is taken.
var ErrDuplicateStudent = errors.New("student email or enrollment id already exists")

// StudentService exposes student CRUD. Creation also provisions the login
// identity; deletion cascades over the student's dependent rows.
type StudentService interface {
	List(ctx context.Context, req dto.StudentListRequest) (dto.StudentListResponse, error)
	Get(ctx context.Context, id uint) (dto.StudentResponse, error)
	Create(ctx context.Context, actor Actor, payload dto.StudentCreateRequest) (dto.StudentResponse, error)
	Update(ctx context.Context, actor Actor, id uint, payload dto.StudentUpdateRequest) (dto.StudentResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) error
}

type studentService struct {
	students  repository.StudentRepository
	users     repository.UserRepository
	tx        repository.Transactor
	validator *validator.Validate
	audit     AuditRecorder
	logger    zerolog.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(students repository.StudentRepository, users repository.UserRepository, tx repository.Transactor, validate *validator.Validate, audit AuditRecorder, logger zerolog.Logger) StudentService {
	return &studentService{
		students:  students,
		users:     users,
		tx:        tx,
		validator: validate,
		audit:     audit,
		logger:    logger.With().Str("component", "student_service").Logger(),
	}
}

func (s *studentService) List(ctx context.Context, req dto.StudentListRequest) (dto.StudentListResponse, error) {
	page := maxInt(req.Page, 1)
	pageSize := clampPageSize(req.PageSize)

	students, total, err := s.students.List(ctx, repository.StudentFilter{
		Page:         page,
		PageSize:     pageSize,
		Search:       req.Search,
		DepartmentID: req.DepartmentID,
		Batch:        req.Batch,
	})
	if err != nil {
		return dto.StudentListResponse{}, err
	}

	items := make([]dto.StudentResponse, 0, len(students))
	for _, student := range students {
		items = append(items, dto.NewStudentResponse(student))
	}

	return dto.StudentListResponse{
		Items:      items,
		Pagination: dto.NewPaginationMeta(page, pageSize, total),
	}, nil
}

func (s *studentService) Get(ctx context.Context, id uint) (dto.StudentResponse, error) {
	student, err := s.students.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StudentResponse{}, ErrStudentNotFound
		}
		return dto.StudentResponse{}, err
	}
	return dto.NewStudentResponse(student), nil
}

func (s *studentService) Create(ctx context.Context, actor Actor, payload dto.StudentCreateRequest) (dto.StudentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.StudentResponse{}, err
	}

	email := strings.ToLower(strings.TrimSpace(payload.Email))
	if err := s.ensureUnique(ctx, email, payload.EnrollmentID, 0); err != nil {
		return dto.StudentResponse{}, err
	}

	hash, err := HashPassword(payload.Password)
	if err != nil {
		return dto.StudentResponse{}, err
	}

	departmentID := payload.DepartmentID
	var student models.Student
	err = s.tx.WithinTransaction(ctx, func(txDB *gorm.DB) error {
		user := models.User{
			Email:        email,
			PasswordHash: hash,
			Role:         models.RoleStudent,
			DepartmentID: &departmentID,
			IsActive:     true,
		}
		if err := s.users.WithTx(txDB).Create(ctx, &user); err != nil {
			return err
		}

		student = models.Student{
			UserID:       user.ID,
			EnrollmentID: strings.TrimSpace(payload.EnrollmentID),
			Name:         strings.TrimSpace(payload.Name),
			Email:        email,
			DepartmentID: departmentID,
			Batch:        strings.TrimSpace(payload.Batch),
		}
		return s.students.WithTx(txDB).Create(ctx, &student)
	})
	if err != nil {
		return dto.StudentResponse{}, err
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:      actor,
		Action:     "create",
		EntityType: "student",
		EntityID:   &student.ID,
		Details:    map[string]interface{}{"enrollment_id": student.EnrollmentID},
	})

	return dto.NewStudentResponse(student), nil
}

func (s *studentService) Update(ctx context.Context, actor Actor, id uint, payload dto.StudentUpdateRequest) (dto.StudentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.StudentResponse{}, err
	}

	student, err := s.students.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StudentResponse{}, ErrStudentNotFound
		}
		return dto.StudentResponse{}, err
	}

	email := student.Email
	if payload.Email != nil {
		email = strings.ToLower(strings.TrimSpace(*payload.Email))
	}
	enrollmentID := student.EnrollmentID
	if payload.EnrollmentID != nil {
		enrollmentID = strings.TrimSpace(*payload.EnrollmentID)
	}
	if err := s.ensureUnique(ctx, email, enrollmentID, id); err != nil {
		return dto.StudentResponse{}, err
	}

	student.Email = email
	student.EnrollmentID = enrollmentID
	if payload.Name != nil {
		student.Name = strings.TrimSpace(*payload.Name)
	}
	if payload.DepartmentID != nil {
		student.DepartmentID = *payload.DepartmentID
	}
	if payload.Batch != nil {
		student.Batch = strings.TrimSpace(*payload.Batch)
	}

	if err := s.students.Update(ctx, &student); err != nil {
		return dto.StudentResponse{}, err
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:      actor,
		Action:     "update",
		EntityType: "student",
		EntityID:   &student.ID,
	})

	return dto.NewStudentResponse(student), nil
}

func (s *studentService) Delete(ctx context.Context, actor Actor, id uint) error {
	if _, err := s.students.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStudentNotFound
		}
		return err
	}

	if err := s.students.DeleteCascading(ctx, id); err != nil {
		return err
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:      actor,
		Action:     "delete",
		EntityType: "student",
		EntityID:   &id,
	})
	return nil
}

// ensureUnique checks email and enrollment id against other students,
// excluding selfID on updates.
func (s *studentService) ensureUnique(ctx context.Context, email, enrollmentID string, selfID uint) error {
	if existing, err := s.students.GetByEmail(ctx, email); err == nil && existing.ID != selfID {
		return ErrDuplicateStudent
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if existing, err := s.students.GetByEnrollmentID(ctx, enrollmentID); err == nil && existing.ID != selfID {
		return ErrDuplicateStudent
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return nil
}
