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

// ErrDepartmentNotFound indicates the department id matched no row.
var ErrDepartmentNotFound = errors.New("department not found")

// ErrDuplicateCode indicates the department code is already taken.
// Codes are compared case-insensitively.
var ErrDuplicateCode = errors.New("department code already exists")

// DepartmentService exposes department CRUD.
type DepartmentService interface {
	List(ctx context.Context, req dto.DepartmentListRequest) (dto.DepartmentListResponse, error)
	Get(ctx context.Context, id uint) (dto.DepartmentResponse, error)
	Create(ctx context.Context, actor Actor, payload dto.DepartmentCreateRequest) (dto.DepartmentResponse, error)
	Update(ctx context.Context, actor Actor, id uint, payload dto.DepartmentUpdateRequest) (dto.DepartmentResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) error
}

type departmentService struct {
	repo      repository.DepartmentRepository
	validator *validator.Validate
	audit     AuditRecorder
	logger    zerolog.Logger
}

// NewDepartmentService constructs the department service.
func NewDepartmentService(repo repository.DepartmentRepository, validate *validator.Validate, audit AuditRecorder, logger zerolog.Logger) DepartmentService {
	return &departmentService{
		repo:      repo,
		validator: validate,
		audit:     audit,
		logger:    logger.With().Str("component", "department_service").Logger(),
	}
}

func (s *departmentService) List(ctx context.Context, req dto.DepartmentListRequest) (dto.DepartmentListResponse, error) {
	page := maxInt(req.Page, 1)
	pageSize := clampPageSize(req.PageSize)

	departments, total, err := s.repo.List(ctx, repository.DepartmentFilter{
		Page:     page,
		PageSize: pageSize,
		Search:   req.Search,
	})
	if err != nil {
		return dto.DepartmentListResponse{}, err
	}

	items := make([]dto.DepartmentResponse, 0, len(departments))
	for _, department := range departments {
		items = append(items, dto.NewDepartmentResponse(department))
	}

	return dto.DepartmentListResponse{
		Items:      items,
		Pagination: dto.NewPaginationMeta(page, pageSize, total),
	}, nil
}

func (s *departmentService) Get(ctx context.Context, id uint) (dto.DepartmentResponse, error) {
	department, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DepartmentResponse{}, ErrDepartmentNotFound
		}
		return dto.DepartmentResponse{}, err
	}
	return dto.NewDepartmentResponse(department), nil
}

func (s *departmentService) Create(ctx context.Context, actor Actor, payload dto.DepartmentCreateRequest) (dto.DepartmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.DepartmentResponse{}, err
	}

	code := strings.ToUpper(strings.TrimSpace(payload.Code))
	if _, err := s.repo.GetByCode(ctx, code); err == nil {
		return dto.DepartmentResponse{}, ErrDuplicateCode
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.DepartmentResponse{}, err
	}

	department := models.Department{Code: code, Name: strings.TrimSpace(payload.Name)}
	if err := s.repo.Create(ctx, &department); err != nil {
		return dto.DepartmentResponse{}, err
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:      actor,
		Action:     "create",
		EntityType: "department",
		EntityID:   &department.ID,
		Details:    map[string]interface{}{"code": department.Code},
	})

	return dto.NewDepartmentResponse(department), nil
}

func (s *departmentService) Update(ctx context.Context, actor Actor, id uint, payload dto.DepartmentUpdateRequest) (dto.DepartmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.DepartmentResponse{}, err
	}

	department, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DepartmentResponse{}, ErrDepartmentNotFound
		}
		return dto.DepartmentResponse{}, err
	}

	if payload.Code != nil {
		code := strings.ToUpper(strings.TrimSpace(*payload.Code))
		if existing, err := s.repo.GetByCode(ctx, code); err == nil && existing.ID != id {
			return dto.DepartmentResponse{}, ErrDuplicateCode
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DepartmentResponse{}, err
		}
		department.Code = code
	}
	if payload.Name != nil {
		department.Name = strings.TrimSpace(*payload.Name)
	}

	if err := s.repo.Update(ctx, &department); err != nil {
		return dto.DepartmentResponse{}, err
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:      actor,
		Action:     "update",
		EntityType: "department",
		EntityID:   &department.ID,
	})

	return dto.NewDepartmentResponse(department), nil
}

func (s *departmentService) Delete(ctx context.Context, actor Actor, id uint) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDepartmentNotFound
		}
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:      actor,
		Action:     "delete",
		EntityType: "department",
		EntityID:   &id,
	})
	return nil
}
