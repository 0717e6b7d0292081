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

// ErrStaffNotFound indicates the staff id matched no row.
var ErrStaffNotFound = errors.New("staff not found")

// ErrDuplicateStaff indicates the email is taken.
var ErrDuplicateStaff = errors.New("staff email already exists")

// StaffService exposes staff CRUD.
type StaffService interface {
	List(ctx context.Context, req dto.StaffListRequest) (dto.StaffListResponse, error)
	Get(ctx context.Context, id uint) (dto.StaffResponse, error)
	Create(ctx context.Context, actor Actor, payload dto.StaffCreateRequest) (dto.StaffResponse, error)
	Update(ctx context.Context, actor Actor, id uint, payload dto.StaffUpdateRequest) (dto.StaffResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) error
}

type staffService struct {
	staff     repository.StaffRepository
	users     repository.UserRepository
	tx        repository.Transactor
	validator *validator.Validate
	audit     AuditRecorder
	logger    zerolog.Logger
}

// NewStaffService constructs the staff service.
func NewStaffService(staff repository.StaffRepository, users repository.UserRepository, tx repository.Transactor, validate *validator.Validate, audit AuditRecorder, logger zerolog.Logger) StaffService {
	return &staffService{
		staff:     staff,
		users:     users,
		tx:        tx,
		validator: validate,
		audit:     audit,
		logger:    logger.With().Str("component", "staff_service").Logger(),
	}
}

func (s *staffService) List(ctx context.Context, req dto.StaffListRequest) (dto.StaffListResponse, error) {
	page := maxInt(req.Page, 1)
	pageSize := clampPageSize(req.PageSize)

	members, total, err := s.staff.List(ctx, repository.StaffFilter{
		Page:         page,
		PageSize:     pageSize,
		Search:       req.Search,
		DepartmentID: req.DepartmentID,
	})
	if err != nil {
		return dto.StaffListResponse{}, err
	}

	items := make([]dto.StaffResponse, 0, len(members))
	for _, member := range members {
		items = append(items, dto.NewStaffResponse(member))
	}

	return dto.StaffListResponse{
		Items:      items,
		Pagination: dto.NewPaginationMeta(page, pageSize, total),
	}, nil
}

func (s *staffService) Get(ctx context.Context, id uint) (dto.StaffResponse, error) {
	member, err := s.staff.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StaffResponse{}, ErrStaffNotFound
		}
		return dto.StaffResponse{}, err
	}
	return dto.NewStaffResponse(member), nil
}

func (s *staffService) Create(ctx context.Context, actor Actor, payload dto.StaffCreateRequest) (dto.StaffResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.StaffResponse{}, err
	}

	role, ok := models.ParseRole(payload.Role)
	if !ok {
		return dto.StaffResponse{}, errors.New("invalid role")
	}

	email := strings.ToLower(strings.TrimSpace(payload.Email))
	if existing, err := s.staff.GetByEmail(ctx, email); err == nil && existing.ID != 0 {
		return dto.StaffResponse{}, ErrDuplicateStaff
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.StaffResponse{}, err
	}

	hash, err := HashPassword(payload.Password)
	if err != nil {
		return dto.StaffResponse{}, err
	}

	maxGroups := payload.MaxGroups
	if maxGroups <= 0 {
		maxGroups = 5
	}

	departmentID := payload.DepartmentID
	var member models.Staff
	err = s.tx.WithinTransaction(ctx, func(txDB *gorm.DB) error {
		user := models.User{
			Email:        email,
			PasswordHash: hash,
			Role:         role,
			DepartmentID: &departmentID,
			IsActive:     true,
		}
		if err := s.users.WithTx(txDB).Create(ctx, &user); err != nil {
			return err
		}

		member = models.Staff{
			UserID:       user.ID,
			Name:         strings.TrimSpace(payload.Name),
			Email:        email,
			Designation:  strings.TrimSpace(payload.Designation),
			DepartmentID: departmentID,
			MaxGroups:    maxGroups,
		}
		return s.staff.WithTx(txDB).Create(ctx, &member)
	})
	if err != nil {
		return dto.StaffResponse{}, err
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:      actor,
		Action:     "create",
		EntityType: "staff",
		EntityID:   &member.ID,
		Details:    map[string]interface{}{"role": string(role)},
	})

	return dto.NewStaffResponse(member), nil
}

func (s *staffService) Update(ctx context.Context, actor Actor, id uint, payload dto.StaffUpdateRequest) (dto.StaffResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.StaffResponse{}, err
	}

	member, err := s.staff.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StaffResponse{}, ErrStaffNotFound
		}
		return dto.StaffResponse{}, err
	}

	if payload.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*payload.Email))
		if existing, err := s.staff.GetByEmail(ctx, email); err == nil && existing.ID != id {
			return dto.StaffResponse{}, ErrDuplicateStaff
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StaffResponse{}, err
		}
		member.Email = email
	}
	if payload.Name != nil {
		member.Name = strings.TrimSpace(*payload.Name)
	}
	if payload.Designation != nil {
		member.Designation = strings.TrimSpace(*payload.Designation)
	}
	if payload.DepartmentID != nil {
		member.DepartmentID = *payload.DepartmentID
	}
	if payload.MaxGroups != nil {
		member.MaxGroups = *payload.MaxGroups
	}

	if err := s.staff.Update(ctx, &member); err != nil {
		return dto.StaffResponse{}, err
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:      actor,
		Action:     "update",
		EntityType: "staff",
		EntityID:   &member.ID,
	})

	return dto.NewStaffResponse(member), nil
}

func (s *staffService) Delete(ctx context.Context, actor Actor, id uint) error {
	if _, err := s.staff.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStaffNotFound
		}
		return err
	}

	if err := s.staff.Delete(ctx, id); err != nil {
		return err
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:      actor,
		Action:     "delete",
		EntityType: "staff",
		EntityID:   &id,
	})
	return nil
}
