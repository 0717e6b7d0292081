package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/fypdesk/fyp-api/internal/dto"
	"github.com/fypdesk/fyp-api/internal/models"
	"github.com/fypdesk/fyp-api/internal/repository"
)

// Actor identifies the authenticated caller of a privileged mutation.
type Actor struct {
	UserID       uint
	Role         models.Role
	DepartmentID *uint
	IPAddress    string
}

// AuditEntry captures the details of one privileged mutation.
type AuditEntry struct {
	Actor      Actor
	Action     string
	EntityType string
	EntityID   *uint
	Details    map[string]interface{}
}

// AuditRecorder records audit entries. Mutating services depend on this
// narrow interface rather than the full audit service.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry)
}

// AuditService exposes audit recording and querying.
type AuditService interface {
	AuditRecorder
	List(ctx context.Context, req dto.AuditListRequest) (dto.AuditListResponse, error)
}

type auditService struct {
	repo   repository.AuditRepository
	logger zerolog.Logger
}

// NewAuditService constructs the audit service.
func NewAuditService(repo repository.AuditRepository, logger zerolog.Logger) AuditService {
	return &auditService{
		repo:   repo,
		logger: logger.With().Str("component", "audit_service").Logger(),
	}
}

// Record persists the entry. Audit writes are best-effort relative to the
// business mutation they describe; failures are logged, not propagated.
func (s *auditService) Record(ctx context.Context, entry AuditEntry) {
	action := strings.ToLower(strings.TrimSpace(entry.Action))
	entityType := strings.ToLower(strings.TrimSpace(entry.EntityType))
	if action == "" || entityType == "" {
		s.logger.Warn().Str("action", entry.Action).Str("entity", entry.EntityType).Msg("dropping malformed audit entry")
		return
	}

	var details datatypes.JSON
	if len(entry.Details) > 0 {
		payload, err := json.Marshal(entry.Details)
		if err != nil {
			s.logger.Warn().Err(err).Msg("failed to encode audit details")
		} else {
			details = datatypes.JSON(payload)
		}
	}

	row := models.AuditLog{
		ActorID:    entry.Actor.UserID,
		ActorRole:  entry.Actor.Role,
		Action:     action,
		EntityType: entityType,
		EntityID:   entry.EntityID,
		Details:    details,
		IPAddress:  entry.Actor.IPAddress,
	}
	if err := s.repo.Create(ctx, &row); err != nil {
		s.logger.Error().Err(err).Str("action", action).Msg("failed to persist audit entry")
	}
}

func (s *auditService) List(ctx context.Context, req dto.AuditListRequest) (dto.AuditListResponse, error) {
	page := maxInt(req.Page, 1)
	pageSize := clampPageSize(req.PageSize)

	entries, total, err := s.repo.List(ctx, repository.AuditFilter{
		Page:       page,
		PageSize:   pageSize,
		ActorID:    req.ActorID,
		Action:     strings.ToLower(strings.TrimSpace(req.Action)),
		EntityType: strings.ToLower(strings.TrimSpace(req.EntityType)),
	})
	if err != nil {
		return dto.AuditListResponse{}, fmt.Errorf("list audit entries: %w", err)
	}

	items := make([]dto.AuditLogResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.NewAuditLogResponse(entry))
	}

	return dto.AuditListResponse{
		Items:      items,
		Pagination: dto.NewPaginationMeta(page, pageSize, total),
	}, nil
}
