package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/fypdesk/fyp-api/internal/dto"
	"github.com/fypdesk/fyp-api/internal/models"
	"github.com/fypdesk/fyp-api/internal/repository"
)

// ErrEvaluationNotFound indicates no rollup exists for the group yet.
var ErrEvaluationNotFound = errors.New("project evaluation not found")

// EvaluationService maintains the per-group mark rollup. Recompute is an
// explicit coordinator action; nothing updates the rollup implicitly.
type EvaluationService interface {
	Get(ctx context.Context, groupID uint) (dto.ProjectEvaluationResponse, error)
	Recompute(ctx context.Context, actor Actor, groupID uint, payload dto.ProjectEvaluationRequest) (dto.ProjectEvaluationResponse, error)
}

type evaluationService struct {
	evaluations repository.EvaluationRepository
	groups      repository.GroupRepository
	defenses    repository.DefenseRepository
	staff       repository.StaffRepository
	validator   *validator.Validate
	audit       AuditRecorder
	logger      zerolog.Logger
	now         func() time.Time
}

// NewEvaluationService constructs the evaluation service.
func NewEvaluationService(evaluations repository.EvaluationRepository, groups repository.GroupRepository, defenses repository.DefenseRepository, staff repository.StaffRepository, validate *validator.Validate, audit AuditRecorder, logger zerolog.Logger) EvaluationService {
	return &evaluationService{
		evaluations: evaluations,
		groups:      groups,
		defenses:    defenses,
		staff:       staff,
		validator:   validate,
		audit:       audit,
		logger:      logger.With().Str("component", "evaluation_service").Logger(),
		now:         time.Now,
	}
}

func (s *evaluationService) Get(ctx context.Context, groupID uint) (dto.ProjectEvaluationResponse, error) {
	evaluation, err := s.evaluations.GetByGroup(ctx, groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProjectEvaluationResponse{}, ErrEvaluationNotFound
		}
		return dto.ProjectEvaluationResponse{}, err
	}
	return dto.NewProjectEvaluationResponse(evaluation), nil
}

// Recompute sums the coordinator timeline, supervisor progress and the
// three defense averages through the shared grading ladder, stamping
// ComputedAt so consumers can see staleness.
func (s *evaluationService) Recompute(ctx context.Context, actor Actor, groupID uint, payload dto.ProjectEvaluationRequest) (dto.ProjectEvaluationResponse, error) {
	ctx, span := otel.Tracer("results").Start(ctx, "evaluation.recompute")
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		return dto.ProjectEvaluationResponse{}, err
	}
	span.SetAttributes(attribute.Int64("group.id", int64(groupID)))

	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProjectEvaluationResponse{}, ErrGroupNotFound
		}
		return dto.ProjectEvaluationResponse{}, err
	}

	initialAvg, err := s.average(ctx, group.ID, models.DefenseInitial)
	if err != nil {
		return dto.ProjectEvaluationResponse{}, err
	}
	midAvg, err := s.average(ctx, group.ID, models.DefenseMidTerm)
	if err != nil {
		return dto.ProjectEvaluationResponse{}, err
	}
	finalAvg, err := s.average(ctx, group.ID, models.DefenseFinal)
	if err != nil {
		return dto.ProjectEvaluationResponse{}, err
	}

	var computedBy uint
	if staff, err := s.staff.GetByUserID(ctx, actor.UserID); err == nil {
		computedBy = staff.ID
	}

	total := payload.CoordinatorTimeline + payload.SupervisorProgress + initialAvg + midAvg + finalAvg
	evaluation := models.ProjectEvaluation{
		GroupID:               group.ID,
		CoordinatorTimeline:   payload.CoordinatorTimeline,
		SupervisorProgress:    payload.SupervisorProgress,
		InitialDefenseAverage: initialAvg,
		MidTermDefenseAverage: midAvg,
		FinalDefenseAverage:   finalAvg,
		TotalMarks:            total,
		Grade:                 GradeFor(total),
		ComputedAt:            s.now(),
		ComputedByStaffID:     computedBy,
	}

	existing, err := s.evaluations.GetByGroup(ctx, group.ID)
	switch {
	case err == nil && payload.Version != 0:
		evaluation.ID = existing.ID
		evaluation.Version = payload.Version
		if err := s.evaluations.UpdateVersioned(ctx, &evaluation); err != nil {
			return dto.ProjectEvaluationResponse{}, err
		}
	case err == nil || errors.Is(err, gorm.ErrRecordNotFound):
		if err := s.evaluations.Upsert(ctx, &evaluation); err != nil {
			return dto.ProjectEvaluationResponse{}, err
		}
	default:
		return dto.ProjectEvaluationResponse{}, err
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:      actor,
		Action:     "recompute_evaluation",
		EntityType: "project_evaluation",
		EntityID:   &evaluation.ID,
		Details:    map[string]interface{}{"group_id": group.ID, "total": total},
	})

	return s.Get(ctx, group.ID)
}

func (s *evaluationService) average(ctx context.Context, groupID uint, defenseType models.DefenseType) (float64, error) {
	defense, err := s.defenses.GetByGroupAndType(ctx, groupID, defenseType)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	average, count, err := s.defenses.AverageMarks(ctx, defense.ID)
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, nil
	}
	return average, nil
}
