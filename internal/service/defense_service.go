package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/fypdesk/fyp-api/internal/dto"
	"github.com/fypdesk/fyp-api/internal/models"
	"github.com/fypdesk/fyp-api/internal/repository"
)

var (
	// ErrDefenseNotFound indicates the defense id matched no row.
	ErrDefenseNotFound = errors.New("defense not found")
	// ErrDuplicateDefense indicates the group already has this session type.
	ErrDuplicateDefense = errors.New("defense for this type already exists")
	// ErrResultAlreadyRecorded guards the write-once panel verdict.
	ErrResultAlreadyRecorded = errors.New("defense result has already been recorded")
	// ErrNotAssignedEvaluator indicates mark entry by a non-panel member.
	ErrNotAssignedEvaluator = errors.New("staff member is not assigned to this defense")
	// ErrMarksAlreadySubmitted indicates a second mark submission.
	ErrMarksAlreadySubmitted = errors.New("marks already submitted for this defense")
	// ErrMarksNotOpen indicates mark entry outside in_progress/completed.
	ErrMarksNotOpen = errors.New("defense is not accepting marks")
	// ErrMarksExceedMaximum indicates a component sum over the type ceiling.
	ErrMarksExceedMaximum = errors.New("marks exceed the maximum for this defense type")
	// ErrInvalidDefenseStatus indicates a disallowed status move.
	ErrInvalidDefenseStatus = errors.New("invalid defense status change")
)

// defenseStatusMoves is the scheduling state machine.
var defenseStatusMoves = map[models.DefenseStatus][]models.DefenseStatus{
	models.DefenseScheduled:  {models.DefenseInProgress, models.DefenseCancelled},
	models.DefenseInProgress: {models.DefenseCompleted, models.DefenseCancelled},
	models.DefenseCompleted:  {},
	models.DefenseCancelled:  {},
}

// DefenseService drives defense scheduling, panel assignment, the
// write-once verdict and evaluator mark entry.
type DefenseService interface {
	Get(ctx context.Context, id uint) (dto.DefenseResponse, error)
	List(ctx context.Context, req dto.DefenseListRequest) (dto.DefenseListResponse, error)
	Schedule(ctx context.Context, actor Actor, payload dto.DefenseScheduleRequest) (dto.DefenseResponse, error)
	AssignEvaluators(ctx context.Context, actor Actor, defenseID uint, payload dto.DefenseAssignEvaluatorsRequest) (dto.DefenseResponse, error)
	ChangeStatus(ctx context.Context, actor Actor, defenseID uint, payload dto.DefenseStatusRequest) (dto.DefenseResponse, error)
	RecordResult(ctx context.Context, actor Actor, defenseID uint, payload dto.DefenseResultRequest) (dto.DefenseResponse, error)
	SubmitMarks(ctx context.Context, actor Actor, defenseID uint, payload dto.DefenseMarkRequest) (dto.DefenseResponse, error)
}

type defenseService struct {
	defenses  repository.DefenseRepository
	groups    repository.GroupRepository
	staff     repository.StaffRepository
	tx        repository.Transactor
	validator *validator.Validate
	notifier  Notifier
	audit     AuditRecorder
	logger    zerolog.Logger
	now       func() time.Time
}

// NewDefenseService constructs the defense service.
func NewDefenseService(defenses repository.DefenseRepository, groups repository.GroupRepository, staff repository.StaffRepository, tx repository.Transactor, validate *validator.Validate, notifier Notifier, audit AuditRecorder, logger zerolog.Logger) DefenseService {
	return &defenseService{
		defenses:  defenses,
		groups:    groups,
		staff:     staff,
		tx:        tx,
		validator: validate,
		notifier:  notifier,
		audit:     audit,
		logger:    logger.With().Str("component", "defense_service").Logger(),
		now:       time.Now,
	}
}

func (s *defenseService) Get(ctx context.Context, id uint) (dto.DefenseResponse, error) {
	defense, err := s.defenses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DefenseResponse{}, ErrDefenseNotFound
		}
		return dto.DefenseResponse{}, err
	}
	return dto.NewDefenseResponse(defense), nil
}

func (s *defenseService) List(ctx context.Context, req dto.DefenseListRequest) (dto.DefenseListResponse, error) {
	page := maxInt(req.Page, 1)
	pageSize := clampPageSize(req.PageSize)

	filter := repository.DefenseFilter{
		Page:         page,
		PageSize:     pageSize,
		GroupID:      req.GroupID,
		DepartmentID: req.DepartmentID,
	}
	if req.Type != "" {
		defenseType, ok := models.ParseDefenseType(req.Type)
		if !ok {
			return dto.DefenseListResponse{}, fmt.Errorf("unknown defense type %q", req.Type)
		}
		filter.Type = defenseType
	}
	if req.Status != "" {
		filter.Status = models.DefenseStatus(req.Status)
	}

	defenses, total, err := s.defenses.List(ctx, filter)
	if err != nil {
		return dto.DefenseListResponse{}, err
	}

	items := make([]dto.DefenseResponse, 0, len(defenses))
	for _, defense := range defenses {
		items = append(items, dto.NewDefenseResponse(defense))
	}

	return dto.DefenseListResponse{
		Items:      items,
		Pagination: dto.NewPaginationMeta(page, pageSize, total),
	}, nil
}

// Schedule creates the single session of the given type for a group.
func (s *defenseService) Schedule(ctx context.Context, actor Actor, payload dto.DefenseScheduleRequest) (dto.DefenseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.DefenseResponse{}, err
	}

	defenseType, ok := models.ParseDefenseType(payload.Type)
	if !ok {
		return dto.DefenseResponse{}, fmt.Errorf("unknown defense type %q", payload.Type)
	}

	group, err := s.groups.GetByID(ctx, payload.GroupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DefenseResponse{}, ErrGroupNotFound
		}
		return dto.DefenseResponse{}, err
	}
	if group.Status != models.GroupActive {
		return dto.DefenseResponse{}, fmt.Errorf("group %d is not active", group.ID)
	}

	if _, err := s.defenses.GetByGroupAndType(ctx, group.ID, defenseType); err == nil {
		return dto.DefenseResponse{}, ErrDuplicateDefense
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.DefenseResponse{}, err
	}

	defense := models.Defense{
		GroupID:     group.ID,
		Type:        defenseType,
		ScheduledAt: payload.ScheduledAt,
		Venue:       payload.Venue,
		Status:      models.DefenseScheduled,
		Version:     1,
	}
	if err := s.defenses.Create(ctx, &defense); err != nil {
		return dto.DefenseResponse{}, err
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:      actor,
		Action:     "schedule",
		EntityType: "defense",
		EntityID:   &defense.ID,
		Details:    map[string]interface{}{"type": string(defenseType), "group_id": group.ID},
	})
	s.notifier.Dispatch(ctx, []Event{
		GroupEvent(group.ID, "Defense scheduled",
			fmt.Sprintf("Your %s defense is scheduled for %s.", defenseType, payload.ScheduledAt.Format(time.RFC1123))),
	})

	return s.Get(ctx, defense.ID)
}

// AssignEvaluators adds panel members, marking each as notified once the
// post-commit event goes out. Staff already on the panel are skipped.
func (s *defenseService) AssignEvaluators(ctx context.Context, actor Actor, defenseID uint, payload dto.DefenseAssignEvaluatorsRequest) (dto.DefenseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.DefenseResponse{}, err
	}

	defense, err := s.defenses.GetByID(ctx, defenseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DefenseResponse{}, ErrDefenseNotFound
		}
		return dto.DefenseResponse{}, err
	}
	if defense.Status == models.DefenseCancelled || defense.Status == models.DefenseCompleted {
		return dto.DefenseResponse{}, fmt.Errorf("%w: defense is %s", ErrInvalidDefenseStatus, defense.Status)
	}

	group, err := s.groups.GetByID(ctx, defense.GroupID)
	if err != nil {
		return dto.DefenseResponse{}, err
	}

	var assigned []models.DefenseEvaluator
	err = s.tx.WithinTransaction(ctx, func(txDB *gorm.DB) error {
		for _, staffID := range payload.StaffIDs {
			staff, err := s.staff.WithTx(txDB).GetByID(ctx, staffID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: staff %d", ErrStaffNotFound, staffID)
				}
				return err
			}

			if _, err := s.defenses.WithTx(txDB).GetEvaluator(ctx, defense.ID, staff.ID); err == nil {
				continue
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			evaluator := models.DefenseEvaluator{
				DefenseID:  defense.ID,
				StaffID:    staff.ID,
				IsNotified: true,
			}
			if err := s.defenses.WithTx(txDB).AddEvaluator(ctx, &evaluator); err != nil {
				return err
			}
			assigned = append(assigned, evaluator)
		}
		return nil
	})
	if err != nil {
		return dto.DefenseResponse{}, err
	}

	if len(assigned) > 0 {
		s.audit.Record(ctx, AuditEntry{
			Actor:      actor,
			Action:     "assign_evaluators",
			EntityType: "defense",
			EntityID:   &defense.ID,
			Details:    map[string]interface{}{"count": len(assigned)},
		})
		s.notifier.Dispatch(ctx, []Event{
			DepartmentEvent(models.AudienceEvaluator, group.DepartmentID,
				"Defense panel assignment",
				fmt.Sprintf("You have been assigned to the %s defense of group %q on %s.",
					defense.Type, group.Name, defense.ScheduledAt.Format(time.RFC1123))),
		})
	}

	return s.Get(ctx, defense.ID)
}

// ChangeStatus moves the session between scheduling states.
func (s *defenseService) ChangeStatus(ctx context.Context, actor Actor, defenseID uint, payload dto.DefenseStatusRequest) (dto.DefenseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.DefenseResponse{}, err
	}

	defense, err := s.defenses.GetByID(ctx, defenseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DefenseResponse{}, ErrDefenseNotFound
		}
		return dto.DefenseResponse{}, err
	}

	next := models.DefenseStatus(payload.Status)
	allowed := false
	for _, candidate := range defenseStatusMoves[defense.Status] {
		if candidate == next {
			allowed = true
			break
		}
	}
	if !allowed {
		return dto.DefenseResponse{}, fmt.Errorf("%w: %s to %s", ErrInvalidDefenseStatus, defense.Status, next)
	}

	defense.Status = next
	defense.Version = payload.Version
	if err := s.defenses.UpdateVersioned(ctx, &defense); err != nil {
		return dto.DefenseResponse{}, err
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:      actor,
		Action:     "change_status",
		EntityType: "defense",
		EntityID:   &defense.ID,
		Details:    map[string]interface{}{"status": string(next)},
	})

	return s.Get(ctx, defense.ID)
}

// RecordResult stores the panel verdict exactly once. Deferred final
// defenses push the group to deferred.
func (s *defenseService) RecordResult(ctx context.Context, actor Actor, defenseID uint, payload dto.DefenseResultRequest) (dto.DefenseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.DefenseResponse{}, err
	}

	defense, err := s.defenses.GetByID(ctx, defenseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DefenseResponse{}, ErrDefenseNotFound
		}
		return dto.DefenseResponse{}, err
	}
	if defense.HasResult() {
		return dto.DefenseResponse{}, ErrResultAlreadyRecorded
	}
	if defense.Status != models.DefenseCompleted {
		return dto.DefenseResponse{}, fmt.Errorf("%w: result requires a completed defense", ErrInvalidDefenseStatus)
	}

	result, ok := models.ParseDefenseResult(payload.Result)
	if !ok {
		return dto.DefenseResponse{}, fmt.Errorf("unknown defense result %q", payload.Result)
	}

	group, err := s.groups.GetByID(ctx, defense.GroupID)
	if err != nil {
		return dto.DefenseResponse{}, err
	}

	at := s.now()
	defense.Result = &result
	defense.ResultNote = payload.Note
	defense.ResultAt = &at
	defense.Version = payload.Version

	deferGroup := result == models.ResultDeferred &&
		defense.Type == models.DefenseFinal &&
		group.Status == models.GroupActive

	err = s.tx.WithinTransaction(ctx, func(txDB *gorm.DB) error {
		if err := s.defenses.WithTx(txDB).UpdateVersioned(ctx, &defense); err != nil {
			return err
		}
		if deferGroup {
			if err := group.TransitionTo(models.GroupDeferred); err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidTransition, err)
			}
			return s.groups.WithTx(txDB).UpdateVersioned(ctx, &group)
		}
		return nil
	})
	if err != nil {
		return dto.DefenseResponse{}, err
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:      actor,
		Action:     "record_result",
		EntityType: "defense",
		EntityID:   &defense.ID,
		Details:    map[string]interface{}{"result": string(result)},
	})
	s.notifier.Dispatch(ctx, []Event{
		GroupEvent(group.ID, "Defense result",
			fmt.Sprintf("Your %s defense has been %s.", defense.Type, result)),
	})

	return s.Get(ctx, defense.ID)
}

// SubmitMarks records one assigned evaluator's component scores, once.
func (s *defenseService) SubmitMarks(ctx context.Context, actor Actor, defenseID uint, payload dto.DefenseMarkRequest) (dto.DefenseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.DefenseResponse{}, err
	}

	defense, err := s.defenses.GetByID(ctx, defenseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DefenseResponse{}, ErrDefenseNotFound
		}
		return dto.DefenseResponse{}, err
	}
	if !defense.AcceptsMarks() {
		return dto.DefenseResponse{}, ErrMarksNotOpen
	}

	staff, err := s.staff.GetByUserID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DefenseResponse{}, ErrStaffNotFound
		}
		return dto.DefenseResponse{}, err
	}

	evaluator, err := s.defenses.GetEvaluator(ctx, defense.ID, staff.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DefenseResponse{}, ErrNotAssignedEvaluator
		}
		return dto.DefenseResponse{}, err
	}
	if evaluator.HasSubmittedMarks {
		return dto.DefenseResponse{}, ErrMarksAlreadySubmitted
	}

	mark := models.DefenseMark{
		DefenseID:          defense.ID,
		EvaluatorStaffID:   staff.ID,
		PresentationMarks:  payload.PresentationMarks,
		ImplementationMark: payload.ImplementationMark,
		DocumentationMarks: payload.DocumentationMarks,
		QAMarks:            payload.QAMarks,
		Remarks:            payload.Remarks,
	}
	if mark.Sum() > defense.Type.MaxMarks() {
		return dto.DefenseResponse{}, fmt.Errorf("%w: %.1f > %.1f", ErrMarksExceedMaximum, mark.TotalMarks, defense.Type.MaxMarks())
	}

	err = s.tx.WithinTransaction(ctx, func(txDB *gorm.DB) error {
		if err := s.defenses.WithTx(txDB).CreateMark(ctx, &mark); err != nil {
			return err
		}
		evaluator.HasSubmittedMarks = true
		return s.defenses.WithTx(txDB).UpdateEvaluator(ctx, &evaluator)
	})
	if err != nil {
		return dto.DefenseResponse{}, err
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:      actor,
		Action:     "submit_marks",
		EntityType: "defense",
		EntityID:   &defense.ID,
		Details:    map[string]interface{}{"total": mark.TotalMarks},
	})

	return s.Get(ctx, defense.ID)
}
