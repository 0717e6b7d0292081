package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
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

// ResultsService compiles per-member results from defense averages and
// supervisor marks, and exports them as CSV.
type ResultsService interface {
	Compile(ctx context.Context, actor Actor, payload dto.ResultsCompileRequest) (dto.GroupResultsResponse, error)
	GroupResults(ctx context.Context, groupID uint) (dto.GroupResultsResponse, error)
	SetSupervisorMarks(ctx context.Context, actor Actor, groupID uint, payload dto.SupervisorMarksRequest) error
	ExportCSV(ctx context.Context, departmentID uint, w io.Writer) error
}

type resultsService struct {
	groups    repository.GroupRepository
	defenses  repository.DefenseRepository
	tx        repository.Transactor
	validator *validator.Validate
	notifier  Notifier
	audit     AuditRecorder
	logger    zerolog.Logger
	now       func() time.Time
}

// NewResultsService constructs the results service.
func NewResultsService(groups repository.GroupRepository, defenses repository.DefenseRepository, tx repository.Transactor, validate *validator.Validate, notifier Notifier, audit AuditRecorder, logger zerolog.Logger) ResultsService {
	return &resultsService{
		groups:    groups,
		defenses:  defenses,
		tx:        tx,
		validator: validate,
		notifier:  notifier,
		audit:     audit,
		logger:    logger.With().Str("component", "results_service").Logger(),
		now:       time.Now,
	}
}

// Compile rolls defense averages and supervisor marks into each member's
// total, grade and final result. Absent components count as zero.
func (s *resultsService) Compile(ctx context.Context, actor Actor, payload dto.ResultsCompileRequest) (dto.GroupResultsResponse, error) {
	ctx, span := otel.Tracer("results").Start(ctx, "results.compile")
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		return dto.GroupResultsResponse{}, err
	}
	span.SetAttributes(attribute.Int64("group.id", int64(payload.GroupID)))

	group, err := s.groups.GetByID(ctx, payload.GroupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GroupResultsResponse{}, ErrGroupNotFound
		}
		return dto.GroupResultsResponse{}, err
	}

	proposalAvg, err := s.defenseAverage(ctx, group.ID, models.DefenseProposal)
	if err != nil {
		return dto.GroupResultsResponse{}, err
	}
	midAvg, err := s.defenseAverage(ctx, group.ID, models.DefenseMidTerm)
	if err != nil {
		return dto.GroupResultsResponse{}, err
	}
	finalAvg, err := s.defenseAverage(ctx, group.ID, models.DefenseFinal)
	if err != nil {
		return dto.GroupResultsResponse{}, err
	}

	err = s.tx.WithinTransaction(ctx, func(txDB *gorm.DB) error {
		for i := range group.Members {
			member := &group.Members[i]
			if member.Status != models.MemberAccepted {
				continue
			}

			member.ProposalMarks = proposalAvg
			member.MidEvalMarks = midAvg
			member.FinalEvalMarks = finalAvg

			total := ComponentTotal(member.ProposalMarks, member.MidEvalMarks, member.FinalEvalMarks, member.SupervisorMarks)
			member.TotalMarks = &total
			member.Grade = GradeFor(total)
			member.FinalResult = FinalResultFor(total)

			if err := s.groups.WithTx(txDB).UpdateMember(ctx, member); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return dto.GroupResultsResponse{}, err
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:      actor,
		Action:     "compile_results",
		EntityType: "group",
		EntityID:   &group.ID,
	})
	s.notifier.Dispatch(ctx, []Event{
		GroupEvent(group.ID, "Results compiled",
			fmt.Sprintf("Results for group %q have been compiled.", group.Name)),
	})

	return s.GroupResults(ctx, group.ID)
}

// GroupResults returns the last compiled results for a group.
func (s *resultsService) GroupResults(ctx context.Context, groupID uint) (dto.GroupResultsResponse, error) {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GroupResultsResponse{}, ErrGroupNotFound
		}
		return dto.GroupResultsResponse{}, err
	}

	members := make([]dto.MemberResultResponse, 0, len(group.Members))
	for _, member := range group.Members {
		if member.Status != models.MemberAccepted {
			continue
		}
		members = append(members, dto.MemberResultResponse{
			StudentID:       member.StudentID,
			EnrollmentID:    member.Student.EnrollmentID,
			StudentName:     member.Student.Name,
			ProposalMarks:   deref(member.ProposalMarks),
			MidEvalMarks:    deref(member.MidEvalMarks),
			FinalEvalMarks:  deref(member.FinalEvalMarks),
			SupervisorMarks: deref(member.SupervisorMarks),
			TotalMarks:      deref(member.TotalMarks),
			Grade:           member.Grade,
			FinalResult:     member.FinalResult,
		})
	}

	return dto.GroupResultsResponse{
		GroupID:    group.ID,
		GroupName:  group.Name,
		Members:    members,
		CompiledAt: s.now(),
	}, nil
}

// SetSupervisorMarks records the supervisor's per-member component. The
// caller must be the group's accepted supervisor; route middleware enforces
// the role, this enforces the binding.
func (s *resultsService) SetSupervisorMarks(ctx context.Context, actor Actor, groupID uint, payload dto.SupervisorMarksRequest) error {
	if err := s.validator.Struct(payload); err != nil {
		return err
	}

	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGroupNotFound
		}
		return err
	}

	member, err := s.groups.GetMember(ctx, group.ID, payload.StudentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotGroupMember
		}
		return err
	}

	marks := payload.Marks
	member.SupervisorMarks = &marks
	if err := s.groups.UpdateMember(ctx, &member); err != nil {
		return err
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:      actor,
		Action:     "supervisor_marks",
		EntityType: "group_member",
		EntityID:   &member.ID,
		Details:    map[string]interface{}{"student_id": payload.StudentID, "marks": marks},
	})
	return nil
}

// ExportCSV streams one row per compiled member for a department, or for
// all departments when departmentID is zero.
func (s *resultsService) ExportCSV(ctx context.Context, departmentID uint, w io.Writer) error {
	ctx, span := otel.Tracer("results").Start(ctx, "results.export")
	defer span.End()

	groups, _, err := s.groups.List(ctx, repository.GroupFilter{DepartmentID: departmentID})
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	header := []string{"group_id", "group_name", "enrollment_id", "student_name",
		"proposal_marks", "mid_eval_marks", "final_eval_marks", "supervisor_marks",
		"total_marks", "grade", "final_result"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, group := range groups {
		for _, member := range group.Members {
			if member.Status != models.MemberAccepted {
				continue
			}
			record := []string{
				strconv.FormatUint(uint64(group.ID), 10),
				group.Name,
				member.Student.EnrollmentID,
				member.Student.Name,
				formatMarks(member.ProposalMarks),
				formatMarks(member.MidEvalMarks),
				formatMarks(member.FinalEvalMarks),
				formatMarks(member.SupervisorMarks),
				formatMarks(member.TotalMarks),
				member.Grade,
				member.FinalResult,
			}
			if err := writer.Write(record); err != nil {
				return err
			}
		}
	}

	writer.Flush()
	return writer.Error()
}

// defenseAverage returns the cross-evaluator mean for a session type, or
// nil when the session does not exist or has no marks yet.
func (s *resultsService) defenseAverage(ctx context.Context, groupID uint, defenseType models.DefenseType) (*float64, error) {
	defense, err := s.defenses.GetByGroupAndType(ctx, groupID, defenseType)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	average, count, err := s.defenses.AverageMarks(ctx, defense.ID)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	return &average, nil
}

func deref(value *float64) float64 {
	if value == nil {
		return 0
	}
	return *value
}

func formatMarks(value *float64) string {
	if value == nil {
		return ""
	}
	return strconv.FormatFloat(*value, 'f', 2, 64)
}
