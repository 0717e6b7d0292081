package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/fypdesk/fyp-api/internal/dto"
	"github.com/fypdesk/fyp-api/internal/models"
	"github.com/fypdesk/fyp-api/internal/repository"
)

// DashboardService aggregates a student's FYP standing for the SPA landing
// page. The aggregate is redis-cached per student with a short TTL.
type DashboardService interface {
	StudentDashboard(ctx context.Context, actor Actor) (dto.StudentDashboardResponse, error)
}

type dashboardService struct {
	students  repository.StudentRepository
	groups    repository.GroupRepository
	documents repository.DocumentRepository
	defenses  repository.DefenseRepository
	cache     *redis.Client
	cacheTTL  time.Duration
	logger    zerolog.Logger
}

// NewDashboardService constructs the dashboard service. The cache may be
// nil; the aggregate is then rebuilt on every request.
func NewDashboardService(students repository.StudentRepository, groups repository.GroupRepository, documents repository.DocumentRepository, defenses repository.DefenseRepository, cache *redis.Client, cacheTTL time.Duration, logger zerolog.Logger) DashboardService {
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	return &dashboardService{
		students:  students,
		groups:    groups,
		documents: documents,
		defenses:  defenses,
		cache:     cache,
		cacheTTL:  cacheTTL,
		logger:    logger.With().Str("component", "dashboard_service").Logger(),
	}
}

func (s *dashboardService) StudentDashboard(ctx context.Context, actor Actor) (dto.StudentDashboardResponse, error) {
	student, err := s.students.GetByUserID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StudentDashboardResponse{}, ErrStudentNotFound
		}
		return dto.StudentDashboardResponse{}, err
	}

	cacheKey := fmt.Sprintf("dashboard:student:%d", student.ID)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Bytes(); err == nil {
			var response dto.StudentDashboardResponse
			if err := json.Unmarshal(cached, &response); err == nil {
				response.CacheHit = true
				return response, nil
			}
		}
	}

	response := dto.StudentDashboardResponse{
		PendingDocuments: []dto.PendingDocument{},
		UpcomingDefenses: []dto.UpcomingDefense{},
	}

	group, err := s.groups.FindByStudent(ctx, student.ID)
	switch {
	case err == nil:
		response.GroupID = &group.ID
		response.GroupName = group.Name
		response.GroupStatus = string(group.Status)

		if err := s.fillGroupSections(ctx, student, group, &response); err != nil {
			return dto.StudentDashboardResponse{}, err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return dto.StudentDashboardResponse{}, err
	}

	if s.cache != nil {
		if encoded, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, encoded, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to cache student dashboard")
			}
		}
	}

	return response, nil
}

func (s *dashboardService) fillGroupSections(ctx context.Context, student models.Student, group models.FYPGroup, response *dto.StudentDashboardResponse) error {
	windows, err := s.documents.ListWindows(ctx, group.DepartmentID)
	if err != nil {
		return err
	}
	now := time.Now()
	for _, window := range windows {
		if !window.AcceptsUploadAt(now) {
			continue
		}
		_, err := s.documents.GetByOwner(ctx, group.ID, student.ID, window.DocumentType, window.Sequence)
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		response.PendingDocuments = append(response.PendingDocuments, dto.PendingDocument{
			DocumentType: string(window.DocumentType),
			Sequence:     window.Sequence,
			DeadlineDate: window.DeadlineDate,
		})
	}

	defenses, err := s.defenses.ListUpcomingForGroup(ctx, group.ID)
	if err != nil {
		return err
	}
	for _, defense := range defenses {
		response.UpcomingDefenses = append(response.UpcomingDefenses, dto.UpcomingDefense{
			DefenseID:   defense.ID,
			Type:        string(defense.Type),
			ScheduledAt: defense.ScheduledAt,
			Venue:       defense.Venue,
		})
	}

	for _, member := range group.Members {
		if member.StudentID != student.ID || member.TotalMarks == nil {
			continue
		}
		response.Result = &dto.MemberResultResponse{
			StudentID:       member.StudentID,
			EnrollmentID:    student.EnrollmentID,
			StudentName:     student.Name,
			ProposalMarks:   deref(member.ProposalMarks),
			MidEvalMarks:    deref(member.MidEvalMarks),
			FinalEvalMarks:  deref(member.FinalEvalMarks),
			SupervisorMarks: deref(member.SupervisorMarks),
			TotalMarks:      deref(member.TotalMarks),
			Grade:           member.Grade,
			FinalResult:     member.FinalResult,
		}
	}
	return nil
}
