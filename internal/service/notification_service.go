package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/fypdesk/fyp-api/internal/dto"
	"github.com/fypdesk/fyp-api/internal/models"
	"github.com/fypdesk/fyp-api/internal/repository"
)

// NotificationService serves the poll endpoint and manual publication.
type NotificationService interface {
	Poll(ctx context.Context, actor Actor, page, pageSize int) (dto.NotificationListResponse, error)
	Publish(ctx context.Context, actor Actor, payload dto.NotificationCreateRequest) error
}

type notificationService struct {
	notifications repository.NotificationRepository
	groups        repository.GroupRepository
	students      repository.StudentRepository
	cache         *redis.Client
	cacheTTL      time.Duration
	validator     *validator.Validate
	notifier      Notifier
	audit         AuditRecorder
	logger        zerolog.Logger
}

// NewNotificationService constructs the notification service. The cache may
// be nil; polling then always hits the database.
func NewNotificationService(notifications repository.NotificationRepository, groups repository.GroupRepository, students repository.StudentRepository, cache *redis.Client, cacheTTL time.Duration, validate *validator.Validate, notifier Notifier, audit AuditRecorder, logger zerolog.Logger) NotificationService {
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	return &notificationService{
		notifications: notifications,
		groups:        groups,
		students:      students,
		cache:         cache,
		cacheTTL:      cacheTTL,
		validator:     validate,
		notifier:      notifier,
		audit:         audit,
		logger:        logger.With().Str("component", "notification_service").Logger(),
	}
}

// audiencesFor maps the caller's role to the audience tags they poll.
func audiencesFor(role models.Role) []models.Audience {
	switch role {
	case models.RoleStudent:
		return []models.Audience{models.AudienceStudents, models.AudienceGroup}
	case models.RoleSupervisor:
		return []models.Audience{models.AudienceSupervisor}
	case models.RoleCoordinator:
		return []models.Audience{models.AudienceCoordinator}
	case models.RoleCommittee, models.RoleHOD:
		return []models.Audience{models.AudienceCommittee}
	case models.RoleEvaluator:
		return []models.Audience{models.AudienceEvaluator}
	default:
		return []models.Audience{
			models.AudienceStudents, models.AudienceCommittee,
			models.AudienceSupervisor, models.AudienceEvaluator,
			models.AudienceCoordinator,
		}
	}
}

// Poll returns the caller's active notifications, served from the redis
// cache when the generation has not moved since the page was cached.
func (s *notificationService) Poll(ctx context.Context, actor Actor, page, pageSize int) (dto.NotificationListResponse, error) {
	page = maxInt(page, 1)
	pageSize = clampPageSize(pageSize)

	filter := repository.NotificationFilter{
		Page:         page,
		PageSize:     pageSize,
		Audiences:    audiencesFor(actor.Role),
		DepartmentID: actor.DepartmentID,
	}

	if actor.Role == models.RoleStudent {
		if student, err := s.students.GetByUserID(ctx, actor.UserID); err == nil {
			if group, err := s.groups.FindByStudent(ctx, student.ID); err == nil {
				filter.GroupID = &group.ID
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.NotificationListResponse{}, err
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.NotificationListResponse{}, err
		}
	}

	cacheKey := s.cacheKey(ctx, actor, filter)
	if cacheKey != "" {
		if cached, err := s.cache.Get(ctx, cacheKey).Bytes(); err == nil {
			var response dto.NotificationListResponse
			if err := json.Unmarshal(cached, &response); err == nil {
				response.CacheHit = true
				return response, nil
			}
		}
	}

	notifications, total, err := s.notifications.ListActive(ctx, filter)
	if err != nil {
		return dto.NotificationListResponse{}, err
	}

	items := make([]dto.NotificationResponse, 0, len(notifications))
	for _, notification := range notifications {
		items = append(items, dto.NewNotificationResponse(notification))
	}

	response := dto.NotificationListResponse{
		Items:      items,
		Pagination: dto.NewPaginationMeta(page, pageSize, total),
	}

	if cacheKey != "" {
		if encoded, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, encoded, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to cache notification page")
			}
		}
	}

	return response, nil
}

// Publish fans out a manually authored notification through the notifier.
func (s *notificationService) Publish(ctx context.Context, actor Actor, payload dto.NotificationCreateRequest) error {
	if err := s.validator.Struct(payload); err != nil {
		return err
	}

	audience, ok := models.ParseAudience(payload.Audience)
	if !ok {
		return fmt.Errorf("unknown audience %q", payload.Audience)
	}

	s.notifier.Dispatch(ctx, []Event{{
		Audience:     audience,
		DepartmentID: payload.DepartmentID,
		GroupID:      payload.GroupID,
		Title:        payload.Title,
		Message:      payload.Message,
		ExpiresAt:    payload.ExpiresAt,
	}})

	s.audit.Record(ctx, AuditEntry{
		Actor:      actor,
		Action:     "publish",
		EntityType: "notification",
		Details:    map[string]interface{}{"audience": string(audience), "title": payload.Title},
	})
	return nil
}

// cacheKey builds the poll cache key. It includes the dispatch generation,
// so every new notification implicitly invalidates all cached pages.
func (s *notificationService) cacheKey(ctx context.Context, actor Actor, filter repository.NotificationFilter) string {
	if s.cache == nil {
		return ""
	}

	generation, err := s.cache.Get(ctx, notificationGenerationKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return ""
	}

	dept := uint(0)
	if filter.DepartmentID != nil {
		dept = *filter.DepartmentID
	}
	group := uint(0)
	if filter.GroupID != nil {
		group = *filter.GroupID
	}
	return fmt.Sprintf("notifications:%d:%s:%d:%d:%d:%d",
		generation, actor.Role, dept, group, filter.Page, filter.PageSize)
}
