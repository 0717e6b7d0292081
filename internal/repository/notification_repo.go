package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/fypdesk/fyp-api/internal/models"
)

// NotificationFilter scopes a notification poll to the caller's audiences.
type NotificationFilter struct {
	Page         int
	PageSize     int
	Audiences    []models.Audience
	DepartmentID *uint
	GroupID      *uint
}

// NotificationRepository handles persistence for notification rows.
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListActive(ctx context.Context, filter NotificationFilter) ([]models.Notification, int64, error)
	WithTx(tx *gorm.DB) NotificationRepository
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository constructs the repository implementation.
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) WithTx(tx *gorm.DB) NotificationRepository {
	return &notificationRepository{db: tx}
}

func (r *notificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

// ListActive returns unexpired rows matching any of the caller's audience
// tags, restricted to the caller's department and group where those are set.
func (r *notificationRepository) ListActive(ctx context.Context, filter NotificationFilter) ([]models.Notification, int64, error) {
	now := time.Now()
	query := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Where("audience IN ?", filter.Audiences)

	if filter.DepartmentID != nil {
		query = query.Where("department_id IS NULL OR department_id = ?", *filter.DepartmentID)
	}
	if filter.GroupID != nil {
		query = query.Where("group_id IS NULL OR group_id = ?", *filter.GroupID)
	} else {
		query = query.Where("group_id IS NULL")
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

	var notifications []models.Notification
	if err := query.Order("created_at DESC").Find(&notifications).Error; err != nil {
		return nil, 0, err
	}
	return notifications, total, nil
}
