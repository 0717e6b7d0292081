package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/fypdesk/fyp-api/internal/models"
	"github.com/fypdesk/fyp-api/internal/observability"
	"github.com/fypdesk/fyp-api/internal/repository"
)

// notificationGenerationKey versions the notification poll cache; every
// dispatch bumps it, invalidating cached pages without scanning keys.
const notificationGenerationKey = "notifications:generation"

// natsNotificationSubject carries dispatched notifications to interested
// consumers (dashboards, future delivery channels).
const natsNotificationSubject = "fyp.notifications"

// Notifier dispatches post-commit events from workflow transitions.
type Notifier interface {
	Dispatch(ctx context.Context, events []Event)
}

type notifier struct {
	repo      repository.NotificationRepository
	cache     *redis.Client
	nats      *nats.Conn
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewNotifier constructs the notifier. Both cache and nats may be nil; the
// notifier then degrades to persistence only.
func NewNotifier(repo repository.NotificationRepository, cache *redis.Client, natsConn *nats.Conn, logger zerolog.Logger) Notifier {
	return &notifier{
		repo:      repo,
		cache:     cache,
		nats:      natsConn,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "notifier").Logger(),
	}
}

// Dispatch persists and fans out events. It runs after the business
// transaction committed, so failures are logged, never propagated.
func (n *notifier) Dispatch(ctx context.Context, events []Event) {
	for _, event := range events {
		message := strings.TrimSpace(n.sanitizer.Sanitize(event.Message))
		if message == "" {
			n.logger.Warn().Str("title", event.Title).Msg("dropping notification with empty message after sanitization")
			continue
		}

		row := models.Notification{
			Audience:     event.Audience,
			DepartmentID: event.DepartmentID,
			GroupID:      event.GroupID,
			Title:        strings.TrimSpace(event.Title),
			Message:      message,
			ExpiresAt:    event.ExpiresAt,
		}
		if err := n.repo.Create(ctx, &row); err != nil {
			n.logger.Error().Err(err).Str("title", row.Title).Msg("failed to persist notification")
			continue
		}

		observability.NotificationsDispatched().WithLabelValues(string(row.Audience)).Inc()

		if n.cache != nil {
			if err := n.cache.Incr(ctx, notificationGenerationKey).Err(); err != nil {
				n.logger.Warn().Err(err).Msg("failed to bump notification cache generation")
			}
		}

		if n.nats != nil {
			payload, err := json.Marshal(row)
			if err == nil {
				err = n.nats.Publish(natsNotificationSubject, payload)
			}
			if err != nil {
				n.logger.Warn().Err(err).Msg("failed to publish notification to broker")
			}
		}
	}
}
