package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/fypdesk/fyp-api/internal/models"
	"github.com/fypdesk/fyp-api/internal/repository"
)

// fakeNotificationRepo is an in-memory NotificationRepository.
type fakeNotificationRepo struct {
	rows   []models.Notification
	nextID uint
}

func (r *fakeNotificationRepo) WithTx(tx *gorm.DB) repository.NotificationRepository { return r }

func (r *fakeNotificationRepo) Create(ctx context.Context, notification *models.Notification) error {
	r.nextID++
	notification.ID = r.nextID
	notification.CreatedAt = time.Now()
	r.rows = append(r.rows, *notification)
	return nil
}

func (r *fakeNotificationRepo) ListActive(ctx context.Context, filter repository.NotificationFilter) ([]models.Notification, int64, error) {
	now := time.Now()
	audiences := map[models.Audience]bool{}
	for _, audience := range filter.Audiences {
		audiences[audience] = true
	}

	var matched []models.Notification
	for _, row := range r.rows {
		if !row.IsActiveAt(now) || !audiences[row.Audience] {
			continue
		}
		if filter.DepartmentID != nil && row.DepartmentID != nil && *row.DepartmentID != *filter.DepartmentID {
			continue
		}
		if filter.GroupID == nil && row.GroupID != nil {
			continue
		}
		if filter.GroupID != nil && row.GroupID != nil && *row.GroupID != *filter.GroupID {
			continue
		}
		matched = append(matched, row)
	}
	return matched, int64(len(matched)), nil
}

func newNotificationFixture(t *testing.T) (*fakeNotificationRepo, *redis.Client, NotificationService, Notifier) {
	t.Helper()

	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { client.Close() })

	repo := &fakeNotificationRepo{}
	groups := newFakeGroupRepo()
	students := newFakeStudentRepo()

	notifier := NewNotifier(repo, client, nil, testLogger())
	svc := NewNotificationService(repo, groups, students, client, time.Minute, testValidator(), notifier, &captureAudit{}, testLogger())
	return repo, client, svc, notifier
}

func TestNotificationPollScopedToAudience(t *testing.T) {
	repo, _, svc, _ := newNotificationFixture(t)

	dept := uint(1)
	require.NoError(t, repo.Create(context.Background(), &models.Notification{
		Audience: models.AudienceStudents, DepartmentID: &dept, Title: "Window open", Message: "Uploads open",
	}))
	require.NoError(t, repo.Create(context.Background(), &models.Notification{
		Audience: models.AudienceCoordinator, DepartmentID: &dept, Title: "Pending group", Message: "Approval needed",
	}))

	student, err := svc.Poll(context.Background(), Actor{UserID: 11, Role: models.RoleStudent, DepartmentID: &dept}, 1, 10)
	require.NoError(t, err)
	require.Len(t, student.Items, 1)
	require.Equal(t, "Window open", student.Items[0].Title)

	coordinator, err := svc.Poll(context.Background(), Actor{UserID: 31, Role: models.RoleCoordinator, DepartmentID: &dept}, 1, 10)
	require.NoError(t, err)
	require.Len(t, coordinator.Items, 1)
	require.Equal(t, "Pending group", coordinator.Items[0].Title)
}

func TestNotificationPollCacheInvalidatedByDispatch(t *testing.T) {
	_, _, svc, notifier := newNotificationFixture(t)

	dept := uint(1)
	actor := Actor{UserID: 31, Role: models.RoleCoordinator, DepartmentID: &dept}

	notifier.Dispatch(context.Background(), []Event{
		DepartmentEvent(models.AudienceCoordinator, dept, "First", "First message"),
	})

	first, err := svc.Poll(context.Background(), actor, 1, 10)
	require.NoError(t, err)
	require.False(t, first.CacheHit)
	require.Len(t, first.Items, 1)

	cached, err := svc.Poll(context.Background(), actor, 1, 10)
	require.NoError(t, err)
	require.True(t, cached.CacheHit)

	// a new dispatch bumps the generation; the next poll misses the cache
	notifier.Dispatch(context.Background(), []Event{
		DepartmentEvent(models.AudienceCoordinator, dept, "Second", "Second message"),
	})

	fresh, err := svc.Poll(context.Background(), actor, 1, 10)
	require.NoError(t, err)
	require.False(t, fresh.CacheHit)
	require.Len(t, fresh.Items, 2)
}

func TestNotifierSanitizesMarkup(t *testing.T) {
	repo, _, _, notifier := newNotificationFixture(t)

	notifier.Dispatch(context.Background(), []Event{
		DepartmentEvent(models.AudienceStudents, 1, "Script", `<script>alert("x")</script>Deadline moved`),
	})

	require.Len(t, repo.rows, 1)
	require.Equal(t, "Deadline moved", repo.rows[0].Message)
}

func TestNotifierDropsEmptyAfterSanitize(t *testing.T) {
	repo, _, _, notifier := newNotificationFixture(t)

	notifier.Dispatch(context.Background(), []Event{
		DepartmentEvent(models.AudienceStudents, 1, "Empty", `<img src=x onerror=alert(1)>`),
	})

	require.Empty(t, repo.rows)
}
