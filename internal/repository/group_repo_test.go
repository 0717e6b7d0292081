package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fypdesk/fyp-api/internal/models"
)

func TestGroupRepositoryUpdateVersionedRejectsStaleWrite(t *testing.T) {
	db := setupTestDB(t, &models.FYPGroup{}, &models.GroupMember{}, &models.Student{}, &models.Department{})
	repo := NewGroupRepository(db)
	ctx := context.Background()

	group := models.FYPGroup{Name: "Alpha", DepartmentID: 1, CreatorStudentID: 1, Status: models.GroupForming, Version: 1}
	require.NoError(t, repo.Create(ctx, &group))

	staffID := uint(9)
	now := time.Now()

	fresh := group
	fresh.SupervisorID = &staffID
	fresh.SupervisorAcceptedAt = &now
	require.NoError(t, fresh.TransitionTo(models.GroupPendingApproval))
	require.NoError(t, repo.UpdateVersioned(ctx, &fresh))
	require.Equal(t, uint(2), fresh.Version)

	// A second writer still holding version 1 must be rejected.
	stale := group
	require.NoError(t, stale.TransitionTo(models.GroupRejected))
	err := repo.UpdateVersioned(ctx, &stale)
	require.ErrorIs(t, err, ErrStaleVersion)

	stored, err := repo.GetByID(ctx, group.ID)
	require.NoError(t, err)
	require.Equal(t, models.GroupPendingApproval, stored.Status)
	require.Equal(t, uint(2), stored.Version)
}

func TestGroupRepositoryMemberCounts(t *testing.T) {
	db := setupTestDB(t, &models.FYPGroup{}, &models.GroupMember{}, &models.Student{}, &models.Department{})
	repo := NewGroupRepository(db)
	ctx := context.Background()

	group := models.FYPGroup{Name: "Beta", DepartmentID: 1, CreatorStudentID: 1, Status: models.GroupForming, Version: 1}
	require.NoError(t, repo.Create(ctx, &group))

	statuses := []models.MemberStatus{models.MemberAccepted, models.MemberPending, models.MemberDeclined}
	for i, status := range statuses {
		member := models.GroupMember{GroupID: group.ID, StudentID: uint(i + 1), Status: status}
		require.NoError(t, repo.AddMember(ctx, &member))
	}

	count, err := repo.CountActiveMembers(ctx, group.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2), count, "declined members do not count toward the cap")
}

func TestGroupRepositoryFindByStudent(t *testing.T) {
	db := setupTestDB(t, &models.FYPGroup{}, &models.GroupMember{}, &models.Student{}, &models.Department{})
	repo := NewGroupRepository(db)
	ctx := context.Background()

	group := models.FYPGroup{Name: "Gamma", DepartmentID: 2, CreatorStudentID: 5, Status: models.GroupForming, Version: 1}
	require.NoError(t, repo.Create(ctx, &group))
	require.NoError(t, repo.AddMember(ctx, &models.GroupMember{GroupID: group.ID, StudentID: 5, Status: models.MemberAccepted}))

	found, err := repo.FindByStudent(ctx, 5)
	require.NoError(t, err)
	require.Equal(t, group.ID, found.ID)

	_, err = repo.FindByStudent(ctx, 42)
	require.Error(t, err)
}
