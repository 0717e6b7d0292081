package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGroupTransitionRequiresAcceptedSupervisor(t *testing.T) {
	group := FYPGroup{ID: 1, Status: GroupForming}

	err := group.TransitionTo(GroupPendingApproval)
	require.Error(t, err)
	require.Equal(t, GroupForming, group.Status)

	staffID := uint(7)
	group.SupervisorID = &staffID
	require.NoError(t, group.AcceptSupervisor(staffID, time.Now()))
	require.NoError(t, group.TransitionTo(GroupPendingApproval))
	require.Equal(t, GroupPendingApproval, group.Status)
}

func TestGroupTerminalStatesRejectTransitions(t *testing.T) {
	for _, status := range []GroupStatus{GroupRejected, GroupCompleted} {
		group := FYPGroup{ID: 2, Status: status}
		require.True(t, group.IsTerminal())
		for _, next := range []GroupStatus{GroupForming, GroupActive, GroupDeferred} {
			require.Error(t, group.TransitionTo(next), "from %s to %s", status, next)
		}
	}
}

func TestGroupDeferredCanReturnToActive(t *testing.T) {
	group := FYPGroup{ID: 3, Status: GroupDeferred}
	require.NoError(t, group.TransitionTo(GroupActive))
	require.Equal(t, GroupActive, group.Status)
}

func TestAcceptSupervisorRejectsWrongStaff(t *testing.T) {
	staffID := uint(4)
	group := FYPGroup{ID: 4, Status: GroupForming, SupervisorID: &staffID}
	require.Error(t, group.AcceptSupervisor(5, time.Now()))
	require.Nil(t, group.SupervisorAcceptedAt)
}

func TestDeclineSupervisorClearsRequest(t *testing.T) {
	staffID := uint(9)
	group := FYPGroup{ID: 5, Status: GroupForming, SupervisorID: &staffID}
	require.NoError(t, group.DeclineSupervisor(staffID))
	require.Nil(t, group.SupervisorID)
}

func TestDocumentWindowAcceptsUploadAt(t *testing.T) {
	now := time.Now()
	deadline := now.Add(24 * time.Hour)

	locked := DocumentWindow{IsUnlocked: false}
	require.False(t, locked.AcceptsUploadAt(now))

	open := DocumentWindow{IsUnlocked: true, DeadlineDate: &deadline}
	require.True(t, open.AcceptsUploadAt(now))
	require.False(t, open.AcceptsUploadAt(deadline.Add(time.Minute)))

	noDeadline := DocumentWindow{IsUnlocked: true}
	require.True(t, noDeadline.AcceptsUploadAt(now.Add(720*time.Hour)))
}

func TestDefenseResultIsWriteOnce(t *testing.T) {
	defense := Defense{ID: 1, Status: DefenseCompleted}
	require.False(t, defense.HasResult())

	accepted := ResultAccepted
	defense.Result = &accepted
	require.True(t, defense.HasResult())
}

func TestDocumentTypeReviewPath(t *testing.T) {
	require.True(t, DocumentLogForm.RequiresSupervisorReview())
	require.False(t, DocumentMonthlyReport.RequiresSupervisorReview())
	require.False(t, DocumentThesis.RequiresSupervisorReview())
}

func TestDefenseMarkSum(t *testing.T) {
	mark := DefenseMark{PresentationMarks: 5, ImplementationMark: 7, DocumentationMarks: 4, QAMarks: 2}
	require.Equal(t, 18.0, mark.Sum())
	require.Equal(t, 18.0, mark.TotalMarks)
}
