package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fypdesk/fyp-api/internal/dto"
	"github.com/fypdesk/fyp-api/internal/models"
	"github.com/fypdesk/fyp-api/internal/repository"
)

func newGroupFixture(t *testing.T) (*fakeGroupRepo, *fakeStudentRepo, *fakeStaffRepo, *captureNotifier, GroupService) {
	t.Helper()
	groups, students, staff, notifier, _, _, svc := newGroupFixtureWithSettings(t, nil)
	return groups, students, staff, notifier, svc
}

func newGroupFixtureWithSettings(t *testing.T, settingValues map[string]string) (*fakeGroupRepo, *fakeStudentRepo, *fakeStaffRepo, *captureNotifier, *captureAudit, *fakeSettings, GroupService) {
	t.Helper()

	groups := newFakeGroupRepo()
	students := newFakeStudentRepo(
		models.Student{ID: 1, UserID: 11, Name: "Ayesha Khan", EnrollmentID: "21-134056-072", DepartmentID: 1},
		models.Student{ID: 2, UserID: 12, Name: "Bilal Ahmed", EnrollmentID: "21-134056-073", DepartmentID: 1},
		models.Student{ID: 3, UserID: 13, Name: "Sara Malik", EnrollmentID: "21-134056-074", DepartmentID: 1},
		models.Student{ID: 4, UserID: 14, Name: "Usman Tariq", EnrollmentID: "21-134056-075", DepartmentID: 1},
	)
	staff := newFakeStaffRepo(
		models.Staff{ID: 1, UserID: 21, Name: "Dr. Imran", DepartmentID: 1, MaxGroups: 2},
	)
	notifier := &captureNotifier{}
	audit := &captureAudit{}
	if settingValues == nil {
		settingValues = map[string]string{}
	}
	settings := &fakeSettings{values: settingValues}

	svc := NewGroupService(groups, students, staff, settings, fakeTx{}, testValidator(), notifier, audit, testLogger())
	return groups, students, staff, notifier, audit, settings, svc
}

func studentActor(userID uint) Actor {
	return Actor{UserID: userID, Role: models.RoleStudent}
}

func TestGroupCreateMakesCreatorFirstMember(t *testing.T) {
	_, _, _, _, svc := newGroupFixture(t)

	group, err := svc.Create(context.Background(), studentActor(11), dto.GroupCreateRequest{Name: "Smart Attendance"})
	require.NoError(t, err)
	require.Equal(t, string(models.GroupForming), group.Status)
	require.Len(t, group.Members, 1)
	require.Equal(t, uint(1), group.Members[0].StudentID)
	require.Equal(t, string(models.MemberAccepted), group.Members[0].Status)
}

func TestGroupCreateRejectsSecondGroup(t *testing.T) {
	_, _, _, _, svc := newGroupFixture(t)

	_, err := svc.Create(context.Background(), studentActor(11), dto.GroupCreateRequest{Name: "First"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), studentActor(11), dto.GroupCreateRequest{Name: "Second"})
	require.ErrorIs(t, err, ErrAlreadyInGroup)
}

func TestGroupCreateRefusedWhileRegistrationClosed(t *testing.T) {
	_, _, _, _, _, _, svc := newGroupFixtureWithSettings(t, map[string]string{
		"registration_open": "false",
	})

	_, err := svc.Create(context.Background(), studentActor(11), dto.GroupCreateRequest{Name: "Too Late"})
	require.ErrorIs(t, err, ErrRegistrationClosed)
}

func TestGroupCreateAuditCarriesSession(t *testing.T) {
	_, _, _, _, audit, _, svc := newGroupFixtureWithSettings(t, map[string]string{
		"current_session": "Fall 2026",
	})

	_, err := svc.Create(context.Background(), studentActor(11), dto.GroupCreateRequest{Name: "Sessioned"})
	require.NoError(t, err)
	require.Len(t, audit.entries, 1)
	require.Equal(t, "Fall 2026", audit.entries[0].Details["session"])
}

func TestGroupInviteNotificationNamesInviter(t *testing.T) {
	_, _, _, notifier, svc := newGroupFixture(t)

	group, err := svc.Create(context.Background(), studentActor(11), dto.GroupCreateRequest{Name: "Smart Attendance"})
	require.NoError(t, err)
	_, err = svc.Invite(context.Background(), studentActor(11), group.ID, dto.GroupInviteRequest{StudentID: 2})
	require.NoError(t, err)

	require.NotEmpty(t, notifier.events)
	message := notifier.events[len(notifier.events)-1].Message
	require.Contains(t, message, "Ayesha Khan")
	require.Contains(t, message, `"Smart Attendance"`)
}

func TestGroupInviteEnforcesMemberCap(t *testing.T) {
	_, _, _, _, svc := newGroupFixture(t)

	group, err := svc.Create(context.Background(), studentActor(11), dto.GroupCreateRequest{Name: "Capped"})
	require.NoError(t, err)

	_, err = svc.Invite(context.Background(), studentActor(11), group.ID, dto.GroupInviteRequest{StudentID: 2})
	require.NoError(t, err)
	_, err = svc.Invite(context.Background(), studentActor(11), group.ID, dto.GroupInviteRequest{StudentID: 3})
	require.NoError(t, err)

	_, err = svc.Invite(context.Background(), studentActor(11), group.ID, dto.GroupInviteRequest{StudentID: 4})
	require.ErrorIs(t, err, ErrGroupFull)
}

func TestGroupInviteOnlyByCreator(t *testing.T) {
	_, _, _, _, svc := newGroupFixture(t)

	group, err := svc.Create(context.Background(), studentActor(11), dto.GroupCreateRequest{Name: "Owned"})
	require.NoError(t, err)
	_, err = svc.Invite(context.Background(), studentActor(11), group.ID, dto.GroupInviteRequest{StudentID: 2})
	require.NoError(t, err)

	_, err = svc.Invite(context.Background(), studentActor(12), group.ID, dto.GroupInviteRequest{StudentID: 3})
	require.ErrorIs(t, err, ErrNotGroupCreator)
}

func TestGroupSupervisorAcceptMovesToPendingApproval(t *testing.T) {
	_, _, _, notifier, svc := newGroupFixture(t)

	group, err := svc.Create(context.Background(), studentActor(11), dto.GroupCreateRequest{Name: "Supervised"})
	require.NoError(t, err)

	group, err = svc.RequestSupervisor(context.Background(), studentActor(11), group.ID, dto.GroupSupervisorRequest{StaffID: 1})
	require.NoError(t, err)
	require.NotNil(t, group.SupervisorID)

	group, err = svc.SupervisorDecision(context.Background(), Actor{UserID: 21, Role: models.RoleSupervisor}, group.ID,
		dto.GroupDecisionRequest{Accept: true, Version: group.Version})
	require.NoError(t, err)
	require.Equal(t, string(models.GroupPendingApproval), group.Status)
	require.NotNil(t, group.SupervisorAcceptedAt)

	var sawCoordinatorEvent bool
	for _, event := range notifier.events {
		if event.Audience == models.AudienceCoordinator {
			sawCoordinatorEvent = true
		}
	}
	require.True(t, sawCoordinatorEvent)
}

func TestGroupSupervisorDeclineClearsRequest(t *testing.T) {
	_, _, _, _, svc := newGroupFixture(t)

	group, err := svc.Create(context.Background(), studentActor(11), dto.GroupCreateRequest{Name: "Declined"})
	require.NoError(t, err)
	group, err = svc.RequestSupervisor(context.Background(), studentActor(11), group.ID, dto.GroupSupervisorRequest{StaffID: 1})
	require.NoError(t, err)

	group, err = svc.SupervisorDecision(context.Background(), Actor{UserID: 21, Role: models.RoleSupervisor}, group.ID,
		dto.GroupDecisionRequest{Accept: false, Version: group.Version})
	require.NoError(t, err)
	require.Nil(t, group.SupervisorID)
	require.Equal(t, string(models.GroupForming), group.Status)
}

func TestGroupSupervisorCapacityRefusal(t *testing.T) {
	_, _, staff, _, svc := newGroupFixture(t)
	staff.supervised[1] = 2

	group, err := svc.Create(context.Background(), studentActor(11), dto.GroupCreateRequest{Name: "Overflow"})
	require.NoError(t, err)

	_, err = svc.RequestSupervisor(context.Background(), studentActor(11), group.ID, dto.GroupSupervisorRequest{StaffID: 1})
	require.ErrorIs(t, err, ErrSupervisorCapacity)
}

func TestGroupSupervisorDefaultCapFromSettings(t *testing.T) {
	_, _, staff, _, _, _, svc := newGroupFixtureWithSettings(t, map[string]string{
		"supervisor_max_groups": "1",
	})
	unset := staff.staff[1]
	unset.MaxGroups = 0
	staff.staff[1] = unset
	staff.supervised[1] = 1

	group, err := svc.Create(context.Background(), studentActor(11), dto.GroupCreateRequest{Name: "Defaulted"})
	require.NoError(t, err)

	_, err = svc.RequestSupervisor(context.Background(), studentActor(11), group.ID, dto.GroupSupervisorRequest{StaffID: 1})
	require.ErrorIs(t, err, ErrSupervisorCapacity)

	staff.supervised[1] = 0
	_, err = svc.RequestSupervisor(context.Background(), studentActor(11), group.ID, dto.GroupSupervisorRequest{StaffID: 1})
	require.NoError(t, err)
}

func TestGroupCoordinatorApprovalActivates(t *testing.T) {
	_, _, _, _, svc := newGroupFixture(t)

	group, err := svc.Create(context.Background(), studentActor(11), dto.GroupCreateRequest{Name: "Approved"})
	require.NoError(t, err)
	group, err = svc.RequestSupervisor(context.Background(), studentActor(11), group.ID, dto.GroupSupervisorRequest{StaffID: 1})
	require.NoError(t, err)
	group, err = svc.SupervisorDecision(context.Background(), Actor{UserID: 21, Role: models.RoleSupervisor}, group.ID,
		dto.GroupDecisionRequest{Accept: true, Version: group.Version})
	require.NoError(t, err)

	group, err = svc.CoordinatorDecision(context.Background(), Actor{UserID: 31, Role: models.RoleCoordinator}, group.ID,
		dto.GroupDecisionRequest{Accept: true, Version: group.Version})
	require.NoError(t, err)
	require.Equal(t, string(models.GroupActive), group.Status)
}

func TestGroupCoordinatorDecisionStaleVersion(t *testing.T) {
	_, _, _, _, svc := newGroupFixture(t)

	group, err := svc.Create(context.Background(), studentActor(11), dto.GroupCreateRequest{Name: "Stale"})
	require.NoError(t, err)
	group, err = svc.RequestSupervisor(context.Background(), studentActor(11), group.ID, dto.GroupSupervisorRequest{StaffID: 1})
	require.NoError(t, err)
	group, err = svc.SupervisorDecision(context.Background(), Actor{UserID: 21, Role: models.RoleSupervisor}, group.ID,
		dto.GroupDecisionRequest{Accept: true, Version: group.Version})
	require.NoError(t, err)

	_, err = svc.CoordinatorDecision(context.Background(), Actor{UserID: 31, Role: models.RoleCoordinator}, group.ID,
		dto.GroupDecisionRequest{Accept: true, Version: group.Version - 1})
	require.ErrorIs(t, err, repository.ErrStaleVersion)
}

func TestGroupInviteRespondAcceptAndDecline(t *testing.T) {
	_, _, _, _, svc := newGroupFixture(t)

	group, err := svc.Create(context.Background(), studentActor(11), dto.GroupCreateRequest{Name: "Invites"})
	require.NoError(t, err)
	_, err = svc.Invite(context.Background(), studentActor(11), group.ID, dto.GroupInviteRequest{StudentID: 2})
	require.NoError(t, err)
	_, err = svc.Invite(context.Background(), studentActor(11), group.ID, dto.GroupInviteRequest{StudentID: 3})
	require.NoError(t, err)

	_, err = svc.RespondToInvite(context.Background(), studentActor(12), group.ID, true)
	require.NoError(t, err)
	declined, err := svc.RespondToInvite(context.Background(), studentActor(13), group.ID, false)
	require.NoError(t, err)

	statuses := map[uint]string{}
	for _, member := range declined.Members {
		statuses[member.StudentID] = member.Status
	}
	require.Equal(t, string(models.MemberAccepted), statuses[2])
	require.Equal(t, string(models.MemberDeclined), statuses[3])

	// a second response to the same invite is refused
	_, err = svc.RespondToInvite(context.Background(), studentActor(12), group.ID, false)
	require.ErrorIs(t, err, ErrNoPendingInvite)
}
