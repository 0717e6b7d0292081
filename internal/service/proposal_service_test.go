package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/fypdesk/fyp-api/internal/dto"
	"github.com/fypdesk/fyp-api/internal/models"
	"github.com/fypdesk/fyp-api/internal/repository"
)

// fakeProposalRepo is an in-memory ProposalRepository.
type fakeProposalRepo struct {
	proposals   map[uint]*models.Proposal
	submissions []*models.StudentFormSubmission
	nextID      uint
}

func newFakeProposalRepo() *fakeProposalRepo {
	return &fakeProposalRepo{proposals: map[uint]*models.Proposal{}}
}

func (r *fakeProposalRepo) WithTx(tx *gorm.DB) repository.ProposalRepository { return r }

func (r *fakeProposalRepo) Create(ctx context.Context, proposal *models.Proposal) error {
	r.nextID++
	proposal.ID = r.nextID
	stored := *proposal
	r.proposals[proposal.ID] = &stored
	return nil
}

func (r *fakeProposalRepo) GetByID(ctx context.Context, id uint) (models.Proposal, error) {
	stored, ok := r.proposals[id]
	if !ok {
		return models.Proposal{}, gorm.ErrRecordNotFound
	}
	proposal := *stored
	proposal.Submissions = nil
	for _, submission := range r.submissions {
		if submission.ProposalID == id {
			proposal.Submissions = append(proposal.Submissions, *submission)
		}
	}
	return proposal, nil
}

func (r *fakeProposalRepo) GetByGroupAndForm(ctx context.Context, groupID uint, formType models.FormType) (models.Proposal, error) {
	for id, proposal := range r.proposals {
		if proposal.GroupID == groupID && proposal.FormType == formType {
			return r.GetByID(ctx, id)
		}
	}
	return models.Proposal{}, gorm.ErrRecordNotFound
}

func (r *fakeProposalRepo) ListByGroup(ctx context.Context, groupID uint) ([]models.Proposal, error) {
	var proposals []models.Proposal
	for id, proposal := range r.proposals {
		if proposal.GroupID == groupID {
			full, _ := r.GetByID(ctx, id)
			proposals = append(proposals, full)
		}
	}
	return proposals, nil
}

func (r *fakeProposalRepo) UpdateVersioned(ctx context.Context, proposal *models.Proposal) error {
	stored, ok := r.proposals[proposal.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if stored.Version != proposal.Version {
		return repository.ErrStaleVersion
	}
	proposal.Version++
	updated := *proposal
	updated.Submissions = nil
	r.proposals[proposal.ID] = &updated
	return nil
}

func (r *fakeProposalRepo) CreateSubmission(ctx context.Context, submission *models.StudentFormSubmission) error {
	r.nextID++
	submission.ID = r.nextID
	stored := *submission
	r.submissions = append(r.submissions, &stored)
	return nil
}

func (r *fakeProposalRepo) GetSubmission(ctx context.Context, proposalID, studentID uint) (models.StudentFormSubmission, error) {
	for _, submission := range r.submissions {
		if submission.ProposalID == proposalID && submission.StudentID == studentID {
			return *submission, nil
		}
	}
	return models.StudentFormSubmission{}, gorm.ErrRecordNotFound
}

func (r *fakeProposalRepo) UpdateSubmission(ctx context.Context, submission *models.StudentFormSubmission) error {
	for i, stored := range r.submissions {
		if stored.ID == submission.ID {
			updated := *submission
			r.submissions[i] = &updated
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeProposalRepo) CountUnsubmitted(ctx context.Context, proposalID uint) (int64, error) {
	var count int64
	for _, submission := range r.submissions {
		if submission.ProposalID == proposalID && !submission.Submitted {
			count++
		}
	}
	return count, nil
}

func newProposalFixture(t *testing.T, groupStatus models.GroupStatus) (*fakeProposalRepo, *fakeGroupRepo, ProposalService) {
	t.Helper()

	proposals := newFakeProposalRepo()
	groups := newFakeGroupRepo()
	students := newFakeStudentRepo(
		models.Student{ID: 1, UserID: 11, Name: "Ayesha Khan", DepartmentID: 1},
		models.Student{ID: 2, UserID: 12, Name: "Bilal Ahmed", DepartmentID: 1},
	)

	accepted := time.Now()
	supervisorID := uint(1)
	group := &models.FYPGroup{
		Name: "Smart Attendance", DepartmentID: 1, CreatorStudentID: 1,
		SupervisorID: &supervisorID, SupervisorAcceptedAt: &accepted,
		Status: groupStatus, Version: 1,
	}
	require.NoError(t, groups.Create(context.Background(), group))
	require.NoError(t, groups.AddMember(context.Background(), &models.GroupMember{GroupID: 1, StudentID: 1, Status: models.MemberAccepted}))
	require.NoError(t, groups.AddMember(context.Background(), &models.GroupMember{GroupID: 1, StudentID: 2, Status: models.MemberAccepted}))

	svc := NewProposalService(proposals, groups, students, fakeTx{}, testValidator(), &captureNotifier{}, &captureAudit{}, testLogger())
	return proposals, groups, svc
}

func TestProposalDraftSeedsMemberSignoffs(t *testing.T) {
	_, _, svc := newProposalFixture(t, models.GroupPendingApproval)

	proposal, err := svc.CreateDraft(context.Background(), studentActor(11), dto.ProposalCreateRequest{
		GroupID: 1, FormType: "form_a", Title: "Smart Attendance System",
	})
	require.NoError(t, err)
	require.Equal(t, string(models.ProposalDraft), proposal.Status)
	require.Len(t, proposal.Submissions, 2)
}

func TestProposalDraftOncePerForm(t *testing.T) {
	_, _, svc := newProposalFixture(t, models.GroupPendingApproval)

	_, err := svc.CreateDraft(context.Background(), studentActor(11), dto.ProposalCreateRequest{
		GroupID: 1, FormType: "form_a", Title: "Smart Attendance System",
	})
	require.NoError(t, err)

	_, err = svc.CreateDraft(context.Background(), studentActor(11), dto.ProposalCreateRequest{
		GroupID: 1, FormType: "form_a", Title: "Duplicate",
	})
	require.ErrorIs(t, err, ErrDuplicateProposal)
}

func TestProposalLaterFormsRequireActiveGroup(t *testing.T) {
	_, _, svc := newProposalFixture(t, models.GroupPendingApproval)

	_, err := svc.CreateDraft(context.Background(), studentActor(11), dto.ProposalCreateRequest{
		GroupID: 1, FormType: "form_b", Title: "Design Review",
	})
	require.Error(t, err)
}

func TestProposalSubmitRequiresAllSignoffs(t *testing.T) {
	_, _, svc := newProposalFixture(t, models.GroupPendingApproval)

	proposal, err := svc.CreateDraft(context.Background(), studentActor(11), dto.ProposalCreateRequest{
		GroupID: 1, FormType: "form_a", Title: "Smart Attendance System",
	})
	require.NoError(t, err)

	_, err = svc.SignOff(context.Background(), studentActor(11), proposal.ID)
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), studentActor(11), proposal.ID, dto.ProposalSubmitRequest{Version: proposal.Version})
	require.ErrorIs(t, err, ErrMembersPending)

	_, err = svc.SignOff(context.Background(), studentActor(12), proposal.ID)
	require.NoError(t, err)

	submitted, err := svc.Submit(context.Background(), studentActor(11), proposal.ID, dto.ProposalSubmitRequest{Version: proposal.Version})
	require.NoError(t, err)
	require.Equal(t, string(models.ProposalSubmitted), submitted.Status)
	require.NotNil(t, submitted.SubmittedAt)
}

func TestProposalFormAApprovalActivatesGroup(t *testing.T) {
	_, groups, svc := newProposalFixture(t, models.GroupPendingApproval)

	proposal, err := svc.CreateDraft(context.Background(), studentActor(11), dto.ProposalCreateRequest{
		GroupID: 1, FormType: "form_a", Title: "Smart Attendance System",
	})
	require.NoError(t, err)
	_, err = svc.SignOff(context.Background(), studentActor(11), proposal.ID)
	require.NoError(t, err)
	_, err = svc.SignOff(context.Background(), studentActor(12), proposal.ID)
	require.NoError(t, err)
	submitted, err := svc.Submit(context.Background(), studentActor(11), proposal.ID, dto.ProposalSubmitRequest{Version: proposal.Version})
	require.NoError(t, err)

	reviewed, err := svc.Review(context.Background(), Actor{UserID: 31, Role: models.RoleCommittee}, proposal.ID,
		dto.ProposalReviewRequest{Decision: "approved", Version: submitted.Version})
	require.NoError(t, err)
	require.Equal(t, string(models.ProposalApproved), reviewed.Status)

	group, err := groups.GetByID(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, models.GroupActive, group.Status)
}

func TestProposalResubmissionOnlyFromRevision(t *testing.T) {
	_, _, svc := newProposalFixture(t, models.GroupPendingApproval)

	proposal, err := svc.CreateDraft(context.Background(), studentActor(11), dto.ProposalCreateRequest{
		GroupID: 1, FormType: "form_a", Title: "Smart Attendance System",
	})
	require.NoError(t, err)
	_, err = svc.SignOff(context.Background(), studentActor(11), proposal.ID)
	require.NoError(t, err)
	_, err = svc.SignOff(context.Background(), studentActor(12), proposal.ID)
	require.NoError(t, err)
	submitted, err := svc.Submit(context.Background(), studentActor(11), proposal.ID, dto.ProposalSubmitRequest{Version: proposal.Version})
	require.NoError(t, err)

	// submitted forms cannot be submitted again
	_, err = svc.Submit(context.Background(), studentActor(11), proposal.ID, dto.ProposalSubmitRequest{Version: submitted.Version})
	require.ErrorIs(t, err, ErrProposalNotSubmittable)

	revised, err := svc.Review(context.Background(), Actor{UserID: 31, Role: models.RoleCommittee}, proposal.ID,
		dto.ProposalReviewRequest{Decision: "revision", Note: "clarify scope", Version: submitted.Version})
	require.NoError(t, err)
	require.Equal(t, string(models.ProposalRevision), revised.Status)

	resubmitted, err := svc.Submit(context.Background(), studentActor(11), proposal.ID, dto.ProposalSubmitRequest{Version: revised.Version})
	require.NoError(t, err)
	require.Equal(t, string(models.ProposalSubmitted), resubmitted.Status)
}
