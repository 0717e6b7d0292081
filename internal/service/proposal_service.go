package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/fypdesk/fyp-api/internal/dto"
	"github.com/fypdesk/fyp-api/internal/models"
	"github.com/fypdesk/fyp-api/internal/repository"
)

var (
	// ErrProposalNotFound indicates the proposal id matched no row.
	ErrProposalNotFound = errors.New("proposal not found")
	// ErrDuplicateProposal indicates the group already has this form.
	ErrDuplicateProposal = errors.New("proposal for this form already exists")
	// ErrNotGroupMember indicates the caller is not an accepted member.
	ErrNotGroupMember = errors.New("caller is not a member of this group")
	// ErrMembersPending indicates not all members have signed the form.
	ErrMembersPending = errors.New("all group members must submit the form first")
	// ErrProposalNotSubmittable indicates submission from the wrong state.
	ErrProposalNotSubmittable = errors.New("proposal cannot be submitted from its current status")
	// ErrProposalNotReviewable indicates review of an unsubmitted form.
	ErrProposalNotReviewable = errors.New("proposal has not been submitted for review")
)

// ProposalService drives the Form A-D milestone workflow: drafting,
// per-member sign-off, submission, and coordinator review.
type ProposalService interface {
	Get(ctx context.Context, id uint) (dto.ProposalResponse, error)
	ListByGroup(ctx context.Context, groupID uint) ([]dto.ProposalResponse, error)
	CreateDraft(ctx context.Context, actor Actor, payload dto.ProposalCreateRequest) (dto.ProposalResponse, error)
	SignOff(ctx context.Context, actor Actor, proposalID uint) (dto.ProposalResponse, error)
	Submit(ctx context.Context, actor Actor, proposalID uint, payload dto.ProposalSubmitRequest) (dto.ProposalResponse, error)
	Review(ctx context.Context, actor Actor, proposalID uint, payload dto.ProposalReviewRequest) (dto.ProposalResponse, error)
}

type proposalService struct {
	proposals repository.ProposalRepository
	groups    repository.GroupRepository
	students  repository.StudentRepository
	tx        repository.Transactor
	validator *validator.Validate
	notifier  Notifier
	audit     AuditRecorder
	logger    zerolog.Logger
	now       func() time.Time
}

// NewProposalService constructs the proposal service.
func NewProposalService(proposals repository.ProposalRepository, groups repository.GroupRepository, students repository.StudentRepository, tx repository.Transactor, validate *validator.Validate, notifier Notifier, audit AuditRecorder, logger zerolog.Logger) ProposalService {
	return &proposalService{
		proposals: proposals,
		groups:    groups,
		students:  students,
		tx:        tx,
		validator: validate,
		notifier:  notifier,
		audit:     audit,
		logger:    logger.With().Str("component", "proposal_service").Logger(),
		now:       time.Now,
	}
}

func (s *proposalService) Get(ctx context.Context, id uint) (dto.ProposalResponse, error) {
	proposal, err := s.proposals.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProposalResponse{}, ErrProposalNotFound
		}
		return dto.ProposalResponse{}, err
	}
	return dto.NewProposalResponse(proposal), nil
}

func (s *proposalService) ListByGroup(ctx context.Context, groupID uint) ([]dto.ProposalResponse, error) {
	proposals, err := s.proposals.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProposalResponse, 0, len(proposals))
	for _, proposal := range proposals {
		items = append(items, dto.NewProposalResponse(proposal))
	}
	return items, nil
}

// CreateDraft opens a draft for (group, form type) and seeds an unsubmitted
// sign-off row per accepted member. Form A may be drafted while the group
// still awaits coordinator approval; later forms require an active group.
func (s *proposalService) CreateDraft(ctx context.Context, actor Actor, payload dto.ProposalCreateRequest) (dto.ProposalResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ProposalResponse{}, err
	}

	formType, ok := models.ParseFormType(payload.FormType)
	if !ok {
		return dto.ProposalResponse{}, fmt.Errorf("unknown form type %q", payload.FormType)
	}

	group, _, err := s.loadGroupAsMember(ctx, actor, payload.GroupID)
	if err != nil {
		return dto.ProposalResponse{}, err
	}

	switch {
	case group.Status == models.GroupActive:
	case group.Status == models.GroupPendingApproval && formType == models.FormA:
	default:
		return dto.ProposalResponse{}, fmt.Errorf("group %d does not accept %s in status %s", group.ID, formType, group.Status)
	}

	if _, err := s.proposals.GetByGroupAndForm(ctx, group.ID, formType); err == nil {
		return dto.ProposalResponse{}, ErrDuplicateProposal
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.ProposalResponse{}, err
	}

	var proposal models.Proposal
	err = s.tx.WithinTransaction(ctx, func(txDB *gorm.DB) error {
		proposal = models.Proposal{
			GroupID:  group.ID,
			FormType: formType,
			Title:    payload.Title,
			Abstract: payload.Abstract,
			Status:   models.ProposalDraft,
			Version:  1,
		}
		if err := s.proposals.WithTx(txDB).Create(ctx, &proposal); err != nil {
			return err
		}
		for _, groupMember := range group.Members {
			if groupMember.Status != models.MemberAccepted {
				continue
			}
			submission := models.StudentFormSubmission{
				ProposalID: proposal.ID,
				StudentID:  groupMember.StudentID,
			}
			if err := s.proposals.WithTx(txDB).CreateSubmission(ctx, &submission); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return dto.ProposalResponse{}, err
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:      actor,
		Action:     "create",
		EntityType: "proposal",
		EntityID:   &proposal.ID,
		Details:    map[string]interface{}{"form_type": string(formType), "group_id": group.ID},
	})

	return s.Get(ctx, proposal.ID)
}

// SignOff marks the calling member's sign-off row submitted.
func (s *proposalService) SignOff(ctx context.Context, actor Actor, proposalID uint) (dto.ProposalResponse, error) {
	proposal, err := s.proposals.GetByID(ctx, proposalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProposalResponse{}, ErrProposalNotFound
		}
		return dto.ProposalResponse{}, err
	}
	if !proposal.CanSubmit() {
		return dto.ProposalResponse{}, ErrProposalNotSubmittable
	}

	student, err := s.students.GetByUserID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProposalResponse{}, ErrStudentNotFound
		}
		return dto.ProposalResponse{}, err
	}

	submission, err := s.proposals.GetSubmission(ctx, proposal.ID, student.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProposalResponse{}, ErrNotGroupMember
		}
		return dto.ProposalResponse{}, err
	}
	if !submission.Submitted {
		at := s.now()
		submission.Submitted = true
		submission.SubmittedAt = &at
		if err := s.proposals.UpdateSubmission(ctx, &submission); err != nil {
			return dto.ProposalResponse{}, err
		}
	}

	return s.Get(ctx, proposal.ID)
}

// Submit moves the form to submitted once every member has signed off.
// Resubmission is allowed only from revision.
func (s *proposalService) Submit(ctx context.Context, actor Actor, proposalID uint, payload dto.ProposalSubmitRequest) (dto.ProposalResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ProposalResponse{}, err
	}

	proposal, err := s.proposals.GetByID(ctx, proposalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProposalResponse{}, ErrProposalNotFound
		}
		return dto.ProposalResponse{}, err
	}
	if !proposal.CanSubmit() {
		return dto.ProposalResponse{}, ErrProposalNotSubmittable
	}

	if _, _, err := s.loadGroupAsMember(ctx, actor, proposal.GroupID); err != nil {
		return dto.ProposalResponse{}, err
	}

	unsubmitted, err := s.proposals.CountUnsubmitted(ctx, proposal.ID)
	if err != nil {
		return dto.ProposalResponse{}, err
	}
	if unsubmitted > 0 {
		return dto.ProposalResponse{}, ErrMembersPending
	}

	at := s.now()
	proposal.Status = models.ProposalSubmitted
	proposal.SubmittedAt = &at
	proposal.Version = payload.Version
	if err := s.proposals.UpdateVersioned(ctx, &proposal); err != nil {
		return dto.ProposalResponse{}, err
	}

	group, err := s.groups.GetByID(ctx, proposal.GroupID)
	if err == nil {
		s.notifier.Dispatch(ctx, []Event{
			DepartmentEvent(models.AudienceCoordinator, group.DepartmentID,
				"Proposal submitted",
				fmt.Sprintf("Group %q has submitted %s for review.", group.Name, proposal.FormType)),
		})
	}

	return s.Get(ctx, proposal.ID)
}

// Review records the coordinator verdict. Approving Form A activates a group
// still pending approval; members and supervisor are notified after commit.
func (s *proposalService) Review(ctx context.Context, actor Actor, proposalID uint, payload dto.ProposalReviewRequest) (dto.ProposalResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ProposalResponse{}, err
	}

	proposal, err := s.proposals.GetByID(ctx, proposalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProposalResponse{}, ErrProposalNotFound
		}
		return dto.ProposalResponse{}, err
	}
	if proposal.Status != models.ProposalSubmitted {
		return dto.ProposalResponse{}, ErrProposalNotReviewable
	}

	var status models.ProposalStatus
	switch payload.Decision {
	case "approved":
		status = models.ProposalApproved
	case "rejected":
		status = models.ProposalRejected
	case "revision":
		status = models.ProposalRevision
	default:
		return dto.ProposalResponse{}, fmt.Errorf("unknown decision %q", payload.Decision)
	}

	group, err := s.groups.GetByID(ctx, proposal.GroupID)
	if err != nil {
		return dto.ProposalResponse{}, err
	}

	at := s.now()
	proposal.Status = status
	proposal.ReviewNote = payload.Note
	proposal.ReviewedAt = &at
	proposal.ReviewedBy = &actor.UserID
	proposal.Version = payload.Version

	activateGroup := status == models.ProposalApproved &&
		proposal.FormType == models.FormA &&
		group.Status == models.GroupPendingApproval

	err = s.tx.WithinTransaction(ctx, func(txDB *gorm.DB) error {
		if err := s.proposals.WithTx(txDB).UpdateVersioned(ctx, &proposal); err != nil {
			return err
		}
		if activateGroup {
			if err := group.TransitionTo(models.GroupActive); err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidTransition, err)
			}
			return s.groups.WithTx(txDB).UpdateVersioned(ctx, &group)
		}
		return nil
	})
	if err != nil {
		return dto.ProposalResponse{}, err
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:      actor,
		Action:     "review",
		EntityType: "proposal",
		EntityID:   &proposal.ID,
		Details:    map[string]interface{}{"decision": payload.Decision, "form_type": string(proposal.FormType)},
	})

	events := []Event{
		GroupEvent(group.ID, "Proposal "+payload.Decision,
			fmt.Sprintf("%s for group %q has been %s.", proposal.FormType, group.Name, payload.Decision)),
	}
	if activateGroup {
		events = append(events,
			GroupEvent(group.ID, "Group activated",
				fmt.Sprintf("Group %q is now active.", group.Name)),
			DepartmentEvent(models.AudienceSupervisor, group.DepartmentID,
				"Group activated",
				fmt.Sprintf("Group %q has been activated after Form A approval.", group.Name)),
		)
	}
	s.notifier.Dispatch(ctx, events)

	return s.Get(ctx, proposal.ID)
}

// loadGroupAsMember fetches the group and checks the caller holds an
// accepted membership.
func (s *proposalService) loadGroupAsMember(ctx context.Context, actor Actor, groupID uint) (models.FYPGroup, models.GroupMember, error) {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.FYPGroup{}, models.GroupMember{}, ErrGroupNotFound
		}
		return models.FYPGroup{}, models.GroupMember{}, err
	}

	student, err := s.students.GetByUserID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.FYPGroup{}, models.GroupMember{}, ErrStudentNotFound
		}
		return models.FYPGroup{}, models.GroupMember{}, err
	}

	for _, member := range group.Members {
		if member.StudentID == student.ID && member.Status == models.MemberAccepted {
			return group, member, nil
		}
	}
	return models.FYPGroup{}, models.GroupMember{}, ErrNotGroupMember
}
