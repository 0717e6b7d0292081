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
	// ErrGroupNotFound indicates the group id matched no row.
	ErrGroupNotFound = errors.New("group not found")
	// ErrNotGroupCreator indicates the caller is not the group's creator.
	ErrNotGroupCreator = errors.New("only the group creator may do this")
	// ErrAlreadyInGroup indicates the student already has a live membership.
	ErrAlreadyInGroup = errors.New("student already belongs to a group")
	// ErrGroupFull indicates the member cap has been reached.
	ErrGroupFull = errors.New("group already has the maximum number of members")
	// ErrNoPendingInvite indicates the student has no pending invitation.
	ErrNoPendingInvite = errors.New("no pending invitation for this group")
	// ErrSupervisorCapacity indicates the staff member supervises the
	// maximum number of groups already.
	ErrSupervisorCapacity = errors.New("supervisor has no remaining capacity")
	// ErrInvalidTransition wraps a state machine rejection.
	ErrInvalidTransition = errors.New("invalid group transition")
	// ErrRegistrationClosed indicates group registration is switched off.
	ErrRegistrationClosed = errors.New("group registration is currently closed")
)

// GroupService drives group formation: creation, invitations, supervisor
// requests, and the coordinator approval that activates a group.
type GroupService interface {
	List(ctx context.Context, req dto.GroupListRequest) (dto.GroupListResponse, error)
	Get(ctx context.Context, id uint) (dto.GroupResponse, error)
	MyGroup(ctx context.Context, actor Actor) (dto.GroupResponse, error)
	Create(ctx context.Context, actor Actor, payload dto.GroupCreateRequest) (dto.GroupResponse, error)
	Invite(ctx context.Context, actor Actor, groupID uint, payload dto.GroupInviteRequest) (dto.GroupResponse, error)
	RespondToInvite(ctx context.Context, actor Actor, groupID uint, accept bool) (dto.GroupResponse, error)
	RequestSupervisor(ctx context.Context, actor Actor, groupID uint, payload dto.GroupSupervisorRequest) (dto.GroupResponse, error)
	SupervisorDecision(ctx context.Context, actor Actor, groupID uint, payload dto.GroupDecisionRequest) (dto.GroupResponse, error)
	CoordinatorDecision(ctx context.Context, actor Actor, groupID uint, payload dto.GroupDecisionRequest) (dto.GroupResponse, error)
}

type groupService struct {
	groups    repository.GroupRepository
	students  repository.StudentRepository
	staff     repository.StaffRepository
	settings  SettingsLoader
	tx        repository.Transactor
	validator *validator.Validate
	notifier  Notifier
	audit     AuditRecorder
	logger    zerolog.Logger
	now       func() time.Time
}

// NewGroupService constructs the group service.
func NewGroupService(groups repository.GroupRepository, students repository.StudentRepository, staff repository.StaffRepository, settings SettingsLoader, tx repository.Transactor, validate *validator.Validate, notifier Notifier, audit AuditRecorder, logger zerolog.Logger) GroupService {
	return &groupService{
		groups:    groups,
		students:  students,
		staff:     staff,
		settings:  settings,
		tx:        tx,
		validator: validate,
		notifier:  notifier,
		audit:     audit,
		logger:    logger.With().Str("component", "group_service").Logger(),
		now:       time.Now,
	}
}

func (s *groupService) List(ctx context.Context, req dto.GroupListRequest) (dto.GroupListResponse, error) {
	page := maxInt(req.Page, 1)
	pageSize := clampPageSize(req.PageSize)

	filter := repository.GroupFilter{
		Page:         page,
		PageSize:     pageSize,
		DepartmentID: req.DepartmentID,
		SupervisorID: req.SupervisorID,
	}
	if req.Status != "" {
		status, ok := models.ParseGroupStatus(req.Status)
		if !ok {
			return dto.GroupListResponse{}, fmt.Errorf("unknown group status %q", req.Status)
		}
		filter.Status = status
	}

	groups, total, err := s.groups.List(ctx, filter)
	if err != nil {
		return dto.GroupListResponse{}, err
	}

	items := make([]dto.GroupResponse, 0, len(groups))
	for _, group := range groups {
		items = append(items, dto.NewGroupResponse(group))
	}

	return dto.GroupListResponse{
		Items:      items,
		Pagination: dto.NewPaginationMeta(page, pageSize, total),
	}, nil
}

func (s *groupService) Get(ctx context.Context, id uint) (dto.GroupResponse, error) {
	group, err := s.groups.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GroupResponse{}, ErrGroupNotFound
		}
		return dto.GroupResponse{}, err
	}
	return dto.NewGroupResponse(group), nil
}

// MyGroup resolves the caller's current group through their live membership.
func (s *groupService) MyGroup(ctx context.Context, actor Actor) (dto.GroupResponse, error) {
	student, err := s.students.GetByUserID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GroupResponse{}, ErrStudentNotFound
		}
		return dto.GroupResponse{}, err
	}

	group, err := s.groups.FindByStudent(ctx, student.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GroupResponse{}, ErrGroupNotFound
		}
		return dto.GroupResponse{}, err
	}
	return dto.NewGroupResponse(group), nil
}

// Create opens a new forming group with the caller as its first accepted
// member. A student with a live membership cannot create another group, and
// creation is refused while registration is switched off.
func (s *groupService) Create(ctx context.Context, actor Actor, payload dto.GroupCreateRequest) (dto.GroupResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.GroupResponse{}, err
	}

	settings, err := s.settings.Load(ctx)
	if err != nil {
		return dto.GroupResponse{}, err
	}
	if !settings.GetBool(SettingRegistrationOpen, true) {
		return dto.GroupResponse{}, ErrRegistrationClosed
	}

	student, err := s.students.GetByUserID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GroupResponse{}, ErrStudentNotFound
		}
		return dto.GroupResponse{}, err
	}

	memberships, err := s.groups.CountMembershipsForStudent(ctx, student.ID)
	if err != nil {
		return dto.GroupResponse{}, err
	}
	if memberships > 0 {
		return dto.GroupResponse{}, ErrAlreadyInGroup
	}

	var group models.FYPGroup
	err = s.tx.WithinTransaction(ctx, func(txDB *gorm.DB) error {
		group = models.FYPGroup{
			Name:             payload.Name,
			DepartmentID:     student.DepartmentID,
			CreatorStudentID: student.ID,
			Status:           models.GroupForming,
			Version:          1,
		}
		if err := s.groups.WithTx(txDB).Create(ctx, &group); err != nil {
			return err
		}
		return s.groups.WithTx(txDB).AddMember(ctx, &models.GroupMember{
			GroupID:   group.ID,
			StudentID: student.ID,
			Status:    models.MemberAccepted,
		})
	})
	if err != nil {
		return dto.GroupResponse{}, err
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:      actor,
		Action:     "create",
		EntityType: "group",
		EntityID:   &group.ID,
		Details: map[string]interface{}{
			"name":    group.Name,
			"session": settings.Get(SettingCurrentSession, ""),
		},
	})

	return s.Get(ctx, group.ID)
}

// Invite adds a pending membership for the invited student. The cap counts
// pending plus accepted rows, so an open invite reserves a seat.
func (s *groupService) Invite(ctx context.Context, actor Actor, groupID uint, payload dto.GroupInviteRequest) (dto.GroupResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.GroupResponse{}, err
	}

	group, creator, err := s.loadGroupAsCreator(ctx, actor, groupID)
	if err != nil {
		return dto.GroupResponse{}, err
	}
	if group.Status != models.GroupForming {
		return dto.GroupResponse{}, fmt.Errorf("%w: invitations are only open while forming", ErrInvalidTransition)
	}

	invitee, err := s.students.GetByID(ctx, payload.StudentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GroupResponse{}, ErrStudentNotFound
		}
		return dto.GroupResponse{}, err
	}
	if invitee.DepartmentID != group.DepartmentID {
		return dto.GroupResponse{}, errors.New("student belongs to a different department")
	}

	memberships, err := s.groups.CountMembershipsForStudent(ctx, invitee.ID)
	if err != nil {
		return dto.GroupResponse{}, err
	}
	if memberships > 0 {
		return dto.GroupResponse{}, ErrAlreadyInGroup
	}

	count, err := s.groups.CountActiveMembers(ctx, group.ID)
	if err != nil {
		return dto.GroupResponse{}, err
	}
	if count >= models.MaxGroupMembers {
		return dto.GroupResponse{}, ErrGroupFull
	}

	if err := s.groups.AddMember(ctx, &models.GroupMember{
		GroupID:   group.ID,
		StudentID: invitee.ID,
		Status:    models.MemberPending,
	}); err != nil {
		return dto.GroupResponse{}, err
	}

	s.notifier.Dispatch(ctx, []Event{
		GroupEvent(group.ID, "Group invitation",
			fmt.Sprintf("%s invited you to join group %q.", creator.Name, group.Name)),
	})

	return s.Get(ctx, group.ID)
}

// RespondToInvite records the invited student's accept or decline.
func (s *groupService) RespondToInvite(ctx context.Context, actor Actor, groupID uint, accept bool) (dto.GroupResponse, error) {
	student, err := s.students.GetByUserID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GroupResponse{}, ErrStudentNotFound
		}
		return dto.GroupResponse{}, err
	}

	member, err := s.groups.GetMember(ctx, groupID, student.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GroupResponse{}, ErrNoPendingInvite
		}
		return dto.GroupResponse{}, err
	}
	if member.Status != models.MemberPending {
		return dto.GroupResponse{}, ErrNoPendingInvite
	}

	if accept {
		member.Status = models.MemberAccepted
	} else {
		member.Status = models.MemberDeclined
	}
	if err := s.groups.UpdateMember(ctx, &member); err != nil {
		return dto.GroupResponse{}, err
	}

	verdict := "declined"
	if accept {
		verdict = "accepted"
	}
	s.notifier.Dispatch(ctx, []Event{
		GroupEvent(groupID, "Invitation "+verdict,
			fmt.Sprintf("%s has %s the group invitation.", student.Name, verdict)),
	})

	return s.Get(ctx, groupID)
}

// RequestSupervisor asks a staff member to supervise the group. The request
// is refused when the staff member is at capacity.
func (s *groupService) RequestSupervisor(ctx context.Context, actor Actor, groupID uint, payload dto.GroupSupervisorRequest) (dto.GroupResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.GroupResponse{}, err
	}

	group, _, err := s.loadGroupAsCreator(ctx, actor, groupID)
	if err != nil {
		return dto.GroupResponse{}, err
	}
	if group.Status != models.GroupForming {
		return dto.GroupResponse{}, fmt.Errorf("%w: supervisor requests are only open while forming", ErrInvalidTransition)
	}
	if group.SupervisorAcceptedAt != nil {
		return dto.GroupResponse{}, errors.New("group already has an accepted supervisor")
	}

	staff, err := s.staff.GetByID(ctx, payload.StaffID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GroupResponse{}, ErrStaffNotFound
		}
		return dto.GroupResponse{}, err
	}

	supervised, err := s.staff.CountSupervisedGroups(ctx, staff.ID)
	if err != nil {
		return dto.GroupResponse{}, err
	}
	maxGroups := staff.MaxGroups
	if maxGroups <= 0 {
		settings, err := s.settings.Load(ctx)
		if err != nil {
			return dto.GroupResponse{}, err
		}
		maxGroups = settings.GetInt(SettingSupervisorMaxDefault, 5)
	}
	if supervised >= int64(maxGroups) {
		return dto.GroupResponse{}, ErrSupervisorCapacity
	}

	group.SupervisorID = &staff.ID
	if err := s.groups.UpdateVersioned(ctx, &group); err != nil {
		return dto.GroupResponse{}, err
	}

	s.notifier.Dispatch(ctx, []Event{
		DepartmentEvent(models.AudienceSupervisor, group.DepartmentID,
			"Supervision request",
			fmt.Sprintf("Group %q has requested your supervision.", group.Name)),
	})

	return s.Get(ctx, group.ID)
}

// SupervisorDecision records the requested staff member's accept or decline.
// Accepting moves the group to pending coordinator approval.
func (s *groupService) SupervisorDecision(ctx context.Context, actor Actor, groupID uint, payload dto.GroupDecisionRequest) (dto.GroupResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.GroupResponse{}, err
	}

	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GroupResponse{}, ErrGroupNotFound
		}
		return dto.GroupResponse{}, err
	}

	staff, err := s.staff.GetByUserID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GroupResponse{}, ErrStaffNotFound
		}
		return dto.GroupResponse{}, err
	}

	group.Version = payload.Version
	var events []Event
	if payload.Accept {
		if err := group.AcceptSupervisor(staff.ID, s.now()); err != nil {
			return dto.GroupResponse{}, fmt.Errorf("%w: %v", ErrInvalidTransition, err)
		}
		if err := group.TransitionTo(models.GroupPendingApproval); err != nil {
			return dto.GroupResponse{}, fmt.Errorf("%w: %v", ErrInvalidTransition, err)
		}
		events = append(events,
			GroupEvent(group.ID, "Supervisor accepted",
				fmt.Sprintf("%s has accepted supervision of group %q.", staff.Name, group.Name)),
			DepartmentEvent(models.AudienceCoordinator, group.DepartmentID,
				"Group awaiting approval",
				fmt.Sprintf("Group %q is awaiting coordinator approval.", group.Name)),
		)
	} else {
		if err := group.DeclineSupervisor(staff.ID); err != nil {
			return dto.GroupResponse{}, fmt.Errorf("%w: %v", ErrInvalidTransition, err)
		}
		events = append(events,
			GroupEvent(group.ID, "Supervisor declined",
				fmt.Sprintf("%s has declined supervision of group %q.", staff.Name, group.Name)),
		)
	}

	if err := s.groups.UpdateVersioned(ctx, &group); err != nil {
		return dto.GroupResponse{}, err
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:      actor,
		Action:     "supervisor_decision",
		EntityType: "group",
		EntityID:   &group.ID,
		Details:    map[string]interface{}{"accepted": payload.Accept},
	})
	s.notifier.Dispatch(ctx, events)

	return s.Get(ctx, group.ID)
}

// CoordinatorDecision approves or rejects a group pending approval.
// Approval activates the group; rejection is terminal.
func (s *groupService) CoordinatorDecision(ctx context.Context, actor Actor, groupID uint, payload dto.GroupDecisionRequest) (dto.GroupResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.GroupResponse{}, err
	}

	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GroupResponse{}, ErrGroupNotFound
		}
		return dto.GroupResponse{}, err
	}

	next := models.GroupRejected
	title := "Group rejected"
	if payload.Accept {
		next = models.GroupActive
		title = "Group approved"
	}

	group.Version = payload.Version
	if err := group.TransitionTo(next); err != nil {
		return dto.GroupResponse{}, fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	}
	if err := s.groups.UpdateVersioned(ctx, &group); err != nil {
		return dto.GroupResponse{}, err
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:      actor,
		Action:     "coordinator_decision",
		EntityType: "group",
		EntityID:   &group.ID,
		Details:    map[string]interface{}{"accepted": payload.Accept, "note": payload.Note},
	})
	s.notifier.Dispatch(ctx, []Event{
		GroupEvent(group.ID, title,
			fmt.Sprintf("Group %q is now %s.", group.Name, group.Status)),
	})

	return s.Get(ctx, group.ID)
}

// loadGroupAsCreator fetches the group and checks the caller created it.
func (s *groupService) loadGroupAsCreator(ctx context.Context, actor Actor, groupID uint) (models.FYPGroup, models.Student, error) {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.FYPGroup{}, models.Student{}, ErrGroupNotFound
		}
		return models.FYPGroup{}, models.Student{}, err
	}

	student, err := s.students.GetByUserID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.FYPGroup{}, models.Student{}, ErrStudentNotFound
		}
		return models.FYPGroup{}, models.Student{}, err
	}
	if group.CreatorStudentID != student.ID {
		return models.FYPGroup{}, models.Student{}, ErrNotGroupCreator
	}
	return group, student, nil
}
