package models

import (
	"fmt"
	"time"
)

// FYPGroup is a project group. Status is a single state machine; the two
// loosely-coordinated status axes of earlier designs (group status plus a
// separate supervisor status) are collapsed into it, with supervisor
// acceptance recorded as a timestamp set by Transition-guarded methods.
type FYPGroup struct {
	ID                   uint        `gorm:"primaryKey" json:"id"`
	Name                 string      `gorm:"size:255;not null" json:"name"`
	DepartmentID         uint        `gorm:"not null;index" json:"department_id"`
	CreatorStudentID     uint        `gorm:"not null" json:"creator_student_id"`
	SupervisorID         *uint       `gorm:"index" json:"supervisor_id"`
	SupervisorAcceptedAt *time.Time  `json:"supervisor_accepted_at"`
	Status               GroupStatus `gorm:"size:32;not null" json:"status"`
	Version              uint        `gorm:"not null;default:1" json:"version"`
	CreatedAt            time.Time   `json:"created_at"`
	UpdatedAt            time.Time   `json:"updated_at"`

	Department Department    `gorm:"constraint:OnUpdate:CASCADE" json:"department"`
	Members    []GroupMember `gorm:"foreignKey:GroupID" json:"members"`
}

// MaxGroupMembers caps accepted plus pending memberships per group.
const MaxGroupMembers = 3

var groupTransitions = map[GroupStatus][]GroupStatus{
	GroupForming:         {GroupPendingApproval, GroupRejected},
	GroupPendingApproval: {GroupActive, GroupRejected, GroupForming},
	GroupActive:          {GroupDeferred, GroupCompleted, GroupRejected},
	GroupDeferred:        {GroupActive, GroupRejected},
	GroupRejected:        {},
	GroupCompleted:       {},
}

// CanTransitionTo reports whether the machine permits moving to next.
func (g *FYPGroup) CanTransitionTo(next GroupStatus) bool {
	for _, allowed := range groupTransitions[g.Status] {
		if allowed == next {
			return true
		}
	}
	return false
}

// TransitionTo moves the group to next or fails with the transition named.
// It is the only mutation path for Status.
func (g *FYPGroup) TransitionTo(next GroupStatus) error {
	if !g.CanTransitionTo(next) {
		return fmt.Errorf("group %d cannot move from %s to %s", g.ID, g.Status, next)
	}
	if next == GroupPendingApproval && g.SupervisorAcceptedAt == nil {
		return fmt.Errorf("group %d has no accepted supervisor", g.ID)
	}
	g.Status = next
	return nil
}

// AcceptSupervisor records supervisor acceptance while the group is forming.
func (g *FYPGroup) AcceptSupervisor(staffID uint, at time.Time) error {
	if g.Status != GroupForming {
		return fmt.Errorf("group %d is not forming", g.ID)
	}
	if g.SupervisorID == nil || *g.SupervisorID != staffID {
		return fmt.Errorf("staff %d is not the requested supervisor for group %d", staffID, g.ID)
	}
	if g.SupervisorAcceptedAt != nil {
		return fmt.Errorf("group %d already has an accepted supervisor", g.ID)
	}
	g.SupervisorAcceptedAt = &at
	return nil
}

// DeclineSupervisor clears a pending supervisor request.
func (g *FYPGroup) DeclineSupervisor(staffID uint) error {
	if g.SupervisorID == nil || *g.SupervisorID != staffID {
		return fmt.Errorf("staff %d is not the requested supervisor for group %d", staffID, g.ID)
	}
	if g.SupervisorAcceptedAt != nil {
		return fmt.Errorf("group %d supervisor already accepted", g.ID)
	}
	g.SupervisorID = nil
	return nil
}

// IsTerminal reports whether no further transitions exist.
func (g *FYPGroup) IsTerminal() bool {
	return len(groupTransitions[g.Status]) == 0
}

// GroupMember links a student into a group and carries the per-member mark
// rollup written by result compilation.
type GroupMember struct {
	ID              uint         `gorm:"primaryKey" json:"id"`
	GroupID         uint         `gorm:"not null;uniqueIndex:idx_group_student" json:"group_id"`
	StudentID       uint         `gorm:"not null;uniqueIndex:idx_group_student" json:"student_id"`
	Status          MemberStatus `gorm:"size:16;not null" json:"status"`
	ProposalMarks   *float64     `json:"proposal_marks"`
	MidEvalMarks    *float64     `json:"mid_eval_marks"`
	FinalEvalMarks  *float64     `json:"final_eval_marks"`
	SupervisorMarks *float64     `json:"supervisor_marks"`
	TotalMarks      *float64     `json:"total_marks"`
	Grade           string       `gorm:"size:4" json:"grade"`
	FinalResult     string       `gorm:"size:16" json:"final_result"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`

	Student Student `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
}
