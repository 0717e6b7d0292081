package dto

import (
	"time"

	"github.com/fypdesk/fyp-api/internal/models"
)

// GroupCreateRequest carries a new group payload. The creator becomes the
// first accepted member.
type GroupCreateRequest struct {
	Name string `json:"name" validate:"required,min=3,max=255"`
}

// GroupInviteRequest invites a student into a group.
type GroupInviteRequest struct {
	StudentID uint `json:"student_id" validate:"required"`
}

// GroupSupervisorRequest asks a staff member to supervise the group.
type GroupSupervisorRequest struct {
	StaffID uint `json:"staff_id" validate:"required"`
}

// GroupDecisionRequest carries an accept/reject style verdict plus the
// caller's last-seen version for the optimistic lock.
type GroupDecisionRequest struct {
	Accept  bool   `json:"accept"`
	Note    string `json:"note" validate:"omitempty,max=2000"`
	Version uint   `json:"version" validate:"required,min=1"`
}

// GroupListRequest filters group listings.
type GroupListRequest struct {
	Page         int
	PageSize     int
	DepartmentID uint
	Status       string
	SupervisorID uint
}

// GroupMemberResponse serializes a membership row.
type GroupMemberResponse struct {
	ID           uint     `json:"id"`
	StudentID    uint     `json:"student_id"`
	StudentName  string   `json:"student_name"`
	EnrollmentID string   `json:"enrollment_id"`
	Status       string   `json:"status"`
	TotalMarks   *float64 `json:"total_marks"`
	Grade        string   `json:"grade,omitempty"`
	FinalResult  string   `json:"final_result,omitempty"`
}

// GroupResponse serializes a group with members.
type GroupResponse struct {
	ID                   uint                  `json:"id"`
	Name                 string                `json:"name"`
	DepartmentID         uint                  `json:"department_id"`
	CreatorStudentID     uint                  `json:"creator_student_id"`
	SupervisorID         *uint                 `json:"supervisor_id"`
	SupervisorAcceptedAt *time.Time            `json:"supervisor_accepted_at"`
	Status               string                `json:"status"`
	Version              uint                  `json:"version"`
	Members              []GroupMemberResponse `json:"members"`
	CreatedAt            time.Time             `json:"created_at"`
	UpdatedAt            time.Time             `json:"updated_at"`
}

// GroupListResponse wraps a paginated group listing.
type GroupListResponse struct {
	Items      []GroupResponse `json:"items"`
	Pagination PaginationMeta  `json:"pagination"`
}

// NewGroupMemberResponse converts a membership model into a DTO.
func NewGroupMemberResponse(member models.GroupMember) GroupMemberResponse {
	return GroupMemberResponse{
		ID:           member.ID,
		StudentID:    member.StudentID,
		StudentName:  member.Student.Name,
		EnrollmentID: member.Student.EnrollmentID,
		Status:       string(member.Status),
		TotalMarks:   member.TotalMarks,
		Grade:        member.Grade,
		FinalResult:  member.FinalResult,
	}
}

// NewGroupResponse converts a group model into a DTO.
func NewGroupResponse(group models.FYPGroup) GroupResponse {
	members := make([]GroupMemberResponse, 0, len(group.Members))
	for _, member := range group.Members {
		members = append(members, NewGroupMemberResponse(member))
	}

	return GroupResponse{
		ID:                   group.ID,
		Name:                 group.Name,
		DepartmentID:         group.DepartmentID,
		CreatorStudentID:     group.CreatorStudentID,
		SupervisorID:         group.SupervisorID,
		SupervisorAcceptedAt: group.SupervisorAcceptedAt,
		Status:               string(group.Status),
		Version:              group.Version,
		Members:              members,
		CreatedAt:            group.CreatedAt,
		UpdatedAt:            group.UpdatedAt,
	}
}
