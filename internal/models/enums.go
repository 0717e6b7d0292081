package models

import "strings"

// Role identifies the permission level carried by a user's token.
type Role string

const (
	RoleStudent     Role = "student"
	RoleSupervisor  Role = "supervisor"
	RoleCoordinator Role = "coordinator"
	RoleHOD         Role = "hod"
	RoleCommittee   Role = "committee"
	RoleEvaluator   Role = "evaluator"
	RoleSuperAdmin  Role = "superadmin"
)

// ParseRole normalizes and validates a role string.
func ParseRole(value string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(value)))
	switch role {
	case RoleStudent, RoleSupervisor, RoleCoordinator, RoleHOD, RoleCommittee, RoleEvaluator, RoleSuperAdmin:
		return role, true
	}
	return "", false
}

// GroupStatus is the lifecycle position of an FYP group. Transitions are
// mediated exclusively by FYPGroup.TransitionTo.
type GroupStatus string

const (
	GroupForming         GroupStatus = "forming"
	GroupPendingApproval GroupStatus = "pending_approval"
	GroupActive          GroupStatus = "active"
	GroupDeferred        GroupStatus = "deferred"
	GroupRejected        GroupStatus = "rejected"
	GroupCompleted       GroupStatus = "completed"
)

// ParseGroupStatus validates a group status string.
func ParseGroupStatus(value string) (GroupStatus, bool) {
	status := GroupStatus(strings.ToLower(strings.TrimSpace(value)))
	switch status {
	case GroupForming, GroupPendingApproval, GroupActive, GroupDeferred, GroupRejected, GroupCompleted:
		return status, true
	}
	return "", false
}

// FormType names the four milestone proposal forms.
type FormType string

const (
	FormA FormType = "form_a"
	FormB FormType = "form_b"
	FormC FormType = "form_c"
	FormD FormType = "form_d"
)

// ParseFormType validates a form type string.
func ParseFormType(value string) (FormType, bool) {
	form := FormType(strings.ToLower(strings.TrimSpace(value)))
	switch form {
	case FormA, FormB, FormC, FormD:
		return form, true
	}
	return "", false
}

// ProposalStatus is the review position of a proposal form.
type ProposalStatus string

const (
	ProposalDraft     ProposalStatus = "draft"
	ProposalSubmitted ProposalStatus = "submitted"
	ProposalApproved  ProposalStatus = "approved"
	ProposalRejected  ProposalStatus = "rejected"
	ProposalRevision  ProposalStatus = "revision"
)

// DocumentType is a closed set of deliverable kinds. Periodic deliverables
// (log forms, monthly reports) carry a Sequence column on the document row
// instead of encoding the period into the type name.
type DocumentType string

const (
	DocumentLogForm       DocumentType = "log_form"
	DocumentMonthlyReport DocumentType = "monthly_report"
	DocumentSRS           DocumentType = "srs"
	DocumentDesignReport  DocumentType = "design_report"
	DocumentThesis        DocumentType = "thesis"
	DocumentPoster        DocumentType = "poster"
)

// ParseDocumentType validates a document type string.
func ParseDocumentType(value string) (DocumentType, bool) {
	doc := DocumentType(strings.ToLower(strings.TrimSpace(value)))
	switch doc {
	case DocumentLogForm, DocumentMonthlyReport, DocumentSRS, DocumentDesignReport, DocumentThesis, DocumentPoster:
		return doc, true
	}
	return "", false
}

// RequiresSupervisorReview reports whether the deliverable passes through
// supervisor review before the coordinator can finalize it.
func (d DocumentType) RequiresSupervisorReview() bool {
	return d == DocumentLogForm
}

// DocumentWorkflowStatus is the review position of a student document.
type DocumentWorkflowStatus string

const (
	DocumentStudentSubmitted     DocumentWorkflowStatus = "student_submitted"
	DocumentSupervisorReviewed   DocumentWorkflowStatus = "supervisor_reviewed"
	DocumentSupervisorRejected   DocumentWorkflowStatus = "supervisor_rejected"
	DocumentCoordinatorFinalized DocumentWorkflowStatus = "coordinator_finalized"
)

// DefenseType names the four evaluation sessions a group faces.
type DefenseType string

const (
	DefenseProposal DefenseType = "proposal"
	DefenseInitial  DefenseType = "initial"
	DefenseMidTerm  DefenseType = "midterm"
	DefenseFinal    DefenseType = "final"
)

// ParseDefenseType validates a defense type string.
func ParseDefenseType(value string) (DefenseType, bool) {
	defense := DefenseType(strings.ToLower(strings.TrimSpace(value)))
	switch defense {
	case DefenseProposal, DefenseInitial, DefenseMidTerm, DefenseFinal:
		return defense, true
	}
	return "", false
}

// MaxMarks returns the mark ceiling an evaluator may award for the session.
func (d DefenseType) MaxMarks() float64 {
	switch d {
	case DefenseProposal:
		return 20
	case DefenseInitial:
		return 20
	case DefenseMidTerm:
		return 20
	case DefenseFinal:
		return 40
	default:
		return 0
	}
}

// DefenseStatus is the scheduling state of a defense session.
type DefenseStatus string

const (
	DefenseScheduled  DefenseStatus = "scheduled"
	DefenseInProgress DefenseStatus = "in_progress"
	DefenseCompleted  DefenseStatus = "completed"
	DefenseCancelled  DefenseStatus = "cancelled"
)

// DefenseResult is the panel verdict, recorded at most once per defense.
type DefenseResult string

const (
	ResultAccepted DefenseResult = "accepted"
	ResultDeferred DefenseResult = "deferred"
	ResultRejected DefenseResult = "rejected"
)

// ParseDefenseResult validates a defense result string.
func ParseDefenseResult(value string) (DefenseResult, bool) {
	result := DefenseResult(strings.ToLower(strings.TrimSpace(value)))
	switch result {
	case ResultAccepted, ResultDeferred, ResultRejected:
		return result, true
	}
	return "", false
}

// Audience tags the consumer set of a notification row. Department-scoped
// audiences pair the tag with the notification's DepartmentID column.
type Audience string

const (
	AudienceStudents    Audience = "students"
	AudienceGroup       Audience = "group"
	AudienceCommittee   Audience = "committee"
	AudienceSupervisor  Audience = "supervisor"
	AudienceEvaluator   Audience = "evaluator"
	AudienceCoordinator Audience = "coordinator"
)

// ParseAudience validates an audience tag.
func ParseAudience(value string) (Audience, bool) {
	audience := Audience(strings.ToLower(strings.TrimSpace(value)))
	switch audience {
	case AudienceStudents, AudienceGroup, AudienceCommittee, AudienceSupervisor, AudienceEvaluator, AudienceCoordinator:
		return audience, true
	}
	return "", false
}

// MemberStatus is the invitation state of a group member.
type MemberStatus string

const (
	MemberPending  MemberStatus = "pending"
	MemberAccepted MemberStatus = "accepted"
	MemberDeclined MemberStatus = "declined"
)
