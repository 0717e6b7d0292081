package service

import (
	"time"

	"github.com/fypdesk/fyp-api/internal/models"
)

// Event is a notification produced by a workflow transition. Transition
// services collect events while the business transaction is open and hand
// them to the Notifier only after commit, so a failed transition never
// notifies and a failed notification never rolls back the transition.
type Event struct {
	Audience     models.Audience
	DepartmentID *uint
	GroupID      *uint
	Title        string
	Message      string
	ExpiresAt    *time.Time
}

// GroupEvent builds an event addressed to one group's members.
func GroupEvent(groupID uint, title, message string) Event {
	id := groupID
	return Event{Audience: models.AudienceGroup, GroupID: &id, Title: title, Message: message}
}

// DepartmentEvent builds an event addressed to an audience within one
// department.
func DepartmentEvent(audience models.Audience, departmentID uint, title, message string) Event {
	id := departmentID
	return Event{Audience: audience, DepartmentID: &id, Title: title, Message: message}
}
