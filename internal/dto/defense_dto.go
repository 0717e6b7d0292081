package dto

import (
	"time"

	"github.com/fypdesk/fyp-api/internal/models"
)

// DefenseScheduleRequest schedules a session for a group.
type DefenseScheduleRequest struct {
	GroupID     uint      `json:"group_id" validate:"required"`
	Type        string    `json:"type" validate:"required,oneof=proposal initial midterm final"`
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
	Venue       string    `json:"venue" validate:"omitempty,max=128"`
}

// DefenseAssignEvaluatorsRequest assigns panel members.
type DefenseAssignEvaluatorsRequest struct {
	StaffIDs []uint `json:"staff_ids" validate:"required,min=1,max=5,dive,required"`
}

// DefenseStatusRequest moves a defense between scheduling states.
type DefenseStatusRequest struct {
	Status  string `json:"status" validate:"required,oneof=in_progress completed cancelled"`
	Version uint   `json:"version" validate:"required,min=1"`
}

// DefenseResultRequest records the write-once panel verdict.
type DefenseResultRequest struct {
	Result  string `json:"result" validate:"required,oneof=accepted deferred rejected"`
	Note    string `json:"note" validate:"omitempty,max=4000"`
	Version uint   `json:"version" validate:"required,min=1"`
}

// DefenseMarkRequest carries one evaluator's component scores.
type DefenseMarkRequest struct {
	PresentationMarks  float64 `json:"presentation_marks" validate:"min=0"`
	ImplementationMark float64 `json:"implementation_marks" validate:"min=0"`
	DocumentationMarks float64 `json:"documentation_marks" validate:"min=0"`
	QAMarks            float64 `json:"qa_marks" validate:"min=0"`
	Remarks            string  `json:"remarks" validate:"omitempty,max=4000"`
}

// DefenseListRequest filters defense listings.
type DefenseListRequest struct {
	Page         int
	PageSize     int
	GroupID      uint
	Type         string
	Status       string
	DepartmentID uint
}

// DefenseEvaluatorResponse serializes a panel assignment.
type DefenseEvaluatorResponse struct {
	StaffID           uint   `json:"staff_id"`
	StaffName         string `json:"staff_name"`
	HasSubmittedMarks bool   `json:"has_submitted_marks"`
	IsNotified        bool   `json:"is_notified"`
}

// DefenseMarkResponse serializes one evaluator's scores.
type DefenseMarkResponse struct {
	EvaluatorStaffID   uint    `json:"evaluator_staff_id"`
	PresentationMarks  float64 `json:"presentation_marks"`
	ImplementationMark float64 `json:"implementation_marks"`
	DocumentationMarks float64 `json:"documentation_marks"`
	QAMarks            float64 `json:"qa_marks"`
	TotalMarks         float64 `json:"total_marks"`
	Remarks            string  `json:"remarks,omitempty"`
}

// DefenseResponse serializes a defense with its panel and marks.
type DefenseResponse struct {
	ID           uint                       `json:"id"`
	GroupID      uint                       `json:"group_id"`
	Type         string                     `json:"type"`
	ScheduledAt  time.Time                  `json:"scheduled_at"`
	Venue        string                     `json:"venue"`
	Status       string                     `json:"status"`
	Result       *string                    `json:"result"`
	ResultNote   string                     `json:"result_note,omitempty"`
	ResultAt     *time.Time                 `json:"result_at"`
	AverageMarks *float64                   `json:"average_marks"`
	Version      uint                       `json:"version"`
	Evaluators   []DefenseEvaluatorResponse `json:"evaluators"`
	Marks        []DefenseMarkResponse      `json:"marks"`
	CreatedAt    time.Time                  `json:"created_at"`
}

// DefenseListResponse wraps a paginated defense listing.
type DefenseListResponse struct {
	Items      []DefenseResponse `json:"items"`
	Pagination PaginationMeta    `json:"pagination"`
}

// NewDefenseResponse converts a defense model into a DTO, computing the
// cross-evaluator average when marks exist.
func NewDefenseResponse(defense models.Defense) DefenseResponse {
	evaluators := make([]DefenseEvaluatorResponse, 0, len(defense.Evaluators))
	for _, evaluator := range defense.Evaluators {
		evaluators = append(evaluators, DefenseEvaluatorResponse{
			StaffID:           evaluator.StaffID,
			StaffName:         evaluator.Staff.Name,
			HasSubmittedMarks: evaluator.HasSubmittedMarks,
			IsNotified:        evaluator.IsNotified,
		})
	}

	marks := make([]DefenseMarkResponse, 0, len(defense.Marks))
	var sum float64
	for _, mark := range defense.Marks {
		marks = append(marks, DefenseMarkResponse{
			EvaluatorStaffID:   mark.EvaluatorStaffID,
			PresentationMarks:  mark.PresentationMarks,
			ImplementationMark: mark.ImplementationMark,
			DocumentationMarks: mark.DocumentationMarks,
			QAMarks:            mark.QAMarks,
			TotalMarks:         mark.TotalMarks,
			Remarks:            mark.Remarks,
		})
		sum += mark.TotalMarks
	}

	var average *float64
	if len(marks) > 0 {
		value := sum / float64(len(marks))
		average = &value
	}

	var result *string
	if defense.Result != nil {
		value := string(*defense.Result)
		result = &value
	}

	return DefenseResponse{
		ID:           defense.ID,
		GroupID:      defense.GroupID,
		Type:         string(defense.Type),
		ScheduledAt:  defense.ScheduledAt,
		Venue:        defense.Venue,
		Status:       string(defense.Status),
		Result:       result,
		ResultNote:   defense.ResultNote,
		ResultAt:     defense.ResultAt,
		AverageMarks: average,
		Version:      defense.Version,
		Evaluators:   evaluators,
		Marks:        marks,
		CreatedAt:    defense.CreatedAt,
	}
}
