package dto

import (
	"time"

	"github.com/fypdesk/fyp-api/internal/models"
)

// ResultsCompileRequest triggers result compilation for a group.
type ResultsCompileRequest struct {
	GroupID uint `json:"group_id" validate:"required"`
}

// SupervisorMarksRequest records the supervisor's per-member marks.
type SupervisorMarksRequest struct {
	StudentID uint    `json:"student_id" validate:"required"`
	Marks     float64 `json:"marks" validate:"min=0,max=20"`
}

// MemberResultResponse serializes one member's compiled result.
type MemberResultResponse struct {
	StudentID       uint     `json:"student_id"`
	EnrollmentID    string   `json:"enrollment_id"`
	StudentName     string   `json:"student_name"`
	ProposalMarks   float64  `json:"proposal_marks"`
	MidEvalMarks    float64  `json:"mid_eval_marks"`
	FinalEvalMarks  float64  `json:"final_eval_marks"`
	SupervisorMarks float64  `json:"supervisor_marks"`
	TotalMarks      float64  `json:"total_marks"`
	Grade           string   `json:"grade"`
	FinalResult     string   `json:"final_result"`
}

// GroupResultsResponse serializes a group's compiled results.
type GroupResultsResponse struct {
	GroupID    uint                   `json:"group_id"`
	GroupName  string                 `json:"group_name"`
	Members    []MemberResultResponse `json:"members"`
	CompiledAt time.Time              `json:"compiled_at"`
}

// ProjectEvaluationRequest updates the coordinator/supervisor components
// before an explicit recompute.
type ProjectEvaluationRequest struct {
	CoordinatorTimeline float64 `json:"coordinator_timeline_marks" validate:"min=0,max=10"`
	SupervisorProgress  float64 `json:"supervisor_progress_marks" validate:"min=0,max=10"`
	Version             uint    `json:"version" validate:"omitempty,min=1"`
}

// ProjectEvaluationResponse serializes the per-group rollup.
type ProjectEvaluationResponse struct {
	GroupID               uint      `json:"group_id"`
	CoordinatorTimeline   float64   `json:"coordinator_timeline_marks"`
	SupervisorProgress    float64   `json:"supervisor_progress_marks"`
	InitialDefenseAverage float64   `json:"initial_defense_marks"`
	MidTermDefenseAverage float64   `json:"mid_defense_marks"`
	FinalDefenseAverage   float64   `json:"final_defense_marks"`
	TotalMarks            float64   `json:"total_marks"`
	Grade                 string    `json:"grade"`
	ComputedAt            time.Time `json:"computed_at"`
	Version               uint      `json:"version"`
}

// NewProjectEvaluationResponse converts a rollup model into a DTO.
func NewProjectEvaluationResponse(evaluation models.ProjectEvaluation) ProjectEvaluationResponse {
	return ProjectEvaluationResponse{
		GroupID:               evaluation.GroupID,
		CoordinatorTimeline:   evaluation.CoordinatorTimeline,
		SupervisorProgress:    evaluation.SupervisorProgress,
		InitialDefenseAverage: evaluation.InitialDefenseAverage,
		MidTermDefenseAverage: evaluation.MidTermDefenseAverage,
		FinalDefenseAverage:   evaluation.FinalDefenseAverage,
		TotalMarks:            evaluation.TotalMarks,
		Grade:                 evaluation.Grade,
		ComputedAt:            evaluation.ComputedAt,
		Version:               evaluation.Version,
	}
}
