package handlers

import (
	"encoding/json"
	"time"

	"decision-hub/internal/models"
)

// ErrorResponse is the body of every error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// CreateDecisionRequest is the body of POST /decisions
type CreateDecisionRequest struct {
	Name        string     `json:"name" validate:"required,max=200"`
	Description string     `json:"description" validate:"max=2000"`
	Type        string     `json:"type" validate:"required,oneof=private|team"`
	Mode        string     `json:"mode" validate:"oneof=manual|ai"`
	Deadline    *time.Time `json:"deadline,omitempty"`
}

// UpdateDecisionRequest is the body of PATCH /decisions/{id}
type UpdateDecisionRequest struct {
	Name        *string `json:"name,omitempty" validate:"max=200"`
	Description *string `json:"description,omitempty" validate:"max=2000"`
}

// SaveOptionsRequest replaces the options of a decision
type SaveOptionsRequest struct {
	Options []models.OptionInput `json:"options" validate:"max=500"`
}

// SaveCriteriaRequest replaces the criteria of a decision
type SaveCriteriaRequest struct {
	Criteria []models.CriterionInput `json:"criteria" validate:"max=500"`
}

// SubmitWeightsRequest carries the caller's personal weights
type SubmitWeightsRequest struct {
	Weights []models.WeightInput `json:"weights" validate:"required,max=500"`
}

// SubmitEvaluationsRequest carries the caller's evaluations
type SubmitEvaluationsRequest struct {
	Evaluations []models.EvaluationInput `json:"evaluations" validate:"required,max=500"`
}

// ChangeModeRequest is the body of PATCH /decisions/{id}/mode
type ChangeModeRequest struct {
	Mode string `json:"mode" validate:"required,oneof=manual|ai"`
}

// ChangeDeadlineRequest is the body of PATCH /decisions/{id}/deadline.
// The deadline key must be present; null clears the deadline.
type ChangeDeadlineRequest struct {
	Deadline json.RawMessage `json:"deadline" validate:"required" swaggertype:"string" format:"date-time"`
}

// InviteMemberRequest is the body of POST /decisions/{id}/members
type InviteMemberRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Role   string `json:"role" validate:"required,oneof=admin|editor|viewer"`
}

// CommentRequest is the body of comment create and update requests
type CommentRequest struct {
	Body string `json:"body" validate:"required,max=2000"`
}
