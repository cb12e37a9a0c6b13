package models

import (
	"time"

	"github.com/google/uuid"
)

// DecisionMode selects how options are scored
type DecisionMode string

const (
	ModeManual DecisionMode = "manual"
	ModeAI     DecisionMode = "ai"
)

// Valid reports whether m is a known mode
func (m DecisionMode) Valid() bool {
	return m == ModeManual || m == ModeAI
}

// DecisionType distinguishes single-user decisions from team decisions
type DecisionType string

const (
	TypePrivate DecisionType = "private"
	TypeTeam    DecisionType = "team"
)

// Valid reports whether t is a known type
func (t DecisionType) Valid() bool {
	return t == TypePrivate || t == TypeTeam
}

// EvaluationSource tells human evaluations apart from AI ones
type EvaluationSource string

const (
	SourceHuman EvaluationSource = "human"
	SourceAI    EvaluationSource = "ai"
)

// Rating scale and weight bounds
const (
	MinEvaluationValue = 1.0
	MaxEvaluationValue = 10.0
	MinWeight          = 0.0
	MaxWeight          = 100.0
)

// Decision is the root entity: one choice to be made among options
type Decision struct {
	ID            uuid.UUID    `json:"id" db:"id"`
	Name          string       `json:"name" db:"name"`
	Description   string       `json:"description" db:"description"`
	Mode          DecisionMode `json:"mode" db:"mode"`
	Type          DecisionType `json:"type" db:"type"`
	OwnerID       uuid.UUID    `json:"owner_id" db:"owner_id"`
	Deadline      *time.Time   `json:"deadline,omitempty" db:"deadline"`
	AICompletedAt *time.Time   `json:"ai_completed_at,omitempty" db:"ai_completed_at"`
	CreatedAt     time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at" db:"updated_at"`
}

// IsTeam reports whether the decision is shared with a team
func (d *Decision) IsTeam() bool {
	return d.Type == TypeTeam
}

// Option is a candidate choice within a decision
type Option struct {
	ID         uuid.UUID `json:"id" db:"id"`
	DecisionID uuid.UUID `json:"decision_id" db:"decision_id"`
	Name       string    `json:"name" db:"name"`
	Position   int       `json:"position" db:"position"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Criterion is a named dimension of evaluation with a default importance
type Criterion struct {
	ID         uuid.UUID `json:"id" db:"id"`
	DecisionID uuid.UUID `json:"decision_id" db:"decision_id"`
	Name       string    `json:"name" db:"name"`
	Importance float64   `json:"importance" db:"importance"`
	Position   int       `json:"position" db:"position"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// TeamMembership links a user to a team decision with a role
type TeamMembership struct {
	DecisionID uuid.UUID  `json:"decision_id" db:"decision_id"`
	UserID     uuid.UUID  `json:"user_id" db:"user_id"`
	Role       string     `json:"role" db:"role"`
	Accepted   bool       `json:"accepted" db:"accepted"`
	InvitedBy  *uuid.UUID `json:"invited_by,omitempty" db:"invited_by"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty" db:"accepted_at"`
}

// Weight is one member's personal importance for one criterion
type Weight struct {
	DecisionID  uuid.UUID `json:"decision_id" db:"decision_id"`
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	CriterionID uuid.UUID `json:"criterion_id" db:"criterion_id"`
	Weight      float64   `json:"weight" db:"weight"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Evaluation is a score for one option against one criterion.
// UserID is nil for AI-generated rows.
type Evaluation struct {
	ID          uuid.UUID        `json:"id" db:"id"`
	DecisionID  uuid.UUID        `json:"decision_id" db:"decision_id"`
	OptionID    uuid.UUID        `json:"option_id" db:"option_id"`
	CriterionID uuid.UUID        `json:"criterion_id" db:"criterion_id"`
	UserID      *uuid.UUID       `json:"user_id,omitempty" db:"user_id"`
	GeneratedBy EvaluationSource `json:"generated_by" db:"generated_by"`
	Value       float64          `json:"value" db:"value"`
	Explanation *string          `json:"explanation,omitempty" db:"explanation"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at" db:"updated_at"`
}

// IsAI reports whether the evaluation came from the scoring oracle
func (e *Evaluation) IsAI() bool {
	return e.GeneratedBy == SourceAI
}

// Comment is a free-text note on a decision
type Comment struct {
	ID         uuid.UUID `json:"id" db:"id"`
	DecisionID uuid.UUID `json:"decision_id" db:"decision_id"`
	UserID     uuid.UUID `json:"user_id" db:"user_id"`
	Body       string    `json:"body" db:"body"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// OptionInput is one entry of a "save options" batch. A nil ID gets a new one.
type OptionInput struct {
	ID   *uuid.UUID `json:"id,omitempty"`
	Name string     `json:"name"`
}

// CriterionInput is one entry of a "save criteria" batch
type CriterionInput struct {
	ID         *uuid.UUID `json:"id,omitempty"`
	Name       string     `json:"name"`
	Importance float64    `json:"importance"`
}

// WeightInput is one personal weight submission
type WeightInput struct {
	CriterionID uuid.UUID `json:"criterion_id"`
	Weight      float64   `json:"weight"`
}

// EvaluationInput is one human evaluation submission
type EvaluationInput struct {
	OptionID    uuid.UUID `json:"option_id"`
	CriterionID uuid.UUID `json:"criterion_id"`
	Value       float64   `json:"value"`
	Explanation *string   `json:"explanation,omitempty"`
}

// AIEvaluationInput is one cell of an AI run result
type AIEvaluationInput struct {
	OptionID    uuid.UUID
	CriterionID uuid.UUID
	Value       float64
	Explanation string
}
