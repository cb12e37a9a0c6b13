package service

import (
	"time"

	"decision-hub/internal/access"
	"decision-hub/internal/aggregation"
	"decision-hub/internal/lifecycle"
	"decision-hub/internal/models"

	"github.com/google/uuid"
)

// Input limits
const (
	MaxNameLength        = 200
	MaxDescriptionLength = 2000
	MaxCommentLength     = 2000
)

// CreateDecisionRequest holds the fields of a new decision
type CreateDecisionRequest struct {
	Name        string
	Description string
	Type        models.DecisionType
	Mode        models.DecisionMode // defaults to manual
	Deadline    *time.Time
}

// UpdateDecisionRequest changes name and/or description. Nil fields are left alone.
type UpdateDecisionRequest struct {
	Name        *string
	Description *string
}

// InviteRequest invites a user into a team decision
type InviteRequest struct {
	UserID uuid.UUID
	Role   access.Role
}

// DecisionDetails is the full view of a decision for one member
type DecisionDetails struct {
	Decision    models.Decision               `json:"decision"`
	Role        access.Role                   `json:"role"`
	IsOwner     bool                          `json:"is_owner"`
	State       lifecycle.State               `json:"state"`
	Locked      bool                          `json:"locked"`
	Options     []models.Option               `json:"options"`
	Criteria    []models.Criterion            `json:"criteria"`
	Evaluations []models.Evaluation           `json:"evaluations"`
	TeamWeights map[uuid.UUID][]models.Weight `json:"team_weights"`
	MyWeights   []models.Weight               `json:"my_weights"`
	Members     []models.TeamMembership       `json:"members"`
	Comments    []models.Comment              `json:"comments"`
	Results     aggregation.Result            `json:"results"`
}
