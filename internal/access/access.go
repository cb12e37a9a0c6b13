// Package access resolves what an identity may do on a decision.
package access

import (
	"decision-hub/internal/apperror"
	"decision-hub/internal/models"

	"github.com/google/uuid"
)

// Role is a team member's role on a decision
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// Capability is an action gated by role
type Capability string

const (
	CapView           Capability = "view"
	CapSubmitScores   Capability = "submit_scores"
	CapEditStructure  Capability = "edit_structure"
	CapChangeMode     Capability = "change_mode"
	CapChangeDeadline Capability = "change_deadline"
	CapInviteMembers  Capability = "invite_members"
	CapRunAI          Capability = "run_ai"
	CapDeleteDecision Capability = "delete_decision"
	CapComment        Capability = "comment"
)

// ParseRole returns the role named by s
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleOwner, RoleAdmin, RoleEditor, RoleViewer:
		return Role(s), true
	default:
		return "", false
	}
}

// Invitable reports whether a role can be handed out through an invitation
func (r Role) Invitable() bool {
	return r == RoleAdmin || r == RoleEditor || r == RoleViewer
}

// Can is the single capability check for decision actions.
// Deleting a decision is reserved to its owner identity, not to the owner role.
func Can(role Role, isOwner bool, capability Capability) bool {
	if capability == CapDeleteDecision {
		return isOwner
	}

	switch role {
	case RoleOwner, RoleAdmin:
		return true
	case RoleEditor:
		return capability == CapView || capability == CapSubmitScores || capability == CapComment
	case RoleViewer:
		return capability == CapView || capability == CapComment
	default:
		return false
	}
}

// Grant is the resolved access of one identity to one decision
type Grant struct {
	Role     Role `json:"role"`
	IsOwner  bool `json:"is_owner"`
	Accepted bool `json:"accepted"`
}

// Can reports whether the grant includes the capability
func (g Grant) Can(capability Capability) bool {
	return g.Accepted && Can(g.Role, g.IsOwner, capability)
}

// Require returns a NoAccess error when the capability is missing
func (g Grant) Require(capability Capability) error {
	if !g.Can(capability) {
		return apperror.NoAccess("your role does not allow %s on this decision", describe(capability))
	}
	return nil
}

// Authorize resolves the grant for identity on decision. membership may be nil.
func Authorize(decision *models.Decision, identity uuid.UUID, membership *models.TeamMembership) (Grant, error) {
	if decision.OwnerID == identity {
		return Grant{Role: RoleOwner, IsOwner: true, Accepted: true}, nil
	}

	if membership == nil || membership.UserID != identity || membership.DecisionID != decision.ID || !membership.Accepted {
		return Grant{}, apperror.NoAccess("you do not have access to this decision")
	}

	role, ok := ParseRole(membership.Role)
	if !ok {
		return Grant{}, apperror.NoAccess("you do not have access to this decision")
	}

	return Grant{Role: role, Accepted: true}, nil
}

func describe(capability Capability) string {
	switch capability {
	case CapView:
		return "viewing"
	case CapSubmitScores:
		return "submitting weights or evaluations"
	case CapEditStructure:
		return "editing options, criteria or details"
	case CapChangeMode:
		return "changing the mode"
	case CapChangeDeadline:
		return "changing the deadline"
	case CapInviteMembers:
		return "managing members"
	case CapRunAI:
		return "running the AI evaluation"
	case CapDeleteDecision:
		return "deleting the decision"
	case CapComment:
		return "commenting"
	default:
		return string(capability)
	}
}
