package access

import (
	"testing"

	"decision-hub/internal/apperror"
	"decision-hub/internal/models"

	"github.com/google/uuid"
)

func TestCan(t *testing.T) {
	cases := []struct {
		name       string
		role       Role
		isOwner    bool
		capability Capability
		allow      bool
	}{
		{name: "owner deletes", role: RoleOwner, isOwner: true, capability: CapDeleteDecision, allow: true},
		{name: "admin cannot delete", role: RoleAdmin, capability: CapDeleteDecision, allow: false},
		{name: "owner role without identity cannot delete", role: RoleOwner, capability: CapDeleteDecision, allow: false},
		{name: "admin changes mode", role: RoleAdmin, capability: CapChangeMode, allow: true},
		{name: "admin changes deadline", role: RoleAdmin, capability: CapChangeDeadline, allow: true},
		{name: "admin invites", role: RoleAdmin, capability: CapInviteMembers, allow: true},
		{name: "admin runs ai", role: RoleAdmin, capability: CapRunAI, allow: true},
		{name: "editor submits scores", role: RoleEditor, capability: CapSubmitScores, allow: true},
		{name: "editor cannot change mode", role: RoleEditor, capability: CapChangeMode, allow: false},
		{name: "editor cannot change deadline", role: RoleEditor, capability: CapChangeDeadline, allow: false},
		{name: "editor cannot invite", role: RoleEditor, capability: CapInviteMembers, allow: false},
		{name: "editor cannot edit structure", role: RoleEditor, capability: CapEditStructure, allow: false},
		{name: "viewer views", role: RoleViewer, capability: CapView, allow: true},
		{name: "viewer comments", role: RoleViewer, capability: CapComment, allow: true},
		{name: "viewer cannot submit scores", role: RoleViewer, capability: CapSubmitScores, allow: false},
		{name: "unknown role", role: Role("guest"), capability: CapView, allow: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Can(tc.role, tc.isOwner, tc.capability); got != tc.allow {
				t.Fatalf("Can(%q, %v, %q) = %v, want %v", tc.role, tc.isOwner, tc.capability, got, tc.allow)
			}
		})
	}
}

func TestAuthorize(t *testing.T) {
	owner := uuid.New()
	member := uuid.New()
	decision := &models.Decision{ID: uuid.New(), OwnerID: owner, Type: models.TypeTeam}

	membership := func(role string, accepted bool) *models.TeamMembership {
		return &models.TeamMembership{DecisionID: decision.ID, UserID: member, Role: role, Accepted: accepted}
	}

	cases := []struct {
		name       string
		identity   uuid.UUID
		membership *models.TeamMembership
		wantRole   Role
		wantOwner  bool
		wantDenied bool
	}{
		{name: "owner without membership row", identity: owner, wantRole: RoleOwner, wantOwner: true},
		{name: "accepted editor", identity: member, membership: membership("editor", true), wantRole: RoleEditor},
		{name: "accepted viewer", identity: member, membership: membership("viewer", true), wantRole: RoleViewer},
		{name: "pending invite", identity: member, membership: membership("admin", false), wantDenied: true},
		{name: "no membership", identity: member, wantDenied: true},
		{name: "unknown role", identity: member, membership: membership("superuser", true), wantDenied: true},
		{name: "membership of someone else", identity: uuid.New(), membership: membership("admin", true), wantDenied: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			grant, err := Authorize(decision, tc.identity, tc.membership)
			if tc.wantDenied {
				if !apperror.Is(err, apperror.KindNoAccess) {
					t.Fatalf("Expected NoAccess, got grant=%+v err=%v", grant, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Authorize failed: %v", err)
			}
			if grant.Role != tc.wantRole || grant.IsOwner != tc.wantOwner || !grant.Accepted {
				t.Errorf("Unexpected grant: %+v", grant)
			}
		})
	}
}

func TestGrantRequire(t *testing.T) {
	viewer := Grant{Role: RoleViewer, Accepted: true}
	if err := viewer.Require(CapView); err != nil {
		t.Errorf("Viewer should view: %v", err)
	}
	if err := viewer.Require(CapSubmitScores); !apperror.Is(err, apperror.KindNoAccess) {
		t.Errorf("Expected NoAccess for viewer scores, got %v", err)
	}

	pending := Grant{Role: RoleAdmin, Accepted: false}
	if pending.Can(CapView) {
		t.Error("Unaccepted grant must not allow anything")
	}
}

func TestInvitable(t *testing.T) {
	if RoleOwner.Invitable() {
		t.Error("Owner role must not be invitable")
	}
	for _, r := range []Role{RoleAdmin, RoleEditor, RoleViewer} {
		if !r.Invitable() {
			t.Errorf("%s should be invitable", r)
		}
	}
}
