package service_test

import (
	"strings"
	"testing"

	"decision-hub/internal/access"
	"decision-hub/internal/apperror"
	"decision-hub/internal/models"
	"decision-hub/internal/runguard"
	"decision-hub/internal/service"
	"decision-hub/internal/testutil"

	"github.com/google/uuid"
)

func TestTeamMembership(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	containers := testutil.SetupTestContainers(t)
	defer containers.Cleanup(t)

	env := newService(t, containers, runguard.Noop{})
	ctx := env.ctx
	svc := env.svc

	decision, owner, members := env.newTeam(t, models.ModeManual, access.RoleAdmin, access.RoleEditor)
	admin, editor := members[0], members[1]

	t.Run("invalid invitations", func(t *testing.T) {
		tests := []struct {
			name    string
			inviter uuid.UUID
			req     service.InviteRequest
			kind    apperror.Kind
		}{
			{"owner role", owner, service.InviteRequest{UserID: uuid.New(), Role: access.RoleOwner}, apperror.KindValidation},
			{"missing user", owner, service.InviteRequest{Role: access.RoleViewer}, apperror.KindValidation},
			{"existing member", owner, service.InviteRequest{UserID: editor, Role: access.RoleViewer}, apperror.KindValidation},
			{"inviting the owner", admin, service.InviteRequest{UserID: owner, Role: access.RoleViewer}, apperror.KindValidation},
			{"editor inviting", editor, service.InviteRequest{UserID: uuid.New(), Role: access.RoleViewer}, apperror.KindNoAccess},
			{"outsider inviting", uuid.New(), service.InviteRequest{UserID: uuid.New(), Role: access.RoleViewer}, apperror.KindNoAccess},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := svc.InviteMember(ctx, decision.ID, tt.inviter, tt.req)
				assertKind(t, err, tt.kind)
			})
		}
	})

	t.Run("pending invitation flow", func(t *testing.T) {
		invitee := uuid.New()
		membership, err := svc.InviteMember(ctx, decision.ID, admin, service.InviteRequest{UserID: invitee, Role: access.RoleViewer})
		if err != nil {
			t.Fatalf("InviteMember failed: %v", err)
		}
		if membership.Accepted || membership.InvitedBy == nil || *membership.InvitedBy != admin {
			t.Errorf("Unexpected membership %+v", membership)
		}

		list, err := svc.ListDecisions(ctx, invitee)
		if err != nil {
			t.Fatalf("ListDecisions failed: %v", err)
		}
		if len(list) != 0 {
			t.Errorf("Pending invitations must not list the decision, got %d", len(list))
		}

		accepted, err := svc.AcceptInvitation(ctx, decision.ID, invitee)
		if err != nil {
			t.Fatalf("AcceptInvitation failed: %v", err)
		}
		if !accepted.Accepted || accepted.AcceptedAt == nil {
			t.Fatalf("Expected accepted membership, got %+v", accepted)
		}

		again, err := svc.AcceptInvitation(ctx, decision.ID, invitee)
		if err != nil {
			t.Fatalf("Accepting twice should be a no-op: %v", err)
		}
		if !again.AcceptedAt.Equal(*accepted.AcceptedAt) {
			t.Error("Accepting twice must keep the first acceptance time")
		}

		if _, err := svc.GetDetails(ctx, decision.ID, invitee); err != nil {
			t.Errorf("Accepted viewer should see the decision: %v", err)
		}

		_, err = svc.AcceptInvitation(ctx, decision.ID, uuid.New())
		assertKind(t, err, apperror.KindNotFound)
	})

	t.Run("removing members", func(t *testing.T) {
		assertKind(t, svc.RemoveMember(ctx, decision.ID, admin, owner), apperror.KindValidation)
		assertKind(t, svc.RemoveMember(ctx, decision.ID, editor, admin), apperror.KindNoAccess)
		assertKind(t, svc.RemoveMember(ctx, decision.ID, admin, uuid.New()), apperror.KindNotFound)

		declined := uuid.New()
		if _, err := svc.InviteMember(ctx, decision.ID, owner, service.InviteRequest{UserID: declined, Role: access.RoleEditor}); err != nil {
			t.Fatalf("InviteMember failed: %v", err)
		}
		if err := svc.RemoveMember(ctx, decision.ID, declined, declined); err != nil {
			t.Errorf("Declining an invitation should succeed: %v", err)
		}

		if err := svc.RemoveMember(ctx, decision.ID, admin, editor); err != nil {
			t.Fatalf("Admin should remove the editor: %v", err)
		}
		_, err := svc.GetDetails(ctx, decision.ID, editor)
		assertKind(t, err, apperror.KindNoAccess)

		if _, err := svc.InviteMember(ctx, decision.ID, admin, service.InviteRequest{UserID: editor, Role: access.RoleEditor}); err != nil {
			t.Errorf("A removed member can be invited again: %v", err)
		}
	})

	t.Run("members are listed for viewers", func(t *testing.T) {
		list, err := svc.ListMembers(ctx, decision.ID, admin)
		if err != nil {
			t.Fatalf("ListMembers failed: %v", err)
		}
		roles := map[string]int{}
		for _, m := range list {
			roles[m.Role]++
		}
		if roles[string(access.RoleOwner)] != 1 || roles[string(access.RoleAdmin)] != 1 {
			t.Errorf("Unexpected member roles %v", roles)
		}

		_, err = svc.ListMembers(ctx, decision.ID, uuid.New())
		assertKind(t, err, apperror.KindNoAccess)
	})
}

func TestComments(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	containers := testutil.SetupTestContainers(t)
	defer containers.Cleanup(t)

	env := newService(t, containers, runguard.Noop{})
	ctx := env.ctx
	svc := env.svc

	decision, owner, members := env.newTeam(t, models.ModeManual, access.RoleViewer)
	viewer := members[0]

	comment, err := svc.AddComment(ctx, decision.ID, viewer, "  I prefer option A  ")
	if err != nil {
		t.Fatalf("Viewer should comment: %v", err)
	}
	if comment.Body != "I prefer option A" {
		t.Errorf("Expected trimmed body, got %q", comment.Body)
	}

	_, err = svc.AddComment(ctx, decision.ID, viewer, "   ")
	assertKind(t, err, apperror.KindValidation)
	_, err = svc.AddComment(ctx, decision.ID, viewer, strings.Repeat("x", service.MaxCommentLength+1))
	assertKind(t, err, apperror.KindValidation)
	_, err = svc.AddComment(ctx, decision.ID, uuid.New(), "hello")
	assertKind(t, err, apperror.KindNoAccess)

	_, err = svc.UpdateComment(ctx, decision.ID, comment.ID, owner, "edited by owner")
	assertKind(t, err, apperror.KindNoAccess)
	assertKind(t, svc.DeleteComment(ctx, decision.ID, comment.ID, owner), apperror.KindNoAccess)

	updated, err := svc.UpdateComment(ctx, decision.ID, comment.ID, viewer, "Actually B")
	if err != nil {
		t.Fatalf("UpdateComment failed: %v", err)
	}
	if updated.Body != "Actually B" {
		t.Errorf("Expected updated body, got %q", updated.Body)
	}

	details, err := svc.GetDetails(ctx, decision.ID, owner)
	if err != nil {
		t.Fatalf("GetDetails failed: %v", err)
	}
	if len(details.Comments) != 1 || details.Comments[0].Body != "Actually B" {
		t.Errorf("Unexpected comments %+v", details.Comments)
	}

	if err := svc.DeleteComment(ctx, decision.ID, comment.ID, viewer); err != nil {
		t.Fatalf("DeleteComment failed: %v", err)
	}
	assertKind(t, svc.DeleteComment(ctx, decision.ID, comment.ID, viewer), apperror.KindNotFound)
}
