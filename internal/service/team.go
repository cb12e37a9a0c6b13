package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"decision-hub/internal/access"
	"decision-hub/internal/apperror"
	"decision-hub/internal/database"
	"decision-hub/internal/models"
	"decision-hub/internal/repository"

	"github.com/google/uuid"
)

// InviteMember invites a user into a team decision with an invitable role
func (s *DecisionService) InviteMember(ctx context.Context, id, inviterID uuid.UUID, req InviteRequest) (*models.TeamMembership, error) {
	if req.UserID == uuid.Nil {
		return nil, apperror.Validation("user_id is required")
	}
	if !req.Role.Invitable() {
		return nil, apperror.Validation("role must be one of %q, %q or %q", access.RoleAdmin, access.RoleEditor, access.RoleViewer)
	}

	var membership *models.TeamMembership
	err := s.withLockedDecision(ctx, id, inviterID, access.CapInviteMembers, "", func(l *lockedDecision) error {
		if !l.decision.IsTeam() {
			return apperror.Validation("only team decisions have members")
		}
		if req.UserID == inviterID || req.UserID == l.decision.OwnerID {
			return apperror.Validation("you cannot invite yourself or the owner")
		}

		m := &models.TeamMembership{
			DecisionID: id,
			UserID:     req.UserID,
			Role:       string(req.Role),
			InvitedBy:  &inviterID,
		}
		err := s.membershipRepo.WithTx(l.tx).Create(ctx, m)
		if errors.Is(err, repository.ErrDuplicate) {
			return apperror.Validation("user is already a member or has a pending invitation")
		}
		if err != nil {
			return err
		}
		membership = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Member invited", "decision_id", id, "user_id", req.UserID, "role", req.Role, "invited_by", inviterID)
	return membership, nil
}

// AcceptInvitation accepts the caller's pending invitation. Accepting again is a no-op.
func (s *DecisionService) AcceptInvitation(ctx context.Context, id, userID uuid.UUID) (*models.TeamMembership, error) {
	var membership *models.TeamMembership
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		decision, err := s.decisionRepo.GetForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if decision == nil {
			return apperror.NotFound("decision not found")
		}

		memberships := s.membershipRepo.WithTx(tx)
		m, err := memberships.Get(ctx, id, userID)
		if err != nil {
			return err
		}
		if m == nil {
			return apperror.NotFound("no invitation found for this decision")
		}

		if !m.Accepted {
			if err := memberships.Accept(ctx, id, userID, s.now()); err != nil {
				return err
			}
			if m, err = memberships.Get(ctx, id, userID); err != nil {
				return err
			}
			slog.Info("Invitation accepted", "decision_id", id, "user_id", userID)
		}
		membership = m
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}
	return membership, nil
}

// ListMembers returns all memberships of a decision, pending ones included
func (s *DecisionService) ListMembers(ctx context.Context, id, userID uuid.UUID) ([]models.TeamMembership, error) {
	decision, _, err := s.loadForRead(ctx, id, userID, access.CapView)
	if err != nil {
		return nil, err
	}
	if !decision.IsTeam() {
		return []models.TeamMembership{}, nil
	}

	members, err := s.membershipRepo.ListByDecision(ctx, id)
	if err != nil {
		return nil, classify(err)
	}
	return members, nil
}

// RemoveMember removes a member or withdraws an invitation. Members may remove
// themselves, which also declines a pending invitation.
func (s *DecisionService) RemoveMember(ctx context.Context, id, actorID, userID uuid.UUID) error {
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		decision, err := s.decisionRepo.GetForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if decision == nil {
			return apperror.NotFound("decision not found")
		}
		if userID == decision.OwnerID {
			return apperror.Validation("the owner cannot be removed")
		}

		memberships := s.membershipRepo.WithTx(tx)
		if actorID != userID {
			grant, err := s.authorize(ctx, memberships, decision, actorID)
			if err != nil {
				return err
			}
			if err := grant.Require(access.CapInviteMembers); err != nil {
				return err
			}
		}

		removed, err := memberships.Delete(ctx, id, userID)
		if err != nil {
			return err
		}
		if !removed {
			return apperror.NotFound("member not found")
		}
		return nil
	})
	if err != nil {
		return classify(err)
	}

	slog.Info("Member removed", "decision_id", id, "user_id", userID, "removed_by", actorID)
	return nil
}
