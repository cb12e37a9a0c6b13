package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"decision-hub/internal/models"

	"github.com/google/uuid"
)

type MembershipRepository struct {
	db Querier
}

func NewMembershipRepository(db *sql.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx
func (r *MembershipRepository) WithTx(tx *sql.Tx) *MembershipRepository {
	return &MembershipRepository{db: tx}
}

// Create inserts a membership. It returns ErrDuplicate when the user already has one.
func (r *MembershipRepository) Create(ctx context.Context, membership *models.TeamMembership) error {
	query := `
		INSERT INTO team_memberships (decision_id, user_id, role, accepted, invited_by, accepted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		membership.DecisionID,
		membership.UserID,
		membership.Role,
		membership.Accepted,
		membership.InvitedBy,
		membership.AcceptedAt,
	).Scan(&membership.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to create membership: %w", err)
	}
	return nil
}

// Get returns the membership of userID on decisionID, or nil, nil when there is none
func (r *MembershipRepository) Get(ctx context.Context, decisionID, userID uuid.UUID) (*models.TeamMembership, error) {
	query := `
		SELECT decision_id, user_id, role, accepted, invited_by, created_at, accepted_at
		FROM team_memberships
		WHERE decision_id = $1 AND user_id = $2
	`
	membership, err := scanMembership(r.db.QueryRowContext(ctx, query, decisionID, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return membership, nil
}

// Accept marks a pending membership as accepted. Accepting twice keeps the first timestamp.
func (r *MembershipRepository) Accept(ctx context.Context, decisionID, userID uuid.UUID, at time.Time) error {
	query := `
		UPDATE team_memberships
		SET accepted = TRUE, accepted_at = COALESCE(accepted_at, $1)
		WHERE decision_id = $2 AND user_id = $3
	`
	if _, err := r.db.ExecContext(ctx, query, at, decisionID, userID); err != nil {
		return fmt.Errorf("failed to accept membership: %w", err)
	}
	return nil
}

// ListByDecision returns all memberships, accepted or not, oldest first
func (r *MembershipRepository) ListByDecision(ctx context.Context, decisionID uuid.UUID) ([]models.TeamMembership, error) {
	query := `
		SELECT decision_id, user_id, role, accepted, invited_by, created_at, accepted_at
		FROM team_memberships
		WHERE decision_id = $1
		ORDER BY created_at, user_id
	`
	rows, err := r.db.QueryContext(ctx, query, decisionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query memberships: %w", err)
	}
	defer closeRows(rows)

	memberships := []models.TeamMembership{}
	for rows.Next() {
		membership, err := scanMembership(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		memberships = append(memberships, *membership)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating memberships: %w", err)
	}
	return memberships, nil
}

// Delete removes a membership and reports whether one existed
func (r *MembershipRepository) Delete(ctx context.Context, decisionID, userID uuid.UUID) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM team_memberships WHERE decision_id = $1 AND user_id = $2`, decisionID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete membership: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete membership: %w", err)
	}
	return affected > 0, nil
}

func scanMembership(row rowScanner) (*models.TeamMembership, error) {
	var membership models.TeamMembership
	var invitedBy uuid.NullUUID
	var acceptedAt sql.NullTime
	err := row.Scan(
		&membership.DecisionID,
		&membership.UserID,
		&membership.Role,
		&membership.Accepted,
		&invitedBy,
		&membership.CreatedAt,
		&acceptedAt,
	)
	if err != nil {
		return nil, err
	}
	if invitedBy.Valid {
		membership.InvitedBy = &invitedBy.UUID
	}
	if acceptedAt.Valid {
		membership.AcceptedAt = &acceptedAt.Time
	}
	return &membership, nil
}
