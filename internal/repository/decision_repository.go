package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"decision-hub/internal/models"

	"github.com/google/uuid"
)

const decisionColumns = `id, name, description, mode, type, owner_id, deadline, ai_completed_at, created_at, updated_at`

type DecisionRepository struct {
	db Querier
}

func NewDecisionRepository(db *sql.DB) *DecisionRepository {
	return &DecisionRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx
func (r *DecisionRepository) WithTx(tx *sql.Tx) *DecisionRepository {
	return &DecisionRepository{db: tx}
}

// Create inserts a new decision. A zero ID gets a fresh one.
func (r *DecisionRepository) Create(ctx context.Context, decision *models.Decision) error {
	if decision.ID == uuid.Nil {
		decision.ID = uuid.New()
	}
	if decision.Mode == "" {
		decision.Mode = models.ModeManual
	}

	query := `
		INSERT INTO decisions (id, name, description, mode, type, owner_id, deadline)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		decision.ID,
		decision.Name,
		decision.Description,
		decision.Mode,
		decision.Type,
		decision.OwnerID,
		decision.Deadline,
	).Scan(&decision.CreatedAt, &decision.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create decision: %w", err)
	}
	return nil
}

// GetByID retrieves a decision. It returns nil, nil when no row exists.
func (r *DecisionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Decision, error) {
	query := `SELECT ` + decisionColumns + ` FROM decisions WHERE id = $1`
	return r.getOne(ctx, r.db, query, id)
}

// GetForUpdate loads a decision and row-locks it until tx ends.
// It returns nil, nil when no row exists.
func (r *DecisionRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*models.Decision, error) {
	query := `SELECT ` + decisionColumns + ` FROM decisions WHERE id = $1 FOR UPDATE`
	return r.getOne(ctx, tx, query, id)
}

func (r *DecisionRepository) getOne(ctx context.Context, q Querier, query string, id uuid.UUID) (*models.Decision, error) {
	decision, err := scanDecision(q.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get decision: %w", err)
	}
	return decision, nil
}

// ListForUser returns the decisions owned by userID plus those where the user is an
// accepted team member, newest first
func (r *DecisionRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Decision, error) {
	query := `
		SELECT ` + decisionColumns + `
		FROM decisions d
		WHERE d.owner_id = $1
		   OR EXISTS (
			SELECT 1 FROM team_memberships tm
			WHERE tm.decision_id = d.id AND tm.user_id = $1 AND tm.accepted = TRUE
		   )
		ORDER BY d.created_at DESC, d.id
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list decisions: %w", err)
	}
	defer closeRows(rows)

	decisions := []models.Decision{}
	for rows.Next() {
		decision, err := scanDecision(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}
		decisions = append(decisions, *decision)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating decisions: %w", err)
	}
	return decisions, nil
}

// UpdateDetails changes name and description
func (r *DecisionRepository) UpdateDetails(ctx context.Context, decision *models.Decision) error {
	query := `
		UPDATE decisions
		SET name = $1, description = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING updated_at
	`
	if err := r.db.QueryRowContext(ctx, query, decision.Name, decision.Description, decision.ID).Scan(&decision.UpdatedAt); err != nil {
		return fmt.Errorf("failed to update decision: %w", err)
	}
	return nil
}

// UpdateMode switches the scoring mode
func (r *DecisionRepository) UpdateMode(ctx context.Context, id uuid.UUID, mode models.DecisionMode) error {
	query := `UPDATE decisions SET mode = $1, updated_at = NOW() WHERE id = $2`
	if _, err := r.db.ExecContext(ctx, query, mode, id); err != nil {
		return fmt.Errorf("failed to update decision mode: %w", err)
	}
	return nil
}

// UpdateDeadline sets or clears (nil) the deadline
func (r *DecisionRepository) UpdateDeadline(ctx context.Context, id uuid.UUID, deadline *time.Time) error {
	query := `UPDATE decisions SET deadline = $1, updated_at = NOW() WHERE id = $2`
	if _, err := r.db.ExecContext(ctx, query, deadline, id); err != nil {
		return fmt.Errorf("failed to update decision deadline: %w", err)
	}
	return nil
}

// MarkAICompleted records the terminal AI lock. An existing timestamp is kept.
func (r *DecisionRepository) MarkAICompleted(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE decisions
		SET ai_completed_at = COALESCE(ai_completed_at, $1), updated_at = NOW()
		WHERE id = $2
	`
	if _, err := r.db.ExecContext(ctx, query, at, id); err != nil {
		return fmt.Errorf("failed to mark decision as AI completed: %w", err)
	}
	return nil
}

// Delete removes a decision; child rows cascade
func (r *DecisionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM decisions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete decision: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDecision(row rowScanner) (*models.Decision, error) {
	var decision models.Decision
	var deadline, aiCompletedAt sql.NullTime
	err := row.Scan(
		&decision.ID,
		&decision.Name,
		&decision.Description,
		&decision.Mode,
		&decision.Type,
		&decision.OwnerID,
		&deadline,
		&aiCompletedAt,
		&decision.CreatedAt,
		&decision.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if deadline.Valid {
		decision.Deadline = &deadline.Time
	}
	if aiCompletedAt.Valid {
		decision.AICompletedAt = &aiCompletedAt.Time
	}
	return &decision, nil
}
