package repository

import (
	"context"
	"database/sql"
	"fmt"

	"decision-hub/internal/models"

	"github.com/google/uuid"
)

type CriterionRepository struct {
	db Querier
}

func NewCriterionRepository(db *sql.DB) *CriterionRepository {
	return &CriterionRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx
func (r *CriterionRepository) WithTx(tx *sql.Tx) *CriterionRepository {
	return &CriterionRepository{db: tx}
}

// Replace swaps the decision's criteria for the given list inside tx
func (r *CriterionRepository) Replace(ctx context.Context, tx *sql.Tx, decisionID uuid.UUID, criteria []models.Criterion) ([]models.Criterion, error) {
	if _, err := tx.ExecContext(ctx, `DELETE FROM decision_criteria WHERE decision_id = $1`, decisionID); err != nil {
		return nil, fmt.Errorf("failed to clear criteria: %w", err)
	}

	query := `
		INSERT INTO decision_criteria (id, decision_id, name, importance, position)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	saved := make([]models.Criterion, 0, len(criteria))
	for i, criterion := range criteria {
		if criterion.ID == uuid.Nil {
			criterion.ID = uuid.New()
		}
		criterion.DecisionID = decisionID
		criterion.Position = i
		err := tx.QueryRowContext(ctx, query,
			criterion.ID,
			decisionID,
			criterion.Name,
			criterion.Importance,
			criterion.Position,
		).Scan(&criterion.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to insert criterion %q: %w", criterion.Name, err)
		}
		saved = append(saved, criterion)
	}
	return saved, nil
}

// ListByDecision returns the criteria in insertion order
func (r *CriterionRepository) ListByDecision(ctx context.Context, decisionID uuid.UUID) ([]models.Criterion, error) {
	query := `
		SELECT id, decision_id, name, importance, position, created_at
		FROM decision_criteria
		WHERE decision_id = $1
		ORDER BY position, created_at
	`
	rows, err := r.db.QueryContext(ctx, query, decisionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query criteria: %w", err)
	}
	defer closeRows(rows)

	criteria := []models.Criterion{}
	for rows.Next() {
		var c models.Criterion
		if err := rows.Scan(&c.ID, &c.DecisionID, &c.Name, &c.Importance, &c.Position, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan criterion: %w", err)
		}
		criteria = append(criteria, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating criteria: %w", err)
	}
	return criteria, nil
}
