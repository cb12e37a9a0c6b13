package repository

import (
	"context"
	"database/sql"
	"fmt"

	"decision-hub/internal/models"

	"github.com/google/uuid"
)

type OptionRepository struct {
	db Querier
}

func NewOptionRepository(db *sql.DB) *OptionRepository {
	return &OptionRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx
func (r *OptionRepository) WithTx(tx *sql.Tx) *OptionRepository {
	return &OptionRepository{db: tx}
}

// Replace swaps the decision's options for the given list inside tx. Positions follow
// slice order and zero IDs get fresh ones.
func (r *OptionRepository) Replace(ctx context.Context, tx *sql.Tx, decisionID uuid.UUID, options []models.Option) ([]models.Option, error) {
	if _, err := tx.ExecContext(ctx, `DELETE FROM decision_options WHERE decision_id = $1`, decisionID); err != nil {
		return nil, fmt.Errorf("failed to clear options: %w", err)
	}

	query := `
		INSERT INTO decision_options (id, decision_id, name, position)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	saved := make([]models.Option, 0, len(options))
	for i, option := range options {
		if option.ID == uuid.Nil {
			option.ID = uuid.New()
		}
		option.DecisionID = decisionID
		option.Position = i
		if err := tx.QueryRowContext(ctx, query, option.ID, decisionID, option.Name, option.Position).Scan(&option.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to insert option %q: %w", option.Name, err)
		}
		saved = append(saved, option)
	}
	return saved, nil
}

// ListByDecision returns the options in insertion order
func (r *OptionRepository) ListByDecision(ctx context.Context, decisionID uuid.UUID) ([]models.Option, error) {
	query := `
		SELECT id, decision_id, name, position, created_at
		FROM decision_options
		WHERE decision_id = $1
		ORDER BY position, created_at
	`
	rows, err := r.db.QueryContext(ctx, query, decisionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query options: %w", err)
	}
	defer closeRows(rows)

	options := []models.Option{}
	for rows.Next() {
		var option models.Option
		if err := rows.Scan(&option.ID, &option.DecisionID, &option.Name, &option.Position, &option.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan option: %w", err)
		}
		options = append(options, option)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating options: %w", err)
	}
	return options, nil
}
