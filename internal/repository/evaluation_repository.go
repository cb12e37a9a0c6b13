package repository

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"decision-hub/internal/apperror"
	"decision-hub/internal/models"

	"github.com/google/uuid"
)

type EvaluationRepository struct {
	db Querier
}

func NewEvaluationRepository(db *sql.DB) *EvaluationRepository {
	return &EvaluationRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx
func (r *EvaluationRepository) WithTx(tx *sql.Tx) *EvaluationRepository {
	return &EvaluationRepository{db: tx}
}

// ValidateValue rejects evaluation values outside the rating scale
func ValidateValue(value float64) error {
	if math.IsNaN(value) || value < models.MinEvaluationValue || value > models.MaxEvaluationValue {
		return apperror.Validation("evaluation value must be between %g and %g", models.MinEvaluationValue, models.MaxEvaluationValue)
	}
	return nil
}

// UpsertHumanEvaluation stores one user's score for one cell, replacing an earlier one
func (r *EvaluationRepository) UpsertHumanEvaluation(ctx context.Context, decisionID, userID, optionID, criterionID uuid.UUID, value float64, explanation *string) error {
	if err := ValidateValue(value); err != nil {
		return err
	}

	query := `
		INSERT INTO decision_evaluations (id, decision_id, option_id, criterion_id, user_id, generated_by, value, explanation)
		VALUES ($1, $2, $3, $4, $5, 'human', $6, $7)
		ON CONFLICT (decision_id, option_id, criterion_id, user_id) WHERE generated_by = 'human'
		DO UPDATE SET value = EXCLUDED.value, explanation = EXCLUDED.explanation, updated_at = NOW()
	`
	_, err := r.db.ExecContext(ctx, query, uuid.New(), decisionID, optionID, criterionID, userID, value, explanation)
	if err != nil {
		return fmt.Errorf("failed to upsert evaluation: %w", err)
	}
	return nil
}

// ReplaceAIEvaluations deletes the decision's AI rows and inserts the new set inside tx.
// Readers outside tx see either the old set or the new one.
func (r *EvaluationRepository) ReplaceAIEvaluations(ctx context.Context, tx *sql.Tx, decisionID uuid.UUID, evaluations []models.AIEvaluationInput) error {
	for _, e := range evaluations {
		if err := ValidateValue(e.Value); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM decision_evaluations WHERE decision_id = $1 AND generated_by = 'ai'`, decisionID); err != nil {
		return fmt.Errorf("failed to clear AI evaluations: %w", err)
	}

	query := `
		INSERT INTO decision_evaluations (id, decision_id, option_id, criterion_id, user_id, generated_by, value, explanation)
		VALUES ($1, $2, $3, $4, NULL, 'ai', $5, $6)
	`
	for _, e := range evaluations {
		var explanation *string
		if e.Explanation != "" {
			explanation = &e.Explanation
		}
		if _, err := tx.ExecContext(ctx, query, uuid.New(), decisionID, e.OptionID, e.CriterionID, e.Value, explanation); err != nil {
			return fmt.Errorf("failed to insert AI evaluation: %w", err)
		}
	}
	return nil
}

// GetEvaluations returns every human and AI evaluation of a decision
func (r *EvaluationRepository) GetEvaluations(ctx context.Context, decisionID uuid.UUID) ([]models.Evaluation, error) {
	query := `
		SELECT id, decision_id, option_id, criterion_id, user_id, generated_by, value, explanation, created_at, updated_at
		FROM decision_evaluations
		WHERE decision_id = $1
		ORDER BY generated_by, created_at, id
	`
	rows, err := r.db.QueryContext(ctx, query, decisionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query evaluations: %w", err)
	}
	defer closeRows(rows)

	evaluations := []models.Evaluation{}
	for rows.Next() {
		var e models.Evaluation
		var userID uuid.NullUUID
		var explanation sql.NullString
		err := rows.Scan(
			&e.ID,
			&e.DecisionID,
			&e.OptionID,
			&e.CriterionID,
			&userID,
			&e.GeneratedBy,
			&e.Value,
			&explanation,
			&e.CreatedAt,
			&e.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan evaluation: %w", err)
		}
		if userID.Valid {
			e.UserID = &userID.UUID
		}
		if explanation.Valid {
			e.Explanation = &explanation.String
		}
		evaluations = append(evaluations, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating evaluations: %w", err)
	}
	return evaluations, nil
}
