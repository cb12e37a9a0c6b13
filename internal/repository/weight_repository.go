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

type WeightRepository struct {
	db Querier
}

func NewWeightRepository(db *sql.DB) *WeightRepository {
	return &WeightRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx
func (r *WeightRepository) WithTx(tx *sql.Tx) *WeightRepository {
	return &WeightRepository{db: tx}
}

// ValidateWeight rejects weights outside [MinWeight, MaxWeight]
func ValidateWeight(weight float64) error {
	if math.IsNaN(weight) || math.IsInf(weight, 0) || weight < models.MinWeight || weight > models.MaxWeight {
		return apperror.Validation("weight must be between %g and %g", models.MinWeight, models.MaxWeight)
	}
	return nil
}

// UpsertWeights stores the user's personal weights. Criteria not in the batch keep their
// stored weight. The whole batch is validated before anything is written.
func (r *WeightRepository) UpsertWeights(ctx context.Context, decisionID, userID uuid.UUID, weights []models.WeightInput) error {
	for _, w := range weights {
		if err := ValidateWeight(w.Weight); err != nil {
			return err
		}
	}

	query := `
		INSERT INTO decision_weights (decision_id, user_id, criterion_id, weight)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (decision_id, user_id, criterion_id)
		DO UPDATE SET weight = EXCLUDED.weight, updated_at = NOW()
	`
	for _, w := range weights {
		if _, err := r.db.ExecContext(ctx, query, decisionID, userID, w.CriterionID, w.Weight); err != nil {
			return fmt.Errorf("failed to upsert weight: %w", err)
		}
	}
	return nil
}

// GetWeights returns one user's weights for a decision
func (r *WeightRepository) GetWeights(ctx context.Context, decisionID, userID uuid.UUID) ([]models.Weight, error) {
	query := `
		SELECT decision_id, user_id, criterion_id, weight, updated_at
		FROM decision_weights
		WHERE decision_id = $1 AND user_id = $2
		ORDER BY criterion_id
	`
	return r.query(ctx, query, decisionID, userID)
}

// ListByDecision returns every member's weights for a decision
func (r *WeightRepository) ListByDecision(ctx context.Context, decisionID uuid.UUID) ([]models.Weight, error) {
	query := `
		SELECT decision_id, user_id, criterion_id, weight, updated_at
		FROM decision_weights
		WHERE decision_id = $1
		ORDER BY user_id, criterion_id
	`
	return r.query(ctx, query, decisionID)
}

// GetAllWeights returns every member's weights grouped by user
func (r *WeightRepository) GetAllWeights(ctx context.Context, decisionID uuid.UUID) (map[uuid.UUID][]models.Weight, error) {
	weights, err := r.ListByDecision(ctx, decisionID)
	if err != nil {
		return nil, err
	}

	byUser := make(map[uuid.UUID][]models.Weight)
	for _, w := range weights {
		byUser[w.UserID] = append(byUser[w.UserID], w)
	}
	return byUser, nil
}

func (r *WeightRepository) query(ctx context.Context, query string, args ...any) ([]models.Weight, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query weights: %w", err)
	}
	defer closeRows(rows)

	weights := []models.Weight{}
	for rows.Next() {
		var w models.Weight
		if err := rows.Scan(&w.DecisionID, &w.UserID, &w.CriterionID, &w.Weight, &w.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan weight: %w", err)
		}
		weights = append(weights, w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating weights: %w", err)
	}
	return weights, nil
}
