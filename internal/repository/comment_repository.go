package repository

import (
	"context"
	"database/sql"
	"fmt"

	"decision-hub/internal/models"

	"github.com/google/uuid"
)

type CommentRepository struct {
	db Querier
}

func NewCommentRepository(db *sql.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx
func (r *CommentRepository) WithTx(tx *sql.Tx) *CommentRepository {
	return &CommentRepository{db: tx}
}

// Create creates a new comment
func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if comment.ID == uuid.Nil {
		comment.ID = uuid.New()
	}
	query := `
		INSERT INTO decision_comments (id, decision_id, user_id, body)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query, comment.ID, comment.DecisionID, comment.UserID, comment.Body).
		Scan(&comment.CreatedAt, &comment.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

// GetByID retrieves a comment of a decision, or nil, nil when it does not exist there
func (r *CommentRepository) GetByID(ctx context.Context, decisionID, commentID uuid.UUID) (*models.Comment, error) {
	query := `
		SELECT id, decision_id, user_id, body, created_at, updated_at
		FROM decision_comments
		WHERE id = $1 AND decision_id = $2
	`
	var comment models.Comment
	err := r.db.QueryRowContext(ctx, query, commentID, decisionID).Scan(
		&comment.ID,
		&comment.DecisionID,
		&comment.UserID,
		&comment.Body,
		&comment.CreatedAt,
		&comment.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return &comment, nil
}

// Update updates the body of an existing comment
func (r *CommentRepository) Update(ctx context.Context, comment *models.Comment) error {
	query := `
		UPDATE decision_comments
		SET body = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING updated_at
	`
	if err := r.db.QueryRowContext(ctx, query, comment.Body, comment.ID).Scan(&comment.UpdatedAt); err != nil {
		return fmt.Errorf("failed to update comment: %w", err)
	}
	return nil
}

// Delete removes a comment
func (r *CommentRepository) Delete(ctx context.Context, commentID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM decision_comments WHERE id = $1`, commentID); err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return nil
}

// ListByDecision returns the comments of a decision, oldest first
func (r *CommentRepository) ListByDecision(ctx context.Context, decisionID uuid.UUID) ([]models.Comment, error) {
	query := `
		SELECT id, decision_id, user_id, body, created_at, updated_at
		FROM decision_comments
		WHERE decision_id = $1
		ORDER BY created_at, id
	`
	rows, err := r.db.QueryContext(ctx, query, decisionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	defer closeRows(rows)

	comments := []models.Comment{}
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.DecisionID, &c.UserID, &c.Body, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comments: %w", err)
	}
	return comments, nil
}
