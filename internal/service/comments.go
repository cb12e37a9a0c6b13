package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"decision-hub/internal/access"
	"decision-hub/internal/apperror"
	"decision-hub/internal/models"

	"github.com/google/uuid"
)

// AddComment adds a comment. Comments stay open in every lifecycle state.
func (s *DecisionService) AddComment(ctx context.Context, id, userID uuid.UUID, body string) (*models.Comment, error) {
	body, err := validateCommentBody(body)
	if err != nil {
		return nil, err
	}
	if _, _, err := s.loadForRead(ctx, id, userID, access.CapComment); err != nil {
		return nil, err
	}

	comment := &models.Comment{DecisionID: id, UserID: userID, Body: body}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, classify(err)
	}
	return comment, nil
}

// UpdateComment changes the body of the caller's own comment
func (s *DecisionService) UpdateComment(ctx context.Context, id, commentID, userID uuid.UUID, body string) (*models.Comment, error) {
	body, err := validateCommentBody(body)
	if err != nil {
		return nil, err
	}

	comment, err := s.ownComment(ctx, id, commentID, userID)
	if err != nil {
		return nil, err
	}

	comment.Body = body
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, classify(err)
	}
	return comment, nil
}

// DeleteComment deletes the caller's own comment
func (s *DecisionService) DeleteComment(ctx context.Context, id, commentID, userID uuid.UUID) error {
	if _, err := s.ownComment(ctx, id, commentID, userID); err != nil {
		return err
	}
	return classify(s.commentRepo.Delete(ctx, commentID))
}

func (s *DecisionService) ownComment(ctx context.Context, id, commentID, userID uuid.UUID) (*models.Comment, error) {
	if _, _, err := s.loadForRead(ctx, id, userID, access.CapComment); err != nil {
		return nil, err
	}

	comment, err := s.commentRepo.GetByID(ctx, id, commentID)
	if err != nil {
		return nil, classify(err)
	}
	if comment == nil {
		return nil, apperror.NotFound("comment not found")
	}
	if comment.UserID != userID {
		return nil, apperror.NoAccess("you can only change your own comments")
	}
	return comment, nil
}

func validateCommentBody(body string) (string, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return "", apperror.Validation("comment body is required")
	}
	if utf8.RuneCountInString(body) > MaxCommentLength {
		return "", apperror.Validation("comment must be at most %d characters", MaxCommentLength)
	}
	return body, nil
}
