package handlers

import (
	"net/http"

	"decision-hub/internal/service"
	"decision-hub/pkg/validator"
)

// CommentHandler handles decision comments
type CommentHandler struct {
	decisionService *service.DecisionService
}

// NewCommentHandler creates a new comment handler
func NewCommentHandler(decisionService *service.DecisionService) *CommentHandler {
	return &CommentHandler{decisionService: decisionService}
}

// AddComment adds a comment to a decision
// @Summary Add comment
// @Description Add a comment. Comments stay open after the decision is locked.
// @Tags Comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Decision ID"
// @Param comment body CommentRequest true "Comment"
// @Success 201 {object} models.Comment
// @Failure 400 {object} ErrorResponse "Invalid input"
// @Failure 403 {object} ErrorResponse "No access"
// @Router /decisions/{id}/comments [post]
func (h *CommentHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	userID, decisionID, ok := requireUserAndDecision(w, r)
	if !ok {
		return
	}

	var req CommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	comment, err := h.decisionService.AddComment(r.Context(), decisionID, userID, validator.SanitizeString(req.Body))
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, comment)
}

// UpdateComment edits the caller's own comment
// @Summary Update comment
// @Tags Comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Decision ID"
// @Param commentId path string true "Comment ID"
// @Param comment body CommentRequest true "Comment"
// @Success 200 {object} models.Comment
// @Failure 400 {object} ErrorResponse "Invalid input"
// @Failure 403 {object} ErrorResponse "Not the author"
// @Failure 404 {object} ErrorResponse "Comment not found"
// @Router /decisions/{id}/comments/{commentId} [put]
func (h *CommentHandler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	userID, decisionID, ok := requireUserAndDecision(w, r)
	if !ok {
		return
	}
	commentID, ok := pathUUID(w, r, "commentId", ErrMsgInvalidCommentID)
	if !ok {
		return
	}

	var req CommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	comment, err := h.decisionService.UpdateComment(r.Context(), decisionID, commentID, userID, validator.SanitizeString(req.Body))
	if err != nil {
		respondError(w, r, err)
		return
	}

	JSONResponse(w, comment)
}

// DeleteComment deletes the caller's own comment
// @Summary Delete comment
// @Tags Comments
// @Security BearerAuth
// @Param id path string true "Decision ID"
// @Param commentId path string true "Comment ID"
// @Success 204 "Deleted"
// @Failure 403 {object} ErrorResponse "Not the author"
// @Failure 404 {object} ErrorResponse "Comment not found"
// @Router /decisions/{id}/comments/{commentId} [delete]
func (h *CommentHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	userID, decisionID, ok := requireUserAndDecision(w, r)
	if !ok {
		return
	}
	commentID, ok := pathUUID(w, r, "commentId", ErrMsgInvalidCommentID)
	if !ok {
		return
	}

	if err := h.decisionService.DeleteComment(r.Context(), decisionID, commentID, userID); err != nil {
		respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
