package handlers

import (
	"net/http"

	"decision-hub/internal/access"
	"decision-hub/internal/service"

	"github.com/google/uuid"
)

// TeamHandler handles team membership requests
type TeamHandler struct {
	decisionService *service.DecisionService
}

// NewTeamHandler creates a new team handler
func NewTeamHandler(decisionService *service.DecisionService) *TeamHandler {
	return &TeamHandler{decisionService: decisionService}
}

// ListMembers lists the members of a team decision
// @Summary List members
// @Description Get all memberships of a decision, pending invitations included
// @Tags Team
// @Produce json
// @Security BearerAuth
// @Param id path string true "Decision ID"
// @Success 200 {array} models.TeamMembership
// @Failure 403 {object} ErrorResponse "No access"
// @Failure 404 {object} ErrorResponse "Decision not found"
// @Router /decisions/{id}/members [get]
func (h *TeamHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	userID, decisionID, ok := requireUserAndDecision(w, r)
	if !ok {
		return
	}

	members, err := h.decisionService.ListMembers(r.Context(), decisionID, userID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	JSONResponse(w, members)
}

// InviteMember invites a user into a team decision
// @Summary Invite member
// @Description Invite a user as admin, editor or viewer (owner and admins)
// @Tags Team
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Decision ID"
// @Param invitation body InviteMemberRequest true "Invitation"
// @Success 201 {object} models.TeamMembership
// @Failure 400 {object} ErrorResponse "Invalid input"
// @Failure 403 {object} ErrorResponse "No access"
// @Failure 404 {object} ErrorResponse "Decision not found"
// @Router /decisions/{id}/members [post]
func (h *TeamHandler) InviteMember(w http.ResponseWriter, r *http.Request) {
	userID, decisionID, ok := requireUserAndDecision(w, r)
	if !ok {
		return
	}

	var req InviteMemberRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	invitee, err := uuid.Parse(req.UserID)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidUserID)
		return
	}

	membership, err := h.decisionService.InviteMember(r.Context(), decisionID, userID, service.InviteRequest{
		UserID: invitee,
		Role:   access.Role(req.Role),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, membership)
}

// AcceptInvitation accepts the caller's pending invitation
// @Summary Accept invitation
// @Description Accept the pending invitation of the caller. Accepting again has no effect.
// @Tags Team
// @Produce json
// @Security BearerAuth
// @Param id path string true "Decision ID"
// @Success 200 {object} models.TeamMembership
// @Failure 404 {object} ErrorResponse "No invitation found"
// @Router /decisions/{id}/members/accept [post]
func (h *TeamHandler) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	userID, decisionID, ok := requireUserAndDecision(w, r)
	if !ok {
		return
	}

	membership, err := h.decisionService.AcceptInvitation(r.Context(), decisionID, userID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	JSONResponse(w, membership)
}

// RemoveMember removes a member, withdraws an invitation or lets the caller leave
// @Summary Remove member
// @Description Remove a member (owner and admins) or leave the decision by removing yourself
// @Tags Team
// @Security BearerAuth
// @Param id path string true "Decision ID"
// @Param userId path string true "User ID"
// @Success 204 "Removed"
// @Failure 400 {object} ErrorResponse "The owner cannot be removed"
// @Failure 403 {object} ErrorResponse "No access"
// @Failure 404 {object} ErrorResponse "Member not found"
// @Router /decisions/{id}/members/{userId} [delete]
func (h *TeamHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	userID, decisionID, ok := requireUserAndDecision(w, r)
	if !ok {
		return
	}
	memberID, ok := pathUUID(w, r, "userId", ErrMsgInvalidUserID)
	if !ok {
		return
	}

	if err := h.decisionService.RemoveMember(r.Context(), decisionID, userID, memberID); err != nil {
		respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
