package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"decision-hub/internal/middleware"
	"decision-hub/internal/models"
	"decision-hub/internal/service"
	"decision-hub/pkg/validator"

	"github.com/google/uuid"
)

// DecisionHandler handles decision requests
type DecisionHandler struct {
	decisionService *service.DecisionService
}

// NewDecisionHandler creates a new decision handler
func NewDecisionHandler(decisionService *service.DecisionService) *DecisionHandler {
	return &DecisionHandler{decisionService: decisionService}
}

// ListDecisions lists the decisions the caller owns or has joined
// @Summary List decisions
// @Description Get all decisions owned by the user or shared with them through an accepted membership
// @Tags Decisions
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Decision
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Router /decisions [get]
func (h *DecisionHandler) ListDecisions(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	decisions, err := h.decisionService.ListDecisions(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	JSONResponse(w, decisions)
}

// CreateDecision creates a new decision
// @Summary Create decision
// @Description Create a private or team decision owned by the caller
// @Tags Decisions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param decision body CreateDecisionRequest true "Decision data"
// @Success 201 {object} models.Decision
// @Failure 400 {object} ErrorResponse "Invalid input"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Router /decisions [post]
func (h *DecisionHandler) CreateDecision(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req CreateDecisionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	decision, err := h.decisionService.CreateDecision(r.Context(), userID, service.CreateDecisionRequest{
		Name:        validator.SanitizeString(req.Name),
		Description: validator.SanitizeString(req.Description),
		Type:        models.DecisionType(req.Type),
		Mode:        models.DecisionMode(req.Mode),
		Deadline:    req.Deadline,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, decision)
}

// GetDecision returns a decision with its full details and team result
// @Summary Get decision details
// @Description Get the decision with options, criteria, weights, evaluations, members, comments and the aggregated ranking
// @Tags Decisions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Decision ID"
// @Success 200 {object} service.DecisionDetails
// @Failure 400 {object} ErrorResponse "Invalid ID"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 403 {object} ErrorResponse "No access"
// @Failure 404 {object} ErrorResponse "Decision not found"
// @Router /decisions/{id} [get]
func (h *DecisionHandler) GetDecision(w http.ResponseWriter, r *http.Request) {
	userID, decisionID, ok := requireUserAndDecision(w, r)
	if !ok {
		return
	}

	details, err := h.decisionService.GetDetails(r.Context(), decisionID, userID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	JSONResponse(w, details)
}

// UpdateDecision renames a decision or changes its description
// @Summary Update decision
// @Description Change name and/or description (owner and admins)
// @Tags Decisions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Decision ID"
// @Param decision body UpdateDecisionRequest true "Fields to change"
// @Success 200 {object} models.Decision
// @Failure 400 {object} ErrorResponse "Invalid input"
// @Failure 403 {object} ErrorResponse "No access"
// @Failure 404 {object} ErrorResponse "Decision not found"
// @Failure 423 {object} ErrorResponse "Decision locked"
// @Router /decisions/{id} [patch]
func (h *DecisionHandler) UpdateDecision(w http.ResponseWriter, r *http.Request) {
	userID, decisionID, ok := requireUserAndDecision(w, r)
	if !ok {
		return
	}

	var req UpdateDecisionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name != nil {
		name := validator.SanitizeString(*req.Name)
		req.Name = &name
	}
	if req.Description != nil {
		description := validator.SanitizeString(*req.Description)
		req.Description = &description
	}

	decision, err := h.decisionService.UpdateDecision(r.Context(), decisionID, userID, service.UpdateDecisionRequest{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	JSONResponse(w, decision)
}

// DeleteDecision deletes a decision and everything attached to it
// @Summary Delete decision
// @Description Delete a decision (owner only, in any state)
// @Tags Decisions
// @Security BearerAuth
// @Param id path string true "Decision ID"
// @Success 204 "Deleted"
// @Failure 403 {object} ErrorResponse "No access"
// @Failure 404 {object} ErrorResponse "Decision not found"
// @Router /decisions/{id} [delete]
func (h *DecisionHandler) DeleteDecision(w http.ResponseWriter, r *http.Request) {
	userID, decisionID, ok := requireUserAndDecision(w, r)
	if !ok {
		return
	}

	if err := h.decisionService.DeleteDecision(r.Context(), decisionID, userID); err != nil {
		respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SaveOptions replaces the options of a decision
// @Summary Save options
// @Description Replace all options with the given ordered list. Entries with the id of an existing option keep it.
// @Tags Decisions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Decision ID"
// @Param options body SaveOptionsRequest true "Options"
// @Success 200 {array} models.Option
// @Failure 400 {object} ErrorResponse "Invalid input"
// @Failure 403 {object} ErrorResponse "No access"
// @Failure 423 {object} ErrorResponse "Decision locked"
// @Router /decisions/{id}/options [put]
func (h *DecisionHandler) SaveOptions(w http.ResponseWriter, r *http.Request) {
	userID, decisionID, ok := requireUserAndDecision(w, r)
	if !ok {
		return
	}

	var req SaveOptionsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	for i := range req.Options {
		req.Options[i].Name = validator.SanitizeString(req.Options[i].Name)
	}

	options, err := h.decisionService.SaveOptions(r.Context(), decisionID, userID, req.Options)
	if err != nil {
		respondError(w, r, err)
		return
	}

	JSONResponse(w, options)
}

// SaveCriteria replaces the criteria of a decision
// @Summary Save criteria
// @Description Replace all criteria with the given ordered list. Importance ranges from 0 to 100.
// @Tags Decisions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Decision ID"
// @Param criteria body SaveCriteriaRequest true "Criteria"
// @Success 200 {array} models.Criterion
// @Failure 400 {object} ErrorResponse "Invalid input"
// @Failure 403 {object} ErrorResponse "No access"
// @Failure 423 {object} ErrorResponse "Decision locked"
// @Router /decisions/{id}/criteria [put]
func (h *DecisionHandler) SaveCriteria(w http.ResponseWriter, r *http.Request) {
	userID, decisionID, ok := requireUserAndDecision(w, r)
	if !ok {
		return
	}

	var req SaveCriteriaRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	for i := range req.Criteria {
		req.Criteria[i].Name = validator.SanitizeString(req.Criteria[i].Name)
	}

	criteria, err := h.decisionService.SaveCriteria(r.Context(), decisionID, userID, req.Criteria)
	if err != nil {
		respondError(w, r, err)
		return
	}

	JSONResponse(w, criteria)
}

// SubmitWeights stores the caller's personal criterion weights
// @Summary Submit weights
// @Description Upsert personal weights (0-100). Criteria left out keep their stored weight.
// @Tags Scoring
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Decision ID"
// @Param weights body SubmitWeightsRequest true "Weights"
// @Success 200 {array} models.Weight
// @Failure 400 {object} ErrorResponse "Invalid input"
// @Failure 403 {object} ErrorResponse "No access"
// @Failure 423 {object} ErrorResponse "Decision locked"
// @Router /decisions/{id}/weights [put]
func (h *DecisionHandler) SubmitWeights(w http.ResponseWriter, r *http.Request) {
	userID, decisionID, ok := requireUserAndDecision(w, r)
	if !ok {
		return
	}

	var req SubmitWeightsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	weights, err := h.decisionService.SubmitWeights(r.Context(), decisionID, userID, req.Weights)
	if err != nil {
		respondError(w, r, err)
		return
	}

	JSONResponse(w, weights)
}

// SubmitEvaluations stores the caller's evaluations
// @Summary Submit evaluations
// @Description Upsert one score (1-10) per option and criterion cell and return the refreshed details
// @Tags Scoring
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Decision ID"
// @Param evaluations body SubmitEvaluationsRequest true "Evaluations"
// @Success 200 {object} service.DecisionDetails
// @Failure 400 {object} ErrorResponse "Invalid input"
// @Failure 403 {object} ErrorResponse "No access"
// @Failure 423 {object} ErrorResponse "Decision locked"
// @Router /decisions/{id}/evaluations [put]
func (h *DecisionHandler) SubmitEvaluations(w http.ResponseWriter, r *http.Request) {
	userID, decisionID, ok := requireUserAndDecision(w, r)
	if !ok {
		return
	}

	var req SubmitEvaluationsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	for i, e := range req.Evaluations {
		if e.Explanation != nil {
			explanation := validator.SanitizeString(*e.Explanation)
			req.Evaluations[i].Explanation = &explanation
		}
	}

	if err := h.decisionService.SubmitEvaluations(r.Context(), decisionID, userID, req.Evaluations); err != nil {
		respondError(w, r, err)
		return
	}

	details, err := h.decisionService.GetDetails(r.Context(), decisionID, userID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	JSONResponse(w, details)
}

// RunAIEvaluation scores the decision with the AI oracle
// @Summary Run AI evaluation
// @Description Score every option against every criterion with the configured model. A successful run locks a team decision for good.
// @Tags Scoring
// @Produce json
// @Security BearerAuth
// @Param id path string true "Decision ID"
// @Success 200 {object} service.DecisionDetails
// @Failure 400 {object} ErrorResponse "Decision not ready for AI evaluation"
// @Failure 403 {object} ErrorResponse "No access"
// @Failure 423 {object} ErrorResponse "Decision locked or run in progress"
// @Failure 502 {object} ErrorResponse "AI evaluation failed"
// @Router /decisions/{id}/ai-evaluate [post]
func (h *DecisionHandler) RunAIEvaluation(w http.ResponseWriter, r *http.Request) {
	userID, decisionID, ok := requireUserAndDecision(w, r)
	if !ok {
		return
	}

	details, err := h.decisionService.RunAIEvaluation(r.Context(), decisionID, userID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	JSONResponse(w, details)
}

// ChangeMode switches a decision between manual and AI scoring
// @Summary Change mode
// @Description Switch between manual and AI scoring
// @Tags Decisions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Decision ID"
// @Param mode body ChangeModeRequest true "New mode"
// @Success 200 {object} models.Decision
// @Failure 400 {object} ErrorResponse "Invalid input"
// @Failure 403 {object} ErrorResponse "No access"
// @Failure 423 {object} ErrorResponse "Decision locked"
// @Router /decisions/{id}/mode [patch]
func (h *DecisionHandler) ChangeMode(w http.ResponseWriter, r *http.Request) {
	userID, decisionID, ok := requireUserAndDecision(w, r)
	if !ok {
		return
	}

	var req ChangeModeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	decision, err := h.decisionService.ChangeMode(r.Context(), decisionID, userID, models.DecisionMode(req.Mode))
	if err != nil {
		respondError(w, r, err)
		return
	}

	JSONResponse(w, decision)
}

// ChangeDeadline sets or clears the deadline
// @Summary Change deadline
// @Description Set the deadline (RFC 3339) or clear it with null. Allowed after the deadline has passed.
// @Tags Decisions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Decision ID"
// @Param deadline body ChangeDeadlineRequest true "New deadline or null"
// @Success 200 {object} models.Decision
// @Failure 400 {object} ErrorResponse "Invalid input"
// @Failure 403 {object} ErrorResponse "No access"
// @Failure 423 {object} ErrorResponse "Decision locked"
// @Router /decisions/{id}/deadline [patch]
func (h *DecisionHandler) ChangeDeadline(w http.ResponseWriter, r *http.Request) {
	userID, decisionID, ok := requireUserAndDecision(w, r)
	if !ok {
		return
	}

	var req ChangeDeadlineRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var deadline *time.Time
	if string(req.Deadline) != "null" {
		var t time.Time
		if err := json.Unmarshal(req.Deadline, &t); err != nil {
			respondWithError(w, http.StatusBadRequest, "deadline must be an RFC 3339 timestamp or null")
			return
		}
		deadline = &t
	}

	decision, err := h.decisionService.ChangeDeadline(r.Context(), decisionID, userID, deadline)
	if err != nil {
		respondError(w, r, err)
		return
	}

	JSONResponse(w, decision)
}

// requireUser returns the authenticated user or writes a 401
func requireUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return uuid.Nil, false
	}
	return userID, true
}

// requireUserAndDecision returns the authenticated user and the {id} path value
func requireUserAndDecision(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := requireUser(w, r)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	decisionID, ok := pathUUID(w, r, "id", ErrMsgInvalidDecisionID)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	return userID, decisionID, true
}

func pathUUID(w http.ResponseWriter, r *http.Request, name, message string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, message)
		return uuid.Nil, false
	}
	return id, true
}
