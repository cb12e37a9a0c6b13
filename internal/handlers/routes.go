package handlers

import (
	"net/http"
	"strings"

	"decision-hub/internal/middleware"
)

// APIBasePath prefixes every decision route
const APIBasePath = "/api/v1"

// RegisterRoutes registers the decision API on mux. Every route requires a bearer token.
func RegisterRoutes(mux *http.ServeMux, authMw *middleware.AuthMiddleware, decisions *DecisionHandler, team *TeamHandler, comments *CommentHandler) {
	routes := []struct {
		pattern string
		handler http.HandlerFunc
	}{
		{"GET /decisions", decisions.ListDecisions},
		{"POST /decisions", decisions.CreateDecision},
		{"GET /decisions/{id}", decisions.GetDecision},
		{"PATCH /decisions/{id}", decisions.UpdateDecision},
		{"DELETE /decisions/{id}", decisions.DeleteDecision},
		{"PUT /decisions/{id}/options", decisions.SaveOptions},
		{"PUT /decisions/{id}/criteria", decisions.SaveCriteria},
		{"PUT /decisions/{id}/weights", decisions.SubmitWeights},
		{"PUT /decisions/{id}/evaluations", decisions.SubmitEvaluations},
		{"POST /decisions/{id}/ai-evaluate", decisions.RunAIEvaluation},
		{"PATCH /decisions/{id}/mode", decisions.ChangeMode},
		{"PATCH /decisions/{id}/deadline", decisions.ChangeDeadline},

		{"GET /decisions/{id}/members", team.ListMembers},
		{"POST /decisions/{id}/members", team.InviteMember},
		{"POST /decisions/{id}/members/accept", team.AcceptInvitation},
		{"DELETE /decisions/{id}/members/{userId}", team.RemoveMember},

		{"POST /decisions/{id}/comments", comments.AddComment},
		{"PUT /decisions/{id}/comments/{commentId}", comments.UpdateComment},
		{"DELETE /decisions/{id}/comments/{commentId}", comments.DeleteComment},
	}

	for _, route := range routes {
		method, path, _ := strings.Cut(route.pattern, " ")
		mux.Handle(method+" "+APIBasePath+path, authMw.Authenticate(route.handler))
	}
}
