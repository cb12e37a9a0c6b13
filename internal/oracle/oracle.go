// Package oracle asks a language model to score every option of a decision against
// every criterion.
package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"decision-hub/internal/apperror"
	"decision-hub/internal/config"
	"decision-hub/internal/models"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"
)

// Request is the decision context sent to the oracle
type Request struct {
	DecisionName string
	Description  string
	Options      []models.Option
	Criteria     []models.Criterion
}

// Score is one scored (option, criterion) cell
type Score struct {
	OptionID    uuid.UUID
	CriterionID uuid.UUID
	Value       float64
	Explanation string
}

// Oracle produces AI scores for a decision
type Oracle interface {
	Evaluate(ctx context.Context, req Request) ([]Score, error)
}

// OpenAIOracle talks to any OpenAI-compatible chat completion endpoint
type OpenAIOracle struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAIOracle creates an oracle for cfg. apiKey overrides cfg.APIKey when set.
func NewOpenAIOracle(cfg *config.LLMConfig, apiKey string) *OpenAIOracle {
	if apiKey == "" {
		apiKey = cfg.APIKey
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	clientConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &OpenAIOracle{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   cfg.Model,
		timeout: cfg.Timeout,
	}
}

const systemPrompt = `You evaluate options of a decision against weighted criteria.
Score every option against every criterion on a scale from 1 (poor) to 10 (excellent).
Answer with a JSON object only, in this form:
{"evaluations":[{"option":"<option name>","criterion":"<criterion name>","score":<1-10>,"explanation":"<one sentence>"}]}
Use the option and criterion names exactly as given.`

// Evaluate implements Oracle
func (o *OpenAIOracle) Evaluate(ctx context.Context, req Request) ([]Score, error) {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: 0.2,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(req)},
		},
	})
	if err != nil {
		slog.Error("AI oracle request failed", "model", o.model, "error", err)
		return nil, apperror.OracleFailure(err, "AI evaluation service is unavailable")
	}

	if len(resp.Choices) == 0 {
		return nil, apperror.OracleFailure(nil, "AI evaluation returned no answer")
	}

	scores, err := ParseScores(resp.Choices[0].Message.Content, req.Options, req.Criteria)
	if err != nil {
		slog.Warn("AI oracle answer rejected", "model", o.model, "error", err)
		return nil, err
	}

	slog.Info("AI oracle scored decision", "model", o.model, "cells", len(scores),
		"expected", len(req.Options)*len(req.Criteria))
	return scores, nil
}

func buildPrompt(req Request) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Decision: %s\n", req.DecisionName)
	if req.Description != "" {
		fmt.Fprintf(&sb, "Context: %s\n", req.Description)
	}

	sb.WriteString("\nOptions:\n")
	for _, o := range req.Options {
		fmt.Fprintf(&sb, "- %s\n", o.Name)
	}

	sb.WriteString("\nCriteria (importance 0-100):\n")
	for _, c := range req.Criteria {
		fmt.Fprintf(&sb, "- %s (%s)\n", c.Name, strconv.FormatFloat(c.Importance, 'f', -1, 64))
	}

	return sb.String()
}

type answer struct {
	Evaluations []answerItem `json:"evaluations"`
}

type answerItem struct {
	Option      string     `json:"option"`
	Criterion   string     `json:"criterion"`
	Score       flexNumber `json:"score"`
	Explanation string     `json:"explanation"`
}

// flexNumber accepts a JSON number or a numeric string
type flexNumber struct {
	value float64
	valid bool
}

func (n *flexNumber) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// Unparseable scores are dropped, not fatal.
		return nil
	}
	n.value, n.valid = v, true
	return nil
}

var errNoScores = errors.New("no scorable evaluations")

// ParseScores turns the model's answer into scores. Names are matched case-insensitively.
// Unknown names, scores outside the rating scale and repeated cells are dropped.
func ParseScores(content string, options []models.Option, criteria []models.Criterion) ([]Score, error) {
	var parsed answer
	if err := json.Unmarshal([]byte(stripFences(content)), &parsed); err != nil {
		return nil, apperror.OracleFailure(err, "AI evaluation returned an unreadable answer")
	}

	optionByName := make(map[string]uuid.UUID, len(options))
	for _, o := range options {
		optionByName[normalize(o.Name)] = o.ID
	}
	criterionByName := make(map[string]uuid.UUID, len(criteria))
	for _, c := range criteria {
		criterionByName[normalize(c.Name)] = c.ID
	}

	type cell struct{ option, criterion uuid.UUID }
	seen := make(map[cell]bool)
	scores := []Score{}
	for _, item := range parsed.Evaluations {
		optionID, ok := optionByName[normalize(item.Option)]
		if !ok {
			continue
		}
		criterionID, ok := criterionByName[normalize(item.Criterion)]
		if !ok {
			continue
		}
		v := item.Score.value
		if !item.Score.valid || math.IsNaN(v) || v < models.MinEvaluationValue || v > models.MaxEvaluationValue {
			continue
		}
		key := cell{option: optionID, criterion: criterionID}
		if seen[key] {
			continue
		}
		seen[key] = true

		scores = append(scores, Score{
			OptionID:    optionID,
			CriterionID: criterionID,
			Value:       v,
			Explanation: strings.TrimSpace(item.Explanation),
		})
	}

	if len(scores) == 0 {
		return nil, apperror.OracleFailure(errNoScores, "AI evaluation returned no usable scores")
	}
	return scores, nil
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// stripFences removes a markdown code fence some models wrap around JSON
func stripFences(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimPrefix(content, "json")
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}

// Disabled is the oracle used when the LLM integration is switched off
type Disabled struct{}

// Evaluate implements Oracle
func (Disabled) Evaluate(context.Context, Request) ([]Score, error) {
	return nil, apperror.OracleFailure(nil, "AI evaluation is disabled")
}
