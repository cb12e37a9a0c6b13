// Package aggregation turns per-member weights and evaluations into one ranked team result.
//
// The engine is pure: it reads the rows it is given and never fails. Rows that reference an
// option or criterion outside the current set are skipped, since options and criteria are
// replaced wholesale and may leave older weights and evaluations behind.
package aggregation

import (
	"math"
	"sort"

	"decision-hub/internal/models"

	"github.com/google/uuid"
)

// Input is everything the engine needs for one decision.
// Options are expected in insertion order; that order breaks ranking ties.
type Input struct {
	Mode        models.DecisionMode
	Options     []models.Option
	Criteria    []models.Criterion
	Weights     []models.Weight
	Evaluations []models.Evaluation
}

// CriterionScore is the unweighted mean of raw values for one option and criterion.
// It is informational only and does not feed the ranking.
type CriterionScore struct {
	CriterionID uuid.UUID `json:"criterion_id"`
	Mean        *float64  `json:"mean"`
	Count       int       `json:"count"`
}

// OptionResult is the team outcome for one option.
// Score is nil and NoData is true when no evaluator produced a usable score.
type OptionResult struct {
	OptionID       uuid.UUID        `json:"option_id"`
	Name           string           `json:"name"`
	Score          *float64         `json:"score"`
	Percent        *float64         `json:"percent"`
	NoData         bool             `json:"no_data"`
	Rank           int              `json:"rank,omitempty"`
	EvaluatorCount int              `json:"evaluator_count"`
	Criteria       []CriterionScore `json:"criteria"`
}

// Result is the ranked outcome for a decision
type Result struct {
	Mode        models.DecisionMode   `json:"mode"`
	MeanWeights map[uuid.UUID]float64 `json:"mean_weights"`
	Options     []OptionResult        `json:"options"`
}

// cell identifies one (option, criterion) pair
type cell struct {
	option    uuid.UUID
	criterion uuid.UUID
}

// aiEvaluator keys the single AI evaluator
var aiEvaluator = uuid.Nil

// Compute runs the aggregation for one decision
func Compute(in Input) Result {
	criteria := make(map[uuid.UUID]bool, len(in.Criteria))
	for _, c := range in.Criteria {
		criteria[c.ID] = true
	}
	options := make(map[uuid.UUID]bool, len(in.Options))
	for _, o := range in.Options {
		options[o.ID] = true
	}

	meanWeights := MeanWeights(in.Criteria, in.Weights)

	// evaluator -> cell -> value, plus evaluators in first-seen order
	scores := make(map[uuid.UUID]map[cell]float64)
	var evaluators []uuid.UUID
	for _, e := range in.Evaluations {
		evaluator, ok := evaluatorFor(in.Mode, e)
		if !ok || !options[e.OptionID] || !criteria[e.CriterionID] {
			continue
		}
		if scores[evaluator] == nil {
			scores[evaluator] = make(map[cell]float64)
			evaluators = append(evaluators, evaluator)
		}
		scores[evaluator][cell{option: e.OptionID, criterion: e.CriterionID}] = e.Value
	}

	results := make([]OptionResult, 0, len(in.Options))
	for _, o := range in.Options {
		result := OptionResult{
			OptionID: o.ID,
			Name:     o.Name,
			Criteria: criterionScores(o.ID, in.Criteria, evaluators, scores),
		}

		var personal []float64
		for _, evaluator := range evaluators {
			if s, ok := personalScore(o.ID, in.Criteria, meanWeights, scores[evaluator]); ok {
				personal = append(personal, s)
			}
		}

		if len(personal) == 0 {
			result.NoData = true
		} else {
			m := mean(personal)
			score := round(m, 1)
			percent := round(m*10, 1)
			result.Score = &score
			result.Percent = &percent
			result.EvaluatorCount = len(personal)
		}

		results = append(results, result)
	}

	rank(results)

	return Result{
		Mode:        in.Mode,
		MeanWeights: meanWeights,
		Options:     results,
	}
}

// MeanWeights averages the submitted weights per criterion. A criterion nobody weighted
// falls back to its importance.
func MeanWeights(criteria []models.Criterion, weights []models.Weight) map[uuid.UUID]float64 {
	sums := make(map[uuid.UUID]float64, len(criteria))
	counts := make(map[uuid.UUID]int, len(criteria))
	for _, w := range weights {
		sums[w.CriterionID] += w.Weight
		counts[w.CriterionID]++
	}

	result := make(map[uuid.UUID]float64, len(criteria))
	for _, c := range criteria {
		if n := counts[c.ID]; n > 0 {
			result[c.ID] = sums[c.ID] / float64(n)
		} else {
			result[c.ID] = c.Importance
		}
	}
	return result
}

// evaluatorFor returns the evaluator key of e in the given mode. Manual mode counts human
// rows per user; AI mode counts the AI rows as one evaluator.
func evaluatorFor(mode models.DecisionMode, e models.Evaluation) (uuid.UUID, bool) {
	if mode == models.ModeAI {
		return aiEvaluator, e.IsAI()
	}
	if e.IsAI() || e.UserID == nil {
		return uuid.Nil, false
	}
	return *e.UserID, true
}

// personalScore is one evaluator's weighted score for an option, over the criteria they
// scored whose mean weight is positive. ok is false when nothing usable was scored.
func personalScore(option uuid.UUID, criteria []models.Criterion, meanWeights map[uuid.UUID]float64, values map[cell]float64) (float64, bool) {
	var weighted, weightSum float64
	for _, c := range criteria {
		value, scored := values[cell{option: option, criterion: c.ID}]
		w := meanWeights[c.ID]
		if !scored || w <= 0 {
			continue
		}
		weighted += value * w
		weightSum += w
	}
	if weightSum == 0 {
		return 0, false
	}
	return weighted / weightSum, true
}

func criterionScores(option uuid.UUID, criteria []models.Criterion, evaluators []uuid.UUID, scores map[uuid.UUID]map[cell]float64) []CriterionScore {
	result := make([]CriterionScore, 0, len(criteria))
	for _, c := range criteria {
		var values []float64
		for _, evaluator := range evaluators {
			if v, ok := scores[evaluator][cell{option: option, criterion: c.ID}]; ok {
				values = append(values, v)
			}
		}

		cs := CriterionScore{CriterionID: c.ID, Count: len(values)}
		if len(values) > 0 {
			m := round(mean(values), 2)
			cs.Mean = &m
		}
		result = append(result, cs)
	}
	return result
}

// rank orders results by score descending with no-data options last. The sort is stable,
// so equal scores keep insertion order. Ranks are positions among scored options.
func rank(results []OptionResult) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.NoData != b.NoData {
			return !a.NoData
		}
		if a.NoData {
			return false
		}
		return *a.Score > *b.Score
	})

	for i := range results {
		if !results[i].NoData {
			results[i].Rank = i + 1
		}
	}
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
