package aggregation

import (
	"testing"

	"decision-hub/internal/models"

	"github.com/google/uuid"
)

type fixture struct {
	decision uuid.UUID
	options  []models.Option
	criteria []models.Criterion
}

func newFixture(optionNames []string, importances []float64) *fixture {
	f := &fixture{decision: uuid.New()}
	for i, name := range optionNames {
		f.options = append(f.options, models.Option{ID: uuid.New(), DecisionID: f.decision, Name: name, Position: i})
	}
	for i, importance := range importances {
		f.criteria = append(f.criteria, models.Criterion{ID: uuid.New(), DecisionID: f.decision, Name: "C", Importance: importance, Position: i})
	}
	return f
}

func (f *fixture) human(user uuid.UUID, option, criterion int, value float64) models.Evaluation {
	u := user
	return models.Evaluation{
		ID:          uuid.New(),
		DecisionID:  f.decision,
		OptionID:    f.options[option].ID,
		CriterionID: f.criteria[criterion].ID,
		UserID:      &u,
		GeneratedBy: models.SourceHuman,
		Value:       value,
	}
}

func (f *fixture) ai(option, criterion int, value float64) models.Evaluation {
	return models.Evaluation{
		ID:          uuid.New(),
		DecisionID:  f.decision,
		OptionID:    f.options[option].ID,
		CriterionID: f.criteria[criterion].ID,
		GeneratedBy: models.SourceAI,
		Value:       value,
	}
}

func (f *fixture) weight(user uuid.UUID, criterion int, w float64) models.Weight {
	return models.Weight{DecisionID: f.decision, UserID: user, CriterionID: f.criteria[criterion].ID, Weight: w}
}

func resultFor(t *testing.T, r Result, optionID uuid.UUID) OptionResult {
	t.Helper()
	for _, o := range r.Options {
		if o.OptionID == optionID {
			return o
		}
	}
	t.Fatalf("Option %s missing from result", optionID)
	return OptionResult{}
}

func assertScore(t *testing.T, o OptionResult, want float64) {
	t.Helper()
	if o.NoData || o.Score == nil {
		t.Fatalf("Option %s: expected score %.1f, got no data", o.Name, want)
	}
	if *o.Score != want {
		t.Errorf("Option %s: expected score %.1f, got %.1f", o.Name, want, *o.Score)
	}
}

func TestMeanWeights(t *testing.T) {
	f := newFixture([]string{"A"}, []float64{40, 70, 0})
	alice, bob := uuid.New(), uuid.New()

	tests := []struct {
		name    string
		weights []models.Weight
		want    []float64
	}{
		{
			name:    "fallback to importance when nobody weighted",
			weights: nil,
			want:    []float64{40, 70, 0},
		},
		{
			name:    "average of submitted weights",
			weights: []models.Weight{f.weight(alice, 0, 5), f.weight(bob, 0, 15)},
			want:    []float64{10, 70, 0},
		},
		{
			name:    "single weight of zero overrides importance",
			weights: []models.Weight{f.weight(alice, 1, 0)},
			want:    []float64{40, 0, 0},
		},
		{
			name: "weights for unknown criteria are ignored",
			weights: []models.Weight{
				{DecisionID: f.decision, UserID: alice, CriterionID: uuid.New(), Weight: 99},
				f.weight(bob, 2, 30),
			},
			want: []float64{40, 70, 30},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MeanWeights(f.criteria, tt.weights)
			if len(got) != len(f.criteria) {
				t.Fatalf("Expected %d mean weights, got %d", len(f.criteria), len(got))
			}
			for i, c := range f.criteria {
				if got[c.ID] != tt.want[i] {
					t.Errorf("Criterion %d: expected %.1f, got %.1f", i, tt.want[i], got[c.ID])
				}
			}
		})
	}
}

func TestComputeTwoMemberScenario(t *testing.T) {
	f := newFixture([]string{"A", "B"}, []float64{50, 50})
	m1, m2 := uuid.New(), uuid.New()

	result := Compute(Input{
		Mode:     models.ModeManual,
		Options:  f.options,
		Criteria: f.criteria,
		Evaluations: []models.Evaluation{
			f.human(m1, 0, 0, 8), f.human(m1, 0, 1, 6),
			f.human(m2, 0, 0, 6), f.human(m2, 0, 1, 8),
			f.human(m1, 1, 0, 4), f.human(m1, 1, 1, 4),
			f.human(m2, 1, 0, 10), f.human(m2, 1, 1, 2),
		},
	})

	if result.MeanWeights[f.criteria[0].ID] != 50 || result.MeanWeights[f.criteria[1].ID] != 50 {
		t.Fatalf("Expected fallback mean weights of 50, got %v", result.MeanWeights)
	}

	if result.Options[0].Name != "A" || result.Options[1].Name != "B" {
		t.Fatalf("Expected ranking A > B, got %s, %s", result.Options[0].Name, result.Options[1].Name)
	}

	a := resultFor(t, result, f.options[0].ID)
	b := resultFor(t, result, f.options[1].ID)
	assertScore(t, a, 7.0)
	assertScore(t, b, 5.0)

	if a.Rank != 1 || b.Rank != 2 {
		t.Errorf("Expected ranks 1 and 2, got %d and %d", a.Rank, b.Rank)
	}
	if a.EvaluatorCount != 2 || b.EvaluatorCount != 2 {
		t.Errorf("Expected two evaluators per option, got %d and %d", a.EvaluatorCount, b.EvaluatorCount)
	}
	if a.Percent == nil || *a.Percent != 70.0 {
		t.Errorf("Expected percent 70.0 for A, got %v", a.Percent)
	}

	// Per-criterion display is the unweighted mean of raw values
	if b.Criteria[0].Mean == nil || *b.Criteria[0].Mean != 7 || b.Criteria[0].Count != 2 {
		t.Errorf("Unexpected B/C1 display score: %+v", b.Criteria[0])
	}
	if b.Criteria[1].Mean == nil || *b.Criteria[1].Mean != 3 {
		t.Errorf("Unexpected B/C2 display score: %+v", b.Criteria[1])
	}
}

func TestComputeExcludesEvaluatorWithoutUsableScores(t *testing.T) {
	f := newFixture([]string{"A"}, []float64{60, 0})
	scorer, zeroOnly := uuid.New(), uuid.New()

	result := Compute(Input{
		Mode:     models.ModeManual,
		Options:  f.options,
		Criteria: f.criteria,
		Evaluations: []models.Evaluation{
			f.human(scorer, 0, 0, 9),
			// Only scores a criterion whose mean weight is zero
			f.human(zeroOnly, 0, 1, 2),
		},
	})

	a := resultFor(t, result, f.options[0].ID)
	assertScore(t, a, 9.0)
	if a.EvaluatorCount != 1 {
		t.Errorf("Expected one included evaluator, got %d", a.EvaluatorCount)
	}
	// The zero-weight criterion still shows its raw mean
	if a.Criteria[1].Mean == nil || *a.Criteria[1].Mean != 2 {
		t.Errorf("Expected raw display mean 2 for the zero-weight criterion, got %+v", a.Criteria[1])
	}
}

func TestComputeNoDataRanksBelowZero(t *testing.T) {
	f := newFixture([]string{"Empty", "Zero"}, []float64{50})
	user := uuid.New()

	result := Compute(Input{
		Mode:        models.ModeManual,
		Options:     f.options,
		Criteria:    f.criteria,
		Evaluations: []models.Evaluation{f.human(user, 1, 0, 0)},
	})

	if result.Options[0].Name != "Zero" || result.Options[1].Name != "Empty" {
		t.Fatalf("Expected Zero before Empty, got %s, %s", result.Options[0].Name, result.Options[1].Name)
	}

	zero := result.Options[0]
	assertScore(t, zero, 0.0)
	if zero.Rank != 1 {
		t.Errorf("Expected rank 1 for Zero, got %d", zero.Rank)
	}

	empty := result.Options[1]
	if !empty.NoData || empty.Score != nil || empty.Percent != nil {
		t.Errorf("Expected no-data result, got %+v", empty)
	}
	if empty.Rank != 0 {
		t.Errorf("No-data options carry no rank, got %d", empty.Rank)
	}
}

func TestComputeAIModePartialResult(t *testing.T) {
	f := newFixture([]string{"A", "B"}, []float64{30, 70})

	result := Compute(Input{
		Mode:     models.ModeAI,
		Options:  f.options,
		Criteria: f.criteria,
		Evaluations: []models.Evaluation{
			// AI scored only the first criterion for A
			f.ai(0, 0, 8),
			f.ai(1, 0, 4),
			f.ai(1, 1, 6),
		},
	})

	a := resultFor(t, result, f.options[0].ID)
	assertScore(t, a, 8.0)
	if a.EvaluatorCount != 1 {
		t.Errorf("AI mode has a single evaluator, got %d", a.EvaluatorCount)
	}

	// (4*30 + 6*70) / 100 = 5.4
	b := resultFor(t, result, f.options[1].ID)
	assertScore(t, b, 5.4)
}

func TestComputeModePartitionsEvaluations(t *testing.T) {
	f := newFixture([]string{"A"}, []float64{50})
	user := uuid.New()
	evaluations := []models.Evaluation{f.human(user, 0, 0, 2), f.ai(0, 0, 9)}

	manual := Compute(Input{Mode: models.ModeManual, Options: f.options, Criteria: f.criteria, Evaluations: evaluations})
	assertScore(t, manual.Options[0], 2.0)

	ai := Compute(Input{Mode: models.ModeAI, Options: f.options, Criteria: f.criteria, Evaluations: evaluations})
	assertScore(t, ai.Options[0], 9.0)
}

func TestComputeUsesTeamMeanWeights(t *testing.T) {
	f := newFixture([]string{"A"}, []float64{50, 50})
	m1, m2 := uuid.New(), uuid.New()

	result := Compute(Input{
		Mode:     models.ModeManual,
		Options:  f.options,
		Criteria: f.criteria,
		Weights: []models.Weight{
			f.weight(m1, 0, 100), f.weight(m1, 1, 0),
			f.weight(m2, 0, 50), f.weight(m2, 1, 50),
		},
		Evaluations: []models.Evaluation{
			f.human(m1, 0, 0, 10), f.human(m1, 0, 1, 1),
		},
	})

	// meanWeight = {75, 25}: (10*75 + 1*25) / 100 = 7.75 -> 7.8
	assertScore(t, result.Options[0], 7.8)
	if result.Options[0].Percent == nil || *result.Options[0].Percent != 77.5 {
		t.Errorf("Expected percent 77.5, got %v", result.Options[0].Percent)
	}
}

func TestComputeIgnoresStaleRows(t *testing.T) {
	f := newFixture([]string{"A"}, []float64{50})
	user := uuid.New()

	stale := []models.Evaluation{
		{ID: uuid.New(), OptionID: uuid.New(), CriterionID: f.criteria[0].ID, UserID: &user, GeneratedBy: models.SourceHuman, Value: 10},
		{ID: uuid.New(), OptionID: f.options[0].ID, CriterionID: uuid.New(), UserID: &user, GeneratedBy: models.SourceHuman, Value: 10},
		// Human row without a user id is malformed
		{ID: uuid.New(), OptionID: f.options[0].ID, CriterionID: f.criteria[0].ID, GeneratedBy: models.SourceHuman, Value: 10},
	}

	result := Compute(Input{
		Mode:        models.ModeManual,
		Options:     f.options,
		Criteria:    f.criteria,
		Evaluations: append(stale, f.human(user, 0, 0, 3)),
	})

	a := result.Options[0]
	assertScore(t, a, 3.0)
	if a.Criteria[0].Count != 1 {
		t.Errorf("Expected one counted value, got %d", a.Criteria[0].Count)
	}
}

func TestComputeTiesKeepInsertionOrder(t *testing.T) {
	f := newFixture([]string{"First", "Second", "Third", "Unscored"}, []float64{50})
	user := uuid.New()

	result := Compute(Input{
		Mode:     models.ModeManual,
		Options:  f.options,
		Criteria: f.criteria,
		Evaluations: []models.Evaluation{
			f.human(user, 2, 0, 6),
			f.human(user, 1, 0, 6),
			f.human(user, 0, 0, 6),
		},
	})

	want := []string{"First", "Second", "Third", "Unscored"}
	for i, name := range want {
		if result.Options[i].Name != name {
			t.Errorf("Position %d: expected %s, got %s", i, name, result.Options[i].Name)
		}
	}
	if result.Options[2].Rank != 3 {
		t.Errorf("Expected positional rank 3, got %d", result.Options[2].Rank)
	}
}

func TestComputeEmptyDecision(t *testing.T) {
	result := Compute(Input{Mode: models.ModeManual})
	if len(result.Options) != 0 || len(result.MeanWeights) != 0 {
		t.Errorf("Expected empty result, got %+v", result)
	}
}
