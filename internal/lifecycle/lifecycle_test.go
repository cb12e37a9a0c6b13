package lifecycle

import (
	"testing"
	"time"

	"decision-hub/internal/apperror"
	"decision-hub/internal/models"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func ptr(t time.Time) *time.Time { return &t }

func TestCurrent(t *testing.T) {
	tests := []struct {
		name     string
		decision models.Decision
		want     State
	}{
		{name: "new decision", decision: models.Decision{Mode: models.ModeManual}, want: StateOpenManual},
		{name: "ai mode", decision: models.Decision{Mode: models.ModeAI}, want: StateOpenAI},
		{name: "future deadline", decision: models.Decision{Mode: models.ModeManual, Deadline: ptr(now.Add(time.Hour))}, want: StateOpenManual},
		{name: "deadline exactly now", decision: models.Decision{Mode: models.ModeManual, Deadline: ptr(now)}, want: StateOpenManual},
		{name: "passed deadline", decision: models.Decision{Mode: models.ModeAI, Deadline: ptr(now.Add(-time.Second))}, want: StateLockedDeadline},
		{name: "ai completed", decision: models.Decision{Mode: models.ModeAI, AICompletedAt: ptr(now.Add(-time.Hour))}, want: StateLockedAICompleted},
		{
			name:     "ai completed wins over deadline",
			decision: models.Decision{Mode: models.ModeAI, AICompletedAt: ptr(now), Deadline: ptr(now.Add(-time.Hour))},
			want:     StateLockedAICompleted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Current(&tt.decision, now); got != tt.want {
				t.Errorf("Current() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCheckAICompletedIsTerminal(t *testing.T) {
	d := &models.Decision{Mode: models.ModeAI, AICompletedAt: ptr(now)}

	actions := []Action{
		ActionEditStructure,
		ActionSubmitWeights,
		ActionSubmitEvaluations,
		ActionChangeMode,
		ActionChangeDeadline,
		ActionRunAI,
	}
	for _, action := range actions {
		if err := Check(d, now, action); !apperror.Is(err, apperror.KindLocked) {
			t.Errorf("Check(%s) = %v, want Locked", action, err)
		}
	}

	for _, to := range []State{StateOpenManual, StateOpenAI, StateLockedDeadline} {
		if CanTransition(StateLockedAICompleted, to) {
			t.Errorf("Expected no transition out of %s to %s", StateLockedAICompleted, to)
		}
	}
}

func TestCheckDeadlineLock(t *testing.T) {
	d := &models.Decision{Mode: models.ModeManual, Deadline: ptr(now.Add(-time.Minute))}

	for _, action := range []Action{ActionEditStructure, ActionSubmitWeights, ActionSubmitEvaluations, ActionChangeMode, ActionRunAI} {
		if err := Check(d, now, action); !apperror.Is(err, apperror.KindLocked) {
			t.Errorf("Check(%s) = %v, want Locked", action, err)
		}
	}

	if err := Check(d, now, ActionChangeDeadline); err != nil {
		t.Errorf("Deadline change must stay possible after the deadline, got %v", err)
	}
}

func TestApplyModeChange(t *testing.T) {
	open := &models.Decision{Mode: models.ModeManual}

	state, err := ApplyModeChange(open, now, models.ModeAI)
	if err != nil || state != StateOpenAI {
		t.Fatalf("manual -> ai: state=%s err=%v", state, err)
	}

	aiMode := &models.Decision{Mode: models.ModeAI}
	state, err = ApplyModeChange(aiMode, now, models.ModeManual)
	if err != nil || state != StateOpenManual {
		t.Fatalf("ai -> manual: state=%s err=%v", state, err)
	}

	state, err = ApplyModeChange(open, now, models.ModeManual)
	if err != nil || state != StateOpenManual {
		t.Fatalf("same mode should be a no-op: state=%s err=%v", state, err)
	}

	if _, err := ApplyModeChange(open, now, models.DecisionMode("hybrid")); !apperror.Is(err, apperror.KindValidation) {
		t.Errorf("Expected validation error for unknown mode, got %v", err)
	}

	locked := &models.Decision{Mode: models.ModeManual, Deadline: ptr(now.Add(-time.Hour))}
	if _, err := ApplyModeChange(locked, now, models.ModeAI); !apperror.Is(err, apperror.KindLocked) {
		t.Errorf("Expected Locked after deadline, got %v", err)
	}
}

func TestApplyDeadlineChange(t *testing.T) {
	passed := &models.Decision{Mode: models.ModeManual, Deadline: ptr(now.Add(-time.Hour))}

	state, err := ApplyDeadlineChange(passed, now, nil)
	if err != nil || state != StateOpenManual {
		t.Fatalf("clearing deadline: state=%s err=%v", state, err)
	}

	state, err = ApplyDeadlineChange(passed, now, ptr(now.Add(24*time.Hour)))
	if err != nil || state != StateOpenManual {
		t.Fatalf("extending deadline: state=%s err=%v", state, err)
	}

	open := &models.Decision{Mode: models.ModeAI}
	state, err = ApplyDeadlineChange(open, now, ptr(now.Add(-time.Minute)))
	if err != nil || state != StateLockedDeadline {
		t.Fatalf("deadline in the past locks immediately: state=%s err=%v", state, err)
	}

	completed := &models.Decision{Mode: models.ModeAI, AICompletedAt: ptr(now)}
	if _, err := ApplyDeadlineChange(completed, now, nil); !apperror.Is(err, apperror.KindLocked) {
		t.Errorf("Expected Locked after AI completion, got %v", err)
	}
}

func TestCompletesOnAIRun(t *testing.T) {
	if !CompletesOnAIRun(&models.Decision{Type: models.TypeTeam}) {
		t.Error("Team decisions lock after an AI run")
	}
	if CompletesOnAIRun(&models.Decision{Type: models.TypePrivate}) {
		t.Error("Private decisions stay open after an AI run")
	}
}
