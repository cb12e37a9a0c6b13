// Package lifecycle derives a decision's state and gates writes on it.
//
// Only two facts are persisted: the mode and the AI completion timestamp. The deadline
// lock is recomputed from the deadline on every call and never stored.
package lifecycle

import (
	"time"

	"decision-hub/internal/apperror"
	"decision-hub/internal/models"
)

// State is the lifecycle state of a decision
type State string

const (
	StateOpenManual        State = "open_manual"
	StateOpenAI            State = "open_ai"
	StateLockedDeadline    State = "locked_deadline"
	StateLockedAICompleted State = "locked_ai_completed"
)

// Action is a write that may be refused by a lock
type Action string

const (
	ActionEditStructure     Action = "edit_structure"
	ActionSubmitWeights     Action = "submit_weights"
	ActionSubmitEvaluations Action = "submit_evaluations"
	ActionChangeMode        Action = "change_mode"
	ActionChangeDeadline    Action = "change_deadline"
	ActionRunAI             Action = "run_ai"
)

// IsLocked reports whether the state refuses ordinary writes
func (s State) IsLocked() bool {
	return s == StateLockedDeadline || s == StateLockedAICompleted
}

// IsTerminal reports whether no transition leaves the state
func (s State) IsTerminal() bool {
	return s == StateLockedAICompleted
}

var transitions = map[State][]State{
	StateOpenManual:        {StateOpenAI, StateLockedDeadline},
	StateOpenAI:            {StateOpenManual, StateLockedDeadline, StateLockedAICompleted},
	StateLockedDeadline:    {StateOpenManual, StateOpenAI},
	StateLockedAICompleted: {},
}

// CanTransition reports whether from -> to is a legal edge
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Current returns the state of d at now. The AI lock wins over the deadline lock.
func Current(d *models.Decision, now time.Time) State {
	if d.AICompletedAt != nil {
		return StateLockedAICompleted
	}
	if d.Deadline != nil && now.After(*d.Deadline) {
		return StateLockedDeadline
	}
	return openState(d.Mode)
}

func openState(mode models.DecisionMode) State {
	if mode == models.ModeAI {
		return StateOpenAI
	}
	return StateOpenManual
}

// Check returns a Locked error when action is not allowed on d at now
func Check(d *models.Decision, now time.Time, action Action) error {
	state := Current(d, now)

	switch state {
	case StateLockedAICompleted:
		return apperror.Locked("decision was completed by an AI evaluation and can no longer be changed")
	case StateLockedDeadline:
		// Owners may still move or clear a passed deadline.
		if action == ActionChangeDeadline {
			return nil
		}
		return apperror.Locked("decision deadline has passed")
	}

	return nil
}

// ApplyModeChange validates a mode change and returns the resulting state
func ApplyModeChange(d *models.Decision, now time.Time, mode models.DecisionMode) (State, error) {
	if !mode.Valid() {
		return "", apperror.Validation("mode must be %q or %q", models.ModeManual, models.ModeAI)
	}
	if err := Check(d, now, ActionChangeMode); err != nil {
		return "", err
	}

	from := Current(d, now)
	to := openState(mode)
	if from == to {
		return to, nil
	}
	if !CanTransition(from, to) {
		return "", apperror.Validation("cannot change mode from %s to %s", from, to)
	}
	return to, nil
}

// ApplyDeadlineChange validates a deadline change and returns the resulting state.
// A nil deadline clears it.
func ApplyDeadlineChange(d *models.Decision, now time.Time, deadline *time.Time) (State, error) {
	if err := Check(d, now, ActionChangeDeadline); err != nil {
		return "", err
	}

	next := *d
	next.Deadline = deadline
	return Current(&next, now), nil
}

// CompletesOnAIRun reports whether a successful AI run locks d for good.
// Only team decisions are locked; a private decision can be re-run.
func CompletesOnAIRun(d *models.Decision) bool {
	return d.IsTeam()
}
