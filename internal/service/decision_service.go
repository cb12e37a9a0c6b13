package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"decision-hub/internal/access"
	"decision-hub/internal/aggregation"
	"decision-hub/internal/apperror"
	"decision-hub/internal/database"
	"decision-hub/internal/lifecycle"
	"decision-hub/internal/models"
	"decision-hub/internal/oracle"
	"decision-hub/internal/repository"
	"decision-hub/internal/runguard"

	"github.com/google/uuid"
)

// DecisionService applies access, lifecycle and validation rules to every decision
// operation. Writes lock the decision row for the length of their transaction.
type DecisionService struct {
	db             *sql.DB
	decisionRepo   *repository.DecisionRepository
	optionRepo     *repository.OptionRepository
	criterionRepo  *repository.CriterionRepository
	membershipRepo *repository.MembershipRepository
	weightRepo     *repository.WeightRepository
	evaluationRepo *repository.EvaluationRepository
	commentRepo    *repository.CommentRepository
	oracle         oracle.Oracle
	guard          runguard.Guard
	now            func() time.Time
}

func NewDecisionService(
	db *sql.DB,
	decisionRepo *repository.DecisionRepository,
	optionRepo *repository.OptionRepository,
	criterionRepo *repository.CriterionRepository,
	membershipRepo *repository.MembershipRepository,
	weightRepo *repository.WeightRepository,
	evaluationRepo *repository.EvaluationRepository,
	commentRepo *repository.CommentRepository,
	scoringOracle oracle.Oracle,
	guard runguard.Guard,
) *DecisionService {
	return &DecisionService{
		db:             db,
		decisionRepo:   decisionRepo,
		optionRepo:     optionRepo,
		criterionRepo:  criterionRepo,
		membershipRepo: membershipRepo,
		weightRepo:     weightRepo,
		evaluationRepo: evaluationRepo,
		commentRepo:    commentRepo,
		oracle:         scoringOracle,
		guard:          guard,
		now:            time.Now,
	}
}

// SetClock replaces the service clock
func (s *DecisionService) SetClock(now func() time.Time) {
	s.now = now
}

// lockedDecision is a decision row locked inside a write transaction
type lockedDecision struct {
	tx       *sql.Tx
	decision *models.Decision
	grant    access.Grant
}

// withLockedDecision loads and row-locks the decision, checks the capability and, when
// action is set, the lifecycle, then runs fn in the same transaction.
func (s *DecisionService) withLockedDecision(ctx context.Context, id, userID uuid.UUID, capability access.Capability, action lifecycle.Action, fn func(l *lockedDecision) error) error {
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		decision, err := s.decisionRepo.GetForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if decision == nil {
			return apperror.NotFound("decision not found")
		}

		grant, err := s.authorize(ctx, s.membershipRepo.WithTx(tx), decision, userID)
		if err != nil {
			return err
		}
		if err := grant.Require(capability); err != nil {
			return err
		}
		if action != "" {
			if err := lifecycle.Check(decision, s.now(), action); err != nil {
				return err
			}
		}

		return fn(&lockedDecision{tx: tx, decision: decision, grant: grant})
	})
	return classify(err)
}

// loadForRead loads the decision without locking and checks the capability
func (s *DecisionService) loadForRead(ctx context.Context, id, userID uuid.UUID, capability access.Capability) (*models.Decision, access.Grant, error) {
	decision, err := s.decisionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, access.Grant{}, classify(err)
	}
	if decision == nil {
		return nil, access.Grant{}, apperror.NotFound("decision not found")
	}

	grant, err := s.authorize(ctx, s.membershipRepo, decision, userID)
	if err != nil {
		return nil, access.Grant{}, classify(err)
	}
	if err := grant.Require(capability); err != nil {
		return nil, access.Grant{}, err
	}
	return decision, grant, nil
}

func (s *DecisionService) authorize(ctx context.Context, memberships *repository.MembershipRepository, decision *models.Decision, userID uuid.UUID) (access.Grant, error) {
	var membership *models.TeamMembership
	if decision.OwnerID != userID && decision.IsTeam() {
		m, err := memberships.Get(ctx, decision.ID, userID)
		if err != nil {
			return access.Grant{}, err
		}
		membership = m
	}
	return access.Authorize(decision, userID, membership)
}

// CreateDecision creates a decision owned by ownerID. Team decisions also get the owner
// membership.
func (s *DecisionService) CreateDecision(ctx context.Context, ownerID uuid.UUID, req CreateDecisionRequest) (*models.Decision, error) {
	name := strings.TrimSpace(req.Name)
	if err := validateName("name", name); err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(req.Description) > MaxDescriptionLength {
		return nil, apperror.Validation("description must be at most %d characters", MaxDescriptionLength)
	}
	if !req.Type.Valid() {
		return nil, apperror.Validation("type must be %q or %q", models.TypePrivate, models.TypeTeam)
	}
	mode := req.Mode
	if mode == "" {
		mode = models.ModeManual
	}
	if !mode.Valid() {
		return nil, apperror.Validation("mode must be %q or %q", models.ModeManual, models.ModeAI)
	}

	decision := &models.Decision{
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Mode:        mode,
		Type:        req.Type,
		OwnerID:     ownerID,
		Deadline:    req.Deadline,
	}

	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.decisionRepo.WithTx(tx).Create(ctx, decision); err != nil {
			return err
		}
		if !decision.IsTeam() {
			return nil
		}
		acceptedAt := s.now()
		return s.membershipRepo.WithTx(tx).Create(ctx, &models.TeamMembership{
			DecisionID: decision.ID,
			UserID:     ownerID,
			Role:       string(access.RoleOwner),
			Accepted:   true,
			AcceptedAt: &acceptedAt,
		})
	})
	if err != nil {
		return nil, classify(err)
	}

	slog.Info("Decision created", "decision_id", decision.ID, "owner_id", ownerID, "type", decision.Type, "mode", decision.Mode)
	return decision, nil
}

// ListDecisions returns the decisions userID owns or has joined
func (s *DecisionService) ListDecisions(ctx context.Context, userID uuid.UUID) ([]models.Decision, error) {
	decisions, err := s.decisionRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, classify(err)
	}
	return decisions, nil
}

// GetDetails returns the decision with its structure, scores, members and the computed
// team result. All parts come from one snapshot.
func (s *DecisionService) GetDetails(ctx context.Context, id, userID uuid.UUID) (*DecisionDetails, error) {
	var details *DecisionDetails
	err := database.WithReadTx(ctx, s.db, func(tx *sql.Tx) error {
		decision, err := s.decisionRepo.WithTx(tx).GetByID(ctx, id)
		if err != nil {
			return err
		}
		if decision == nil {
			return apperror.NotFound("decision not found")
		}

		grant, err := s.authorize(ctx, s.membershipRepo.WithTx(tx), decision, userID)
		if err != nil {
			return err
		}
		if err := grant.Require(access.CapView); err != nil {
			return err
		}

		details, err = s.loadDetails(ctx, tx, decision, grant, userID)
		return err
	})
	if err != nil {
		return nil, classify(err)
	}
	return details, nil
}

func (s *DecisionService) loadDetails(ctx context.Context, tx *sql.Tx, decision *models.Decision, grant access.Grant, userID uuid.UUID) (*DecisionDetails, error) {
	options, err := s.optionRepo.WithTx(tx).ListByDecision(ctx, decision.ID)
	if err != nil {
		return nil, err
	}
	criteria, err := s.criterionRepo.WithTx(tx).ListByDecision(ctx, decision.ID)
	if err != nil {
		return nil, err
	}
	evaluations, err := s.evaluationRepo.WithTx(tx).GetEvaluations(ctx, decision.ID)
	if err != nil {
		return nil, err
	}
	weights, err := s.weightRepo.WithTx(tx).ListByDecision(ctx, decision.ID)
	if err != nil {
		return nil, err
	}
	comments, err := s.commentRepo.WithTx(tx).ListByDecision(ctx, decision.ID)
	if err != nil {
		return nil, err
	}

	members := []models.TeamMembership{}
	if decision.IsTeam() {
		members, err = s.membershipRepo.WithTx(tx).ListByDecision(ctx, decision.ID)
		if err != nil {
			return nil, err
		}
	}

	teamWeights := make(map[uuid.UUID][]models.Weight)
	myWeights := []models.Weight{}
	for _, w := range weights {
		teamWeights[w.UserID] = append(teamWeights[w.UserID], w)
		if w.UserID == userID {
			myWeights = append(myWeights, w)
		}
	}

	state := lifecycle.Current(decision, s.now())
	return &DecisionDetails{
		Decision:    *decision,
		Role:        grant.Role,
		IsOwner:     grant.IsOwner,
		State:       state,
		Locked:      state.IsLocked(),
		Options:     options,
		Criteria:    criteria,
		Evaluations: evaluations,
		TeamWeights: teamWeights,
		MyWeights:   myWeights,
		Members:     members,
		Comments:    comments,
		Results: aggregation.Compute(aggregation.Input{
			Mode:        decision.Mode,
			Options:     options,
			Criteria:    criteria,
			Weights:     weights,
			Evaluations: evaluations,
		}),
	}, nil
}

// UpdateDecision renames a decision and/or changes its description
func (s *DecisionService) UpdateDecision(ctx context.Context, id, userID uuid.UUID, req UpdateDecisionRequest) (*models.Decision, error) {
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if err := validateName("name", name); err != nil {
			return nil, err
		}
		req.Name = &name
	}
	if req.Description != nil && utf8.RuneCountInString(*req.Description) > MaxDescriptionLength {
		return nil, apperror.Validation("description must be at most %d characters", MaxDescriptionLength)
	}

	var updated *models.Decision
	err := s.withLockedDecision(ctx, id, userID, access.CapEditStructure, lifecycle.ActionEditStructure, func(l *lockedDecision) error {
		decision := *l.decision
		if req.Name != nil {
			decision.Name = *req.Name
		}
		if req.Description != nil {
			decision.Description = strings.TrimSpace(*req.Description)
		}
		if err := s.decisionRepo.WithTx(l.tx).UpdateDetails(ctx, &decision); err != nil {
			return err
		}
		updated = &decision
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteDecision removes a decision and everything attached to it. Only the owner may
// do this, in any state.
func (s *DecisionService) DeleteDecision(ctx context.Context, id, userID uuid.UUID) error {
	err := s.withLockedDecision(ctx, id, userID, access.CapDeleteDecision, "", func(l *lockedDecision) error {
		return s.decisionRepo.WithTx(l.tx).Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	slog.Info("Decision deleted", "decision_id", id, "user_id", userID)
	return nil
}

// SaveOptions replaces the decision's options with the given list, in order.
// Entries carrying the ID of an existing option keep it.
func (s *DecisionService) SaveOptions(ctx context.Context, id, userID uuid.UUID, inputs []models.OptionInput) ([]models.Option, error) {
	options := make([]models.Option, 0, len(inputs))
	names := make([]string, 0, len(inputs))
	for _, in := range inputs {
		option := models.Option{Name: strings.TrimSpace(in.Name)}
		if in.ID != nil {
			option.ID = *in.ID
		}
		options = append(options, option)
		names = append(names, option.Name)
	}
	if err := validateBatchNames("option", names); err != nil {
		return nil, err
	}

	var saved []models.Option
	err := s.withLockedDecision(ctx, id, userID, access.CapEditStructure, lifecycle.ActionEditStructure, func(l *lockedDecision) error {
		existing, err := s.optionRepo.WithTx(l.tx).ListByDecision(ctx, id)
		if err != nil {
			return err
		}
		known := make(map[uuid.UUID]bool, len(existing))
		for _, o := range existing {
			known[o.ID] = true
		}
		ids := make([]uuid.UUID, 0, len(options))
		for _, o := range options {
			ids = append(ids, o.ID)
		}
		if err := validateBatchIDs("option", ids, known); err != nil {
			return err
		}

		saved, err = s.optionRepo.Replace(ctx, l.tx, id, options)
		return err
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// SaveCriteria replaces the decision's criteria with the given list, in order
func (s *DecisionService) SaveCriteria(ctx context.Context, id, userID uuid.UUID, inputs []models.CriterionInput) ([]models.Criterion, error) {
	criteria := make([]models.Criterion, 0, len(inputs))
	names := make([]string, 0, len(inputs))
	for _, in := range inputs {
		if math.IsNaN(in.Importance) || in.Importance < models.MinWeight || in.Importance > models.MaxWeight {
			return nil, apperror.Validation("importance must be between %g and %g", models.MinWeight, models.MaxWeight)
		}
		criterion := models.Criterion{Name: strings.TrimSpace(in.Name), Importance: in.Importance}
		if in.ID != nil {
			criterion.ID = *in.ID
		}
		criteria = append(criteria, criterion)
		names = append(names, criterion.Name)
	}
	if err := validateBatchNames("criterion", names); err != nil {
		return nil, err
	}

	var saved []models.Criterion
	err := s.withLockedDecision(ctx, id, userID, access.CapEditStructure, lifecycle.ActionEditStructure, func(l *lockedDecision) error {
		existing, err := s.criterionRepo.WithTx(l.tx).ListByDecision(ctx, id)
		if err != nil {
			return err
		}
		known := make(map[uuid.UUID]bool, len(existing))
		for _, c := range existing {
			known[c.ID] = true
		}
		ids := make([]uuid.UUID, 0, len(criteria))
		for _, c := range criteria {
			ids = append(ids, c.ID)
		}
		if err := validateBatchIDs("criterion", ids, known); err != nil {
			return err
		}

		saved, err = s.criterionRepo.Replace(ctx, l.tx, id, criteria)
		return err
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// SubmitWeights stores the caller's personal criterion weights. Criteria left out keep
// their stored weight; the batch is applied entirely or not at all.
func (s *DecisionService) SubmitWeights(ctx context.Context, id, userID uuid.UUID, inputs []models.WeightInput) ([]models.Weight, error) {
	var stored []models.Weight
	err := s.withLockedDecision(ctx, id, userID, access.CapSubmitScores, lifecycle.ActionSubmitWeights, func(l *lockedDecision) error {
		criteria, err := s.criterionRepo.WithTx(l.tx).ListByDecision(ctx, id)
		if err != nil {
			return err
		}
		known := make(map[uuid.UUID]bool, len(criteria))
		for _, c := range criteria {
			known[c.ID] = true
		}

		seen := make(map[uuid.UUID]bool, len(inputs))
		for _, in := range inputs {
			if !known[in.CriterionID] {
				return apperror.Validation("criterion %s does not belong to this decision", in.CriterionID)
			}
			if seen[in.CriterionID] {
				return apperror.Validation("criterion %s appears more than once", in.CriterionID)
			}
			seen[in.CriterionID] = true
		}

		weights := s.weightRepo.WithTx(l.tx)
		if err := weights.UpsertWeights(ctx, id, userID, inputs); err != nil {
			return err
		}
		stored, err = weights.GetWeights(ctx, id, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// SubmitEvaluations stores the caller's scores, one per (option, criterion) cell
func (s *DecisionService) SubmitEvaluations(ctx context.Context, id, userID uuid.UUID, inputs []models.EvaluationInput) error {
	for _, in := range inputs {
		if err := repository.ValidateValue(in.Value); err != nil {
			return err
		}
	}

	return s.withLockedDecision(ctx, id, userID, access.CapSubmitScores, lifecycle.ActionSubmitEvaluations, func(l *lockedDecision) error {
		optionIDs, criterionIDs, err := s.structureIDs(ctx, l.tx, id)
		if err != nil {
			return err
		}

		type cell struct{ option, criterion uuid.UUID }
		seen := make(map[cell]bool, len(inputs))
		for _, in := range inputs {
			if !optionIDs[in.OptionID] {
				return apperror.Validation("option %s does not belong to this decision", in.OptionID)
			}
			if !criterionIDs[in.CriterionID] {
				return apperror.Validation("criterion %s does not belong to this decision", in.CriterionID)
			}
			key := cell{option: in.OptionID, criterion: in.CriterionID}
			if seen[key] {
				return apperror.Validation("option %s and criterion %s appear more than once", in.OptionID, in.CriterionID)
			}
			seen[key] = true
		}

		evaluations := s.evaluationRepo.WithTx(l.tx)
		for _, in := range inputs {
			if err := evaluations.UpsertHumanEvaluation(ctx, id, userID, in.OptionID, in.CriterionID, in.Value, in.Explanation); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *DecisionService) structureIDs(ctx context.Context, tx *sql.Tx, id uuid.UUID) (map[uuid.UUID]bool, map[uuid.UUID]bool, error) {
	options, err := s.optionRepo.WithTx(tx).ListByDecision(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	criteria, err := s.criterionRepo.WithTx(tx).ListByDecision(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	optionIDs := make(map[uuid.UUID]bool, len(options))
	for _, o := range options {
		optionIDs[o.ID] = true
	}
	criterionIDs := make(map[uuid.UUID]bool, len(criteria))
	for _, c := range criteria {
		criterionIDs[c.ID] = true
	}
	return optionIDs, criterionIDs, nil
}

// RunAIEvaluation scores the decision with the oracle and replaces the previous AI set.
// A team decision is locked for good once the run succeeds.
func (s *DecisionService) RunAIEvaluation(ctx context.Context, id, userID uuid.UUID) (*DecisionDetails, error) {
	decision, _, err := s.loadForRead(ctx, id, userID, access.CapRunAI)
	if err != nil {
		return nil, err
	}
	if decision.Mode != models.ModeAI {
		return nil, apperror.Validation("AI evaluation requires the decision to be in AI mode")
	}
	if err := lifecycle.Check(decision, s.now(), lifecycle.ActionRunAI); err != nil {
		return nil, err
	}

	options, err := s.optionRepo.ListByDecision(ctx, id)
	if err != nil {
		return nil, classify(err)
	}
	criteria, err := s.criterionRepo.ListByDecision(ctx, id)
	if err != nil {
		return nil, classify(err)
	}
	if len(options) == 0 || len(criteria) == 0 {
		return nil, apperror.Validation("AI evaluation needs at least one option and one criterion")
	}

	release, err := s.guard.Acquire(ctx, id)
	switch {
	case errors.Is(err, runguard.ErrInProgress):
		return nil, apperror.Locked("AI evaluation already in progress")
	case err != nil:
		// The guard is best effort; the transaction below still serializes writers.
		slog.Warn("Run guard unavailable, continuing without it", "decision_id", id, "error", err)
	default:
		defer release()
	}

	start := s.now()
	scores, err := s.oracle.Evaluate(ctx, oracle.Request{
		DecisionName: decision.Name,
		Description:  decision.Description,
		Options:      options,
		Criteria:     criteria,
	})
	if err != nil {
		if !apperror.Is(err, apperror.KindOracleFailure) {
			err = apperror.OracleFailure(err, "AI evaluation failed")
		}
		return nil, err
	}

	completed := false
	err = s.withLockedDecision(ctx, id, userID, access.CapRunAI, lifecycle.ActionRunAI, func(l *lockedDecision) error {
		if l.decision.Mode != models.ModeAI {
			return apperror.Validation("AI evaluation requires the decision to be in AI mode")
		}

		optionIDs, criterionIDs, err := s.structureIDs(ctx, l.tx, id)
		if err != nil {
			return err
		}
		inputs := make([]models.AIEvaluationInput, 0, len(scores))
		for _, score := range scores {
			if !optionIDs[score.OptionID] || !criterionIDs[score.CriterionID] {
				continue
			}
			inputs = append(inputs, models.AIEvaluationInput{
				OptionID:    score.OptionID,
				CriterionID: score.CriterionID,
				Value:       score.Value,
				Explanation: score.Explanation,
			})
		}
		if len(inputs) == 0 {
			return apperror.Validation("options or criteria changed during the AI evaluation, run it again")
		}

		if err := s.evaluationRepo.ReplaceAIEvaluations(ctx, l.tx, id, inputs); err != nil {
			return err
		}
		if lifecycle.CompletesOnAIRun(l.decision) {
			completed = true
			return s.decisionRepo.WithTx(l.tx).MarkAICompleted(ctx, id, s.now())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("AI evaluation stored",
		"decision_id", id,
		"user_id", userID,
		"cells", len(scores),
		"locked", completed,
		"duration_ms", s.now().Sub(start).Milliseconds(),
	)

	return s.GetDetails(ctx, id, userID)
}

// ChangeMode switches between manual and AI scoring
func (s *DecisionService) ChangeMode(ctx context.Context, id, userID uuid.UUID, mode models.DecisionMode) (*models.Decision, error) {
	var updated *models.Decision
	err := s.withLockedDecision(ctx, id, userID, access.CapChangeMode, "", func(l *lockedDecision) error {
		if _, err := lifecycle.ApplyModeChange(l.decision, s.now(), mode); err != nil {
			return err
		}
		if err := s.decisionRepo.WithTx(l.tx).UpdateMode(ctx, id, mode); err != nil {
			return err
		}
		decision := *l.decision
		decision.Mode = mode
		updated = &decision
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Decision mode changed", "decision_id", id, "user_id", userID, "mode", mode)
	return updated, nil
}

// ChangeDeadline sets the deadline, or clears it when deadline is nil. This is the one
// change still allowed once the deadline has passed.
func (s *DecisionService) ChangeDeadline(ctx context.Context, id, userID uuid.UUID, deadline *time.Time) (*models.Decision, error) {
	var updated *models.Decision
	err := s.withLockedDecision(ctx, id, userID, access.CapChangeDeadline, "", func(l *lockedDecision) error {
		if _, err := lifecycle.ApplyDeadlineChange(l.decision, s.now(), deadline); err != nil {
			return err
		}
		if err := s.decisionRepo.WithTx(l.tx).UpdateDeadline(ctx, id, deadline); err != nil {
			return err
		}
		decision := *l.decision
		decision.Deadline = deadline
		updated = &decision
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Decision deadline changed", "decision_id", id, "user_id", userID, "deadline", deadline)
	return updated, nil
}

func validateName(field, name string) error {
	if name == "" {
		return apperror.Validation("%s is required", field)
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return apperror.Validation("%s must be at most %d characters", field, MaxNameLength)
	}
	return nil
}

// validateBatchNames requires non-empty names that are unique within the batch, ignoring case
func validateBatchNames(kind string, names []string) error {
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if err := validateName(kind+" name", name); err != nil {
			return err
		}
		key := strings.ToLower(name)
		if seen[key] {
			return apperror.Validation("%s name %q is used more than once", kind, name)
		}
		seen[key] = true
	}
	return nil
}

// validateBatchIDs checks that client-supplied IDs are unique and refer to existing rows.
// uuid.Nil marks a new entry.
func validateBatchIDs(kind string, ids []uuid.UUID, known map[uuid.UUID]bool) error {
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if !known[id] {
			return apperror.Validation("%s %s does not belong to this decision", kind, id)
		}
		if seen[id] {
			return apperror.Validation("%s %s appears more than once", kind, id)
		}
		seen[id] = true
	}
	return nil
}
