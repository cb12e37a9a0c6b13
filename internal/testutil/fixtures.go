package testutil

import (
	"database/sql"
	"testing"

	"decision-hub/internal/models"

	"github.com/google/uuid"
)

// CriterionSpec names a criterion and its default importance for CreateCriteria
type CriterionSpec struct {
	Name       string
	Importance float64
}

// CreateDecision inserts a decision owned by ownerID
func CreateDecision(t *testing.T, db *sql.DB, ownerID uuid.UUID, decisionType models.DecisionType, mode models.DecisionMode) *models.Decision {
	t.Helper()

	decision := &models.Decision{
		ID:      uuid.New(),
		Name:    "Test decision",
		Mode:    mode,
		Type:    decisionType,
		OwnerID: ownerID,
	}
	err := db.QueryRow(`
		INSERT INTO decisions (id, name, description, mode, type, owner_id)
		VALUES ($1, $2, '', $3, $4, $5)
		RETURNING created_at, updated_at
	`, decision.ID, decision.Name, decision.Mode, decision.Type, decision.OwnerID).Scan(&decision.CreatedAt, &decision.UpdatedAt)
	if err != nil {
		t.Fatalf("Failed to create decision: %v", err)
	}

	if decisionType == models.TypeTeam {
		AddMember(t, db, decision.ID, ownerID, "owner", true)
	}

	return decision
}

// CreateOptions inserts options in the given order
func CreateOptions(t *testing.T, db *sql.DB, decisionID uuid.UUID, names ...string) []models.Option {
	t.Helper()

	options := make([]models.Option, 0, len(names))
	for i, name := range names {
		option := models.Option{ID: uuid.New(), DecisionID: decisionID, Name: name, Position: i}
		err := db.QueryRow(`
			INSERT INTO decision_options (id, decision_id, name, position)
			VALUES ($1, $2, $3, $4)
			RETURNING created_at
		`, option.ID, decisionID, name, i).Scan(&option.CreatedAt)
		if err != nil {
			t.Fatalf("Failed to create option %s: %v", name, err)
		}
		options = append(options, option)
	}
	return options
}

// CreateCriteria inserts criteria in the given order
func CreateCriteria(t *testing.T, db *sql.DB, decisionID uuid.UUID, specs ...CriterionSpec) []models.Criterion {
	t.Helper()

	criteria := make([]models.Criterion, 0, len(specs))
	for i, spec := range specs {
		criterion := models.Criterion{ID: uuid.New(), DecisionID: decisionID, Name: spec.Name, Importance: spec.Importance, Position: i}
		err := db.QueryRow(`
			INSERT INTO decision_criteria (id, decision_id, name, importance, position)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING created_at
		`, criterion.ID, decisionID, spec.Name, spec.Importance, i).Scan(&criterion.CreatedAt)
		if err != nil {
			t.Fatalf("Failed to create criterion %s: %v", spec.Name, err)
		}
		criteria = append(criteria, criterion)
	}
	return criteria
}

// AddMember inserts a team membership
func AddMember(t *testing.T, db *sql.DB, decisionID, userID uuid.UUID, role string, accepted bool) {
	t.Helper()

	_, err := db.Exec(`
		INSERT INTO team_memberships (decision_id, user_id, role, accepted, accepted_at)
		VALUES ($1, $2, $3, $4, CASE WHEN $4::boolean THEN NOW() END)
	`, decisionID, userID, role, accepted)
	if err != nil {
		t.Fatalf("Failed to add member %s: %v", userID, err)
	}
}

// CountRows returns the number of rows in table matching decisionID
func CountRows(t *testing.T, db *sql.DB, table string, decisionID uuid.UUID) int {
	t.Helper()

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM "+table+" WHERE decision_id = $1", decisionID).Scan(&count); err != nil {
		t.Fatalf("Failed to count %s: %v", table, err)
	}
	return count
}
