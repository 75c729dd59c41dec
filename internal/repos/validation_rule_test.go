package repos

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/archalign/validation-backend/internal/testutil"
	"github.com/archalign/validation-backend/internal/types"
)

func seedRule(t *testing.T, repo ValidationRuleRepo, name string, active bool) *types.ValidationRule {
	t.Helper()
	rule := &types.ValidationRule{
		ID:        uuid.New(),
		Name:      name,
		RuleType:  types.RuleTypeCompleteness,
		Scope:     types.LayerBusiness,
		Severity:  types.SeverityMedium,
		RuleLogic: datatypes.JSON(`{"check":"not_orphaned"}`),
		IsActive:  active,
	}
	if _, err := repo.Create(t.Context(), nil, []*types.ValidationRule{rule}); err != nil {
		t.Fatalf("seed rule %q: %v", name, err)
	}
	return rule
}

func TestRuleRepoExistingNames(t *testing.T) {
	repo := NewValidationRuleRepo(testutil.NewDB(t), testutil.NewLogger())
	seedRule(t, repo, "alpha", true)
	seedRule(t, repo, "beta", false)

	existing, err := repo.ExistingNames(t.Context(), nil, []string{"alpha", "beta", "gamma"})
	if err != nil {
		t.Fatalf("ExistingNames: %v", err)
	}
	if !existing["alpha"] || !existing["beta"] {
		t.Errorf("known names missing: %v", existing)
	}
	if existing["gamma"] {
		t.Errorf("unknown name reported as existing: %v", existing)
	}
}

func TestRuleRepoListActive(t *testing.T) {
	repo := NewValidationRuleRepo(testutil.NewDB(t), testutil.NewLogger())
	active := seedRule(t, repo, "active", true)
	seedRule(t, repo, "inactive", false)

	rules, err := repo.ListActive(t.Context(), nil)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(rules) != 1 || rules[0].ID != active.ID {
		t.Fatalf("active set = %+v", rules)
	}
	all, err := repo.List(t.Context(), nil)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("full set = %d, want 2", len(all))
	}
}

func TestRuleRepoSetActive(t *testing.T) {
	repo := NewValidationRuleRepo(testutil.NewDB(t), testutil.NewLogger())
	rule := seedRule(t, repo, "toggleme", true)

	updated, err := repo.SetActive(t.Context(), nil, rule.ID, false)
	if err != nil || !updated {
		t.Fatalf("SetActive: updated=%v err=%v", updated, err)
	}
	got, err := repo.GetByID(t.Context(), nil, rule.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.IsActive {
		t.Error("rule still active after SetActive(false)")
	}

	updated, err = repo.SetActive(t.Context(), nil, uuid.New(), true)
	if err != nil {
		t.Fatalf("SetActive unknown id errored: %v", err)
	}
	if updated {
		t.Error("unknown rule reported as updated")
	}
}
