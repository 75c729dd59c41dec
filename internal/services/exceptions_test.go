package services

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/archalign/validation-backend/internal/apierr"
	"github.com/archalign/validation-backend/internal/repos"
	"github.com/archalign/validation-backend/internal/types"
)

type exceptionFixture struct {
	svc       ExceptionService
	ruleSvc   RuleService
	issueRepo repos.ValidationIssueRepo
	excRepo   repos.ValidationExceptionRepo
}

func newExceptionFixture(t *testing.T) *exceptionFixture {
	t.Helper()
	db := newTestDB(t)
	log := newTestLogger()
	issueRepo := repos.NewValidationIssueRepo(db, log)
	ruleRepo := repos.NewValidationRuleRepo(db, log)
	excRepo := repos.NewValidationExceptionRepo(db, log)
	return &exceptionFixture{
		svc:       NewExceptionService(db, log, excRepo, ruleRepo, issueRepo),
		ruleSvc:   NewRuleService(db, log, ruleRepo),
		issueRepo: issueRepo,
		excRepo:   excRepo,
	}
}

func TestExceptionCreateValidation(t *testing.T) {
	fx := newExceptionFixture(t)
	tenantID := uuid.New()
	past := time.Now().Add(-time.Hour)

	cases := []struct {
		name  string
		input *CreateExceptionInput
		want  int
	}{
		{"missing entity type", &CreateExceptionInput{EntityID: uuid.New(), Reason: "r"}, 422},
		{"missing entity id", &CreateExceptionInput{EntityType: "Process", Reason: "r"}, 422},
		{"missing reason", &CreateExceptionInput{EntityType: "Process", EntityID: uuid.New()}, 422},
		{"expires in the past", &CreateExceptionInput{EntityType: "Process", EntityID: uuid.New(), Reason: "r", ExpiresAt: &past}, 422},
		{"unknown rule", &CreateExceptionInput{EntityType: "Process", EntityID: uuid.New(), Reason: "r", RuleID: ptrUUID(uuid.New())}, 404},
	}
	for _, tc := range cases {
		_, err := fx.svc.Create(t.Context(), tenantID, "user:alice", tc.input)
		if apierr.StatusOf(err) != tc.want {
			t.Errorf("%s: status = %d, want %d (err=%v)", tc.name, apierr.StatusOf(err), tc.want, err)
		}
	}
}

func ptrUUID(id uuid.UUID) *uuid.UUID { return &id }

func TestEntityWideExceptionResolvesOpenIssues(t *testing.T) {
	fx := newExceptionFixture(t)
	tenantID := uuid.New()
	entityID := uuid.New()

	open := &types.ValidationIssue{
		ID:         uuid.New(),
		TenantID:   tenantID,
		EntityType: "Process",
		EntityID:   entityID,
		Layer:      types.LayerBusiness,
		IssueType:  types.IssueTypeOrphaned,
		Severity:   types.SeverityHigh,
	}
	unrelated := &types.ValidationIssue{
		ID:         uuid.New(),
		TenantID:   tenantID,
		EntityType: "Process",
		EntityID:   uuid.New(),
		Layer:      types.LayerBusiness,
		IssueType:  types.IssueTypeOrphaned,
		Severity:   types.SeverityHigh,
	}
	if _, err := fx.issueRepo.Create(t.Context(), nil, []*types.ValidationIssue{open, unrelated}); err != nil {
		t.Fatalf("seed issues: %v", err)
	}

	exc, err := fx.svc.Create(t.Context(), tenantID, "user:alice", &CreateExceptionInput{
		EntityType: "Process",
		EntityID:   entityID,
		Reason:     "vendor system, out of our control",
	})
	if err != nil {
		t.Fatalf("Create exception failed: %v", err)
	}
	if !exc.IsActive || exc.CreatedBy != "user:alice" {
		t.Errorf("unexpected exception state: %+v", exc)
	}

	got, err := fx.issueRepo.GetByID(t.Context(), nil, tenantID, open.ID)
	if err != nil {
		t.Fatalf("reload issue: %v", err)
	}
	if !got.IsResolved || got.ResolvedBy != "system:exception" {
		t.Errorf("entity-wide exception should resolve the entity's open issues: %+v", got)
	}

	other, err := fx.issueRepo.GetByID(t.Context(), nil, tenantID, unrelated.ID)
	if err != nil {
		t.Fatalf("reload unrelated issue: %v", err)
	}
	if other.IsResolved {
		t.Error("issues of other entities must stay open")
	}
}

func TestRuleScopedExceptionLeavesIssuesOpen(t *testing.T) {
	fx := newExceptionFixture(t)
	tenantID := uuid.New()
	entityID := uuid.New()

	rule, err := fx.ruleSvc.Create(t.Context(), validCreateRuleInput("scoped"))
	if err != nil {
		t.Fatalf("create rule: %v", err)
	}
	issue := &types.ValidationIssue{
		ID:         uuid.New(),
		TenantID:   tenantID,
		RuleID:     &rule.ID,
		EntityType: "Process",
		EntityID:   entityID,
		Layer:      types.LayerBusiness,
		IssueType:  types.IssueTypeMissingLink,
		Severity:   types.SeverityMedium,
	}
	if _, err := fx.issueRepo.Create(t.Context(), nil, []*types.ValidationIssue{issue}); err != nil {
		t.Fatalf("seed issue: %v", err)
	}

	if _, err := fx.svc.Create(t.Context(), tenantID, "user:alice", &CreateExceptionInput{
		EntityType: "Process",
		EntityID:   entityID,
		RuleID:     &rule.ID,
		Reason:     "accepted until next quarter",
	}); err != nil {
		t.Fatalf("Create exception failed: %v", err)
	}

	got, err := fx.issueRepo.GetByID(t.Context(), nil, tenantID, issue.ID)
	if err != nil {
		t.Fatalf("reload issue: %v", err)
	}
	// Rule-scoped exceptions only affect future cycles.
	if got.IsResolved {
		t.Error("rule-scoped exception must not retroactively resolve issues")
	}
}

func TestExceptionListIsTenantScoped(t *testing.T) {
	fx := newExceptionFixture(t)
	tenantA := uuid.New()
	tenantB := uuid.New()

	if _, err := fx.svc.Create(t.Context(), tenantA, "user:alice", &CreateExceptionInput{
		EntityType: "Process",
		EntityID:   uuid.New(),
		Reason:     "a",
	}); err != nil {
		t.Fatalf("create for tenant A: %v", err)
	}

	listB, err := fx.svc.List(t.Context(), tenantB)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(listB) != 0 {
		t.Fatalf("tenant B sees %d foreign exceptions", len(listB))
	}
	listA, err := fx.svc.List(t.Context(), tenantA)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(listA) != 1 {
		t.Fatalf("tenant A list = %d, want 1", len(listA))
	}
}
