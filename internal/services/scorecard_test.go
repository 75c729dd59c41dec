package services

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/archalign/validation-backend/internal/apierr"
	"github.com/archalign/validation-backend/internal/repos"
	"github.com/archalign/validation-backend/internal/types"
)

func approx(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func buildScorecards(elements []*types.ArchitectureElement, issues []*types.ValidationIssue, ruleTypeOf func(uuid.UUID) string) ([]*types.ValidationScorecard, float64) {
	ss := NewScorecardService(nil, newTestLogger(), nil, nil)
	return ss.Build(uuid.New(), uuid.New(), elements, issues, ruleTypeOf)
}

func TestBuildScorecardsCleanTenant(t *testing.T) {
	tenantID := uuid.New()
	elements := []*types.ArchitectureElement{
		testElement(tenantID, types.LayerBusiness, "Process", "p1"),
		testElement(tenantID, types.LayerApplication, "Component", "c1"),
	}
	cards, maturity := buildScorecards(elements, nil, nil)
	if len(cards) != 2 {
		t.Fatalf("expected one scorecard per populated layer, got %d", len(cards))
	}
	for _, card := range cards {
		approx(t, "completeness", card.CompletenessScore, 1.0)
		approx(t, "traceability", card.TraceabilityScore, 1.0)
		approx(t, "alignment", card.AlignmentScore, 1.0)
		approx(t, "overall", card.OverallScore, 1.0)
		if card.ElementCount != 1 {
			t.Errorf("layer %s element count = %d, want 1", card.Layer, card.ElementCount)
		}
	}
	approx(t, "maturity", maturity, 1.0)
}

func TestBuildScorecardsEmptyTenant(t *testing.T) {
	cards, maturity := buildScorecards(nil, nil, nil)
	if len(cards) != 0 {
		t.Fatalf("empty tenant should produce no scorecards, got %d", len(cards))
	}
	approx(t, "maturity", maturity, 1.0)
}

func TestBuildScorecardsSeverityWeighting(t *testing.T) {
	tenantID := uuid.New()
	ruleID := uuid.New()
	elements := []*types.ArchitectureElement{
		testElement(tenantID, types.LayerBusiness, "Process", "p1"),
		testElement(tenantID, types.LayerBusiness, "Process", "p2"),
		testElement(tenantID, types.LayerBusiness, "Process", "p3"),
		testElement(tenantID, types.LayerBusiness, "Process", "p4"),
	}
	issues := []*types.ValidationIssue{{
		ID:       uuid.New(),
		TenantID: tenantID,
		RuleID:   &ruleID,
		Layer:    types.LayerBusiness,
		Severity: types.SeverityCritical,
	}}
	cards, maturity := buildScorecards(elements, issues, func(uuid.UUID) string { return types.RuleTypeCompleteness })
	if len(cards) != 1 {
		t.Fatalf("expected one scorecard, got %d", len(cards))
	}
	card := cards[0]
	// One critical (weight 1.0) across four elements costs 0.25 on the
	// completeness dimension only.
	approx(t, "completeness", card.CompletenessScore, 0.75)
	approx(t, "traceability", card.TraceabilityScore, 1.0)
	approx(t, "alignment", card.AlignmentScore, 1.0)
	approx(t, "overall", card.OverallScore, (0.75+1.0+1.0)/3.0)
	approx(t, "maturity", maturity, card.OverallScore)
	if card.CriticalIssueCount != 1 {
		t.Errorf("critical count = %d, want 1", card.CriticalIssueCount)
	}
}

func TestBuildScorecardsRoutesByRuleType(t *testing.T) {
	tenantID := uuid.New()
	traceRule := uuid.New()
	alignRule := uuid.New()
	ruleTypes := map[uuid.UUID]string{
		traceRule: types.RuleTypeTraceability,
		alignRule: types.RuleTypeAlignment,
	}
	elements := []*types.ArchitectureElement{
		testElement(tenantID, types.LayerApplication, "Component", "c1"),
		testElement(tenantID, types.LayerApplication, "Component", "c2"),
	}
	issues := []*types.ValidationIssue{
		{ID: uuid.New(), TenantID: tenantID, RuleID: &traceRule, Layer: types.LayerApplication, Severity: types.SeverityMedium},
		{ID: uuid.New(), TenantID: tenantID, RuleID: &alignRule, Layer: types.LayerApplication, Severity: types.SeverityLow},
	}
	cards, _ := buildScorecards(elements, issues, func(id uuid.UUID) string { return ruleTypes[id] })
	if len(cards) != 1 {
		t.Fatalf("expected one scorecard, got %d", len(cards))
	}
	card := cards[0]
	approx(t, "completeness", card.CompletenessScore, 1.0)
	approx(t, "traceability", card.TraceabilityScore, 1.0-0.5/2.0)
	approx(t, "alignment", card.AlignmentScore, 1.0-0.25/2.0)
}

func TestBuildScorecardsIgnoresSuppressedIssues(t *testing.T) {
	tenantID := uuid.New()
	ruleID := uuid.New()
	elements := []*types.ArchitectureElement{testElement(tenantID, types.LayerBusiness, "Process", "p1")}
	issues := []*types.ValidationIssue{{
		ID:         uuid.New(),
		TenantID:   tenantID,
		RuleID:     &ruleID,
		Layer:      types.LayerBusiness,
		Severity:   types.SeverityCritical,
		IsResolved: true,
	}}
	cards, maturity := buildScorecards(elements, issues, func(uuid.UUID) string { return types.RuleTypeCompleteness })
	approx(t, "completeness", cards[0].CompletenessScore, 1.0)
	approx(t, "maturity", maturity, 1.0)
	if cards[0].CriticalIssueCount != 0 {
		t.Errorf("suppressed issues must not be counted, got %d", cards[0].CriticalIssueCount)
	}
}

func TestBuildScorecardsClampsPenalty(t *testing.T) {
	tenantID := uuid.New()
	ruleID := uuid.New()
	elements := []*types.ArchitectureElement{testElement(tenantID, types.LayerBusiness, "Process", "p1")}
	var issues []*types.ValidationIssue
	for i := 0; i < 3; i++ {
		issues = append(issues, &types.ValidationIssue{
			ID:       uuid.New(),
			TenantID: tenantID,
			RuleID:   &ruleID,
			Layer:    types.LayerBusiness,
			Severity: types.SeverityCritical,
		})
	}
	cards, _ := buildScorecards(elements, issues, func(uuid.UUID) string { return types.RuleTypeCompleteness })
	approx(t, "completeness", cards[0].CompletenessScore, 0.0)
	if cards[0].CompletenessScore < 0 {
		t.Error("dimension score must never go negative")
	}
}

func TestBuildScorecardsMaturityIsMeanOfLayers(t *testing.T) {
	tenantID := uuid.New()
	ruleID := uuid.New()
	elements := []*types.ArchitectureElement{
		testElement(tenantID, types.LayerBusiness, "Process", "p1"),
		testElement(tenantID, types.LayerApplication, "Component", "c1"),
	}
	// One critical completeness issue wipes the Business completeness
	// dimension; Application stays clean.
	issues := []*types.ValidationIssue{{
		ID:       uuid.New(),
		TenantID: tenantID,
		RuleID:   &ruleID,
		Layer:    types.LayerBusiness,
		Severity: types.SeverityCritical,
	}}
	cards, maturity := buildScorecards(elements, issues, func(uuid.UUID) string { return types.RuleTypeCompleteness })
	if len(cards) != 2 {
		t.Fatalf("expected two scorecards, got %d", len(cards))
	}
	businessOverall := (0.0 + 1.0 + 1.0) / 3.0
	approx(t, "maturity", maturity, (businessOverall+1.0)/2.0)
}

func seedCompletedCycle(t *testing.T, cycleRepo repos.ValidationCycleRepo, cardRepo repos.ValidationScorecardRepo, tenantID uuid.UUID, completedAt time.Time, maturity float64) *types.ValidationCycle {
	t.Helper()
	cycle := &types.ValidationCycle{
		ID:              uuid.New(),
		TenantID:        tenantID,
		StartedAt:       completedAt.Add(-time.Minute),
		CompletedAt:     &completedAt,
		TriggeredBy:     types.TriggeredBySystem,
		ExecutionStatus: types.CycleStatusCompleted,
		MaturityScore:   &maturity,
		CreatedAt:       completedAt,
		UpdatedAt:       completedAt,
	}
	if _, err := cycleRepo.Create(t.Context(), nil, []*types.ValidationCycle{cycle}); err != nil {
		t.Fatalf("seed cycle: %v", err)
	}
	if _, err := cardRepo.Create(t.Context(), nil, []*types.ValidationScorecard{{
		ID:                uuid.New(),
		TenantID:          tenantID,
		ValidationCycleID: cycle.ID,
		Layer:             types.LayerBusiness,
		CompletenessScore: maturity,
		TraceabilityScore: maturity,
		AlignmentScore:    maturity,
		OverallScore:      maturity,
		ElementCount:      1,
	}}); err != nil {
		t.Fatalf("seed scorecard: %v", err)
	}
	return cycle
}

func TestScorecardGetLatestCompleted(t *testing.T) {
	db := newTestDB(t)
	log := newTestLogger()
	cycleRepo := repos.NewValidationCycleRepo(db, log)
	cardRepo := repos.NewValidationScorecardRepo(db, log)
	svc := NewScorecardService(db, log, cycleRepo, cardRepo)
	tenantID := uuid.New()

	older := seedCompletedCycle(t, cycleRepo, cardRepo, tenantID, time.Now().Add(-time.Hour), 0.5)
	newest := seedCompletedCycle(t, cycleRepo, cardRepo, tenantID, time.Now(), 0.9)

	got, err := svc.Get(t.Context(), tenantID, nil)
	if err != nil {
		t.Fatalf("Get latest failed: %v", err)
	}
	if got.CycleID != newest.ID {
		t.Errorf("latest = %s, want %s", got.CycleID, newest.ID)
	}
	if len(got.Layers) != 1 || got.Layers[0].Layer != types.LayerBusiness {
		t.Fatalf("unexpected layers: %+v", got.Layers)
	}
	approx(t, "maturity", *got.MaturityScore, 0.9)

	specific, err := svc.Get(t.Context(), tenantID, &older.ID)
	if err != nil {
		t.Fatalf("Get specific failed: %v", err)
	}
	if specific.CycleID != older.ID {
		t.Errorf("specific = %s, want %s", specific.CycleID, older.ID)
	}
}

func TestScorecardGetMisses(t *testing.T) {
	db := newTestDB(t)
	log := newTestLogger()
	cycleRepo := repos.NewValidationCycleRepo(db, log)
	cardRepo := repos.NewValidationScorecardRepo(db, log)
	svc := NewScorecardService(db, log, cycleRepo, cardRepo)
	tenantID := uuid.New()

	// No completed cycles at all.
	if _, err := svc.Get(t.Context(), tenantID, nil); apierr.StatusOf(err) != 404 {
		t.Errorf("no-cycle status = %d, want 404", apierr.StatusOf(err))
	}

	// A running cycle has no scorecard yet.
	running := &types.ValidationCycle{
		ID:              uuid.New(),
		TenantID:        tenantID,
		StartedAt:       time.Now(),
		TriggeredBy:     types.TriggeredBySystem,
		ExecutionStatus: types.CycleStatusRunning,
	}
	if _, err := cycleRepo.Create(t.Context(), nil, []*types.ValidationCycle{running}); err != nil {
		t.Fatalf("seed running cycle: %v", err)
	}
	if _, err := svc.Get(t.Context(), tenantID, &running.ID); apierr.StatusOf(err) != 404 {
		t.Errorf("running-cycle status = %d, want 404", apierr.StatusOf(err))
	}

	// Another tenant's completed cycle is invisible.
	foreign := seedCompletedCycle(t, cycleRepo, cardRepo, uuid.New(), time.Now(), 1.0)
	if _, err := svc.Get(t.Context(), tenantID, &foreign.ID); apierr.StatusOf(err) != 404 {
		t.Errorf("cross-tenant status = %d, want 404", apierr.StatusOf(err))
	}
}
