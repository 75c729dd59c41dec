package repos

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/archalign/validation-backend/internal/testutil"
	"github.com/archalign/validation-backend/internal/types"
)

func seedCycle(t *testing.T, repo ValidationCycleRepo, tenantID uuid.UUID, status string, completedAt *time.Time, maturity *float64) *types.ValidationCycle {
	t.Helper()
	now := time.Now()
	if completedAt != nil {
		now = *completedAt
	}
	cycle := &types.ValidationCycle{
		ID:              uuid.New(),
		TenantID:        tenantID,
		StartedAt:       now.Add(-time.Minute),
		CompletedAt:     completedAt,
		TriggeredBy:     types.TriggeredBySystem,
		ExecutionStatus: status,
		MaturityScore:   maturity,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if _, err := repo.Create(t.Context(), nil, []*types.ValidationCycle{cycle}); err != nil {
		t.Fatalf("seed cycle: %v", err)
	}
	return cycle
}

func fptr(v float64) *float64 { return &v }

func TestCycleRepoGetByIDIsTenantScoped(t *testing.T) {
	repo := NewValidationCycleRepo(testutil.NewDB(t), testutil.NewLogger())
	tenantID := uuid.New()
	cycle := seedCycle(t, repo, tenantID, types.CycleStatusRunning, nil, nil)

	got, err := repo.GetByID(t.Context(), nil, tenantID, cycle.ID)
	if err != nil || got == nil {
		t.Fatalf("owner tenant lookup failed: %v, %v", got, err)
	}
	foreign, err := repo.GetByID(t.Context(), nil, uuid.New(), cycle.ID)
	if err != nil {
		t.Fatalf("cross-tenant lookup errored: %v", err)
	}
	if foreign != nil {
		t.Fatal("cross-tenant lookup must come back empty")
	}
}

func TestCycleRepoLatestCompleted(t *testing.T) {
	repo := NewValidationCycleRepo(testutil.NewDB(t), testutil.NewLogger())
	tenantID := uuid.New()

	older := time.Now().Add(-2 * time.Hour)
	newer := time.Now().Add(-time.Hour)
	seedCycle(t, repo, tenantID, types.CycleStatusCompleted, &older, fptr(0.4))
	latest := seedCycle(t, repo, tenantID, types.CycleStatusCompleted, &newer, fptr(0.8))
	seedCycle(t, repo, tenantID, types.CycleStatusRunning, nil, nil)
	seedCycle(t, repo, tenantID, types.CycleStatusFailed, nil, nil)

	got, err := repo.LatestCompleted(t.Context(), nil, tenantID)
	if err != nil {
		t.Fatalf("LatestCompleted: %v", err)
	}
	if got == nil || got.ID != latest.ID {
		t.Fatalf("latest completed = %v, want %s", got, latest.ID)
	}
}

func TestCycleRepoAverageMaturity(t *testing.T) {
	repo := NewValidationCycleRepo(testutil.NewDB(t), testutil.NewLogger())
	tenantID := uuid.New()

	avg, err := repo.AverageMaturity(t.Context(), nil, tenantID)
	if err != nil {
		t.Fatalf("AverageMaturity on empty tenant: %v", err)
	}
	if avg != nil {
		t.Fatalf("empty tenant average = %v, want nil", *avg)
	}

	now := time.Now()
	seedCycle(t, repo, tenantID, types.CycleStatusCompleted, &now, fptr(0.4))
	seedCycle(t, repo, tenantID, types.CycleStatusCompleted, &now, fptr(0.8))
	seedCycle(t, repo, tenantID, types.CycleStatusFailed, nil, nil)

	avg, err = repo.AverageMaturity(t.Context(), nil, tenantID)
	if err != nil {
		t.Fatalf("AverageMaturity: %v", err)
	}
	if avg == nil || *avg < 0.59 || *avg > 0.61 {
		t.Fatalf("average = %v, want 0.6", avg)
	}
}

func TestCycleRepoRequestCancelOnlyRunning(t *testing.T) {
	repo := NewValidationCycleRepo(testutil.NewDB(t), testutil.NewLogger())
	tenantID := uuid.New()
	now := time.Now()
	running := seedCycle(t, repo, tenantID, types.CycleStatusRunning, nil, nil)
	done := seedCycle(t, repo, tenantID, types.CycleStatusCompleted, &now, fptr(1.0))

	ok, err := repo.RequestCancel(t.Context(), nil, tenantID, running.ID)
	if err != nil || !ok {
		t.Fatalf("cancel running: ok=%v err=%v", ok, err)
	}
	ok, err = repo.RequestCancel(t.Context(), nil, tenantID, done.ID)
	if err != nil {
		t.Fatalf("cancel completed errored: %v", err)
	}
	if ok {
		t.Error("completed cycle must not accept a cancel")
	}
}
