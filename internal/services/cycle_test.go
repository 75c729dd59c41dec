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

func TestCycleRunQueuesRunningCycle(t *testing.T) {
	db := newTestDB(t)
	log := newTestLogger()
	svc := NewCycleService(db, log, repos.NewValidationCycleRepo(db, log))
	tenantID := uuid.New()

	cycle, err := svc.Run(t.Context(), tenantID, "user:alice", nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if cycle.ExecutionStatus != types.CycleStatusRunning {
		t.Errorf("status = %q, want running", cycle.ExecutionStatus)
	}
	if cycle.TriggeredBy != "user:alice" {
		t.Errorf("triggered_by = %q", cycle.TriggeredBy)
	}
	if cycle.IsTerminal() {
		t.Error("queued cycle must not be terminal")
	}

	got, err := svc.Get(t.Context(), tenantID, cycle.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.ID != cycle.ID {
		t.Error("Get returned a different cycle")
	}

	if _, err := svc.Get(t.Context(), uuid.New(), cycle.ID); apierr.StatusOf(err) != 404 {
		t.Error("another tenant must not see the cycle")
	}
}

func TestCycleRunDefaultsTriggeredBy(t *testing.T) {
	db := newTestDB(t)
	log := newTestLogger()
	svc := NewCycleService(db, log, repos.NewValidationCycleRepo(db, log))

	cycle, err := svc.Run(t.Context(), uuid.New(), "", nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if cycle.TriggeredBy != types.TriggeredBySystem {
		t.Errorf("triggered_by = %q, want %q", cycle.TriggeredBy, types.TriggeredBySystem)
	}
}

func TestCycleRequestCancel(t *testing.T) {
	db := newTestDB(t)
	log := newTestLogger()
	cycleRepo := repos.NewValidationCycleRepo(db, log)
	svc := NewCycleService(db, log, cycleRepo)
	tenantID := uuid.New()

	cycle, err := svc.Run(t.Context(), tenantID, "user:alice", nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if err := svc.RequestCancel(t.Context(), tenantID, cycle.ID); err != nil {
		t.Fatalf("RequestCancel failed: %v", err)
	}
	requested, err := cycleRepo.CancelRequested(t.Context(), nil, cycle.ID)
	if err != nil {
		t.Fatalf("CancelRequested failed: %v", err)
	}
	if !requested {
		t.Error("cancel flag not set")
	}

	if err := svc.RequestCancel(t.Context(), uuid.New(), cycle.ID); apierr.StatusOf(err) != 404 {
		t.Error("another tenant must not cancel the cycle")
	}
	if err := svc.RequestCancel(t.Context(), tenantID, uuid.New()); apierr.StatusOf(err) != 404 {
		t.Error("cancelling an unknown cycle should 404")
	}
}

func TestCycleRequestCancelTerminalIsNoop(t *testing.T) {
	db := newTestDB(t)
	log := newTestLogger()
	cycleRepo := repos.NewValidationCycleRepo(db, log)
	svc := NewCycleService(db, log, cycleRepo)
	tenantID := uuid.New()

	cycle, err := svc.Run(t.Context(), tenantID, "user:alice", nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if err := cycleRepo.UpdateFields(t.Context(), nil, cycle.ID, map[string]interface{}{
		"execution_status": types.CycleStatusCompleted,
		"completed_at":     time.Now(),
	}); err != nil {
		t.Fatalf("mark completed: %v", err)
	}

	if err := svc.RequestCancel(t.Context(), tenantID, cycle.ID); err != nil {
		t.Fatalf("cancel of a terminal cycle should be a no-op, got %v", err)
	}
	requested, err := cycleRepo.CancelRequested(t.Context(), nil, cycle.ID)
	if err != nil {
		t.Fatalf("CancelRequested failed: %v", err)
	}
	if requested {
		t.Error("terminal cycle must not be flagged for cancel")
	}
}

func TestCycleHistory(t *testing.T) {
	db := newTestDB(t)
	log := newTestLogger()
	cycleRepo := repos.NewValidationCycleRepo(db, log)
	svc := NewCycleService(db, log, cycleRepo)
	tenantID := uuid.New()

	scores := []float64{0.5, 1.0}
	for i, score := range scores {
		s := score
		now := time.Now().Add(time.Duration(i) * time.Second)
		cycle := &types.ValidationCycle{
			ID:              uuid.New(),
			TenantID:        tenantID,
			StartedAt:       now,
			CompletedAt:     &now,
			TriggeredBy:     types.TriggeredBySystem,
			ExecutionStatus: types.CycleStatusCompleted,
			MaturityScore:   &s,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if _, err := cycleRepo.Create(t.Context(), nil, []*types.ValidationCycle{cycle}); err != nil {
			t.Fatalf("seed cycle: %v", err)
		}
	}
	if _, err := svc.Run(t.Context(), tenantID, "user:alice", nil); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	history, err := svc.History(t.Context(), tenantID, 0, 10)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if history.Total != 3 {
		t.Errorf("total = %d, want 3", history.Total)
	}
	if history.AverageMaturity == nil {
		t.Fatal("average maturity missing")
	}
	// Only completed cycles carry a maturity score.
	if math.Abs(*history.AverageMaturity-0.75) > 1e-9 {
		t.Errorf("average maturity = %v, want 0.75", *history.AverageMaturity)
	}
}
