package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/archalign/validation-backend/internal/apierr"
	"github.com/archalign/validation-backend/internal/logger"
	"github.com/archalign/validation-backend/internal/repos"
	"github.com/archalign/validation-backend/internal/types"
)

type CycleHistory struct {
	Cycles          []*types.ValidationCycle `json:"cycles"`
	Total           int64                    `json:"total"`
	AverageMaturity *float64                 `json:"average_maturity,omitempty"`
}

// CycleService owns the validation cycle lifecycle. Run is asynchronous: it
// inserts a running row and returns immediately; the worker picks the row up
// and drives it to a terminal state.
type CycleService interface {
	Run(ctx context.Context, tenantID uuid.UUID, triggeredBy string, ruleSetID *uuid.UUID) (*types.ValidationCycle, error)
	Get(ctx context.Context, tenantID, cycleID uuid.UUID) (*types.ValidationCycle, error)
	RequestCancel(ctx context.Context, tenantID, cycleID uuid.UUID) error
	History(ctx context.Context, tenantID uuid.UUID, skip, limit int) (*CycleHistory, error)
}

type cycleService struct {
	db        *gorm.DB
	log       *logger.Logger
	cycleRepo repos.ValidationCycleRepo
}

func NewCycleService(db *gorm.DB, log *logger.Logger, cycleRepo repos.ValidationCycleRepo) CycleService {
	return &cycleService{
		db:        db,
		log:       log.With("service", "CycleService"),
		cycleRepo: cycleRepo,
	}
}

func (cs *cycleService) Run(ctx context.Context, tenantID uuid.UUID, triggeredBy string, ruleSetID *uuid.UUID) (*types.ValidationCycle, error) {
	if triggeredBy == "" {
		triggeredBy = types.TriggeredBySystem
	}
	now := time.Now()
	cycle := &types.ValidationCycle{
		ID:              uuid.New(),
		TenantID:        tenantID,
		StartedAt:       now,
		TriggeredBy:     triggeredBy,
		RuleSetID:       ruleSetID,
		ExecutionStatus: types.CycleStatusRunning,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	created, err := cs.cycleRepo.Create(ctx, nil, []*types.ValidationCycle{cycle})
	if err != nil {
		return nil, fmt.Errorf("create validation cycle: %w", err)
	}
	cs.log.Info("Validation cycle queued", "cycle_id", cycle.ID, "tenant_id", tenantID, "triggered_by", triggeredBy)
	return created[0], nil
}

func (cs *cycleService) Get(ctx context.Context, tenantID, cycleID uuid.UUID) (*types.ValidationCycle, error) {
	cycle, err := cs.cycleRepo.GetByID(ctx, nil, tenantID, cycleID)
	if err != nil {
		return nil, err
	}
	if cycle == nil {
		return nil, apierr.NotFound(fmt.Errorf("validation cycle %s not found", cycleID))
	}
	return cycle, nil
}

func (cs *cycleService) RequestCancel(ctx context.Context, tenantID, cycleID uuid.UUID) error {
	requested, err := cs.cycleRepo.RequestCancel(ctx, nil, tenantID, cycleID)
	if err != nil {
		return err
	}
	if !requested {
		cycle, gErr := cs.cycleRepo.GetByID(ctx, nil, tenantID, cycleID)
		if gErr != nil {
			return gErr
		}
		if cycle == nil {
			return apierr.NotFound(fmt.Errorf("validation cycle %s not found", cycleID))
		}
		// Terminal cycles cannot be cancelled; treat as a no-op.
		cs.log.Debug("Cancel requested for terminal cycle", "cycle_id", cycleID, "status", cycle.ExecutionStatus)
	}
	return nil
}

func (cs *cycleService) History(ctx context.Context, tenantID uuid.UUID, skip, limit int) (*CycleHistory, error) {
	cycles, total, err := cs.cycleRepo.ListByTenant(ctx, nil, tenantID, skip, limit)
	if err != nil {
		return nil, err
	}
	avg, err := cs.cycleRepo.AverageMaturity(ctx, nil, tenantID)
	if err != nil {
		return nil, err
	}
	return &CycleHistory{
		Cycles:          cycles,
		Total:           total,
		AverageMaturity: avg,
	}, nil
}
