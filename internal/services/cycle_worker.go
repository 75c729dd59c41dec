package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/archalign/validation-backend/internal/logger"
	"github.com/archalign/validation-backend/internal/repos"
	"github.com/archalign/validation-backend/internal/types"
)

// CycleMetrics is implemented by the observability registry. Nil is fine.
type CycleMetrics interface {
	CycleFinished(status string, issues int)
}

type CycleWorkerConfig struct {
	PollInterval time.Duration
	StaleRunning time.Duration
}

// CycleWorker drains queued validation cycles. One claim per tick; claims
// use SKIP LOCKED so multiple replicas cooperate without double-running a
// cycle. A panic inside evaluation marks the cycle failed rather than
// killing the worker.
type CycleWorker struct {
	db               *gorm.DB
	log              *logger.Logger
	cfg              CycleWorkerConfig
	cycleRepo        repos.ValidationCycleRepo
	ruleRepo         repos.ValidationRuleRepo
	issueRepo        repos.ValidationIssueRepo
	elementRepo      repos.ArchitectureElementRepo
	relationshipRepo repos.ElementRelationshipRepo
	exceptionRepo    repos.ValidationExceptionRepo
	scorecardRepo    repos.ValidationScorecardRepo
	evaluator        EvaluatorService
	scorecards       ScorecardService
	matrix           MatrixService
	metrics          CycleMetrics
}

func NewCycleWorker(
	db *gorm.DB,
	baseLog *logger.Logger,
	cfg CycleWorkerConfig,
	cycleRepo repos.ValidationCycleRepo,
	ruleRepo repos.ValidationRuleRepo,
	issueRepo repos.ValidationIssueRepo,
	elementRepo repos.ArchitectureElementRepo,
	relationshipRepo repos.ElementRelationshipRepo,
	exceptionRepo repos.ValidationExceptionRepo,
	scorecardRepo repos.ValidationScorecardRepo,
	evaluator EvaluatorService,
	scorecards ScorecardService,
	matrix MatrixService,
	metrics CycleMetrics,
) *CycleWorker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.StaleRunning <= 0 {
		cfg.StaleRunning = 5 * time.Minute
	}
	return &CycleWorker{
		db:               db,
		log:              baseLog.With("component", "CycleWorker"),
		cfg:              cfg,
		cycleRepo:        cycleRepo,
		ruleRepo:         ruleRepo,
		issueRepo:        issueRepo,
		elementRepo:      elementRepo,
		relationshipRepo: relationshipRepo,
		exceptionRepo:    exceptionRepo,
		scorecardRepo:    scorecardRepo,
		evaluator:        evaluator,
		scorecards:       scorecards,
		matrix:           matrix,
		metrics:          metrics,
	}
}

func (w *CycleWorker) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(w.cfg.PollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cycle, err := w.cycleRepo.ClaimNextRunnable(ctx, nil, w.cfg.StaleRunning)
				if err != nil {
					w.log.Warn("ClaimNextRunnable failed", "error", err)
					continue
				}
				if cycle == nil {
					continue
				}
				w.execute(ctx, cycle)
			}
		}
	}()
}

func (w *CycleWorker) execute(ctx context.Context, cycle *types.ValidationCycle) {
	log := w.log.With("cycle_id", cycle.ID, "tenant_id", cycle.TenantID)
	defer func() {
		if r := recover(); r != nil {
			log.Error("Cycle evaluation panicked", "panic", r)
			w.finish(ctx, cycle, types.CycleStatusFailed, 0, nil, fmt.Sprintf("panic: %v", r))
		}
	}()

	if cancelled, _ := w.cycleRepo.CancelRequested(ctx, nil, cycle.ID); cancelled {
		w.finish(ctx, cycle, types.CycleStatusCancelled, 0, nil, "")
		return
	}

	elementCount, err := w.elementRepo.CountByTenant(ctx, nil, cycle.TenantID)
	if err != nil {
		w.finish(ctx, cycle, types.CycleStatusFailed, 0, nil, "failed to count architecture elements")
		return
	}
	if elementCount == 0 {
		// Nothing to validate; skip loading the rule set entirely.
		maturity := 1.0
		w.finish(ctx, cycle, types.CycleStatusCompleted, 0, &maturity, "")
		log.Info("Validation cycle completed", "issues_found", 0, "maturity_score", maturity)
		return
	}

	activeRules, err := w.ruleRepo.ListActive(ctx, nil)
	if err != nil {
		w.finish(ctx, cycle, types.CycleStatusFailed, 0, nil, "failed to load rule set")
		return
	}
	elements, err := w.elementRepo.ListByTenant(ctx, nil, cycle.TenantID)
	if err != nil {
		w.finish(ctx, cycle, types.CycleStatusFailed, 0, nil, "failed to load architecture elements")
		return
	}
	relationships, err := w.relationshipRepo.ListByTenant(ctx, nil, cycle.TenantID)
	if err != nil {
		w.finish(ctx, cycle, types.CycleStatusFailed, 0, nil, "failed to load relationships")
		return
	}
	exceptions, err := w.exceptionRepo.ListActiveByTenant(ctx, nil, cycle.TenantID)
	if err != nil {
		w.finish(ctx, cycle, types.CycleStatusFailed, 0, nil, "failed to load exceptions")
		return
	}

	result, err := w.evaluator.Evaluate(ctx, &EvaluationInput{
		TenantID:      cycle.TenantID,
		CycleID:       cycle.ID,
		Rules:         activeRules,
		Elements:      elements,
		Relationships: relationships,
		Exceptions:    exceptions,
		Now:           time.Now(),
	})
	if err != nil {
		if ctx.Err() != nil {
			w.finish(context.WithoutCancel(ctx), cycle, types.CycleStatusCancelled, 0, nil, "")
			return
		}
		log.Error("Evaluation failed", "error", err)
		w.finish(ctx, cycle, types.CycleStatusFailed, 0, nil, "rule evaluation failed")
		return
	}

	if cancelled, _ := w.cycleRepo.CancelRequested(ctx, nil, cycle.ID); cancelled {
		w.finish(ctx, cycle, types.CycleStatusCancelled, 0, nil, "")
		return
	}

	ruleTypeByID := make(map[uuid.UUID]string, len(activeRules))
	for _, rule := range activeRules {
		ruleTypeByID[rule.ID] = rule.RuleType
	}
	cards, maturity := w.scorecards.Build(cycle.TenantID, cycle.ID, elements, result.Issues, func(id uuid.UUID) string {
		return ruleTypeByID[id]
	})

	txErr := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := w.issueRepo.Create(ctx, tx, result.Issues); err != nil {
			return fmt.Errorf("persist issues: %w", err)
		}
		if _, err := w.scorecardRepo.Create(ctx, tx, cards); err != nil {
			return fmt.Errorf("persist scorecards: %w", err)
		}
		if err := w.matrix.Rebuild(ctx, tx, cycle.TenantID); err != nil {
			return fmt.Errorf("rebuild traceability matrix: %w", err)
		}
		return nil
	})
	if txErr != nil {
		log.Error("Cycle persistence failed", "error", txErr)
		w.finish(ctx, cycle, types.CycleStatusFailed, 0, nil, "failed to persist cycle results")
		return
	}

	w.finish(ctx, cycle, types.CycleStatusCompleted, result.Unsuppressed, &maturity, "")
	log.Info("Validation cycle completed",
		"issues_found", result.Unsuppressed,
		"suppressed", len(result.Issues)-result.Unsuppressed,
		"skipped_rules", result.SkippedRules,
		"maturity_score", maturity,
	)
}

func (w *CycleWorker) finish(ctx context.Context, cycle *types.ValidationCycle, status string, totalIssues int, maturity *float64, errMsg string) {
	now := time.Now()
	updates := map[string]interface{}{
		"execution_status":   status,
		"completed_at":       now,
		"total_issues_found": totalIssues,
	}
	if maturity != nil {
		updates["maturity_score"] = *maturity
	}
	if errMsg != "" {
		updates["error"] = errMsg
	}
	if err := w.cycleRepo.UpdateFields(ctx, nil, cycle.ID, updates); err != nil {
		w.log.Error("Failed to finalize cycle", "cycle_id", cycle.ID, "status", status, "error", err)
		return
	}
	if w.metrics != nil {
		w.metrics.CycleFinished(status, totalIssues)
	}
}
