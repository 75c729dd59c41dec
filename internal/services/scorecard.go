package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/archalign/validation-backend/internal/apierr"
	"github.com/archalign/validation-backend/internal/logger"
	"github.com/archalign/validation-backend/internal/repos"
	"github.com/archalign/validation-backend/internal/types"
)

// Severity weights feed the per-dimension deduction; overall is the
// unweighted mean of the three dimensions, and a tenant's maturity is the
// mean of per-layer overall across layers that have elements. A tenant with
// no elements scores a maturity of 1.0.

type ScorecardResponse struct {
	CycleID       uuid.UUID                    `json:"cycle_id"`
	TenantID      uuid.UUID                    `json:"tenant_id"`
	CompletedAt   *time.Time                   `json:"completed_at,omitempty"`
	MaturityScore *float64                     `json:"maturity_score,omitempty"`
	Layers        []*types.ValidationScorecard `json:"layers"`
}

type ScorecardService interface {
	Get(ctx context.Context, tenantID uuid.UUID, cycleID *uuid.UUID) (*ScorecardResponse, error)
	// Build computes the per-layer scorecards for a finished evaluation.
	// Pure aggregation; persistence belongs to the cycle runner.
	Build(tenantID, cycleID uuid.UUID, elements []*types.ArchitectureElement, issues []*types.ValidationIssue, ruleTypeOf func(ruleID uuid.UUID) string) ([]*types.ValidationScorecard, float64)
}

type scorecardService struct {
	db            *gorm.DB
	log           *logger.Logger
	cycleRepo     repos.ValidationCycleRepo
	scorecardRepo repos.ValidationScorecardRepo
}

func NewScorecardService(db *gorm.DB, log *logger.Logger, cycleRepo repos.ValidationCycleRepo, scorecardRepo repos.ValidationScorecardRepo) ScorecardService {
	return &scorecardService{
		db:            db,
		log:           log.With("service", "ScorecardService"),
		cycleRepo:     cycleRepo,
		scorecardRepo: scorecardRepo,
	}
}

func (ss *scorecardService) Get(ctx context.Context, tenantID uuid.UUID, cycleID *uuid.UUID) (*ScorecardResponse, error) {
	var cycle *types.ValidationCycle
	var err error
	if cycleID != nil {
		cycle, err = ss.cycleRepo.GetByID(ctx, nil, tenantID, *cycleID)
	} else {
		cycle, err = ss.cycleRepo.LatestCompleted(ctx, nil, tenantID)
	}
	if err != nil {
		return nil, err
	}
	if cycle == nil {
		return nil, apierr.NotFound(fmt.Errorf("no completed validation cycle found"))
	}
	if cycle.ExecutionStatus != types.CycleStatusCompleted {
		return nil, apierr.New(http.StatusNotFound, "not_found", fmt.Errorf("cycle %s has not completed", cycle.ID))
	}
	layers, err := ss.scorecardRepo.GetByCycle(ctx, nil, tenantID, cycle.ID)
	if err != nil {
		return nil, err
	}
	return &ScorecardResponse{
		CycleID:       cycle.ID,
		TenantID:      tenantID,
		CompletedAt:   cycle.CompletedAt,
		MaturityScore: cycle.MaturityScore,
		Layers:        layers,
	}, nil
}

func (ss *scorecardService) Build(tenantID, cycleID uuid.UUID, elements []*types.ArchitectureElement, issues []*types.ValidationIssue, ruleTypeOf func(ruleID uuid.UUID) string) ([]*types.ValidationScorecard, float64) {
	elementCount := map[string]int{}
	for _, el := range elements {
		elementCount[el.Layer]++
	}

	type layerLoad struct {
		completeness float64
		traceability float64
		alignment    float64
		bySeverity   map[string]int
	}
	loads := map[string]*layerLoad{}
	for _, issue := range issues {
		if issue.IsResolved {
			// Suppressed candidates do not count against the score.
			continue
		}
		load, ok := loads[issue.Layer]
		if !ok {
			load = &layerLoad{bySeverity: map[string]int{}}
			loads[issue.Layer] = load
		}
		load.bySeverity[issue.Severity]++
		weight := types.SeverityWeight(issue.Severity)
		ruleType := ""
		if issue.RuleID != nil && ruleTypeOf != nil {
			ruleType = ruleTypeOf(*issue.RuleID)
		}
		switch ruleType {
		case types.RuleTypeTraceability:
			load.traceability += weight
		case types.RuleTypeAlignment:
			load.alignment += weight
		default:
			load.completeness += weight
		}
	}

	var scorecards []*types.ValidationScorecard
	var maturitySum float64
	var maturityLayers int
	for _, layer := range types.Layers {
		count := elementCount[layer]
		if count == 0 {
			continue
		}
		load := loads[layer]
		if load == nil {
			load = &layerLoad{bySeverity: map[string]int{}}
		}
		completeness := dimensionScore(load.completeness, count)
		traceability := dimensionScore(load.traceability, count)
		alignment := dimensionScore(load.alignment, count)
		overall := (completeness + traceability + alignment) / 3.0
		scorecards = append(scorecards, &types.ValidationScorecard{
			ID:                 uuid.New(),
			TenantID:           tenantID,
			ValidationCycleID:  cycleID,
			Layer:              layer,
			CompletenessScore:  completeness,
			TraceabilityScore:  traceability,
			AlignmentScore:     alignment,
			OverallScore:       overall,
			LowIssueCount:      load.bySeverity[types.SeverityLow],
			MediumIssueCount:   load.bySeverity[types.SeverityMedium],
			HighIssueCount:     load.bySeverity[types.SeverityHigh],
			CriticalIssueCount: load.bySeverity[types.SeverityCritical],
			ElementCount:       count,
		})
		maturitySum += overall
		maturityLayers++
	}

	maturity := 1.0
	if maturityLayers > 0 {
		maturity = maturitySum / float64(maturityLayers)
	}
	return scorecards, maturity
}

func dimensionScore(weightedLoad float64, elementCount int) float64 {
	if elementCount <= 0 {
		return 1.0
	}
	penalty := weightedLoad / float64(elementCount)
	if penalty > 1.0 {
		penalty = 1.0
	}
	return 1.0 - penalty
}
