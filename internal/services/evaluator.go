package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/archalign/validation-backend/internal/logger"
	"github.com/archalign/validation-backend/internal/rules"
	"github.com/archalign/validation-backend/internal/types"
)

// EvaluationInput is the full tenant snapshot one cycle evaluates against.
type EvaluationInput struct {
	TenantID      uuid.UUID
	CycleID       uuid.UUID
	Rules         []*types.ValidationRule
	Elements      []*types.ArchitectureElement
	Relationships []*types.ElementRelationship
	Exceptions    []*types.ValidationException
	Now           time.Time
}

type EvaluationResult struct {
	// Issues holds every candidate the rule set produced. Suppressed
	// candidates are persisted too, pre-resolved and tagged in metadata, so
	// exception usage stays auditable.
	Issues []*types.ValidationIssue
	// Unsuppressed is the count reported as total_issues_found.
	Unsuppressed int
	// SkippedRules counts rules whose rule_logic failed to parse. A bad rule
	// never fails the cycle; it is logged and skipped.
	SkippedRules int
}

type EvaluatorService interface {
	Evaluate(ctx context.Context, input *EvaluationInput) (*EvaluationResult, error)
}

type evaluatorService struct {
	log *logger.Logger
}

func NewEvaluatorService(log *logger.Logger) EvaluatorService {
	return &evaluatorService{log: log.With("service", "EvaluatorService")}
}

func (es *evaluatorService) Evaluate(ctx context.Context, input *EvaluationInput) (*EvaluationResult, error) {
	now := input.Now
	if now.IsZero() {
		now = time.Now()
	}

	layerOf := make(map[uuid.UUID]string, len(input.Elements))
	elementsByLayer := map[string][]*types.ArchitectureElement{}
	for _, el := range input.Elements {
		layerOf[el.ID] = el.Layer
		elementsByLayer[el.Layer] = append(elementsByLayer[el.Layer], el)
	}

	outgoing := map[uuid.UUID][]rules.Edge{}
	incoming := map[uuid.UUID][]rules.Edge{}
	for _, rel := range input.Relationships {
		outgoing[rel.SourceElementID] = append(outgoing[rel.SourceElementID], rules.Edge{Type: rel.RelationshipType, OtherID: rel.TargetElementID})
		incoming[rel.TargetElementID] = append(incoming[rel.TargetElementID], rules.Edge{Type: rel.RelationshipType, OtherID: rel.SourceElementID})
	}

	type parsedRule struct {
		rule  *types.ValidationRule
		logic *rules.Logic
	}
	rulesByLayer := map[string][]parsedRule{}
	skipped := 0
	for _, rule := range input.Rules {
		logic, err := rules.Parse(rule.RuleLogic)
		if err != nil {
			skipped++
			es.log.Warn("Skipping rule with malformed rule_logic", "rule_name", rule.Name, "error", err)
			continue
		}
		rulesByLayer[rule.Scope] = append(rulesByLayer[rule.Scope], parsedRule{rule: rule, logic: logic})
	}

	resolveLayer := func(id uuid.UUID) (string, bool) {
		layer, ok := layerOf[id]
		return layer, ok
	}

	var mu sync.Mutex
	var allIssues []*types.ValidationIssue

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(len(types.Layers))
	for _, layer := range types.Layers {
		layerRules := rulesByLayer[layer]
		layerElements := elementsByLayer[layer]
		if len(layerRules) == 0 || len(layerElements) == 0 {
			continue
		}
		g.Go(func() error {
			var layerIssues []*types.ValidationIssue
			for _, pr := range layerRules {
				if err := gctx.Err(); err != nil {
					return err
				}
				for _, el := range layerElements {
					if pr.logic.EntityType != "" && pr.logic.EntityType != el.EntityType {
						continue
					}
					subject := &rules.Subject{
						Element:  el,
						Outgoing: outgoing[el.ID],
						Incoming: incoming[el.ID],
						LayerOf:  resolveLayer,
						Now:      now,
					}
					ok, leaf := pr.logic.Eval(subject)
					if ok {
						continue
					}
					layerIssues = append(layerIssues, es.buildIssue(input, pr.rule, el, leaf, now))
				}
			}
			mu.Lock()
			allIssues = append(allIssues, layerIssues...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	unsuppressed := 0
	for _, issue := range allIssues {
		if suppressedBy(issue, input.Exceptions, now) {
			issue.IsResolved = true
			resolvedAt := now
			issue.ResolvedAt = &resolvedAt
			issue.ResolvedBy = types.SystemExceptionResolver
			if issue.Metadata == nil {
				issue.Metadata = map[string]interface{}{}
			}
			issue.Metadata["suppressed"] = true
			continue
		}
		unsuppressed++
	}

	return &EvaluationResult{
		Issues:       allIssues,
		Unsuppressed: unsuppressed,
		SkippedRules: skipped,
	}, nil
}

func (es *evaluatorService) buildIssue(input *EvaluationInput, rule *types.ValidationRule, el *types.ArchitectureElement, leaf *rules.Node, now time.Time) *types.ValidationIssue {
	ruleID := rule.ID
	cycleID := input.CycleID
	return &types.ValidationIssue{
		ID:                uuid.New(),
		TenantID:          input.TenantID,
		ValidationCycleID: &cycleID,
		RuleID:            &ruleID,
		EntityType:        el.EntityType,
		EntityID:          el.ID,
		Layer:             el.Layer,
		IssueType:         rules.FailureIssueType(leaf, rule.RuleType),
		Severity:          rule.Severity,
		Description:       rules.FailureDescription(leaf, rule.Name),
		RecommendedFix:    rule.Description,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func suppressedBy(issue *types.ValidationIssue, exceptions []*types.ValidationException, now time.Time) bool {
	for _, exc := range exceptions {
		if !exc.EffectiveAt(now) {
			continue
		}
		if exc.Matches(issue.EntityType, issue.EntityID, issue.RuleID) {
			return true
		}
	}
	return false
}
