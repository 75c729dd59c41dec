package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/archalign/validation-backend/internal/apierr"
	"github.com/archalign/validation-backend/internal/logger"
	"github.com/archalign/validation-backend/internal/repos"
	"github.com/archalign/validation-backend/internal/rules"
	"github.com/archalign/validation-backend/internal/types"
)

type CreateRuleInput struct {
	Name        string          `json:"name"`
	RuleType    string          `json:"rule_type"`
	Scope       string          `json:"scope"`
	Severity    string          `json:"severity"`
	Description string          `json:"description"`
	RuleLogic   json.RawMessage `json:"rule_logic"`
}

type RuleService interface {
	List(ctx context.Context) ([]*types.ValidationRule, error)
	Create(ctx context.Context, input *CreateRuleInput) (*types.ValidationRule, error)
	Toggle(ctx context.Context, ruleID uuid.UUID, isActive bool) (*types.ValidationRule, error)
	SeedDefaults(ctx context.Context) (int, error)
}

type ruleService struct {
	db       *gorm.DB
	log      *logger.Logger
	ruleRepo repos.ValidationRuleRepo
}

func NewRuleService(db *gorm.DB, log *logger.Logger, ruleRepo repos.ValidationRuleRepo) RuleService {
	return &ruleService{
		db:       db,
		log:      log.With("service", "RuleService"),
		ruleRepo: ruleRepo,
	}
}

func (rs *ruleService) List(ctx context.Context) ([]*types.ValidationRule, error) {
	return rs.ruleRepo.List(ctx, nil)
}

func (rs *ruleService) Create(ctx context.Context, input *CreateRuleInput) (*types.ValidationRule, error) {
	if input.Name == "" {
		return nil, apierr.Unprocessable(fmt.Errorf("name is required"))
	}
	if !types.ValidRuleType(input.RuleType) {
		return nil, apierr.Unprocessable(fmt.Errorf("rule_type must be traceability, completeness or alignment"))
	}
	if !types.ValidLayer(input.Scope) {
		return nil, apierr.Unprocessable(fmt.Errorf("scope must be a known architecture layer"))
	}
	if !types.ValidSeverity(input.Severity) {
		return nil, apierr.Unprocessable(fmt.Errorf("severity must be low, medium, high or critical"))
	}
	if _, err := rules.Parse(input.RuleLogic); err != nil {
		return nil, apierr.Unprocessable(fmt.Errorf("rule_logic: %w", err))
	}
	existing, err := rs.ruleRepo.ExistingNames(ctx, nil, []string{input.Name})
	if err != nil {
		return nil, err
	}
	if existing[input.Name] {
		return nil, apierr.Unprocessable(fmt.Errorf("rule name %q already exists", input.Name))
	}

	rule := &types.ValidationRule{
		ID:          uuid.New(),
		Name:        input.Name,
		RuleType:    input.RuleType,
		Scope:       input.Scope,
		Severity:    input.Severity,
		Description: input.Description,
		RuleLogic:   datatypes.JSON(input.RuleLogic),
		IsActive:    true,
	}
	if _, err := rs.ruleRepo.Create(ctx, nil, []*types.ValidationRule{rule}); err != nil {
		return nil, err
	}
	return rule, nil
}

func (rs *ruleService) Toggle(ctx context.Context, ruleID uuid.UUID, isActive bool) (*types.ValidationRule, error) {
	updated, err := rs.ruleRepo.SetActive(ctx, nil, ruleID, isActive)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, apierr.NotFound(fmt.Errorf("validation rule %s not found", ruleID))
	}
	return rs.ruleRepo.GetByID(ctx, nil, ruleID)
}

// SeedDefaults inserts catalog rules whose names are not yet present.
// Existing rows are never touched, so toggles and edits survive restarts.
func (rs *ruleService) SeedDefaults(ctx context.Context) (int, error) {
	catalog, err := rules.DefaultCatalog()
	if err != nil {
		return 0, err
	}
	names := make([]string, 0, len(catalog))
	for _, rule := range catalog {
		names = append(names, rule.Name)
	}
	existing, err := rs.ruleRepo.ExistingNames(ctx, nil, names)
	if err != nil {
		return 0, err
	}
	var missing []*types.ValidationRule
	for _, rule := range catalog {
		if existing[rule.Name] {
			continue
		}
		rule.ID = uuid.New()
		missing = append(missing, rule)
	}
	if len(missing) == 0 {
		return 0, nil
	}
	if _, err := rs.ruleRepo.Create(ctx, nil, missing); err != nil {
		return 0, err
	}
	rs.log.Info("Seeded default validation rules", "count", len(missing))
	return len(missing), nil
}
