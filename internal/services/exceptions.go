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

type CreateExceptionInput struct {
	EntityType string     `json:"entity_type"`
	EntityID   uuid.UUID  `json:"entity_id"`
	RuleID     *uuid.UUID `json:"rule_id,omitempty"`
	Reason     string     `json:"reason"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

type ExceptionService interface {
	Create(ctx context.Context, tenantID uuid.UUID, createdBy string, input *CreateExceptionInput) (*types.ValidationException, error)
	List(ctx context.Context, tenantID uuid.UUID) ([]*types.ValidationException, error)
}

type exceptionService struct {
	db            *gorm.DB
	log           *logger.Logger
	exceptionRepo repos.ValidationExceptionRepo
	ruleRepo      repos.ValidationRuleRepo
	issueRepo     repos.ValidationIssueRepo
}

func NewExceptionService(db *gorm.DB, log *logger.Logger, exceptionRepo repos.ValidationExceptionRepo, ruleRepo repos.ValidationRuleRepo, issueRepo repos.ValidationIssueRepo) ExceptionService {
	return &exceptionService{
		db:            db,
		log:           log.With("service", "ExceptionService"),
		exceptionRepo: exceptionRepo,
		ruleRepo:      ruleRepo,
		issueRepo:     issueRepo,
	}
}

func (es *exceptionService) Create(ctx context.Context, tenantID uuid.UUID, createdBy string, input *CreateExceptionInput) (*types.ValidationException, error) {
	if input.EntityType == "" {
		return nil, apierr.Unprocessable(fmt.Errorf("entity_type is required"))
	}
	if input.EntityID == uuid.Nil {
		return nil, apierr.Unprocessable(fmt.Errorf("entity_id is required"))
	}
	if input.Reason == "" {
		return nil, apierr.Unprocessable(fmt.Errorf("reason is required"))
	}
	if input.ExpiresAt != nil && !input.ExpiresAt.After(time.Now()) {
		return nil, apierr.Unprocessable(fmt.Errorf("expires_at must be in the future"))
	}
	if input.RuleID != nil {
		rule, err := es.ruleRepo.GetByID(ctx, nil, *input.RuleID)
		if err != nil {
			return nil, err
		}
		if rule == nil {
			return nil, apierr.NotFound(fmt.Errorf("validation rule %s not found", *input.RuleID))
		}
	}

	exception := &types.ValidationException{
		ID:         uuid.New(),
		TenantID:   tenantID,
		EntityType: input.EntityType,
		EntityID:   input.EntityID,
		RuleID:     input.RuleID,
		Reason:     input.Reason,
		CreatedBy:  createdBy,
		ExpiresAt:  input.ExpiresAt,
		IsActive:   true,
	}

	err := es.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := es.exceptionRepo.Create(ctx, tx, []*types.ValidationException{exception}); err != nil {
			return err
		}
		// An entity-wide exception retroactively resolves the entity's open
		// issues; a rule-scoped one leaves other rules' findings alone and
		// takes effect on the next cycle.
		if input.RuleID == nil {
			resolved, err := es.issueRepo.ResolveForEntities(ctx, tx, tenantID, input.EntityType, []uuid.UUID{input.EntityID}, types.SystemExceptionResolver)
			if err != nil {
				return err
			}
			if resolved > 0 {
				es.log.Info("Exception resolved open issues", "exception_id", exception.ID, "resolved", resolved)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return exception, nil
}

func (es *exceptionService) List(ctx context.Context, tenantID uuid.UUID) ([]*types.ValidationException, error) {
	return es.exceptionRepo.ListByTenant(ctx, nil, tenantID)
}
