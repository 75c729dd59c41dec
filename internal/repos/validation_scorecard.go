package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/archalign/validation-backend/internal/logger"
	"github.com/archalign/validation-backend/internal/types"
)

type ValidationScorecardRepo interface {
	Create(ctx context.Context, tx *gorm.DB, scorecards []*types.ValidationScorecard) ([]*types.ValidationScorecard, error)
	GetByCycle(ctx context.Context, tx *gorm.DB, tenantID, cycleID uuid.UUID) ([]*types.ValidationScorecard, error)
}

type validationScorecardRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewValidationScorecardRepo(db *gorm.DB, baseLog *logger.Logger) ValidationScorecardRepo {
	return &validationScorecardRepo{db: db, log: baseLog.With("repo", "ValidationScorecardRepo")}
}

func (r *validationScorecardRepo) Create(ctx context.Context, tx *gorm.DB, scorecards []*types.ValidationScorecard) ([]*types.ValidationScorecard, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(scorecards) == 0 {
		return []*types.ValidationScorecard{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&scorecards).Error; err != nil {
		return nil, err
	}
	return scorecards, nil
}

func (r *validationScorecardRepo) GetByCycle(ctx context.Context, tx *gorm.DB, tenantID, cycleID uuid.UUID) ([]*types.ValidationScorecard, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var scorecards []*types.ValidationScorecard
	if err := transaction.WithContext(ctx).
		Where("tenant_id = ? AND validation_cycle_id = ?", tenantID, cycleID).
		Order("layer ASC").
		Find(&scorecards).Error; err != nil {
		return nil, err
	}
	return scorecards, nil
}
