package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/archalign/validation-backend/internal/logger"
	"github.com/archalign/validation-backend/internal/types"
)

type ValidationExceptionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, exceptions []*types.ValidationException) ([]*types.ValidationException, error)
	ListByTenant(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) ([]*types.ValidationException, error)
	ListActiveByTenant(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) ([]*types.ValidationException, error)
}

type validationExceptionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewValidationExceptionRepo(db *gorm.DB, baseLog *logger.Logger) ValidationExceptionRepo {
	return &validationExceptionRepo{db: db, log: baseLog.With("repo", "ValidationExceptionRepo")}
}

func (r *validationExceptionRepo) Create(ctx context.Context, tx *gorm.DB, exceptions []*types.ValidationException) ([]*types.ValidationException, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(exceptions) == 0 {
		return []*types.ValidationException{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&exceptions).Error; err != nil {
		return nil, err
	}
	return exceptions, nil
}

func (r *validationExceptionRepo) ListByTenant(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) ([]*types.ValidationException, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var exceptions []*types.ValidationException
	if err := transaction.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Find(&exceptions).Error; err != nil {
		return nil, err
	}
	return exceptions, nil
}

// ListActiveByTenant filters on the stored flag only; expiry is evaluated
// in memory by EffectiveAt so the lapse rule lives in exactly one place.
func (r *validationExceptionRepo) ListActiveByTenant(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) ([]*types.ValidationException, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var exceptions []*types.ValidationException
	if err := transaction.WithContext(ctx).
		Where("tenant_id = ? AND is_active = ?", tenantID, true).
		Find(&exceptions).Error; err != nil {
		return nil, err
	}
	return exceptions, nil
}
