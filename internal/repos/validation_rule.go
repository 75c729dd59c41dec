package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/archalign/validation-backend/internal/logger"
	"github.com/archalign/validation-backend/internal/types"
)

type ValidationRuleRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rules []*types.ValidationRule) ([]*types.ValidationRule, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ValidationRule, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.ValidationRule, error)
	ListActive(ctx context.Context, tx *gorm.DB) ([]*types.ValidationRule, error)
	ExistingNames(ctx context.Context, tx *gorm.DB, names []string) (map[string]bool, error)
	SetActive(ctx context.Context, tx *gorm.DB, id uuid.UUID, isActive bool) (bool, error)
}

type validationRuleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewValidationRuleRepo(db *gorm.DB, baseLog *logger.Logger) ValidationRuleRepo {
	return &validationRuleRepo{db: db, log: baseLog.With("repo", "ValidationRuleRepo")}
}

func (r *validationRuleRepo) Create(ctx context.Context, tx *gorm.DB, rules []*types.ValidationRule) ([]*types.ValidationRule, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rules) == 0 {
		return []*types.ValidationRule{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *validationRuleRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ValidationRule, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rule types.ValidationRule
	err := transaction.WithContext(ctx).Where("id = ?", id).First(&rule).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *validationRuleRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.ValidationRule, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rules []*types.ValidationRule
	if err := transaction.WithContext(ctx).
		Order("name ASC").
		Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *validationRuleRepo) ListActive(ctx context.Context, tx *gorm.DB) ([]*types.ValidationRule, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rules []*types.ValidationRule
	if err := transaction.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *validationRuleRepo) ExistingNames(ctx context.Context, tx *gorm.DB, names []string) (map[string]bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	out := map[string]bool{}
	if len(names) == 0 {
		return out, nil
	}
	var found []string
	if err := transaction.WithContext(ctx).
		Model(&types.ValidationRule{}).
		Where("name IN ?", names).
		Pluck("name", &found).Error; err != nil {
		return nil, err
	}
	for _, n := range found {
		out[n] = true
	}
	return out, nil
}

func (r *validationRuleRepo) SetActive(ctx context.Context, tx *gorm.DB, id uuid.UUID, isActive bool) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Model(&types.ValidationRule{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"is_active": isActive, "updated_at": time.Now()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
