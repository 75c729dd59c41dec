package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/archalign/validation-backend/internal/logger"
	"github.com/archalign/validation-backend/internal/types"
)

type ValidationCycleRepo interface {
	Create(ctx context.Context, tx *gorm.DB, cycles []*types.ValidationCycle) ([]*types.ValidationCycle, error)
	GetByID(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID) (*types.ValidationCycle, error)
	ListByTenant(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, skip, limit int) ([]*types.ValidationCycle, int64, error)
	LatestCompleted(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) (*types.ValidationCycle, error)
	AverageMaturity(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) (*float64, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	RequestCancel(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID) (bool, error)
	CancelRequested(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error)
	ClaimNextRunnable(ctx context.Context, tx *gorm.DB, staleRunning time.Duration) (*types.ValidationCycle, error)
}

type validationCycleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewValidationCycleRepo(db *gorm.DB, baseLog *logger.Logger) ValidationCycleRepo {
	return &validationCycleRepo{db: db, log: baseLog.With("repo", "ValidationCycleRepo")}
}

func (r *validationCycleRepo) Create(ctx context.Context, tx *gorm.DB, cycles []*types.ValidationCycle) ([]*types.ValidationCycle, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(cycles) == 0 {
		return []*types.ValidationCycle{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&cycles).Error; err != nil {
		return nil, err
	}
	return cycles, nil
}

func (r *validationCycleRepo) GetByID(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID) (*types.ValidationCycle, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var cycle types.ValidationCycle
	err := transaction.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&cycle).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cycle, nil
}

func (r *validationCycleRepo) ListByTenant(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, skip, limit int) ([]*types.ValidationCycle, int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var total int64
	if err := transaction.WithContext(ctx).
		Model(&types.ValidationCycle{}).
		Where("tenant_id = ?", tenantID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var cycles []*types.ValidationCycle
	if err := transaction.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("started_at DESC").
		Offset(skip).
		Limit(limit).
		Find(&cycles).Error; err != nil {
		return nil, 0, err
	}
	return cycles, total, nil
}

func (r *validationCycleRepo) LatestCompleted(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) (*types.ValidationCycle, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var cycle types.ValidationCycle
	err := transaction.WithContext(ctx).
		Where("tenant_id = ? AND execution_status = ?", tenantID, types.CycleStatusCompleted).
		Order("completed_at DESC").
		First(&cycle).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cycle, nil
}

func (r *validationCycleRepo) AverageMaturity(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) (*float64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var avg *float64
	err := transaction.WithContext(ctx).
		Model(&types.ValidationCycle{}).
		Select("AVG(maturity_score)").
		Where("tenant_id = ? AND execution_status = ?", tenantID, types.CycleStatusCompleted).
		Scan(&avg).Error
	if err != nil {
		return nil, err
	}
	return avg, nil
}

func (r *validationCycleRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now()
	return transaction.WithContext(ctx).
		Model(&types.ValidationCycle{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *validationCycleRepo) RequestCancel(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Model(&types.ValidationCycle{}).
		Where("id = ? AND tenant_id = ? AND execution_status = ?", id, tenantID, types.CycleStatusRunning).
		Updates(map[string]interface{}{"cancel_requested": true, "updated_at": time.Now()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *validationCycleRepo) CancelRequested(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var requested bool
	err := transaction.WithContext(ctx).
		Model(&types.ValidationCycle{}).
		Select("cancel_requested").
		Where("id = ?", id).
		Scan(&requested).Error
	if err != nil {
		return false, err
	}
	return requested, nil
}

// ClaimNextRunnable picks the oldest unclaimed running cycle and stamps its
// claim, using SKIP LOCKED so concurrent workers never double-claim. Cycles
// whose claim is older than staleRunning are treated as abandoned and
// reclaimed.
func (r *validationCycleRepo) ClaimNextRunnable(ctx context.Context, tx *gorm.DB, staleRunning time.Duration) (*types.ValidationCycle, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	now := time.Now()
	staleCutoff := now.Add(-staleRunning)
	var claimed *types.ValidationCycle
	err := transaction.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		var cycle types.ValidationCycle
		q := txx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where(`
				execution_status = ?
				AND (claimed_at IS NULL OR claimed_at < ?)
			`, types.CycleStatusRunning, staleCutoff).
			Order("created_at ASC")
		qErr := q.First(&cycle).Error
		if errors.Is(qErr, gorm.ErrRecordNotFound) {
			return nil
		}
		if qErr != nil {
			return qErr
		}
		uErr := txx.Model(&types.ValidationCycle{}).
			Where("id = ?", cycle.ID).
			Updates(map[string]interface{}{
				"claimed_at": now,
				"updated_at": now,
			}).Error
		if uErr != nil {
			return uErr
		}
		claimed = &cycle
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}
