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

// ErrCrossTenant is returned when an upsert names an id that already belongs
// to another tenant.
var ErrCrossTenant = errors.New("id belongs to another tenant")

type ArchitectureElementRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, elements []*types.ArchitectureElement) ([]*types.ArchitectureElement, error)
	ListByTenant(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) ([]*types.ArchitectureElement, error)
	CountByTenant(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) (int64, error)
}

type architectureElementRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewArchitectureElementRepo(db *gorm.DB, baseLog *logger.Logger) ArchitectureElementRepo {
	return &architectureElementRepo{db: db, log: baseLog.With("repo", "ArchitectureElementRepo")}
}

// Upsert rejects ids already owned by another tenant, and the conflict
// update is additionally guarded on tenant_id so a racing insert can never
// rewrite a foreign row.
func (r *architectureElementRepo) Upsert(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, elements []*types.ArchitectureElement) ([]*types.ArchitectureElement, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(elements) == 0 {
		return []*types.ArchitectureElement{}, nil
	}
	ids := make([]uuid.UUID, 0, len(elements))
	now := time.Now()
	for _, el := range elements {
		el.UpdatedAt = now
		ids = append(ids, el.ID)
	}
	var foreign int64
	if err := transaction.WithContext(ctx).
		Model(&types.ArchitectureElement{}).
		Where("id IN ? AND tenant_id <> ?", ids, tenantID).
		Count(&foreign).Error; err != nil {
		return nil, err
	}
	if foreign > 0 {
		return nil, ErrCrossTenant
	}
	if err := transaction.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"entity_type", "layer", "name", "attributes", "updated_at"}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "architecture_element.tenant_id = ?", Vars: []interface{}{tenantID}},
		}},
	}).Create(&elements).Error; err != nil {
		return nil, err
	}
	return elements, nil
}

func (r *architectureElementRepo) ListByTenant(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) ([]*types.ArchitectureElement, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var elements []*types.ArchitectureElement
	if err := transaction.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Find(&elements).Error; err != nil {
		return nil, err
	}
	return elements, nil
}

func (r *architectureElementRepo) CountByTenant(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.ArchitectureElement{}).
		Where("tenant_id = ?", tenantID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
