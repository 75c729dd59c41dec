package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/archalign/validation-backend/internal/logger"
	"github.com/archalign/validation-backend/internal/types"
)

type TraceabilityMatrixRepo interface {
	ReplaceForTenant(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, cells []*types.TraceabilityMatrix) error
	ListByTenant(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, sourceLayer, targetLayer string) ([]*types.TraceabilityMatrix, error)
}

type traceabilityMatrixRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTraceabilityMatrixRepo(db *gorm.DB, baseLog *logger.Logger) TraceabilityMatrixRepo {
	return &traceabilityMatrixRepo{db: db, log: baseLog.With("repo", "TraceabilityMatrixRepo")}
}

// ReplaceForTenant overwrites the tenant's matrix in one transaction. The
// matrix is a snapshot, not a history: stale cells are removed rather than
// left behind.
func (r *traceabilityMatrixRepo) ReplaceForTenant(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, cells []*types.TraceabilityMatrix) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		if err := txx.
			Where("tenant_id = ?", tenantID).
			Delete(&types.TraceabilityMatrix{}).Error; err != nil {
			return err
		}
		if len(cells) == 0 {
			return nil
		}
		now := time.Now()
		for _, cell := range cells {
			cell.TenantID = tenantID
			cell.UpdatedAt = now
		}
		return txx.Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "tenant_id"},
				{Name: "source_layer"},
				{Name: "target_layer"},
				{Name: "source_entity_type"},
				{Name: "target_entity_type"},
				{Name: "relationship_type"},
			},
			DoUpdates: clause.AssignmentColumns([]string{"connection_count", "missing_connections", "strength_score", "updated_at"}),
		}).Create(&cells).Error
	})
}

func (r *traceabilityMatrixRepo) ListByTenant(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, sourceLayer, targetLayer string) ([]*types.TraceabilityMatrix, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if sourceLayer != "" {
		q = q.Where("source_layer = ?", sourceLayer)
	}
	if targetLayer != "" {
		q = q.Where("target_layer = ?", targetLayer)
	}
	var cells []*types.TraceabilityMatrix
	if err := q.
		Order("source_layer ASC, target_layer ASC, relationship_type ASC").
		Find(&cells).Error; err != nil {
		return nil, err
	}
	return cells, nil
}
