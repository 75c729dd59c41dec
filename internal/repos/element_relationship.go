package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/archalign/validation-backend/internal/logger"
	"github.com/archalign/validation-backend/internal/types"
)

type ElementRelationshipRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, relationships []*types.ElementRelationship) ([]*types.ElementRelationship, error)
	ListByTenant(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) ([]*types.ElementRelationship, error)
}

type elementRelationshipRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewElementRelationshipRepo(db *gorm.DB, baseLog *logger.Logger) ElementRelationshipRepo {
	return &elementRelationshipRepo{db: db, log: baseLog.With("repo", "ElementRelationshipRepo")}
}

// Upsert applies the same cross-tenant guard as the element repo.
func (r *elementRelationshipRepo) Upsert(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, relationships []*types.ElementRelationship) ([]*types.ElementRelationship, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(relationships) == 0 {
		return []*types.ElementRelationship{}, nil
	}
	ids := make([]uuid.UUID, 0, len(relationships))
	for _, rel := range relationships {
		ids = append(ids, rel.ID)
	}
	var foreign int64
	if err := transaction.WithContext(ctx).
		Model(&types.ElementRelationship{}).
		Where("id IN ? AND tenant_id <> ?", ids, tenantID).
		Count(&foreign).Error; err != nil {
		return nil, err
	}
	if foreign > 0 {
		return nil, ErrCrossTenant
	}
	if err := transaction.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"source_element_id", "target_element_id", "relationship_type"}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "element_relationship.tenant_id = ?", Vars: []interface{}{tenantID}},
		}},
	}).Create(&relationships).Error; err != nil {
		return nil, err
	}
	return relationships, nil
}

func (r *elementRelationshipRepo) ListByTenant(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) ([]*types.ElementRelationship, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var relationships []*types.ElementRelationship
	if err := transaction.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Find(&relationships).Error; err != nil {
		return nil, err
	}
	return relationships, nil
}
