package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/archalign/validation-backend/internal/logger"
	"github.com/archalign/validation-backend/internal/repos"
	"github.com/archalign/validation-backend/internal/types"
)

type MatrixService interface {
	List(ctx context.Context, tenantID uuid.UUID, sourceLayer, targetLayer string, refresh bool) ([]*types.TraceabilityMatrix, error)
	Rebuild(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) error
}

type matrixService struct {
	db               *gorm.DB
	log              *logger.Logger
	matrixRepo       repos.TraceabilityMatrixRepo
	elementRepo      repos.ArchitectureElementRepo
	relationshipRepo repos.ElementRelationshipRepo
}

func NewMatrixService(db *gorm.DB, log *logger.Logger, matrixRepo repos.TraceabilityMatrixRepo, elementRepo repos.ArchitectureElementRepo, relationshipRepo repos.ElementRelationshipRepo) MatrixService {
	return &matrixService{
		db:               db,
		log:              log.With("service", "MatrixService"),
		matrixRepo:       matrixRepo,
		elementRepo:      elementRepo,
		relationshipRepo: relationshipRepo,
	}
}

func (ms *matrixService) List(ctx context.Context, tenantID uuid.UUID, sourceLayer, targetLayer string, refresh bool) ([]*types.TraceabilityMatrix, error) {
	if refresh {
		if err := ms.Rebuild(ctx, nil, tenantID); err != nil {
			return nil, err
		}
	}
	return ms.matrixRepo.ListByTenant(ctx, nil, tenantID, sourceLayer, targetLayer)
}

// Rebuild recomputes every matrix cell from the tenant's current elements
// and relationships. A cell exists per (source_layer, target_layer,
// source_entity_type, target_entity_type, relationship_type) observed;
// missing_connections counts source elements of the cell's type with no such
// outgoing relationship.
func (ms *matrixService) Rebuild(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) error {
	elements, err := ms.elementRepo.ListByTenant(ctx, tx, tenantID)
	if err != nil {
		return err
	}
	relationships, err := ms.relationshipRepo.ListByTenant(ctx, tx, tenantID)
	if err != nil {
		return err
	}
	cells := BuildMatrixCells(tenantID, elements, relationships)
	return ms.matrixRepo.ReplaceForTenant(ctx, tx, tenantID, cells)
}

type matrixKey struct {
	sourceLayer      string
	targetLayer      string
	sourceEntityType string
	targetEntityType string
	relationshipType string
}

// BuildMatrixCells is the pure aggregation behind Rebuild, split out for
// tests and for the cycle runner.
func BuildMatrixCells(tenantID uuid.UUID, elements []*types.ArchitectureElement, relationships []*types.ElementRelationship) []*types.TraceabilityMatrix {
	byID := make(map[uuid.UUID]*types.ArchitectureElement, len(elements))
	for _, el := range elements {
		byID[el.ID] = el
	}

	counts := map[matrixKey]int{}
	connectedSources := map[matrixKey]map[uuid.UUID]bool{}
	for _, rel := range relationships {
		src, okS := byID[rel.SourceElementID]
		dst, okT := byID[rel.TargetElementID]
		if !okS || !okT {
			continue
		}
		key := matrixKey{
			sourceLayer:      src.Layer,
			targetLayer:      dst.Layer,
			sourceEntityType: src.EntityType,
			targetEntityType: dst.EntityType,
			relationshipType: rel.RelationshipType,
		}
		counts[key]++
		if connectedSources[key] == nil {
			connectedSources[key] = map[uuid.UUID]bool{}
		}
		connectedSources[key][src.ID] = true
	}

	sourcesByTypeLayer := map[[2]string]int{}
	for _, el := range elements {
		sourcesByTypeLayer[[2]string{el.Layer, el.EntityType}]++
	}

	cells := make([]*types.TraceabilityMatrix, 0, len(counts))
	for key, count := range counts {
		totalSources := sourcesByTypeLayer[[2]string{key.sourceLayer, key.sourceEntityType}]
		missing := totalSources - len(connectedSources[key])
		if missing < 0 {
			missing = 0
		}
		strength := 0.0
		if count+missing > 0 {
			strength = float64(count) / float64(count+missing)
		}
		cells = append(cells, &types.TraceabilityMatrix{
			ID:                 uuid.New(),
			TenantID:           tenantID,
			SourceLayer:        key.sourceLayer,
			TargetLayer:        key.targetLayer,
			SourceEntityType:   key.sourceEntityType,
			TargetEntityType:   key.targetEntityType,
			RelationshipType:   key.relationshipType,
			ConnectionCount:    count,
			MissingConnections: missing,
			StrengthScore:      strength,
		})
	}
	return cells
}
