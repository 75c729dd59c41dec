package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/archalign/validation-backend/internal/apierr"
	"github.com/archalign/validation-backend/internal/logger"
	"github.com/archalign/validation-backend/internal/repos"
	"github.com/archalign/validation-backend/internal/types"
)

type ElementInput struct {
	ID         uuid.UUID         `json:"id"`
	EntityType string            `json:"entity_type"`
	Layer      string            `json:"layer"`
	Name       string            `json:"name"`
	Attributes datatypes.JSONMap `json:"attributes,omitempty"`
}

type RelationshipInput struct {
	ID               uuid.UUID `json:"id"`
	SourceElementID  uuid.UUID `json:"source_element_id"`
	TargetElementID  uuid.UUID `json:"target_element_id"`
	RelationshipType string    `json:"relationship_type"`
}

// ElementService ingests the model substrate the evaluator scans. The
// upstream modeling services own these entities; this service only mirrors
// enough of them to run rules.
type ElementService interface {
	UpsertElements(ctx context.Context, tenantID uuid.UUID, inputs []*ElementInput) ([]*types.ArchitectureElement, error)
	ListElements(ctx context.Context, tenantID uuid.UUID) ([]*types.ArchitectureElement, error)
	UpsertRelationships(ctx context.Context, tenantID uuid.UUID, inputs []*RelationshipInput) ([]*types.ElementRelationship, error)
	ListRelationships(ctx context.Context, tenantID uuid.UUID) ([]*types.ElementRelationship, error)
}

type elementService struct {
	db               *gorm.DB
	log              *logger.Logger
	elementRepo      repos.ArchitectureElementRepo
	relationshipRepo repos.ElementRelationshipRepo
}

func NewElementService(db *gorm.DB, log *logger.Logger, elementRepo repos.ArchitectureElementRepo, relationshipRepo repos.ElementRelationshipRepo) ElementService {
	return &elementService{
		db:               db,
		log:              log.With("service", "ElementService"),
		elementRepo:      elementRepo,
		relationshipRepo: relationshipRepo,
	}
}

func (es *elementService) UpsertElements(ctx context.Context, tenantID uuid.UUID, inputs []*ElementInput) ([]*types.ArchitectureElement, error) {
	elements := make([]*types.ArchitectureElement, 0, len(inputs))
	for i, in := range inputs {
		if in.EntityType == "" || in.Name == "" {
			return nil, apierr.Unprocessable(fmt.Errorf("element %d: entity_type and name are required", i))
		}
		if !types.ValidLayer(in.Layer) {
			return nil, apierr.Unprocessable(fmt.Errorf("element %d: unknown layer %q", i, in.Layer))
		}
		id := in.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		elements = append(elements, &types.ArchitectureElement{
			ID:         id,
			TenantID:   tenantID,
			EntityType: in.EntityType,
			Layer:      in.Layer,
			Name:       in.Name,
			Attributes: in.Attributes,
		})
	}
	upserted, err := es.elementRepo.Upsert(ctx, nil, tenantID, elements)
	if errors.Is(err, repos.ErrCrossTenant) {
		return nil, apierr.Forbidden(fmt.Errorf("element id owned by another tenant"))
	}
	return upserted, err
}

func (es *elementService) ListElements(ctx context.Context, tenantID uuid.UUID) ([]*types.ArchitectureElement, error) {
	return es.elementRepo.ListByTenant(ctx, nil, tenantID)
}

func (es *elementService) UpsertRelationships(ctx context.Context, tenantID uuid.UUID, inputs []*RelationshipInput) ([]*types.ElementRelationship, error) {
	relationships := make([]*types.ElementRelationship, 0, len(inputs))
	for i, in := range inputs {
		if in.SourceElementID == uuid.Nil || in.TargetElementID == uuid.Nil {
			return nil, apierr.Unprocessable(fmt.Errorf("relationship %d: source and target element ids are required", i))
		}
		if in.RelationshipType == "" {
			return nil, apierr.Unprocessable(fmt.Errorf("relationship %d: relationship_type is required", i))
		}
		id := in.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		relationships = append(relationships, &types.ElementRelationship{
			ID:               id,
			TenantID:         tenantID,
			SourceElementID:  in.SourceElementID,
			TargetElementID:  in.TargetElementID,
			RelationshipType: in.RelationshipType,
		})
	}
	upserted, err := es.relationshipRepo.Upsert(ctx, nil, tenantID, relationships)
	if errors.Is(err, repos.ErrCrossTenant) {
		return nil, apierr.Forbidden(fmt.Errorf("relationship id owned by another tenant"))
	}
	return upserted, err
}

func (es *elementService) ListRelationships(ctx context.Context, tenantID uuid.UUID) ([]*types.ElementRelationship, error) {
	return es.relationshipRepo.ListByTenant(ctx, nil, tenantID)
}
