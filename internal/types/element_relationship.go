package types

import (
	"time"

	"github.com/google/uuid"
)

type ElementRelationship struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID         uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`
	SourceElementID  uuid.UUID `gorm:"type:uuid;column:source_element_id;not null;index" json:"source_element_id"`
	TargetElementID  uuid.UUID `gorm:"type:uuid;column:target_element_id;not null;index" json:"target_element_id"`
	RelationshipType string    `gorm:"column:relationship_type;not null;index" json:"relationship_type"`
	CreatedAt        time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (ElementRelationship) TableName() string { return "element_relationship" }
