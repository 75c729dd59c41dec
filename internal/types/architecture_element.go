package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ArchitectureElement is the substrate the rule evaluator scans. Elements
// are ingested from the upstream modeling services; this service only needs
// enough shape to run rules against.
type ArchitectureElement struct {
	ID         uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID   uuid.UUID         `gorm:"type:uuid;not null;index" json:"tenant_id"`
	EntityType string            `gorm:"column:entity_type;not null;index" json:"entity_type"`
	Layer      string            `gorm:"column:layer;not null;index" json:"layer"`
	Name       string            `gorm:"column:name;not null" json:"name"`
	Attributes datatypes.JSONMap `gorm:"type:jsonb;column:attributes" json:"attributes,omitempty"`
	CreatedAt  time.Time         `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt  time.Time         `gorm:"not null;default:now();index" json:"updated_at"`
}

func (ArchitectureElement) TableName() string { return "architecture_element" }
