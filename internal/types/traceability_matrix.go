package types

import (
	"time"

	"github.com/google/uuid"
)

// TraceabilityMatrix rows are recomputed per cycle or on demand and
// overwritten in place, never versioned.
type TraceabilityMatrix struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID           uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:uidx_matrix_cell" json:"tenant_id"`
	SourceLayer        string    `gorm:"column:source_layer;not null;uniqueIndex:uidx_matrix_cell" json:"source_layer"`
	TargetLayer        string    `gorm:"column:target_layer;not null;uniqueIndex:uidx_matrix_cell" json:"target_layer"`
	SourceEntityType   string    `gorm:"column:source_entity_type;not null;uniqueIndex:uidx_matrix_cell" json:"source_entity_type"`
	TargetEntityType   string    `gorm:"column:target_entity_type;not null;uniqueIndex:uidx_matrix_cell" json:"target_entity_type"`
	RelationshipType   string    `gorm:"column:relationship_type;not null;uniqueIndex:uidx_matrix_cell" json:"relationship_type"`
	ConnectionCount    int       `gorm:"column:connection_count;not null;default:0" json:"connection_count"`
	MissingConnections int       `gorm:"column:missing_connections;not null;default:0" json:"missing_connections"`
	StrengthScore      float64   `gorm:"column:strength_score;not null;default:0" json:"strength_score"`
	CreatedAt          time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt          time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (TraceabilityMatrix) TableName() string { return "traceability_matrix" }
