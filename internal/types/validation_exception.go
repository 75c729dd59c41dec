package types

import (
	"time"

	"github.com/google/uuid"
)

type ValidationException struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"tenant_id"`
	EntityType string     `gorm:"column:entity_type;not null;index" json:"entity_type"`
	EntityID   uuid.UUID  `gorm:"type:uuid;column:entity_id;not null;index" json:"entity_id"`
	RuleID     *uuid.UUID `gorm:"type:uuid;column:rule_id" json:"rule_id,omitempty"`
	Reason     string     `gorm:"column:reason;not null" json:"reason"`
	CreatedBy  string     `gorm:"column:created_by;not null" json:"created_by"`
	ExpiresAt  *time.Time `gorm:"column:expires_at" json:"expires_at,omitempty"`
	IsActive   bool       `gorm:"column:is_active;not null;index" json:"is_active"`
	CreatedAt  time.Time  `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"not null;default:now()" json:"updated_at"`
}

func (ValidationException) TableName() string { return "validation_exception" }

// EffectiveAt reports whether the exception suppresses issues at the given
// instant. An expired exception never suppresses, even if IsActive was left
// true by the caller.
func (e *ValidationException) EffectiveAt(now time.Time) bool {
	if !e.IsActive {
		return false
	}
	if e.ExpiresAt != nil && !e.ExpiresAt.After(now) {
		return false
	}
	return true
}

// Matches reports whether the exception covers the given issue candidate.
// A nil RuleID covers every rule for the entity.
func (e *ValidationException) Matches(entityType string, entityID uuid.UUID, ruleID *uuid.UUID) bool {
	if e.EntityType != entityType || e.EntityID != entityID {
		return false
	}
	if e.RuleID == nil {
		return true
	}
	return ruleID != nil && *e.RuleID == *ruleID
}
