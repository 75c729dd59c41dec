package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	RuleTypeTraceability = "traceability"
	RuleTypeCompleteness = "completeness"
	RuleTypeAlignment    = "alignment"
)

const (
	LayerMotivation     = "Motivation"
	LayerBusiness       = "Business"
	LayerApplication    = "Application"
	LayerTechnology     = "Technology"
	LayerImplementation = "Implementation"
)

// Layers lists every architecture layer in canonical order.
var Layers = []string{
	LayerMotivation,
	LayerBusiness,
	LayerApplication,
	LayerTechnology,
	LayerImplementation,
}

func ValidLayer(layer string) bool {
	for _, l := range Layers {
		if l == layer {
			return true
		}
	}
	return false
}

func ValidRuleType(ruleType string) bool {
	switch ruleType {
	case RuleTypeTraceability, RuleTypeCompleteness, RuleTypeAlignment:
		return true
	}
	return false
}

func ValidSeverity(severity string) bool {
	switch severity {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// ValidationRule is global, not tenant scoped. RuleLogic holds the predicate
// tree the evaluator interprets; see internal/rules.
type ValidationRule struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string         `gorm:"column:name;uniqueIndex;not null" json:"name"`
	RuleType    string         `gorm:"column:rule_type;not null;index" json:"rule_type"` // traceability|completeness|alignment
	Scope       string         `gorm:"column:scope;not null;index" json:"scope"`         // Motivation|Business|Application|Technology|Implementation
	RuleLogic   datatypes.JSON `gorm:"type:jsonb;column:rule_logic;not null" json:"rule_logic"`
	IsActive    bool           `gorm:"column:is_active;not null;index" json:"is_active"`
	Severity    string         `gorm:"column:severity;not null" json:"severity"`
	Description string         `gorm:"column:description" json:"description,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (ValidationRule) TableName() string { return "validation_rule" }
