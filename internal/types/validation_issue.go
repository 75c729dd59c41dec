package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	IssueTypeMissingLink        = "missing_link"
	IssueTypeOrphaned           = "orphaned"
	IssueTypeStale              = "stale"
	IssueTypeInvalidEnum        = "invalid_enum"
	IssueTypeBrokenTraceability = "broken_traceability"
)

const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// SystemExceptionResolver marks issues resolved by exception suppression
// rather than by a user. Suppressed rows are kept for audit but hidden from
// the default issue list.
const SystemExceptionResolver = "system:exception"

// SeverityWeight maps issue severity to the weight used by the scorecard
// aggregator. Unknown severities weigh as medium.
func SeverityWeight(severity string) float64 {
	switch severity {
	case SeverityLow:
		return 0.25
	case SeverityMedium:
		return 0.5
	case SeverityHigh:
		return 0.75
	case SeverityCritical:
		return 1.0
	}
	return 0.5
}

type ValidationIssue struct {
	ID                uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID          uuid.UUID         `gorm:"type:uuid;not null;index" json:"tenant_id"`
	ValidationCycleID *uuid.UUID        `gorm:"type:uuid;column:validation_cycle_id;index" json:"validation_cycle_id,omitempty"`
	RuleID            *uuid.UUID        `gorm:"type:uuid;column:rule_id;index" json:"rule_id,omitempty"`
	EntityType        string            `gorm:"column:entity_type;not null;index" json:"entity_type"`
	EntityID          uuid.UUID         `gorm:"type:uuid;column:entity_id;not null;index" json:"entity_id"`
	Layer             string            `gorm:"column:layer;not null;index" json:"layer"`
	IssueType         string            `gorm:"column:issue_type;not null;index" json:"issue_type"` // missing_link|orphaned|stale|invalid_enum|broken_traceability
	Severity          string            `gorm:"column:severity;not null;index" json:"severity"`     // low|medium|high|critical
	Description       string            `gorm:"column:description;not null" json:"description"`
	RecommendedFix    string            `gorm:"column:recommended_fix" json:"recommended_fix,omitempty"`
	Metadata          datatypes.JSONMap `gorm:"type:jsonb;column:metadata" json:"metadata,omitempty"`
	IsResolved        bool              `gorm:"column:is_resolved;not null;default:false;index" json:"is_resolved"`
	ResolvedAt        *time.Time        `gorm:"column:resolved_at" json:"resolved_at,omitempty"`
	ResolvedBy        string            `gorm:"column:resolved_by" json:"resolved_by,omitempty"`
	CreatedAt         time.Time         `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt         time.Time         `gorm:"not null;default:now()" json:"updated_at"`
}

func (ValidationIssue) TableName() string { return "validation_issue" }
