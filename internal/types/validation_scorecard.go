package types

import (
	"time"

	"github.com/google/uuid"
)

// ValidationScorecard is written once per (cycle, layer) when a cycle
// completes and never mutated afterwards.
type ValidationScorecard struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID           uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:uidx_scorecard_cycle_layer" json:"tenant_id"`
	ValidationCycleID  uuid.UUID `gorm:"type:uuid;column:validation_cycle_id;not null;uniqueIndex:uidx_scorecard_cycle_layer" json:"validation_cycle_id"`
	Layer              string    `gorm:"column:layer;not null;uniqueIndex:uidx_scorecard_cycle_layer" json:"layer"`
	CompletenessScore  float64   `gorm:"column:completeness_score;not null" json:"completeness_score"`
	TraceabilityScore  float64   `gorm:"column:traceability_score;not null" json:"traceability_score"`
	AlignmentScore     float64   `gorm:"column:alignment_score;not null" json:"alignment_score"`
	OverallScore       float64   `gorm:"column:overall_score;not null" json:"overall_score"`
	LowIssueCount      int       `gorm:"column:low_issue_count;not null;default:0" json:"low_issue_count"`
	MediumIssueCount   int       `gorm:"column:medium_issue_count;not null;default:0" json:"medium_issue_count"`
	HighIssueCount     int       `gorm:"column:high_issue_count;not null;default:0" json:"high_issue_count"`
	CriticalIssueCount int       `gorm:"column:critical_issue_count;not null;default:0" json:"critical_issue_count"`
	ElementCount       int       `gorm:"column:element_count;not null;default:0" json:"element_count"`
	CreatedAt          time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (ValidationScorecard) TableName() string { return "validation_scorecard" }
