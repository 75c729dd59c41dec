package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	CycleStatusRunning   = "running"
	CycleStatusCompleted = "completed"
	CycleStatusFailed    = "failed"
	CycleStatusCancelled = "cancelled"
)

// TriggeredBySystem is recorded when a cycle is started by the service
// itself rather than an authenticated user.
const TriggeredBySystem = "system"

type ValidationCycle struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID         uuid.UUID  `gorm:"type:uuid;not null;index" json:"tenant_id"`
	StartedAt        time.Time  `gorm:"column:started_at;not null;default:now()" json:"started_at"`
	CompletedAt      *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
	TriggeredBy      string     `gorm:"column:triggered_by;not null" json:"triggered_by"`
	RuleSetID        *uuid.UUID `gorm:"type:uuid;column:rule_set_id" json:"rule_set_id,omitempty"`
	TotalIssuesFound int        `gorm:"column:total_issues_found;not null;default:0" json:"total_issues_found"`
	ExecutionStatus  string     `gorm:"column:execution_status;not null;index" json:"execution_status"` // running|completed|failed|cancelled
	MaturityScore    *float64   `gorm:"column:maturity_score" json:"maturity_score,omitempty"`
	Error            string     `gorm:"column:error" json:"error,omitempty"`
	ClaimedAt        *time.Time `gorm:"column:claimed_at;index" json:"claimed_at,omitempty"`
	CancelRequested  bool       `gorm:"column:cancel_requested;not null;default:false" json:"cancel_requested"`
	CreatedAt        time.Time  `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"not null;default:now()" json:"updated_at"`
}

func (ValidationCycle) TableName() string { return "validation_cycle" }

func (c *ValidationCycle) IsTerminal() bool {
	switch c.ExecutionStatus {
	case CycleStatusCompleted, CycleStatusFailed, CycleStatusCancelled:
		return true
	}
	return false
}
