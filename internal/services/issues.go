package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/archalign/validation-backend/internal/apierr"
	"github.com/archalign/validation-backend/internal/logger"
	"github.com/archalign/validation-backend/internal/repos"
	"github.com/archalign/validation-backend/internal/types"
)

const (
	DefaultIssuePageSize = 50
	MaxIssuePageSize     = 200
)

type IssueList struct {
	Issues         []*types.ValidationIssue `json:"issues"`
	Total          int64                    `json:"total"`
	SeverityCounts map[string]int64         `json:"severity_counts"`
}

type IssueService interface {
	List(ctx context.Context, tenantID uuid.UUID, skip, limit int, includeSuppressed bool) (*IssueList, error)
	Resolve(ctx context.Context, tenantID, issueID uuid.UUID, resolvedBy string) (*types.ValidationIssue, error)
}

type issueService struct {
	db        *gorm.DB
	log       *logger.Logger
	issueRepo repos.ValidationIssueRepo
}

func NewIssueService(db *gorm.DB, log *logger.Logger, issueRepo repos.ValidationIssueRepo) IssueService {
	return &issueService{
		db:        db,
		log:       log.With("service", "IssueService"),
		issueRepo: issueRepo,
	}
}

// List hides exception-suppressed rows unless includeSuppressed is set; they
// stay in the store for audit but are not findings.
func (is *issueService) List(ctx context.Context, tenantID uuid.UUID, skip, limit int, includeSuppressed bool) (*IssueList, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = DefaultIssuePageSize
	}
	if limit > MaxIssuePageSize {
		limit = MaxIssuePageSize
	}
	issues, total, err := is.issueRepo.ListByTenant(ctx, nil, tenantID, skip, limit, includeSuppressed)
	if err != nil {
		return nil, err
	}
	counts, err := is.issueRepo.CountUnresolvedBySeverity(ctx, nil, tenantID)
	if err != nil {
		return nil, err
	}
	return &IssueList{Issues: issues, Total: total, SeverityCounts: counts}, nil
}

// Resolve is idempotent: resolving an already-resolved issue returns the
// stored state untouched, resolved_at included.
func (is *issueService) Resolve(ctx context.Context, tenantID, issueID uuid.UUID, resolvedBy string) (*types.ValidationIssue, error) {
	issue, err := is.issueRepo.GetByID(ctx, nil, tenantID, issueID)
	if err != nil {
		return nil, err
	}
	if issue == nil {
		return nil, apierr.NotFound(fmt.Errorf("validation issue %s not found", issueID))
	}
	if issue.IsResolved {
		return issue, nil
	}
	resolvedAt := time.Now()
	if err := is.issueRepo.MarkResolved(ctx, nil, issueID, resolvedBy, resolvedAt); err != nil {
		return nil, err
	}
	issue.IsResolved = true
	issue.ResolvedAt = &resolvedAt
	issue.ResolvedBy = resolvedBy
	return issue, nil
}
