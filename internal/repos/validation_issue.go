package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/archalign/validation-backend/internal/logger"
	"github.com/archalign/validation-backend/internal/types"
)

type ValidationIssueRepo interface {
	Create(ctx context.Context, tx *gorm.DB, issues []*types.ValidationIssue) ([]*types.ValidationIssue, error)
	GetByID(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID) (*types.ValidationIssue, error)
	ListByTenant(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, skip, limit int, includeSuppressed bool) ([]*types.ValidationIssue, int64, error)
	CountUnresolvedBySeverity(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) (map[string]int64, error)
	MarkResolved(ctx context.Context, tx *gorm.DB, id uuid.UUID, resolvedBy string, resolvedAt time.Time) error
	ResolveForEntities(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, entityType string, entityIDs []uuid.UUID, resolvedBy string) (int64, error)
}

type validationIssueRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewValidationIssueRepo(db *gorm.DB, baseLog *logger.Logger) ValidationIssueRepo {
	return &validationIssueRepo{db: db, log: baseLog.With("repo", "ValidationIssueRepo")}
}

func (r *validationIssueRepo) Create(ctx context.Context, tx *gorm.DB, issues []*types.ValidationIssue) ([]*types.ValidationIssue, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(issues) == 0 {
		return []*types.ValidationIssue{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&issues).Error; err != nil {
		return nil, err
	}
	return issues, nil
}

func (r *validationIssueRepo) GetByID(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID) (*types.ValidationIssue, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var issue types.ValidationIssue
	err := transaction.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&issue).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &issue, nil
}

// ListByTenant returns issues newest first. Unless includeSuppressed is set,
// rows the evaluator pre-resolved for an exception are left out.
func (r *validationIssueRepo) ListByTenant(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, skip, limit int, includeSuppressed bool) ([]*types.ValidationIssue, int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	countQuery := transaction.WithContext(ctx).
		Model(&types.ValidationIssue{}).
		Where("tenant_id = ?", tenantID)
	if !includeSuppressed {
		countQuery = countQuery.Where("(resolved_by IS NULL OR resolved_by <> ?)", types.SystemExceptionResolver)
	}
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	listQuery := transaction.WithContext(ctx).
		Where("tenant_id = ?", tenantID)
	if !includeSuppressed {
		listQuery = listQuery.Where("(resolved_by IS NULL OR resolved_by <> ?)", types.SystemExceptionResolver)
	}
	var issues []*types.ValidationIssue
	if err := listQuery.
		Order("created_at DESC").
		Offset(skip).
		Limit(limit).
		Find(&issues).Error; err != nil {
		return nil, 0, err
	}
	return issues, total, nil
}

func (r *validationIssueRepo) CountUnresolvedBySeverity(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) (map[string]int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	type row struct {
		Severity string
		Count    int64
	}
	var rows []row
	if err := transaction.WithContext(ctx).
		Model(&types.ValidationIssue{}).
		Select("severity, COUNT(*) AS count").
		Where("tenant_id = ? AND is_resolved = ?", tenantID, false).
		Group("severity").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := map[string]int64{
		types.SeverityLow:      0,
		types.SeverityMedium:   0,
		types.SeverityHigh:     0,
		types.SeverityCritical: 0,
	}
	for _, r := range rows {
		out[r.Severity] = r.Count
	}
	return out, nil
}

// MarkResolved only touches unresolved rows, which makes a second resolve
// call a no-op rather than a timestamp rewrite.
func (r *validationIssueRepo) MarkResolved(ctx context.Context, tx *gorm.DB, id uuid.UUID, resolvedBy string, resolvedAt time.Time) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.ValidationIssue{}).
		Where("id = ? AND is_resolved = ?", id, false).
		Updates(map[string]interface{}{
			"is_resolved": true,
			"resolved_at": resolvedAt,
			"resolved_by": resolvedBy,
			"updated_at":  time.Now(),
		}).Error
}

// ResolveForEntities resolves open issues for the given entities, used when
// a newly created exception should retroactively suppress existing rows.
func (r *validationIssueRepo) ResolveForEntities(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, entityType string, entityIDs []uuid.UUID, resolvedBy string) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(entityIDs) == 0 {
		return 0, nil
	}
	now := time.Now()
	res := transaction.WithContext(ctx).
		Model(&types.ValidationIssue{}).
		Where("tenant_id = ? AND entity_type = ? AND entity_id IN ? AND is_resolved = ?", tenantID, entityType, entityIDs, false).
		Updates(map[string]interface{}{
			"is_resolved": true,
			"resolved_at": now,
			"resolved_by": resolvedBy,
			"updated_at":  now,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
