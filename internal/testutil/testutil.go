// Package testutil provides the sqlite-backed database fixture shared by
// repo and service tests.
package testutil

import (
	"testing"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/archalign/validation-backend/internal/logger"
)

// NewLogger returns a logger that discards everything.
func NewLogger() *logger.Logger {
	return &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
}

// The production schema uses postgres defaults the sqlite dialect cannot
// express, so tests create the tables directly.
var schema = []string{
	`CREATE TABLE validation_cycle (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		started_at DATETIME,
		completed_at DATETIME,
		triggered_by TEXT,
		rule_set_id TEXT,
		total_issues_found INTEGER NOT NULL DEFAULT 0,
		execution_status TEXT NOT NULL,
		maturity_score REAL,
		error TEXT,
		claimed_at DATETIME,
		cancel_requested BOOLEAN NOT NULL DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE validation_issue (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		validation_cycle_id TEXT,
		rule_id TEXT,
		entity_type TEXT NOT NULL,
		entity_id TEXT NOT NULL,
		layer TEXT NOT NULL,
		issue_type TEXT NOT NULL,
		severity TEXT NOT NULL,
		description TEXT,
		recommended_fix TEXT,
		metadata TEXT,
		is_resolved BOOLEAN NOT NULL DEFAULT 0,
		resolved_at DATETIME,
		resolved_by TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE validation_rule (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		rule_type TEXT NOT NULL,
		scope TEXT NOT NULL,
		rule_logic TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		severity TEXT NOT NULL,
		description TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE validation_exception (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		entity_type TEXT NOT NULL,
		entity_id TEXT NOT NULL,
		rule_id TEXT,
		reason TEXT,
		created_by TEXT,
		expires_at DATETIME,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE validation_scorecard (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		validation_cycle_id TEXT NOT NULL,
		layer TEXT NOT NULL,
		completeness_score REAL NOT NULL DEFAULT 0,
		traceability_score REAL NOT NULL DEFAULT 0,
		alignment_score REAL NOT NULL DEFAULT 0,
		overall_score REAL NOT NULL DEFAULT 0,
		low_issue_count INTEGER NOT NULL DEFAULT 0,
		medium_issue_count INTEGER NOT NULL DEFAULT 0,
		high_issue_count INTEGER NOT NULL DEFAULT 0,
		critical_issue_count INTEGER NOT NULL DEFAULT 0,
		element_count INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME,
		UNIQUE (tenant_id, validation_cycle_id, layer)
	)`,
	`CREATE TABLE traceability_matrix (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		source_layer TEXT NOT NULL,
		target_layer TEXT NOT NULL,
		source_entity_type TEXT NOT NULL,
		target_entity_type TEXT NOT NULL,
		relationship_type TEXT NOT NULL,
		connection_count INTEGER NOT NULL DEFAULT 0,
		missing_connections INTEGER NOT NULL DEFAULT 0,
		strength_score REAL NOT NULL DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME,
		UNIQUE (tenant_id, source_layer, target_layer, source_entity_type, target_entity_type, relationship_type)
	)`,
	`CREATE TABLE architecture_element (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		entity_type TEXT NOT NULL,
		layer TEXT NOT NULL,
		name TEXT NOT NULL,
		attributes TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE element_relationship (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		source_element_id TEXT NOT NULL,
		target_element_id TEXT NOT NULL,
		relationship_type TEXT NOT NULL,
		created_at DATETIME
	)`,
}

// NewDB opens an in-memory sqlite database with the full schema.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}
	// A pooled :memory: database is a different database per connection.
	sqlDB.SetMaxOpenConns(1)
	for _, ddl := range schema {
		if err := db.Exec(ddl).Error; err != nil {
			t.Fatalf("create test schema: %v", err)
		}
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}
