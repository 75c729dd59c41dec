package services

import (
	"testing"

	"gorm.io/gorm"

	"github.com/archalign/validation-backend/internal/logger"
	"github.com/archalign/validation-backend/internal/testutil"
)

func newTestLogger() *logger.Logger {
	return testutil.NewLogger()
}

func newTestDB(t *testing.T) *gorm.DB {
	return testutil.NewDB(t)
}
