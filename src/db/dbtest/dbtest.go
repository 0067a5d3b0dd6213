// Package dbtest opens throwaway sqlite databases migrated with every model.
package dbtest

import (
	"fmt"
	"loketkita/src/models"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns an in-memory database private to t. A single connection is
// used so that concurrent callers serialize on it the same way row locks
// would serialize them on postgres.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", name)
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %s", err.Error())
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %s", err.Error())
	}
	sqlDB.SetMaxOpenConns(1)
	if err := gdb.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate: %s", err.Error())
	}
	t.Cleanup(func() {
		sqlDB.Close()
	})
	return gdb
}

// Mock returns a postgres-dialect gorm handle backed by sqlmock, for pinning
// the exact SQL a query builds.
func Mock(t testing.TB) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %s", err.Error())
	}
	gdb, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 conn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open gorm: %s", err.Error())
	}
	t.Cleanup(func() {
		conn.Close()
	})
	return gdb, mock
}
