package testutil

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/qs3c/idea_go_server/internal/model"
)

// SetupTestDB 创建测试数据库（SQLite 内存模式）
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// 每个测试独立的内存库
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect test database: %v", err)
	}

	// SQLite 同一时刻只允许一个写连接
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get underlying DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&model.User{}); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

// SetupTestDBWithMySQL 使用 MySQL 测试数据库（需要环境变量）
func SetupTestDBWithMySQL(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set, skipping MySQL tests")
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect test database: %v", err)
	}

	if err := db.AutoMigrate(&model.User{}); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	TruncateTables(t, db)

	return db
}

// CleanupTestDB 清理测试数据库
func CleanupTestDB(t *testing.T, db *gorm.DB) {
	t.Helper()

	sqlDB, err := db.DB()
	if err != nil {
		t.Logf("Warning: Failed to get underlying DB: %v", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		t.Logf("Warning: Failed to close test database: %v", err)
	}
}

// TruncateTables 清空所有表数据
func TruncateTables(t *testing.T, db *gorm.DB) {
	t.Helper()

	if err := db.Exec("DELETE FROM users").Error; err != nil {
		t.Logf("Warning: Failed to truncate table users: %v", err)
	}
}

// FailRowQueries 让 Raw(...).Scan / Row / Rows 查询返回错误，用于模拟写入后回读失败
func FailRowQueries(t *testing.T, db *gorm.DB) {
	t.Helper()

	err := db.Callback().Row().Before("gorm:row").Register("testutil:fail_row", func(tx *gorm.DB) {
		_ = tx.AddError(errors.New("simulated read failure"))
	})
	if err != nil {
		t.Fatalf("Failed to register callback: %v", err)
	}
}

// FailFindQueries 让 First / Find 等模型查询返回错误
func FailFindQueries(t *testing.T, db *gorm.DB) {
	t.Helper()

	err := db.Callback().Query().Before("gorm:query").Register("testutil:fail_query", func(tx *gorm.DB) {
		_ = tx.AddError(errors.New("simulated read failure"))
	})
	if err != nil {
		t.Fatalf("Failed to register callback: %v", err)
	}
}
