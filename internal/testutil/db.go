// Package testutil 测试用内存数据库与仓储
package testutil

import (
	"fmt"
	"io"
	"sync/atomic"
	"testing"

	"CircuitEngine/internal/model"
	"CircuitEngine/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq int64

// Models 需要迁移的全部表
func Models() []interface{} {
	return []interface{}{
		&model.Event{},
		&model.Circuit{},
		&model.CircuitComponentEvent{},
		&model.CircuitParticipant{},
		&model.Bet{},
		&model.UserBet{},
		&model.Wallet{},
		&model.LedgerEntry{},
		&model.Notification{},
	}
}

// NewDB 每个测试一个独立的 sqlite 内存库，单连接以保证事务串行
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := fmt.Sprintf("file:circuit_test_%d?mode=memory&cache=shared", atomic.AddInt64(&dbSeq, 1))
	db, err := gorm.Open(sqlite.Open(name), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql.DB failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(Models()...); err != nil {
		t.Fatalf("AutoMigrate failed: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}

// NewStore 内存库上的 Store，初始余额 1000.00
func NewStore(t *testing.T) *repository.Store {
	t.Helper()
	return repository.NewStore(NewDB(t), decimal.RequireFromString("1000.00"))
}

// Logger 丢弃输出的 logrus
func Logger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
