package repository

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Store 同一个 *gorm.DB（根连接或事务）上的全部仓储
type Store struct {
	db              *gorm.DB
	startingBalance decimal.Decimal

	Circuits      CircuitRepository
	Events        EventRepository
	Bets          BetRepository
	Wallets       WalletRepository
	Notifications NotificationRepository
}

// NewStore 创建仓储集合。startingBalance 为新钱包的初始余额
func NewStore(db *gorm.DB, startingBalance decimal.Decimal) *Store {
	return &Store{
		db:              db,
		startingBalance: startingBalance,
		Circuits:        NewCircuitRepository(db),
		Events:          NewEventRepository(db),
		Bets:            NewBetRepository(db),
		Wallets:         NewWalletRepository(db, startingBalance),
		Notifications:   NewNotificationRepository(db),
	}
}

// Transaction 在一个数据库事务内执行 fn，fn 返回错误或 panic 时整体回滚
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("开启事务失败: %w", tx.Error)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(NewStore(tx, s.startingBalance)); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("提交事务失败: %w", err)
	}
	return nil
}
