package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"CircuitEngine/internal/interfaces"
	"CircuitEngine/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrInsufficientBalance 余额不足
var ErrInsufficientBalance = errors.New("insufficient balance")

// WalletRepository 钱包与流水，同时实现 interfaces.CurrencyGateway。
// 在 Store.Transaction 内使用时，记账与业务变更同事务提交
type WalletRepository interface {
	interfaces.CurrencyGateway
	GetWallet(ctx context.Context, userID string) (*model.Wallet, error)
	ListLedger(ctx context.Context, userID string, page, pageSize int) ([]*model.LedgerEntry, int64, error)
}

type walletRepository struct {
	db              *gorm.DB
	startingBalance decimal.Decimal
}

// NewWalletRepository 创建钱包仓储；首次访问的用户自动开户，余额为 startingBalance
func NewWalletRepository(db *gorm.DB, startingBalance decimal.Decimal) WalletRepository {
	return &walletRepository{db: db, startingBalance: startingBalance}
}

func (r *walletRepository) GetBalance(ctx context.Context, userID string) (decimal.Decimal, error) {
	w, err := r.ensureWallet(ctx, userID, false)
	if err != nil {
		return decimal.Zero, err
	}
	return w.Balance, nil
}

func (r *walletRepository) GetWallet(ctx context.Context, userID string) (*model.Wallet, error) {
	return r.ensureWallet(ctx, userID, false)
}

func (r *walletRepository) Credit(ctx context.Context, userID string, amount decimal.Decimal, kind, reference string) error {
	if amount.IsNegative() {
		return fmt.Errorf("入账金额不能为负: %s", amount.String())
	}
	return r.apply(ctx, userID, amount, kind, reference)
}

func (r *walletRepository) Debit(ctx context.Context, userID string, amount decimal.Decimal, kind, reference string) error {
	if amount.IsNegative() {
		return fmt.Errorf("扣款金额不能为负: %s", amount.String())
	}
	return r.apply(ctx, userID, amount.Neg(), kind, reference)
}

func (r *walletRepository) ListLedger(ctx context.Context, userID string, page, pageSize int) ([]*model.LedgerEntry, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	db := r.db.WithContext(ctx).Model(&model.LedgerEntry{}).Where("user_id = ?", userID)
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []*model.LedgerEntry
	if err := db.Order("id DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// apply 先写流水（唯一索引拦截重复记账），再更新余额
func (r *walletRepository) apply(ctx context.Context, userID string, amount decimal.Decimal, kind, reference string) error {
	w, err := r.ensureWallet(ctx, userID, true)
	if err != nil {
		return err
	}
	balance := w.Balance.Add(amount)
	if balance.IsNegative() {
		return ErrInsufficientBalance
	}

	entry := &model.LedgerEntry{
		EntryUUID:    uuid.NewString(),
		UserID:       userID,
		Kind:         kind,
		Reference:    reference,
		Amount:       amount,
		BalanceAfter: balance,
	}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("写入流水失败: %w", err)
	}
	return r.db.WithContext(ctx).Model(&model.Wallet{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"balance":    balance,
			"updated_at": time.Now(),
		}).Error
}

func (r *walletRepository) ensureWallet(ctx context.Context, userID string, lock bool) (*model.Wallet, error) {
	query := func() (*model.Wallet, error) {
		db := r.db.WithContext(ctx)
		if lock {
			db = db.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var w model.Wallet
		if err := db.Where("user_id = ?", userID).First(&w).Error; err != nil {
			return nil, err
		}
		return &w, nil
	}

	w, err := query()
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	fresh := &model.Wallet{UserID: userID, Balance: r.startingBalance}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(fresh).Error; err != nil {
		return nil, fmt.Errorf("创建钱包失败: %w", err)
	}
	return query()
}
