package service

import (
	"context"
	"fmt"

	"CircuitEngine/internal/model"
	"CircuitEngine/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// AccountService 用户钱包与通知查询
type AccountService struct {
	wallets       repository.WalletRepository
	notifications repository.NotificationRepository
	logger        *logrus.Logger
}

// NewAccountService 创建 AccountService
func NewAccountService(wallets repository.WalletRepository, notifications repository.NotificationRepository, logger *logrus.Logger) *AccountService {
	return &AccountService{wallets: wallets, notifications: notifications, logger: logger}
}

// WalletView 余额及最近流水
type WalletView struct {
	UserID  string               `json:"user_id"`
	Balance decimal.Decimal      `json:"balance"`
	Ledger  []*model.LedgerEntry `json:"ledger"`
	Total   int64                `json:"ledger_total"`
}

// GetWallet 余额与流水分页
func (s *AccountService) GetWallet(ctx context.Context, userID string, page, pageSize int) (*WalletView, error) {
	if userID == "" {
		return nil, ErrNotAuthorized
	}
	w, err := s.wallets.GetWallet(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("查询钱包失败: %w", err)
	}
	ledger, total, err := s.wallets.ListLedger(ctx, userID, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("查询流水失败: %w", err)
	}
	return &WalletView{UserID: userID, Balance: w.Balance, Ledger: ledger, Total: total}, nil
}

// NotificationListResult 通知列表
type NotificationListResult struct {
	Page     int                   `json:"page"`
	PageSize int                   `json:"page_size"`
	Total    int64                 `json:"total"`
	Items    []*model.Notification `json:"items"`
}

// ListNotifications 用户通知分页
func (s *AccountService) ListNotifications(ctx context.Context, userID string, unreadOnly bool, page, pageSize int) (*NotificationListResult, error) {
	if userID == "" {
		return nil, ErrNotAuthorized
	}
	items, total, err := s.notifications.ListByUser(ctx, userID, unreadOnly, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("查询通知失败: %w", err)
	}
	return &NotificationListResult{Page: page, PageSize: pageSize, Total: total, Items: items}, nil
}
