package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 流水类型
const (
	LedgerKindEntryFee = "entry_fee"
	LedgerKindPrize    = "prize"
)

// Wallet 对应 wallets 表：用户的虚拟货币余额
type Wallet struct {
	UserID    string          `gorm:"column:user_id;type:varchar(64);primaryKey" json:"user_id"`
	Balance   decimal.Decimal `gorm:"column:balance;type:numeric(18,2);not null" json:"balance"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Wallet) TableName() string { return "wallets" }

// LedgerEntry 对应 ledger_entries 表。同一用户同一 kind+reference 只能记一次账
type LedgerEntry struct {
	ID           uint64          `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	EntryUUID    string          `gorm:"column:entry_uuid;type:varchar(64);uniqueIndex;not null" json:"entry_uuid"`
	UserID       string          `gorm:"column:user_id;type:varchar(64);not null;uniqueIndex:uk_ledger_ref" json:"user_id"`
	Kind         string          `gorm:"column:kind;type:varchar(16);not null;uniqueIndex:uk_ledger_ref" json:"kind"`
	Reference    string          `gorm:"column:reference;type:varchar(64);not null;uniqueIndex:uk_ledger_ref" json:"reference"`
	Amount       decimal.Decimal `gorm:"column:amount;type:numeric(18,2);not null" json:"amount"` // 入账为正，扣款为负
	BalanceAfter decimal.Decimal `gorm:"column:balance_after;type:numeric(18,2);not null" json:"balance_after"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (LedgerEntry) TableName() string { return "ledger_entries" }
