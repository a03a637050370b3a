package interfaces

import (
	"context"

	"github.com/shopspring/decimal"
)

// CurrencyGateway 用户虚拟货币余额的读写。kind+reference 标识一笔业务（如 prize / circuit:12），
// 同一用户同一笔业务只能记账一次
type CurrencyGateway interface {
	GetBalance(ctx context.Context, userID string) (decimal.Decimal, error)
	// Credit 入账，amount 必须 >= 0
	Credit(ctx context.Context, userID string, amount decimal.Decimal, kind, reference string) error
	// Debit 扣款，余额不足时整体失败，不产生任何变更
	Debit(ctx context.Context, userID string, amount decimal.Decimal, kind, reference string) error
}
