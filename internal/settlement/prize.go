package settlement

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// DefaultScale 结算货币的小数位数
const DefaultScale int32 = 2

// PrizePool 奖池 = 报名费 × 全部参与人数
func PrizePool(entryFee decimal.Decimal, participants int) decimal.Decimal {
	return entryFee.Mul(decimal.NewFromInt(int64(participants)))
}

// SplitPrize 按最小货币单位平分奖池：每人 floor(total/n)，余下的单位依次
// 给排在前面的获胜者各 1 个，保证各份之和恰好等于 total
func SplitPrize(total decimal.Decimal, winners int, scale int32) ([]decimal.Decimal, error) {
	if winners <= 0 {
		return nil, errors.New("split prize: no winners")
	}
	if total.IsNegative() {
		return nil, fmt.Errorf("split prize: negative pool %s", total.String())
	}
	units := total.Shift(scale)
	if !units.Equal(units.Truncate(0)) {
		return nil, fmt.Errorf("split prize: pool %s has more than %d decimal places", total.String(), scale)
	}
	q, r := units.QuoRem(decimal.NewFromInt(int64(winners)), 0)
	extra := r.IntPart()

	shares := make([]decimal.Decimal, winners)
	one := decimal.NewFromInt(1)
	for i := range shares {
		u := q
		if int64(i) < extra {
			u = u.Add(one)
		}
		shares[i] = u.Shift(-scale)
	}
	return shares, nil
}
