package settlement

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Answer 加赛题的正确答案
type Answer struct {
	Raw     string
	Value   decimal.Decimal
	Numeric bool
}

// ParseAnswer 能解析为十进制数则为数值型答案，否则为类别型
func ParseAnswer(raw string) Answer {
	raw = strings.TrimSpace(raw)
	a := Answer{Raw: raw}
	if v, ok := ParseNumber(raw); ok {
		a.Value = v
		a.Numeric = true
	}
	return a
}

// ParseNumber 按十进制解析猜测值，"Inf"/"NaN" 等一律视为非数值
func ParseNumber(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return v, true
}

// String 写入 events.winning_outcome 的形式
func (a Answer) String() string {
	if a.Numeric {
		return a.Value.String()
	}
	return a.Raw
}

// Same 两个答案是否等价：数值型按数值比较，类别型忽略大小写与首尾空白
func (a Answer) Same(b Answer) bool {
	if a.Numeric != b.Numeric {
		return false
	}
	if a.Numeric {
		return a.Value.Equal(b.Value)
	}
	return ChoiceMatches(a.Raw, b.Raw)
}

// Guess 参与者在加赛赛事上的下注。Choice 为下注原文，Numeric 仅在原文无法解析时兜底
type Guess struct {
	UserID  string
	Choice  string
	Numeric *float64
	Placed  bool
}

// Distance 猜测与答案的距离：数值型取绝对差，类别型命中为 0 否则为 1。
// 第二个返回值为 false 表示未下注或无法解析，距离视为无穷大
func (a Answer) Distance(g Guess) (decimal.Decimal, bool) {
	if !g.Placed {
		return decimal.Zero, false
	}
	if !a.Numeric {
		if ChoiceMatches(g.Choice, a.Raw) {
			return decimal.Zero, true
		}
		return decimal.NewFromInt(1), true
	}
	v, ok := g.value()
	if !ok {
		return decimal.Zero, false
	}
	return a.Value.Sub(v).Abs(), true
}

func (g Guess) value() (decimal.Decimal, bool) {
	if v, ok := ParseNumber(g.Choice); ok {
		return v, true
	}
	if g.Numeric != nil && !math.IsNaN(*g.Numeric) && !math.IsInf(*g.Numeric, 0) {
		return decimal.NewFromFloat(*g.Numeric), true
	}
	return decimal.Zero, false
}

// BreakTie 从并列组中选出距离最小的参与者；没有任何有效猜测时整组获胜
func BreakTie(group []Standing, guesses map[string]Guess, answer Answer) []Standing {
	var best decimal.Decimal
	found := false
	distances := make([]decimal.Decimal, len(group))
	valid := make([]bool, len(group))
	for i, s := range group {
		d, ok := answer.Distance(guesses[s.UserID])
		if !ok {
			continue
		}
		distances[i], valid[i] = d, true
		if !found || d.LessThan(best) {
			best, found = d, true
		}
	}
	if !found {
		winners := append([]Standing(nil), group...)
		SortStandings(winners)
		return winners
	}
	winners := make([]Standing, 0, 1)
	for i, s := range group {
		if valid[i] && distances[i].Equal(best) {
			winners = append(winners, s)
		}
	}
	SortStandings(winners)
	return winners
}
