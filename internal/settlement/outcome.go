// Package settlement 锦标赛结算规则：计分、并列检测、加赛裁定、奖池分配（纯计算，不访问存储）
package settlement

import "strings"

// NormalizeChoice 去掉首尾空白并转小写
func NormalizeChoice(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ChoiceMatches 忽略大小写与首尾空白比较选择与赛果；空选择永远不匹配
func ChoiceMatches(choice, winning string) bool {
	c := NormalizeChoice(choice)
	if c == "" {
		return false
	}
	return c == NormalizeChoice(winning)
}

// Pick 参与者在单场组件赛事上的下注，HasBet=false 表示未下注
type Pick struct {
	UserID string
	Choice string
	HasBet bool
}

type EventScore struct {
	UserID string
	Won    bool
	Points int
}

// ScoreEvent 按赛果给每个已下注的参与者计分；未下注者跳过，分数不变
func ScoreEvent(picks []Pick, winning string, weight int) []EventScore {
	scores := make([]EventScore, 0, len(picks))
	for _, p := range picks {
		if !p.HasBet {
			continue
		}
		if ChoiceMatches(p.Choice, winning) {
			scores = append(scores, EventScore{UserID: p.UserID, Won: true, Points: weight})
			continue
		}
		scores = append(scores, EventScore{UserID: p.UserID})
	}
	return scores
}
