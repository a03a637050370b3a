package settlement

import (
	"errors"
	"sort"
	"time"
)

var ErrNoParticipants = errors.New("no participants")

// Standing 参与者在锦标赛中的累计得分
type Standing struct {
	UserID   string
	Score    int
	JoinedAt time.Time
}

// Leaders 最高分的并列组
type Leaders struct {
	TopScore int
	Group    []Standing
}

func (l Leaders) Tied() bool { return len(l.Group) > 1 }

func (l Leaders) UserIDs() []string {
	ids := make([]string, 0, len(l.Group))
	for _, s := range l.Group {
		ids = append(ids, s.UserID)
	}
	return ids
}

// SortStandings 按加入时间、再按 user_id 排序；奖池余数按此顺序分配
func SortStandings(standings []Standing) {
	sort.SliceStable(standings, func(i, j int) bool {
		if !standings[i].JoinedAt.Equal(standings[j].JoinedAt) {
			return standings[i].JoinedAt.Before(standings[j].JoinedAt)
		}
		return standings[i].UserID < standings[j].UserID
	})
}

// DetermineLeaders 返回分数等于最高分的所有参与者（整数严格相等）
func DetermineLeaders(standings []Standing) (Leaders, error) {
	if len(standings) == 0 {
		return Leaders{}, ErrNoParticipants
	}
	top := standings[0].Score
	for _, s := range standings[1:] {
		if s.Score > top {
			top = s.Score
		}
	}
	group := make([]Standing, 0, 1)
	for _, s := range standings {
		if s.Score == top {
			group = append(group, s)
		}
	}
	SortStandings(group)
	return Leaders{TopScore: top, Group: group}, nil
}
