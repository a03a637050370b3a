package model

import (
	"time"

	"gorm.io/datatypes"
)

// 赛事下注类型
const (
	BettingTypeStandard          = "standard"
	BettingTypeTiebreakerClosest = "tiebreaker_closest"
	BettingTypeTiebreakerUnique  = "tiebreaker_unique"
)

// Event 对应 events 表：联赛内可下注的单场赛事。completed 只能从 false 变为 true
type Event struct {
	ID             uint64         `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	LeagueID       uint64         `gorm:"column:league_id;type:bigint;not null;index" json:"league_id"`
	Name           string         `gorm:"column:name;type:varchar(256);not null" json:"name"`
	Sport          string         `gorm:"column:sport;type:varchar(32)" json:"sport"`
	HomeTeam       string         `gorm:"column:home_team;type:varchar(128)" json:"home_team"`
	AwayTeam       string         `gorm:"column:away_team;type:varchar(128)" json:"away_team"`
	CommenceTime   *time.Time     `gorm:"column:commence_time" json:"commence_time"`
	BettingType    string         `gorm:"column:betting_type;type:varchar(32);not null;default:'standard'" json:"betting_type"`
	Completed      bool           `gorm:"column:completed;type:boolean;not null;default:false" json:"completed"`
	WinningOutcome *string        `gorm:"column:winning_outcome;type:varchar(128)" json:"winning_outcome"`
	NumericResult  *float64       `gorm:"column:numeric_result;type:double precision" json:"numeric_result"`
	MarketData     datatypes.JSON `gorm:"column:market_data;type:jsonb" json:"market_data"` // 可选结果，仅展示用
	CompletedAt    *time.Time     `gorm:"column:completed_at" json:"completed_at"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Event) TableName() string { return "events" }

// IsTiebreakerType 加赛类赛事不计分，由加赛答案裁定
func (e *Event) IsTiebreakerType() bool {
	return e.BettingType == BettingTypeTiebreakerClosest || e.BettingType == BettingTypeTiebreakerUnique
}
