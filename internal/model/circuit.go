package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 锦标赛状态，只能前进：active → calculating → completed
const (
	CircuitStatusActive      = "active"
	CircuitStatusCalculating = "calculating"
	CircuitStatusCompleted   = "completed"
)

// Circuit 对应 circuits 表：联赛内的多赛事锦标赛
type Circuit struct {
	ID                uint64          `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	LeagueID          uint64          `gorm:"column:league_id;type:bigint;not null;index" json:"league_id"`
	Name              string          `gorm:"column:name;type:varchar(128);not null" json:"name"`
	Description       string          `gorm:"column:description;type:text" json:"description"`
	EntryFee          decimal.Decimal `gorm:"column:entry_fee;type:numeric(18,2);not null" json:"entry_fee"`
	Status            string          `gorm:"column:status;type:varchar(16);not null;default:'active';index" json:"status"`
	CaptainID         string          `gorm:"column:captain_id;type:varchar(64);not null" json:"captain_id"`
	WinnerID          *string         `gorm:"column:winner_id;type:varchar(64)" json:"winner_id"` // 仅唯一获胜者时写入
	TiebreakerEventID *uint64         `gorm:"column:tiebreaker_event_id;type:bigint" json:"tiebreaker_event_id"`
	StartDate         *time.Time      `gorm:"column:start_date" json:"start_date"`
	EndDate           *time.Time      `gorm:"column:end_date" json:"end_date"`
	CompletedAt       *time.Time      `gorm:"column:completed_at" json:"completed_at"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Circuit) TableName() string { return "circuits" }

// IsCaptain 是否为锦标赛队长（管理员）
func (c *Circuit) IsCaptain(userID string) bool {
	return userID != "" && c.CaptainID == userID
}

func (c *Circuit) IsTiebreaker(eventID uint64) bool {
	return c.TiebreakerEventID != nil && *c.TiebreakerEventID == eventID
}

// CircuitComponentEvent 对应 circuit_component_events 表：锦标赛包含的赛事及权重
type CircuitComponentEvent struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	CircuitID uint64    `gorm:"column:circuit_id;type:bigint;not null;uniqueIndex:uk_circuit_component" json:"circuit_id"`
	EventID   uint64    `gorm:"column:event_id;type:bigint;not null;uniqueIndex:uk_circuit_component" json:"event_id"`
	Weight    int       `gorm:"column:weight;type:int;not null;default:1" json:"weight"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (CircuitComponentEvent) TableName() string { return "circuit_component_events" }

// CircuitParticipant 对应 circuit_participants 表
type CircuitParticipant struct {
	ID              uint64          `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	CircuitID       uint64          `gorm:"column:circuit_id;type:bigint;not null;uniqueIndex:uk_circuit_participant" json:"circuit_id"`
	UserID          string          `gorm:"column:user_id;type:varchar(64);not null;uniqueIndex:uk_circuit_participant" json:"user_id"`
	PaidEntry       bool            `gorm:"column:paid_entry;type:boolean;not null;default:false" json:"paid_entry"`
	Score           int             `gorm:"column:score;type:int;not null;default:0" json:"score"`
	PrizeAmount     decimal.Decimal `gorm:"column:prize_amount;type:numeric(18,2);not null;default:0" json:"prize_amount"`
	TiebreakerBetID *uint64         `gorm:"column:tiebreaker_bet_id;type:bigint" json:"tiebreaker_bet_id"` // 加赛赛事上的 user_bets.id
	JoinedAt        time.Time       `gorm:"column:joined_at;not null" json:"joined_at"`
}

func (CircuitParticipant) TableName() string { return "circuit_participants" }
