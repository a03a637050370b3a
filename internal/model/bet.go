package model

import "time"

const (
	BetTypeMoneyline  = "moneyline"
	BetTypeTiebreaker = "tiebreaker"

	BetStatusOpen    = "open"
	BetStatusSettled = "settled"
)

// UserBet 结果
const (
	BetResultPending           = "pending"
	BetResultWon               = "won"
	BetResultLost              = "lost"
	BetResultPendingTiebreaker = "pending_tiebreaker"
)

// Bet 对应 bets 表：锦标赛内某场组件赛事的下注盘口，每个 (circuit, event) 一条
type Bet struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	CircuitID uint64    `gorm:"column:circuit_id;type:bigint;not null;uniqueIndex:uk_circuit_bet" json:"circuit_id"`
	EventID   uint64    `gorm:"column:event_id;type:bigint;not null;uniqueIndex:uk_circuit_bet" json:"event_id"`
	Type      string    `gorm:"column:type;type:varchar(16);not null" json:"type"`
	Points    int       `gorm:"column:points;type:int;not null" json:"points"`
	Status    string    `gorm:"column:status;type:varchar(16);not null;default:'open'" json:"status"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Bet) TableName() string { return "bets" }

// UserBet 对应 user_bets 表：用户在某个盘口上的选择，(user_id, bet_id) 唯一
type UserBet struct {
	ID            uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID        string    `gorm:"column:user_id;type:varchar(64);not null;uniqueIndex:uk_user_bet" json:"user_id"`
	BetID         uint64    `gorm:"column:bet_id;type:bigint;not null;uniqueIndex:uk_user_bet;index" json:"bet_id"`
	Choice        string    `gorm:"column:choice;type:varchar(128)" json:"choice"`
	NumericChoice *float64  `gorm:"column:numeric_choice;type:double precision" json:"numeric_choice"`
	PointsWagered int       `gorm:"column:points_wagered;type:int;not null;default:0" json:"points_wagered"`
	PointsEarned  int       `gorm:"column:points_earned;type:int;not null;default:0" json:"points_earned"`
	Result        string    `gorm:"column:result;type:varchar(24);not null;default:'pending'" json:"result"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (UserBet) TableName() string { return "user_bets" }
