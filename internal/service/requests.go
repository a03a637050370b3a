package service

import (
	"strings"
	"time"

	"CircuitEngine/internal/model"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

// CreateEventRequest 手动创建联赛赛事
type CreateEventRequest struct {
	LeagueID     uint64     `json:"league_id" validate:"required"`
	Name         string     `json:"name" validate:"required,max=256"`
	Sport        string     `json:"sport" validate:"max=32"`
	HomeTeam     string     `json:"home_team" validate:"max=128"`
	AwayTeam     string     `json:"away_team" validate:"max=128"`
	CommenceTime *time.Time `json:"commence_time"`
	BettingType  string     `json:"betting_type" validate:"omitempty,oneof=standard tiebreaker_closest tiebreaker_unique"`
	Outcomes     []string   `json:"outcomes" validate:"dive,max=128"` // 可选结果，仅展示
}

func (r *CreateEventRequest) Validate() error {
	if r.BettingType == "" {
		r.BettingType = model.BettingTypeStandard
	}
	r.Name = strings.TrimSpace(r.Name)
	if err := validate.Struct(r); err != nil {
		return invalidInput("%v", err)
	}
	return nil
}

// ComponentInput 锦标赛组件赛事，weight 为 0 时按 1 处理
type ComponentInput struct {
	EventID uint64 `json:"event_id" validate:"required"`
	Weight  int    `json:"weight" validate:"gte=0"`
}

// CreateCircuitRequest 创建锦标赛
type CreateCircuitRequest struct {
	LeagueID          uint64           `json:"league_id" validate:"required"`
	Name              string           `json:"name" validate:"required,max=128"`
	Description       string           `json:"description" validate:"max=2000"`
	EntryFee          decimal.Decimal  `json:"entry_fee"`
	Components        []ComponentInput `json:"components" validate:"required,min=1,dive"`
	TiebreakerEventID *uint64          `json:"tiebreaker_event_id"`
	StartDate         *time.Time       `json:"start_date"`
	EndDate           *time.Time       `json:"end_date"`
}

func (r *CreateCircuitRequest) Validate(scale int32) error {
	r.Name = strings.TrimSpace(r.Name)
	if err := validate.Struct(r); err != nil {
		return invalidInput("%v", err)
	}
	if r.EntryFee.IsNegative() {
		return invalidInput("entry_fee must not be negative")
	}
	if !r.EntryFee.Equal(r.EntryFee.Truncate(scale)) {
		return invalidInput("entry_fee has more than %d decimal places", scale)
	}
	if r.StartDate != nil && r.EndDate != nil && r.EndDate.Before(*r.StartDate) {
		return invalidInput("end_date before start_date")
	}
	seen := make(map[uint64]struct{}, len(r.Components))
	for i := range r.Components {
		c := &r.Components[i]
		if _, dup := seen[c.EventID]; dup {
			return invalidInput("event %d listed twice", c.EventID)
		}
		seen[c.EventID] = struct{}{}
		if c.Weight == 0 {
			c.Weight = 1
		}
	}
	if r.TiebreakerEventID != nil {
		if _, ok := seen[*r.TiebreakerEventID]; !ok {
			return invalidInput("tiebreaker event %d is not a component event", *r.TiebreakerEventID)
		}
	}
	return nil
}

// PlaceBetRequest 锦标赛内下注
type PlaceBetRequest struct {
	EventID       uint64   `json:"event_id" validate:"required"`
	Choice        string   `json:"choice" validate:"max=128"`
	NumericChoice *float64 `json:"numeric_choice"`
}

func (r *PlaceBetRequest) Validate() error {
	r.Choice = strings.TrimSpace(r.Choice)
	if err := validate.Struct(r); err != nil {
		return invalidInput("%v", err)
	}
	return nil
}

// CompleteEventRequest 录入组件赛事结果。加赛类赛事可只传 numeric_value
type CompleteEventRequest struct {
	WinningOutcome string   `json:"winning_outcome" validate:"max=128"`
	NumericValue   *float64 `json:"numeric_value"`
}

func (r *CompleteEventRequest) Validate() error {
	r.WinningOutcome = strings.TrimSpace(r.WinningOutcome)
	if err := validate.Struct(r); err != nil {
		return invalidInput("%v", err)
	}
	return nil
}

// ResolveTiebreakerRequest 加赛裁定。correct_answer 为空时使用加赛赛事已录入的结果
type ResolveTiebreakerRequest struct {
	TiebreakerEventID uint64 `json:"tiebreaker_event_id" validate:"required"`
	CorrectAnswer     string `json:"correct_answer" validate:"max=128"`
}

func (r *ResolveTiebreakerRequest) Validate() error {
	r.CorrectAnswer = strings.TrimSpace(r.CorrectAnswer)
	if err := validate.Struct(r); err != nil {
		return invalidInput("%v", err)
	}
	return nil
}
