package service

import (
	"context"
	"errors"
	"fmt"

	"CircuitEngine/internal/interfaces"
	"CircuitEngine/internal/model"
	"CircuitEngine/internal/repository"
	"CircuitEngine/internal/settlement"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ScoreUpdate 单个参与者在本场赛事上的计分结果
type ScoreUpdate struct {
	UserID       string `json:"user_id"`
	Result       string `json:"result"`
	PointsEarned int    `json:"points_earned"`
	TotalScore   int    `json:"total_score"`
}

// EventCompletionResult 组件赛事完成结果
type EventCompletionResult struct {
	CircuitID          uint64        `json:"circuit_id"`
	EventID            uint64        `json:"event_id"`
	WinningOutcome     string        `json:"winning_outcome"`
	Tiebreaker         bool          `json:"tiebreaker"`
	Updates            []ScoreUpdate `json:"updates"`
	CompletedEvents    int           `json:"completed_events"`
	TotalEvents        int           `json:"total_events"`
	AllEventsCompleted bool          `json:"all_events_completed"`
}

// CompleteComponentEvent 队长录入组件赛事结果并计分。
// 普通赛事：选择与赛果忽略大小写与首尾空白后相等即得 weight 分；
// 加赛赛事：只记录答案，下注置为 pending_tiebreaker，不计分。
// 同一赛事只能完成一次，重复调用返回 ErrAlreadyCompleted 且不改变任何分数
func (s *CircuitService) CompleteComponentEvent(ctx context.Context, callerID string, circuitID, eventID uint64, req *CompleteEventRequest) (*EventCompletionResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(circuitID)
	defer unlock()

	var (
		result *EventCompletionResult
		outbox []*interfaces.NotificationMessage
	)
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		circuit, err := tx.Circuits.GetCircuitForUpdate(ctx, circuitID)
		if err != nil {
			return notFound(err, "circuit")
		}
		if !circuit.IsCaptain(callerID) {
			return ErrNotAuthorized
		}
		if circuit.Status == model.CircuitStatusCompleted {
			return fmt.Errorf("%w: circuit %d", ErrAlreadyCompleted, circuitID)
		}
		component, err := tx.Circuits.GetComponent(ctx, circuitID, eventID)
		if err != nil {
			return notFound(err, "component event")
		}
		event, err := tx.Events.GetEvent(ctx, eventID)
		if err != nil {
			return notFound(err, "event")
		}
		if event.Completed {
			return fmt.Errorf("%w: event %d", ErrAlreadyCompleted, eventID)
		}
		bet, err := tx.Bets.GetBet(ctx, circuitID, eventID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("查询盘口失败: %w", err)
		}

		result = &EventCompletionResult{CircuitID: circuitID, EventID: eventID, Updates: []ScoreUpdate{}}
		if event.IsTiebreakerType() || circuit.IsTiebreaker(eventID) {
			err = s.recordTiebreakerAnswer(ctx, tx, event, bet, req, result)
		} else {
			outbox, err = s.scoreStandardEvent(ctx, tx, circuit, component, bet, req.WinningOutcome, result)
		}
		if err != nil {
			return err
		}

		st, err := buildStatus(ctx, tx, circuit)
		if err != nil {
			return err
		}
		result.CompletedEvents = st.CompletedEvents
		result.TotalEvents = st.TotalEvents
		result.AllEventsCompleted = st.AllEventsCompleted
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"circuit_id": circuitID,
		"event_id":   eventID,
		"outcome":    result.WinningOutcome,
		"scored":     len(outbox),
	}).Info("组件赛事已完成")
	s.deliver(ctx, outbox)
	return result, nil
}

func (s *CircuitService) scoreStandardEvent(
	ctx context.Context,
	tx *repository.Store,
	circuit *model.Circuit,
	component *model.CircuitComponentEvent,
	bet *model.Bet,
	winning string,
	result *EventCompletionResult,
) ([]*interfaces.NotificationMessage, error) {
	if winning == "" {
		return nil, invalidInput("winning_outcome is required")
	}
	ok, err := tx.Events.CompleteEvent(ctx, component.EventID, winning, nil)
	if err != nil {
		return nil, fmt.Errorf("更新赛事结果失败: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: event %d", ErrAlreadyCompleted, component.EventID)
	}
	result.WinningOutcome = winning
	if bet == nil {
		return nil, nil
	}

	participants, err := tx.Circuits.ListParticipants(ctx, circuit.ID)
	if err != nil {
		return nil, fmt.Errorf("查询参与者失败: %w", err)
	}
	userBets, err := tx.Bets.ListUserBets(ctx, bet.ID)
	if err != nil {
		return nil, fmt.Errorf("查询下注失败: %w", err)
	}
	betByUser := make(map[string]*model.UserBet, len(userBets))
	for _, ub := range userBets {
		betByUser[ub.UserID] = ub
	}
	participantByUser := make(map[string]*model.CircuitParticipant, len(participants))
	picks := make([]settlement.Pick, 0, len(participants))
	for _, p := range participants {
		participantByUser[p.UserID] = p
		ub, has := betByUser[p.UserID]
		pick := settlement.Pick{UserID: p.UserID, HasBet: has}
		if has {
			pick.Choice = ub.Choice
		}
		picks = append(picks, pick)
	}

	var outbox []*interfaces.NotificationMessage
	for _, sc := range settlement.ScoreEvent(picks, winning, component.Weight) {
		p := participantByUser[sc.UserID]
		ub := betByUser[sc.UserID]
		res := model.BetResultLost
		if sc.Won {
			res = model.BetResultWon
		}
		if err := tx.Bets.SetUserBetResult(ctx, ub.ID, res, sc.Points); err != nil {
			return nil, fmt.Errorf("更新下注结果失败: %w", err)
		}
		if sc.Points > 0 {
			if err := tx.Circuits.AddScore(ctx, p.ID, sc.Points); err != nil {
				return nil, fmt.Errorf("更新得分失败: %w", err)
			}
			p.Score += sc.Points
			outbox = append(outbox, &interfaces.NotificationMessage{
				UserID:      p.UserID,
				Kind:        model.NotificationCircuitScore,
				Message:     fmt.Sprintf("You earned %d points in circuit %q", sc.Points, circuit.Name),
				ReferenceID: circuit.ID,
				Payload: map[string]interface{}{
					"circuit_id":  circuit.ID,
					"event_id":    component.EventID,
					"points":      sc.Points,
					"total_score": p.Score,
				},
			})
		}
		result.Updates = append(result.Updates, ScoreUpdate{
			UserID:       p.UserID,
			Result:       res,
			PointsEarned: sc.Points,
			TotalScore:   p.Score,
		})
	}
	if err := tx.Bets.MarkBetSettled(ctx, bet.ID); err != nil {
		return nil, fmt.Errorf("更新盘口状态失败: %w", err)
	}
	return outbox, nil
}

// recordTiebreakerAnswer 加赛赛事：保存答案并完成赛事，下注等待并列裁定
func (s *CircuitService) recordTiebreakerAnswer(
	ctx context.Context,
	tx *repository.Store,
	event *model.Event,
	bet *model.Bet,
	req *CompleteEventRequest,
	result *EventCompletionResult,
) error {
	raw := req.WinningOutcome
	if req.NumericValue != nil {
		raw = decimal.NewFromFloat(*req.NumericValue).String()
	}
	if raw == "" {
		return invalidInput("tiebreaker event %d needs numeric_value or winning_outcome", event.ID)
	}
	answer := settlement.ParseAnswer(raw)
	if err := completeTiebreakerEvent(ctx, tx, event.ID, answer); err != nil {
		return err
	}
	if bet != nil {
		if err := tx.Bets.SetResultForBet(ctx, bet.ID, model.BetResultPendingTiebreaker); err != nil {
			return fmt.Errorf("更新加赛下注失败: %w", err)
		}
	}
	result.WinningOutcome = answer.String()
	result.Tiebreaker = true
	return nil
}

func completeTiebreakerEvent(ctx context.Context, tx *repository.Store, eventID uint64, answer settlement.Answer) error {
	var numeric *float64
	if answer.Numeric {
		v := answer.Value.InexactFloat64()
		numeric = &v
	}
	ok, err := tx.Events.CompleteEvent(ctx, eventID, answer.String(), numeric)
	if err != nil {
		return fmt.Errorf("更新加赛赛事失败: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: event %d", ErrAlreadyCompleted, eventID)
	}
	return nil
}
