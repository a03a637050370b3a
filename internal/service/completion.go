package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"CircuitEngine/internal/interfaces"
	"CircuitEngine/internal/model"
	"CircuitEngine/internal/repository"
	"CircuitEngine/internal/settlement"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// 锦标赛完成结果
const (
	OutcomeCompleted   = "completed"
	OutcomeTieDetected = "tie_detected"
)

// WinnerPayout 获胜者及奖金
type WinnerPayout struct {
	UserID string          `json:"user_id"`
	Score  int             `json:"score"`
	Prize  decimal.Decimal `json:"prize"`
}

// CircuitCompletionResult CompleteCircuit / ResolveTiebreaker 的返回
type CircuitCompletionResult struct {
	CircuitID         uint64          `json:"circuit_id"`
	Outcome           string          `json:"outcome"`
	Status            string          `json:"status"`
	Winners           []WinnerPayout  `json:"winners"`
	WinnerID          *string         `json:"winner_id,omitempty"`
	TiedUserIDs       []string        `json:"tied_user_ids,omitempty"`
	TopScore          int             `json:"top_score"`
	TiebreakerEventID *uint64         `json:"tiebreaker_event_id,omitempty"`
	TotalPrize        decimal.Decimal `json:"total_prize"`
	PrizePerWinner    decimal.Decimal `json:"prize_per_winner"` // 有余数时为最小的一份
}

// LeadersResult 并列检测结果
type LeadersResult struct {
	CircuitID uint64   `json:"circuit_id"`
	Status    string   `json:"status"`
	TopScore  int      `json:"top_score"`
	Leaders   []string `json:"leaders"`
	Tied      bool     `json:"tied"`
}

// DetermineLeaders 系统侧并列检测（无调用者校验，供定时任务使用）。
// 出现并列时将状态置为 calculating（幂等）
func (s *CircuitService) DetermineLeaders(ctx context.Context, circuitID uint64) (*LeadersResult, error) {
	unlock := s.locks.Lock(circuitID)
	defer unlock()

	var out *LeadersResult
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		circuit, err := tx.Circuits.GetCircuitForUpdate(ctx, circuitID)
		if err != nil {
			return notFound(err, "circuit")
		}
		if circuit.Status == model.CircuitStatusCompleted {
			return fmt.Errorf("%w: circuit %d", ErrAlreadyCompleted, circuitID)
		}
		_, leaders, err := determineLeaders(ctx, tx, circuit)
		if err != nil {
			return err
		}
		out = &LeadersResult{
			CircuitID: circuitID,
			Status:    circuit.Status,
			TopScore:  leaders.TopScore,
			Leaders:   leaders.UserIDs(),
			Tied:      leaders.Tied(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// determineLeaders 计算最高分并列组；并列时 active → calculating
func determineLeaders(ctx context.Context, tx *repository.Store, circuit *model.Circuit) ([]*model.CircuitParticipant, settlement.Leaders, error) {
	participants, err := tx.Circuits.ListParticipants(ctx, circuit.ID)
	if err != nil {
		return nil, settlement.Leaders{}, fmt.Errorf("查询参与者失败: %w", err)
	}
	leaders, err := settlement.DetermineLeaders(standingsOf(participants))
	if err != nil {
		return nil, settlement.Leaders{}, leadersError(err)
	}
	if leaders.Tied() && circuit.Status == model.CircuitStatusActive {
		if _, err := tx.Circuits.TransitionStatus(ctx, circuit.ID,
			[]string{model.CircuitStatusActive}, model.CircuitStatusCalculating); err != nil {
			return nil, settlement.Leaders{}, fmt.Errorf("更新锦标赛状态失败: %w", err)
		}
		circuit.Status = model.CircuitStatusCalculating
	}
	return participants, leaders, nil
}

// CompleteCircuit 队长结束锦标赛。所有非加赛组件赛事必须已完成。
// 唯一领先者直接发奖；并列时若加赛赛事已录入答案则自动裁定，否则返回 tie_detected 等待 ResolveTiebreaker；
// 未设置加赛赛事时并列者平分奖池
func (s *CircuitService) CompleteCircuit(ctx context.Context, callerID string, circuitID uint64) (*CircuitCompletionResult, error) {
	unlock := s.locks.Lock(circuitID)
	defer unlock()

	var (
		result *CircuitCompletionResult
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
		if err := requireEventsCompleted(ctx, tx, circuit); err != nil {
			return err
		}
		participants, leaders, err := determineLeaders(ctx, tx, circuit)
		if err != nil {
			return err
		}

		winners := leaders.Group
		if leaders.Tied() && circuit.TiebreakerEventID != nil {
			tbEvent, err := tx.Events.GetEvent(ctx, *circuit.TiebreakerEventID)
			if err != nil {
				return notFound(err, "tiebreaker event")
			}
			if !tbEvent.Completed || tbEvent.WinningOutcome == nil || strings.TrimSpace(*tbEvent.WinningOutcome) == "" {
				result = &CircuitCompletionResult{
					CircuitID:         circuitID,
					Outcome:           OutcomeTieDetected,
					Status:            circuit.Status,
					Winners:           []WinnerPayout{},
					TiedUserIDs:       leaders.UserIDs(),
					TopScore:          leaders.TopScore,
					TiebreakerEventID: circuit.TiebreakerEventID,
				}
				outbox = append(outbox, &interfaces.NotificationMessage{
					UserID:      circuit.CaptainID,
					Kind:        model.NotificationCircuitTie,
					Message:     fmt.Sprintf("Circuit %q ended in a %d-way tie; resolve the tiebreaker to pay out", circuit.Name, len(leaders.Group)),
					ReferenceID: circuit.ID,
					Payload:     map[string]interface{}{"circuit_id": circuit.ID, "tied_user_ids": leaders.UserIDs()},
				})
				return nil
			}
			winners, err = breakTie(ctx, tx, circuit, leaders.Group, settlement.ParseAnswer(*tbEvent.WinningOutcome))
			if err != nil {
				return err
			}
		}

		result, outbox, err = s.distributePrize(ctx, tx, circuit, participants, winners)
		if err != nil {
			return err
		}
		result.TopScore = leaders.TopScore
		if leaders.Tied() {
			result.TiedUserIDs = leaders.UserIDs()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logCompletion(result)
	s.deliver(ctx, outbox)
	return result, nil
}

// ResolveTiebreaker 队长给出加赛正确答案，从并列组中选出最终获胜者并发奖。
// 数值答案按绝对差取最近，类别答案忽略大小写精确匹配；并列组内无人有效下注时整组平分
func (s *CircuitService) ResolveTiebreaker(ctx context.Context, callerID string, circuitID uint64, req *ResolveTiebreakerRequest) (*CircuitCompletionResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(circuitID)
	defer unlock()

	var (
		result *CircuitCompletionResult
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
		if !circuit.IsTiebreaker(req.TiebreakerEventID) {
			return fmt.Errorf("%w: event %d is not the tiebreaker of circuit %d", ErrNotFound, req.TiebreakerEventID, circuitID)
		}
		if err := requireEventsCompleted(ctx, tx, circuit); err != nil {
			return err
		}
		event, err := tx.Events.GetEvent(ctx, req.TiebreakerEventID)
		if err != nil {
			return notFound(err, "tiebreaker event")
		}

		raw := strings.TrimSpace(req.CorrectAnswer)
		recorded := ""
		if event.Completed && event.WinningOutcome != nil {
			recorded = strings.TrimSpace(*event.WinningOutcome)
		}
		if raw == "" {
			raw = recorded
		}
		if raw == "" {
			return invalidInput("correct_answer is required")
		}
		answer := settlement.ParseAnswer(raw)
		// 赛事已记录答案时以记录为准，不一致直接拒绝
		if recorded != "" {
			stored := settlement.ParseAnswer(recorded)
			if !answer.Same(stored) {
				return invalidInput("correct_answer %q does not match recorded answer %q of event %d", raw, recorded, event.ID)
			}
			answer = stored
		}
		if !event.Completed {
			if err := completeTiebreakerEvent(ctx, tx, event.ID, answer); err != nil {
				return err
			}
		}

		participants, leaders, err := determineLeaders(ctx, tx, circuit)
		if err != nil {
			return err
		}
		winners, err := breakTie(ctx, tx, circuit, leaders.Group, answer)
		if err != nil {
			return err
		}
		result, outbox, err = s.distributePrize(ctx, tx, circuit, participants, winners)
		if err != nil {
			return err
		}
		result.TopScore = leaders.TopScore
		if leaders.Tied() {
			result.TiedUserIDs = leaders.UserIDs()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logCompletion(result)
	s.deliver(ctx, outbox)
	return result, nil
}

// requireEventsCompleted 所有非加赛组件赛事必须已完成
func requireEventsCompleted(ctx context.Context, tx *repository.Store, circuit *model.Circuit) error {
	components, err := tx.Circuits.ListComponents(ctx, circuit.ID)
	if err != nil {
		return fmt.Errorf("查询组件赛事失败: %w", err)
	}
	events, err := componentEvents(ctx, tx, components)
	if err != nil {
		return err
	}
	pending := 0
	for _, c := range components {
		if circuit.IsTiebreaker(c.EventID) {
			continue
		}
		if e, ok := events[c.EventID]; !ok || !e.Completed {
			pending++
		}
	}
	if pending > 0 {
		return fmt.Errorf("%w: %d event(s) not completed", ErrEventsPending, pending)
	}
	return nil
}

// breakTie 在加赛赛事的全部下注中查找并列者的猜测（不依赖 tiebreaker_bet_id 关联）
func breakTie(ctx context.Context, tx *repository.Store, circuit *model.Circuit, group []settlement.Standing, answer settlement.Answer) ([]settlement.Standing, error) {
	if len(group) <= 1 || circuit.TiebreakerEventID == nil {
		return group, nil
	}
	guesses := make(map[string]settlement.Guess, len(group))
	bet, err := tx.Bets.GetBet(ctx, circuit.ID, *circuit.TiebreakerEventID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("查询加赛盘口失败: %w", err)
	}
	if bet != nil {
		userBets, err := tx.Bets.ListUserBets(ctx, bet.ID)
		if err != nil {
			return nil, fmt.Errorf("查询加赛下注失败: %w", err)
		}
		for _, ub := range userBets {
			guesses[ub.UserID] = settlement.Guess{
				UserID:  ub.UserID,
				Choice:  ub.Choice,
				Numeric: ub.NumericChoice,
				Placed:  true,
			}
		}
	}
	return settlement.BreakTie(group, guesses, answer), nil
}

// distributePrize 奖池 = 报名费 × 全部参与人数，按最小货币单位平分给获胜者，
// 入账、写 prize_amount、置 completed 在调用方事务内完成
func (s *CircuitService) distributePrize(
	ctx context.Context,
	tx *repository.Store,
	circuit *model.Circuit,
	participants []*model.CircuitParticipant,
	winners []settlement.Standing,
) (*CircuitCompletionResult, []*interfaces.NotificationMessage, error) {
	if len(winners) == 0 {
		return nil, nil, ErrNoParticipants
	}
	total := settlement.PrizePool(circuit.EntryFee, len(participants))
	shares, err := settlement.SplitPrize(total, len(winners), s.scale)
	if err != nil {
		return nil, nil, fmt.Errorf("计算奖金失败: %w", err)
	}

	byUser := make(map[string]*model.CircuitParticipant, len(participants))
	for _, p := range participants {
		byUser[p.UserID] = p
	}
	won := make(map[string]bool, len(winners))
	payouts := make([]WinnerPayout, 0, len(winners))
	var outbox []*interfaces.NotificationMessage
	for i, w := range winners {
		p, ok := byUser[w.UserID]
		if !ok {
			return nil, nil, fmt.Errorf("获胜者 %s 不是锦标赛参与者", w.UserID)
		}
		if err := tx.Wallets.Credit(ctx, w.UserID, shares[i], model.LedgerKindPrize, circuitRef(circuit.ID)); err != nil {
			return nil, nil, walletError(err)
		}
		if err := tx.Circuits.SetPrizeAmount(ctx, p.ID, shares[i]); err != nil {
			return nil, nil, fmt.Errorf("更新奖金失败: %w", err)
		}
		won[w.UserID] = true
		payouts = append(payouts, WinnerPayout{UserID: w.UserID, Score: w.Score, Prize: shares[i]})

		msg := fmt.Sprintf("You won circuit %q and received %s", circuit.Name, shares[i].StringFixed(s.scale))
		if len(winners) > 1 {
			msg = fmt.Sprintf("You split circuit %q with %d others and received %s", circuit.Name, len(winners)-1, shares[i].StringFixed(s.scale))
		}
		outbox = append(outbox, &interfaces.NotificationMessage{
			UserID:      w.UserID,
			Kind:        model.NotificationCircuitWon,
			Message:     msg,
			ReferenceID: circuit.ID,
			Payload:     map[string]interface{}{"circuit_id": circuit.ID, "prize": shares[i].StringFixed(s.scale)},
		})
	}
	if err := settleTiebreakerBets(ctx, tx, circuit, won); err != nil {
		return nil, nil, err
	}

	var winnerID *string
	if len(winners) == 1 {
		id := winners[0].UserID
		winnerID = &id
	}
	ok, err := tx.Circuits.MarkCompleted(ctx, circuit.ID, winnerID)
	if err != nil {
		return nil, nil, fmt.Errorf("更新锦标赛状态失败: %w", err)
	}
	if !ok {
		return nil, nil, fmt.Errorf("%w: circuit %d", ErrAlreadyCompleted, circuit.ID)
	}
	for _, p := range participants {
		if won[p.UserID] {
			continue
		}
		outbox = append(outbox, &interfaces.NotificationMessage{
			UserID:      p.UserID,
			Kind:        model.NotificationInfo,
			Message:     fmt.Sprintf("Circuit %q has been completed", circuit.Name),
			ReferenceID: circuit.ID,
		})
	}

	return &CircuitCompletionResult{
		CircuitID:         circuit.ID,
		Outcome:           OutcomeCompleted,
		Status:            model.CircuitStatusCompleted,
		Winners:           payouts,
		WinnerID:          winnerID,
		TiebreakerEventID: circuit.TiebreakerEventID,
		TotalPrize:        total,
		PrizePerWinner:    shares[len(shares)-1],
	}, outbox, nil
}

// settleTiebreakerBets 加赛下注：获胜者 won，其余 lost
func settleTiebreakerBets(ctx context.Context, tx *repository.Store, circuit *model.Circuit, won map[string]bool) error {
	if circuit.TiebreakerEventID == nil {
		return nil
	}
	bet, err := tx.Bets.GetBet(ctx, circuit.ID, *circuit.TiebreakerEventID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("查询加赛盘口失败: %w", err)
	}
	userBets, err := tx.Bets.ListUserBets(ctx, bet.ID)
	if err != nil {
		return fmt.Errorf("查询加赛下注失败: %w", err)
	}
	for _, ub := range userBets {
		res := model.BetResultLost
		if won[ub.UserID] {
			res = model.BetResultWon
		}
		if err := tx.Bets.SetUserBetResult(ctx, ub.ID, res, 0); err != nil {
			return fmt.Errorf("更新加赛下注失败: %w", err)
		}
	}
	return tx.Bets.MarkBetSettled(ctx, bet.ID)
}

func (s *CircuitService) logCompletion(result *CircuitCompletionResult) {
	if result.Outcome == OutcomeTieDetected {
		s.logger.WithFields(logrus.Fields{
			"circuit_id": result.CircuitID,
			"tied":       result.TiedUserIDs,
		}).Info("锦标赛出现并列，等待加赛裁定")
		return
	}
	s.logger.WithFields(logrus.Fields{
		"circuit_id":  result.CircuitID,
		"winners":     len(result.Winners),
		"total_prize": result.TotalPrize.String(),
	}).Info("锦标赛已结算")
}
