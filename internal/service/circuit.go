package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"CircuitEngine/internal/interfaces"
	"CircuitEngine/internal/model"
	"CircuitEngine/internal/repository"
	"CircuitEngine/internal/settlement"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// CircuitService 锦标赛：创建、报名、下注、计分、并列检测、加赛裁定与奖池发放。
// 所有写操作按锦标赛串行，并在单个数据库事务内完成；通知在提交后投递
type CircuitService struct {
	store    *repository.Store
	notifier interfaces.NotificationGateway
	locks    *circuitLocker
	scale    int32
	logger   *logrus.Logger
}

// NewCircuitService 创建 CircuitService。scale 为结算货币小数位，<= 0 时取 settlement.DefaultScale
func NewCircuitService(store *repository.Store, notifier interfaces.NotificationGateway, scale int32, logger *logrus.Logger) *CircuitService {
	if scale <= 0 {
		scale = settlement.DefaultScale
	}
	return &CircuitService{
		store:    store,
		notifier: notifier,
		locks:    newCircuitLocker(),
		scale:    scale,
		logger:   logger,
	}
}

// ParticipantStanding 参与者当前得分
type ParticipantStanding struct {
	UserID      string          `json:"user_id"`
	Score       int             `json:"score"`
	PaidEntry   bool            `json:"paid_entry"`
	PrizeAmount decimal.Decimal `json:"prize_amount"`
	IsLeader    bool            `json:"is_leader"`
	JoinedAt    int64           `json:"joined_at"` // 毫秒
}

// ComponentEventStatus 组件赛事进度
type ComponentEventStatus struct {
	EventID        uint64  `json:"event_id"`
	Name           string  `json:"name"`
	Weight         int     `json:"weight"`
	BettingType    string  `json:"betting_type"`
	IsTiebreaker   bool    `json:"is_tiebreaker"`
	Completed      bool    `json:"completed"`
	WinningOutcome *string `json:"winning_outcome,omitempty"`
}

// CircuitStatus 锦标赛状态与完成度
type CircuitStatus struct {
	CircuitID          uint64                 `json:"circuit_id"`
	Name               string                 `json:"name"`
	Status             string                 `json:"status"`
	CaptainID          string                 `json:"captain_id"`
	WinnerID           *string                `json:"winner_id,omitempty"`
	EntryFee           decimal.Decimal        `json:"entry_fee"`
	PrizePool          decimal.Decimal        `json:"prize_pool"`
	TiebreakerEventID  *uint64                `json:"tiebreaker_event_id,omitempty"`
	Participants       []ParticipantStanding  `json:"participants"`
	Events             []ComponentEventStatus `json:"events"`
	CompletedEvents    int                    `json:"completed_events"`
	TotalEvents        int                    `json:"total_events"`
	ProgressPercentage float64                `json:"progress_percentage"`
	AllEventsCompleted bool                   `json:"all_events_completed"` // 不含加赛赛事
	HasTie             bool                   `json:"has_tie"`
	TiebreakerNeeded   bool                   `json:"tiebreaker_needed"`
	Leaders            []string               `json:"leaders"`
}

// CreateCircuit 创建锦标赛；调用者成为队长
func (s *CircuitService) CreateCircuit(ctx context.Context, callerID string, req *CreateCircuitRequest) (*model.Circuit, error) {
	if callerID == "" {
		return nil, ErrNotAuthorized
	}
	if err := req.Validate(s.scale); err != nil {
		return nil, err
	}

	var circuit *model.Circuit
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		ids := make([]uint64, 0, len(req.Components))
		for _, c := range req.Components {
			ids = append(ids, c.EventID)
		}
		events, err := tx.Events.ListEventsByIDs(ctx, ids)
		if err != nil {
			return fmt.Errorf("查询赛事失败: %w", err)
		}
		byID := make(map[uint64]*model.Event, len(events))
		for _, e := range events {
			byID[e.ID] = e
		}
		for _, id := range ids {
			e, ok := byID[id]
			if !ok {
				return fmt.Errorf("%w: event %d", ErrNotFound, id)
			}
			if e.LeagueID != req.LeagueID {
				return invalidInput("event %d belongs to another league", id)
			}
			if e.Completed {
				return invalidInput("event %d is already completed", id)
			}
		}

		circuit = &model.Circuit{
			LeagueID:          req.LeagueID,
			Name:              req.Name,
			Description:       req.Description,
			EntryFee:          req.EntryFee,
			Status:            model.CircuitStatusActive,
			CaptainID:         callerID,
			TiebreakerEventID: req.TiebreakerEventID,
			StartDate:         req.StartDate,
			EndDate:           req.EndDate,
		}
		components := make([]*model.CircuitComponentEvent, 0, len(req.Components))
		for _, c := range req.Components {
			components = append(components, &model.CircuitComponentEvent{EventID: c.EventID, Weight: c.Weight})
		}
		if err := tx.Circuits.CreateCircuit(ctx, circuit, components); err != nil {
			return fmt.Errorf("保存锦标赛失败: %w", err)
		}

		bets := make([]*model.Bet, 0, len(components))
		for _, c := range components {
			betType := model.BetTypeMoneyline
			if byID[c.EventID].IsTiebreakerType() || circuit.IsTiebreaker(c.EventID) {
				betType = model.BetTypeTiebreaker
			}
			bets = append(bets, &model.Bet{
				CircuitID: circuit.ID,
				EventID:   c.EventID,
				Type:      betType,
				Points:    c.Weight,
				Status:    model.BetStatusOpen,
			})
		}
		if err := tx.Bets.CreateBets(ctx, bets); err != nil {
			return fmt.Errorf("保存盘口失败: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{
		"circuit_id": circuit.ID,
		"captain":    callerID,
		"components": len(req.Components),
	}).Info("锦标赛已创建")
	return circuit, nil
}

// JoinCircuit 报名：扣除报名费并加入，仅 active 状态可报名
func (s *CircuitService) JoinCircuit(ctx context.Context, callerID string, circuitID uint64) (*model.CircuitParticipant, error) {
	if callerID == "" {
		return nil, ErrNotAuthorized
	}
	unlock := s.locks.Lock(circuitID)
	defer unlock()

	var participant *model.CircuitParticipant
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		circuit, err := tx.Circuits.GetCircuitForUpdate(ctx, circuitID)
		if err != nil {
			return notFound(err, "circuit")
		}
		switch circuit.Status {
		case model.CircuitStatusCompleted:
			return fmt.Errorf("%w: circuit %d", ErrAlreadyCompleted, circuitID)
		case model.CircuitStatusActive:
		default:
			return invalidInput("circuit %d is not accepting participants", circuitID)
		}
		if _, err := tx.Circuits.GetParticipant(ctx, circuitID, callerID); err == nil {
			return fmt.Errorf("%w: already joined circuit %d", ErrAlreadyExists, circuitID)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("查询参与者失败: %w", err)
		}

		if err := tx.Wallets.Debit(ctx, callerID, circuit.EntryFee, model.LedgerKindEntryFee, circuitRef(circuitID)); err != nil {
			return walletError(err)
		}
		participant = &model.CircuitParticipant{
			CircuitID: circuitID,
			UserID:    callerID,
			PaidEntry: true,
		}
		if err := tx.Circuits.AddParticipant(ctx, participant); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: already joined circuit %d", ErrAlreadyExists, circuitID)
			}
			return fmt.Errorf("保存参与者失败: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{"circuit_id": circuitID, "user_id": callerID}).Info("参与者已报名")
	return participant, nil
}

// PlaceCircuitBet 参与者对组件赛事下注，每个盘口每人一次
func (s *CircuitService) PlaceCircuitBet(ctx context.Context, callerID string, circuitID uint64, req *PlaceBetRequest) (*model.UserBet, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(circuitID)
	defer unlock()

	var userBet *model.UserBet
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		circuit, err := tx.Circuits.GetCircuit(ctx, circuitID)
		if err != nil {
			return notFound(err, "circuit")
		}
		switch circuit.Status {
		case model.CircuitStatusCompleted:
			return fmt.Errorf("%w: circuit %d", ErrAlreadyCompleted, circuitID)
		case model.CircuitStatusActive:
		default:
			// 并列已检测出，禁止再对加赛下注
			return invalidInput("circuit %d is no longer accepting bets", circuitID)
		}
		participant, err := tx.Circuits.GetParticipant(ctx, circuitID, callerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotAMember
			}
			return fmt.Errorf("查询参与者失败: %w", err)
		}
		component, err := tx.Circuits.GetComponent(ctx, circuitID, req.EventID)
		if err != nil {
			return notFound(err, "component event")
		}
		event, err := tx.Events.GetEvent(ctx, req.EventID)
		if err != nil {
			return notFound(err, "event")
		}
		if event.Completed {
			return fmt.Errorf("%w: event %d", ErrAlreadyCompleted, event.ID)
		}
		bet, err := tx.Bets.GetBet(ctx, circuitID, req.EventID)
		if err != nil {
			return notFound(err, "bet")
		}

		isTiebreaker := event.IsTiebreakerType() || circuit.IsTiebreaker(event.ID)
		choice, numeric, err := betSelection(event, isTiebreaker, req)
		if err != nil {
			return err
		}
		userBet = &model.UserBet{
			UserID:        callerID,
			BetID:         bet.ID,
			Choice:        choice,
			NumericChoice: numeric,
			PointsWagered: component.Weight,
			Result:        model.BetResultPending,
		}
		if err := tx.Bets.CreateUserBet(ctx, userBet); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: bet already placed on event %d", ErrAlreadyExists, event.ID)
			}
			return fmt.Errorf("保存下注失败: %w", err)
		}
		if circuit.IsTiebreaker(event.ID) {
			if err := tx.Circuits.LinkTiebreakerBet(ctx, participant.ID, userBet.ID); err != nil {
				return fmt.Errorf("关联加赛下注失败: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return userBet, nil
}

// betSelection 校验并归一化下注内容：普通赛事只收 choice，数值加赛需要数字，类别加赛需要 choice
func betSelection(event *model.Event, isTiebreaker bool, req *PlaceBetRequest) (string, *float64, error) {
	if !isTiebreaker {
		if req.NumericChoice != nil {
			return "", nil, invalidInput("numeric_choice is only accepted on tiebreaker events")
		}
		if req.Choice == "" {
			return "", nil, invalidInput("choice is required")
		}
		return req.Choice, nil, nil
	}
	if event.BettingType == model.BettingTypeTiebreakerUnique {
		if req.Choice == "" {
			return "", nil, invalidInput("choice is required")
		}
		return req.Choice, req.NumericChoice, nil
	}
	if req.NumericChoice != nil {
		n := decimal.NewFromFloat(*req.NumericChoice)
		if req.Choice == "" {
			return n.String(), req.NumericChoice, nil
		}
		// choice 原文参与裁定，两者必须一致
		if v, ok := settlement.ParseNumber(req.Choice); !ok || !v.Equal(n) {
			return "", nil, invalidInput("choice %q does not match numeric_choice", req.Choice)
		}
		return req.Choice, req.NumericChoice, nil
	}
	v, ok := settlement.ParseNumber(req.Choice)
	if !ok {
		return "", nil, invalidInput("tiebreaker event %d needs a numeric guess", event.ID)
	}
	f := v.InexactFloat64()
	return strings.TrimSpace(req.Choice), &f, nil
}

// CircuitBetView 用户在锦标赛内的下注及结果
type CircuitBetView struct {
	UserBetID      uint64   `json:"user_bet_id"`
	EventID        uint64   `json:"event_id"`
	EventName      string   `json:"event_name"`
	BetType        string   `json:"bet_type"`
	Choice         string   `json:"choice"`
	NumericChoice  *float64 `json:"numeric_choice,omitempty"`
	PointsWagered  int      `json:"points_wagered"`
	PointsEarned   int      `json:"points_earned"`
	Result         string   `json:"result"`
	EventCompleted bool     `json:"event_completed"`
	WinningOutcome *string  `json:"winning_outcome,omitempty"`
}

// ListCircuitBets 调用者在锦标赛内的下注；completedOnly 只返回已完赛的
func (s *CircuitService) ListCircuitBets(ctx context.Context, callerID string, circuitID uint64, completedOnly bool) ([]CircuitBetView, error) {
	circuit, err := s.store.Circuits.GetCircuit(ctx, circuitID)
	if err != nil {
		return nil, notFound(err, "circuit")
	}
	if err := s.checkMember(ctx, circuit, callerID); err != nil {
		return nil, err
	}
	userBets, err := s.store.Bets.ListUserBetsInCircuit(ctx, circuitID, callerID)
	if err != nil {
		return nil, fmt.Errorf("查询下注失败: %w", err)
	}
	bets, err := s.store.Bets.ListBetsByCircuit(ctx, circuitID)
	if err != nil {
		return nil, fmt.Errorf("查询盘口失败: %w", err)
	}
	betByID := make(map[uint64]*model.Bet, len(bets))
	eventIDs := make([]uint64, 0, len(bets))
	for _, b := range bets {
		betByID[b.ID] = b
		eventIDs = append(eventIDs, b.EventID)
	}
	events, err := s.store.Events.ListEventsByIDs(ctx, eventIDs)
	if err != nil {
		return nil, fmt.Errorf("查询赛事失败: %w", err)
	}
	eventByID := make(map[uint64]*model.Event, len(events))
	for _, e := range events {
		eventByID[e.ID] = e
	}

	views := make([]CircuitBetView, 0, len(userBets))
	for _, ub := range userBets {
		b, ok := betByID[ub.BetID]
		if !ok {
			continue
		}
		v := CircuitBetView{
			UserBetID:     ub.ID,
			EventID:       b.EventID,
			BetType:       b.Type,
			Choice:        ub.Choice,
			NumericChoice: ub.NumericChoice,
			PointsWagered: ub.PointsWagered,
			PointsEarned:  ub.PointsEarned,
			Result:        ub.Result,
		}
		if e, ok := eventByID[b.EventID]; ok {
			v.EventName = e.Name
			v.EventCompleted = e.Completed
			v.WinningOutcome = e.WinningOutcome
		}
		if completedOnly && !v.EventCompleted {
			continue
		}
		views = append(views, v)
	}
	return views, nil
}

// GetCircuitStatus 状态、各参与者得分与赛事完成度；仅参与者和队长可见
func (s *CircuitService) GetCircuitStatus(ctx context.Context, callerID string, circuitID uint64) (*CircuitStatus, error) {
	unlock := s.locks.Lock(circuitID)
	defer unlock()

	circuit, err := s.store.Circuits.GetCircuit(ctx, circuitID)
	if err != nil {
		return nil, notFound(err, "circuit")
	}
	if err := s.checkMember(ctx, circuit, callerID); err != nil {
		return nil, err
	}
	return buildStatus(ctx, s.store, circuit)
}

func (s *CircuitService) checkMember(ctx context.Context, circuit *model.Circuit, callerID string) error {
	if circuit.IsCaptain(callerID) {
		return nil
	}
	if callerID == "" {
		return ErrNotAMember
	}
	if _, err := s.store.Circuits.GetParticipant(ctx, circuit.ID, callerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotAMember
		}
		return fmt.Errorf("查询参与者失败: %w", err)
	}
	return nil
}

// buildStatus 汇总锦标赛当前状态；store 可以是事务内的
func buildStatus(ctx context.Context, store *repository.Store, circuit *model.Circuit) (*CircuitStatus, error) {
	components, err := store.Circuits.ListComponents(ctx, circuit.ID)
	if err != nil {
		return nil, fmt.Errorf("查询组件赛事失败: %w", err)
	}
	eventByID, err := componentEvents(ctx, store, components)
	if err != nil {
		return nil, err
	}
	participants, err := store.Circuits.ListParticipants(ctx, circuit.ID)
	if err != nil {
		return nil, fmt.Errorf("查询参与者失败: %w", err)
	}

	st := &CircuitStatus{
		CircuitID:          circuit.ID,
		Name:               circuit.Name,
		Status:             circuit.Status,
		CaptainID:          circuit.CaptainID,
		WinnerID:           circuit.WinnerID,
		EntryFee:           circuit.EntryFee,
		PrizePool:          settlement.PrizePool(circuit.EntryFee, len(participants)),
		TiebreakerEventID:  circuit.TiebreakerEventID,
		TotalEvents:        len(components),
		AllEventsCompleted: true,
		Events:             make([]ComponentEventStatus, 0, len(components)),
		Participants:       make([]ParticipantStanding, 0, len(participants)),
		Leaders:            []string{},
	}
	for _, c := range components {
		ev := eventByID[c.EventID]
		es := ComponentEventStatus{
			EventID:      c.EventID,
			Weight:       c.Weight,
			IsTiebreaker: circuit.IsTiebreaker(c.EventID),
		}
		if ev != nil {
			es.Name = ev.Name
			es.BettingType = ev.BettingType
			es.Completed = ev.Completed
			es.WinningOutcome = ev.WinningOutcome
		}
		if es.Completed {
			st.CompletedEvents++
		} else if !es.IsTiebreaker {
			st.AllEventsCompleted = false
		}
		st.Events = append(st.Events, es)
	}
	if st.TotalEvents > 0 {
		st.ProgressPercentage = float64(st.CompletedEvents) * 100 / float64(st.TotalEvents)
	}

	leaders := map[string]bool{}
	if len(participants) > 0 {
		l, err := settlement.DetermineLeaders(standingsOf(participants))
		if err != nil {
			return nil, err
		}
		for _, id := range l.UserIDs() {
			leaders[id] = true
		}
		st.Leaders = l.UserIDs()
		st.HasTie = l.Tied()
	}
	for _, p := range participants {
		st.Participants = append(st.Participants, ParticipantStanding{
			UserID:      p.UserID,
			Score:       p.Score,
			PaidEntry:   p.PaidEntry,
			PrizeAmount: p.PrizeAmount,
			IsLeader:    leaders[p.UserID],
			JoinedAt:    p.JoinedAt.UnixMilli(),
		})
	}
	sort.SliceStable(st.Participants, func(i, j int) bool {
		return st.Participants[i].Score > st.Participants[j].Score
	})
	st.TiebreakerNeeded = circuit.Status != model.CircuitStatusCompleted &&
		st.AllEventsCompleted && st.HasTie && circuit.TiebreakerEventID != nil
	return st, nil
}

func componentEvents(ctx context.Context, store *repository.Store, components []*model.CircuitComponentEvent) (map[uint64]*model.Event, error) {
	ids := make([]uint64, 0, len(components))
	for _, c := range components {
		ids = append(ids, c.EventID)
	}
	events, err := store.Events.ListEventsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("查询赛事失败: %w", err)
	}
	byID := make(map[uint64]*model.Event, len(events))
	for _, e := range events {
		byID[e.ID] = e
	}
	return byID, nil
}

func standingsOf(participants []*model.CircuitParticipant) []settlement.Standing {
	out := make([]settlement.Standing, 0, len(participants))
	for _, p := range participants {
		out = append(out, settlement.Standing{UserID: p.UserID, Score: p.Score, JoinedAt: p.JoinedAt})
	}
	return out
}

func circuitRef(circuitID uint64) string {
	return "circuit:" + strconv.FormatUint(circuitID, 10)
}

// deliver 事务提交后投递通知，失败只记日志
func (s *CircuitService) deliver(ctx context.Context, outbox []*interfaces.NotificationMessage) {
	if s.notifier == nil {
		return
	}
	for _, msg := range outbox {
		if err := s.notifier.Notify(ctx, msg); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"user_id": msg.UserID,
				"kind":    msg.Kind,
			}).Warn("通知投递失败")
		}
	}
}
