package service

import (
	"context"
	"encoding/json"
	"fmt"

	"CircuitEngine/internal/model"
	"CircuitEngine/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// EventService 联赛赛事（手动录入）
type EventService struct {
	repo   repository.EventRepository
	logger *logrus.Logger
}

// NewEventService 创建 EventService
func NewEventService(repo repository.EventRepository, logger *logrus.Logger) *EventService {
	return &EventService{repo: repo, logger: logger}
}

// CreateEvent 创建赛事，outcomes 仅作展示写入 market_data
func (s *EventService) CreateEvent(ctx context.Context, req *CreateEventRequest) (*model.Event, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	event := &model.Event{
		LeagueID:     req.LeagueID,
		Name:         req.Name,
		Sport:        req.Sport,
		HomeTeam:     req.HomeTeam,
		AwayTeam:     req.AwayTeam,
		CommenceTime: req.CommenceTime,
		BettingType:  req.BettingType,
	}
	if len(req.Outcomes) > 0 {
		raw, err := json.Marshal(map[string]interface{}{"outcomes": req.Outcomes})
		if err != nil {
			return nil, fmt.Errorf("序列化 market_data 失败: %w", err)
		}
		event.MarketData = datatypes.JSON(raw)
	}
	if err := s.repo.CreateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("保存赛事失败: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"event_id":     event.ID,
		"league_id":    event.LeagueID,
		"betting_type": event.BettingType,
	}).Info("赛事已创建")
	return event, nil
}

// GetEvent 赛事详情
func (s *EventService) GetEvent(ctx context.Context, id uint64) (*model.Event, error) {
	e, err := s.repo.GetEvent(ctx, id)
	if err != nil {
		return nil, notFound(err, "event")
	}
	return e, nil
}
