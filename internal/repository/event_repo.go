package repository

import (
	"context"
	"time"

	"CircuitEngine/internal/model"

	"gorm.io/gorm"
)

// EventRepository 联赛赛事持久化
type EventRepository interface {
	CreateEvent(ctx context.Context, event *model.Event) error
	GetEvent(ctx context.Context, id uint64) (*model.Event, error)
	ListEventsByIDs(ctx context.Context, ids []uint64) ([]*model.Event, error)
	// CompleteEvent 仅当 completed = false 时写入赛果并置为已完成，返回是否由本次调用完成
	CompleteEvent(ctx context.Context, id uint64, winningOutcome string, numericResult *float64) (bool, error)
}

type eventRepository struct {
	db *gorm.DB
}

// NewEventRepository 创建赛事仓储
func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) CreateEvent(ctx context.Context, event *model.Event) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *eventRepository) GetEvent(ctx context.Context, id uint64) (*model.Event, error) {
	var e model.Event
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&e).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *eventRepository) ListEventsByIDs(ctx context.Context, ids []uint64) ([]*model.Event, error) {
	if len(ids) == 0 {
		return []*model.Event{}, nil
	}
	var list []*model.Event
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *eventRepository) CompleteEvent(ctx context.Context, id uint64, winningOutcome string, numericResult *float64) (bool, error) {
	now := time.Now()
	res := r.db.WithContext(ctx).Model(&model.Event{}).
		Where("id = ? AND completed = ?", id, false).
		Updates(map[string]interface{}{
			"completed":       true,
			"winning_outcome": winningOutcome,
			"numeric_result":  numericResult,
			"completed_at":    now,
			"updated_at":      now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
