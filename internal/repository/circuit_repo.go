package repository

import (
	"context"
	"time"

	"CircuitEngine/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CircuitRepository 锦标赛、组件赛事与参与者持久化
type CircuitRepository interface {
	CreateCircuit(ctx context.Context, circuit *model.Circuit, components []*model.CircuitComponentEvent) error
	GetCircuit(ctx context.Context, id uint64) (*model.Circuit, error)
	// GetCircuitForUpdate 事务内加行锁读取（SELECT ... FOR UPDATE）
	GetCircuitForUpdate(ctx context.Context, id uint64) (*model.Circuit, error)
	ListCircuitsByStatus(ctx context.Context, statuses []string, limit int) ([]*model.Circuit, error)
	// TransitionStatus 仅当当前状态属于 from 时更新，返回是否更新成功
	TransitionStatus(ctx context.Context, id uint64, from []string, to string) (bool, error)
	// MarkCompleted 置为 completed 并写入 winner_id；已 completed 时返回 false
	MarkCompleted(ctx context.Context, id uint64, winnerID *string) (bool, error)

	ListComponents(ctx context.Context, circuitID uint64) ([]*model.CircuitComponentEvent, error)
	GetComponent(ctx context.Context, circuitID, eventID uint64) (*model.CircuitComponentEvent, error)

	AddParticipant(ctx context.Context, p *model.CircuitParticipant) error
	GetParticipant(ctx context.Context, circuitID uint64, userID string) (*model.CircuitParticipant, error)
	ListParticipants(ctx context.Context, circuitID uint64) ([]*model.CircuitParticipant, error)
	AddScore(ctx context.Context, participantID uint64, delta int) error
	SetPrizeAmount(ctx context.Context, participantID uint64, amount decimal.Decimal) error
	LinkTiebreakerBet(ctx context.Context, participantID, userBetID uint64) error
}

type circuitRepository struct {
	db *gorm.DB
}

// NewCircuitRepository 创建锦标赛仓储
func NewCircuitRepository(db *gorm.DB) CircuitRepository {
	return &circuitRepository{db: db}
}

func (r *circuitRepository) CreateCircuit(ctx context.Context, circuit *model.Circuit, components []*model.CircuitComponentEvent) error {
	db := r.db.WithContext(ctx)
	if err := db.Create(circuit).Error; err != nil {
		return err
	}
	for _, c := range components {
		c.CircuitID = circuit.ID
	}
	if len(components) == 0 {
		return nil
	}
	return db.Create(&components).Error
}

func (r *circuitRepository) GetCircuit(ctx context.Context, id uint64) (*model.Circuit, error) {
	var c model.Circuit
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *circuitRepository) GetCircuitForUpdate(ctx context.Context, id uint64) (*model.Circuit, error) {
	var c model.Circuit
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *circuitRepository) ListCircuitsByStatus(ctx context.Context, statuses []string, limit int) ([]*model.Circuit, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var list []*model.Circuit
	if err := r.db.WithContext(ctx).
		Where("status IN ?", statuses).
		Order("id ASC").
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *circuitRepository) TransitionStatus(ctx context.Context, id uint64, from []string, to string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Circuit{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *circuitRepository) MarkCompleted(ctx context.Context, id uint64, winnerID *string) (bool, error) {
	now := time.Now()
	res := r.db.WithContext(ctx).Model(&model.Circuit{}).
		Where("id = ? AND status <> ?", id, model.CircuitStatusCompleted).
		Updates(map[string]interface{}{
			"status":       model.CircuitStatusCompleted,
			"winner_id":    winnerID,
			"completed_at": now,
			"updated_at":   now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *circuitRepository) ListComponents(ctx context.Context, circuitID uint64) ([]*model.CircuitComponentEvent, error) {
	var list []*model.CircuitComponentEvent
	if err := r.db.WithContext(ctx).Where("circuit_id = ?", circuitID).Order("id ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *circuitRepository) GetComponent(ctx context.Context, circuitID, eventID uint64) (*model.CircuitComponentEvent, error) {
	var c model.CircuitComponentEvent
	if err := r.db.WithContext(ctx).Where("circuit_id = ? AND event_id = ?", circuitID, eventID).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *circuitRepository) AddParticipant(ctx context.Context, p *model.CircuitParticipant) error {
	if p.JoinedAt.IsZero() {
		p.JoinedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *circuitRepository) GetParticipant(ctx context.Context, circuitID uint64, userID string) (*model.CircuitParticipant, error) {
	var p model.CircuitParticipant
	if err := r.db.WithContext(ctx).Where("circuit_id = ? AND user_id = ?", circuitID, userID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *circuitRepository) ListParticipants(ctx context.Context, circuitID uint64) ([]*model.CircuitParticipant, error) {
	var list []*model.CircuitParticipant
	if err := r.db.WithContext(ctx).
		Where("circuit_id = ?", circuitID).
		Order("joined_at ASC, id ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *circuitRepository) AddScore(ctx context.Context, participantID uint64, delta int) error {
	return r.db.WithContext(ctx).Model(&model.CircuitParticipant{}).
		Where("id = ?", participantID).
		Update("score", gorm.Expr("score + ?", delta)).Error
}

func (r *circuitRepository) SetPrizeAmount(ctx context.Context, participantID uint64, amount decimal.Decimal) error {
	return r.db.WithContext(ctx).Model(&model.CircuitParticipant{}).
		Where("id = ?", participantID).
		Update("prize_amount", amount).Error
}

func (r *circuitRepository) LinkTiebreakerBet(ctx context.Context, participantID, userBetID uint64) error {
	return r.db.WithContext(ctx).Model(&model.CircuitParticipant{}).
		Where("id = ?", participantID).
		Update("tiebreaker_bet_id", userBetID).Error
}
