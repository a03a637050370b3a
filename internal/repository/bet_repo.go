package repository

import (
	"context"
	"time"

	"CircuitEngine/internal/model"

	"gorm.io/gorm"
)

// BetRepository 锦标赛盘口与用户下注持久化
type BetRepository interface {
	CreateBets(ctx context.Context, bets []*model.Bet) error
	GetBet(ctx context.Context, circuitID, eventID uint64) (*model.Bet, error)
	ListBetsByCircuit(ctx context.Context, circuitID uint64) ([]*model.Bet, error)
	MarkBetSettled(ctx context.Context, betID uint64) error

	// CreateUserBet (user_id, bet_id) 重复时返回 gorm.ErrDuplicatedKey
	CreateUserBet(ctx context.Context, ub *model.UserBet) error
	ListUserBets(ctx context.Context, betID uint64) ([]*model.UserBet, error)
	ListUserBetsInCircuit(ctx context.Context, circuitID uint64, userID string) ([]*model.UserBet, error)
	SetUserBetResult(ctx context.Context, userBetID uint64, result string, pointsEarned int) error
	SetResultForBet(ctx context.Context, betID uint64, result string) error
}

type betRepository struct {
	db *gorm.DB
}

// NewBetRepository 创建下注仓储
func NewBetRepository(db *gorm.DB) BetRepository {
	return &betRepository{db: db}
}

func (r *betRepository) CreateBets(ctx context.Context, bets []*model.Bet) error {
	if len(bets) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&bets).Error
}

func (r *betRepository) GetBet(ctx context.Context, circuitID, eventID uint64) (*model.Bet, error) {
	var b model.Bet
	if err := r.db.WithContext(ctx).Where("circuit_id = ? AND event_id = ?", circuitID, eventID).First(&b).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *betRepository) ListBetsByCircuit(ctx context.Context, circuitID uint64) ([]*model.Bet, error) {
	var list []*model.Bet
	if err := r.db.WithContext(ctx).Where("circuit_id = ?", circuitID).Order("id ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *betRepository) MarkBetSettled(ctx context.Context, betID uint64) error {
	return r.db.WithContext(ctx).Model(&model.Bet{}).
		Where("id = ?", betID).
		Updates(map[string]interface{}{"status": model.BetStatusSettled, "updated_at": time.Now()}).Error
}

func (r *betRepository) CreateUserBet(ctx context.Context, ub *model.UserBet) error {
	return r.db.WithContext(ctx).Create(ub).Error
}

func (r *betRepository) ListUserBets(ctx context.Context, betID uint64) ([]*model.UserBet, error) {
	var list []*model.UserBet
	if err := r.db.WithContext(ctx).Where("bet_id = ?", betID).Order("id ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *betRepository) ListUserBetsInCircuit(ctx context.Context, circuitID uint64, userID string) ([]*model.UserBet, error) {
	var list []*model.UserBet
	if err := r.db.WithContext(ctx).
		Joins("JOIN bets ON bets.id = user_bets.bet_id").
		Where("bets.circuit_id = ? AND user_bets.user_id = ?", circuitID, userID).
		Order("user_bets.id ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *betRepository) SetUserBetResult(ctx context.Context, userBetID uint64, result string, pointsEarned int) error {
	return r.db.WithContext(ctx).Model(&model.UserBet{}).
		Where("id = ?", userBetID).
		Updates(map[string]interface{}{
			"result":        result,
			"points_earned": pointsEarned,
			"updated_at":    time.Now(),
		}).Error
}

func (r *betRepository) SetResultForBet(ctx context.Context, betID uint64, result string) error {
	return r.db.WithContext(ctx).Model(&model.UserBet{}).
		Where("bet_id = ?", betID).
		Updates(map[string]interface{}{"result": result, "updated_at": time.Now()}).Error
}
