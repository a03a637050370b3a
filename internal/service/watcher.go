package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"CircuitEngine/internal/interfaces"
	"CircuitEngine/internal/model"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"
)

// CompletionWatcher 定时扫描 active 锦标赛：非加赛赛事全部完成后做并列检测，
// 并列则转 calculating 并通知队长；唯一领先者且开启 autoComplete 时代队长结算
type CompletionWatcher struct {
	circuits     *CircuitService
	autoComplete bool
	batchSize    int
	logger       *logrus.Logger
	scheduler    gocron.Scheduler
}

// NewCompletionWatcher 创建定时任务（未启动）
func NewCompletionWatcher(circuits *CircuitService, autoComplete bool, logger *logrus.Logger) *CompletionWatcher {
	return &CompletionWatcher{
		circuits:     circuits,
		autoComplete: autoComplete,
		batchSize:    200,
		logger:       logger,
	}
}

// Start 按 interval 周期执行 Run
func (w *CompletionWatcher) Start(interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("创建调度器失败: %w", err)
	}
	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			defer cancel()
			if err := w.Run(ctx); err != nil {
				w.logger.WithError(err).Warn("CompletionWatcher.Run")
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("注册定时任务失败: %w", err)
	}
	sched.Start()
	w.scheduler = sched
	w.logger.Infof("锦标赛完成检测已启动，间隔 %s，自动结算=%v", interval, w.autoComplete)
	return nil
}

// Stop 停止调度器
func (w *CompletionWatcher) Stop() error {
	if w.scheduler == nil {
		return nil
	}
	return w.scheduler.Shutdown()
}

// Run 执行一轮扫描
func (w *CompletionWatcher) Run(ctx context.Context) error {
	store := w.circuits.store
	circuits, err := store.Circuits.ListCircuitsByStatus(ctx, []string{model.CircuitStatusActive}, w.batchSize)
	if err != nil {
		return fmt.Errorf("ListCircuitsByStatus: %w", err)
	}

	var tied, completed int
	for _, c := range circuits {
		if err := requireEventsCompleted(ctx, store, c); err != nil {
			if !errors.Is(err, ErrEventsPending) {
				w.logger.WithError(err).WithField("circuit_id", c.ID).Warn("检查赛事完成度失败")
			}
			continue
		}
		res, err := w.circuits.DetermineLeaders(ctx, c.ID)
		if err != nil {
			if !errors.Is(err, ErrNoParticipants) && !errors.Is(err, ErrAlreadyCompleted) {
				w.logger.WithError(err).WithField("circuit_id", c.ID).Warn("DetermineLeaders")
			}
			continue
		}
		if res.Tied {
			tied++
			w.circuits.deliver(ctx, []*interfaces.NotificationMessage{{
				UserID:      c.CaptainID,
				Kind:        model.NotificationCircuitTie,
				Message:     fmt.Sprintf("Circuit %q is tied at %d points; complete it or resolve the tiebreaker", c.Name, res.TopScore),
				ReferenceID: c.ID,
				Payload:     map[string]interface{}{"circuit_id": c.ID, "tied_user_ids": res.Leaders},
			}})
			continue
		}
		if !w.autoComplete {
			continue
		}
		if _, err := w.circuits.CompleteCircuit(ctx, c.CaptainID, c.ID); err != nil {
			if !errors.Is(err, ErrAlreadyCompleted) {
				w.logger.WithError(err).WithField("circuit_id", c.ID).Warn("自动结算失败")
			}
			continue
		}
		completed++
	}

	if tied > 0 || completed > 0 {
		w.logger.Infof("完成检测：%d 个锦标赛并列待裁定，%d 个已自动结算", tied, completed)
	}
	return nil
}
