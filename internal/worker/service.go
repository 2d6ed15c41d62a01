package worker

import (
	"context"
	"errors"
	"time"

	"github.com/jixie-rent/server/internal/cache"
	"github.com/jixie-rent/server/internal/config"
	"github.com/jixie-rent/server/internal/logger"
	"github.com/jixie-rent/server/internal/queue"
	"github.com/jixie-rent/server/internal/service"

	"github.com/hibiken/asynq"
)

const (
	sweepLockKey               = "promotion:expiry_sweep"
	notificationRedispatchAge  = 5 * time.Minute
	notificationRedispatchSize = 100
)

// Service 后台任务服务（队列消费 + 推广到期扫描）
type Service struct {
	name          string
	server        *asynq.Server
	mux           *asynq.ServeMux
	consumer      *Consumer
	sweepInterval time.Duration
}

// NewService 创建后台任务服务，队列未启用时只运行到期扫描
func NewService(queueCfg *config.QueueConfig, promotionCfg *config.PromotionConfig, consumer *Consumer) (*Service, error) {
	if consumer == nil || consumer.Container == nil {
		return nil, errors.New("consumer is nil")
	}
	interval := 60 * time.Minute
	if promotionCfg != nil && promotionCfg.SweepIntervalMinutes > 0 {
		interval = time.Duration(promotionCfg.SweepIntervalMinutes) * time.Minute
	}
	s := &Service{
		name:          "worker",
		consumer:      consumer,
		sweepInterval: interval,
	}
	if queueCfg != nil && queueCfg.Enabled {
		opt, serverCfg := queue.BuildServerConfig(queueCfg)
		s.server = asynq.NewServer(opt, serverCfg)
		s.mux = asynq.NewServeMux()
		consumer.Register(s.mux)
	}
	return s, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.consumer == nil {
		return errors.New("worker not initialized")
	}
	go s.runSweepLoop(ctx)
	if s.server == nil {
		<-ctx.Done()
		return nil
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

// RunSweepOnce 执行一次到期扫描；其他实例持有锁时跳过
func (s *Service) RunSweepOnce(ctx context.Context, now time.Time) (service.SweepResult, bool, error) {
	if s == nil || s.consumer == nil || s.consumer.PromotionExpiryService == nil {
		return service.SweepResult{}, false, errors.New("expiry service not initialized")
	}
	lock, ok, err := cache.TryLock(ctx, sweepLockKey, s.sweepInterval)
	if err != nil {
		logger.Warnw("worker_sweep_lock_failed", "error", err)
	} else if !ok {
		logger.Debugw("worker_sweep_skip_locked")
		return service.SweepResult{}, false, nil
	}
	defer func() {
		if lock == nil {
			return
		}
		if unlockErr := lock.Unlock(context.Background()); unlockErr != nil {
			logger.Warnw("worker_sweep_unlock_failed", "error", unlockErr)
		}
	}()

	result, err := s.consumer.PromotionExpiryService.Sweep(ctx, now)
	if err != nil {
		return result, true, err
	}
	if s.consumer.NotificationService != nil {
		if _, err := s.consumer.NotificationService.DispatchPending(ctx, now.Add(-notificationRedispatchAge), notificationRedispatchSize); err != nil {
			logger.Warnw("worker_notification_redispatch_failed", "error", err)
		}
	}
	return result, true, nil
}

func (s *Service) runSweepLoop(ctx context.Context) {
	runOnce := func() {
		if _, _, err := s.RunSweepOnce(ctx, time.Now()); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warnw("worker_promotion_sweep_failed", "error", err)
		}
	}
	runOnce()

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
