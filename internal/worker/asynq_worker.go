package worker

import (
	"context"
	"errors"

	"github.com/jixie-rent/server/internal/logger"
	"github.com/jixie-rent/server/internal/provider"
	"github.com/jixie-rent/server/internal/queue"
	"github.com/jixie-rent/server/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskNotificationDispatch, c.handleNotificationDispatch)
	mux.HandleFunc(queue.TaskPromotionOrderTimeoutCancel, c.handlePromotionOrderTimeoutCancel)
}

func (c *Consumer) handleNotificationDispatch(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil || c.NotificationService == nil {
		logger.Debugw("worker_notification_dispatch_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	payload, err := queue.ParseNotificationDispatchPayload(task)
	if err != nil {
		logger.Warnw("worker_notification_dispatch_unmarshal_failed", "error", err)
		return err
	}
	if payload.NotificationID == 0 {
		logger.Debugw("worker_notification_dispatch_skip_invalid_payload", "notification_id", payload.NotificationID)
		return nil
	}
	if err := c.NotificationService.Dispatch(ctx, payload.NotificationID); err != nil {
		if errors.Is(err, service.ErrNotificationNotFound) {
			logger.Debugw("worker_notification_dispatch_skip_not_found", "notification_id", payload.NotificationID)
			return nil
		}
		logger.Warnw("worker_notification_dispatch_failed", "notification_id", payload.NotificationID, "error", err)
		return err
	}
	return nil
}

func (c *Consumer) handlePromotionOrderTimeoutCancel(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil || c.PromotionOrderService == nil {
		logger.Debugw("worker_promotion_timeout_cancel_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	payload, err := queue.ParsePromotionOrderTimeoutCancelPayload(task)
	if err != nil {
		logger.Warnw("worker_promotion_timeout_cancel_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_promotion_timeout_cancel_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	if _, err := c.PromotionOrderService.CancelExpiredOrder(ctx, payload.OrderID); err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			logger.Debugw("worker_promotion_timeout_cancel_skip_not_found", "order_id", payload.OrderID)
			return nil
		}
		logger.Warnw("worker_promotion_timeout_cancel_failed", "order_id", payload.OrderID, "error", err)
		return err
	}
	return nil
}
