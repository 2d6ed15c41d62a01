package queue

import (
	"encoding/json"

	"github.com/jixie-rent/server/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskNotificationDispatch 站内通知投递任务
	TaskNotificationDispatch = constants.TaskPromotionNotificationDispatch
	// TaskPromotionOrderTimeoutCancel 推广订单超时取消任务
	TaskPromotionOrderTimeoutCancel = constants.TaskPromotionOrderTimeoutCancel
)

// NotificationDispatchPayload 通知投递任务载荷
type NotificationDispatchPayload struct {
	NotificationID uint `json:"notification_id"`
}

// PromotionOrderTimeoutCancelPayload 超时取消任务载荷
type PromotionOrderTimeoutCancelPayload struct {
	OrderID uint `json:"order_id"`
}

// NewNotificationDispatchTask 创建通知投递任务
func NewNotificationDispatchTask(payload NotificationDispatchPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNotificationDispatch, body), nil
}

// NewPromotionOrderTimeoutCancelTask 创建超时取消任务
func NewPromotionOrderTimeoutCancelTask(payload PromotionOrderTimeoutCancelPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPromotionOrderTimeoutCancel, body), nil
}

// ParseNotificationDispatchPayload 解析通知投递载荷
func ParseNotificationDispatchPayload(task *asynq.Task) (NotificationDispatchPayload, error) {
	var payload NotificationDispatchPayload
	err := json.Unmarshal(task.Payload(), &payload)
	return payload, err
}

// ParsePromotionOrderTimeoutCancelPayload 解析超时取消载荷
func ParsePromotionOrderTimeoutCancelPayload(task *asynq.Task) (PromotionOrderTimeoutCancelPayload, error) {
	var payload PromotionOrderTimeoutCancelPayload
	err := json.Unmarshal(task.Payload(), &payload)
	return payload, err
}
