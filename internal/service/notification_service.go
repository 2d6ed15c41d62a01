package service

import (
	"context"
	"strings"
	"time"

	"github.com/jixie-rent/server/internal/constants"
	"github.com/jixie-rent/server/internal/logger"
	"github.com/jixie-rent/server/internal/models"
	"github.com/jixie-rent/server/internal/queue"
	"github.com/jixie-rent/server/internal/repository"

	"gorm.io/gorm"
)

// notificationClaimTTL 投递认领超时时间，超时后可被补偿任务重新认领
const notificationClaimTTL = 5 * time.Minute

// NotificationSink 通知投递通道（短信、推送等由外部模块实现）
type NotificationSink interface {
	Deliver(ctx context.Context, notification *models.Notification) error
}

// LogNotificationSink 仅记录日志的投递通道
type LogNotificationSink struct{}

// Deliver 记录通知内容
func (LogNotificationSink) Deliver(ctx context.Context, notification *models.Notification) error {
	logger.FromContext(ctx).Infow("notification_delivered",
		"notification_id", notification.ID,
		"user_id", notification.UserID,
		"kind", notification.Kind,
		"related_id", notification.RelatedID,
	)
	return nil
}

// NotificationInput 通知写入参数
type NotificationInput struct {
	UserID    uint
	Kind      string
	Title     string
	Body      string
	RelatedID uint
}

// NotificationService 站内通知服务（事务内写入，提交后投递）
type NotificationService struct {
	repo        repository.NotificationRepository
	queueClient *queue.Client
	sink        NotificationSink
}

// NewNotificationService 创建通知服务
func NewNotificationService(repo repository.NotificationRepository, queueClient *queue.Client, sink NotificationSink) *NotificationService {
	if sink == nil {
		sink = LogNotificationSink{}
	}
	return &NotificationService{
		repo:        repo,
		queueClient: queueClient,
		sink:        sink,
	}
}

// EnqueueInTx 在业务事务内写入待投递通知
func (s *NotificationService) EnqueueInTx(tx *gorm.DB, input NotificationInput) (*models.Notification, error) {
	if input.UserID == 0 || strings.TrimSpace(input.Kind) == "" {
		return nil, ErrNotificationFailed
	}
	notification := &models.Notification{
		UserID:    input.UserID,
		Kind:      strings.TrimSpace(input.Kind),
		Title:     strings.TrimSpace(input.Title),
		Body:      strings.TrimSpace(input.Body),
		RelatedID: input.RelatedID,
		Status:    constants.NotificationStatusPending,
		CreatedAt: time.Now(),
	}
	repo := s.repo
	if tx != nil {
		repo = s.repo.WithTx(tx)
	}
	if err := repo.Create(notification); err != nil {
		return nil, err
	}
	return notification, nil
}

// Publish 事务提交后投递通知；队列未启用时同步投递，失败的记录保留为待投递
func (s *NotificationService) Publish(ctx context.Context, notifications ...*models.Notification) {
	for _, notification := range notifications {
		if notification == nil || notification.ID == 0 {
			continue
		}
		if s.queueClient.Enabled() {
			if err := s.queueClient.EnqueueNotificationDispatch(queue.NotificationDispatchPayload{
				NotificationID: notification.ID,
			}); err != nil {
				logger.FromContext(ctx).Warnw("notification_enqueue_failed",
					"notification_id", notification.ID,
					"kind", notification.Kind,
					"error", err,
				)
			}
			continue
		}
		if err := s.Dispatch(ctx, notification.ID); err != nil {
			logger.FromContext(ctx).Warnw("notification_dispatch_failed",
				"notification_id", notification.ID,
				"kind", notification.Kind,
				"error", err,
			)
		}
	}
}

// Dispatch 认领并投递单条通知，已投递或正被投递的记录直接返回
func (s *NotificationService) Dispatch(ctx context.Context, notificationID uint) error {
	notification, err := s.repo.GetByID(notificationID)
	if err != nil {
		return err
	}
	if notification == nil {
		return ErrNotificationNotFound
	}
	if notification.Status == constants.NotificationStatusDispatched {
		return nil
	}
	now := time.Now()
	claimed, err := s.repo.ClaimForDispatch(notification.ID, now, now.Add(-notificationClaimTTL))
	if err != nil {
		return err
	}
	if claimed == 0 {
		return nil
	}
	if err := s.sink.Deliver(ctx, notification); err != nil {
		if _, releaseErr := s.repo.ReleaseClaim(notification.ID); releaseErr != nil {
			logger.FromContext(ctx).Warnw("notification_release_failed",
				"notification_id", notification.ID,
				"error", releaseErr,
			)
		}
		return err
	}
	if _, err := s.repo.MarkDispatched(notification.ID, time.Now()); err != nil {
		return err
	}
	return nil
}

// DispatchPending 补偿投递早于 before 仍未投递的通知，返回成功条数
func (s *NotificationService) DispatchPending(ctx context.Context, before time.Time, limit int) (int, error) {
	pending, err := s.repo.ListPending(before, limit)
	if err != nil {
		return 0, err
	}
	dispatched := 0
	for i := range pending {
		if err := s.Dispatch(ctx, pending[i].ID); err != nil {
			logger.FromContext(ctx).Warnw("notification_redispatch_failed",
				"notification_id", pending[i].ID,
				"error", err,
			)
			continue
		}
		dispatched++
	}
	return dispatched, nil
}

// ListByUser 查询用户通知
func (s *NotificationService) ListByUser(filter repository.NotificationListFilter) ([]models.Notification, int64, error) {
	if filter.UserID == 0 {
		return nil, 0, ErrNotificationNotFound
	}
	return s.repo.List(filter)
}
