package repository

import (
	"time"

	"github.com/jixie-rent/server/internal/constants"
	"github.com/jixie-rent/server/internal/models"

	"gorm.io/gorm"
)

// NotificationRepository 站内通知数据访问接口
type NotificationRepository interface {
	Create(notification *models.Notification) error
	GetByID(id uint) (*models.Notification, error)
	ClaimForDispatch(id uint, at, staleBefore time.Time) (int64, error)
	ReleaseClaim(id uint) (int64, error)
	MarkDispatched(id uint, at time.Time) (int64, error)
	ListPending(before time.Time, limit int) ([]models.Notification, error)
	List(filter NotificationListFilter) ([]models.Notification, int64, error)
	WithTx(tx *gorm.DB) *GormNotificationRepository
}

// GormNotificationRepository GORM 实现
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository 创建通知仓库
func NewNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

// WithTx 绑定事务
func (r *GormNotificationRepository) WithTx(tx *gorm.DB) *GormNotificationRepository {
	if tx == nil {
		return r
	}
	return &GormNotificationRepository{db: tx}
}

// Create 写入通知
func (r *GormNotificationRepository) Create(notification *models.Notification) error {
	return r.db.Create(notification).Error
}

// GetByID 根据 ID 获取通知
func (r *GormNotificationRepository) GetByID(id uint) (*models.Notification, error) {
	return findFirst[models.Notification](r.db, id)
}

// ClaimForDispatch 认领待投递通知；认领时间早于 staleBefore 的投递中记录可被重新认领
func (r *GormNotificationRepository) ClaimForDispatch(id uint, at, staleBefore time.Time) (int64, error) {
	result := r.db.Model(&models.Notification{}).
		Where("id = ? AND (status = ? OR (status = ? AND claimed_at <= ?))",
			id, constants.NotificationStatusPending, constants.NotificationStatusDispatching, staleBefore).
		Updates(map[string]interface{}{
			"status":     constants.NotificationStatusDispatching,
			"claimed_at": at,
		})
	return result.RowsAffected, result.Error
}

// ReleaseClaim 投递失败时退回待投递状态
func (r *GormNotificationRepository) ReleaseClaim(id uint) (int64, error) {
	result := r.db.Model(&models.Notification{}).
		Where("id = ? AND status = ?", id, constants.NotificationStatusDispatching).
		Updates(map[string]interface{}{
			"status":     constants.NotificationStatusPending,
			"claimed_at": nil,
		})
	return result.RowsAffected, result.Error
}

// MarkDispatched 标记通知已投递（仅对已认领记录生效）
func (r *GormNotificationRepository) MarkDispatched(id uint, at time.Time) (int64, error) {
	result := r.db.Model(&models.Notification{}).
		Where("id = ? AND status = ?", id, constants.NotificationStatusDispatching).
		Updates(map[string]interface{}{
			"status":        constants.NotificationStatusDispatched,
			"dispatched_at": at,
		})
	return result.RowsAffected, result.Error
}

// ListPending 获取创建时间早于 before 的待投递通知，以及认领已超时的投递中通知
func (r *GormNotificationRepository) ListPending(before time.Time, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = 100
	}
	var notifications []models.Notification
	if err := r.db.Where("(status = ? AND created_at <= ?) OR (status = ? AND claimed_at <= ?)",
		constants.NotificationStatusPending, before,
		constants.NotificationStatusDispatching, before).
		Order("id asc").
		Limit(limit).
		Find(&notifications).Error; err != nil {
		return nil, err
	}
	return notifications, nil
}

// List 分页查询通知
func (r *GormNotificationRepository) List(filter NotificationListFilter) ([]models.Notification, int64, error) {
	query := r.db.Model(&models.Notification{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var notifications []models.Notification
	if err := query.Order("id desc").Find(&notifications).Error; err != nil {
		return nil, 0, err
	}
	return notifications, total, nil
}
