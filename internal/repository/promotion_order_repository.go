package repository

import (
	"strings"

	"github.com/jixie-rent/server/internal/models"

	"gorm.io/gorm"
)

// PromotionOrderRepository 推广订单数据访问接口
type PromotionOrderRepository interface {
	Create(order *models.PromotionOrder) error
	GetByID(id uint) (*models.PromotionOrder, error)
	GetByIDForUpdate(id uint) (*models.PromotionOrder, error)
	GetByOrderNo(orderNo string) (*models.PromotionOrder, error)
	ExistsByOrderNo(orderNo string) (bool, error)
	TransitionStatus(id uint, from, to string, updates map[string]interface{}) (int64, error)
	ListByBuyer(filter PromotionOrderListFilter) ([]models.PromotionOrder, int64, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormPromotionOrderRepository
}

// GormPromotionOrderRepository GORM 实现
type GormPromotionOrderRepository struct {
	db *gorm.DB
}

// NewPromotionOrderRepository 创建推广订单仓库
func NewPromotionOrderRepository(db *gorm.DB) *GormPromotionOrderRepository {
	return &GormPromotionOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPromotionOrderRepository) WithTx(tx *gorm.DB) *GormPromotionOrderRepository {
	if tx == nil {
		return r
	}
	return &GormPromotionOrderRepository{db: tx}
}

// Transaction 执行事务
func (r *GormPromotionOrderRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// Create 创建订单
func (r *GormPromotionOrderRepository) Create(order *models.PromotionOrder) error {
	return r.db.Create(order).Error
}

// GetByID 根据 ID 获取订单
func (r *GormPromotionOrderRepository) GetByID(id uint) (*models.PromotionOrder, error) {
	return r.first(r.db.Where("id = ?", id))
}

// GetByIDForUpdate 根据 ID 加锁获取订单
func (r *GormPromotionOrderRepository) GetByIDForUpdate(id uint) (*models.PromotionOrder, error) {
	return r.first(forUpdate(r.db).Where("id = ?", id))
}

// GetByOrderNo 根据订单号获取订单
func (r *GormPromotionOrderRepository) GetByOrderNo(orderNo string) (*models.PromotionOrder, error) {
	orderNo = strings.TrimSpace(orderNo)
	if orderNo == "" {
		return nil, nil
	}
	return r.first(r.db.Where("order_no = ?", orderNo))
}

// ExistsByOrderNo 判断订单号是否已存在
func (r *GormPromotionOrderRepository) ExistsByOrderNo(orderNo string) (bool, error) {
	var count int64
	if err := r.db.Model(&models.PromotionOrder{}).Where("order_no = ?", orderNo).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// TransitionStatus 条件更新订单状态，仅当当前状态为 from 时生效，返回影响行数
func (r *GormPromotionOrderRepository) TransitionStatus(id uint, from, to string, updates map[string]interface{}) (int64, error) {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = to
	result := r.db.Model(&models.PromotionOrder{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	return result.RowsAffected, result.Error
}

// ListByBuyer 获取购买人订单列表
func (r *GormPromotionOrderRepository) ListByBuyer(filter PromotionOrderListFilter) ([]models.PromotionOrder, int64, error) {
	query := r.db.Model(&models.PromotionOrder{}).Where("buyer_id = ?", filter.BuyerID)
	if filter.ListingID != 0 {
		query = query.Where("listing_id = ?", filter.ListingID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.OrderNo != "" {
		query = query.Where("order_no LIKE ?", "%"+filter.OrderNo+"%")
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var orders []models.PromotionOrder
	if err := query.Order("id desc").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *GormPromotionOrderRepository) first(query *gorm.DB) (*models.PromotionOrder, error) {
	return findFirst[models.PromotionOrder](query)
}
