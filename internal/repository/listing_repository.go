package repository

import (
	"strings"
	"time"

	"github.com/jixie-rent/server/internal/constants"
	"github.com/jixie-rent/server/internal/models"

	"gorm.io/gorm"
)

// ListingRepository 信息数据访问接口（推广模块只读写推广字段）
type ListingRepository interface {
	GetByID(id uint) (*models.Listing, error)
	GetByIDForUpdate(id uint) (*models.Listing, error)
	ApplyPromotion(id uint, fields PromotionFields) error
	ClearPromotionByOrder(id uint, orderID uint) (int64, error)
	ClearExpiredPromotion(id uint, now time.Time) (int64, error)
	ListExpiredPromotions(now time.Time, afterID uint, limit int) ([]models.Listing, error)
	Search(filter ListingSearchFilter) ([]models.Listing, int64, error)
	WithTx(tx *gorm.DB) *GormListingRepository
}

// GormListingRepository GORM 实现
type GormListingRepository struct {
	db *gorm.DB
}

// NewListingRepository 创建信息仓库
func NewListingRepository(db *gorm.DB) *GormListingRepository {
	return &GormListingRepository{db: db}
}

// WithTx 绑定事务
func (r *GormListingRepository) WithTx(tx *gorm.DB) *GormListingRepository {
	if tx == nil {
		return r
	}
	return &GormListingRepository{db: tx}
}

// GetByID 根据 ID 获取信息
func (r *GormListingRepository) GetByID(id uint) (*models.Listing, error) {
	return findFirst[models.Listing](r.db, id)
}

// GetByIDForUpdate 根据 ID 加锁获取信息
func (r *GormListingRepository) GetByIDForUpdate(id uint) (*models.Listing, error) {
	return findFirst[models.Listing](forUpdate(r.db), id)
}

// ApplyPromotion 写入推广字段
func (r *GormListingRepository) ApplyPromotion(id uint, fields PromotionFields) error {
	scope := fields.Scope
	expiresAt := fields.ExpiresAt
	orderID := fields.OrderID
	return r.db.Model(&models.Listing{}).Where("id = ?", id).Updates(map[string]interface{}{
		"promotion_tier":       fields.Tier,
		"promotion_scope":      &scope,
		"promotion_expires_at": &expiresAt,
		"promotion_order_id":   &orderID,
		"updated_at":           time.Now(),
	}).Error
}

// ClearPromotionByOrder 仅当当前推广仍属于该订单时清空推广字段
func (r *GormListingRepository) ClearPromotionByOrder(id uint, orderID uint) (int64, error) {
	result := r.db.Model(&models.Listing{}).
		Where("id = ? AND promotion_order_id = ?", id, orderID).
		Updates(baselinePromotionUpdates())
	return result.RowsAffected, result.Error
}

// ClearExpiredPromotion 写入时复核到期时间后清空推广字段
func (r *GormListingRepository) ClearExpiredPromotion(id uint, now time.Time) (int64, error) {
	result := r.db.Model(&models.Listing{}).
		Where("id = ? AND promotion_tier <> ? AND promotion_expires_at <= ?", id, constants.PromotionTierNone, now).
		Updates(baselinePromotionUpdates())
	return result.RowsAffected, result.Error
}

// ListExpiredPromotions 按 ID 游标分批扫描已到期的推广信息
func (r *GormListingRepository) ListExpiredPromotions(now time.Time, afterID uint, limit int) ([]models.Listing, error) {
	if limit <= 0 {
		limit = 100
	}
	var listings []models.Listing
	err := r.db.Model(&models.Listing{}).
		Where("promotion_tier <> ? AND promotion_expires_at <= ? AND id > ?", constants.PromotionTierNone, now, afterID).
		Order("id asc").
		Limit(limit).
		Find(&listings).Error
	if err != nil {
		return nil, err
	}
	return listings, nil
}

// Search 按自然排序查询一页已发布信息
func (r *GormListingRepository) Search(filter ListingSearchFilter) ([]models.Listing, int64, error) {
	query := r.db.Model(&models.Listing{}).Where("status = ?", constants.ListingStatusPublished)
	if filter.CategoryID != 0 {
		query = query.Where("category_id = ?", filter.CategoryID)
	}
	if filter.ProvinceID != 0 {
		query = query.Where("province_id = ?", filter.ProvinceID)
	}
	if filter.CityID != 0 {
		query = query.Where("city_id = ?", filter.CityID)
	}
	if filter.CountyID != 0 {
		query = query.Where("county_id = ?", filter.CountyID)
	}
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		condition, arg := keywordMatch(r.db, "title", keyword)
		query = query.Where(condition+` ESCAPE '\'`, arg)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var listings []models.Listing
	if err := query.Order(organicOrder(filter.Sort)).Order("id desc").Find(&listings).Error; err != nil {
		return nil, 0, err
	}
	return listings, total, nil
}

func organicOrder(sort string) string {
	switch sort {
	case constants.ListingSortPopular:
		return "view_count desc"
	case constants.ListingSortPriceAsc:
		return "price asc"
	case constants.ListingSortPriceDesc:
		return "price desc"
	default:
		return "published_at desc"
	}
}

func baselinePromotionUpdates() map[string]interface{} {
	return map[string]interface{}{
		"promotion_tier":       constants.PromotionTierNone,
		"promotion_scope":      nil,
		"promotion_expires_at": nil,
		"promotion_order_id":   nil,
		"updated_at":           time.Now(),
	}
}
