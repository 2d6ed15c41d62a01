package models

import (
	"time"

	"gorm.io/gorm"
)

// Listing 设备出租/求租信息（CRUD 与审核由信息模块负责，推广模块只维护推广字段）
type Listing struct {
	ID                 uint           `gorm:"primarykey" json:"id"`                               // 主键
	OwnerID            uint           `gorm:"index;not null" json:"owner_id"`                     // 发布人ID
	Title              string         `gorm:"not null" json:"title"`                              // 标题
	Status             string         `gorm:"index;not null" json:"status"`                       // 发布状态
	CategoryID         uint           `gorm:"index" json:"category_id"`                           // 设备分类ID
	ProvinceID         uint           `gorm:"index" json:"province_id"`                           // 省ID
	CityID             uint           `gorm:"index" json:"city_id"`                               // 市ID
	CountyID           uint           `gorm:"index" json:"county_id"`                             // 区县ID
	Price              Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price"` // 租金
	ViewCount          int64          `gorm:"not null;default:0" json:"view_count"`               // 浏览量
	PromotionTier      int            `gorm:"index;not null;default:0" json:"promotion_tier"`     // 推广档位（0无/1推荐/2置顶）
	PromotionScope     *string        `gorm:"type:varchar(16)" json:"promotion_scope"`            // 推广地域范围
	PromotionExpiresAt *time.Time     `gorm:"index" json:"promotion_expires_at"`                  // 推广到期时间
	PromotionOrderID   *uint          `gorm:"index" json:"promotion_order_id"`                    // 当前推广所属订单ID
	PublishedAt        *time.Time     `gorm:"index" json:"published_at"`                          // 发布时间
	CreatedAt          time.Time      `gorm:"index" json:"created_at"`                            // 创建时间
	UpdatedAt          time.Time      `gorm:"index" json:"updated_at"`                            // 更新时间
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`                                     // 软删除时间
}

// TableName 指定表名
func (Listing) TableName() string {
	return "listings"
}
