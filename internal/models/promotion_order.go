package models

import (
	"time"
)

// PromotionOrder 推广订单
type PromotionOrder struct {
	ID                 uint       `gorm:"primarykey" json:"id"`                                         // 主键
	OrderNo            string     `gorm:"uniqueIndex;not null" json:"order_no"`                         // 订单号
	BuyerID            uint       `gorm:"index;not null" json:"buyer_id"`                               // 购买人ID
	ListingID          uint       `gorm:"index;not null" json:"listing_id"`                             // 推广信息ID
	Tier               int        `gorm:"not null" json:"tier"`                                         // 推广档位（1推荐/2置顶）
	RegionScope        string     `gorm:"type:varchar(16);not null" json:"region_scope"`                // 地域范围
	DurationMonths     int        `gorm:"not null" json:"duration_months"`                              // 推广月数
	UnitPrice          Money      `gorm:"type:decimal(20,2);not null" json:"unit_price"`                // 单价（元/月）
	Amount             Money      `gorm:"type:decimal(20,2);not null" json:"amount"`                    // 订单金额（服务端计算，创建后不可变）
	PaidAmount         Money      `gorm:"type:decimal(20,2);not null" json:"paid_amount"`               // 应付/实付金额
	RefundedAmount     Money      `gorm:"type:decimal(20,2);not null;default:0" json:"refunded_amount"` // 退款金额
	Currency           string     `gorm:"type:varchar(8);not null" json:"currency"`                     // 币种
	PaymentMethod      string     `gorm:"type:varchar(16)" json:"payment_method"`                       // 支付方式
	Status             string     `gorm:"index;type:varchar(16);not null" json:"status"`                // 订单状态
	GatewayTradeRef    string     `gorm:"index" json:"gateway_trade_ref"`                               // 第三方交易号
	PaidAt             *time.Time `gorm:"index" json:"paid_at"`                                         // 支付时间
	PromotionExpiresAt *time.Time `json:"promotion_expires_at"`                                         // 本单授予的推广到期时间
	RefundedAt         *time.Time `json:"refunded_at"`                                                  // 退款时间
	RefundReason       string     `gorm:"type:text" json:"refund_reason"`                               // 退款原因
	CancelledAt        *time.Time `json:"cancelled_at"`                                                 // 取消时间
	CreatedAt          time.Time  `gorm:"index" json:"created_at"`                                      // 创建时间
	UpdatedAt          time.Time  `gorm:"index" json:"updated_at"`                                      // 更新时间
}

// TableName 指定表名
func (PromotionOrder) TableName() string {
	return "promotion_orders"
}
