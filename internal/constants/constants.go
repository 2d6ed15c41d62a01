package constants

// 推广订单状态常量
const (
	PromotionOrderStatusPending   = "pending"
	PromotionOrderStatusPaid      = "paid"
	PromotionOrderStatusRefunded  = "refunded"
	PromotionOrderStatusCancelled = "cancelled"
)

// 推广档位常量（数值越大排名越靠前）
const (
	PromotionTierNone        = 0
	PromotionTierRecommended = 1
	PromotionTierTop         = 2
)

// 推广地域范围常量
const (
	PromotionScopeProvince = "province"
	PromotionScopeCity     = "city"
	PromotionScopeCounty   = "county"
)

// 推广时长范围（月）
const (
	PromotionMinDurationMonths = 1
	PromotionMaxDurationMonths = 12
)

// 支付方式常量
const (
	PaymentMethodBalance = "balance"
	PaymentMethodAlipay  = "alipay"
	PaymentMethodWechat  = "wechat"
)

// 信息发布状态常量（仅读取）
const (
	ListingStatusDraft     = "draft"
	ListingStatusPending   = "pending_review"
	ListingStatusPublished = "published"
	ListingStatusOffline   = "offline"
)

// 钱包交易类型常量
const (
	WalletTxnTypeRecharge        = "recharge"
	WalletTxnTypeRechargeBonus   = "recharge_bonus"
	WalletTxnTypePromotionPay    = "promotion_pay"
	WalletTxnTypePromotionRefund = "promotion_refund"
)

// 钱包交易方向常量
const (
	WalletTxnDirectionIn  = "in"
	WalletTxnDirectionOut = "out"
)

// 站内通知类型常量
const (
	NotificationKindPromotionActivated = "promotion_activated"
	NotificationKindRefundProcessed    = "refund_processed"
	NotificationKindPromotionExpired   = "promotion_expired"
)

// 站内通知投递状态常量
const (
	NotificationStatusPending     = "pending"
	NotificationStatusDispatching = "dispatching"
	NotificationStatusDispatched  = "dispatched"
)

// 搜索排序方式常量
const (
	ListingSortLatest    = "latest"
	ListingSortPopular   = "popular"
	ListingSortPriceAsc  = "price_asc"
	ListingSortPriceDesc = "price_desc"
)

// 队列常量
const (
	QueueDefault  = "default"
	QueueCritical = "critical"
)

// 任务类型常量
const (
	TaskPromotionNotificationDispatch = "promotion:notification_dispatch"
	TaskPromotionOrderTimeoutCancel   = "promotion:order_timeout_cancel"
)

// 币种
const (
	CurrencyCNY = "CNY"
)
