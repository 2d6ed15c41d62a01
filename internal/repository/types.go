package repository

import "time"

// PromotionOrderListFilter 查询推广订单列表的过滤条件
type PromotionOrderListFilter struct {
	Page        int
	PageSize    int
	BuyerID     uint
	ListingID   uint
	Status      string
	OrderNo     string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// ListingSearchFilter 信息搜索过滤条件
type ListingSearchFilter struct {
	Page       int
	PageSize   int
	Keyword    string
	CategoryID uint
	ProvinceID uint
	CityID     uint
	CountyID   uint
	Sort       string
}

// WalletTransactionListFilter 钱包流水查询条件
type WalletTransactionListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	OrderID     uint
	Type        string
	Direction   string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// NotificationListFilter 站内通知查询条件
type NotificationListFilter struct {
	Page     int
	PageSize int
	UserID   uint
	Kind     string
	Status   string
}

// PromotionFields 信息推广字段（四个字段同时写入或同时清空）
type PromotionFields struct {
	Tier      int
	Scope     string
	ExpiresAt time.Time
	OrderID   uint
}
