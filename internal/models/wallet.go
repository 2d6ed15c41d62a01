package models

import (
	"time"
)

// WalletAccount 用户钱包账户（余额为流水的物化结果）
type WalletAccount struct {
	ID        uint      `gorm:"primarykey" json:"id"`                                 // 主键
	UserID    uint      `gorm:"uniqueIndex;not null" json:"user_id"`                  // 用户ID
	Balance   Money     `gorm:"type:decimal(20,2);not null;default:0" json:"balance"` // 可用余额
	CreatedAt time.Time `gorm:"index" json:"created_at"`                              // 创建时间
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`                              // 更新时间
}

// TableName 指定表名
func (WalletAccount) TableName() string {
	return "wallet_accounts"
}

// WalletTransaction 钱包流水（只追加，不修改）
type WalletTransaction struct {
	ID            uint      `gorm:"primarykey" json:"id"`                                    // 主键
	UserID        uint      `gorm:"index;not null" json:"user_id"`                           // 用户ID
	OrderID       *uint     `gorm:"index" json:"order_id"`                                   // 关联推广订单ID
	Type          string    `gorm:"index;type:varchar(32);not null" json:"type"`             // 交易类型
	Direction     string    `gorm:"index;type:varchar(8);not null" json:"direction"`         // 方向（in/out）
	Amount        Money     `gorm:"type:decimal(20,2);not null" json:"amount"`               // 变动金额（正数）
	BalanceBefore Money     `gorm:"type:decimal(20,2);not null" json:"balance_before"`       // 变动前余额
	BalanceAfter  Money     `gorm:"type:decimal(20,2);not null" json:"balance_after"`        // 变动后余额
	Currency      string    `gorm:"type:varchar(8);not null" json:"currency"`                // 币种
	Reference     string    `gorm:"uniqueIndex;type:varchar(128);not null" json:"reference"` // 幂等参考号
	Remark        string    `gorm:"type:text" json:"remark"`                                 // 备注
	CreatedAt     time.Time `gorm:"index" json:"created_at"`                                 // 创建时间
}

// TableName 指定表名
func (WalletTransaction) TableName() string {
	return "wallet_transactions"
}
