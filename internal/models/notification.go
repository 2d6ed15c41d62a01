package models

import (
	"time"
)

// Notification 站内通知（与业务变更同事务写入，提交后异步投递）
type Notification struct {
	ID           uint       `gorm:"primarykey" json:"id"`                                            // 主键
	UserID       uint       `gorm:"index;not null" json:"user_id"`                                   // 接收人ID
	Kind         string     `gorm:"index;type:varchar(32);not null" json:"kind"`                     // 通知类型
	Title        string     `gorm:"not null" json:"title"`                                           // 标题
	Body         string     `gorm:"type:text" json:"body"`                                           // 内容
	RelatedID    uint       `gorm:"index" json:"related_id"`                                         // 关联业务ID
	Status       string     `gorm:"index;type:varchar(16);not null;default:'pending'" json:"status"` // 投递状态
	ClaimedAt    *time.Time `json:"-"`                                                               // 投递认领时间
	DispatchedAt *time.Time `json:"dispatched_at"`                                                   // 投递时间
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`                                         // 创建时间
}

// TableName 指定表名
func (Notification) TableName() string {
	return "notifications"
}
