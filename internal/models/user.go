package models

import (
	"time"

	"gorm.io/gorm"
)

// User 用户表（由认证模块维护，推广模块只读取 ID 与状态）
type User struct {
	ID          uint           `gorm:"primarykey" json:"id"`                        // 主键
	Phone       string         `gorm:"uniqueIndex;not null" json:"phone"`           // 手机号
	DisplayName string         `gorm:"default:''" json:"display_name"`              // 昵称
	Role        string         `gorm:"index;not null;default:'tenant'" json:"role"` // 角色（tenant/owner）
	Status      string         `gorm:"default:'active'" json:"status"`              // 账号状态
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                     // 创建时间
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`                     // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                              // 软删除时间
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}
