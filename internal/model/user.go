// Package model 定义了与数据库表对应的 Go 结构体。
package model

import "time"

// User 对应于数据库中的 'users' 表。
type User struct {
	// ID 是用户的自增主键。
	ID uint `gorm:"primaryKey" json:"id"`
	// Username 是登录用的唯一用户名。
	Username string `gorm:"type:varchar(100);uniqueIndex;not null" json:"username"`
	// Email 是用户邮箱，等待名单和联系表单也以它去重。
	Email string `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	// Password 存储 bcrypt 哈希后的密码，永不以明文出现。
	Password string `gorm:"type:varchar(255);not null" json:"-"`
	// Role 为 "USER" 或 "ADMIN"。
	Role string `gorm:"type:varchar(20);not null;default:'USER'" json:"role"`
	// CreatedAt 由 GORM 自动管理，记录创建时间。
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	// UpdatedAt 由 GORM 自动管理，记录最后更新时间。
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (User) TableName() string {
	return "users"
}
