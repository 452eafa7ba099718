package employee

import (
	"strings"
	"time"
)

// Role 角色层级（单值枚举，持久化为字符串）。
type Role string

const (
	RoleDriver Role = "driver" // 司机
	RoleStaff  Role = "staff"  // 普通员工
	RoleAdmin  Role = "admin"  // 公司管理员（按公司级权限处理）
)

// ParseRole 归一化角色输入；空值与未知值回落为 driver。
func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleStaff:
		return RoleStaff
	default:
		return RoleDriver
	}
}

// Employee 是 employees 表的 GORM 模型（司机/员工）。
type Employee struct {
	ID           string `gorm:"primaryKey;size:36"`
	Name         string `gorm:"size:128;not null"`
	NationalID   string `gorm:"uniqueIndex;size:16;not null"` // CPF，11位数字
	Email        string `gorm:"uniqueIndex;size:128;not null"`
	PasswordHash string `gorm:"size:128;not null"`
	PasswordSalt string `gorm:"size:64;not null"`
	Phone        string `gorm:"size:32"`
	CompanyID    string `gorm:"index;size:36;not null"`

	// 当前绑定的车辆；稀疏唯一索引保证一名员工最多绑定一辆车
	CurrentVehicleID *string `gorm:"uniqueIndex;size:36"`

	Role   Role `gorm:"type:varchar(16);not null;default:'driver'"`
	Active bool `gorm:"not null;default:true"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}
