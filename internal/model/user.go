package model

import (
	"errors"
	"time"
)

// Role 用户角色,取值为封闭集合
type Role string

const (
	RoleStudent    Role = "student"
	RoleWarden     Role = "warden"
	RoleGatekeeper Role = "gatekeeper"
	RoleVCOffice   Role = "vc-office"
	RoleGuestHouse Role = "guest-house"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

// Valid 判断角色是否属于已知集合
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleWarden, RoleGatekeeper, RoleVCOffice, RoleGuestHouse, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// Category 请假路由分区(住校/走读)
type Category string

const (
	CategoryHostler    Category = "hostler"
	CategoryNonHostler Category = "non-hostler"
)

// UserModel 用户目录数据模型
// 用户由外部目录维护,这里只读
type UserModel struct {
	ID              string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name            string    `gorm:"type:varchar(255);not null" json:"name"`
	Email           string    `gorm:"type:varchar(255);uniqueIndex" json:"email"`
	Role            Role      `gorm:"type:varchar(32);not null;index" json:"role"`
	StudentID       string    `gorm:"type:varchar(64);index" json:"student_id,omitempty"`
	Category        Category  `gorm:"type:varchar(32)" json:"category,omitempty"`
	GuardianContact string    `gorm:"type:varchar(32)" json:"guardian_contact,omitempty"`
	Active          bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt       time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time `gorm:"not null" json:"updated_at"`
}

// TableName 指定表名
func (UserModel) TableName() string {
	return "users"
}

// Validate 验证用户模型
func (u *UserModel) Validate() error {
	if u.ID == "" {
		return errors.New("user ID is required")
	}
	if !u.Role.Valid() {
		return errors.New("user role is invalid")
	}
	return nil
}
