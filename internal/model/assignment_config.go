package model

import (
	"encoding/json"
	"time"
)

// 分配配置的物理来源,按查询优先级排列
const (
	AssignmentTablePrimary = "assignment_configs"
	AssignmentTableAlt     = "assignment_configs_alt"
	AssignmentTableWarden  = "warden_configs"
)

// AssignmentConfigModel 审批人分配配置
// 三张表共用该结构,索引在迁移时按表单独创建
// 各列保存 JSON 数组,元素可能是字符串 ID,也可能是 {"id": ...} 形式的对象
type AssignmentConfigModel struct {
	ID               string          `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Hostler          json.RawMessage `gorm:"type:text" json:"hostler"`
	NonHostler       json.RawMessage `gorm:"type:text" json:"non_hostler"`
	HostlerLegacy    json.RawMessage `gorm:"type:text" json:"hostler_legacy,omitempty"`
	NonHostlerLegacy json.RawMessage `gorm:"type:text" json:"non_hostler_legacy,omitempty"`
	CreatedAt        time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"not null" json:"updated_at"`
}

// TableName 默认表名为主配置表,其他来源通过 db.Table 指定
func (AssignmentConfigModel) TableName() string {
	return AssignmentTablePrimary
}

// Field 返回指定分区的主列和兼容列
func (m *AssignmentConfigModel) Field(category Category) (main json.RawMessage, legacy json.RawMessage) {
	if category == CategoryHostler {
		return m.Hostler, m.HostlerLegacy
	}
	return m.NonHostler, m.NonHostlerLegacy
}
