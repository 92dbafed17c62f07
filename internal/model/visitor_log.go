package model

import "time"

// VisitorStatus 访客登记状态
type VisitorStatus string

const (
	VisitorPending VisitorStatus = "pending"
	VisitorIn      VisitorStatus = "in"
	VisitorOut     VisitorStatus = "out"
)

// VisitorLogModel 访客登记数据模型
type VisitorLogModel struct {
	ID             string        `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name           string        `gorm:"type:varchar(255);not null" json:"name"`
	CNIC           string        `gorm:"type:varchar(13);not null;index" json:"cnic"`
	VisitingOffice string        `gorm:"type:varchar(255);not null" json:"visiting_office"`
	VehicleNo      string        `gorm:"type:varchar(64)" json:"vehicle_no"`
	RecordedBy     string        `gorm:"type:varchar(64);not null" json:"recorded_by"`
	Status         VisitorStatus `gorm:"type:varchar(16);not null;index" json:"status"`
	InAt           *time.Time    `json:"in_at"`
	OutAt          *time.Time    `json:"out_at"`
	CreatedAt      time.Time     `gorm:"not null;index" json:"created_at"`
	UpdatedAt      time.Time     `gorm:"not null" json:"updated_at"`
}

// TableName 指定表名
func (VisitorLogModel) TableName() string {
	return "visitor_logs"
}
