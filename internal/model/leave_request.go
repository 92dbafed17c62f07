package model

import (
	"time"
)

// RequestStatus 请假单状态
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
	RequestOut      RequestStatus = "out"
	RequestIn       RequestStatus = "in"
)

// Transport 出行方式
type Transport string

const (
	TransportPublic  Transport = "public"
	TransportPrivate Transport = "private"
)

// LeaveRequestModel 请假单数据模型
type LeaveRequestModel struct {
	ID              string        `gorm:"primaryKey;type:varchar(64)" json:"id"`
	RequesterID     string        `gorm:"type:varchar(64);not null;index" json:"requester_id"`
	StudentID       string        `gorm:"type:varchar(64)" json:"student_id"`
	Name            string        `gorm:"type:varchar(255);not null" json:"name"`
	Email           string        `gorm:"type:varchar(255)" json:"email"`
	Category        Category      `gorm:"type:varchar(32);not null;index" json:"category"`
	LeaveFor        string        `gorm:"type:text;not null" json:"leave_for"`
	PickUpWith      string        `gorm:"type:varchar(255);not null" json:"pick_up_with"`
	Transport       Transport     `gorm:"type:varchar(16);not null" json:"transport"`
	VehicleNo       string        `gorm:"type:varchar(64)" json:"vehicle_no"`
	DriverName      string        `gorm:"type:varchar(255)" json:"driver_name"`
	ScheduledAt     time.Time     `gorm:"not null;index" json:"scheduled_at"`
	Status          RequestStatus `gorm:"type:varchar(16);not null;index" json:"status"`
	ApproverComment string        `gorm:"type:text" json:"approver_comment"`
	DecidedBy       string        `gorm:"type:varchar(64)" json:"decided_by,omitempty"`
	CreatedAt       time.Time     `gorm:"not null;index" json:"created_at"`
	UpdatedAt       time.Time     `gorm:"not null" json:"updated_at"`

	// Approvers 创建时冻结的审批人名单,之后分配配置变更不会影响
	Approvers []RequestApproverModel `gorm:"foreignKey:RequestID" json:"-"`
}

// TableName 指定表名
func (LeaveRequestModel) TableName() string {
	return "leave_requests"
}

// ApproverIDs 返回冻结的审批人 ID 列表
func (r *LeaveRequestModel) ApproverIDs() []string {
	ids := make([]string, 0, len(r.Approvers))
	for _, a := range r.Approvers {
		ids = append(ids, a.ApproverID)
	}
	return ids
}

// HasApprover 判断用户是否在冻结名单中
func (r *LeaveRequestModel) HasApprover(userID string) bool {
	for _, a := range r.Approvers {
		if a.ApproverID == userID {
			return true
		}
	}
	return false
}

// RequestApproverModel 请假单冻结审批人
type RequestApproverModel struct {
	RequestID  string `gorm:"primaryKey;type:varchar(64)"`
	ApproverID string `gorm:"primaryKey;type:varchar(64);index"`
}

// TableName 指定表名
func (RequestApproverModel) TableName() string {
	return "request_approvers"
}
