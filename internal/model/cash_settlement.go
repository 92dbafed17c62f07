package model

import "time"

// SettlementStatus 解缴单状态
type SettlementStatus string

const (
	SettlementPending SettlementStatus = "pending"
	SettlementPaid    SettlementStatus = "paid"
)

// FirstSerialNo 第一张解缴单的编号
const FirstSerialNo int64 = 100

// CashSettlementModel 现金解缴单(challan)数据模型
type CashSettlementModel struct {
	ID            string           `gorm:"primaryKey;type:varchar(64)" json:"id"`
	SerialNo      int64            `gorm:"not null;uniqueIndex" json:"serial_no"`
	Amount        int64            `gorm:"not null" json:"amount"`
	Status        SettlementStatus `gorm:"type:varchar(16);not null;index" json:"status"`
	DueDate       time.Time        `gorm:"not null" json:"due_date"`
	DepositorName string           `gorm:"type:varchar(255)" json:"depositor_name"`
	DepositorCNIC string           `gorm:"type:varchar(13)" json:"depositor_cnic"`
	Method        PaymentMethod    `gorm:"type:varchar(16)" json:"method,omitempty"`
	ProofRef      string           `gorm:"type:varchar(512)" json:"proof_ref,omitempty"`
	PaidAt        *time.Time       `json:"paid_at,omitempty"`
	CreatedBy     string           `gorm:"type:varchar(64)" json:"created_by"`
	CreatedAt     time.Time        `gorm:"not null;index" json:"created_at"`
	UpdatedAt     time.Time        `gorm:"not null" json:"updated_at"`

	// Bookings 被本单捆绑的预订(只读反向引用)
	Bookings []LodgingBookingModel `gorm:"foreignKey:SettlementID" json:"bookings,omitempty"`
}

// TableName 指定表名
func (CashSettlementModel) TableName() string {
	return "cash_settlements"
}
