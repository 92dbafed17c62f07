package model

import "time"

// BookingStatus 招待所预订状态
type BookingStatus string

const (
	BookingReserved   BookingStatus = "reserved"
	BookingCheckedIn  BookingStatus = "checked-in"
	BookingCheckedOut BookingStatus = "checked-out"
	BookingCancelled  BookingStatus = "cancelled"
)

// PaymentMethod 付款方式,空字符串表示未付款
type PaymentMethod string

const (
	PaymentNone    PaymentMethod = ""
	PaymentCash    PaymentMethod = "cash"
	PaymentAccount PaymentMethod = "account"
)

// LodgingBookingModel 招待所预订数据模型
// 金额均以最小货币单位(整数)保存
type LodgingBookingModel struct {
	ID            string        `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name          string        `gorm:"type:varchar(255);not null" json:"name"`
	CNIC          string        `gorm:"type:varchar(13);not null" json:"cnic"`
	Organization  string        `gorm:"type:varchar(255)" json:"organization"`
	GuestType     string        `gorm:"type:varchar(64)" json:"guest_type"`
	RoomNo        string        `gorm:"type:varchar(32);not null;index:idx_lodging_room_date" json:"room_no"`
	BookingDate   time.Time     `gorm:"not null;index:idx_lodging_room_date" json:"booking_date"`
	Purpose       string        `gorm:"type:text" json:"purpose"`
	VehicleNo     string        `gorm:"type:varchar(64)" json:"vehicle_no"`
	RegisteredBy  string        `gorm:"type:varchar(64);not null" json:"registered_by"`
	Status        BookingStatus `gorm:"type:varchar(16);not null;index" json:"status"`
	CheckInAt     *time.Time    `json:"check_in_at"`
	CheckOutAt    *time.Time    `json:"check_out_at"`
	StayDays      int           `gorm:"not null;default:0" json:"stay_days"`
	BillAmount    int64         `gorm:"not null;default:0" json:"bill_amount"`
	PaymentMethod PaymentMethod `gorm:"type:varchar(16);not null;default:''" json:"payment_method"`
	TxRef         string        `gorm:"type:varchar(128)" json:"tx_ref,omitempty"`
	Deposited     bool          `gorm:"not null;default:false;index:idx_lodging_unbanked" json:"deposited"`
	SettlementID  *string       `gorm:"type:varchar(64);index" json:"settlement_id,omitempty"`
	CreatedAt     time.Time     `gorm:"not null;index:idx_lodging_unbanked" json:"created_at"`
	UpdatedAt     time.Time     `gorm:"not null" json:"updated_at"`
}

// TableName 指定表名
func (LodgingBookingModel) TableName() string {
	return "lodging_bookings"
}

// Occupying 判断预订是否占用房间
func (b *LodgingBookingModel) Occupying() bool {
	return b.Status == BookingReserved || b.Status == BookingCheckedIn
}
