package repository

import (
	"context"
	"time"

	"github.com/jabbar-dev/bnb-aimtech/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LodgingRepository 招待所预订仓储接口
type LodgingRepository interface {
	Create(ctx context.Context, booking *model.LodgingBookingModel) error
	FindByID(ctx context.Context, id string) (*model.LodgingBookingModel, error)
	FindByFilter(ctx context.Context, filter *LodgingFilter) ([]*model.LodgingBookingModel, error)
	LockRoomDay(ctx context.Context, roomNo string, day time.Time) error
	FindOccupying(ctx context.Context, roomNo string, dayStart, dayEnd time.Time) ([]*model.LodgingBookingModel, error)
	Transition(ctx context.Context, id string, from []model.BookingStatus, updates map[string]interface{}) (bool, error)
	SetPayment(ctx context.Context, id string, method model.PaymentMethod, txRef string) (bool, error)
	ListUnbankedCash(ctx context.Context, lock bool) ([]*model.LodgingBookingModel, error)
	SumUnbankedCash(ctx context.Context) (int64, error)
	MarkDeposited(ctx context.Context, ids []string, settlementID string) (int64, error)
}

// LodgingFilter 预订查询过滤器
type LodgingFilter struct {
	Status *model.BookingStatus
	RoomNo string
	Limit  int
}

// lodgingRepository 招待所预订仓储实现
type lodgingRepository struct {
	db *gorm.DB
}

// NewLodgingRepository 创建招待所预订仓储
func NewLodgingRepository(db *gorm.DB) LodgingRepository {
	return &lodgingRepository{db: db}
}

// Create 新建预订
func (r *lodgingRepository) Create(ctx context.Context, booking *model.LodgingBookingModel) error {
	return r.db.WithContext(ctx).Create(booking).Error
}

// FindByID 根据 ID 查找预订
func (r *lodgingRepository) FindByID(ctx context.Context, id string) (*model.LodgingBookingModel, error) {
	var booking model.LodgingBookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&booking).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

// FindByFilter 根据过滤器查找预订
func (r *lodgingRepository) FindByFilter(ctx context.Context, filter *LodgingFilter) ([]*model.LodgingBookingModel, error) {
	var bookings []*model.LodgingBookingModel
	query := r.db.WithContext(ctx).Model(&model.LodgingBookingModel{})

	if filter != nil {
		if filter.Status != nil {
			query = query.Where("status = ?", *filter.Status)
		}
		if filter.RoomNo != "" {
			query = query.Where("room_no = ?", filter.RoomNo)
		}
		if filter.Limit > 0 {
			query = query.Limit(filter.Limit)
		}
	}

	err := query.Order("booking_date DESC, created_at DESC").Find(&bookings).Error
	return bookings, err
}

// LockRoomDay 在当前事务内对房间和日期加锁
// postgres 使用事务级 advisory lock,其他数据库依赖 FindOccupying 的行锁
func (r *lodgingRepository) LockRoomDay(ctx context.Context, roomNo string, day time.Time) error {
	if r.db.Dialector.Name() != "postgres" {
		return nil
	}
	key := "lodging:" + roomNo + ":" + day.Format("2006-01-02")
	return r.db.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(hashtext(?))", key).Error
}

// FindOccupying 查找在 [dayStart, dayEnd] 内占用房间的预订
func (r *lodgingRepository) FindOccupying(ctx context.Context, roomNo string, dayStart, dayEnd time.Time) ([]*model.LodgingBookingModel, error) {
	var bookings []*model.LodgingBookingModel
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("room_no = ? AND booking_date >= ? AND booking_date <= ? AND status IN ?",
			roomNo, dayStart, dayEnd, []model.BookingStatus{model.BookingReserved, model.BookingCheckedIn}).
		Find(&bookings).Error
	return bookings, err
}

// Transition 条件更新状态,仅当当前状态属于 from 时生效
func (r *lodgingRepository) Transition(ctx context.Context, id string, from []model.BookingStatus, updates map[string]interface{}) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.LodgingBookingModel{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// SetPayment 写入付款方式,只有尚未付款的预订会被更新
func (r *lodgingRepository) SetPayment(ctx context.Context, id string, method model.PaymentMethod, txRef string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.LodgingBookingModel{}).
		Where("id = ? AND payment_method = ?", id, model.PaymentNone).
		Updates(map[string]interface{}{
			"payment_method": method,
			"tx_ref":         txRef,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ListUnbankedCash 按 FIFO 顺序列出现金付款且未解缴的预订
func (r *lodgingRepository) ListUnbankedCash(ctx context.Context, lock bool) ([]*model.LodgingBookingModel, error) {
	var bookings []*model.LodgingBookingModel
	query := r.db.WithContext(ctx).
		Where("payment_method = ? AND deposited = ?", model.PaymentCash, false)
	if lock {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	err := query.Order("created_at ASC, id ASC").Find(&bookings).Error
	return bookings, err
}

// SumUnbankedCash 计算未解缴现金总额
func (r *lodgingRepository) SumUnbankedCash(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.LodgingBookingModel{}).
		Where("payment_method = ? AND deposited = ?", model.PaymentCash, false).
		Select("COALESCE(SUM(bill_amount), 0)").
		Scan(&total).Error
	return total, err
}

// MarkDeposited 把选中的预订标记为已解缴
// 只会翻转仍未解缴的行,调用方用返回的行数检测并发漂移
func (r *lodgingRepository) MarkDeposited(ctx context.Context, ids []string, settlementID string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Model(&model.LodgingBookingModel{}).
		Where("id IN ? AND deposited = ?", ids, false).
		Updates(map[string]interface{}{
			"deposited":     true,
			"settlement_id": settlementID,
		})
	return result.RowsAffected, result.Error
}
