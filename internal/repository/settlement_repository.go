package repository

import (
	"context"
	"time"

	"github.com/jabbar-dev/bnb-aimtech/internal/model"
	"gorm.io/gorm"
)

// SettlementRepository 现金解缴单仓储接口
type SettlementRepository interface {
	Create(ctx context.Context, settlement *model.CashSettlementModel) error
	FindByID(ctx context.Context, id string) (*model.CashSettlementModel, error)
	FindByFilter(ctx context.Context, filter *SettlementFilter) ([]*model.CashSettlementModel, error)
	NextSerialNo(ctx context.Context) (int64, error)
	Close(ctx context.Context, id string, proofRef string, paidAt time.Time) (bool, error)
}

// SettlementFilter 解缴单查询过滤器
type SettlementFilter struct {
	Status *model.SettlementStatus
	Limit  int
}

// settlementRepository 现金解缴单仓储实现
type settlementRepository struct {
	db *gorm.DB
}

// NewSettlementRepository 创建现金解缴单仓储
func NewSettlementRepository(db *gorm.DB) SettlementRepository {
	return &settlementRepository{db: db}
}

// Create 新建解缴单,serial_no 冲突时返回 gorm.ErrDuplicatedKey
func (r *settlementRepository) Create(ctx context.Context, settlement *model.CashSettlementModel) error {
	return r.db.WithContext(ctx).Omit("Bookings").Create(settlement).Error
}

// FindByID 根据 ID 查找解缴单,包含捆绑的预订
func (r *settlementRepository) FindByID(ctx context.Context, id string) (*model.CashSettlementModel, error) {
	var settlement model.CashSettlementModel
	err := r.db.WithContext(ctx).
		Preload("Bookings", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Where("id = ?", id).First(&settlement).Error
	if err != nil {
		return nil, err
	}
	return &settlement, nil
}

// FindByFilter 根据过滤器查找解缴单,编号倒序
func (r *settlementRepository) FindByFilter(ctx context.Context, filter *SettlementFilter) ([]*model.CashSettlementModel, error) {
	var settlements []*model.CashSettlementModel
	query := r.db.WithContext(ctx).Model(&model.CashSettlementModel{})
	if filter != nil {
		if filter.Status != nil {
			query = query.Where("status = ?", *filter.Status)
		}
		if filter.Limit > 0 {
			query = query.Limit(filter.Limit)
		}
	}
	err := query.Order("serial_no DESC").Find(&settlements).Error
	return settlements, err
}

// NextSerialNo 返回当前最大编号加一,第一张为 model.FirstSerialNo
// 读取与插入之间没有锁,唯一索引负责兜底
func (r *settlementRepository) NextSerialNo(ctx context.Context) (int64, error) {
	var max int64
	err := r.db.WithContext(ctx).Model(&model.CashSettlementModel{}).
		Select("COALESCE(MAX(serial_no), ?)", model.FirstSerialNo-1).
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max < model.FirstSerialNo-1 {
		max = model.FirstSerialNo - 1
	}
	return max + 1, nil
}

// Close 把待缴的解缴单标记为已缴
func (r *settlementRepository) Close(ctx context.Context, id string, proofRef string, paidAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.CashSettlementModel{}).
		Where("id = ? AND status = ?", id, model.SettlementPending).
		Updates(map[string]interface{}{
			"status":    model.SettlementPaid,
			"proof_ref": proofRef,
			"method":    model.PaymentCash,
			"paid_at":   paidAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
