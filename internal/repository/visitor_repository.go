package repository

import (
	"context"
	"time"

	"github.com/jabbar-dev/bnb-aimtech/internal/model"
	"gorm.io/gorm"
)

// VisitorRepository 访客登记仓储接口
type VisitorRepository interface {
	Create(ctx context.Context, log *model.VisitorLogModel) error
	FindByID(ctx context.Context, id string) (*model.VisitorLogModel, error)
	Search(ctx context.Context, query string, limit int) ([]*model.VisitorLogModel, error)
	MarkStatus(ctx context.Context, id string, status model.VisitorStatus, at time.Time) (bool, error)
}

// visitorRepository 访客登记仓储实现
type visitorRepository struct {
	db *gorm.DB
}

// NewVisitorRepository 创建访客登记仓储
func NewVisitorRepository(db *gorm.DB) VisitorRepository {
	return &visitorRepository{db: db}
}

// Create 新建访客登记
func (r *visitorRepository) Create(ctx context.Context, log *model.VisitorLogModel) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// FindByID 根据 ID 查找访客登记
func (r *visitorRepository) FindByID(ctx context.Context, id string) (*model.VisitorLogModel, error) {
	var log model.VisitorLogModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&log).Error; err != nil {
		return nil, err
	}
	return &log, nil
}

// Search 按姓名、CNIC、办公室或车牌模糊查询
func (r *visitorRepository) Search(ctx context.Context, query string, limit int) ([]*model.VisitorLogModel, error) {
	var logs []*model.VisitorLogModel
	q := r.db.WithContext(ctx).Model(&model.VisitorLogModel{})
	if query != "" {
		like := "%" + query + "%"
		q = q.Where("name LIKE ? OR cnic LIKE ? OR visiting_office LIKE ? OR vehicle_no LIKE ?", like, like, like, like)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Order("created_at DESC, id DESC").Find(&logs).Error
	return logs, err
}

// MarkStatus 更新状态,对应时间戳只在第一次到达该状态时写入
func (r *visitorRepository) MarkStatus(ctx context.Context, id string, status model.VisitorStatus, at time.Time) (bool, error) {
	updates := map[string]interface{}{"status": status}
	switch status {
	case model.VisitorIn:
		updates["in_at"] = gorm.Expr("COALESCE(in_at, ?)", at)
	case model.VisitorOut:
		updates["out_at"] = gorm.Expr("COALESCE(out_at, ?)", at)
	}

	result := r.db.WithContext(ctx).Model(&model.VisitorLogModel{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
