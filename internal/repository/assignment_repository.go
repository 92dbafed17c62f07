package repository

import (
	"context"

	"github.com/jabbar-dev/bnb-aimtech/internal/model"
	"gorm.io/gorm"
)

// AssignmentRepository 分配配置仓储接口,table 指定物理来源
type AssignmentRepository interface {
	Recent(ctx context.Context, table string, limit int) ([]*model.AssignmentConfigModel, error)
	Latest(ctx context.Context, table string) (*model.AssignmentConfigModel, error)
	Append(ctx context.Context, table string, cfg *model.AssignmentConfigModel) error
}

// assignmentRepository 分配配置仓储实现
type assignmentRepository struct {
	db *gorm.DB
}

// NewAssignmentRepository 创建分配配置仓储
func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

// Recent 读取最新的 limit 条记录,新的在前
func (r *assignmentRepository) Recent(ctx context.Context, table string, limit int) ([]*model.AssignmentConfigModel, error) {
	var cfgs []*model.AssignmentConfigModel
	query := r.db.WithContext(ctx).Table(table).Order("updated_at DESC, created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&cfgs).Error
	return cfgs, err
}

// Latest 读取最新一条记录
func (r *assignmentRepository) Latest(ctx context.Context, table string) (*model.AssignmentConfigModel, error) {
	var cfg model.AssignmentConfigModel
	err := r.db.WithContext(ctx).Table(table).
		Order("updated_at DESC, created_at DESC, id DESC").
		First(&cfg).Error
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Append 追加一条新记录,历史记录保留
func (r *assignmentRepository) Append(ctx context.Context, table string, cfg *model.AssignmentConfigModel) error {
	return r.db.WithContext(ctx).Table(table).Create(cfg).Error
}
