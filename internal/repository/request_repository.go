package repository

import (
	"context"
	"fmt"

	"github.com/jabbar-dev/bnb-aimtech/internal/model"
	"gorm.io/gorm"
)

// RequestRepository 请假单仓储接口
type RequestRepository interface {
	Create(ctx context.Context, req *model.LeaveRequestModel) error
	FindByID(ctx context.Context, id string) (*model.LeaveRequestModel, error)
	FindByFilter(ctx context.Context, filter *RequestFilter) ([]*model.LeaveRequestModel, error)
	UpdateStatus(ctx context.Context, id string, from, to model.RequestStatus, fields map[string]interface{}) (bool, error)
}

// RequestFilter 请假单查询过滤器
type RequestFilter struct {
	RequesterID string
	ApproverID  string
	Statuses    []model.RequestStatus
	Limit       int
}

// requestRepository 请假单仓储实现
type requestRepository struct {
	db *gorm.DB
}

// NewRequestRepository 创建请假单仓储
func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

// Create 在同一事务中写入请假单和冻结审批人
func (r *requestRepository) Create(ctx context.Context, req *model.LeaveRequestModel) error {
	if len(req.Approvers) == 0 {
		return fmt.Errorf("leave request %s has no approvers", req.ID)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		approvers := req.Approvers
		if err := tx.Omit("Approvers").Create(req).Error; err != nil {
			return fmt.Errorf("failed to create leave request: %w", err)
		}
		for i := range approvers {
			approvers[i].RequestID = req.ID
		}
		if err := tx.Create(&approvers).Error; err != nil {
			return fmt.Errorf("failed to create request approvers: %w", err)
		}
		req.Approvers = approvers
		return nil
	})
}

// FindByID 根据 ID 查找请假单,包含冻结审批人
func (r *requestRepository) FindByID(ctx context.Context, id string) (*model.LeaveRequestModel, error) {
	var req model.LeaveRequestModel
	if err := r.db.WithContext(ctx).Preload("Approvers").Where("id = ?", id).First(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// FindByFilter 根据过滤器查找请假单,按创建时间倒序
func (r *requestRepository) FindByFilter(ctx context.Context, filter *RequestFilter) ([]*model.LeaveRequestModel, error) {
	var reqs []*model.LeaveRequestModel
	query := r.db.WithContext(ctx).Model(&model.LeaveRequestModel{}).Preload("Approvers")

	if filter != nil {
		if filter.RequesterID != "" {
			query = query.Where("requester_id = ?", filter.RequesterID)
		}
		if filter.ApproverID != "" {
			query = query.Where("id IN (?)", r.db.Model(&model.RequestApproverModel{}).
				Select("request_id").Where("approver_id = ?", filter.ApproverID))
		}
		if len(filter.Statuses) > 0 {
			query = query.Where("status IN ?", filter.Statuses)
		}
		if filter.Limit > 0 {
			query = query.Limit(filter.Limit)
		}
	}

	err := query.Order("created_at DESC, id DESC").Find(&reqs).Error
	return reqs, err
}

// UpdateStatus 条件更新状态,仅当当前状态仍为 from 时生效
// 返回 false 表示状态已被并发修改或记录不存在
func (r *requestRepository) UpdateStatus(ctx context.Context, id string, from, to model.RequestStatus, fields map[string]interface{}) (bool, error) {
	updates := map[string]interface{}{"status": to}
	for k, v := range fields {
		updates[k] = v
	}
	result := r.db.WithContext(ctx).Model(&model.LeaveRequestModel{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
