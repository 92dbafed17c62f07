package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jabbar-dev/bnb-aimtech/internal/auth"
	"github.com/jabbar-dev/bnb-aimtech/internal/metrics"
	"github.com/jabbar-dev/bnb-aimtech/internal/model"
	"github.com/jabbar-dev/bnb-aimtech/internal/repository"
	"github.com/jabbar-dev/bnb-aimtech/internal/utils"
	"github.com/jabbar-dev/bnb-aimtech/internal/workflow"
	"gorm.io/gorm"
)

const defaultListLimit = 500

// VisitorService 访客登记服务接口
type VisitorService interface {
	Create(ctx context.Context, actor auth.Actor, req *CreateVisitorRequest) (*model.VisitorLogModel, error)
	List(ctx context.Context, query string) ([]*model.VisitorLogModel, error)
	UpdateStatus(ctx context.Context, actor auth.Actor, id string, req *VisitorStatusRequest) (*model.VisitorLogModel, error)
}

// CreateVisitorRequest 访客登记请求
type CreateVisitorRequest struct {
	Name           string `json:"name" binding:"required"`
	CNIC           string `json:"cnic" binding:"required"`
	VisitingOffice string `json:"visiting_office" binding:"required"`
	VehicleNo      string `json:"vehicle_no"`
}

// VisitorStatusRequest 访客进出登记
type VisitorStatusRequest struct {
	Status model.VisitorStatus `json:"status" binding:"required"`
}

type visitorService struct {
	repo repository.VisitorRepository
}

// NewVisitorService 创建访客登记服务
func NewVisitorService(db *gorm.DB) VisitorService {
	return &visitorService{repo: repository.NewVisitorRepository(db)}
}

// Create 登记访客,初始状态为 pending
func (s *visitorService) Create(ctx context.Context, actor auth.Actor, req *CreateVisitorRequest) (*model.VisitorLogModel, error) {
	name, err := utils.TrimAndValidate(req.Name, 255)
	if err != nil {
		return nil, validationError("name: %v", err)
	}
	cnic, err := utils.NormalizeCNIC(req.CNIC)
	if err != nil {
		return nil, validationError("%v", err)
	}
	office, err := utils.TrimAndValidate(req.VisitingOffice, 255)
	if err != nil {
		return nil, validationError("visiting_office: %v", err)
	}

	v := &model.VisitorLogModel{
		ID:             uuid.New().String(),
		Name:           name,
		CNIC:           cnic,
		VisitingOffice: office,
		VehicleNo:      orDash(req.VehicleNo),
		RecordedBy:     actor.ID,
		Status:         model.VisitorPending,
	}
	if err := s.repo.Create(ctx, v); err != nil {
		return nil, fmt.Errorf("failed to create visitor log: %w", err)
	}
	return v, nil
}

// List 列出访客,q 按姓名、CNIC、来访部门、车牌模糊匹配
func (s *visitorService) List(ctx context.Context, query string) ([]*model.VisitorLogModel, error) {
	return s.repo.Search(ctx, utils.StripControl(strings.TrimSpace(query)), defaultListLimit)
}

// UpdateStatus 登记进出,时间戳只在第一次到达该状态时写入
func (s *visitorService) UpdateStatus(ctx context.Context, actor auth.Actor, id string, req *VisitorStatusRequest) (*model.VisitorLogModel, error) {
	if !workflow.ValidVisitorTarget(req.Status) {
		return nil, validationError("status must be in or out")
	}
	if err := utils.ValidateID(id); err != nil {
		return nil, validationError("id: %v", err)
	}

	ok, err := s.repo.MarkStatus(ctx, id, req.Status, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to update visitor log: %w", err)
	}
	if !ok {
		return nil, notFound("visitor", id)
	}
	metrics.RecordTransition("visitor", string(req.Status))

	v, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload visitor log: %w", err)
	}
	return v, nil
}

// orDash 空值按 "-" 保存
func orDash(s string) string {
	s = utils.StripControl(strings.TrimSpace(s))
	if s == "" {
		return "-"
	}
	return s
}
