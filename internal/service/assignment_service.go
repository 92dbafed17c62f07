package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jabbar-dev/bnb-aimtech/internal/assignment"
	"github.com/jabbar-dev/bnb-aimtech/internal/auth"
	"github.com/jabbar-dev/bnb-aimtech/internal/model"
	"github.com/jabbar-dev/bnb-aimtech/internal/repository"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AssignmentService 审批人分配管理服务接口
type AssignmentService interface {
	Current(ctx context.Context) (*AssignmentView, error)
	Replace(ctx context.Context, actor auth.Actor, req *PutAssignmentRequest) (*AssignmentView, error)
	Import(ctx context.Context, doc *assignment.ImportDocument) (*model.AssignmentConfigModel, error)
	Approvers(ctx context.Context) ([]ApproverView, error)
}

// PutAssignmentRequest 更新主配置请求
type PutAssignmentRequest struct {
	Hostler    []string `json:"hostler"`
	NonHostler []string `json:"non_hostler"`
}

// ApproverView 审批人摘要
type ApproverView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AssignmentView 当前主配置
type AssignmentView struct {
	ID         string         `json:"id,omitempty"`
	Hostler    []ApproverView `json:"hostler"`
	NonHostler []ApproverView `json:"non_hostler"`
	UpdatedAt  *time.Time     `json:"updated_at,omitempty"`
}

type assignmentService struct {
	configs repository.AssignmentRepository
	users   repository.UserRepository
	logger  logrus.FieldLogger
}

// NewAssignmentService 创建分配管理服务
func NewAssignmentService(db *gorm.DB, logger logrus.FieldLogger) AssignmentService {
	return &assignmentService{
		configs: repository.NewAssignmentRepository(db),
		users:   repository.NewUserRepository(db),
		logger:  logger,
	}
}

// Current 读取主配置表的最新记录,尚未配置时返回空列表
func (s *assignmentService) Current(ctx context.Context) (*AssignmentView, error) {
	cfg, err := s.configs.Latest(ctx, model.AssignmentTablePrimary)
	if err != nil {
		if repository.IsNotFound(err) {
			return &AssignmentView{Hostler: []ApproverView{}, NonHostler: []ApproverView{}}, nil
		}
		return nil, fmt.Errorf("failed to load assignment config: %w", err)
	}
	return s.view(ctx, cfg)
}

// Replace 追加一条新的主配置记录,所有 ID 必须是宿管账号
// 旧记录保留,解析时以最新记录为准
func (s *assignmentService) Replace(ctx context.Context, actor auth.Actor, req *PutAssignmentRequest) (*AssignmentView, error) {
	all := append(append([]string{}, req.Hostler...), req.NonHostler...)
	if len(all) > 0 {
		valid, err := s.users.FilterActiveByRole(ctx, all, model.RoleWarden)
		if err != nil {
			return nil, fmt.Errorf("failed to validate wardens: %w", err)
		}
		if invalid := missing(all, valid); len(invalid) > 0 {
			return nil, validationError("not warden accounts: %s", strings.Join(invalid, ", "))
		}
	}

	cfg, err := assignment.NewConfigRecord(req.Hostler, req.NonHostler, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to build assignment config: %w", err)
	}
	if err := s.configs.Append(ctx, model.AssignmentTablePrimary, cfg); err != nil {
		return nil, fmt.Errorf("failed to save assignment config: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"config_id":   cfg.ID,
		"hostler":     len(req.Hostler),
		"non_hostler": len(req.NonHostler),
		"operator":    actor.ID,
	}).Info("assignment config updated")
	return s.view(ctx, cfg)
}

// Import 把导入文件写入其指定的来源表
func (s *assignmentService) Import(ctx context.Context, doc *assignment.ImportDocument) (*model.AssignmentConfigModel, error) {
	cfg, err := doc.Model(time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to build assignment config: %w", err)
	}
	if err := s.configs.Append(ctx, doc.Table(), cfg); err != nil {
		return nil, fmt.Errorf("failed to save assignment config: %w", err)
	}
	return cfg, nil
}

// Approvers 列出全部在职宿管
func (s *assignmentService) Approvers(ctx context.Context) ([]ApproverView, error) {
	wardens, err := s.users.ListActiveByRole(ctx, model.RoleWarden)
	if err != nil {
		return nil, fmt.Errorf("failed to list wardens: %w", err)
	}
	views := make([]ApproverView, 0, len(wardens))
	for _, w := range wardens {
		views = append(views, ApproverView{ID: w.ID, Name: w.Name, Email: w.Email})
	}
	return views, nil
}

func (s *assignmentService) view(ctx context.Context, cfg *model.AssignmentConfigModel) (*AssignmentView, error) {
	hostler := assignment.NormalizeIdentities(cfg.Hostler)
	nonHostler := assignment.NormalizeIdentities(cfg.NonHostler)

	users, err := s.users.FindByIDs(ctx, append(append([]string{}, hostler...), nonHostler...))
	if err != nil {
		return nil, fmt.Errorf("failed to load wardens: %w", err)
	}
	byID := make(map[string]*model.UserModel, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	updatedAt := cfg.UpdatedAt
	return &AssignmentView{
		ID:         cfg.ID,
		Hostler:    approverViews(hostler, byID),
		NonHostler: approverViews(nonHostler, byID),
		UpdatedAt:  &updatedAt,
	}, nil
}

// approverViews 保持配置顺序,已删除的账号只返回 ID
func approverViews(ids []string, byID map[string]*model.UserModel) []ApproverView {
	views := make([]ApproverView, 0, len(ids))
	for _, id := range ids {
		v := ApproverView{ID: id}
		if u, ok := byID[id]; ok {
			v.Name, v.Email = u.Name, u.Email
		}
		views = append(views, v)
	}
	return views
}

// missing 返回 all 中不在 valid 里的 ID,去重
func missing(all, valid []string) []string {
	ok := make(map[string]struct{}, len(valid))
	for _, id := range valid {
		ok[id] = struct{}{}
	}
	var out []string
	for _, id := range all {
		if _, found := ok[id]; found {
			continue
		}
		ok[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
