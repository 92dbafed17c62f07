package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jabbar-dev/bnb-aimtech/internal/assignment"
	"github.com/jabbar-dev/bnb-aimtech/internal/auth"
	"github.com/jabbar-dev/bnb-aimtech/internal/config"
	"github.com/jabbar-dev/bnb-aimtech/internal/metrics"
	"github.com/jabbar-dev/bnb-aimtech/internal/model"
	"github.com/jabbar-dev/bnb-aimtech/internal/notify"
	"github.com/jabbar-dev/bnb-aimtech/internal/repository"
	"github.com/jabbar-dev/bnb-aimtech/internal/utils"
	"github.com/jabbar-dev/bnb-aimtech/internal/workflow"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// RequestService 请假单服务接口
type RequestService interface {
	Create(ctx context.Context, actor auth.Actor, req *CreateLeaveRequest) (*model.LeaveRequestModel, error)
	ListOwn(ctx context.Context, actor auth.Actor) ([]*model.LeaveRequestModel, error)
	ListForApprover(ctx context.Context, actor auth.Actor, status string) ([]*model.LeaveRequestModel, error)
	Decide(ctx context.Context, actor auth.Actor, id string, req *DecideRequest) (*model.LeaveRequestModel, error)
	ListGate(ctx context.Context) ([]*model.LeaveRequestModel, error)
	Gate(ctx context.Context, actor auth.Actor, id string, req *GateRequest) (*model.LeaveRequestModel, error)
	ListAll(ctx context.Context) ([]*model.LeaveRequestModel, error)
}

// CreateLeaveRequest 提交请假单请求
type CreateLeaveRequest struct {
	LeaveFor    string          `json:"leave_for" binding:"required"`
	PickUpWith  string          `json:"pick_up_with" binding:"required"`
	Transport   model.Transport `json:"transport" binding:"required"`
	VehicleNo   string          `json:"vehicle_no"`
	DriverName  string          `json:"driver_name"`
	ScheduledAt time.Time       `json:"scheduled_at" binding:"required"`
}

// DecideRequest 宿管审批请求
type DecideRequest struct {
	Status  model.RequestStatus `json:"status" binding:"required"`
	Comment string              `json:"comment"`
}

// GateRequest 门岗登记请求
type GateRequest struct {
	Status model.RequestStatus `json:"status" binding:"required"`
}

// requestService 请假单服务实现
type requestService struct {
	db       *gorm.DB
	users    repository.UserRepository
	resolver *assignment.Resolver
	notifier notify.Notifier
	policy   config.WorkflowConfig
	loc      *time.Location
	logger   logrus.FieldLogger
}

// NewRequestService 创建请假单服务
func NewRequestService(
	db *gorm.DB,
	resolver *assignment.Resolver,
	notifier notify.Notifier,
	policy config.WorkflowConfig,
	loc *time.Location,
	logger logrus.FieldLogger,
) RequestService {
	if loc == nil {
		loc = time.UTC
	}
	return &requestService{
		db:       db,
		users:    repository.NewUserRepository(db),
		resolver: resolver,
		notifier: notifier,
		policy:   policy,
		loc:      loc,
		logger:   logger,
	}
}

// Create 提交请假单,审批人在创建时解析并冻结
func (s *requestService) Create(ctx context.Context, actor auth.Actor, req *CreateLeaveRequest) (*model.LeaveRequestModel, error) {
	leaveFor, err := utils.TrimAndValidate(req.LeaveFor, 1000)
	if err != nil {
		return nil, validationError("leave_for: %v", err)
	}
	pickUpWith, err := utils.TrimAndValidate(req.PickUpWith, 255)
	if err != nil {
		return nil, validationError("pick_up_with: %v", err)
	}
	if req.ScheduledAt.IsZero() {
		return nil, validationError("scheduled_at is required")
	}

	vehicleNo, driverName := "-", "-"
	switch req.Transport {
	case model.TransportPublic:
	case model.TransportPrivate:
		if vehicleNo, err = utils.TrimAndValidate(req.VehicleNo, 64); err != nil {
			return nil, validationError("vehicle and driver are required for private transport")
		}
		if driverName, err = utils.TrimAndValidate(req.DriverName, 255); err != nil {
			return nil, validationError("vehicle and driver are required for private transport")
		}
	default:
		return nil, validationError("transport must be public or private")
	}

	student, err := s.users.FindByID(ctx, actor.ID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, validationError("student %s not found", actor.ID)
		}
		return nil, fmt.Errorf("failed to load student: %w", err)
	}
	category, ok := assignment.NormalizeCategory(string(student.Category))
	if !ok {
		return nil, validationError("hostel category is not set (hostler / non-hostler)")
	}

	resolution, err := s.resolver.Resolve(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve approvers: %w", err)
	}
	if resolution.Fallback {
		metrics.RecordAssignmentFallback(string(category))
		entry := s.logger.WithFields(logrus.Fields{
			"category":  category,
			"approvers": len(resolution.ApproverIDs),
		})
		if resolution.StaleSource != "" {
			entry.WithFields(logrus.Fields{
				"source":    resolution.StaleSource,
				"record_id": resolution.RecordID,
			}).Warn("assignment config lists no active wardens, falling back to all wardens")
		} else {
			entry.Warn("no assignment config matched, falling back to all wardens")
		}
	}
	if len(resolution.ApproverIDs) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoApprovers, category)
	}

	lr := &model.LeaveRequestModel{
		ID:          uuid.New().String(),
		RequesterID: student.ID,
		StudentID:   student.StudentID,
		Name:        student.Name,
		Email:       student.Email,
		Category:    category,
		LeaveFor:    leaveFor,
		PickUpWith:  pickUpWith,
		Transport:   req.Transport,
		VehicleNo:   vehicleNo,
		DriverName:  driverName,
		ScheduledAt: req.ScheduledAt.UTC(),
		Status:      model.RequestPending,
	}
	for _, id := range resolution.ApproverIDs {
		lr.Approvers = append(lr.Approvers, model.RequestApproverModel{ApproverID: id})
	}

	if err := repository.NewRequestRepository(s.db).Create(ctx, lr); err != nil {
		return nil, err
	}
	metrics.RecordRequestCreated(string(category))
	s.logger.WithFields(logrus.Fields{
		"request_id": lr.ID,
		"source":     resolution.Source,
		"approvers":  len(lr.Approvers),
	}).Info("leave request created")

	s.notifyApprovers(ctx, lr)
	return lr, nil
}

// ListOwn 列出本人的请假单
func (s *requestService) ListOwn(ctx context.Context, actor auth.Actor) ([]*model.LeaveRequestModel, error) {
	return repository.NewRequestRepository(s.db).FindByFilter(ctx, &repository.RequestFilter{RequesterID: actor.ID})
}

// ListForApprover 列出冻结名单包含当前用户的请假单
func (s *requestService) ListForApprover(ctx context.Context, actor auth.Actor, status string) ([]*model.LeaveRequestModel, error) {
	filter := &repository.RequestFilter{ApproverID: actor.ID}
	if status != "" {
		st := model.RequestStatus(status)
		if !validRequestStatus(st) {
			return nil, validationError("unknown status %q", status)
		}
		filter.Statuses = []model.RequestStatus{st}
	}
	return repository.NewRequestRepository(s.db).FindByFilter(ctx, filter)
}

// Decide 宿管审批,只有冻结名单中的审批人可以决定
func (s *requestService) Decide(ctx context.Context, actor auth.Actor, id string, req *DecideRequest) (*model.LeaveRequestModel, error) {
	if !validRequestStatus(req.Status) {
		return nil, validationError("unknown status %q", req.Status)
	}
	comment := utils.StripControl(req.Comment)

	repo := repository.NewRequestRepository(s.db)
	lr, err := s.findRequest(ctx, repo, id)
	if err != nil {
		return nil, err
	}

	if !lr.HasApprover(actor.ID) {
		return nil, fmt.Errorf("%w: not an approver of this request", ErrForbidden)
	}
	if s.policy.RequireActiveApprover {
		valid, err := s.users.FilterActiveByRole(ctx, []string{actor.ID}, model.RoleWarden)
		if err != nil {
			return nil, fmt.Errorf("failed to check approver: %w", err)
		}
		if len(valid) == 0 {
			return nil, fmt.Errorf("%w: approver is no longer an active warden", ErrForbidden)
		}
	}

	if err := s.apply(ctx, repo, lr, workflow.ActorApprover, req.Status, map[string]interface{}{
		"approver_comment": comment,
		"decided_by":       actor.ID,
	}); err != nil {
		return nil, err
	}
	lr.ApproverComment = comment
	lr.DecidedBy = actor.ID

	subject, body := decisionMail(lr, s.loc)
	s.notify(ctx, notify.Message{Channel: notify.ChannelEmail, Recipients: []string{lr.Email}, Subject: subject, Body: body})
	s.notify(ctx, notify.Message{
		Channel:    notify.ChannelPush,
		Recipients: []string{lr.RequesterID},
		Subject:    subject,
		Body:       body,
		Data:       map[string]interface{}{"request_id": lr.ID, "status": lr.Status},
	})
	return lr, nil
}

// ListGate 门岗看板:已批准和已外出的请假单
func (s *requestService) ListGate(ctx context.Context) ([]*model.LeaveRequestModel, error) {
	return repository.NewRequestRepository(s.db).FindByFilter(ctx, &repository.RequestFilter{
		Statuses: []model.RequestStatus{model.RequestApproved, model.RequestOut},
	})
}

// Gate 门岗登记出入,并短信通知监护人
func (s *requestService) Gate(ctx context.Context, actor auth.Actor, id string, req *GateRequest) (*model.LeaveRequestModel, error) {
	if !workflow.IsRequestTarget(workflow.ActorGate, req.Status) {
		return nil, validationError("status must be out or in")
	}

	repo := repository.NewRequestRepository(s.db)
	lr, err := s.findRequest(ctx, repo, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, repo, lr, workflow.ActorGate, req.Status, nil); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"request_id": lr.ID,
		"status":     lr.Status,
		"gatekeeper": actor.ID,
	}).Info("gate movement recorded")

	student, err := s.users.FindByID(ctx, lr.RequesterID)
	if err != nil {
		s.logger.WithError(err).WithField("request_id", lr.ID).Warn("failed to load guardian contact")
		return lr, nil
	}
	if phone := utils.NormalizePKPhone(student.GuardianContact); phone != "" {
		s.notify(ctx, notify.Message{
			Channel:    notify.ChannelSMS,
			Recipients: []string{phone},
			Body:       gateSMS(lr, time.Now().In(s.loc)),
		})
	}
	return lr, nil
}

// ListAll 列出全部请假单
func (s *requestService) ListAll(ctx context.Context) ([]*model.LeaveRequestModel, error) {
	return repository.NewRequestRepository(s.db).FindByFilter(ctx, nil)
}

func (s *requestService) findRequest(ctx context.Context, repo repository.RequestRepository, id string) (*model.LeaveRequestModel, error) {
	if err := utils.ValidateID(id); err != nil {
		return nil, validationError("id: %v", err)
	}
	lr, err := repo.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("leave request", id)
		}
		return nil, fmt.Errorf("failed to load leave request: %w", err)
	}
	return lr, nil
}

// apply 按迁移表检查后做条件更新,并发修改时同样返回 ErrInvalidTransition
func (s *requestService) apply(ctx context.Context, repo repository.RequestRepository, lr *model.LeaveRequestModel, actor workflow.Actor, to model.RequestStatus, fields map[string]interface{}) error {
	if workflow.RequestTerminal(lr.Status) {
		return fmt.Errorf("%w: request is already closed as %s", ErrInvalidTransition, lr.Status)
	}
	if !workflow.ValidRequestTransition(actor, lr.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, lr.Status, to)
	}
	ok, err := repo.UpdateStatus(ctx, lr.ID, lr.Status, to, fields)
	if err != nil {
		return fmt.Errorf("failed to update leave request: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s changed concurrently", ErrInvalidTransition, lr.ID)
	}
	metrics.RecordTransition("request", string(to))
	lr.Status = to
	return nil
}

func (s *requestService) notifyApprovers(ctx context.Context, lr *model.LeaveRequestModel) {
	approvers, err := s.users.FindByIDs(ctx, lr.ApproverIDs())
	if err != nil {
		s.logger.WithError(err).WithField("request_id", lr.ID).Warn("failed to load approver emails")
		return
	}
	emails := make([]string, 0, len(approvers))
	for _, a := range approvers {
		if a.Email != "" {
			emails = append(emails, a.Email)
		}
	}

	subject, body := newRequestMail(lr, s.loc)
	s.notify(ctx, notify.Message{Channel: notify.ChannelEmail, Recipients: emails, Subject: subject, Body: body})
	s.notify(ctx, notify.Message{
		Channel:    notify.ChannelPush,
		Recipients: lr.ApproverIDs(),
		Subject:    subject,
		Body:       fmt.Sprintf("%s (%s) requested leave", lr.Name, lr.StudentID),
		Data:       map[string]interface{}{"request_id": lr.ID},
	})
}

func (s *requestService) notify(ctx context.Context, msg notify.Message) {
	if s.notifier == nil || len(msg.Recipients) == 0 {
		return
	}
	// 通知在后台投递,不跟随请求 context 取消
	s.notifier.Notify(context.WithoutCancel(ctx), msg)
}

func validRequestStatus(st model.RequestStatus) bool {
	switch st {
	case model.RequestPending, model.RequestApproved, model.RequestRejected, model.RequestOut, model.RequestIn:
		return true
	}
	return false
}
