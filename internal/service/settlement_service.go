package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jabbar-dev/bnb-aimtech/internal/auth"
	"github.com/jabbar-dev/bnb-aimtech/internal/metrics"
	"github.com/jabbar-dev/bnb-aimtech/internal/model"
	"github.com/jabbar-dev/bnb-aimtech/internal/repository"
	"github.com/jabbar-dev/bnb-aimtech/internal/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// DefaultSettlementAttempts 解缴单分配的默认最大尝试次数
const DefaultSettlementAttempts = 5

// errDrift 选中的预订在标记前已被其他解缴单占用
var errDrift = errors.New("selected bookings changed before they were marked")

// SettlementService 现金解缴服务接口
type SettlementService interface {
	Create(ctx context.Context, actor auth.Actor, req *CreateSettlementRequest) (*model.CashSettlementModel, error)
	List(ctx context.Context, status string) ([]*model.CashSettlementModel, error)
	Get(ctx context.Context, id string) (*model.CashSettlementModel, error)
	Close(ctx context.Context, actor auth.Actor, id string, req *CloseSettlementRequest) (*model.CashSettlementModel, error)
	PendingTotal(ctx context.Context) (int64, error)
}

// CreateSettlementRequest 新建解缴单请求
// Amount 为空时解缴全部未解缴现金
type CreateSettlementRequest struct {
	Amount        *int64    `json:"amount"`
	DueDate       time.Time `json:"due_date" binding:"required"`
	DepositorName string    `json:"depositor_name"`
	DepositorCNIC string    `json:"depositor_cnic" binding:"required"`
}

// CloseSettlementRequest 上传缴款凭证
type CloseSettlementRequest struct {
	ProofRef string `json:"proof_ref"`
}

type settlementService struct {
	db          *gorm.DB
	maxAttempts int
	logger      logrus.FieldLogger
}

// NewSettlementService 创建现金解缴服务
func NewSettlementService(db *gorm.DB, maxAttempts int, logger logrus.FieldLogger) SettlementService {
	if maxAttempts <= 0 {
		maxAttempts = DefaultSettlementAttempts
	}
	return &settlementService{db: db, maxAttempts: maxAttempts, logger: logger}
}

// SelectFIFO 按顺序累加整笔预订,直到合计不小于 target
// rows 必须已按 created_at, id 升序排列
func SelectFIFO(rows []*model.LodgingBookingModel, target int64) (ids []string, sum int64) {
	for _, r := range rows {
		ids = append(ids, r.ID)
		sum += r.BillAmount
		if sum >= target {
			break
		}
	}
	return ids, sum
}

// Create 把未解缴现金按 FIFO 捆绑成一张解缴单
// 选择、编号、插入和标记在一个事务内完成;标记行数不符或编号冲突时整体回滚重试
func (s *settlementService) Create(ctx context.Context, actor auth.Actor, req *CreateSettlementRequest) (*model.CashSettlementModel, error) {
	if req.DueDate.IsZero() {
		return nil, validationError("due_date is required")
	}
	cnic, err := utils.NormalizeCNIC(req.DepositorCNIC)
	if err != nil {
		return nil, validationError("depositor_cnic: %v", err)
	}
	if req.Amount != nil && *req.Amount < 1 {
		return nil, validationError("amount must be greater than 0")
	}

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		settlement, err := s.allocate(ctx, actor, req, cnic)
		switch {
		case err == nil:
			metrics.RecordSettlementCreated()
			s.logger.WithFields(logrus.Fields{
				"settlement_id": settlement.ID,
				"serial_no":     settlement.SerialNo,
				"amount":        settlement.Amount,
				"attempt":       attempt,
			}).Info("cash settlement created")
			return s.Get(ctx, settlement.ID)
		case errors.Is(err, errDrift):
			metrics.RecordSettlementRetry("drift")
		case repository.IsDuplicateKey(err):
			metrics.RecordSettlementRetry("duplicate_serial")
		default:
			return nil, err
		}
		s.logger.WithError(err).WithField("attempt", attempt).Debug("settlement allocation retry")
	}
	return nil, fmt.Errorf("%w: settlement allocation did not settle after %d attempts", ErrConflict, s.maxAttempts)
}

func (s *settlementService) allocate(ctx context.Context, actor auth.Actor, req *CreateSettlementRequest, cnic string) (*model.CashSettlementModel, error) {
	var settlement *model.CashSettlementModel
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lodging := repository.NewLodgingRepository(tx)
		settlements := repository.NewSettlementRepository(tx)

		rows, err := lodging.ListUnbankedCash(ctx, true)
		if err != nil {
			return fmt.Errorf("failed to list unbanked cash: %w", err)
		}
		var total int64
		for _, r := range rows {
			total += r.BillAmount
		}
		if total <= 0 {
			return fmt.Errorf("%w: nothing to deposit", ErrInsufficientFunds)
		}

		target := total
		if req.Amount != nil {
			target = *req.Amount
		}
		if target > total {
			return fmt.Errorf("%w: requested %d exceeds cash in hand %d", ErrInsufficientFunds, target, total)
		}

		ids, sum := SelectFIFO(rows, target)

		serial, err := settlements.NextSerialNo(ctx)
		if err != nil {
			return fmt.Errorf("failed to allocate serial number: %w", err)
		}

		depositor := utils.StripControl(req.DepositorName)
		if depositor == "" {
			depositor = "-"
		}
		settlement = &model.CashSettlementModel{
			ID:            uuid.New().String(),
			SerialNo:      serial,
			Amount:        sum,
			Status:        model.SettlementPending,
			DueDate:       req.DueDate.UTC(),
			DepositorName: depositor,
			DepositorCNIC: cnic,
			CreatedBy:     actor.ID,
		}
		if err := settlements.Create(ctx, settlement); err != nil {
			return err
		}

		flipped, err := lodging.MarkDeposited(ctx, ids, settlement.ID)
		if err != nil {
			return fmt.Errorf("failed to mark bookings deposited: %w", err)
		}
		if flipped != int64(len(ids)) {
			return errDrift
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return settlement, nil
}

// List 列出解缴单,编号倒序
func (s *settlementService) List(ctx context.Context, status string) ([]*model.CashSettlementModel, error) {
	filter := &repository.SettlementFilter{Limit: defaultListLimit}
	if status != "" {
		st := model.SettlementStatus(status)
		if st != model.SettlementPending && st != model.SettlementPaid {
			return nil, validationError("unknown status %q", status)
		}
		filter.Status = &st
	}
	return repository.NewSettlementRepository(s.db).FindByFilter(ctx, filter)
}

// Get 查询解缴单及其捆绑的预订
func (s *settlementService) Get(ctx context.Context, id string) (*model.CashSettlementModel, error) {
	if err := utils.ValidateID(id); err != nil {
		return nil, validationError("id: %v", err)
	}
	settlement, err := repository.NewSettlementRepository(s.db).FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("settlement", id)
		}
		return nil, fmt.Errorf("failed to load settlement: %w", err)
	}
	return settlement, nil
}

// Close 登记缴款,只有 pending 的解缴单可以关闭
func (s *settlementService) Close(ctx context.Context, actor auth.Actor, id string, req *CloseSettlementRequest) (*model.CashSettlementModel, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	ok, err := repository.NewSettlementRepository(s.db).Close(ctx, id, utils.StripControl(req.ProofRef), time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to close settlement: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: settlement %s", ErrAlreadySettled, id)
	}
	metrics.RecordTransition("settlement", string(model.SettlementPaid))
	s.logger.WithFields(logrus.Fields{
		"settlement_id": id,
		"operator":      actor.ID,
	}).Info("cash settlement closed")

	return s.Get(ctx, id)
}

// PendingTotal 未解缴的现金总额
func (s *settlementService) PendingTotal(ctx context.Context) (int64, error) {
	total, err := repository.NewLodgingRepository(s.db).SumUnbankedCash(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to sum unbanked cash: %w", err)
	}
	metrics.SetUnbankedCash(total)
	return total, nil
}
