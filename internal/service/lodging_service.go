package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jabbar-dev/bnb-aimtech/internal/auth"
	"github.com/jabbar-dev/bnb-aimtech/internal/metrics"
	"github.com/jabbar-dev/bnb-aimtech/internal/model"
	"github.com/jabbar-dev/bnb-aimtech/internal/repository"
	"github.com/jabbar-dev/bnb-aimtech/internal/utils"
	"github.com/jabbar-dev/bnb-aimtech/internal/workflow"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// LodgingService 招待所预订服务接口
type LodgingService interface {
	Create(ctx context.Context, actor auth.Actor, req *CreateBookingRequest) (*model.LodgingBookingModel, error)
	List(ctx context.Context, status string) ([]*model.LodgingBookingModel, error)
	Update(ctx context.Context, actor auth.Actor, id string, req *UpdateBookingRequest) (*model.LodgingBookingModel, error)
	Pay(ctx context.Context, actor auth.Actor, id string, req *PayRequest) (*model.LodgingBookingModel, error)
	CashPending(ctx context.Context) (int64, error)
}

// CreateBookingRequest 新建预订请求
type CreateBookingRequest struct {
	Name         string    `json:"name" binding:"required"`
	CNIC         string    `json:"cnic" binding:"required"`
	RoomNo       string    `json:"room_no" binding:"required"`
	BookingDate  time.Time `json:"booking_date" binding:"required"`
	Organization string    `json:"organization"`
	GuestType    string    `json:"guest_type"`
	Purpose      string    `json:"purpose"`
	VehicleNo    string    `json:"vehicle_no"`
}

// UpdateBookingRequest 预订状态更新,可同时登记账单和付款
type UpdateBookingRequest struct {
	Status        model.BookingStatus `json:"status"`
	StayDays      *int                `json:"stay_days"`
	BillAmount    *int64              `json:"bill_amount"`
	PaymentMethod model.PaymentMethod `json:"payment_method"`
	TxRef         string              `json:"tx_ref"`
}

// PayRequest 付款请求
type PayRequest struct {
	Method model.PaymentMethod `json:"method" binding:"required"`
	TxRef  string              `json:"tx_ref"`
}

const defaultGuestType = "Outsider"

type lodgingService struct {
	db     *gorm.DB
	loc    *time.Location
	logger logrus.FieldLogger
}

// NewLodgingService 创建招待所预订服务,loc 决定同一天的边界
func NewLodgingService(db *gorm.DB, loc *time.Location, logger logrus.FieldLogger) LodgingService {
	if loc == nil {
		loc = time.UTC
	}
	return &lodgingService{db: db, loc: loc, logger: logger}
}

// dayBounds 返回 t 所在自然日的 [00:00, 23:59:59.999]
func dayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1).Add(-time.Millisecond)
	return start, end
}

// Create 新建预订,冲突检查和插入在同一事务中完成
func (s *lodgingService) Create(ctx context.Context, actor auth.Actor, req *CreateBookingRequest) (*model.LodgingBookingModel, error) {
	name, err := utils.TrimAndValidate(req.Name, 255)
	if err != nil {
		return nil, validationError("name: %v", err)
	}
	cnic, err := utils.NormalizeCNIC(req.CNIC)
	if err != nil {
		return nil, validationError("%v", err)
	}
	roomNo, err := utils.TrimAndValidate(req.RoomNo, 32)
	if err != nil {
		return nil, validationError("room_no: %v", err)
	}
	if req.BookingDate.IsZero() {
		return nil, validationError("booking_date is required")
	}
	guestType := utils.StripControl(req.GuestType)
	if guestType == "" {
		guestType = defaultGuestType
	}

	start, end := dayBounds(req.BookingDate, s.loc)
	booking := &model.LodgingBookingModel{
		ID:           uuid.New().String(),
		Name:         name,
		CNIC:         cnic,
		Organization: orDash(req.Organization),
		GuestType:    guestType,
		RoomNo:       roomNo,
		BookingDate:  req.BookingDate.UTC(),
		Purpose:      orDash(req.Purpose),
		VehicleNo:    orDash(req.VehicleNo),
		RegisteredBy: actor.ID,
		Status:       model.BookingReserved,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := repository.NewLodgingRepository(tx)
		if err := repo.LockRoomDay(ctx, roomNo, start); err != nil {
			return fmt.Errorf("failed to lock room: %w", err)
		}
		clash, err := repo.FindOccupying(ctx, roomNo, start.UTC(), end.UTC())
		if err != nil {
			return fmt.Errorf("failed to check room availability: %w", err)
		}
		if len(clash) > 0 {
			return fmt.Errorf("%w: room %s on %s", ErrRoomConflict, roomNo, start.Format("2006-01-02"))
		}
		return repo.Create(ctx, booking)
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// List 列出预订
func (s *lodgingService) List(ctx context.Context, status string) ([]*model.LodgingBookingModel, error) {
	filter := &repository.LodgingFilter{Limit: defaultListLimit}
	if status != "" {
		st := model.BookingStatus(status)
		if !validBookingStatus(st) {
			return nil, validationError("unknown status %q", status)
		}
		filter.Status = &st
	}
	return repository.NewLodgingRepository(s.db).FindByFilter(ctx, filter)
}

// Update 状态迁移;入住/退房时间只写一次,账单只在第一次退房时写入
func (s *lodgingService) Update(ctx context.Context, actor auth.Actor, id string, req *UpdateBookingRequest) (*model.LodgingBookingModel, error) {
	if req.Status == "" && req.PaymentMethod == model.PaymentNone {
		return nil, validationError("status or payment_method is required")
	}
	if req.Status != "" && !validBookingStatus(req.Status) {
		return nil, validationError("unknown status %q", req.Status)
	}
	if req.StayDays != nil && *req.StayDays < 0 {
		return nil, validationError("stay_days must not be negative")
	}
	if req.BillAmount != nil && *req.BillAmount < 0 {
		return nil, validationError("bill_amount must not be negative")
	}
	if req.PaymentMethod != model.PaymentNone {
		if err := validatePayment(req.PaymentMethod, req.TxRef); err != nil {
			return nil, err
		}
	}

	var booking *model.LodgingBookingModel
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := repository.NewLodgingRepository(tx)
		current, err := findBooking(ctx, repo, id)
		if err != nil {
			return err
		}

		if req.Status != "" {
			if err := s.transition(ctx, repo, current, req); err != nil {
				return err
			}
		}
		if req.PaymentMethod != model.PaymentNone {
			if err := setPayment(ctx, repo, id, req.PaymentMethod, req.TxRef); err != nil {
				return err
			}
		}

		booking, err = repo.FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id": id,
		"status":     booking.Status,
		"operator":   actor.ID,
	}).Info("lodging booking updated")
	return booking, nil
}

func (s *lodgingService) transition(ctx context.Context, repo repository.LodgingRepository, current *model.LodgingBookingModel, req *UpdateBookingRequest) error {
	to := req.Status
	if !workflow.ValidLodgingTransition(current.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, to)
	}

	now := time.Now()
	updates := map[string]interface{}{"status": to}
	switch to {
	case model.BookingCheckedIn:
		if current.CheckInAt == nil {
			updates["check_in_at"] = now
		}
	case model.BookingCheckedOut:
		if current.CheckOutAt == nil {
			updates["check_out_at"] = now
			if req.StayDays != nil {
				updates["stay_days"] = *req.StayDays
			}
			if req.BillAmount != nil {
				updates["bill_amount"] = *req.BillAmount
			}
		}
	}

	// 以读到的状态作为条件,保证时间戳判断和写入之间没有被并发修改
	ok, err := repo.Transition(ctx, current.ID, []model.BookingStatus{current.Status}, updates)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s changed concurrently", ErrInvalidTransition, current.ID)
	}
	metrics.RecordTransition("lodging", string(to))
	return nil
}

// Pay 登记付款方式,每个预订只能付款一次
func (s *lodgingService) Pay(ctx context.Context, actor auth.Actor, id string, req *PayRequest) (*model.LodgingBookingModel, error) {
	if err := validatePayment(req.Method, req.TxRef); err != nil {
		return nil, err
	}

	repo := repository.NewLodgingRepository(s.db)
	if _, err := findBooking(ctx, repo, id); err != nil {
		return nil, err
	}
	if err := setPayment(ctx, repo, id, req.Method, req.TxRef); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id": id,
		"method":     req.Method,
		"operator":   actor.ID,
	}).Info("lodging payment recorded")
	return repo.FindByID(ctx, id)
}

// CashPending 未解缴的现金总额
func (s *lodgingService) CashPending(ctx context.Context) (int64, error) {
	total, err := repository.NewLodgingRepository(s.db).SumUnbankedCash(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to sum unbanked cash: %w", err)
	}
	metrics.SetUnbankedCash(total)
	return total, nil
}

func findBooking(ctx context.Context, repo repository.LodgingRepository, id string) (*model.LodgingBookingModel, error) {
	if err := utils.ValidateID(id); err != nil {
		return nil, validationError("id: %v", err)
	}
	booking, err := repo.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("booking", id)
		}
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	return booking, nil
}

func validatePayment(method model.PaymentMethod, txRef string) error {
	switch method {
	case model.PaymentCash:
		return nil
	case model.PaymentAccount:
		if txRef == "" {
			return validationError("tx_ref is required for account payments")
		}
		return nil
	default:
		return validationError("payment method must be cash or account")
	}
}

func setPayment(ctx context.Context, repo repository.LodgingRepository, id string, method model.PaymentMethod, txRef string) error {
	if method != model.PaymentAccount {
		txRef = ""
	}
	ok, err := repo.SetPayment(ctx, id, method, utils.StripControl(txRef))
	if err != nil {
		return fmt.Errorf("failed to record payment: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: booking %s is already paid", ErrAlreadySettled, id)
	}
	return nil
}

func validBookingStatus(st model.BookingStatus) bool {
	switch st {
	case model.BookingReserved, model.BookingCheckedIn, model.BookingCheckedOut, model.BookingCancelled:
		return true
	}
	return false
}
