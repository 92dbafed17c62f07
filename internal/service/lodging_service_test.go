package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/jabbar-dev/bnb-aimtech/internal/auth"
	"github.com/jabbar-dev/bnb-aimtech/internal/model"
	"github.com/jabbar-dev/bnb-aimtech/internal/service"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var guestHouse = auth.Actor{ID: "gh1", Role: model.RoleGuestHouse}

func newLodgingService(t *testing.T) (service.LodgingService, *gorm.DB) {
	db := setupTestDB(t)
	logger, _ := test.NewNullLogger()
	karachi, err := time.LoadLocation("Asia/Karachi")
	require.NoError(t, err)
	return service.NewLodgingService(db, karachi, logger), db
}

func booking(room string, at time.Time) *service.CreateBookingRequest {
	return &service.CreateBookingRequest{
		Name:        "Dr. Saima",
		CNIC:        "45102-1234567-1",
		RoomNo:      room,
		BookingDate: at,
	}
}

func int64Ptr(v int64) *int64 { return &v }
func intPtr(v int) *int       { return &v }

// TestLodgingService_RoomClash 测试同房同日冲突,取消或退房后可以再订
func TestLodgingService_RoomClash(t *testing.T) {
	svc, _ := newLodgingService(t)
	ctx := context.Background()
	karachi, _ := time.LoadLocation("Asia/Karachi")

	morning := time.Date(2026, 10, 20, 0, 30, 0, 0, karachi)
	first, err := svc.Create(ctx, guestHouse, booking("101", morning))
	require.NoError(t, err)
	assert.Equal(t, model.BookingReserved, first.Status)
	assert.Equal(t, "4510212345671", first.CNIC)
	assert.Equal(t, "-", first.Organization)
	assert.Equal(t, "Outsider", first.GuestType)

	// 同一天最后一毫秒仍然冲突
	_, err = svc.Create(ctx, guestHouse, booking("101", time.Date(2026, 10, 20, 23, 59, 59, 999e6, karachi)))
	assert.ErrorIs(t, err, service.ErrRoomConflict)

	// 其他房间和第二天不冲突
	_, err = svc.Create(ctx, guestHouse, booking("102", morning))
	require.NoError(t, err)
	_, err = svc.Create(ctx, guestHouse, booking("101", time.Date(2026, 10, 21, 0, 0, 0, 0, karachi)))
	require.NoError(t, err)

	_, err = svc.Update(ctx, guestHouse, first.ID, &service.UpdateBookingRequest{Status: model.BookingCancelled})
	require.NoError(t, err)

	again, err := svc.Create(ctx, guestHouse, booking("101", morning))
	require.NoError(t, err)

	_, err = svc.Update(ctx, guestHouse, again.ID, &service.UpdateBookingRequest{Status: model.BookingCheckedOut})
	require.NoError(t, err)
	_, err = svc.Create(ctx, guestHouse, booking("101", morning))
	require.NoError(t, err)
}

func TestLodgingService_CreateValidation(t *testing.T) {
	svc, _ := newLodgingService(t)
	ctx := context.Background()

	bad := booking("101", time.Now())
	bad.CNIC = "12345"
	_, err := svc.Create(ctx, guestHouse, bad)
	assert.ErrorIs(t, err, service.ErrValidation)

	noDate := booking("101", time.Time{})
	_, err = svc.Create(ctx, guestHouse, noDate)
	assert.ErrorIs(t, err, service.ErrValidation)

	noRoom := booking("", time.Now())
	_, err = svc.Create(ctx, guestHouse, noRoom)
	assert.ErrorIs(t, err, service.ErrValidation)
}

// TestLodgingService_CheckoutOnce 测试时间戳和账单只在第一次写入
func TestLodgingService_CheckoutOnce(t *testing.T) {
	svc, _ := newLodgingService(t)
	ctx := context.Background()

	b, err := svc.Create(ctx, guestHouse, booking("201", time.Now()))
	require.NoError(t, err)

	in, err := svc.Update(ctx, guestHouse, b.ID, &service.UpdateBookingRequest{Status: model.BookingCheckedIn})
	require.NoError(t, err)
	require.NotNil(t, in.CheckInAt)

	_, err = svc.Update(ctx, guestHouse, b.ID, &service.UpdateBookingRequest{Status: model.BookingCheckedIn})
	assert.ErrorIs(t, err, service.ErrInvalidTransition)

	out, err := svc.Update(ctx, guestHouse, b.ID, &service.UpdateBookingRequest{
		Status: model.BookingCheckedOut, StayDays: intPtr(2), BillAmount: int64Ptr(5000),
	})
	require.NoError(t, err)
	require.NotNil(t, out.CheckOutAt)
	assert.Equal(t, 2, out.StayDays)
	assert.Equal(t, int64(5000), out.BillAmount)

	again, err := svc.Update(ctx, guestHouse, b.ID, &service.UpdateBookingRequest{
		Status: model.BookingCheckedOut, StayDays: intPtr(9), BillAmount: int64Ptr(9000),
	})
	require.NoError(t, err)
	assert.Equal(t, out.CheckOutAt.UnixNano(), again.CheckOutAt.UnixNano())
	assert.Equal(t, 2, again.StayDays)
	assert.Equal(t, int64(5000), again.BillAmount)

	_, err = svc.Update(ctx, guestHouse, b.ID, &service.UpdateBookingRequest{Status: model.BookingCancelled})
	assert.ErrorIs(t, err, service.ErrInvalidTransition)

	_, err = svc.Update(ctx, guestHouse, b.ID, &service.UpdateBookingRequest{Status: "gone"})
	assert.ErrorIs(t, err, service.ErrValidation)

	_, err = svc.Update(ctx, guestHouse, "missing", &service.UpdateBookingRequest{Status: model.BookingCheckedIn})
	assert.ErrorIs(t, err, service.ErrNotFound)
}

// TestLodgingService_CheckoutAfterCancel 测试取消后仍可退房结账,但不能重新入住
func TestLodgingService_CheckoutAfterCancel(t *testing.T) {
	svc, _ := newLodgingService(t)
	ctx := context.Background()

	b, err := svc.Create(ctx, guestHouse, booking("202", time.Now()))
	require.NoError(t, err)

	cancelled, err := svc.Update(ctx, guestHouse, b.ID, &service.UpdateBookingRequest{Status: model.BookingCancelled})
	require.NoError(t, err)
	assert.Equal(t, model.BookingCancelled, cancelled.Status)

	_, err = svc.Update(ctx, guestHouse, b.ID, &service.UpdateBookingRequest{Status: model.BookingCheckedIn})
	assert.ErrorIs(t, err, service.ErrInvalidTransition)

	out, err := svc.Update(ctx, guestHouse, b.ID, &service.UpdateBookingRequest{
		Status: model.BookingCheckedOut, StayDays: intPtr(1), BillAmount: int64Ptr(1500),
	})
	require.NoError(t, err)
	assert.Equal(t, model.BookingCheckedOut, out.Status)
	require.NotNil(t, out.CheckOutAt)
	assert.Equal(t, int64(1500), out.BillAmount)
}

// TestLodgingService_PayOnce 测试付款只能登记一次
func TestLodgingService_PayOnce(t *testing.T) {
	svc, _ := newLodgingService(t)
	ctx := context.Background()

	b, err := svc.Create(ctx, guestHouse, booking("301", time.Now()))
	require.NoError(t, err)
	_, err = svc.Update(ctx, guestHouse, b.ID, &service.UpdateBookingRequest{
		Status: model.BookingCheckedOut, BillAmount: int64Ptr(3000),
	})
	require.NoError(t, err)

	_, err = svc.Pay(ctx, guestHouse, b.ID, &service.PayRequest{Method: model.PaymentAccount})
	assert.ErrorIs(t, err, service.ErrValidation, "转账必须有流水号")

	_, err = svc.Pay(ctx, guestHouse, b.ID, &service.PayRequest{Method: "cheque"})
	assert.ErrorIs(t, err, service.ErrValidation)

	paid, err := svc.Pay(ctx, guestHouse, b.ID, &service.PayRequest{Method: model.PaymentCash, TxRef: "ignored"})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentCash, paid.PaymentMethod)
	assert.Empty(t, paid.TxRef)

	_, err = svc.Pay(ctx, guestHouse, b.ID, &service.PayRequest{Method: model.PaymentAccount, TxRef: "TX-1"})
	assert.ErrorIs(t, err, service.ErrAlreadySettled)

	total, err := svc.CashPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), total)
}

// TestLodgingService_UpdateWithPayment 测试状态和付款一起提交
func TestLodgingService_UpdateWithPayment(t *testing.T) {
	svc, _ := newLodgingService(t)
	ctx := context.Background()

	b, err := svc.Create(ctx, guestHouse, booking("401", time.Now()))
	require.NoError(t, err)

	out, err := svc.Update(ctx, guestHouse, b.ID, &service.UpdateBookingRequest{
		Status:        model.BookingCheckedOut,
		BillAmount:    int64Ptr(1200),
		PaymentMethod: model.PaymentAccount,
		TxRef:         "HBL-778",
	})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentAccount, out.PaymentMethod)
	assert.Equal(t, "HBL-778", out.TxRef)

	// 已付款时整次更新回滚
	_, err = svc.Update(ctx, guestHouse, b.ID, &service.UpdateBookingRequest{
		Status:        model.BookingCheckedOut,
		PaymentMethod: model.PaymentCash,
	})
	assert.ErrorIs(t, err, service.ErrAlreadySettled)

	total, err := svc.CashPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)

	list, err := svc.List(ctx, string(model.BookingCheckedOut))
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
