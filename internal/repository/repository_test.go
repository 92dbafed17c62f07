package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jabbar-dev/bnb-aimtech/internal/database"
	"github.com/jabbar-dev/bnb-aimtech/internal/model"
	"github.com/jabbar-dev/bnb-aimtech/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB 创建迁移好的内存数据库
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func newBooking(amount int64, createdAt time.Time) *model.LodgingBookingModel {
	return &model.LodgingBookingModel{
		ID:            uuid.NewString(),
		Name:          "Guest",
		CNIC:          "3520212345671",
		RoomNo:        "101",
		BookingDate:   createdAt,
		RegisteredBy:  "gh-1",
		Status:        model.BookingCheckedOut,
		BillAmount:    amount,
		PaymentMethod: model.PaymentCash,
		CreatedAt:     createdAt,
	}
}

// TestUserRepository_FilterActiveByRole 测试只保留在职宿管并保持顺序
func TestUserRepository_FilterActiveByRole(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewUserRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &model.UserModel{ID: "w1", Name: "A", Email: "a@x", Role: model.RoleWarden, Active: true}))
	require.NoError(t, repo.Save(ctx, &model.UserModel{ID: "w2", Name: "B", Email: "b@x", Role: model.RoleWarden, Active: true}))
	require.NoError(t, repo.Save(ctx, &model.UserModel{ID: "s1", Name: "C", Email: "c@x", Role: model.RoleStudent, Active: true}))
	require.NoError(t, db.Model(&model.UserModel{}).Where("id = ?", "w2").Update("active", false).Error)

	ids, err := repo.FilterActiveByRole(ctx, []string{"s1", "w2", "w1", "w1", "ghost"}, model.RoleWarden)
	require.NoError(t, err)
	assert.Equal(t, []string{"w1"}, ids)

	wardens, err := repo.ListActiveByRole(ctx, model.RoleWarden)
	require.NoError(t, err)
	require.Len(t, wardens, 1)
	assert.Equal(t, "w1", wardens[0].ID)

	users, err := repo.FindByIDs(ctx, []string{"w2", "s1", "ghost"})
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "s1", users[0].ID)
	assert.Equal(t, "w2", users[1].ID)
}

// TestRequestRepository_CreateAndConditionalUpdate 测试冻结审批人和条件更新
func TestRequestRepository_CreateAndConditionalUpdate(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewRequestRepository(db)
	ctx := context.Background()

	req := &model.LeaveRequestModel{
		ID:          uuid.NewString(),
		RequesterID: "s1",
		Name:        "Student",
		Category:    model.CategoryHostler,
		LeaveFor:    "home",
		PickUpWith:  "father",
		Transport:   model.TransportPublic,
		ScheduledAt: time.Now(),
		Status:      model.RequestPending,
		Approvers:   []model.RequestApproverModel{{ApproverID: "w1"}, {ApproverID: "w2"}},
	}
	require.NoError(t, repo.Create(ctx, req))

	got, err := repo.FindByID(ctx, req.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"w1", "w2"}, got.ApproverIDs())

	inbox, err := repo.FindByFilter(ctx, &repository.RequestFilter{ApproverID: "w2"})
	require.NoError(t, err)
	require.Len(t, inbox, 1)

	ok, err := repo.UpdateStatus(ctx, req.ID, model.RequestPending, model.RequestApproved, map[string]interface{}{"decided_by": "w1"})
	require.NoError(t, err)
	assert.True(t, ok)

	// 第二次从 pending 出发的更新不会生效
	ok, err = repo.UpdateStatus(ctx, req.ID, model.RequestPending, model.RequestRejected, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err = repo.FindByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestApproved, got.Status)
	assert.Equal(t, "w1", got.DecidedBy)
}

// TestRequestRepository_CreateWithoutApprovers 测试无审批人时拒绝写入
func TestRequestRepository_CreateWithoutApprovers(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewRequestRepository(db)

	err := repo.Create(context.Background(), &model.LeaveRequestModel{ID: "r1", Status: model.RequestPending})
	assert.Error(t, err)

	var count int64
	db.Model(&model.LeaveRequestModel{}).Count(&count)
	assert.Zero(t, count)
}

// TestVisitorRepository_MarkStatusKeepsFirstTimestamp 测试时间戳只写一次
func TestVisitorRepository_MarkStatusKeepsFirstTimestamp(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewVisitorRepository(db)
	ctx := context.Background()

	log := &model.VisitorLogModel{ID: "v1", Name: "Visitor", CNIC: "3520212345671", VisitingOffice: "Admin", RecordedBy: "g1", Status: model.VisitorPending}
	require.NoError(t, repo.Create(ctx, log))

	first := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	ok, err := repo.MarkStatus(ctx, "v1", model.VisitorIn, first)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = repo.MarkStatus(ctx, "v1", model.VisitorIn, first.Add(time.Hour))
	require.NoError(t, err)

	got, err := repo.FindByID(ctx, "v1")
	require.NoError(t, err)
	require.NotNil(t, got.InAt)
	assert.True(t, got.InAt.Equal(first))
	assert.Nil(t, got.OutAt)

	found, err := repo.Search(ctx, "Visit", 10)
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

// TestLodgingRepository_UnbankedCashFIFO 测试未解缴现金按创建时间排序并可条件标记
func TestLodgingRepository_UnbankedCashFIFO(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewLodgingRepository(db)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	b1 := newBooking(500, base)
	b2 := newBooking(700, base.Add(time.Minute))
	b3 := newBooking(300, base.Add(2*time.Minute))
	for _, b := range []*model.LodgingBookingModel{b3, b1, b2} {
		require.NoError(t, repo.Create(ctx, b))
	}

	rows, err := repo.ListUnbankedCash(ctx, true)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []int64{500, 700, 300}, []int64{rows[0].BillAmount, rows[1].BillAmount, rows[2].BillAmount})

	total, err := repo.SumUnbankedCash(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), total)

	n, err := repo.MarkDeposited(ctx, []string{b1.ID, b2.ID}, "s-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	// 已解缴的行不会再次翻转
	n, err = repo.MarkDeposited(ctx, []string{b1.ID, b3.ID}, "s-2")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	total, err = repo.SumUnbankedCash(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)
}

// TestLodgingRepository_SetPaymentOnce 测试付款方式只能写入一次
func TestLodgingRepository_SetPaymentOnce(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewLodgingRepository(db)
	ctx := context.Background()

	b := newBooking(1000, time.Now())
	b.PaymentMethod = model.PaymentNone
	require.NoError(t, repo.Create(ctx, b))

	ok, err := repo.SetPayment(ctx, b.ID, model.PaymentAccount, "TX-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.SetPayment(ctx, b.ID, model.PaymentCash, "")
	require.NoError(t, err)
	assert.False(t, ok)
}

// TestSettlementRepository_SerialAndClose 测试编号起点、唯一索引和关闭
func TestSettlementRepository_SerialAndClose(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewSettlementRepository(db)
	ctx := context.Background()

	serial, err := repo.NextSerialNo(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.FirstSerialNo, serial)

	s := &model.CashSettlementModel{ID: "s1", SerialNo: serial, Amount: 100, Status: model.SettlementPending, DueDate: time.Now()}
	require.NoError(t, repo.Create(ctx, s))

	dup := &model.CashSettlementModel{ID: "s2", SerialNo: serial, Amount: 100, Status: model.SettlementPending, DueDate: time.Now()}
	err = repo.Create(ctx, dup)
	assert.True(t, repository.IsDuplicateKey(err), "expected duplicate key, got %v", err)

	serial, err = repo.NextSerialNo(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.FirstSerialNo+1, serial)

	ok, err := repo.Close(ctx, "s1", "proof.jpg", time.Now())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Close(ctx, "s1", "other.jpg", time.Now())
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.FindByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, model.SettlementPaid, got.Status)
	assert.Equal(t, "proof.jpg", got.ProofRef)
	assert.Equal(t, model.PaymentCash, got.Method)
}

// TestAssignmentRepository_RecentNewestFirst 测试分配配置按更新时间倒序
func TestAssignmentRepository_RecentNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewAssignmentRepository(db)
	ctx := context.Background()

	old := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Append(ctx, model.AssignmentTableAlt, &model.AssignmentConfigModel{
		ID: "a1", Hostler: []byte(`["w1"]`), CreatedAt: old, UpdatedAt: old,
	}))
	require.NoError(t, repo.Append(ctx, model.AssignmentTableAlt, &model.AssignmentConfigModel{
		ID: "a2", Hostler: []byte(`["w2"]`), CreatedAt: old.Add(time.Hour), UpdatedAt: old.Add(time.Hour),
	}))

	rows, err := repo.Recent(ctx, model.AssignmentTableAlt, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "a2", rows[0].ID)

	latest, err := repo.Latest(ctx, model.AssignmentTableAlt)
	require.NoError(t, err)
	assert.Equal(t, "a2", latest.ID)

	_, err = repo.Latest(ctx, model.AssignmentTablePrimary)
	assert.True(t, repository.IsNotFound(err))
}
