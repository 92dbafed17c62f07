package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jabbar-dev/bnb-aimtech/internal/api"
	"github.com/jabbar-dev/bnb-aimtech/internal/assignment"
	"github.com/jabbar-dev/bnb-aimtech/internal/auth"
	"github.com/jabbar-dev/bnb-aimtech/internal/config"
	"github.com/jabbar-dev/bnb-aimtech/internal/database"
	"github.com/jabbar-dev/bnb-aimtech/internal/model"
	"github.com/jabbar-dev/bnb-aimtech/internal/notify"
	"github.com/jabbar-dev/bnb-aimtech/internal/repository"
	"github.com/jabbar-dev/bnb-aimtech/internal/service"
	"github.com/jabbar-dev/bnb-aimtech/internal/websocket"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "api-test-secret"

// testServer 完整装配的路由和数据库
type testServer struct {
	t      *testing.T
	db     *gorm.DB
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
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

	cfg := config.Default()
	cfg.Auth.HMACSecret = testSecret
	cfg.RateLimit.RPS = 0

	validator, err := auth.NewTokenValidator(cfg.Auth)
	require.NoError(t, err)

	log, _ := test.NewNullLogger()
	users := repository.NewUserRepository(db)
	resolver := assignment.NewResolver(
		assignment.DefaultSources(repository.NewAssignmentRepository(db)),
		assignment.NewDirectory(users),
		assignment.DefaultScanWindow,
	)

	router := api.SetupRoutes(api.RouterOptions{
		Config:    cfg,
		Logger:    log,
		DB:        db,
		Validator: validator,
		Users:     users,
		Hub:       websocket.NewHub(),
		Services: api.Services{
			Requests:    service.NewRequestService(db, resolver, notify.Nop{}, cfg.Workflow, time.UTC, log),
			Visitors:    service.NewVisitorService(db),
			Lodging:     service.NewLodgingService(db, time.UTC, log),
			Settlements: service.NewSettlementService(db, 0, log),
			Assignments: service.NewAssignmentService(db, log),
		},
	})
	return &testServer{t: t, db: db, router: router}
}

func (s *testServer) user(id string, role model.Role, category model.Category) {
	s.t.Helper()
	require.NoError(s.t, repository.NewUserRepository(s.db).Save(context.Background(), &model.UserModel{
		ID: id, Name: id, Email: id + "@bnbwu.edu.pk", Role: role, Category: category,
		GuardianContact: "03001234567", Active: true,
	}))
}

func token(t *testing.T, sub string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

// do 以 as 的身份发送请求,as 为空时不带令牌
func (s *testServer) do(method, path, as string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if as != "" {
		req.Header.Set("Authorization", "Bearer "+token(s.t, as))
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder, dst interface{}) error {
	return json.Unmarshal(w.Body.Bytes(), dst)
}

// data 解析成功响应中的 data
func data[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var resp struct {
		Code int `json:"code"`
		Data T   `json:"data"`
	}
	require.NoError(t, decode(w, &resp), w.Body.String())
	assert.Equal(t, 0, resp.Code)
	return resp.Data
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"healthy"`)

	w = s.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "database_connections_max")
}

// TestAuthentication 测试令牌和账号状态校验
func TestAuthentication(t *testing.T) {
	s := newTestServer(t)
	s.user("s1", model.RoleStudent, model.CategoryHostler)

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/v1/requests", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/v1/requests", "ghost", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/v1/requests", "s1", nil).Code)

	require.NoError(t, s.db.Model(&model.UserModel{}).Where("id = ?", "s1").Update("active", false).Error)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/v1/requests", "s1", nil).Code)
}

// TestCapabilities 测试角色权限
func TestCapabilities(t *testing.T) {
	s := newTestServer(t)
	s.user("s1", model.RoleStudent, model.CategoryHostler)
	s.user("w1", model.RoleWarden, "")
	s.user("gk", model.RoleGatekeeper, "")
	s.user("su", model.RoleSuperAdmin, "")

	for _, tc := range []struct {
		as     string
		method string
		path   string
		status int
	}{
		{"s1", http.MethodGet, "/api/v1/requests/approver", http.StatusForbidden},
		{"s1", http.MethodGet, "/api/v1/guests", http.StatusForbidden},
		{"w1", http.MethodGet, "/api/v1/requests", http.StatusForbidden},
		{"w1", http.MethodGet, "/api/v1/requests/approver", http.StatusOK},
		{"gk", http.MethodGet, "/api/v1/requests/gate", http.StatusOK},
		{"gk", http.MethodGet, "/api/v1/lodging", http.StatusForbidden},
		{"gk", http.MethodGet, "/api/v1/settlements", http.StatusOK},
		{"gk", http.MethodGet, "/api/v1/assignments", http.StatusForbidden},
		{"su", http.MethodGet, "/api/v1/assignments", http.StatusOK},
		{"su", http.MethodGet, "/api/v1/requests/admin", http.StatusOK},
	} {
		w := s.do(tc.method, tc.path, tc.as, nil)
		assert.Equal(t, tc.status, w.Code, "%s %s as %s", tc.method, tc.path, tc.as)
	}
}

// TestLeaveRequestFlow 测试提交、审批、出门、返回的完整流程
func TestLeaveRequestFlow(t *testing.T) {
	s := newTestServer(t)
	s.user("s1", model.RoleStudent, model.CategoryHostler)
	s.user("w1", model.RoleWarden, "")
	s.user("w2", model.RoleWarden, "")
	s.user("gk", model.RoleGatekeeper, "")
	s.user("su", model.RoleSuperAdmin, "")

	w := s.do(http.MethodPut, "/api/v1/assignments", "su", service.PutAssignmentRequest{Hostler: []string{"w1"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/v1/requests", "s1", map[string]interface{}{
		"leave_for": "Home", "pick_up_with": "Father", "transport": "public",
		"scheduled_at": time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := data[model.LeaveRequestModel](t, w)
	assert.Equal(t, model.RequestPending, created.Status)

	// 不在冻结名单中的宿管
	w = s.do(http.MethodPut, "/api/v1/requests/approver/"+created.ID, "w2", service.DecideRequest{Status: model.RequestApproved})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// 门岗不能处理未批准的请假单
	w = s.do(http.MethodPut, "/api/v1/requests/gate/"+created.ID, "gk", service.GateRequest{Status: model.RequestOut})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPut, "/api/v1/requests/approver/"+created.ID, "w1", service.DecideRequest{Status: model.RequestApproved, Comment: "ok"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// 审批后再审批为冲突
	w = s.do(http.MethodPut, "/api/v1/requests/approver/"+created.ID, "w1", service.DecideRequest{Status: model.RequestRejected})
	assert.Equal(t, http.StatusConflict, w.Code)

	inbox := data[[]model.LeaveRequestModel](t, s.do(http.MethodGet, "/api/v1/requests/approver?status=approved", "w1", nil))
	assert.Len(t, inbox, 1)

	board := data[[]model.LeaveRequestModel](t, s.do(http.MethodGet, "/api/v1/requests/gate", "gk", nil))
	require.Len(t, board, 1)

	w = s.do(http.MethodPut, "/api/v1/requests/gate/"+created.ID, "gk", service.GateRequest{Status: model.RequestOut})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = s.do(http.MethodPut, "/api/v1/requests/gate/"+created.ID, "gk", service.GateRequest{Status: model.RequestIn})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, model.RequestIn, data[model.LeaveRequestModel](t, w).Status)

	// 已返回的请假单不能再出门
	w = s.do(http.MethodPut, "/api/v1/requests/gate/"+created.ID, "gk", service.GateRequest{Status: model.RequestOut})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPut, "/api/v1/requests/approver/missing", "w1", service.DecideRequest{Status: model.RequestApproved})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestCreateRequest_NoApprovers 测试系统中没有宿管时返回 409
func TestCreateRequest_NoApprovers(t *testing.T) {
	s := newTestServer(t)
	s.user("s1", model.RoleStudent, model.CategoryNonHostler)

	w := s.do(http.MethodPost, "/api/v1/requests", "s1", map[string]interface{}{
		"leave_for": "Home", "pick_up_with": "Father", "transport": "public",
		"scheduled_at": time.Now().UTC().Format(time.RFC3339),
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodPost, "/api/v1/requests", "s1", map[string]interface{}{"leave_for": "Home"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestLodgingAndSettlementFlow 测试预订冲突、付款和现金解缴
func TestLodgingAndSettlementFlow(t *testing.T) {
	s := newTestServer(t)
	s.user("vc", model.RoleVCOffice, "")
	day := time.Date(2026, 11, 2, 10, 0, 0, 0, time.UTC)

	book := func(room string) *httptest.ResponseRecorder {
		return s.do(http.MethodPost, "/api/v1/lodging", "vc", service.CreateBookingRequest{
			Name: "Dr. Rubina", CNIC: "45102-1234567-1", RoomNo: room, BookingDate: day,
		})
	}
	w := book("12")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	first := data[model.LodgingBookingModel](t, w)
	assert.Equal(t, http.StatusConflict, book("12").Code)

	w = s.do(http.MethodPut, "/api/v1/lodging/"+first.ID, "vc", map[string]interface{}{
		"status": "checked-out", "stay_days": 2, "bill_amount": 4000, "payment_method": "cash",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPut, "/api/v1/lodging/"+first.ID+"/pay", "vc", service.PayRequest{Method: model.PaymentAccount, TxRef: "TX-9"})
	assert.Equal(t, http.StatusConflict, w.Code)

	total := data[api.TotalResponse](t, s.do(http.MethodGet, "/api/v1/lodging/cash-pending", "vc", nil))
	assert.Equal(t, int64(4000), total.Total)

	w = s.do(http.MethodPost, "/api/v1/settlements", "vc", map[string]interface{}{
		"amount": 5000, "due_date": day.Format(time.RFC3339), "depositor_cnic": "4510212345671",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodPost, "/api/v1/settlements", "vc", map[string]interface{}{
		"due_date": day.Format(time.RFC3339), "depositor_cnic": "4510212345671",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	challan := data[model.CashSettlementModel](t, w)
	assert.Equal(t, model.FirstSerialNo, challan.SerialNo)
	assert.Equal(t, int64(4000), challan.Amount)

	w = s.do(http.MethodPatch, "/api/v1/settlements/"+challan.ID+"/close", "vc", service.CloseSettlementRequest{ProofRef: "receipt.jpg"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = s.do(http.MethodPatch, "/api/v1/settlements/"+challan.ID+"/close", "vc", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	paid := data[[]model.CashSettlementModel](t, s.do(http.MethodGet, "/api/v1/settlements?status=paid", "vc", nil))
	assert.Len(t, paid, 1)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/v1/settlements?status=void", "vc", nil).Code)

	pending := data[api.TotalResponse](t, s.do(http.MethodGet, "/api/v1/settlements/pending-total", "vc", nil))
	assert.Zero(t, pending.Total)
}

// TestVisitorRoutes 测试访客登记和搜索
func TestVisitorRoutes(t *testing.T) {
	s := newTestServer(t)
	s.user("gk", model.RoleGatekeeper, "")

	w := s.do(http.MethodPost, "/api/v1/guests", "gk", service.CreateVisitorRequest{
		Name: "Nadia", CNIC: "4510212345671", VisitingOffice: "Registrar",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	v := data[model.VisitorLogModel](t, w)

	w = s.do(http.MethodPut, "/api/v1/guests/"+v.ID, "gk", service.VisitorStatusRequest{Status: model.VisitorIn})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotNil(t, data[model.VisitorLogModel](t, w).InAt)

	w = s.do(http.MethodPut, "/api/v1/guests/"+uuid.NewString(), "gk", service.VisitorStatusRequest{Status: model.VisitorIn})
	assert.Equal(t, http.StatusNotFound, w.Code)

	found := data[[]model.VisitorLogModel](t, s.do(http.MethodGet, "/api/v1/guests?q=Nad", "gk", nil))
	assert.Len(t, found, 1)
}

// TestAssignmentRoutes 测试分配配置校验和审批人列表
func TestAssignmentRoutes(t *testing.T) {
	s := newTestServer(t)
	s.user("w1", model.RoleWarden, "")
	s.user("s1", model.RoleStudent, "")
	s.user("su", model.RoleSuperAdmin, "")

	w := s.do(http.MethodPut, "/api/v1/assignments", "su", service.PutAssignmentRequest{Hostler: []string{"s1"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	approvers := data[[]service.ApproverView](t, s.do(http.MethodGet, "/api/v1/approvers", "su", nil))
	require.Len(t, approvers, 1)
	assert.Equal(t, "w1", approvers[0].ID)
}
