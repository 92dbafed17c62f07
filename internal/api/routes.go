package api

import (
	"github.com/gin-gonic/gin"
	"github.com/jabbar-dev/bnb-aimtech/internal/auth"
	"github.com/jabbar-dev/bnb-aimtech/internal/config"
	"github.com/jabbar-dev/bnb-aimtech/internal/service"
	"github.com/jabbar-dev/bnb-aimtech/internal/websocket"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Services 路由依赖的业务服务
type Services struct {
	Requests    service.RequestService
	Visitors    service.VisitorService
	Lodging     service.LodgingService
	Settlements service.SettlementService
	Assignments service.AssignmentService
}

// RouterOptions 路由配置
type RouterOptions struct {
	Config    *config.Config
	Logger    logrus.FieldLogger
	DB        *gorm.DB
	Validator *auth.TokenValidator
	Users     auth.UserLookup
	Hub       *websocket.Hub
	Services  Services
}

// SetupRoutes 配置路由
func SetupRoutes(opts RouterOptions) *gin.Engine {
	cfg := opts.Config
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())
	if cfg.Tracing.Endpoint != "" {
		router.Use(TracingMiddleware(cfg.Tracing))
	}
	router.Use(RequestLogMiddleware(opts.Logger))
	router.Use(SecurityHeadersMiddleware(config.IsProduction(cfg)))
	router.Use(CORSMiddleware(cfg.CORS))
	router.Use(ErrorHandlerMiddleware(opts.Logger))

	// 健康检查
	var push PushStats
	if opts.Hub != nil {
		push = opts.Hub
	}
	router.GET("/health", NewHealthController(opts.DB, push).Check)

	// Prometheus 指标端点
	router.GET("/metrics", MetricsHandler(opts.DB))

	authn := auth.Middleware(opts.Validator, opts.Users)

	// 推送通道,浏览器通过 ?token= 认证
	if opts.Hub != nil {
		upgrader := websocket.NewUpgrader(cfg.CORS.AllowedOrigins)
		router.GET("/ws", authn, websocket.Handler(opts.Hub, upgrader, opts.Logger))
	}

	requests := NewRequestController(opts.Services.Requests)
	visitors := NewVisitorController(opts.Services.Visitors)
	lodging := NewLodgingController(opts.Services.Lodging)
	settlements := NewSettlementController(opts.Services.Settlements)
	assignments := NewAssignmentController(opts.Services.Assignments)

	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	v1.Use(SLAMonitorMiddleware(DefaultSLAConfig(), opts.Logger))
	v1.Use(authn)
	{
		submit := auth.RequireCapability(auth.CapSubmitRequest)
		decide := auth.RequireCapability(auth.CapDecideRequest)
		gate := auth.RequireCapability(auth.CapGateRequest)

		req := v1.Group("/requests")
		{
			req.POST("", submit, requests.Create)
			req.GET("", submit, requests.ListOwn)
			req.GET("/approver", decide, requests.ListForApprover)
			req.PUT("/approver/:id", decide, requests.Decide)
			req.GET("/gate", gate, requests.ListGate)
			req.PUT("/gate/:id", gate, requests.Gate)
			req.GET("/admin", auth.RequireCapability(auth.CapViewAllRequests), requests.ListAll)
		}

		guests := v1.Group("/guests", auth.RequireCapability(auth.CapManageVisitors))
		{
			guests.POST("", visitors.Create)
			guests.GET("", visitors.List)
			guests.PUT("/:id", visitors.UpdateStatus)
		}

		rooms := v1.Group("/lodging", auth.RequireCapability(auth.CapManageLodging))
		{
			rooms.POST("", lodging.Create)
			rooms.GET("", lodging.List)
			rooms.GET("/cash-pending", lodging.CashPending)
			rooms.PUT("/:id", lodging.Update)
			rooms.PUT("/:id/pay", lodging.Pay)
		}

		challans := v1.Group("/settlements", auth.RequireCapability(auth.CapManageSettlements))
		{
			challans.POST("", settlements.Create)
			challans.GET("", settlements.List)
			challans.GET("/pending-total", settlements.PendingTotal)
			challans.GET("/:id", settlements.Get)
			challans.PATCH("/:id/close", settlements.Close)
		}

		manage := auth.RequireCapability(auth.CapManageAssignments)
		v1.GET("/assignments", manage, assignments.Get)
		v1.PUT("/assignments", manage, assignments.Put)
		v1.GET("/approvers", manage, assignments.Approvers)
	}

	return router
}
