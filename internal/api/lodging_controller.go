package api

import (
	"github.com/gin-gonic/gin"
	"github.com/jabbar-dev/bnb-aimtech/internal/service"
)

// LodgingController 招待所预订控制器
type LodgingController struct {
	lodging service.LodgingService
}

// NewLodgingController 创建招待所预订控制器
func NewLodgingController(lodging service.LodgingService) *LodgingController {
	return &LodgingController{lodging: lodging}
}

// Create 新建预订,同房间同日冲突返回 409
func (lc *LodgingController) Create(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req service.CreateBookingRequest
	if !bindJSON(c, &req) {
		return
	}
	b, err := lc.lodging.Create(c.Request.Context(), actor, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	Created(c, b)
}

// List 列出预订,?status= 过滤
func (lc *LodgingController) List(c *gin.Context) {
	list, err := lc.lodging.List(c.Request.Context(), c.Query("status"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	Success(c, list)
}

// Update 更新预订状态
func (lc *LodgingController) Update(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req service.UpdateBookingRequest
	if !bindJSON(c, &req) {
		return
	}
	b, err := lc.lodging.Update(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	Success(c, b)
}

// Pay 登记付款,重复付款返回 409
func (lc *LodgingController) Pay(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req service.PayRequest
	if !bindJSON(c, &req) {
		return
	}
	b, err := lc.lodging.Pay(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	Success(c, b)
}

// CashPending 未解缴现金总额
func (lc *LodgingController) CashPending(c *gin.Context) {
	total, err := lc.lodging.CashPending(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	Success(c, TotalResponse{Total: total})
}
