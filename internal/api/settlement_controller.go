package api

import (
	"github.com/gin-gonic/gin"
	"github.com/jabbar-dev/bnb-aimtech/internal/service"
)

// SettlementController 现金解缴控制器
type SettlementController struct {
	settlements service.SettlementService
}

// NewSettlementController 创建现金解缴控制器
func NewSettlementController(settlements service.SettlementService) *SettlementController {
	return &SettlementController{settlements: settlements}
}

// Create 生成解缴单
func (sc *SettlementController) Create(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req service.CreateSettlementRequest
	if !bindJSON(c, &req) {
		return
	}
	s, err := sc.settlements.Create(c.Request.Context(), actor, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	Created(c, s)
}

// List 列出解缴单,?status= 过滤
func (sc *SettlementController) List(c *gin.Context) {
	list, err := sc.settlements.List(c.Request.Context(), c.Query("status"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	Success(c, list)
}

// Get 查询解缴单
func (sc *SettlementController) Get(c *gin.Context) {
	s, err := sc.settlements.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	Success(c, s)
}

// Close 登记缴款
func (sc *SettlementController) Close(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req service.CloseSettlementRequest
	// 凭证可以不填,允许空请求体
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	s, err := sc.settlements.Close(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	Success(c, s)
}

// PendingTotal 未解缴现金总额
func (sc *SettlementController) PendingTotal(c *gin.Context) {
	total, err := sc.settlements.PendingTotal(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	Success(c, TotalResponse{Total: total})
}
