package api

import (
	"github.com/gin-gonic/gin"
	"github.com/jabbar-dev/bnb-aimtech/internal/service"
)

// VisitorController 访客登记控制器
type VisitorController struct {
	visitors service.VisitorService
}

// NewVisitorController 创建访客登记控制器
func NewVisitorController(visitors service.VisitorService) *VisitorController {
	return &VisitorController{visitors: visitors}
}

// Create 登记访客
func (vc *VisitorController) Create(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req service.CreateVisitorRequest
	if !bindJSON(c, &req) {
		return
	}
	v, err := vc.visitors.Create(c.Request.Context(), actor, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	Created(c, v)
}

// List 列出访客,?q= 模糊搜索
func (vc *VisitorController) List(c *gin.Context) {
	list, err := vc.visitors.List(c.Request.Context(), c.Query("q"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	Success(c, list)
}

// UpdateStatus 登记访客进出
func (vc *VisitorController) UpdateStatus(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req service.VisitorStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	v, err := vc.visitors.UpdateStatus(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	Success(c, v)
}
