package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jabbar-dev/bnb-aimtech/internal/service"
)

// RequestController 请假单控制器
type RequestController struct {
	requests service.RequestService
}

// NewRequestController 创建请假单控制器
func NewRequestController(requests service.RequestService) *RequestController {
	return &RequestController{requests: requests}
}

// Create 学生提交请假单
func (rc *RequestController) Create(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req service.CreateLeaveRequest
	if !bindJSON(c, &req) {
		return
	}

	created, err := rc.requests.Create(c.Request.Context(), actor, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	Created(c, created)
}

// ListOwn 学生查看自己的请假单
func (rc *RequestController) ListOwn(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	list, err := rc.requests.ListOwn(c.Request.Context(), actor)
	if err != nil {
		_ = c.Error(err)
		return
	}
	Success(c, list)
}

// ListForApprover 宿管查看冻结名单包含自己的请假单
func (rc *RequestController) ListForApprover(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	list, err := rc.requests.ListForApprover(c.Request.Context(), actor, c.Query("status"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	Success(c, list)
}

// Decide 宿管审批
func (rc *RequestController) Decide(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req service.DecideRequest
	if !bindJSON(c, &req) {
		return
	}

	updated, err := rc.requests.Decide(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	Success(c, updated)
}

// ListGate 门岗查看已批准和已出门的请假单
func (rc *RequestController) ListGate(c *gin.Context) {
	list, err := rc.requests.ListGate(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	Success(c, list)
}

// Gate 门岗登记出门或返回
func (rc *RequestController) Gate(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req service.GateRequest
	if !bindJSON(c, &req) {
		return
	}

	updated, err := rc.requests.Gate(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		// 门岗对不允许的迁移按请求错误处理
		if errors.Is(err, service.ErrInvalidTransition) {
			_ = c.Error(WrapError(err, http.StatusBadRequest, "invalid request"))
			return
		}
		_ = c.Error(err)
		return
	}
	Success(c, updated)
}

// ListAll 管理员查看全部请假单
func (rc *RequestController) ListAll(c *gin.Context) {
	list, err := rc.requests.ListAll(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	Success(c, list)
}
